package types

import (
	"strconv"
	"strings"
)

// WrapperKind is one of the two modifiers spec section 3 allows on a
// TypeDef, recorded outside-in in TypeDef.Wrappers.
type WrapperKind int

const (
	WrapperNullable WrapperKind = iota
	WrapperLowCardinality
)

func (w WrapperKind) String() string {
	if w == WrapperNullable {
		return "Nullable"
	}
	return "LowCardinality"
}

// ValueKind discriminates what a positional Value argument holds.
type ValueKind int

const (
	ValueTypeExpr ValueKind = iota
	ValueString
	ValueInt
)

// Value is one positional argument of a type expression: a nested type
// (Array(T)'s T), a quoted string literal (DateTime64's time zone), or an
// integer literal (Decimal's precision/scale, FixedString's length).
type Value struct {
	Kind ValueKind
	Type *TypeDef
	Str  string
	Int  int64
}

// KeyValue is one named argument: an Enum8/16 `'key' = value` entry, or a
// Tuple/Nested named field `name Type`, whose Value holds the field's type.
type KeyValue struct {
	Key   string
	Value Value
}

// SkipSpec is one JSON(...) SKIP clause: either a bare path identifier or a
// SKIP REGEXP '...' pattern.
type SkipSpec struct {
	Regexp  bool
	Pattern string
}

// TypedPath is one JSON(...) compile-time-declared path: <path> <type-expr>.
type TypedPath struct {
	Path string
	Type *TypeDef
}

// JSONSpec holds the JSON(...) argument list, which does not fit the
// generic Values/Keys shape (spec section 4.1: "JSON requires a sub-parser
// distinguishing max_dynamic_paths = N, max_dynamic_types = N, SKIP
// <identifier-or-REGEXP '...'>, and typed-path declarations").
type JSONSpec struct {
	MaxDynamicPaths int // -1 when unset
	MaxDynamicTypes int // -1 when unset
	Skips           []SkipSpec
	TypedPaths      []TypedPath
}

// TypeDef is the immutable descriptor-determining tuple from spec section
// 3: wrappers applied outside-in, positional Values, and named Keys. JSON
// carries its argument list separately in JSON, since its grammar is not a
// simple positional/named argument list.
type TypeDef struct {
	Name     string
	Wrappers []WrapperKind
	Values   []Value
	Keys     []KeyValue
	JSON     *JSONSpec
}

// CanonicalName renders the TypeDef back to the server-compatible type
// expression string. Used both as the descriptor cache key (so that
// structurally equal TypeDefs collapse to one cached Descriptor, per spec
// section 4.1's "descriptor equality is structural on typedef") and as the
// default Descriptor.CanonicalName() implementation.
func (t *TypeDef) CanonicalName() string {
	var b strings.Builder
	for _, w := range t.Wrappers {
		b.WriteString(w.String())
		b.WriteByte('(')
	}
	b.WriteString(t.innerName())
	for range t.Wrappers {
		b.WriteByte(')')
	}
	return b.String()
}

func (t *TypeDef) innerName() string {
	var b strings.Builder
	b.WriteString(t.Name)
	if t.Name == "JSON" {
		b.WriteString(t.jsonArgsString())
		return b.String()
	}
	if len(t.Values) == 0 && len(t.Keys) == 0 {
		return b.String()
	}
	b.WriteByte('(')
	first := true
	for _, v := range t.Values {
		if !first {
			b.WriteString(", ")
		}
		first = false
		b.WriteString(v.render())
	}
	for _, kv := range t.Keys {
		if !first {
			b.WriteString(", ")
		}
		first = false
		if kv.Value.Kind == ValueTypeExpr {
			// Tuple/Nested named field: name Type.
			b.WriteString(kv.Key)
			b.WriteByte(' ')
		} else {
			// Enum entry: 'key' = value.
			b.WriteString("'" + escapeQuote(kv.Key) + "' = ")
		}
		b.WriteString(kv.Value.render())
	}
	b.WriteByte(')')
	return b.String()
}

func (v Value) render() string {
	switch v.Kind {
	case ValueTypeExpr:
		return v.Type.CanonicalName()
	case ValueString:
		return "'" + escapeQuote(v.Str) + "'"
	default:
		return strconv.FormatInt(v.Int, 10)
	}
}

func (t *TypeDef) jsonArgsString() string {
	if t.JSON == nil {
		return ""
	}
	var parts []string
	if t.JSON.MaxDynamicPaths >= 0 {
		parts = append(parts, "max_dynamic_paths="+strconv.Itoa(t.JSON.MaxDynamicPaths))
	}
	if t.JSON.MaxDynamicTypes >= 0 {
		parts = append(parts, "max_dynamic_types="+strconv.Itoa(t.JSON.MaxDynamicTypes))
	}
	for _, s := range t.JSON.Skips {
		if s.Regexp {
			parts = append(parts, "SKIP REGEXP '"+escapeQuote(s.Pattern)+"'")
		} else {
			parts = append(parts, "SKIP "+s.Pattern)
		}
	}
	for _, p := range t.JSON.TypedPaths {
		parts = append(parts, p.Path+" "+p.Type.CanonicalName())
	}
	if len(parts) == 0 {
		return ""
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func escapeQuote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `'`, `\'`)
}


// HasWrapper reports whether w appears anywhere in t.Wrappers.
func (t *TypeDef) HasWrapper(w WrapperKind) bool {
	for _, have := range t.Wrappers {
		if have == w {
			return true
		}
	}
	return false
}

// WithoutWrappers returns a shallow copy of t with its Wrappers cleared,
// used when a container descriptor needs the "stripped" inner type (e.g.
// LowCardinality's dictionary column is written as "a normal column of the
// inner type with nullable stripped").
func (t *TypeDef) WithoutWrappers() *TypeDef {
	cp := *t
	cp.Wrappers = nil
	return &cp
}
