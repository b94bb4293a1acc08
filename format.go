package nativecol

import (
	"encoding/json"
	"net"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/blackhowling/nativecol/types"
)

// ColumnFormat is one entry in a format-override scope: a representation
// name (e.g. "string", "native") the codec layer should use in place of its
// library default for matching columns.
type ColumnFormat struct {
	// NameMatch is an exact column-name match, tried first.
	NameMatch string
	// TypeGlob is a glob pattern (e.g. "IP*", "*Int64") matched against the
	// column's type name when NameMatch is empty or doesn't match.
	TypeGlob string
	Format   string
}

// FormatOverrides resolves per-column format overrides with the precedence
// spec §4.2 describes: per-column override → per-query override → library
// default.
type FormatOverrides struct {
	defaults map[string]string // full type name (Descriptor.CanonicalName) -> format, client-wide
	query    []ColumnFormat     // per-query overrides, narrowest scope
}

// NewFormatOverrides builds an overrides resolver seeded with the
// library-wide defaults (a Client passes ClientConfig.DefaultFormats).
func NewFormatOverrides(defaults map[string]string) *FormatOverrides {
	d := make(map[string]string, len(defaults))
	for k, v := range defaults {
		d[k] = v
	}
	return &FormatOverrides{defaults: d}
}

// WithQueryOverrides returns a copy scoped to a single query's overrides,
// leaving the process-wide defaults untouched.
func (f *FormatOverrides) WithQueryOverrides(overrides []ColumnFormat) *FormatOverrides {
	return &FormatOverrides{defaults: f.defaults, query: overrides}
}

// Resolve returns the format string to use for a column named colName whose
// declared type is typeName (e.g. "UInt64", "IPv6"), or "" if no override
// applies and the codec's own default representation should be used.
func (f *FormatOverrides) Resolve(colName, typeName string) string {
	for _, o := range f.query {
		if o.NameMatch != "" && o.NameMatch == colName {
			return o.Format
		}
	}
	for _, o := range f.query {
		if o.TypeGlob != "" && globMatch(o.TypeGlob, typeName) {
			return o.Format
		}
	}
	if v, ok := f.defaults[typeName]; ok {
		return v
	}
	return ""
}

// applyFormatOverride rewrites data's values in place per spec §4.2's
// documented conversions: "string" renders a binary-shaped value (UUID,
// IPv4/IPv6, FixedString) as text; "raw" re-serializes a decoded JSON
// column back to a JSON-text string; "int64" reinterprets an unsigned
// UInt64 as signed. Any other format name, or a value that doesn't match
// the expected shape, is left untouched.
func applyFormatOverride(format string, desc *types.Descriptor, data types.Column) {
	switch format {
	case "string":
		for i, v := range data {
			switch t := v.(type) {
			case uuid.UUID:
				data[i] = t.String()
			case net.IP:
				data[i] = t.String()
			case string:
				if desc.Kind == types.KindFixedString {
					data[i] = strings.TrimRight(t, "\x00")
				}
			}
		}
	case "raw":
		for i, v := range data {
			if m, ok := v.(map[string]any); ok {
				if b, err := json.Marshal(m); err == nil {
					data[i] = string(b)
				}
			}
		}
	case "int64":
		for i, v := range data {
			if u, ok := v.(uint64); ok {
				data[i] = int64(u)
			}
		}
	}
}

// globMatch matches pattern against name using path.Match semantics, which
// covers the `IP*` / `*Int64` shapes spec §4.2 calls for; a malformed
// pattern never matches rather than erroring.
func globMatch(pattern, name string) bool {
	ok, err := path.Match(pattern, name)
	if err != nil {
		return false
	}
	if ok {
		return true
	}
	// path.Match's "*" does not match '/', which occurs in zone-qualified
	// names such as DateTime('Europe/Berlin'), so a pattern with a leading or
	// trailing "*" is also tried as a case-sensitive suffix or prefix match.
	if strings.HasPrefix(pattern, "*") {
		return strings.HasSuffix(name, strings.TrimPrefix(pattern, "*"))
	}
	if strings.HasSuffix(pattern, "*") {
		return strings.HasPrefix(name, strings.TrimSuffix(pattern, "*"))
	}
	return false
}
