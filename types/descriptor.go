package types

// Column is a decoded or to-be-encoded column of values. Concrete element
// types vary by Descriptor.Kind: fixed-width Go numerics for numeric kinds,
// string for String/FixedString, []byte for raw UUID/IP words, []any for
// Tuple/Map rows, and so on — the codec package is the authority on the
// concrete shape for each kind.
type Column = []any

// Descriptor is the built, ready-to-use counterpart of a TypeDef: it knows
// its Kind, its wrapper flags, and enough about its children to let the
// codec package recurse without re-parsing a type-name string at every
// nesting level. The types package only builds and caches Descriptors; it
// never reads or writes bytes itself (spec section 4.1's registry/descriptor
// split, mirrored here the way database/sql splits driver registration from
// the driver's own read/write code).
type Descriptor struct {
	Kind     Kind
	Def      *TypeDef
	Nullable bool
	LowCard  bool

	// Elem is the child descriptor for single-child containers: Array,
	// Map's value is folded into Tuple instead (see Fields), Nullable and
	// LowCardinality's own inner type (same Elem, post wrapper-strip).
	Elem *Descriptor

	// Fields holds Tuple/Map/Nested child descriptors in declaration
	// order. Map is represented as Tuple(key, value) per spec's wire
	// mapping, so Fields has exactly two entries for Map.
	Fields []*Descriptor
	// FieldNames holds the matching names for named-tuple/Nested fields,
	// empty for a positional (unnamed) Tuple.
	FieldNames []string

	// Variants holds Variant/Dynamic's alternative descriptors in the
	// order they appear on the wire (Dynamic's are read from each block's
	// structure rather than from the type name, so this is nil until a
	// block has been read).
	Variants []*Descriptor

	// EnumValues maps an Enum8/16's declared integer value to its name,
	// and EnumNames the reverse, for O(1) lookup both directions.
	EnumValues map[int64]string
	EnumNames  map[string]int64

	// Precision/Scale serve Decimal32/64/128/256. Length serves
	// FixedString and QBit. TZ holds DateTime/DateTime64's declared zone
	// name, empty when unspecified.
	Precision int
	Scale     int
	Length    int
	TZ        string

	// JSON carries the JSON type's parsed argument list through to the
	// codec's JSON reader/writer.
	JSON *JSONSpec
}

// WithoutNullable returns a shallow copy of d with Nullable cleared, used
// by the Nullable wrapper's generic read/write path to recurse into the
// inner codec without re-triggering null-map handling.
func (d *Descriptor) WithoutNullable() *Descriptor {
	cp := *d
	cp.Nullable = false
	return &cp
}

// CanonicalName renders the descriptor's originating TypeDef back to its
// wire type-expression string.
func (d *Descriptor) CanonicalName() string {
	if d.Def != nil {
		return d.Def.CanonicalName()
	}
	return d.Kind.String()
}

// BuilderFunc constructs a Descriptor for td, given a registry to resolve
// this type's children through (so nested Array(Array(T))-style types don't
// each need their own bespoke recursion). Registered per-Kind at package
// init time by the codec package, the same driver-registration shape
// database/sql uses for its drivers.
type BuilderFunc func(reg *Registry, td *TypeDef) (*Descriptor, error)

// UnknownTypeError reports a type name with no registered builder.
type UnknownTypeError struct {
	Name string
}

func (e *UnknownTypeError) Error() string {
	return "nativecol: unknown type: " + e.Name
}

// ParseError reports a malformed type-expression string.
type ParseError struct {
	Name   string
	Reason string
}

func (e *ParseError) Error() string {
	return "nativecol: cannot parse type " + e.Name + ": " + e.Reason
}
