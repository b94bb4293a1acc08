package types

// Kind is the closed set of base type kinds spec section 3 enumerates.
// Nullable and LowCardinality are not kinds of their own: they are wrapper
// flags recorded on TypeDef.Wrappers and surfaced by Descriptor.Nullable /
// Descriptor.LowCard.
type Kind int

const (
	KindInt8 Kind = iota
	KindInt16
	KindInt32
	KindInt64
	KindInt128
	KindInt256
	KindUInt8
	KindUInt16
	KindUInt32
	KindUInt64
	KindUInt128
	KindUInt256
	KindFloat32
	KindFloat64
	KindFloat16
	KindBFloat16
	KindBool
	KindString
	KindFixedString
	KindDate
	KindDate32
	KindDateTime
	KindDateTime64
	KindTime
	KindTime64
	KindDecimal32
	KindDecimal64
	KindDecimal128
	KindDecimal256
	KindUUID
	KindIPv4
	KindIPv6
	KindEnum8
	KindEnum16
	KindArray
	KindTuple
	KindMap
	KindNested
	KindVariant
	KindDynamic
	KindJSON
	KindAggregateFunction
	KindPoint
	KindRing
	KindPolygon
	KindMultiPolygon
	KindQBit
	KindNothing
)

var kindNames = map[Kind]string{
	KindInt8: "Int8", KindInt16: "Int16", KindInt32: "Int32", KindInt64: "Int64",
	KindInt128: "Int128", KindInt256: "Int256",
	KindUInt8: "UInt8", KindUInt16: "UInt16", KindUInt32: "UInt32", KindUInt64: "UInt64",
	KindUInt128: "UInt128", KindUInt256: "UInt256",
	KindFloat32: "Float32", KindFloat64: "Float64", KindFloat16: "Float16", KindBFloat16: "BFloat16",
	KindBool: "Bool", KindString: "String", KindFixedString: "FixedString",
	KindDate: "Date", KindDate32: "Date32", KindDateTime: "DateTime", KindDateTime64: "DateTime64",
	KindTime: "Time", KindTime64: "Time64",
	KindDecimal32: "Decimal32", KindDecimal64: "Decimal64", KindDecimal128: "Decimal128", KindDecimal256: "Decimal256",
	KindUUID: "UUID", KindIPv4: "IPv4", KindIPv6: "IPv6",
	KindEnum8: "Enum8", KindEnum16: "Enum16",
	KindArray: "Array", KindTuple: "Tuple", KindMap: "Map", KindNested: "Nested",
	KindVariant: "Variant", KindDynamic: "Dynamic", KindJSON: "JSON",
	KindAggregateFunction: "AggregateFunction",
	KindPoint:             "Point", KindRing: "Ring", KindPolygon: "Polygon", KindMultiPolygon: "MultiPolygon",
	KindQBit: "QBit", KindNothing: "Nothing",
}

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return "Unknown"
}
