package codec

import (
	"math"
	"time"

	"github.com/blackhowling/nativecol/bytesio"
	"github.com/blackhowling/nativecol/types"
)

// fixedCodec handles every kind whose wire layout is a dense little-endian
// array with no column prefix: plain integers, floats, Bool, BFloat16,
// Date, Date32, DateTime (spec §4.2 "fixed-width scalar types ... serialize
// as a densely-packed little-endian array").
type fixedCodec struct {
	noPrefix
	code types.Kind
}

func init() {
	registerScalar(types.KindInt8, bytesio.Int8)
	registerScalar(types.KindInt16, bytesio.Int16)
	registerScalar(types.KindInt32, bytesio.Int32)
	registerScalar(types.KindInt64, bytesio.Int64)
	registerScalar(types.KindUInt8, bytesio.Uint8)
	registerScalar(types.KindUInt16, bytesio.Uint16)
	registerScalar(types.KindUInt32, bytesio.Uint32)
	registerScalar(types.KindUInt64, bytesio.Uint64)
	registerScalar(types.KindFloat32, bytesio.Float32)
	registerScalar(types.KindFloat64, bytesio.Float64)
	registerScalar(types.KindBool, bytesio.Uint8)
	registerScalar(types.KindBFloat16, bytesio.Uint16)
	registerScalar(types.KindDate, bytesio.Uint16)
	registerScalar(types.KindDate32, bytesio.Int32)
	registerScalar(types.KindDateTime, bytesio.Uint32)

	for _, name := range []string{"Int8", "Int16", "Int32", "Int64", "UInt8", "UInt16", "UInt32", "UInt64",
		"Float32", "Float64", "Bool", "BFloat16", "Date", "Date32", "DateTime"} {
		name := name
		types.RegisterBuilder(name, func(reg *types.Registry, td *types.TypeDef) (*types.Descriptor, error) {
			return &types.Descriptor{Kind: kindForScalarName(name)}, nil
		})
	}
}

func kindForScalarName(name string) types.Kind {
	switch name {
	case "Int8":
		return types.KindInt8
	case "Int16":
		return types.KindInt16
	case "Int32":
		return types.KindInt32
	case "Int64":
		return types.KindInt64
	case "UInt8":
		return types.KindUInt8
	case "UInt16":
		return types.KindUInt16
	case "UInt32":
		return types.KindUInt32
	case "UInt64":
		return types.KindUInt64
	case "Float32":
		return types.KindFloat32
	case "Float64":
		return types.KindFloat64
	case "Bool":
		return types.KindBool
	case "BFloat16":
		return types.KindBFloat16
	case "Date":
		return types.KindDate
	case "Date32":
		return types.KindDate32
	case "DateTime":
		return types.KindDateTime
	default:
		return types.KindNothing
	}
}

var scalarArrayCode = make(map[types.Kind]bytesio.ElementCode)

func registerScalar(k types.Kind, code bytesio.ElementCode) {
	scalarArrayCode[k] = code
	registerKind(k, fixedCodec{code: k})
}

func dateFromDays(days int64) time.Time {
	return time.Unix(days*86400, 0).UTC()
}

func daysFromDate(t time.Time) int64 {
	return t.UTC().Unix() / 86400
}

func (c fixedCodec) ReadData(d *types.Descriptor, src *bytesio.Source, n int) (types.Column, error) {
	code := scalarArrayCode[c.code]
	raw, err := src.ReadArray(code, n)
	if err != nil {
		return nil, err
	}
	out := make(types.Column, n)
	switch c.code {
	case types.KindInt8:
		for i, v := range raw.([]int8) {
			out[i] = v
		}
	case types.KindInt16:
		for i, v := range raw.([]int16) {
			out[i] = v
		}
	case types.KindInt32:
		for i, v := range raw.([]int32) {
			out[i] = v
		}
	case types.KindInt64:
		for i, v := range raw.([]int64) {
			out[i] = v
		}
	case types.KindUInt8:
		for i, v := range raw.([]uint8) {
			out[i] = v
		}
	case types.KindUInt16:
		for i, v := range raw.([]uint16) {
			out[i] = v
		}
	case types.KindUInt32:
		for i, v := range raw.([]uint32) {
			out[i] = v
		}
	case types.KindUInt64:
		for i, v := range raw.([]uint64) {
			out[i] = v
		}
	case types.KindFloat32:
		for i, v := range raw.([]float32) {
			out[i] = v
		}
	case types.KindFloat64:
		for i, v := range raw.([]float64) {
			out[i] = v
		}
	case types.KindBool:
		for i, v := range raw.([]uint8) {
			out[i] = v != 0
		}
	case types.KindBFloat16:
		for i, v := range raw.([]uint16) {
			out[i] = bfloat16ToFloat32(v)
		}
	case types.KindDate:
		for i, v := range raw.([]uint16) {
			out[i] = dateFromDays(int64(v))
		}
	case types.KindDate32:
		for i, v := range raw.([]int32) {
			out[i] = dateFromDays(int64(v))
		}
	case types.KindDateTime:
		for i, v := range raw.([]uint32) {
			out[i] = time.Unix(int64(v), 0).UTC()
		}
	}
	return out, nil
}

func (c fixedCodec) WriteData(d *types.Descriptor, sink *bytesio.Sink, col types.Column) error {
	code := scalarArrayCode[c.code]
	switch c.code {
	case types.KindInt8:
		vals := make([]int8, len(col))
		for i, v := range col {
			vals[i] = v.(int8)
		}
		sink.WriteArray(code, vals)
	case types.KindInt16:
		vals := make([]int16, len(col))
		for i, v := range col {
			vals[i] = v.(int16)
		}
		sink.WriteArray(code, vals)
	case types.KindInt32:
		vals := make([]int32, len(col))
		for i, v := range col {
			vals[i] = v.(int32)
		}
		sink.WriteArray(code, vals)
	case types.KindInt64:
		vals := make([]int64, len(col))
		for i, v := range col {
			vals[i] = v.(int64)
		}
		sink.WriteArray(code, vals)
	case types.KindUInt8:
		vals := make([]uint8, len(col))
		for i, v := range col {
			vals[i] = v.(uint8)
		}
		sink.WriteArray(code, vals)
	case types.KindUInt16:
		vals := make([]uint16, len(col))
		for i, v := range col {
			vals[i] = v.(uint16)
		}
		sink.WriteArray(code, vals)
	case types.KindUInt32:
		vals := make([]uint32, len(col))
		for i, v := range col {
			vals[i] = v.(uint32)
		}
		sink.WriteArray(code, vals)
	case types.KindUInt64:
		vals := make([]uint64, len(col))
		for i, v := range col {
			vals[i] = v.(uint64)
		}
		sink.WriteArray(code, vals)
	case types.KindFloat32:
		vals := make([]float32, len(col))
		for i, v := range col {
			vals[i] = v.(float32)
		}
		sink.WriteArray(code, vals)
	case types.KindFloat64:
		vals := make([]float64, len(col))
		for i, v := range col {
			vals[i] = v.(float64)
		}
		sink.WriteArray(code, vals)
	case types.KindBool:
		vals := make([]uint8, len(col))
		for i, v := range col {
			if v.(bool) {
				vals[i] = 1
			}
		}
		sink.WriteArray(code, vals)
	case types.KindBFloat16:
		vals := make([]uint16, len(col))
		for i, v := range col {
			vals[i] = float32ToBFloat16(v.(float32))
		}
		sink.WriteArray(code, vals)
	case types.KindDate:
		vals := make([]uint16, len(col))
		for i, v := range col {
			vals[i] = uint16(daysFromDate(v.(time.Time)))
		}
		sink.WriteArray(code, vals)
	case types.KindDate32:
		vals := make([]int32, len(col))
		for i, v := range col {
			vals[i] = int32(daysFromDate(v.(time.Time)))
		}
		sink.WriteArray(code, vals)
	case types.KindDateTime:
		vals := make([]uint32, len(col))
		for i, v := range col {
			vals[i] = uint32(v.(time.Time).UTC().Unix())
		}
		sink.WriteArray(code, vals)
	}
	return nil
}

// bfloat16ToFloat32 widens a bfloat16 (the top 16 bits of an IEEE-754
// float32) by shifting it into the high half of a 32-bit word. Spec §8:
// "bfloat16 rounds to 7 significant bits" is an accepted, documented
// precision loss, not a bug.
func bfloat16ToFloat32(b uint16) float32 {
	return math.Float32frombits(uint32(b) << 16)
}

func float32ToBFloat16(f float32) uint16 {
	bits := math.Float32bits(f)
	// Round-to-nearest-even on the truncated low half.
	rounded := bits + 0x7fff + ((bits >> 16) & 1)
	return uint16(rounded >> 16)
}
