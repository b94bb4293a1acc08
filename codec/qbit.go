package codec

import (
	"math"

	"github.com/blackhowling/nativecol/bytesio"
	"github.com/blackhowling/nativecol/types"
)

// qbitCodec handles QBit(T, N): a fixed element type T in
// {float16, bfloat16, float32, float64} and a fixed vector length N (spec
// §4.2). Each row's native representation is N element-width little-endian
// values; this port decodes/encodes every row as a []float64 of length N
// regardless of T's width, so callers never branch on the element type.
// The element kind is carried on d.Elem (a minimal Descriptor holding only
// Kind) rather than a dedicated field, since that is exactly what Elem
// already means for every other single-child kind.
type qbitCodec struct{ noPrefix }

func init() {
	registerKind(types.KindQBit, qbitCodec{})
	types.RegisterBuilder("QBit", func(reg *types.Registry, td *types.TypeDef) (*types.Descriptor, error) {
		if len(td.Values) != 2 {
			return nil, &types.ParseError{Name: td.Name, Reason: "QBit requires (element type, length) arguments"}
		}
		var elemKind types.Kind
		switch td.Values[0].Type.Name {
		case "Float16":
			elemKind = types.KindFloat16
		case "BFloat16":
			elemKind = types.KindBFloat16
		case "Float32":
			elemKind = types.KindFloat32
		case "Float64":
			elemKind = types.KindFloat64
		default:
			return nil, &types.ParseError{Name: td.Name, Reason: "QBit element type must be float16, bfloat16, float32, or float64"}
		}
		return &types.Descriptor{
			Kind:   types.KindQBit,
			Elem:   &types.Descriptor{Kind: elemKind},
			Length: int(td.Values[1].Int),
		}, nil
	})
}

func qbitElemWidth(k types.Kind) int {
	switch k {
	case types.KindFloat16, types.KindBFloat16:
		return 2
	case types.KindFloat32:
		return 4
	default:
		return 8
	}
}

func qbitDecodeElem(k types.Kind, raw []byte) float64 {
	switch k {
	case types.KindFloat16:
		return float16ToFloat64(uint16(raw[0]) | uint16(raw[1])<<8)
	case types.KindBFloat16:
		return float64(bfloat16ToFloat32(uint16(raw[0]) | uint16(raw[1])<<8))
	case types.KindFloat32:
		bits := uint32(raw[0]) | uint32(raw[1])<<8 | uint32(raw[2])<<16 | uint32(raw[3])<<24
		return float64(math.Float32frombits(bits))
	default:
		var bits uint64
		for i := 0; i < 8; i++ {
			bits |= uint64(raw[i]) << (8 * i)
		}
		return math.Float64frombits(bits)
	}
}

func qbitEncodeElem(k types.Kind, v float64, out []byte) {
	switch k {
	case types.KindFloat16:
		h := float64ToFloat16(v)
		out[0] = byte(h)
		out[1] = byte(h >> 8)
	case types.KindBFloat16:
		h := float32ToBFloat16(float32(v))
		out[0] = byte(h)
		out[1] = byte(h >> 8)
	case types.KindFloat32:
		bits := math.Float32bits(float32(v))
		out[0] = byte(bits)
		out[1] = byte(bits >> 8)
		out[2] = byte(bits >> 16)
		out[3] = byte(bits >> 24)
	default:
		bits := math.Float64bits(v)
		for i := 0; i < 8; i++ {
			out[i] = byte(bits >> (8 * i))
		}
	}
}

func (qbitCodec) ReadData(d *types.Descriptor, src *bytesio.Source, n int) (types.Column, error) {
	width := qbitElemWidth(d.Elem.Kind)
	out := make(types.Column, n)
	for i := 0; i < n; i++ {
		raw, err := src.ReadBytes(width * d.Length)
		if err != nil {
			return nil, err
		}
		vec := make([]float64, d.Length)
		for j := 0; j < d.Length; j++ {
			vec[j] = qbitDecodeElem(d.Elem.Kind, raw[j*width:(j+1)*width])
		}
		out[i] = vec
	}
	return out, nil
}

func (qbitCodec) WriteData(d *types.Descriptor, sink *bytesio.Sink, col types.Column) error {
	width := qbitElemWidth(d.Elem.Kind)
	for _, v := range col {
		vec := v.([]float64)
		if len(vec) != d.Length {
			return &QBitDimensionError{Want: d.Length, Got: len(vec)}
		}
		raw := make([]byte, width*d.Length)
		for j, f := range vec {
			qbitEncodeElem(d.Elem.Kind, f, raw[j*width:(j+1)*width])
		}
		sink.WriteBytes(raw)
	}
	return nil
}

// QBitDimensionError reports an insert vector whose length does not match
// the column's declared N (spec §4.2: "otherwise fail with a
// dimension-mismatch error").
type QBitDimensionError struct {
	Want, Got int
}

func (e *QBitDimensionError) Error() string {
	return "nativecol: QBit vector length mismatch"
}

// float16ToFloat64 widens an IEEE-754 binary16 half-precision float.
func float16ToFloat64(h uint16) float64 {
	sign := uint32(h>>15) & 1
	exp := uint32(h>>10) & 0x1f
	frac := uint32(h) & 0x3ff
	var bits uint32
	switch exp {
	case 0:
		if frac == 0 {
			bits = sign << 31
		} else {
			// Subnormal: normalize.
			e := -1
			for frac&0x400 == 0 {
				frac <<= 1
				e++
			}
			frac &= 0x3ff
			exp32 := uint32(127 - 15 - e)
			bits = sign<<31 | exp32<<23 | frac<<13
		}
	case 0x1f:
		bits = sign<<31 | 0xff<<23 | frac<<13
	default:
		exp32 := exp - 15 + 127
		bits = sign<<31 | exp32<<23 | frac<<13
	}
	return float64(math.Float32frombits(bits))
}

func float64ToFloat16(v float64) uint16 {
	f := float32(v)
	bits := math.Float32bits(f)
	sign := uint16(bits>>16) & 0x8000
	exp := int32(bits>>23)&0xff - 127 + 15
	frac := bits & 0x7fffff
	switch {
	case exp <= 0:
		return sign
	case exp >= 0x1f:
		return sign | 0x7c00
	default:
		return sign | uint16(exp)<<10 | uint16(frac>>13)
	}
}
