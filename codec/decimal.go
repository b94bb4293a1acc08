package codec

import (
	"math/big"

	"github.com/blackhowling/nativecol/bytesio"
	"github.com/blackhowling/nativecol/types"
)

// decimalCodec handles Decimal32/64/128/256: the raw backing integer is
// round(value * 10^scale), stored little-endian at a width chosen from the
// declared precision (spec §4.2). Columns hold *big.Int everywhere so
// Decimal32/64 and Decimal128/256 share one representation; narrower
// widths simply never produce a value that overflows their own backing
// size.
type decimalCodec struct {
	noPrefix
	width int // bytes: 4, 8, 16, 32
}

func init() {
	registerKind(types.KindDecimal32, decimalCodec{width: 4})
	registerKind(types.KindDecimal64, decimalCodec{width: 8})
	registerKind(types.KindDecimal128, decimalCodec{width: 16})
	registerKind(types.KindDecimal256, decimalCodec{width: 32})

	types.RegisterBuilder("Decimal32", decimalBuilder(types.KindDecimal32))
	types.RegisterBuilder("Decimal64", decimalBuilder(types.KindDecimal64))
	types.RegisterBuilder("Decimal128", decimalBuilder(types.KindDecimal128))
	types.RegisterBuilder("Decimal256", decimalBuilder(types.KindDecimal256))
	types.RegisterBuilder("Decimal", decimalGenericBuilder)
}

func decimalBuilder(kind types.Kind) types.BuilderFunc {
	return func(reg *types.Registry, td *types.TypeDef) (*types.Descriptor, error) {
		if len(td.Values) != 2 {
			return nil, &types.ParseError{Name: td.Name, Reason: "expected (precision, scale)"}
		}
		return &types.Descriptor{
			Kind:      kind,
			Precision: int(td.Values[0].Int),
			Scale:     int(td.Values[1].Int),
		}, nil
	}
}

// decimalGenericBuilder handles the bare "Decimal(P, S)" spelling, picking
// a backing width from P: <=9 -> 32-bit, <=18 -> 64-bit, <=38 -> 128-bit,
// <=76 -> 256-bit.
func decimalGenericBuilder(reg *types.Registry, td *types.TypeDef) (*types.Descriptor, error) {
	if len(td.Values) != 2 {
		return nil, &types.ParseError{Name: td.Name, Reason: "expected (precision, scale)"}
	}
	p := int(td.Values[0].Int)
	var kind types.Kind
	switch {
	case p <= 9:
		kind = types.KindDecimal32
	case p <= 18:
		kind = types.KindDecimal64
	case p <= 38:
		kind = types.KindDecimal128
	default:
		kind = types.KindDecimal256
	}
	return &types.Descriptor{Kind: kind, Precision: p, Scale: int(td.Values[1].Int)}, nil
}

func (c decimalCodec) ReadData(d *types.Descriptor, src *bytesio.Source, n int) (types.Column, error) {
	out := make(types.Column, n)
	for i := 0; i < n; i++ {
		raw, err := src.ReadBytes(c.width)
		if err != nil {
			return nil, err
		}
		out[i] = bigIntFromLE(raw, true)
	}
	return out, nil
}

func (c decimalCodec) WriteData(d *types.Descriptor, sink *bytesio.Sink, col types.Column) error {
	for _, v := range col {
		sink.WriteBytes(bigIntToLE(v.(*big.Int), c.width))
	}
	return nil
}

// ScaleDecimal converts a float64 value into the raw scaled integer a
// Decimal(P,S) column stores: round(value * 10^S).
func ScaleDecimal(value float64, scale int) *big.Int {
	f := new(big.Float).SetFloat64(value)
	mul := new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(scale)), nil))
	f.Mul(f, mul)
	r, _ := f.Float64()
	bi, _ := new(big.Float).SetFloat64(roundHalfAwayFromZero(r)).Int(nil)
	return bi
}

func roundHalfAwayFromZero(f float64) float64 {
	if f >= 0 {
		return float64(int64(f + 0.5))
	}
	return float64(int64(f - 0.5))
}

// UnscaleDecimal renders a raw scaled *big.Int back to a float64.
func UnscaleDecimal(raw *big.Int, scale int) float64 {
	f := new(big.Float).SetInt(raw)
	div := new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(scale)), nil))
	f.Quo(f, div)
	out, _ := f.Float64()
	return out
}
