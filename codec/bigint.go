package codec

import (
	"math/big"

	"github.com/blackhowling/nativecol/bytesio"
	"github.com/blackhowling/nativecol/types"
)

// bigIntCodec handles Int128/256 and UInt128/256: little-endian byte
// arrays decoded into *big.Int (spec §4.2: "serialize as little-endian
// bytes; read format is selectable int|string" — this port always
// produces *big.Int, leaving string rendering to the format-override
// layer).
type bigIntCodec struct {
	noPrefix
	width  int // bytes per value: 16 or 32
	signed bool
}

func init() {
	registerKind(types.KindInt128, bigIntCodec{width: 16, signed: true})
	registerKind(types.KindInt256, bigIntCodec{width: 32, signed: true})
	registerKind(types.KindUInt128, bigIntCodec{width: 16, signed: false})
	registerKind(types.KindUInt256, bigIntCodec{width: 32, signed: false})

	types.RegisterBuilder("Int128", func(*types.Registry, *types.TypeDef) (*types.Descriptor, error) {
		return &types.Descriptor{Kind: types.KindInt128}, nil
	})
	types.RegisterBuilder("Int256", func(*types.Registry, *types.TypeDef) (*types.Descriptor, error) {
		return &types.Descriptor{Kind: types.KindInt256}, nil
	})
	types.RegisterBuilder("UInt128", func(*types.Registry, *types.TypeDef) (*types.Descriptor, error) {
		return &types.Descriptor{Kind: types.KindUInt128}, nil
	})
	types.RegisterBuilder("UInt256", func(*types.Registry, *types.TypeDef) (*types.Descriptor, error) {
		return &types.Descriptor{Kind: types.KindUInt256}, nil
	})
}

func (c bigIntCodec) ReadData(d *types.Descriptor, src *bytesio.Source, n int) (types.Column, error) {
	out := make(types.Column, n)
	for i := 0; i < n; i++ {
		raw, err := src.ReadBytes(c.width)
		if err != nil {
			return nil, err
		}
		out[i] = bigIntFromLE(raw, c.signed)
	}
	return out, nil
}

func (c bigIntCodec) WriteData(d *types.Descriptor, sink *bytesio.Sink, col types.Column) error {
	for _, v := range col {
		b := bigIntToLE(v.(*big.Int), c.width)
		sink.WriteBytes(b)
	}
	return nil
}

// bigIntFromLE interprets raw (little-endian) as a signed or unsigned
// big.Int of raw's width.
func bigIntFromLE(raw []byte, signed bool) *big.Int {
	be := make([]byte, len(raw))
	for i, b := range raw {
		be[len(raw)-1-i] = b
	}
	v := new(big.Int).SetBytes(be)
	if signed && len(be) > 0 && be[0]&0x80 != 0 {
		bound := new(big.Int).Lsh(big.NewInt(1), uint(len(raw)*8))
		v.Sub(v, bound)
	}
	return v
}

// bigIntToLE renders v as a little-endian two's-complement byte array of
// the given width.
func bigIntToLE(v *big.Int, width int) []byte {
	tmp := new(big.Int).Set(v)
	if tmp.Sign() < 0 {
		bound := new(big.Int).Lsh(big.NewInt(1), uint(width*8))
		tmp.Add(tmp, bound)
	}
	be := tmp.Bytes()
	out := make([]byte, width)
	for k := 0; k < len(be) && k < width; k++ {
		out[k] = be[len(be)-1-k]
	}
	return out
}
