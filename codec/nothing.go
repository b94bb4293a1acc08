package codec

import (
	"github.com/blackhowling/nativecol/bytesio"
	"github.com/blackhowling/nativecol/types"
)

// nothingByte is the single byte Nothing writes per row, standing in for
// literal NULL (spec §4.2).
const nothingByte = 0x30

// nothingCodec handles Nothing: not meant to be inserted by callers, but
// fully readable (a query may legitimately return a Nothing-typed column,
// e.g. `SELECT NULL`).
type nothingCodec struct{ noPrefix }

func init() {
	registerKind(types.KindNothing, nothingCodec{})
	types.RegisterBuilder("Nothing", func(*types.Registry, *types.TypeDef) (*types.Descriptor, error) {
		return &types.Descriptor{Kind: types.KindNothing}, nil
	})
}

func (nothingCodec) ReadData(d *types.Descriptor, src *bytesio.Source, n int) (types.Column, error) {
	if _, err := src.ReadBytes(n); err != nil {
		return nil, err
	}
	out := make(types.Column, n)
	return out, nil
}

func (nothingCodec) WriteData(d *types.Descriptor, sink *bytesio.Sink, col types.Column) error {
	buf := make([]byte, len(col))
	for i := range buf {
		buf[i] = nothingByte
	}
	sink.WriteBytes(buf)
	return nil
}
