package codec

import (
	"encoding/binary"

	"github.com/google/uuid"

	"github.com/blackhowling/nativecol/bytesio"
	"github.com/blackhowling/nativecol/types"
)

// uuidCodec handles UUID: two little-endian u64 words, high word first,
// giving a deliberately swapped canonical byte order relative to RFC 4122
// (spec §4.2).
type uuidCodec struct{ noPrefix }

func init() {
	registerKind(types.KindUUID, uuidCodec{})
	types.RegisterBuilder("UUID", func(*types.Registry, *types.TypeDef) (*types.Descriptor, error) {
		return &types.Descriptor{Kind: types.KindUUID}, nil
	})
}

func (uuidCodec) ReadData(d *types.Descriptor, src *bytesio.Source, n int) (types.Column, error) {
	out := make(types.Column, n)
	for i := 0; i < n; i++ {
		hi, err := src.ReadUint64()
		if err != nil {
			return nil, err
		}
		lo, err := src.ReadUint64()
		if err != nil {
			return nil, err
		}
		var u uuid.UUID
		binary.BigEndian.PutUint64(u[0:8], hi)
		binary.BigEndian.PutUint64(u[8:16], lo)
		out[i] = u
	}
	return out, nil
}

func (uuidCodec) WriteData(d *types.Descriptor, sink *bytesio.Sink, col types.Column) error {
	for _, v := range col {
		u := v.(uuid.UUID)
		sink.WriteUint64(binary.BigEndian.Uint64(u[0:8]))
		sink.WriteUint64(binary.BigEndian.Uint64(u[8:16]))
	}
	return nil
}
