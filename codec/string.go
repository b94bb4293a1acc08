package codec

import (
	"strconv"

	"github.com/blackhowling/nativecol/bytesio"
	"github.com/blackhowling/nativecol/types"
)

// stringCodec handles String: per row, a LEB128 length prefix followed by
// raw bytes, defaulting to UTF-8 with a hex fallback for invalid UTF-8
// (spec §4.2).
type stringCodec struct{ noPrefix }

func init() {
	registerKind(types.KindString, stringCodec{})
	types.RegisterBuilder("String", func(*types.Registry, *types.TypeDef) (*types.Descriptor, error) {
		return &types.Descriptor{Kind: types.KindString}, nil
	})

	registerKind(types.KindFixedString, fixedStringCodec{})
	types.RegisterBuilder("FixedString", func(reg *types.Registry, td *types.TypeDef) (*types.Descriptor, error) {
		if len(td.Values) != 1 {
			return nil, &types.ParseError{Name: td.Name, Reason: "FixedString requires a length argument"}
		}
		return &types.Descriptor{Kind: types.KindFixedString, Length: int(td.Values[0].Int)}, nil
	})
}

func (stringCodec) ReadData(d *types.Descriptor, src *bytesio.Source, n int) (types.Column, error) {
	out := make(types.Column, n)
	for i := 0; i < n; i++ {
		raw, err := src.ReadLEB128Bytes()
		if err != nil {
			return nil, err
		}
		out[i] = bytesio.ValidUTF8OrHex(raw)
	}
	return out, nil
}

func (stringCodec) WriteData(d *types.Descriptor, sink *bytesio.Sink, col types.Column) error {
	for _, v := range col {
		sink.WriteLEB128Str(v.(string))
	}
	return nil
}

// fixedStringCodec handles FixedString(N): N raw bytes per row, zero-padded
// on write; over-long inputs are rejected rather than silently truncated.
type fixedStringCodec struct{ noPrefix }

func (fixedStringCodec) ReadData(d *types.Descriptor, src *bytesio.Source, n int) (types.Column, error) {
	out := make(types.Column, n)
	for i := 0; i < n; i++ {
		raw, err := src.ReadBytes(d.Length)
		if err != nil {
			return nil, err
		}
		out[i] = bytesio.ValidUTF8OrHex(raw)
	}
	return out, nil
}

func (fixedStringCodec) WriteData(d *types.Descriptor, sink *bytesio.Sink, col types.Column) error {
	for _, v := range col {
		s := v.(string)
		if len(s) > d.Length {
			return &FixedStringTooLongError{Length: d.Length, Got: len(s)}
		}
		padded := make([]byte, d.Length)
		copy(padded, s)
		sink.WriteBytes(padded)
	}
	return nil
}

// FixedStringTooLongError reports a write whose string input exceeds the
// declared FixedString(N) width.
type FixedStringTooLongError struct {
	Length int
	Got    int
}

func (e *FixedStringTooLongError) Error() string {
	return "nativecol: FixedString(" + strconv.Itoa(e.Length) + ") cannot hold a " + strconv.Itoa(e.Got) + "-byte value"
}
