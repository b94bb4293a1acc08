package codec

import (
	"github.com/blackhowling/nativecol/bytesio"
	"github.com/blackhowling/nativecol/types"
)

// arrayCodec handles Array(T): a parallel array of u64 cumulative offsets
// (length = row count) followed by the concatenated child column (spec
// §4.2). Nested Array(Array(...)) falls out naturally: the child
// descriptor is itself an Array, so its own ReadData recurses with one
// more level of offsets.
type arrayCodec struct{}

func init() {
	registerKind(types.KindArray, arrayCodec{})
	types.RegisterBuilder("Array", func(reg *types.Registry, td *types.TypeDef) (*types.Descriptor, error) {
		if len(td.Values) != 1 || td.Values[0].Kind != types.ValueTypeExpr {
			return nil, &types.ParseError{Name: td.Name, Reason: "Array requires one element type argument"}
		}
		elem, err := reg.BuildFromTypeDef(td.Values[0].Type)
		if err != nil {
			return nil, err
		}
		return &types.Descriptor{Kind: types.KindArray, Elem: elem}, nil
	})
}

// ReadPrefix reads the element type's prefix once, ahead of any row's
// offsets (spec §4.2: "the child type's prefix is written/read once
// before the outermost offsets").
func (arrayCodec) ReadPrefix(d *types.Descriptor, src *bytesio.Source) error {
	return ReadPrefix(d.Elem, src)
}

func (arrayCodec) WritePrefix(d *types.Descriptor, sink *bytesio.Sink) error {
	return WritePrefix(d.Elem, sink)
}

func (arrayCodec) ReadData(d *types.Descriptor, src *bytesio.Source, n int) (types.Column, error) {
	offRaw, err := src.ReadArray(bytesio.Uint64, n)
	if err != nil {
		return nil, err
	}
	offsets := offRaw.([]uint64)
	total := 0
	if n > 0 {
		total = int(offsets[n-1])
	}
	flat, err := ReadData(d.Elem, src, total)
	if err != nil {
		return nil, err
	}
	out := make(types.Column, n)
	start := 0
	for i := 0; i < n; i++ {
		end := int(offsets[i])
		row := make([]any, end-start)
		copy(row, flat[start:end])
		out[i] = row
		start = end
	}
	return out, nil
}

func (arrayCodec) WriteData(d *types.Descriptor, sink *bytesio.Sink, col types.Column) error {
	offsets := make([]uint64, len(col))
	var flat types.Column
	var cum uint64
	for i, v := range col {
		row := v.([]any)
		cum += uint64(len(row))
		offsets[i] = cum
		flat = append(flat, row...)
	}
	sink.WriteArray(bytesio.Uint64, offsets)
	return WriteData(d.Elem, sink, flat)
}
