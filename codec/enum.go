package codec

import (
	"github.com/blackhowling/nativecol/bytesio"
	"github.com/blackhowling/nativecol/types"
)

// enumCodec handles Enum8/16: stored as the signed backing integer; reads
// decode to the key name via the reverse map, writes accept either the key
// (string) or the integer value directly (spec §4.2).
type enumCodec struct {
	noPrefix
	width int // 1 or 2
}

func init() {
	registerKind(types.KindEnum8, enumCodec{width: 1})
	registerKind(types.KindEnum16, enumCodec{width: 2})
	types.RegisterBuilder("Enum8", enumBuilder(types.KindEnum8))
	types.RegisterBuilder("Enum16", enumBuilder(types.KindEnum16))
}

func enumBuilder(kind types.Kind) types.BuilderFunc {
	return func(reg *types.Registry, td *types.TypeDef) (*types.Descriptor, error) {
		values := make(map[int64]string, len(td.Keys))
		names := make(map[string]int64, len(td.Keys))
		for _, kv := range td.Keys {
			values[kv.Value.Int] = kv.Key
			names[kv.Key] = kv.Value.Int
		}
		return &types.Descriptor{Kind: kind, EnumValues: values, EnumNames: names}, nil
	}
}

func (c enumCodec) ReadData(d *types.Descriptor, src *bytesio.Source, n int) (types.Column, error) {
	out := make(types.Column, n)
	if c.width == 1 {
		raw, err := src.ReadArray(bytesio.Int8, n)
		if err != nil {
			return nil, err
		}
		for i, v := range raw.([]int8) {
			out[i] = enumKeyFor(d, int64(v))
		}
		return out, nil
	}
	raw, err := src.ReadArray(bytesio.Int16, n)
	if err != nil {
		return nil, err
	}
	for i, v := range raw.([]int16) {
		out[i] = enumKeyFor(d, int64(v))
	}
	return out, nil
}

func enumKeyFor(d *types.Descriptor, v int64) string {
	if name, ok := d.EnumValues[v]; ok {
		return name
	}
	return ""
}

func (c enumCodec) WriteData(d *types.Descriptor, sink *bytesio.Sink, col types.Column) error {
	if c.width == 1 {
		vals := make([]int8, len(col))
		for i, v := range col {
			vals[i] = int8(enumValueFor(d, v))
		}
		sink.WriteArray(bytesio.Int8, vals)
		return nil
	}
	vals := make([]int16, len(col))
	for i, v := range col {
		vals[i] = int16(enumValueFor(d, v))
	}
	sink.WriteArray(bytesio.Int16, vals)
	return nil
}

// enumValueFor accepts either the key name (string) or an already-resolved
// integer value.
func enumValueFor(d *types.Descriptor, v any) int64 {
	switch val := v.(type) {
	case string:
		return d.EnumNames[val]
	case int64:
		return val
	case int:
		return int64(val)
	default:
		return 0
	}
}
