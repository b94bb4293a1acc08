package codec

import (
	"fmt"

	"github.com/blackhowling/nativecol/bytesio"
	"github.com/blackhowling/nativecol/types"
)

// dynamicCodec handles Dynamic: its own structure version (1 or 2), a
// LEB128 count of inlined variant type names, then the Variant discriminator
// layout reused verbatim (spec §4.2). Writes from this client always
// serialize the value as a String in its canonical text form, with a
// NULL literal for nulls, rather than dispatching through a Variant member.
type dynamicCodec struct{}

const dynamicStructureVersion = 1

func init() {
	registerKind(types.KindDynamic, dynamicCodec{})
	types.RegisterBuilder("Dynamic", func(*types.Registry, *types.TypeDef) (*types.Descriptor, error) {
		return &types.Descriptor{Kind: types.KindDynamic}, nil
	})
}

// pendingDynamic carries the type names inlined in a block's Dynamic
// prefix through to the following ReadData call, under the same
// single-request-at-a-time assumption documented on pendingLowCard.
var pendingDynamic = make(map[*types.Descriptor]*types.Descriptor)

func (dynamicCodec) ReadPrefix(d *types.Descriptor, src *bytesio.Source) error {
	if _, err := src.ReadByte(); err != nil { // structure version
		return err
	}
	count, err := src.ReadLEB128()
	if err != nil {
		return err
	}
	var variants []*types.Descriptor
	for i := uint64(0); i < count; i++ {
		name, err := src.ReadLEB128Str()
		if err != nil {
			return err
		}
		vd, err := types.Default.Get(name)
		if err != nil {
			return err
		}
		if err := ReadPrefix(vd, src); err != nil {
			return err
		}
		variants = append(variants, vd)
	}
	pendingDynamic[d] = &types.Descriptor{Kind: types.KindVariant, Variants: variants}
	return nil
}

func (dynamicCodec) WritePrefix(d *types.Descriptor, sink *bytesio.Sink) error {
	sink.WriteByte(dynamicStructureVersion)
	sink.WriteLEB128(0) // no inlined variant types: always written as String
	return nil
}

func (dynamicCodec) ReadData(d *types.Descriptor, src *bytesio.Source, n int) (types.Column, error) {
	synthetic, ok := pendingDynamic[d]
	if !ok {
		return nil, &bytesio.StreamFailureError{Message: "Dynamic data read before prefix"}
	}
	delete(pendingDynamic, d)
	return variantCodec{}.ReadData(synthetic, src, n)
}

func (dynamicCodec) WriteData(d *types.Descriptor, sink *bytesio.Sink, col types.Column) error {
	strs := make(types.Column, len(col))
	for i, v := range col {
		strs[i] = dynamicToString(v)
	}
	return stringCodec{}.WriteData(nil, sink, strs)
}

func dynamicToString(v any) string {
	if v == nil {
		return "NULL"
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
