package codec

import (
	"reflect"

	"github.com/blackhowling/nativecol/bytesio"
	"github.com/blackhowling/nativecol/types"
)

// nullDiscriminator marks a null row in a Variant/Dynamic discriminator
// array (spec §4.2: "255 = null").
const nullDiscriminator = 255

// TypedVariant explicitly tags a value with the exact Variant member type
// name to write it as, for the ambiguous cases the Python source resolves
// by inspecting the runtime type of the first non-null value (spec §9:
// "Implicit coercions ... each codec declares the exact accepted input
// variant(s); callers convert explicitly"). Passing a bare Go value lets
// variantIndexForValue try an exact-reflect.Type match instead.
type TypedVariant struct {
	Value    any
	TypeName string
}

// variantCodec handles Variant(T1,...,Tn): a column prefix of a u64
// discriminator-mode (always 0 in this port) followed by each member's own
// prefix, then one discriminator byte per row followed by each member's
// packed sub-column in declaration order (spec §4.2 and the wire-layout
// table in §6).
type variantCodec struct{}

func init() {
	registerKind(types.KindVariant, variantCodec{})
	types.RegisterBuilder("Variant", func(reg *types.Registry, td *types.TypeDef) (*types.Descriptor, error) {
		var variants []*types.Descriptor
		for _, v := range td.Values {
			vd, err := reg.BuildFromTypeDef(v.Type)
			if err != nil {
				return nil, err
			}
			variants = append(variants, vd)
		}
		return &types.Descriptor{Kind: types.KindVariant, Variants: variants}, nil
	})
}

func (variantCodec) ReadPrefix(d *types.Descriptor, src *bytesio.Source) error {
	if _, err := src.ReadUint64(); err != nil {
		return err
	}
	for _, v := range d.Variants {
		if err := ReadPrefix(v, src); err != nil {
			return err
		}
	}
	return nil
}

func (variantCodec) WritePrefix(d *types.Descriptor, sink *bytesio.Sink) error {
	sink.WriteUint64(0)
	for _, v := range d.Variants {
		if err := WritePrefix(v, sink); err != nil {
			return err
		}
	}
	return nil
}

func (variantCodec) ReadData(d *types.Descriptor, src *bytesio.Source, n int) (types.Column, error) {
	discRaw, err := src.ReadArray(bytesio.Uint8, n)
	if err != nil {
		return nil, err
	}
	disc := discRaw.([]uint8)

	counts := make([]int, len(d.Variants))
	for _, dd := range disc {
		if int(dd) != nullDiscriminator {
			counts[dd]++
		}
	}

	subCols := make([]types.Column, len(d.Variants))
	for i, v := range d.Variants {
		col, err := ReadData(v, src, counts[i])
		if err != nil {
			return nil, err
		}
		subCols[i] = col
	}

	cursors := make([]int, len(d.Variants))
	out := make(types.Column, n)
	for i, dd := range disc {
		if int(dd) == nullDiscriminator {
			out[i] = nullSentinel
			continue
		}
		out[i] = subCols[dd][cursors[dd]]
		cursors[dd]++
	}
	return out, nil
}

func (variantCodec) WriteData(d *types.Descriptor, sink *bytesio.Sink, col types.Column) error {
	disc := make([]uint8, len(col))
	grouped := make([]types.Column, len(d.Variants))

	for i, v := range col {
		if v == nil {
			disc[i] = nullDiscriminator
			continue
		}
		idx, unwrapped := variantIndexForValue(d, v)
		if idx < 0 {
			return &VariantDispatchError{Value: v}
		}
		disc[i] = uint8(idx)
		grouped[idx] = append(grouped[idx], unwrapped)
	}

	sink.WriteArray(bytesio.Uint8, disc)
	for i, v := range d.Variants {
		if err := WriteData(v, sink, grouped[i]); err != nil {
			return err
		}
	}
	return nil
}

// variantIndexForValue resolves v to a member index, preferring an
// explicit TypedVariant tag and otherwise matching the exact
// reflect.TypeOf of v against each member's expected Go representation
// (spec §9: "uses type(v) rather than isinstance(v, ...) ... preserve this
// behavior" — intentionally not a structural/interface match).
func variantIndexForValue(d *types.Descriptor, v any) (int, any) {
	if tv, ok := v.(TypedVariant); ok {
		for i, m := range d.Variants {
			if m.CanonicalName() == tv.TypeName {
				return i, tv.Value
			}
		}
		return -1, nil
	}
	vt := reflect.TypeOf(v)
	for i, m := range d.Variants {
		if reflect.TypeOf(zeroValueFor(m)) == vt {
			return i, v
		}
	}
	return -1, nil
}

// VariantDispatchError reports a value with no unambiguous Variant member
// match (spec §4.2: "ambiguous types force the caller to tag").
type VariantDispatchError struct {
	Value any
}

func (e *VariantDispatchError) Error() string {
	return "nativecol: value has no matching Variant member; tag it with codec.TypedVariant"
}
