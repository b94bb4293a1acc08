package codec

import (
	"github.com/blackhowling/nativecol/bytesio"
	"github.com/blackhowling/nativecol/types"
)

// nullSentinel is the language-level placeholder stored at null positions.
// Spec §4.2: "null positions are overwritten with the caller-selected null
// sentinel"; this package always uses a nil interface value, leaving the
// caller-selected-sentinel policy (a zero value instead of nil, etc.) to
// the format-override layer above codec.
var nullSentinel = (any)(nil)

// readNullableData reads the Nullable wrapper's null-map prefix (one byte
// per row, non-zero meaning null) followed by the full-width inner column,
// then overwrites null positions with nullSentinel.
func readNullableData(d *types.Descriptor, src *bytesio.Source, n int) (types.Column, error) {
	mask, err := src.ReadBytes(n)
	if err != nil {
		return nil, err
	}
	inner := d.WithoutNullable()
	col, err := codecFor(inner.Kind).ReadData(inner, src, n)
	if err != nil {
		return nil, err
	}
	out := make(types.Column, n)
	for i := 0; i < n; i++ {
		if mask[i] != 0 {
			out[i] = nullSentinel
		} else {
			out[i] = col[i]
		}
	}
	return out, nil
}

// writeNullableData writes the null-map prefix then the inner column, with
// a placeholder (the inner type's zero value) substituted for null rows so
// the inner codec never observes a nil.
func writeNullableData(d *types.Descriptor, sink *bytesio.Sink, col types.Column) error {
	n := len(col)
	mask := make([]byte, n)
	inner := d.WithoutNullable()
	zero := zeroValueFor(inner)
	filled := make(types.Column, n)
	for i, v := range col {
		if v == nil {
			mask[i] = 1
			filled[i] = zero
		} else {
			filled[i] = v
		}
	}
	sink.WriteBytes(mask)
	return codecFor(inner.Kind).WriteData(inner, sink, filled)
}
