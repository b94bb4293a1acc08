package codec

import (
	"github.com/blackhowling/nativecol/bytesio"
	"github.com/blackhowling/nativecol/types"
)

// lowCardVersion is the only version tag the wire format recognizes (spec
// §4.2: "an 8-byte version tag (value 1 is the only recognized value)").
const lowCardVersion = 1

const (
	lowCardHasAdditionalKeys  = 1 << 9
	lowCardNeedsGlobalDict    = 1 << 10
)

// dictDescriptor returns the descriptor for the dictionary column: the
// inner type with both LowCardinality and Nullable stripped (spec §4.2:
// "dictionary keys serialized as a normal column of the inner type with
// nullable stripped").
func dictDescriptor(d *types.Descriptor) *types.Descriptor {
	cp := *d
	cp.LowCard = false
	cp.Nullable = false
	return &cp
}

func indexWidthCode(keyCount int) (bytesio.ElementCode, byte) {
	switch {
	case keyCount <= 1<<8:
		return bytesio.Uint8, 0
	case keyCount <= 1<<16:
		return bytesio.Uint16, 1
	case keyCount <= 1<<32:
		return bytesio.Uint32, 2
	default:
		return bytesio.Uint64, 3
	}
}

// readLowCardPrefix and readLowCardData together read the entire
// LowCardinality payload (spec groups the whole thing as "prefix" in
// common usage, but this port keeps the version/index-width/dictionary
// portion in ReadPrefix and leaves only the index array, read after the
// row count is known, to ReadData).
type lowCardState struct {
	indexCode bytesio.ElementCode
	dict      types.Column
}

// pendingLowCard carries state from ReadPrefix to the following ReadData
// call, keyed by the shared Descriptor pointer. Safe under the same
// single-request-at-a-time constraint the sync client already requires
// (spec §5: "a single client must not be used from multiple threads
// simultaneously unless distinct session identifiers are in play").
var pendingLowCard = make(map[*types.Descriptor]*lowCardState)

func readLowCardPrefix(d *types.Descriptor, src *bytesio.Source) error {
	version, err := src.ReadUint64()
	if err != nil {
		return err
	}
	if version != lowCardVersion {
		return &bytesio.StreamFailureError{Message: "unsupported LowCardinality version"}
	}
	flags, err := src.ReadUint64()
	if err != nil {
		return err
	}
	widthCode := flags & 0xff
	var indexCode bytesio.ElementCode
	switch widthCode {
	case 0:
		indexCode = bytesio.Uint8
	case 1:
		indexCode = bytesio.Uint16
	case 2:
		indexCode = bytesio.Uint32
	case 3:
		indexCode = bytesio.Uint64
	default:
		return &bytesio.StreamFailureError{Message: "unrecognized LowCardinality index width"}
	}
	keyCount, err := src.ReadUint64()
	if err != nil {
		return err
	}
	dd := dictDescriptor(d)
	dict, err := codecFor(dd.Kind).ReadData(dd, src, int(keyCount))
	if err != nil {
		return err
	}
	pendingLowCard[d] = &lowCardState{indexCode: indexCode, dict: dict}
	return nil
}

func writeLowCardPrefix(d *types.Descriptor, sink *bytesio.Sink) error {
	// Deferred: the index width depends on the dictionary size, which is
	// only known once WriteData has built the dictionary. Real prefix
	// bytes are emitted from writeLowCardData; WritePrefix is a no-op for
	// LowCardinality so block.go's write order stays prefix-then-data
	// without a second pass over the sink.
	return nil
}

func readLowCardData(d *types.Descriptor, src *bytesio.Source, n int) (types.Column, error) {
	st, ok := pendingLowCard[d]
	if !ok {
		return nil, &bytesio.StreamFailureError{Message: "LowCardinality data read before prefix"}
	}
	delete(pendingLowCard, d)

	indexCount, err := src.ReadUint64()
	if err != nil {
		return nil, err
	}
	if int(indexCount) != n {
		return nil, &bytesio.StreamFailureError{Message: "LowCardinality index count does not match block row count"}
	}
	raw, err := src.ReadArray(st.indexCode, n)
	if err != nil {
		return nil, err
	}

	out := make(types.Column, n)
	for i := 0; i < n; i++ {
		idx := indexAt(raw, i)
		if d.Nullable && idx == 0 {
			out[i] = nullSentinel
			continue
		}
		out[i] = st.dict[idx]
	}
	return out, nil
}

func indexAt(raw any, i int) uint64 {
	switch a := raw.(type) {
	case []uint8:
		return uint64(a[i])
	case []uint16:
		return uint64(a[i])
	case []uint32:
		return uint64(a[i])
	case []uint64:
		return a[i]
	default:
		return 0
	}
}

// writeLowCardData builds a dictionary (with a null sentinel at index 0
// when the inner type is nullable) from the distinct values in col, then
// emits the whole LowCardinality payload: version, flags, key count,
// dictionary column, index count, and the dense index array.
func writeLowCardData(d *types.Descriptor, sink *bytesio.Sink, col types.Column) error {
	dd := dictDescriptor(d)

	type key = any
	seen := make(map[key]int)
	var dict types.Column
	indices := make([]uint64, len(col))

	if d.Nullable {
		dict = append(dict, zeroValueFor(dd))
	}

	for i, v := range col {
		if d.Nullable && v == nil {
			indices[i] = 0
			continue
		}
		idx, ok := seen[v]
		if !ok {
			dict = append(dict, v)
			idx = len(dict) - 1
			seen[v] = idx
		}
		indices[i] = uint64(idx)
	}

	indexCode, widthFlag := indexWidthCode(len(dict))

	sink.WriteUint64(lowCardVersion)
	sink.WriteUint64(uint64(widthFlag) | lowCardHasAdditionalKeys)
	sink.WriteUint64(uint64(len(dict)))
	if err := codecFor(dd.Kind).WriteData(dd, sink, dict); err != nil {
		return err
	}
	sink.WriteUint64(uint64(len(indices)))
	sink.WriteArray(indexCode, narrowIndices(indexCode, indices))
	return nil
}

func narrowIndices(code bytesio.ElementCode, wide []uint64) any {
	switch code {
	case bytesio.Uint8:
		out := make([]uint8, len(wide))
		for i, v := range wide {
			out[i] = uint8(v)
		}
		return out
	case bytesio.Uint16:
		out := make([]uint16, len(wide))
		for i, v := range wide {
			out[i] = uint16(v)
		}
		return out
	case bytesio.Uint32:
		out := make([]uint32, len(wide))
		for i, v := range wide {
			out[i] = uint32(v)
		}
		return out
	default:
		return wide
	}
}
