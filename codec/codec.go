// Package codec implements the per-type binary read/write rules spec
// section 4.2 assigns to the codec library: for every base kind, a read
// prefix, read data, write prefix, and write data operation, plus the two
// generic wrapper contracts (Nullable's null map, LowCardinality's
// dictionary-and-indices layout) that apply uniformly across kinds.
package codec

import (
	"math/big"
	"net"
	"time"

	"github.com/google/uuid"

	"github.com/blackhowling/nativecol/bytesio"
	"github.com/blackhowling/nativecol/types"
)

// Codec is what each base kind registers for itself. ReadPrefix/WritePrefix
// are no-ops for the majority of kinds (only LowCardinality, Variant,
// Dynamic, and JSON have a column prefix of their own per spec §4.2) but
// every kind implements the interface uniformly so dispatch never needs a
// type switch on presence.
type Codec interface {
	ReadPrefix(d *types.Descriptor, src *bytesio.Source) error
	ReadData(d *types.Descriptor, src *bytesio.Source, n int) (types.Column, error)
	WritePrefix(d *types.Descriptor, sink *bytesio.Sink) error
	WriteData(d *types.Descriptor, sink *bytesio.Sink, col types.Column) error
}

var kindCodecs = make(map[types.Kind]Codec)

// registerKind installs c as the Codec for k. Called from each per-kind
// file's init(), mirroring registerBuilder's init-time registration into
// the types registry.
func registerKind(k types.Kind, c Codec) {
	kindCodecs[k] = c
}

func codecFor(k types.Kind) Codec {
	c, ok := kindCodecs[k]
	if !ok {
		panic("codec: no Codec registered for kind " + k.String())
	}
	return c
}

// noPrefix is embedded by kinds with no column-prefix bytes of their own.
type noPrefix struct{}

func (noPrefix) ReadPrefix(*types.Descriptor, *bytesio.Source) error  { return nil }
func (noPrefix) WritePrefix(*types.Descriptor, *bytesio.Sink) error { return nil }

// ReadPrefix reads d's column-header bytes, including the Nullable wrapper
// (which has no prefix of its own) and LowCardinality's dictionary header.
// Wrapper prefixes are read outside-in, matching TypeDef.Wrappers order.
func ReadPrefix(d *types.Descriptor, src *bytesio.Source) error {
	if d.LowCard {
		return readLowCardPrefix(d, src)
	}
	return codecFor(d.Kind).ReadPrefix(d, src)
}

// WritePrefix is ReadPrefix's inverse.
func WritePrefix(d *types.Descriptor, sink *bytesio.Sink) error {
	if d.LowCard {
		return writeLowCardPrefix(d, sink)
	}
	return codecFor(d.Kind).WritePrefix(d, sink)
}

// ReadData reads n rows of column data, applying the Nullable null-map and
// LowCardinality index decoding generically before delegating the base
// value decode to the registered per-kind Codec.
func ReadData(d *types.Descriptor, src *bytesio.Source, n int) (types.Column, error) {
	if d.LowCard {
		return readLowCardData(d, src, n)
	}
	if d.Nullable {
		return readNullableData(d, src, n)
	}
	return codecFor(d.Kind).ReadData(d, src, n)
}

// WriteData is ReadData's inverse.
func WriteData(d *types.Descriptor, sink *bytesio.Sink, col types.Column) error {
	if d.LowCard {
		return writeLowCardData(d, sink, col)
	}
	if d.Nullable {
		return writeNullableData(d, sink, col)
	}
	return codecFor(d.Kind).WriteData(d, sink, col)
}

// zeroValueFor returns the placeholder value substituted for null rows
// before handing a column to a kind's WriteData, so no per-kind writer
// needs to special-case a nil element.
func zeroValueFor(d *types.Descriptor) any {
	switch d.Kind {
	case types.KindInt8:
		return int8(0)
	case types.KindInt16:
		return int16(0)
	case types.KindInt32:
		return int32(0)
	case types.KindInt64:
		return int64(0)
	case types.KindUInt8:
		return uint8(0)
	case types.KindUInt16:
		return uint16(0)
	case types.KindUInt32:
		return uint32(0)
	case types.KindUInt64:
		return uint64(0)
	case types.KindInt128, types.KindInt256, types.KindUInt128, types.KindUInt256:
		return big.NewInt(0)
	case types.KindFloat32, types.KindBFloat16:
		return float32(0)
	case types.KindFloat64:
		return float64(0)
	case types.KindBool:
		return false
	case types.KindString, types.KindFixedString, types.KindEnum8, types.KindEnum16:
		return ""
	case types.KindDate, types.KindDate32, types.KindDateTime, types.KindDateTime64:
		return time.Time{}
	case types.KindTime, types.KindTime64:
		return time.Duration(0)
	case types.KindDecimal32, types.KindDecimal64, types.KindDecimal128, types.KindDecimal256:
		return big.NewInt(0)
	case types.KindUUID:
		return uuid.UUID{}
	case types.KindIPv4:
		return net.IPv4zero
	case types.KindIPv6:
		return net.IPv6zero
	case types.KindArray, types.KindTuple, types.KindNested,
		types.KindPoint, types.KindRing, types.KindPolygon, types.KindMultiPolygon:
		return []any{}
	case types.KindMap:
		return map[any]any{}
	case types.KindJSON:
		return map[string]any{}
	case types.KindQBit:
		return make([]float64, d.Length)
	default:
		return nil
	}
}
