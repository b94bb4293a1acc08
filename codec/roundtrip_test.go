package codec

import (
	"math/big"
	"net"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/blackhowling/nativecol/bytesio"
	"github.com/blackhowling/nativecol/types"
)

// roundtrip writes col through d's prefix+data, then reads it back and
// returns the decoded column, exercising the exact wire shape a query
// response or insert body would use.
func roundtrip(t *testing.T, d *types.Descriptor, col types.Column) types.Column {
	t.Helper()
	sink := bytesio.NewSink(64)
	require.NoError(t, WritePrefix(d, sink))
	require.NoError(t, WriteData(d, sink, col))
	src := bytesio.NewArraySource(sink.Bytes())
	require.NoError(t, ReadPrefix(d, src))
	out, err := ReadData(d, src, len(col))
	require.NoError(t, err)
	return out
}

func descFor(t *testing.T, name string) *types.Descriptor {
	t.Helper()
	d, err := types.Default.Get(name)
	require.NoError(t, err)
	return d
}

func TestRoundtripInt32(t *testing.T) {
	d := descFor(t, "Int32")
	out := roundtrip(t, d, types.Column{int32(1), int32(-5), int32(0)})
	require.Equal(t, types.Column{int32(1), int32(-5), int32(0)}, out)
}

func TestRoundtripUInt64(t *testing.T) {
	d := descFor(t, "UInt64")
	out := roundtrip(t, d, types.Column{uint64(1), uint64(18446744073709551615)})
	require.Equal(t, types.Column{uint64(1), uint64(18446744073709551615)}, out)
}

func TestRoundtripFloat64(t *testing.T) {
	d := descFor(t, "Float64")
	out := roundtrip(t, d, types.Column{1.5, -2.25, 0.0})
	require.Equal(t, types.Column{1.5, -2.25, 0.0}, out)
}

func TestRoundtripBool(t *testing.T) {
	d := descFor(t, "Bool")
	out := roundtrip(t, d, types.Column{true, false, true})
	require.Equal(t, types.Column{true, false, true}, out)
}

func TestRoundtripString(t *testing.T) {
	d := descFor(t, "String")
	out := roundtrip(t, d, types.Column{"hello", "", "world of data"})
	require.Equal(t, types.Column{"hello", "", "world of data"}, out)
}

func TestRoundtripFixedString(t *testing.T) {
	d := descFor(t, "FixedString(5)")
	out := roundtrip(t, d, types.Column{"ab", "abcde"})
	require.Equal(t, types.Column{"ab\x00\x00\x00", "abcde"}, out)
}

func TestRoundtripFixedStringTooLong(t *testing.T) {
	d := descFor(t, "FixedString(2)")
	sink := bytesio.NewSink(16)
	err := WriteData(d, sink, types.Column{"abc"})
	require.Error(t, err)
	var tooLong *FixedStringTooLongError
	require.ErrorAs(t, err, &tooLong)
}

func TestRoundtripInt128(t *testing.T) {
	d := descFor(t, "Int128")
	big1 := big.NewInt(-123456789012345)
	out := roundtrip(t, d, types.Column{big1})
	require.Equal(t, 0, big1.Cmp(out[0].(*big.Int)))
}

func TestRoundtripDecimal64(t *testing.T) {
	d := descFor(t, "Decimal64(18, 4)")
	raw := ScaleDecimal(12.3456, 4)
	out := roundtrip(t, d, types.Column{raw})
	require.InDelta(t, 12.3456, UnscaleDecimal(out[0].(*big.Int), 4), 0.0001)
}

func TestRoundtripDateTime64(t *testing.T) {
	d := descFor(t, "DateTime64(3)")
	ts := time.Date(2024, 6, 1, 12, 30, 0, 0, time.UTC)
	out := roundtrip(t, d, types.Column{ts})
	require.True(t, ts.Equal(out[0].(time.Time)))
}

func TestRoundtripUUID(t *testing.T) {
	d := descFor(t, "UUID")
	id := uuid.New()
	out := roundtrip(t, d, types.Column{id})
	require.Equal(t, id, out[0].(uuid.UUID))
}

func TestRoundtripIPv4(t *testing.T) {
	d := descFor(t, "IPv4")
	ip := net.ParseIP("192.168.1.1").To4()
	out := roundtrip(t, d, types.Column{ip})
	require.True(t, ip.Equal(out[0].(net.IP)))
}

func TestRoundtripIPv6(t *testing.T) {
	d := descFor(t, "IPv6")
	ip := net.ParseIP("2001:db8::1")
	out := roundtrip(t, d, types.Column{ip})
	require.True(t, ip.Equal(out[0].(net.IP)))
}

func TestRoundtripEnum8(t *testing.T) {
	d := descFor(t, "Enum8('a' = 1, 'b' = 2)")
	out := roundtrip(t, d, types.Column{"a", "b", "a"})
	require.Equal(t, types.Column{"a", "b", "a"}, out)
}

func TestRoundtripArrayOfInt32(t *testing.T) {
	d := descFor(t, "Array(Int32)")
	col := types.Column{
		[]any{int32(1), int32(2)},
		[]any{},
		[]any{int32(3)},
	}
	out := roundtrip(t, d, col)
	require.Equal(t, col, out)
}

func TestRoundtripArrayOfArray(t *testing.T) {
	d := descFor(t, "Array(Array(Int32))")
	col := types.Column{
		[]any{[]any{int32(1), int32(2)}, []any{}},
		[]any{[]any{int32(3)}},
	}
	out := roundtrip(t, d, col)
	require.Equal(t, col, out)
}

func TestRoundtripPositionalTuple(t *testing.T) {
	d := descFor(t, "Tuple(Int32, String)")
	col := types.Column{
		[]any{int32(1), "a"},
		[]any{int32(2), "b"},
	}
	out := roundtrip(t, d, col)
	require.Equal(t, col, out)
}

func TestRoundtripNamedTuple(t *testing.T) {
	d := descFor(t, "Tuple(x Int32, y String)")
	col := types.Column{
		map[string]any{"x": int32(1), "y": "a"},
	}
	out := roundtrip(t, d, col)
	require.Equal(t, col, out)
}

func TestRoundtripMap(t *testing.T) {
	d := descFor(t, "Map(String, Int32)")
	col := types.Column{
		map[any]any{"a": int32(1), "b": int32(2)},
	}
	out := roundtrip(t, d, col)
	require.Equal(t, col, out)
}

func TestRoundtripNullableString(t *testing.T) {
	d := descFor(t, "Nullable(String)")
	out := roundtrip(t, d, types.Column{"a", nil, "c"})
	require.Equal(t, types.Column{"a", nil, "c"}, out)
}

func TestRoundtripLowCardinalityString(t *testing.T) {
	d := descFor(t, "LowCardinality(String)")
	out := roundtrip(t, d, types.Column{"x", "y", "x", "x"})
	require.Equal(t, types.Column{"x", "y", "x", "x"}, out)
}

func TestRoundtripLowCardinalityNullableString(t *testing.T) {
	d := descFor(t, "LowCardinality(Nullable(String))")
	out := roundtrip(t, d, types.Column{"x", nil, "x"})
	require.Equal(t, types.Column{"x", nil, "x"}, out)
}

func TestRoundtripVariant(t *testing.T) {
	d := descFor(t, "Variant(Int32, String)")
	col := types.Column{int32(1), "a", int32(2)}
	out := roundtrip(t, d, col)
	require.Equal(t, col, out)
}

func TestRoundtripVariantAmbiguousTyped(t *testing.T) {
	d := descFor(t, "Variant(Array(Int32), Array(String))")
	col := types.Column{
		TypedVariant{Value: []any{int32(1)}, TypeName: "Array(Int32)"},
	}
	out := roundtrip(t, d, col)
	require.Equal(t, []any{int32(1)}, out[0])
}

func TestRoundtripQBitFloat32(t *testing.T) {
	d := descFor(t, "QBit(Float32, 3)")
	col := types.Column{[]float64{1.5, -2.5, 0}}
	out := roundtrip(t, d, col)
	require.InDeltaSlice(t, col[0].([]float64), out[0].([]float64), 0.001)
}

func TestRoundtripQBitDimensionMismatch(t *testing.T) {
	d := descFor(t, "QBit(Float64, 4)")
	sink := bytesio.NewSink(32)
	err := WriteData(d, sink, types.Column{[]float64{1, 2}})
	require.Error(t, err)
	var dimErr *QBitDimensionError
	require.ErrorAs(t, err, &dimErr)
}

func TestRoundtripNothing(t *testing.T) {
	d := descFor(t, "Nothing")
	out := roundtrip(t, d, types.Column{nil, nil})
	require.Len(t, out, 2)
}

func TestAggregateFunctionNotSupported(t *testing.T) {
	d := descFor(t, "AggregateFunction(sum, Int64)")
	sink := bytesio.NewSink(16)
	err := WriteData(d, sink, types.Column{nil})
	require.Error(t, err)
	var ns *NotSupportedError
	require.ErrorAs(t, err, &ns)
}
