package codec

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/blackhowling/nativecol/bytesio"
	"github.com/blackhowling/nativecol/types"
)

// TestJSONLegacyRoundtrip exercises the legacy (version 0) wire form this
// codec writes: a JSON-string blob unmarshaled back into a nested map.
func TestJSONLegacyRoundtrip(t *testing.T) {
	d := &types.Descriptor{Kind: types.KindJSON}
	col := types.Column{
		map[string]any{"a": float64(1), "b": "x"},
	}
	sink := bytesio.NewSink(64)
	require.NoError(t, WritePrefix(d, sink))
	require.NoError(t, WriteData(d, sink, col))

	src := bytesio.NewArraySource(sink.Bytes())
	require.NoError(t, ReadPrefix(d, src))
	out, err := ReadData(d, src, len(col))
	require.NoError(t, err)
	require.Equal(t, col[0], out[0])
}

// TestJSONCurrentReadTypedAndDynamicPaths builds a version-2 wire payload
// by hand (one typed path, one dynamic path, empty shared data) and checks
// that ReadData reassembles the dotted paths into a nested map.
func TestJSONCurrentReadTypedAndDynamicPaths(t *testing.T) {
	spec := &types.JSONSpec{
		MaxDynamicPaths: -1,
		MaxDynamicTypes: -1,
		TypedPaths: []types.TypedPath{
			{Path: "user.id", Type: &types.TypeDef{Name: "Int32"}},
		},
	}
	d := &types.Descriptor{Kind: types.KindJSON, JSON: spec}

	sink := bytesio.NewSink(128)
	sink.WriteUint64(jsonSerializeVersionCurrent)
	sink.WriteLEB128(1) // one dynamic path
	sink.WriteLEB128Str("user.name")

	typedDesc := descFor(t, "Int32")
	require.NoError(t, WritePrefix(typedDesc, sink))

	// Hand-write the dynamic path's own prefix (structure version, one
	// inlined variant type "String") the way a server response would,
	// since dynamicCodec.WritePrefix only ever emits this client's
	// zero-inlined-types shortcut for outbound inserts.
	sink.WriteByte(dynamicStructureVersion)
	sink.WriteLEB128(1)
	sink.WriteLEB128Str("String")

	require.NoError(t, WriteData(typedDesc, sink, types.Column{int32(42)}))

	// Dynamic path's data: one discriminator byte selecting the sole
	// inlined member (String), then that member's one-row sub-column.
	sink.WriteByte(0)
	require.NoError(t, stringCodec{}.WriteData(nil, sink, types.Column{"alice"}))

	require.NoError(t, stringCodec{}.WriteData(nil, sink, types.Column{""})) // shared data

	src := bytesio.NewArraySource(sink.Bytes())
	require.NoError(t, ReadPrefix(d, src))
	out, err := ReadData(d, src, 1)
	require.NoError(t, err)

	row := out[0].(map[string]any)
	user := row["user"].(map[string]any)
	require.Equal(t, int32(42), user["id"])
	require.Equal(t, "alice", user["name"])
}

func TestInsertJSONPathEscapesPercent(t *testing.T) {
	root := map[string]any{}
	insertJSONPath(root, "a%2Eb.c", "v", false)
	inner, ok := root["a.b"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "v", inner["c"])
}
