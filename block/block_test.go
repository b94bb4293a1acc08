package block

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/blackhowling/nativecol/bytesio"
	"github.com/blackhowling/nativecol/types"
)

func descFor(t *testing.T, name string) *types.Descriptor {
	t.Helper()
	d, err := types.Default.Get(name)
	require.NoError(t, err)
	return d
}

func TestWriteReadSingleBlock(t *testing.T) {
	idDesc := descFor(t, "Int32")
	nameDesc := descFor(t, "String")

	sink := bytesio.NewSink(128)
	w := NewWriter(sink)
	err := w.Write(&Block{
		NumRows: 2,
		Columns: []Column{
			{Name: "id", Desc: idDesc, Data: types.Column{int32(1), int32(2)}},
			{Name: "name", Desc: nameDesc, Data: types.Column{"a", "b"}},
		},
	})
	require.NoError(t, err)

	src := bytesio.NewArraySource(sink.Bytes())
	r := NewReader(src, nil)
	b, err := r.Next()
	require.NoError(t, err)
	require.Equal(t, 2, b.NumRows)
	require.Equal(t, "id", b.Columns[0].Name)
	require.Equal(t, types.Column{int32(1), int32(2)}, b.Columns[0].Data)
	require.Equal(t, types.Column{"a", "b"}, b.Columns[1].Data)

	_, err = r.Next()
	require.ErrorIs(t, err, bytesio.ErrStreamComplete)
}

func TestReaderDetectsShapeMismatch(t *testing.T) {
	idDesc := descFor(t, "Int32")
	sink := bytesio.NewSink(128)
	w := NewWriter(sink)
	require.NoError(t, w.Write(&Block{
		NumRows: 1,
		Columns: []Column{{Name: "id", Desc: idDesc, Data: types.Column{int32(1)}}},
	}))
	require.NoError(t, w.Write(&Block{
		NumRows: 1,
		Columns: []Column{{Name: "id", Desc: descFor(t, "String"), Data: types.Column{"x"}}},
	}))

	src := bytesio.NewArraySource(sink.Bytes())
	r := NewReader(src, nil)
	_, err := r.Next()
	require.NoError(t, err)
	_, err = r.Next()
	require.Error(t, err)
	var shapeErr *ColumnShapeError
	require.ErrorAs(t, err, &shapeErr)
}

func TestMaterializeConcatenatesBlocks(t *testing.T) {
	idDesc := descFor(t, "Int32")
	sink := bytesio.NewSink(128)
	w := NewWriter(sink)
	require.NoError(t, w.Write(&Block{NumRows: 2, Columns: []Column{{Name: "id", Desc: idDesc, Data: types.Column{int32(1), int32(2)}}}}))
	require.NoError(t, w.Write(&Block{NumRows: 1, Columns: []Column{{Name: "id", Desc: idDesc, Data: types.Column{int32(3)}}}}))

	src := bytesio.NewArraySource(sink.Bytes())
	r := NewReader(src, nil)
	merged, err := Materialize(r)
	require.NoError(t, err)
	require.Len(t, merged, 1)
	require.Equal(t, types.Column{int32(1), int32(2), int32(3)}, merged[0].Data)
}

func TestChunkerSplitsByRowCount(t *testing.T) {
	idDesc := descFor(t, "Int32")
	col := make(types.Column, 10)
	for i := range col {
		col[i] = int32(i)
	}
	c := &Chunker{RowCount: 4, MaxBytes: DefaultBlockMaxBytes}
	blocks := Split([]string{"id"}, []*types.Descriptor{idDesc}, []types.Column{col}, SizePerRow(idDesc), c)
	require.Len(t, blocks, 3)
	require.Equal(t, 4, blocks[0].NumRows)
	require.Equal(t, 4, blocks[1].NumRows)
	require.Equal(t, 2, blocks[2].NumRows)
}

func TestChunkerHonorsByteBudget(t *testing.T) {
	idDesc := descFor(t, "Int64") // 8 bytes/row
	col := make(types.Column, 100)
	for i := range col {
		col[i] = int64(i)
	}
	c := &Chunker{RowCount: DefaultBlockRowCount, MaxBytes: 80} // 10 rows/block at 8 bytes each
	blocks := Split([]string{"id"}, []*types.Descriptor{idDesc}, []types.Column{col}, 8, c)
	require.Len(t, blocks, 10)
	for _, b := range blocks {
		require.Equal(t, 10, b.NumRows)
	}
}
