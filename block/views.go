package block

import (
	"github.com/blackhowling/nativecol/bytesio"
	"github.com/blackhowling/nativecol/types"
)

// RowIterator yields one Block's worth of row tuples at a time (spec §4.4:
// "row-at-a-time: yield one block's worth of tuples, then advance").
type RowIterator struct {
	r *Reader
}

// NewRowIterator wraps r for row-at-a-time consumption.
func NewRowIterator(r *Reader) *RowIterator { return &RowIterator{r: r} }

// Next returns the next block's rows as one []any per row (positional,
// matching each block's declared column order), or bytesio.ErrStreamComplete
// at a clean end of stream.
func (it *RowIterator) Next() ([][]any, []Column, error) {
	b, err := it.r.Next()
	if err != nil {
		return nil, nil, err
	}
	rows := make([][]any, b.NumRows)
	for i := range rows {
		row := make([]any, len(b.Columns))
		for c, col := range b.Columns {
			row[c] = col.Data[i]
		}
		rows[i] = row
	}
	return rows, b.Columns, nil
}

// ColumnIterator yields one Block's worth of columns at a time, for
// consumers that want columnar batches rather than row tuples (spec §4.4:
// "column-block: yield one block's worth of columns").
type ColumnIterator struct {
	r *Reader
}

// NewColumnIterator wraps r for column-block consumption.
func NewColumnIterator(r *Reader) *ColumnIterator { return &ColumnIterator{r: r} }

// Next returns the next Block verbatim, or bytesio.ErrStreamComplete.
func (it *ColumnIterator) Next() (*Block, error) {
	return it.r.Next()
}

// Materialize drains r fully and concatenates every block's columns into
// one result set (spec §4.4: "materialized: concatenate all blocks, then
// present as a single result set").
func Materialize(r *Reader) ([]Column, error) {
	var merged []Column
	for {
		b, err := r.Next()
		if err != nil {
			if err == bytesio.ErrStreamComplete {
				break
			}
			return nil, err
		}
		if merged == nil {
			merged = make([]Column, len(b.Columns))
			for i, c := range b.Columns {
				merged[i] = Column{Name: c.Name, Desc: c.Desc, Data: append(types.Column(nil), c.Data...)}
			}
			continue
		}
		for i, c := range b.Columns {
			merged[i].Data = append(merged[i].Data, c.Data...)
		}
	}
	return merged, nil
}
