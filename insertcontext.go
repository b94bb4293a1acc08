package nativecol

import (
	"reflect"
	"strings"

	"github.com/blackhowling/nativecol/block"
	"github.com/blackhowling/nativecol/types"
)

// InsertShape is the detected orientation of a caller's insert payload,
// per spec §4.6's "Input shape detection".
type InsertShape int

const (
	ShapeRows InsertShape = iota
	ShapeColumns
	ShapeGenerator
)

// InsertContext bundles one insert's arguments: target columns, detected
// input shape, and the chunker sizing block emission.
type InsertContext struct {
	Table          string
	ColumnNames    []string
	Descriptors    []*types.Descriptor
	Shape          InsertShape
	ColumnOriented bool
	Chunker        *block.Chunker
}

// NewInsertContext builds a context with the default chunker sizing (spec
// §4.6's 262144-row / ~1MiB-per-block defaults).
func NewInsertContext(table string, names []string, descs []*types.Descriptor) *InsertContext {
	return &InsertContext{
		Table:       table,
		ColumnNames: names,
		Descriptors: descs,
		Chunker:     block.NewChunker(),
	}
}

// DetectShape classifies data per spec §4.6: a 2D array with a named
// (struct) element type unpacks column-oriented; a plain 2D slice is
// row-oriented unless ColumnOriented is set; a func value is treated as a
// generator/iterable and streamed block-by-block without materializing.
func (ic *InsertContext) DetectShape(data any) InsertShape {
	rv := reflect.ValueOf(data)
	if rv.Kind() == reflect.Func {
		ic.Shape = ShapeGenerator
		return ic.Shape
	}
	if rv.Kind() == reflect.Slice && rv.Len() > 0 {
		elem := rv.Index(0)
		if elem.Kind() == reflect.Struct {
			ic.Shape = ShapeColumns
			return ic.Shape
		}
	}
	if ic.ColumnOriented {
		ic.Shape = ShapeColumns
	} else {
		ic.Shape = ShapeRows
	}
	return ic.Shape
}

// RowsToColumns transposes row-oriented input ([][]any) into per-column
// types.Column slices matching ic.ColumnNames' order.
func RowsToColumns(rows [][]any, numCols int) []types.Column {
	cols := make([]types.Column, numCols)
	for c := range cols {
		cols[c] = make(types.Column, len(rows))
	}
	for r, row := range rows {
		for c := 0; c < numCols && c < len(row); c++ {
			cols[c][r] = row[c]
		}
	}
	return cols
}

// columnsFromStructSlice extracts one column per name in names from a slice
// of structs, matching each name to a struct field case-insensitively (spec
// §4.6's "a 2D array with a named (struct) element type unpacks
// column-oriented").
func columnsFromStructSlice(rv reflect.Value, names []string) ([]types.Column, error) {
	n := rv.Len()
	cols := make([]types.Column, len(names))
	for i := range cols {
		cols[i] = make(types.Column, n)
	}
	if n == 0 {
		return cols, nil
	}

	fieldIdx := make([]int, len(names))
	t := rv.Index(0).Type()
	for ci, name := range names {
		idx := -1
		for fi := 0; fi < t.NumField(); fi++ {
			if strings.EqualFold(t.Field(fi).Name, name) {
				idx = fi
				break
			}
		}
		if idx < 0 {
			return nil, &ProgrammingError{Message: "insert column " + name + " has no matching struct field"}
		}
		fieldIdx[ci] = idx
	}

	for r := 0; r < n; r++ {
		elem := rv.Index(r)
		for ci := range names {
			cols[ci][r] = elem.Field(fieldIdx[ci]).Interface()
		}
	}
	return cols, nil
}

// SizePerRowEstimate sums block.SizePerRow across ic's descriptors. The
// estimate comes from each column's type alone; no row values are sampled.
func (ic *InsertContext) SizePerRowEstimate() int {
	total := 0
	for _, d := range ic.Descriptors {
		total += block.SizePerRow(d)
	}
	return total
}

// Split groups cols into chunker-sized *block.Block values ready for
// sequential Writer.Write calls.
func (ic *InsertContext) Split(cols []types.Column) []*block.Block {
	return block.Split(ic.ColumnNames, ic.Descriptors, cols, ic.SizePerRowEstimate(), ic.Chunker)
}
