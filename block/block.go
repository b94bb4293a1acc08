// Package block implements the native wire format's block framing (spec
// §4.4): reading a response as a sequence of (num_columns, num_rows,
// per-column name/type/prefix/data) blocks, verifying that every block
// after the first declares the same column shape, and writing insert
// blocks chunked to a row-count and byte-size budget.
package block

import (
	"strconv"

	"github.com/blackhowling/nativecol/bytesio"
	"github.com/blackhowling/nativecol/codec"
	"github.com/blackhowling/nativecol/types"
)

// Column is one decoded column: its declared name, its built Descriptor,
// and its values.
type Column struct {
	Name string
	Desc *types.Descriptor
	Data types.Column
}

// Block is one frame's worth of columns, all sharing the same row count.
type Block struct {
	Columns []Column
	NumRows int
}

// ColumnShapeError reports a later block whose column names/types don't
// match the first block read from the same stream (spec §4.4: "verify
// types match across blocks (contract: server is consistent)").
type ColumnShapeError struct {
	Index            int
	WantName, GotName string
	WantType, GotType string
}

func (e *ColumnShapeError) Error() string {
	return "nativecol: block column " + strconv.Itoa(e.Index) + " shape mismatch: want " +
		e.WantName + " " + e.WantType + ", got " + e.GotName + " " + e.GotType
}

// Reader reads a sequence of Blocks from a bytesio.Source, registering the
// first block's column names/types and verifying every subsequent block
// against that shape.
type Reader struct {
	src     *bytesio.Source
	reg     *types.Registry
	first   []shapeEntry
	started bool
	lastErr error

	// Transform, if set, runs against each column's decoded data right
	// after it is read, before it is assigned into the Block. It lets a
	// caller layer per-column format overrides and timezone policy (spec
	// §4.2, §4.5) onto already-typed values without threading new
	// parameters through every codec's ReadData.
	Transform func(name string, desc *types.Descriptor, data types.Column)
}

type shapeEntry struct {
	name, typeName string
	desc           *types.Descriptor
}

// NewReader builds a Reader over src, resolving type names against reg (nil
// uses types.Default).
func NewReader(src *bytesio.Source, reg *types.Registry) *Reader {
	if reg == nil {
		reg = types.Default
	}
	return &Reader{src: src, reg: reg}
}

// Next reads one block, or returns (nil, bytesio.ErrStreamComplete) at a
// clean end-of-stream boundary between blocks (spec §4.4's while-loop).
func (r *Reader) Next() (blk *Block, err error) {
	defer func() {
		if err != nil && err != bytesio.ErrStreamComplete {
			r.lastErr = err
		}
	}()

	numCols, err := r.src.ReadLEB128()
	if err != nil {
		return nil, err
	}
	numRows, err := r.src.ReadLEB128()
	if err != nil {
		return nil, err
	}

	cols := make([]Column, numCols)
	for i := uint64(0); i < numCols; i++ {
		name, err := r.src.ReadLEB128Str()
		if err != nil {
			return nil, err
		}
		typeName, err := r.src.ReadLEB128Str()
		if err != nil {
			return nil, err
		}

		if !r.started {
			r.first = append(r.first, shapeEntry{}) // extended below once desc resolved
		} else if int(i) < len(r.first) {
			want := r.first[i]
			if want.name != name || want.typeName != typeName {
				return nil, &ColumnShapeError{Index: int(i), WantName: want.name, GotName: name, WantType: want.typeName, GotType: typeName}
			}
		}

		desc, err := r.reg.Get(typeName)
		if err != nil {
			return nil, err
		}
		if !r.started {
			r.first[i] = shapeEntry{name: name, typeName: typeName, desc: desc}
		}

		if err := codec.ReadPrefix(desc, r.src); err != nil {
			return nil, err
		}
		data, err := codec.ReadData(desc, r.src, int(numRows))
		if err != nil {
			return nil, err
		}
		if r.Transform != nil {
			r.Transform(name, desc, data)
		}
		cols[i] = Column{Name: name, Desc: desc, Data: data}
	}
	r.started = true
	return &Block{Columns: cols, NumRows: int(numRows)}, nil
}

// Close closes the underlying Source, surfacing a *bytesio.StreamFailureError
// in place of the read error that ended the stream if the transport's
// exception trailer (set via Source.SetExceptionTrailer) identifies a
// server-reported exception (spec §6's mid-stream error scenario).
func (r *Reader) Close() error {
	return r.src.Close(r.lastErr)
}

// Writer serializes Blocks to a bytesio.Sink for an insert body.
type Writer struct {
	sink *bytesio.Sink
}

// NewWriter wraps sink.
func NewWriter(sink *bytesio.Sink) *Writer {
	return &Writer{sink: sink}
}

// Write emits one block's header, per-column prefixes, and per-column data
// in order (spec §4.4: "each block is serialized by writing the column
// header then delegating to each descriptor's write_column").
func (w *Writer) Write(b *Block) error {
	w.sink.WriteLEB128(uint64(len(b.Columns)))
	w.sink.WriteLEB128(uint64(b.NumRows))
	for _, c := range b.Columns {
		w.sink.WriteLEB128Str(c.Name)
		w.sink.WriteLEB128Str(c.Desc.CanonicalName())
		if err := codec.WritePrefix(c.Desc, w.sink); err != nil {
			return err
		}
		if err := codec.WriteData(c.Desc, w.sink, c.Data); err != nil {
			return err
		}
	}
	return nil
}
