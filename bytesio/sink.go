package bytesio

import (
	"encoding/binary"
	"math"
)

// Sink is an append-only byte buffer matching the primitives codecs need to
// write: raw bytes, LEB128 varints, fixed-width little-endian integers, and
// typed arrays. It backs both the query-body SQL text and the insert block
// stream fed to the streambridge producer.
type Sink struct {
	buf []byte
}

// NewSink returns an empty Sink, optionally pre-sizing its backing array.
func NewSink(sizeHint int) *Sink {
	return &Sink{buf: make([]byte, 0, sizeHint)}
}

// Bytes returns the accumulated buffer. The returned slice aliases the
// Sink's internal storage; callers that retain it across further writes
// must copy.
func (s *Sink) Bytes() []byte { return s.buf }

// Len returns the number of bytes written so far.
func (s *Sink) Len() int { return len(s.buf) }

// Reset empties the sink for reuse.
func (s *Sink) Reset() { s.buf = s.buf[:0] }

// WriteByte appends a single byte.
func (s *Sink) WriteByte(b byte) { s.buf = append(s.buf, b) }

// WriteBytes appends raw bytes.
func (s *Sink) WriteBytes(b []byte) { s.buf = append(s.buf, b...) }

// WriteLEB128 appends an unsigned LEB128 varint.
func (s *Sink) WriteLEB128(v uint64) {
	for v >= 0x80 {
		s.buf = append(s.buf, byte(v)|0x80)
		v >>= 7
	}
	s.buf = append(s.buf, byte(v))
}

// WriteUint64 appends 8 little-endian bytes.
func (s *Sink) WriteUint64(v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	s.buf = append(s.buf, b[:]...)
}

// WriteLEB128Str appends a LEB128 length prefix followed by the string's
// raw bytes.
func (s *Sink) WriteLEB128Str(v string) {
	s.WriteLEB128(uint64(len(v)))
	s.buf = append(s.buf, v...)
}

// WriteLEB128Bytes appends a LEB128 length prefix followed by the raw
// bytes.
func (s *Sink) WriteLEB128Bytes(v []byte) {
	s.WriteLEB128(uint64(len(v)))
	s.buf = append(s.buf, v...)
}

// WriteArray appends a dense little-endian typed array, the inverse of
// Source.ReadArray.
func (s *Sink) WriteArray(code ElementCode, values any) {
	switch code {
	case Int8:
		for _, v := range values.([]int8) {
			s.buf = append(s.buf, byte(v))
		}
	case Uint8:
		s.buf = append(s.buf, values.([]uint8)...)
	case Int16:
		for _, v := range values.([]int16) {
			var b [2]byte
			binary.LittleEndian.PutUint16(b[:], uint16(v))
			s.buf = append(s.buf, b[:]...)
		}
	case Uint16:
		for _, v := range values.([]uint16) {
			var b [2]byte
			binary.LittleEndian.PutUint16(b[:], v)
			s.buf = append(s.buf, b[:]...)
		}
	case Int32:
		for _, v := range values.([]int32) {
			var b [4]byte
			binary.LittleEndian.PutUint32(b[:], uint32(v))
			s.buf = append(s.buf, b[:]...)
		}
	case Uint32:
		for _, v := range values.([]uint32) {
			var b [4]byte
			binary.LittleEndian.PutUint32(b[:], v)
			s.buf = append(s.buf, b[:]...)
		}
	case Int64:
		for _, v := range values.([]int64) {
			var b [8]byte
			binary.LittleEndian.PutUint64(b[:], uint64(v))
			s.buf = append(s.buf, b[:]...)
		}
	case Uint64:
		for _, v := range values.([]uint64) {
			var b [8]byte
			binary.LittleEndian.PutUint64(b[:], v)
			s.buf = append(s.buf, b[:]...)
		}
	case Float32:
		for _, v := range values.([]float32) {
			var b [4]byte
			binary.LittleEndian.PutUint32(b[:], math.Float32bits(v))
			s.buf = append(s.buf, b[:]...)
		}
	case Float64:
		for _, v := range values.([]float64) {
			var b [8]byte
			binary.LittleEndian.PutUint64(b[:], math.Float64bits(v))
			s.buf = append(s.buf, b[:]...)
		}
	}
}
