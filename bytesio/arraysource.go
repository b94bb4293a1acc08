package bytesio

import "io"

// NewArraySource wraps a complete, already-buffered byte slice as a Source.
// Used to decode a single value that was itself encoded as a full column
// (e.g. reading a JSON shared-data cell, which stores a complete nested
// Variant serialization as one String-encoded blob).
func NewArraySource(data []byte) *Source {
	pos := 0
	return NewSource(func() ([]byte, error) {
		if pos >= len(data) {
			return nil, io.EOF
		}
		chunk := data[pos:]
		pos = len(data)
		return chunk, nil
	})
}
