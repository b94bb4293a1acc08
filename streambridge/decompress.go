package streambridge

import (
	"compress/flate"
	"compress/gzip"
	"fmt"
	"io"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Decompress wraps r with the incremental decompressor named by encoding
// (an HTTP Content-Encoding value), feeding the streambridge consumer loop
// exactly as spec §4.7 describes: "decompression happens inside the
// consumer loop, fed by the queue, using incremental decompressors for
// gzip, deflate, br, zstd, lz4." An empty or "identity" encoding returns r
// unchanged.
func Decompress(encoding string, r io.Reader) (io.Reader, error) {
	switch encoding {
	case "", "identity":
		return r, nil
	case "gzip":
		return gzip.NewReader(r)
	case "deflate":
		return flate.NewReader(r), nil
	case "br":
		return brotli.NewReader(r), nil
	case "zstd":
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		return dec.IOReadCloser(), nil
	case "lz4":
		return lz4.NewReader(r), nil
	default:
		return nil, fmt.Errorf("streambridge: unsupported content encoding %q", encoding)
	}
}
