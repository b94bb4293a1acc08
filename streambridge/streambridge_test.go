package streambridge

import (
	"bytes"
	"compress/gzip"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestQueryBridgeDeliversChunksThenEOF(t *testing.T) {
	body := io.NopCloser(strings.NewReader(strings.Repeat("x", 10)))
	b := NewQueryBridge(context.Background(), body, 4, 2)
	defer b.Close()

	next := b.ChunkFunc()
	var got []byte
	for {
		chunk, err := next()
		if err != nil {
			require.ErrorIs(t, err, io.EOF)
			break
		}
		got = append(got, chunk...)
	}
	require.Equal(t, strings.Repeat("x", 10), string(got))
}

func TestQueryBridgeCloseCancelsPump(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	b := NewQueryBridge(context.Background(), pr, 4, 1)
	b.Close()
	_, err := b.ChunkFunc()()
	require.Error(t, err)
}

func TestInsertBridgeWritesAllChunks(t *testing.T) {
	b := NewInsertBridge(context.Background(), 2, func(emit func([]byte) bool) error {
		emit([]byte("abc"))
		emit([]byte("def"))
		return nil
	})
	var buf bytes.Buffer
	require.NoError(t, b.WriteTo(&buf))
	require.Equal(t, "abcdef", buf.String())
}

func TestInsertBridgeCapturesSerializerError(t *testing.T) {
	boom := io.ErrClosedPipe
	b := NewInsertBridge(context.Background(), 2, func(emit func([]byte) bool) error {
		emit([]byte("partial"))
		return boom
	})
	var buf bytes.Buffer
	err := b.WriteTo(&buf)
	require.ErrorIs(t, err, boom)
}

func TestDecompressGzip(t *testing.T) {
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	_, err := gw.Write([]byte("hello world"))
	require.NoError(t, err)
	require.NoError(t, gw.Close())

	r, err := Decompress("gzip", &buf)
	require.NoError(t, err)
	out, err := io.ReadAll(r)
	require.NoError(t, err)
	require.Equal(t, "hello world", string(out))
}

func TestDecompressIdentity(t *testing.T) {
	r, err := Decompress("", strings.NewReader("plain"))
	require.NoError(t, err)
	out, err := io.ReadAll(r)
	require.NoError(t, err)
	require.Equal(t, "plain", string(out))
}

func TestDecompressUnsupported(t *testing.T) {
	_, err := Decompress("bogus", strings.NewReader(""))
	require.Error(t, err)
}
