package bytesio

import (
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func chunked(chunks ...[]byte) ChunkFunc {
	i := 0
	return func() ([]byte, error) {
		if i >= len(chunks) {
			return nil, io.EOF
		}
		c := chunks[i]
		i++
		return c, nil
	}
}

func TestReadBytesAcrossChunks(t *testing.T) {
	src := NewSource(chunked([]byte{1, 2}, []byte{3, 4, 5}))
	b, err := src.ReadBytes(5)
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2, 3, 4, 5}, b)
}

func TestReadBytesTruncatedMidValue(t *testing.T) {
	src := NewSource(chunked([]byte{1, 2}))
	_, err := src.ReadBytes(5)
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestReadBytesCleanEOF(t *testing.T) {
	src := NewSource(chunked())
	_, err := src.ReadBytes(1)
	require.ErrorIs(t, err, ErrStreamComplete)
}

func TestLEB128RoundTrip(t *testing.T) {
	cases := []uint64{0, 1, 127, 128, 300, 1 << 40, 1<<64 - 1}
	for _, v := range cases {
		sink := NewSink(0)
		sink.WriteLEB128(v)
		src := NewArraySource(sink.Bytes())
		got, err := src.ReadLEB128()
		require.NoError(t, err)
		require.Equal(t, v, got)
	}
}

func TestLEB128StrRoundTrip(t *testing.T) {
	sink := NewSink(0)
	sink.WriteLEB128Str("hello, 世界")
	src := NewArraySource(sink.Bytes())
	got, err := src.ReadLEB128Str()
	require.NoError(t, err)
	require.Equal(t, "hello, 世界", got)
}

func TestReadArrayRoundTrip(t *testing.T) {
	sink := NewSink(0)
	vals := []int32{-1, 0, 1, 1 << 20}
	sink.WriteArray(Int32, vals)
	src := NewArraySource(sink.Bytes())
	got, err := src.ReadArray(Int32, len(vals))
	require.NoError(t, err)
	require.Equal(t, vals, got.([]int32))
}

func TestValidUTF8OrHex(t *testing.T) {
	require.Equal(t, "hi", ValidUTF8OrHex([]byte("hi")))
	require.Equal(t, "ff00", ValidUTF8OrHex([]byte{0xff, 0x00}))
}

func TestCloseSurfacesTrailerException(t *testing.T) {
	src := NewSource(chunked())
	src.SetExceptionTrailer(trailerFunc(func() (string, int, bool) {
		return "throwIf", 395, true
	}))
	_, err := src.ReadBytes(1)
	require.ErrorIs(t, err, ErrStreamComplete)
	wrapped := src.Close(err)
	var sfe *StreamFailureError
	require.ErrorAs(t, wrapped, &sfe)
	require.Equal(t, 395, sfe.Code)
}

func TestCloseIsIdempotent(t *testing.T) {
	src := NewSource(chunked())
	require.NoError(t, src.Close(nil))
	require.NoError(t, src.Close(io.ErrUnexpectedEOF))
}

type trailerFunc func() (string, int, bool)

func (f trailerFunc) Decode() (string, int, bool) { return f() }
