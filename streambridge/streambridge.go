// Package streambridge connects a blocking network read/write loop to the
// synchronous block framing and codec layers through a bounded channel,
// the way spec §4.7 describes: a background goroutine pulls fixed-size
// chunks from the socket and pushes them onto a capacity-K queue; a
// consumer goroutine (the caller, via bytesio.Source) pulls and decodes.
// Exceptions on either side travel through the same channel as values.
package streambridge

import (
	"context"
	"io"

	"github.com/blackhowling/nativecol/bytesio"
)

// DefaultQueueCapacity is the bounded queue's default chunk capacity (spec
// §4.7: "a bounded queue with capacity K (default 10 chunks)").
const DefaultQueueCapacity = 10

// DefaultChunkSize is the producer's read size for query response bodies
// (spec §4.7: "fixed-size chunks (~512 KiB)").
const DefaultChunkSize = 512 * 1024

// chunkOrErr is what travels through the bridge channel: exactly one of
// Data or Err is set, never both.
type chunkOrErr struct {
	data []byte
	err  error
}

// QueryBridge reads chunks from an io.Reader (the HTTP response body) on a
// background goroutine and exposes them as a bytesio.ChunkFunc the codec
// layer pulls synchronously, bounded by a capacity-K channel so a slow
// consumer applies backpressure to the socket reader.
type QueryBridge struct {
	ctx    context.Context
	cancel context.CancelFunc
	ch     chan chunkOrErr
	done   chan struct{}
}

// NewQueryBridge starts the background reader over body, pulling
// chunkSize-byte reads (DefaultChunkSize if 0) and buffering up to cap
// (DefaultQueueCapacity if 0) of them.
func NewQueryBridge(ctx context.Context, body io.Reader, chunkSize, capacity int) *QueryBridge {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if capacity <= 0 {
		capacity = DefaultQueueCapacity
	}
	ctx, cancel := context.WithCancel(ctx)
	b := &QueryBridge{
		ctx:    ctx,
		cancel: cancel,
		ch:     make(chan chunkOrErr, capacity),
		done:   make(chan struct{}),
	}
	go b.pump(body, chunkSize)
	return b
}

func (b *QueryBridge) pump(body io.Reader, chunkSize int) {
	defer close(b.done)
	buf := make([]byte, chunkSize)
	for {
		n, err := body.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			select {
			case b.ch <- chunkOrErr{data: chunk}:
			case <-b.ctx.Done():
				return
			}
		}
		if err != nil {
			// An incomplete read (peer closed mid-body) is downgraded to a
			// clean EOF here: bytesio.Source distinguishes "clean EOF
			// between blocks" from "truncated inside a block" on its own
			// via ReadBytes' partial-read check, so the bridge itself
			// never needs to tell io.EOF apart from io.ErrUnexpectedEOF
			// (spec §4.7 / §9).
			select {
			case b.ch <- chunkOrErr{err: io.EOF}:
			case <-b.ctx.Done():
			}
			return
		}
	}
}

// ChunkFunc returns the bytesio.ChunkFunc the codec/block layers pull
// synchronously. Each call blocks until a chunk, EOF, or cancellation is
// available.
func (b *QueryBridge) ChunkFunc() bytesio.ChunkFunc {
	return func() ([]byte, error) {
		select {
		case c, ok := <-b.ch:
			if !ok {
				return nil, io.EOF
			}
			if c.err != nil {
				return nil, c.err
			}
			return c.data, nil
		case <-b.ctx.Done():
			return nil, b.ctx.Err()
		}
	}
}

// Close cancels the background pump and waits for it to exit, per spec
// §4.7's "exit of the context manager closes the queue, cancels the
// producer task". Safe to call multiple times.
func (b *QueryBridge) Close() {
	b.cancel()
	<-b.done
}
