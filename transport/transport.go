// Package transport implements the DAP base protocol framing and the two
// endpoint flavors the proxy bridges: the stdio stream owned by the debugger
// front-end and the TCP connection to the injected backend.
package transport

import (
	"bufio"
	"context"
	"io"
	"sync"

	"github.com/go-faster/errors"
)

// Handler consumes one framed payload at a time, in arrival order.
type Handler func(payload []byte)

// Endpoint is one side of the proxy: framed receive via Serve, queued send.
type Endpoint interface {
	// Serve reads framed messages until the stream fails or ctx is done,
	// invoking handler for each payload.
	Serve(ctx context.Context, handler Handler) error
	// Send enqueues a payload for delivery. Delivery order matches call order.
	Send(payload []byte) error
	Close() error
}

// ErrClosed is returned by Send after the endpoint has shut down.
var ErrClosed = errors.New("transport: endpoint closed")

// sendQueueSize bounds the outbound queue; the writer goroutine drains it.
const sendQueueSize = 64

// Stream is a framed endpoint over an arbitrary reader/writer pair. Writes
// are funneled through a single goroutine so concurrent senders never
// interleave frames.
type Stream struct {
	reader *bufio.Reader
	writer io.Writer
	closer io.Closer

	queue chan []byte
	done  chan struct{}

	closeOnce sync.Once
	writeErr  error
	writeMux  sync.Mutex
}

// NewStream creates a Stream and starts its writer goroutine. closer may be
// nil when the underlying writer must not be closed (e.g. stdout).
func NewStream(reader io.Reader, writer io.Writer, closer io.Closer) *Stream {
	s := &Stream{
		reader: bufio.NewReader(reader),
		writer: writer,
		closer: closer,
		queue:  make(chan []byte, sendQueueSize),
		done:   make(chan struct{}),
	}
	go s.sendLoop()
	return s
}

func (s *Stream) sendLoop() {
	for {
		select {
		case <-s.done:
			return
		case payload, ok := <-s.queue:
			if !ok {
				return
			}
			if err := WriteMessage(s.writer, payload); err != nil {
				s.writeMux.Lock()
				s.writeErr = err
				s.writeMux.Unlock()
				return
			}
		}
	}
}

// Send enqueues a payload for the writer goroutine.
func (s *Stream) Send(payload []byte) error {
	s.writeMux.Lock()
	err := s.writeErr
	s.writeMux.Unlock()
	if err != nil {
		return err
	}
	select {
	case <-s.done:
		return ErrClosed
	case s.queue <- payload:
		return nil
	}
}

// Serve reads framed payloads until the stream errors out or ctx is done.
func (s *Stream) Serve(ctx context.Context, handler Handler) error {
	for {
		payload, err := ReadMessage(s.reader)
		if err != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-s.done:
				return ErrClosed
			default:
			}
			if errors.Is(err, io.EOF) {
				return io.EOF
			}
			return errors.Wrap(err, "transport: receive failed")
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.done:
			return ErrClosed
		default:
		}
		handler(payload)
	}
}

// Close shuts the endpoint down; pending queued messages are dropped.
func (s *Stream) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		if s.closer != nil {
			err = s.closer.Close()
		}
	})
	return err
}
