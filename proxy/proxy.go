// Package proxy relays DAP traffic between a debugger front-end and the
// ptvsd backend injected into the host application, intercepting the handful
// of messages that need rewriting to keep both sides happy.
package proxy

import (
	"context"
	"io"
	"math"
	"sync"
	"sync/atomic"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/blurstudio/maxdap/host"
	"github.com/blurstudio/maxdap/internal/collection"
	"github.com/blurstudio/maxdap/logger"
	"github.com/blurstudio/maxdap/schema"
	"github.com/blurstudio/maxdap/transport"
	"github.com/blurstudio/maxdap/transport/tcp"
)

// BackendDialer opens the backend endpoint once the bootstrap is injected.
type BackendDialer func(ctx context.Context, hostname string, port int) (transport.Endpoint, error)

// CompletionWatcher yields a channel that closes when the debugged script
// has finished inside the host.
type CompletionWatcher func(ctx context.Context) (<-chan struct{}, error)

// Session is a single debug session: one front-end, one backend, one
// debugged program. A new adapter process is spawned per session.
type Session struct {
	id           string
	front        transport.Endpoint
	dial         BackendDialer
	injector     host.Injector
	bootstrap    host.Bootstrap
	watch        CompletionWatcher
	capabilities *schema.Capabilities

	backendMux sync.Mutex
	backend    transport.Endpoint
	pending    [][]byte

	// seq bookkeeping
	artificialSeq atomic.Int64
	processed     *collection.SyncMap[int64, struct{}]
	artificial    *collection.SyncMap[int64, struct{}]

	// stall avoidance state
	waitingForPause       atomic.Bool
	avoidingContinueStall atomic.Bool
	stashMux              sync.Mutex
	stashedEvent          []byte

	runMux  sync.Mutex
	runCode string

	disconnecting atomic.Bool
	cancel        context.CancelFunc
	closeOnce     sync.Once
}

// New creates a session. A front-end endpoint, an injector and a bootstrap
// are mandatory; the backend dialer defaults to TCP.
func New(options ...Option) (*Session, error) {
	s := &Session{
		id:           uuid.New().String(),
		capabilities: schema.DefaultCapabilities(),
		processed:    collection.NewSyncMap[int64, struct{}](),
		artificial:   collection.NewSyncMap[int64, struct{}](),
	}
	s.artificialSeq.Store(math.MaxInt64)
	for _, option := range options {
		if err := option(s); err != nil {
			return nil, err
		}
	}
	if s.front == nil {
		return nil, errors.New("no front-end endpoint specified")
	}
	if s.injector == nil {
		return nil, errors.New("no injector specified")
	}
	if s.bootstrap == nil {
		return nil, errors.New("no bootstrap specified")
	}
	if s.dial == nil {
		s.dial = dialTCP
	}
	return s, nil
}

func dialTCP(ctx context.Context, hostname string, port int) (transport.Endpoint, error) {
	client, err := tcp.Dial(ctx, addressOf(hostname, port))
	if err != nil {
		return nil, err
	}
	return client, nil
}

// ID identifies the session in logs.
func (s *Session) ID() string { return s.id }

// Serve runs the session until the front-end stream ends, the backend drops
// or the debugged script completes.
func (s *Session) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	defer cancel()
	ctx = logger.WithFields(ctx, zap.String("session", s.id))
	logger.Get(ctx).Info("session started")

	err := s.front.Serve(ctx, func(payload []byte) {
		s.handleFront(ctx, payload)
	})
	s.shutdown()
	if err == nil || errors.Is(err, io.EOF) || errors.Is(err, transport.ErrClosed) || errors.Is(err, context.Canceled) {
		logger.Get(ctx).Info("session ended")
		return nil
	}
	return err
}

// sendToFront delivers a payload to the debugger front-end.
func (s *Session) sendToFront(ctx context.Context, payload []byte) {
	if payload == nil {
		return
	}
	if err := s.front.Send(payload); err != nil {
		logger.Get(ctx).Warn("failed to send to debugger", zap.Error(err))
		return
	}
	logger.Get(ctx).Debug("sent to debugger", zap.ByteString("payload", payload))
}

// sendToBackend delivers a payload to ptvsd, queueing it while the backend
// connection is still being established.
func (s *Session) sendToBackend(ctx context.Context, payload []byte) {
	if payload == nil {
		return
	}
	s.backendMux.Lock()
	backend := s.backend
	if backend == nil {
		s.pending = append(s.pending, payload)
		s.backendMux.Unlock()
		return
	}
	s.backendMux.Unlock()
	if err := backend.Send(payload); err != nil {
		logger.Get(ctx).Warn("failed to send to ptvsd", zap.Error(err))
		return
	}
	logger.Get(ctx).Debug("sent to ptvsd", zap.ByteString("payload", payload))
}

// setBackend flushes messages queued while the connection was coming up,
// then publishes the backend endpoint. The flush holds backendMux so a
// request arriving mid-flush cannot overtake the queue; endpoint sends only
// enqueue, no I/O happens under the lock.
func (s *Session) setBackend(ctx context.Context, backend transport.Endpoint) {
	s.backendMux.Lock()
	defer s.backendMux.Unlock()
	for _, payload := range s.pending {
		if err := backend.Send(payload); err != nil {
			logger.Get(ctx).Warn("failed to flush queued message", zap.Error(err))
			break
		}
		logger.Get(ctx).Debug("sent to ptvsd", zap.ByteString("payload", payload))
	}
	s.pending = nil
	s.backend = backend
}

// complete handles the completion signal: tell the front-end the debuggee is
// gone, then tear the session down.
func (s *Session) complete(ctx context.Context) {
	logger.Get(ctx).Info("finished debugging")
	s.emitTerminated(ctx)
	s.shutdown()
}

// backendDown handles a backend stream failure mid-session.
func (s *Session) backendDown(ctx context.Context, err error) {
	if s.disconnecting.Load() {
		logger.Get(ctx).Debug("backend connection closed on disconnect")
		s.shutdown()
		return
	}
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, transport.ErrClosed) && !errors.Is(err, context.Canceled) {
		logger.Get(ctx).Error("backend connection lost", zap.Error(err))
	}
	s.emitTerminated(ctx)
	s.shutdown()
}

func (s *Session) emitTerminated(ctx context.Context) {
	event, err := schema.NewEvent(0, schema.EventTerminated, &schema.TerminatedBody{})
	if err != nil {
		return
	}
	if payload, err := schema.Encode(event); err == nil {
		s.sendToFront(ctx, payload)
	}
}

// shutdown closes both endpoints exactly once. Closing the front-end stream
// unblocks Serve.
func (s *Session) shutdown() {
	s.closeOnce.Do(func() {
		if s.cancel != nil {
			s.cancel()
		}
		s.backendMux.Lock()
		backend := s.backend
		s.backendMux.Unlock()
		if backend != nil {
			_ = backend.Close()
		}
		_ = s.front.Close()
	})
}
