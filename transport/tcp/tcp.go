// Package tcp dials the DAP listener that the injected ptvsd bootstrap opens
// inside the host application. Injection is asynchronous, so the dial retries
// until ptvsd starts accepting.
package tcp

import (
	"context"
	"net"
	"time"

	"github.com/go-faster/errors"
	"github.com/juju/clock"
	"github.com/juju/retry"

	"github.com/blurstudio/maxdap/transport"
)

// Client is the backend endpoint over a TCP connection.
type Client struct {
	*transport.Stream
	conn net.Conn
}

type dialOptions struct {
	attempts int
	delay    time.Duration
	clock    clock.Clock
}

// Option customizes the dial retry policy.
type Option func(*dialOptions)

// WithAttempts overrides how many times the dial is retried.
func WithAttempts(attempts int) Option {
	return func(o *dialOptions) { o.attempts = attempts }
}

// WithDelay overrides the delay between dial attempts.
func WithDelay(delay time.Duration) Option {
	return func(o *dialOptions) { o.delay = delay }
}

// WithClock overrides the retry clock, used by tests.
func WithClock(aClock clock.Clock) Option {
	return func(o *dialOptions) { o.clock = aClock }
}

// Dial connects to the backend listener, retrying while the bootstrap is
// still coming up inside the host process.
func Dial(ctx context.Context, address string, options ...Option) (*Client, error) {
	opts := &dialOptions{
		attempts: 50,
		delay:    100 * time.Millisecond,
		clock:    clock.WallClock,
	}
	for _, option := range options {
		option(opts)
	}

	var conn net.Conn
	dialer := &net.Dialer{}
	err := retry.Call(retry.CallArgs{
		Func: func() error {
			var dialErr error
			conn, dialErr = dialer.DialContext(ctx, "tcp", address)
			return dialErr
		},
		Attempts: opts.attempts,
		Delay:    opts.delay,
		Clock:    opts.clock,
		Stop:     ctx.Done(),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to connect to debug backend at %v", address)
	}
	return &Client{
		Stream: transport.NewStream(conn, conn, conn),
		conn:   conn,
	}, nil
}

// RemoteAddr reports the connected backend address.
func (c *Client) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}
