package proxy

import (
	"net"
	"strconv"

	"github.com/blurstudio/maxdap/host"
	"github.com/blurstudio/maxdap/schema"
	"github.com/blurstudio/maxdap/transport"
)

// Option is a function that configures the session.
type Option func(s *Session) error

// WithFrontEnd sets the debugger front-end endpoint.
func WithFrontEnd(endpoint transport.Endpoint) Option {
	return func(s *Session) error {
		s.front = endpoint
		return nil
	}
}

// WithBackendDialer overrides how the backend endpoint is opened.
func WithBackendDialer(dial BackendDialer) Option {
	return func(s *Session) error {
		s.dial = dial
		return nil
	}
}

// WithInjector sets the host code injector.
func WithInjector(injector host.Injector) Option {
	return func(s *Session) error {
		s.injector = injector
		return nil
	}
}

// WithBootstrap sets the snippet renderer for the host application.
func WithBootstrap(bootstrap host.Bootstrap) Option {
	return func(s *Session) error {
		s.bootstrap = bootstrap
		return nil
	}
}

// WithCompletionWatcher arms a watcher for the debuggee completion signal.
func WithCompletionWatcher(watch CompletionWatcher) Option {
	return func(s *Session) error {
		s.watch = watch
		return nil
	}
}

// WithCapabilities overrides the capabilities advertised on initialize.
func WithCapabilities(capabilities *schema.Capabilities) Option {
	return func(s *Session) error {
		s.capabilities = capabilities
		return nil
	}
}

func addressOf(hostname string, port int) string {
	if hostname == "localhost" {
		hostname = "127.0.0.1"
	}
	return net.JoinHostPort(hostname, strconv.Itoa(port))
}
