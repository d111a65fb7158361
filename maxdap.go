package maxdap

import (
	"github.com/blurstudio/maxdap/adapter"
	"github.com/blurstudio/maxdap/proxy"
)

// Session is a single proxied debug session.
type Session = proxy.Session

// Option configures a session.
type Option = proxy.Option

// NewSession creates a debug session; see the proxy package for options.
func NewSession(options ...Option) (*Session, error) {
	return proxy.New(options...)
}

// Run assembles a session from CLI args and serves it over stdio.
func Run(args []string) error {
	return adapter.Run(args)
}
