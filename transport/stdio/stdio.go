// Package stdio exposes the debugger front-end side of the proxy: DAP frames
// over standard input/output, the transport every DAP client launches its
// adapters with.
package stdio

import (
	"io"
	"os"

	"github.com/blurstudio/maxdap/transport"
)

// Server is the front-end endpoint over stdin/stdout.
type Server struct {
	*transport.Stream
}

// New creates a stdio endpoint over the process streams. stdout is never
// closed; closing stdin unblocks the read loop on shutdown.
func New() *Server {
	return NewWith(os.Stdin, os.Stdout)
}

// NewWith creates a stdio endpoint over custom streams, used by tests.
func NewWith(in io.ReadCloser, out io.Writer) *Server {
	return &Server{Stream: transport.NewStream(in, out, in)}
}
