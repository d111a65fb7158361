// Package host abstracts getting Python code to run inside the host 3D
// application, and watching for the completion signal the injected run
// harness leaves behind when the debugged script finishes.
package host

import "context"

// Injector delivers a Python snippet into the running host application.
type Injector interface {
	Inject(ctx context.Context, code string) error
}

// Bootstrap renders the code snippets a debug session injects: the backend
// bootstrap on attach and the run harness for the program under debug.
type Bootstrap interface {
	AttachCode(hostname string, port int) string
	RunCode(program string) string
}
