// Package maxdap implements a Debug Adapter Protocol proxy for debugging
// Python inside Autodesk 3ds Max.
//
// The adapter sits between a DAP front-end (spoken over stdin/stdout, the
// way editors launch debug adapters) and a ptvsd backend that the adapter
// injects into the running Max process on attach. Messages are relayed in
// both directions; a small set is intercepted and rewritten: the initialize
// handshake is answered before the backend exists, attach arguments are
// reshaped for ptvsd, interpreter internals are stripped from variables
// responses, and two known ptvsd stalls are papered over so the front-end
// never sees them.
//
// Example:
//
//	session, _ := maxdap.NewSession(
//		proxy.WithFrontEnd(stdio.New()),
//		proxy.WithInjector(max.NewWindowInjector()),
//		proxy.WithBootstrap(&max.Bootstrap{PtvsdDir: dir, SignalPath: signal}),
//	)
//	_ = session.Serve(ctx)
//
// The cmd/maxdap binary wires all of this from flags and configuration; see
// the adapter package.
package maxdap
