package proxy_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blurstudio/maxdap/proxy"
	"github.com/blurstudio/maxdap/schema"
	"github.com/blurstudio/maxdap/transport"
)

// fakeEndpoint is a scriptable transport.Endpoint: the test feeds inbound
// payloads through in and observes outbound ones through sent.
type fakeEndpoint struct {
	in     chan []byte
	sent   chan []byte
	closed chan struct{}
	once   sync.Once
}

func newFakeEndpoint() *fakeEndpoint {
	return &fakeEndpoint{
		in:     make(chan []byte, 16),
		sent:   make(chan []byte, 16),
		closed: make(chan struct{}),
	}
}

func (f *fakeEndpoint) Serve(ctx context.Context, handler transport.Handler) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-f.closed:
			return transport.ErrClosed
		case payload, ok := <-f.in:
			if !ok {
				return io.EOF
			}
			handler(payload)
		}
	}
}

func (f *fakeEndpoint) Send(payload []byte) error {
	select {
	case <-f.closed:
		return transport.ErrClosed
	case f.sent <- payload:
		return nil
	}
}

func (f *fakeEndpoint) Close() error {
	f.once.Do(func() { close(f.closed) })
	return nil
}

func (f *fakeEndpoint) expect(t *testing.T) []byte {
	t.Helper()
	select {
	case payload := <-f.sent:
		return payload
	case <-time.After(2 * time.Second):
		t.Fatal("expected a message, got none")
		return nil
	}
}

func (f *fakeEndpoint) expectNone(t *testing.T) {
	t.Helper()
	select {
	case payload := <-f.sent:
		t.Fatalf("expected no message, got %s", payload)
	case <-time.After(100 * time.Millisecond):
	}
}

// fakeInjector records injected snippets.
type fakeInjector struct {
	injected chan string
}

func (f *fakeInjector) Inject(_ context.Context, code string) error {
	f.injected <- code
	return nil
}

func (f *fakeInjector) expect(t *testing.T) string {
	t.Helper()
	select {
	case code := <-f.injected:
		return code
	case <-time.After(2 * time.Second):
		t.Fatal("expected an injection, got none")
		return ""
	}
}

// fakeBootstrap renders identifiable snippets.
type fakeBootstrap struct{}

func (f *fakeBootstrap) AttachCode(hostname string, port int) string {
	return fmt.Sprintf("attach %v %v", hostname, port)
}

func (f *fakeBootstrap) RunCode(program string) string {
	return "run " + program
}

type fixture struct {
	front      *fakeEndpoint
	backend    *fakeEndpoint
	injector   *fakeInjector
	completion chan struct{}
	served     chan error
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ret := &fixture{
		front:      newFakeEndpoint(),
		backend:    newFakeEndpoint(),
		injector:   &fakeInjector{injected: make(chan string, 4)},
		completion: make(chan struct{}),
		served:     make(chan error, 1),
	}
	session, err := proxy.New(
		proxy.WithFrontEnd(ret.front),
		proxy.WithInjector(ret.injector),
		proxy.WithBootstrap(&fakeBootstrap{}),
		proxy.WithBackendDialer(func(ctx context.Context, hostname string, port int) (transport.Endpoint, error) {
			return ret.backend, nil
		}),
		proxy.WithCompletionWatcher(func(ctx context.Context) (<-chan struct{}, error) {
			return ret.completion, nil
		}),
	)
	require.NoError(t, err)
	go func() {
		ret.served <- session.Serve(context.Background())
	}()
	return ret
}

// attach walks the fixture through initialize and attach, returning the
// rewritten attach request the backend received.
func (f *fixture) attach(t *testing.T) *schema.Message {
	t.Helper()
	f.front.in <- []byte(`{"seq":1,"type":"request","command":"initialize","arguments":{"adapterID":"max"}}`)
	response := decode(t, f.front.expect(t))
	require.True(t, response.IsResponse())
	require.EqualValues(t, 1, response.RequestSeq)

	f.front.in <- []byte(`{"seq":2,"type":"request","command":"attach","arguments":{"program":"C:\\scripts\\tool.py","ptvsd":{"host":"localhost","port":7003}}}`)

	forwarded := decode(t, f.backend.expect(t))
	require.Equal(t, schema.CommandInitialize, forwarded.Command)

	attach := decode(t, f.backend.expect(t))
	require.Equal(t, schema.CommandAttach, attach.Command)
	return attach
}

func decode(t *testing.T, payload []byte) *schema.Message {
	t.Helper()
	msg, err := schema.Decode(payload)
	require.NoError(t, err)
	return msg
}

func TestInitializeAnsweredLocally(t *testing.T) {
	f := newFixture(t)
	f.front.in <- []byte(`{"seq":1,"type":"request","command":"initialize","arguments":{}}`)

	response := decode(t, f.front.expect(t))
	assert.True(t, response.IsResponse())
	assert.True(t, response.Succeeded())
	assert.Equal(t, schema.CommandInitialize, response.Command)
	assert.EqualValues(t, 1, response.RequestSeq)

	capabilities := &schema.Capabilities{}
	require.NoError(t, json.Unmarshal(response.Body, capabilities))
	assert.True(t, capabilities.SupportsConfigurationDoneRequest)
}

func TestAttachInjectsAndRewrites(t *testing.T) {
	f := newFixture(t)
	attach := f.attach(t)

	assert.Equal(t, "attach localhost 7003", f.injector.expect(t))

	arguments := &schema.AttachArguments{}
	require.NoError(t, json.Unmarshal(attach.Arguments, arguments))
	assert.Equal(t, "localhost", arguments.Host)
	assert.Equal(t, 7003, arguments.Port)
	assert.Equal(t, `C:\scripts\tool.py`, arguments.MaxDebugFile)
	require.Len(t, arguments.PathMappings, 1)
	assert.Equal(t, `C:\scripts`, arguments.PathMappings[0].LocalRoot)
	assert.Equal(t, arguments.PathMappings[0].LocalRoot, arguments.PathMappings[0].RemoteRoot)
}

func TestAttachWithoutProgramRejected(t *testing.T) {
	f := newFixture(t)
	f.front.in <- []byte(`{"seq":3,"type":"request","command":"attach","arguments":{"ptvsd":{"host":"localhost","port":7003}}}`)

	response := decode(t, f.front.expect(t))
	assert.True(t, response.IsResponse())
	assert.False(t, response.Succeeded())
	assert.EqualValues(t, 3, response.RequestSeq)
}

func TestBackendInitializeResponseSwallowed(t *testing.T) {
	f := newFixture(t)
	f.attach(t)

	f.backend.in <- []byte(`{"seq":1,"type":"response","request_seq":1,"success":true,"command":"initialize","body":{}}`)
	f.backend.in <- []byte(`{"seq":2,"type":"event","event":"initialized"}`)

	event := decode(t, f.front.expect(t))
	assert.Equal(t, "initialized", event.Event)
	f.front.expectNone(t)
}

func TestConfigurationDoneStartsRun(t *testing.T) {
	f := newFixture(t)
	f.attach(t)
	f.injector.expect(t) // attach code

	f.backend.in <- []byte(`{"seq":5,"type":"response","request_seq":4,"success":true,"command":"configurationDone","body":{}}`)

	assert.Equal(t, `run C:\scripts\tool.py`, f.injector.expect(t))
	response := decode(t, f.front.expect(t))
	assert.Equal(t, schema.CommandConfigurationDone, response.Command)
}

func TestVariablesFiltered(t *testing.T) {
	f := newFixture(t)
	f.attach(t)

	f.backend.in <- []byte(`{"seq":9,"type":"response","request_seq":8,"success":true,"command":"variables",` +
		`"body":{"variables":[{"name":"__builtins__","value":"{}"},{"name":"count","value":"3"},{"name":"__file__","value":"x"}]}}`)

	response := decode(t, f.front.expect(t))
	var body struct {
		Variables []struct {
			Name string `json:"name"`
		} `json:"variables"`
	}
	require.NoError(t, json.Unmarshal(response.Body, &body))
	require.Len(t, body.Variables, 1)
	assert.Equal(t, "count", body.Variables[0].Name)
}

func TestStepStallRecovered(t *testing.T) {
	f := newFixture(t)
	f.attach(t)

	// ptvsd stalls on a step; the stall must stay invisible
	f.backend.in <- []byte(`{"seq":20,"type":"event","event":"stopped","body":{"reason":"step","threadId":1}}`)

	pause := decode(t, f.backend.expect(t))
	assert.Equal(t, schema.CommandPause, pause.Command)
	assert.Greater(t, pause.Seq, int64(1<<62))
	f.front.expectNone(t)

	// ptvsd confirms the synthesized pause, then stops with reason pause
	f.backend.in <- []byte(fmt.Sprintf(`{"seq":21,"type":"response","request_seq":%v,"success":true,"command":"pause","body":{}}`, pause.Seq))
	f.front.expectNone(t)

	f.backend.in <- []byte(`{"seq":22,"type":"event","event":"stopped","body":{"reason":"pause","threadId":1}}`)
	event := decode(t, f.front.expect(t))
	assert.Equal(t, schema.EventStopped, event.Event)
	body := &schema.StoppedBody{}
	require.NoError(t, json.Unmarshal(event.Body, body))
	assert.Equal(t, schema.StopReasonStep, body.Reason)
	assert.Equal(t, 1, body.ThreadID)
}

func TestBreakpointStashedUntilContinued(t *testing.T) {
	f := newFixture(t)
	f.attach(t)

	f.front.in <- []byte(`{"seq":10,"type":"request","command":"continue","arguments":{"threadId":1}}`)
	forwarded := decode(t, f.backend.expect(t))
	require.Equal(t, schema.CommandContinue, forwarded.Command)

	// the breakpoint stop arrives before the continue is confirmed
	f.backend.in <- []byte(`{"seq":30,"type":"event","event":"stopped","body":{"reason":"breakpoint","threadId":1}}`)
	f.front.expectNone(t)

	f.backend.in <- []byte(`{"seq":31,"type":"event","event":"continued","body":{"threadId":1}}`)

	first := decode(t, f.front.expect(t))
	assert.Equal(t, schema.EventContinued, first.Event)
	second := decode(t, f.front.expect(t))
	assert.Equal(t, schema.EventStopped, second.Event)
	body := &schema.StoppedBody{}
	require.NoError(t, json.Unmarshal(second.Body, body))
	assert.Equal(t, schema.StopReasonBreakpoint, body.Reason)
}

func TestCompletionSignalTerminates(t *testing.T) {
	f := newFixture(t)
	f.attach(t)

	close(f.completion)

	event := decode(t, f.front.expect(t))
	assert.Equal(t, schema.EventTerminated, event.Event)

	select {
	case err := <-f.served:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("session did not shut down after the completion signal")
	}
}

func TestBackendDropTerminates(t *testing.T) {
	f := newFixture(t)
	f.attach(t)

	close(f.backend.in)

	event := decode(t, f.front.expect(t))
	assert.Equal(t, schema.EventTerminated, event.Event)

	select {
	case err := <-f.served:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("session did not shut down after the backend dropped")
	}
}

func TestPassThroughUnknownMessages(t *testing.T) {
	f := newFixture(t)
	f.attach(t)

	payload := `{"seq":40,"type":"request","command":"setBreakpoints","arguments":{"lines":[10,20]}}`
	f.front.in <- []byte(payload)
	assert.JSONEq(t, payload, string(f.backend.expect(t)))

	eventPayload := `{"seq":41,"type":"event","event":"output","body":{"output":"hi"}}`
	f.backend.in <- []byte(eventPayload)
	assert.JSONEq(t, eventPayload, string(f.front.expect(t)))
}

// gatedEndpoint blocks every Send until the gate closes, holding the queue
// flush open so a concurrent request can try to overtake it.
type gatedEndpoint struct {
	*fakeEndpoint
	gate <-chan struct{}
}

func (g *gatedEndpoint) Send(payload []byte) error {
	<-g.gate
	return g.fakeEndpoint.Send(payload)
}

func TestQueuedRequestsStayOrdered(t *testing.T) {
	front := newFakeEndpoint()
	backend := newFakeEndpoint()
	gate := make(chan struct{})
	injector := &fakeInjector{injected: make(chan string, 4)}
	session, err := proxy.New(
		proxy.WithFrontEnd(front),
		proxy.WithInjector(injector),
		proxy.WithBootstrap(&fakeBootstrap{}),
		proxy.WithBackendDialer(func(ctx context.Context, hostname string, port int) (transport.Endpoint, error) {
			return &gatedEndpoint{fakeEndpoint: backend, gate: gate}, nil
		}),
	)
	require.NoError(t, err)
	served := make(chan error, 1)
	go func() { served <- session.Serve(context.Background()) }()

	front.in <- []byte(`{"seq":1,"type":"request","command":"initialize","arguments":{}}`)
	front.expect(t)
	front.in <- []byte(`{"seq":2,"type":"request","command":"attach","arguments":{"program":"C:\\scripts\\tool.py","ptvsd":{"host":"localhost","port":7003}}}`)
	injector.expect(t)

	// the queue flush is underway but blocked; a request arriving now must
	// not overtake the queued initialize and attach
	time.Sleep(50 * time.Millisecond)
	front.in <- []byte(`{"seq":3,"type":"request","command":"configurationDone","arguments":{}}`)
	time.Sleep(50 * time.Millisecond)
	close(gate)

	var commands []string
	for i := 0; i < 3; i++ {
		commands = append(commands, decode(t, backend.expect(t)).Command)
	}
	assert.Equal(t, []string{
		schema.CommandInitialize,
		schema.CommandAttach,
		schema.CommandConfigurationDone,
	}, commands)
}

func TestDisconnectSkipsTerminated(t *testing.T) {
	f := newFixture(t)
	f.attach(t)

	f.front.in <- []byte(`{"seq":5,"type":"request","command":"disconnect","arguments":{}}`)
	forwarded := decode(t, f.backend.expect(t))
	require.Equal(t, schema.CommandDisconnect, forwarded.Command)

	close(f.backend.in)

	select {
	case err := <-f.served:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("session did not shut down on disconnect")
	}
	// the front-end initiated the teardown; no terminated event for it
	f.front.expectNone(t)
}

func TestNewRequiresEndpoints(t *testing.T) {
	_, err := proxy.New()
	assert.Error(t, err)

	_, err = proxy.New(proxy.WithFrontEnd(newFakeEndpoint()))
	assert.Error(t, err)
}
