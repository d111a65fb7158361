package proxy

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/blurstudio/maxdap/logger"
	"github.com/blurstudio/maxdap/schema"
)

// initializeResponseSeq is the seq the canned initialize response carries,
// the first message the adapter ever emits.
const initializeResponseSeq = 1

// handleFront intercepts messages travelling debugger -> backend. Anything
// not handled below is forwarded untouched.
func (s *Session) handleFront(ctx context.Context, payload []byte) {
	msg, err := schema.Decode(payload)
	if err != nil {
		logger.Get(ctx).Warn("dropping undecodable front-end message", zap.Error(err))
		return
	}
	logger.Get(ctx).Debug("received from debugger", zap.ByteString("payload", payload))

	switch {
	case msg.IsRequest() && msg.Command == schema.CommandInitialize:
		// Answer on the backend's behalf: it does not exist yet. The request
		// still goes through once connected; its response is swallowed.
		s.processed.Put(msg.Seq, struct{}{})
		s.respondInitialize(ctx, msg)

	case msg.IsRequest() && msg.Command == schema.CommandAttach:
		payload = s.handleAttach(ctx, msg)

	case msg.IsRequest() && msg.Command == schema.CommandContinue:
		// ptvsd tends to report a breakpoint stop before confirming the
		// continue; hold such events back until the continued event arrives.
		s.avoidingContinueStall.Store(true)

	case msg.IsRequest() && msg.Command == schema.CommandDisconnect:
		s.disconnecting.Store(true)
	}

	s.sendToBackend(ctx, payload)
}

func (s *Session) respondInitialize(ctx context.Context, request *schema.Message) {
	response, err := schema.NewResponse(initializeResponseSeq, request.Seq, schema.CommandInitialize, s.capabilities)
	if err != nil {
		logger.Get(ctx).Error("failed to build initialize response", zap.Error(err))
		return
	}
	payload, err := schema.Encode(response)
	if err != nil {
		logger.Get(ctx).Error("failed to encode initialize response", zap.Error(err))
		return
	}
	s.sendToFront(ctx, payload)
}

// handleAttach kicks off injection and connection establishment, and returns
// the attach request rewritten into the arguments ptvsd expects. A nil
// return drops the request.
func (s *Session) handleAttach(ctx context.Context, request *schema.Message) []byte {
	config := &schema.AttachConfig{}
	if err := json.Unmarshal(request.Arguments, config); err != nil {
		logger.Get(ctx).Error("invalid attach arguments", zap.Error(err))
		s.rejectRequest(ctx, request, "invalid attach arguments")
		return nil
	}
	if config.Program == "" || config.Ptvsd.Port == 0 {
		s.rejectRequest(ctx, request, "attach configuration requires program and ptvsd host/port")
		return nil
	}

	go s.attach(ctx, config)

	payload, err := rewriteAttachArguments(request.Raw, config)
	if err != nil {
		logger.Get(ctx).Warn("failed to rewrite attach arguments", zap.Error(err))
		return request.Raw
	}
	logger.Get(ctx).Debug("rewrote attach arguments", zap.ByteString("payload", payload))
	return payload
}

func (s *Session) rejectRequest(ctx context.Context, request *schema.Message, message string) {
	response := schema.NewErrorResponse(0, request.Seq, request.Command, message)
	if payload, err := schema.Encode(response); err == nil {
		s.sendToFront(ctx, payload)
	}
}

// attach injects the backend bootstrap into the host, dials the listener it
// opens and arms the completion watcher.
func (s *Session) attach(ctx context.Context, config *schema.AttachConfig) {
	log := logger.Get(ctx)

	s.runMux.Lock()
	s.runCode = s.bootstrap.RunCode(config.Program)
	s.runMux.Unlock()

	log.Info("sending attach code to Max")
	if err := s.injector.Inject(ctx, s.bootstrap.AttachCode(config.Ptvsd.Host, config.Ptvsd.Port)); err != nil {
		log.Error("could not send attach code to Max", zap.Error(err))
		s.emitTerminated(ctx)
		s.shutdown()
		return
	}
	log.Info("successfully attached to Max")

	if s.watch != nil {
		done, err := s.watch(ctx)
		if err != nil {
			log.Warn("completion watcher unavailable", zap.Error(err))
		} else {
			go func() {
				select {
				case <-ctx.Done():
				case <-done:
					s.complete(ctx)
				}
			}()
		}
	}

	log.Info("connecting to ptvsd", zap.String("host", config.Ptvsd.Host), zap.Int("port", config.Ptvsd.Port))
	backend, err := s.dial(ctx, config.Ptvsd.Host, config.Ptvsd.Port)
	if err != nil {
		log.Error("could not connect to ptvsd", zap.Error(err))
		s.emitTerminated(ctx)
		s.shutdown()
		return
	}
	log.Info("connected to ptvsd")
	s.setBackend(ctx, backend)

	go func() {
		err := backend.Serve(ctx, func(payload []byte) {
			s.handleBackend(ctx, payload)
		})
		s.backendDown(ctx, err)
	}()
}

// programDir returns the directory of the program, tolerating Windows paths
// when the adapter itself runs elsewhere.
func programDir(program string) string {
	if i := strings.LastIndexAny(program, `/\`); i >= 0 {
		return program[:i]
	}
	return filepath.Dir(program)
}

// rewriteAttachArguments replaces the front-end attach configuration with
// the shape ptvsd expects, leaving the rest of the request untouched.
func rewriteAttachArguments(raw []byte, config *schema.AttachConfig) ([]byte, error) {
	dir := programDir(config.Program)
	arguments := &schema.AttachArguments{
		Name:    "Max Python Debugger: Remote Attach",
		Type:    "python",
		Request: "attach",
		Port:    config.Ptvsd.Port,
		Host:    config.Ptvsd.Host,
		PathMappings: []schema.PathMapping{
			{LocalRoot: dir, RemoteRoot: dir},
		},
		MaxDebugFile: config.Program,
	}
	var generic map[string]interface{}
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, err
	}
	data, err := json.Marshal(arguments)
	if err != nil {
		return nil, err
	}
	var genericArguments map[string]interface{}
	if err := json.Unmarshal(data, &genericArguments); err != nil {
		return nil, err
	}
	generic["arguments"] = genericArguments
	return json.Marshal(generic)
}
