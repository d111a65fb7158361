package proxy

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/blurstudio/maxdap/logger"
	"github.com/blurstudio/maxdap/schema"
)

// hiddenVariables cause rendering errors in debugger UIs and are stripped
// from variables responses.
var hiddenVariables = map[string]struct{}{
	"__builtins__": {},
	"__doc__":      {},
	"__file__":     {},
	"__name__":     {},
	"__package__":  {},
}

// handleBackend intercepts messages travelling backend -> debugger.
func (s *Session) handleBackend(ctx context.Context, payload []byte) {
	log := logger.Get(ctx)
	msg, err := schema.Decode(payload)
	if err != nil {
		log.Warn("dropping undecodable backend message", zap.Error(err))
		return
	}

	switch {
	case msg.IsResponse() && msg.Command == schema.CommandConfigurationDone:
		// Both sides finished configuring; time to start the actual script.
		s.startRun(ctx)

	case msg.IsResponse() && msg.Command == schema.CommandVariables:
		payload = filterVariables(payload)

	case msg.IsEvent() && msg.Event == schema.EventStopped && stopReason(msg) == schema.StopReasonStep:
		// ptvsd often stops on steps for no reason. Force a pause to put
		// things back on track and keep the stall invisible to the debugger.
		log.Info("stall detected, sending unblocking command to ptvsd")
		s.recoverStall(ctx)
		return

	case msg.IsResponse() && s.artificial.Has(msg.RequestSeq):
		// Response to a synthesized pause; wait for its stopped event.
		if msg.Succeeded() {
			s.waitingForPause.Store(true)
		} else {
			log.Warn("stall could not be recovered")
		}
		s.artificial.Delete(msg.RequestSeq)
		return

	case s.waitingForPause.Load() && msg.IsEvent() && msg.Event == schema.EventStopped && stopReason(msg) == schema.StopReasonPause:
		// The recovery pause landed; present it as the step the debugger
		// asked for so stepping continues normally.
		s.waitingForPause.Store(false)
		payload = rewriteStopReason(payload, schema.StopReasonStep)

	case s.avoidingContinueStall.Load() && msg.IsEvent() && msg.Event == schema.EventStopped && stopReason(msg) == schema.StopReasonBreakpoint:
		// Hold the breakpoint stop until the continued event went out.
		log.Debug("stashing breakpoint event until continued arrives", zap.ByteString("payload", payload))
		s.stashMux.Lock()
		s.stashedEvent = payload
		s.stashMux.Unlock()
		return

	case s.avoidingContinueStall.Load() && msg.IsEvent() && msg.Event == schema.EventContinued:
		s.avoidingContinueStall.Store(false)
		s.stashMux.Lock()
		stashed := s.stashedEvent
		s.stashedEvent = nil
		s.stashMux.Unlock()
		if stashed != nil {
			log.Debug("received from ptvsd", zap.ByteString("payload", payload))
			s.sendToFront(ctx, payload)
			log.Debug("sending stashed event", zap.ByteString("payload", stashed))
			s.sendToFront(ctx, stashed)
			return
		}
	}

	if msg.IsResponse() && s.processed.Has(msg.RequestSeq) {
		// Only the initialize request; the adapter already answered it.
		log.Debug("already processed, swallowing backend response", zap.ByteString("payload", payload))
		s.processed.Delete(msg.RequestSeq)
		return
	}

	log.Debug("received from ptvsd", zap.ByteString("payload", payload))
	s.sendToFront(ctx, payload)
}

// startRun injects the run harness, which imports the debugged program.
func (s *Session) startRun(ctx context.Context) {
	s.runMux.Lock()
	code := s.runCode
	s.runMux.Unlock()
	if code == "" {
		logger.Get(ctx).Warn("configurationDone before attach, nothing to run")
		return
	}
	go func() {
		if err := s.injector.Inject(ctx, code); err != nil {
			logger.Get(ctx).Error("could not send run code to Max", zap.Error(err))
		}
	}()
}

// recoverStall synthesizes a pause request with an artificial seq that can
// never collide with the front-end's ascending seqs.
func (s *Session) recoverStall(ctx context.Context) {
	seq := s.artificialSeq.Add(-1)
	s.artificial.Put(seq, struct{}{})
	request, err := schema.NewRequest(seq, schema.CommandPause, &schema.PauseArguments{ThreadID: 1})
	if err != nil {
		logger.Get(ctx).Error("failed to build pause request", zap.Error(err))
		return
	}
	payload, err := schema.Encode(request)
	if err != nil {
		logger.Get(ctx).Error("failed to encode pause request", zap.Error(err))
		return
	}
	s.sendToBackend(ctx, payload)
}

// stopReason peeks at the reason of a stopped event.
func stopReason(msg *schema.Message) string {
	body := &schema.StoppedBody{}
	if err := json.Unmarshal(msg.Body, body); err != nil {
		return ""
	}
	return body.Reason
}

// rewriteStopReason rewrites body.reason, preserving every other field of
// the original payload. On any decoding trouble the payload passes through
// unmodified.
func rewriteStopReason(payload []byte, reason string) []byte {
	var generic map[string]interface{}
	if err := json.Unmarshal(payload, &generic); err != nil {
		return payload
	}
	body, ok := generic["body"].(map[string]interface{})
	if !ok {
		return payload
	}
	body["reason"] = reason
	rewritten, err := json.Marshal(generic)
	if err != nil {
		return payload
	}
	return rewritten
}

// filterVariables removes interpreter internals from a variables response.
func filterVariables(payload []byte) []byte {
	var generic map[string]interface{}
	if err := json.Unmarshal(payload, &generic); err != nil {
		return payload
	}
	body, ok := generic["body"].(map[string]interface{})
	if !ok {
		return payload
	}
	variables, ok := body["variables"].([]interface{})
	if !ok {
		return payload
	}
	kept := make([]interface{}, 0, len(variables))
	for _, item := range variables {
		variable, ok := item.(map[string]interface{})
		if ok {
			name, _ := variable["name"].(string)
			if _, hidden := hiddenVariables[name]; hidden {
				continue
			}
		}
		kept = append(kept, item)
	}
	if len(kept) == len(variables) {
		return payload
	}
	body["variables"] = kept
	rewritten, err := json.Marshal(generic)
	if err != nil {
		return payload
	}
	return rewritten
}
