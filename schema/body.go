package schema

// Capabilities is the initialize response body advertised on behalf of the
// ptvsd backend. The set mirrors what ptvsd supports when embedded in Max.
type Capabilities struct {
	SupportsModulesRequest           bool                        `json:"supportsModulesRequest"`
	SupportsConfigurationDoneRequest bool                        `json:"supportsConfigurationDoneRequest"`
	SupportsDelayedStackTraceLoading bool                        `json:"supportsDelayedStackTraceLoading"`
	SupportsDebuggerProperties       bool                        `json:"supportsDebuggerProperties"`
	SupportsEvaluateForHovers        bool                        `json:"supportsEvaluateForHovers"`
	SupportsSetExpression            bool                        `json:"supportsSetExpression"`
	SupportsGotoTargetsRequest       bool                        `json:"supportsGotoTargetsRequest"`
	SupportsExceptionOptions         bool                        `json:"supportsExceptionOptions"`
	ExceptionBreakpointFilters       []ExceptionBreakpointFilter `json:"exceptionBreakpointFilters,omitempty"`
	SupportsCompletionsRequest       bool                        `json:"supportsCompletionsRequest"`
	SupportsExceptionInfoRequest     bool                        `json:"supportsExceptionInfoRequest"`
	SupportsLogPoints                bool                        `json:"supportsLogPoints"`
	SupportsValueFormattingOptions   bool                        `json:"supportsValueFormattingOptions"`
	SupportsHitConditionalBreakpoint bool                        `json:"supportsHitConditionalBreakpoints"`
	SupportsSetVariable              bool                        `json:"supportsSetVariable"`
	SupportTerminateDebuggee         bool                        `json:"supportTerminateDebuggee"`
	SupportsConditionalBreakpoints   bool                        `json:"supportsConditionalBreakpoints"`
}

// ExceptionBreakpointFilter describes a selectable exception breakpoint option.
type ExceptionBreakpointFilter struct {
	Filter  string `json:"filter"`
	Label   string `json:"label"`
	Default bool   `json:"default"`
}

// DefaultCapabilities returns the capabilities advertised to the front-end
// before the backend connection exists.
func DefaultCapabilities() *Capabilities {
	return &Capabilities{
		SupportsModulesRequest:           true,
		SupportsConfigurationDoneRequest: true,
		SupportsDelayedStackTraceLoading: true,
		SupportsDebuggerProperties:       true,
		SupportsEvaluateForHovers:        true,
		SupportsSetExpression:            true,
		SupportsGotoTargetsRequest:       true,
		SupportsExceptionOptions:         true,
		ExceptionBreakpointFilters: []ExceptionBreakpointFilter{
			{Filter: "raised", Label: "Raised Exceptions", Default: false},
			{Filter: "uncaught", Label: "Uncaught Exceptions", Default: true},
		},
		SupportsCompletionsRequest:       true,
		SupportsExceptionInfoRequest:     true,
		SupportsLogPoints:                true,
		SupportsValueFormattingOptions:   true,
		SupportsHitConditionalBreakpoint: true,
		SupportsSetVariable:              true,
		SupportTerminateDebuggee:         true,
		SupportsConditionalBreakpoints:   true,
	}
}

// AttachConfig is the attach request configuration supplied by the
// front-end. Program points at the script to debug inside Max; Ptvsd
// carries the endpoint of the injected backend.
type AttachConfig struct {
	Name    string       `json:"name,omitempty"`
	Request string       `json:"request,omitempty"`
	Program string       `json:"program"`
	Ptvsd   PtvsdAddress `json:"ptvsd"`
}

// PtvsdAddress locates the injected debug backend.
type PtvsdAddress struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// AttachArguments is the rewritten attach payload in the shape ptvsd expects.
type AttachArguments struct {
	Name         string        `json:"name"`
	Type         string        `json:"type"`
	Request      string        `json:"request"`
	Port         int           `json:"port"`
	Host         string        `json:"host"`
	PathMappings []PathMapping `json:"pathMappings"`
	MaxDebugFile string        `json:"MaxDebugFile"`
}

// PathMapping maps a local source root onto the debuggee's view of it.
type PathMapping struct {
	LocalRoot  string `json:"localRoot"`
	RemoteRoot string `json:"remoteRoot"`
}

// PauseArguments is the body of a synthesized pause request.
type PauseArguments struct {
	ThreadID int `json:"threadId"`
}

// StoppedBody is the body of a stopped event, decoded for routing only.
type StoppedBody struct {
	Reason   string `json:"reason"`
	ThreadID int    `json:"threadId,omitempty"`
}

// TerminatedBody is the body of a terminated event.
type TerminatedBody struct {
	Restart bool `json:"restart,omitempty"`
}
