package schema

// Request commands the proxy inspects. Everything else is relayed verbatim.
const (
	CommandInitialize        = "initialize"
	CommandAttach            = "attach"
	CommandContinue          = "continue"
	CommandConfigurationDone = "configurationDone"
	CommandVariables         = "variables"
	CommandPause             = "pause"
	CommandDisconnect        = "disconnect"
)

// Event names the proxy inspects or emits.
const (
	EventStopped    = "stopped"
	EventContinued  = "continued"
	EventTerminated = "terminated"
)

// Stop reasons carried by stopped events.
const (
	StopReasonStep       = "step"
	StopReasonPause      = "pause"
	StopReasonBreakpoint = "breakpoint"
)
