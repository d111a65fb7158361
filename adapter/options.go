package adapter

// Options are the command line flags the front-end may pass when spawning
// the adapter. Anything not set here falls back to the configuration file,
// environment, and finally to locations next to the adapter binary.
type Options struct {
	ConfigURL   string `short:"c" long:"config" description:"configuration file"`
	LogPath     string `short:"l" long:"log" description:"log file location"`
	Verbose     bool   `short:"v" long:"verbose" description:"log protocol traffic"`
	PtvsdDir    string `short:"p" long:"ptvsd" description:"bundled ptvsd distribution directory"`
	SignalPath  string `short:"s" long:"signal" description:"debuggee completion signal file"`
	ExecCommand string `short:"e" long:"exec" description:"code delivery command template; {file} and {command} are substituted"`
}
