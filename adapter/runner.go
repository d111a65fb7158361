// Package adapter assembles a debug session from CLI flags and
// configuration and serves it over stdio.
package adapter

import (
	"context"
	"os"
	"path/filepath"

	"github.com/jessevdk/go-flags"

	"github.com/blurstudio/maxdap/host"
	"github.com/blurstudio/maxdap/host/max"
	"github.com/blurstudio/maxdap/logger"
	"github.com/blurstudio/maxdap/proxy"
	"github.com/blurstudio/maxdap/transport/stdio"
)

// Run parses args and serves one debug session over stdin/stdout.
func Run(args []string) error {
	options := &Options{}
	if _, err := flags.ParseArgs(options, args); err != nil {
		return err
	}
	config, err := LoadConfig(options.ConfigURL)
	if err != nil {
		return err
	}
	settings := resolve(options, config)

	log, err := logger.New(settings.logPath, settings.verbose)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()
	logger.Setup(log)

	ctx := logger.WithLogger(context.Background(), log)

	var injector host.Injector
	if settings.execCommand != "" {
		injector, err = max.NewExecInjector(ctx, settings.execCommand)
		if err != nil {
			return err
		}
	} else {
		injector = max.NewWindowInjector()
	}

	session, err := proxy.New(
		proxy.WithFrontEnd(stdio.New()),
		proxy.WithInjector(injector),
		proxy.WithBootstrap(&max.Bootstrap{
			PtvsdDir:   settings.ptvsdDir,
			SignalPath: settings.signalPath,
		}),
		proxy.WithCompletionWatcher(func(ctx context.Context) (<-chan struct{}, error) {
			watcher, err := host.WatchSignal(ctx, settings.signalPath)
			if err != nil {
				return nil, err
			}
			return watcher.Done(), nil
		}),
	)
	if err != nil {
		return err
	}
	return session.Serve(ctx)
}

// settings are the effective values after flag/config/default resolution.
type settings struct {
	logPath     string
	verbose     bool
	ptvsdDir    string
	signalPath  string
	execCommand string
}

// resolve merges CLI flags over configuration over binary-relative defaults.
func resolve(options *Options, config *Config) *settings {
	base := adapterDir()
	ret := &settings{
		logPath:     firstOf(options.LogPath, config.Log.Path, filepath.Join(base, "log.txt")),
		verbose:     options.Verbose || config.Log.Verbose,
		ptvsdDir:    firstOf(options.PtvsdDir, config.PtvsdDir, filepath.Join(base, "python")),
		signalPath:  firstOf(options.SignalPath, config.SignalPath, filepath.Join(base, "finished.txt")),
		execCommand: firstOf(options.ExecCommand, config.ExecCommand, ""),
	}
	return ret
}

// adapterDir locates the directory holding the adapter binary, where the
// ptvsd bundle, log and signal files live by default.
func adapterDir() string {
	executable, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(executable)
}

func firstOf(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return ""
}
