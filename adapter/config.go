package adapter

import (
	"github.com/go-faster/errors"
	"github.com/ilyakaznacheev/cleanenv"
)

// Config carries the adapter defaults, loadable from a yaml file with
// environment overrides. CLI flags win over both.
type Config struct {
	Log struct {
		// Path of the log file; stdout carries protocol traffic, so logs
		// always go to a file.
		Path string `env:"MAXDAP_LOG" yaml:"path"`
		// Verbose enables message-by-message traffic logging.
		Verbose bool `env:"MAXDAP_VERBOSE" env-default:"false" yaml:"verbose"`
	} `yaml:"log"`

	// PtvsdDir is the bundled ptvsd distribution injected into Max.
	PtvsdDir string `env:"MAXDAP_PTVSD_DIR" yaml:"ptvsdDir"`

	// SignalPath is where the run harness signals debuggee completion.
	SignalPath string `env:"MAXDAP_SIGNAL" yaml:"signal"`

	// ExecCommand switches injection to the exec delivery template.
	ExecCommand string `env:"MAXDAP_EXEC" yaml:"execCommand"`
}

// LoadConfig reads the configuration file when given, otherwise just the
// environment.
func LoadConfig(configURL string) (*Config, error) {
	cfg := &Config{}
	if configURL == "" {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, errors.Wrap(err, "could not read environment config")
		}
		return cfg, nil
	}
	if err := cleanenv.ReadConfig(configURL, cfg); err != nil {
		return nil, errors.Wrapf(err, "could not read config %v", configURL)
	}
	return cfg, nil
}
