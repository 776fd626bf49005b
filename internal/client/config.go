package client

import (
	"flag"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds pulsectl configuration.
type Config struct {
	APIBase     string        `env:"PULSE_API"     envDefault:"http://localhost:8375/api"`
	SessionFile string        `env:"PULSE_SESSION"`
	Timeout     time.Duration `env:"PULSE_TIMEOUT" envDefault:"15s"`
}

// ParseConfig reads the environment, then global flags from args. It
// returns the remaining arguments (the command and its operands).
func ParseConfig(fs *flag.FlagSet, args []string) (Config, []string, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, nil, fmt.Errorf("parse env: %w", err)
	}

	fs.StringVar(&cfg.APIBase, "api", cfg.APIBase, "API base URL")
	fs.StringVar(&cfg.SessionFile, "session", cfg.SessionFile, "session file (default ~/.pulse/session.json)")
	fs.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "request timeout")
	if err := fs.Parse(args); err != nil {
		return Config{}, nil, err
	}

	if cfg.SessionFile == "" {
		path, err := DefaultSessionPath()
		if err != nil {
			return Config{}, nil, err
		}
		cfg.SessionFile = path
	}
	return cfg, fs.Args(), nil
}
