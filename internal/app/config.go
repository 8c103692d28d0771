package app

import (
	"errors"
	"fmt"
	"io"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	ConfigPath  string // user hcl files: router, dispatcher, extra tasks
	ModulesPath string // module manifests

	LogFormat string
	LogLevel  string
	// LogWriter receives log output. Nil means the app's output writer.
	LogWriter io.Writer

	// Arguments is the routing input handed to the router unchanged.
	Arguments map[string]string
}

// NewConfig validates cfg and returns a copy of it.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.ConfigPath == "" && cfg.ModulesPath == "" {
		return nil, errors.New("at least one of ConfigPath or ModulesPath must be set")
	}

	switch cfg.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		return nil, fmt.Errorf("invalid log level '%s': must be 'debug', 'info', 'warn', or 'error'", cfg.LogLevel)
	}
	switch cfg.LogFormat {
	case "", "text", "json":
	default:
		return nil, fmt.Errorf("invalid log format '%s': must be 'text' or 'json'", cfg.LogFormat)
	}

	return &cfg, nil
}

// paths returns the config locations handed to the loader, modules first so
// the user config can override routing defaults.
func (c *Config) paths() []string {
	var paths []string
	if c.ModulesPath != "" {
		paths = append(paths, c.ModulesPath)
	}
	if c.ConfigPath != "" {
		paths = append(paths, c.ConfigPath)
	}
	return paths
}
