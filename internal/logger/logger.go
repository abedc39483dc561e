// Package logger provides hclog-based structured logging for all modules.
package logger

import (
	"os"

	"github.com/hashicorp/go-hclog"
)

// Options controls logger construction
type Options struct {
	Level string
	JSON  bool
}

// New creates a named logger with the given options
func New(name string, opts Options) hclog.Logger {
	level := hclog.LevelFromString(opts.Level)
	if level == hclog.NoLevel {
		level = hclog.Info
	}
	return hclog.New(&hclog.LoggerOptions{
		Name:       name,
		Level:      level,
		Output:     os.Stderr,
		JSONFormat: opts.JSON,
	})
}

// Default returns a logger suitable for code paths that were not handed
// one explicitly. Level is taken from the LOG_LEVEL environment variable.
func Default(name string) hclog.Logger {
	return New(name, Options{Level: os.Getenv("LOG_LEVEL")})
}
