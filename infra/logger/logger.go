// Package logger is the zerolog implementation of the core logger contract.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	corelogger "github.com/kilianp07/benchpsu/core/logger"
)

type Logger = corelogger.Logger

type NopLogger = corelogger.NopLogger

// Options select the level and output format of every logger created by New.
type Options struct {
	// Level is a zerolog level name. Empty keeps info.
	Level string `json:"level" yaml:"level"`
	// Format is "json" or "console". Empty selects console when APP_ENV=dev.
	Format string    `json:"format" yaml:"format"`
	Output io.Writer `json:"-" yaml:"-"`
}

var (
	mu      sync.RWMutex
	current = Options{}
)

// Configure replaces the options used by later calls to New.
func Configure(opts Options) error {
	if err := opts.Validate(); err != nil {
		return err
	}
	mu.Lock()
	current = opts
	mu.Unlock()
	return nil
}

// New returns a Logger tagged with component.
func New(component string) Logger {
	mu.RLock()
	opts := current
	mu.RUnlock()
	return NewZerologLogger(component, opts)
}

// Validate rejects unknown level and format names.
func (o Options) Validate() error {
	if o.Level != "" {
		if _, err := zerolog.ParseLevel(strings.ToLower(o.Level)); err != nil {
			return err
		}
	}
	switch strings.ToLower(o.Format) {
	case "", "json", "console":
		return nil
	default:
		return fmt.Errorf("logger: unknown format %q", o.Format)
	}
}

func (o Options) writer() io.Writer {
	out := o.Output
	if out == nil {
		out = os.Stdout
	}
	format := strings.ToLower(o.Format)
	if format == "" && strings.ToLower(os.Getenv("APP_ENV")) == "dev" {
		format = "console"
	}
	if format == "console" {
		return zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05.000"}
	}
	return out
}

func (o Options) level() zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(o.Level))
	if err != nil || o.Level == "" {
		return zerolog.InfoLevel
	}
	return lvl
}
