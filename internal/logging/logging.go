// =============================================================================
// Negotiated Rate Filter - Logging
// =============================================================================
//
// Operational logging for the CLI, built on zerolog. These logs describe what
// the tool is doing (files opened, per-line outcomes at debug level, run
// totals) and always go to the message stream, never to the data output.
//
// The per-line parse diagnostics and the closing summary are NOT log events;
// they have a fixed text format and are written by the report package.
//
// LEVELS:
//   - warn  (default): quiet; only problems worth attention
//   - info           : run start/finish with totals and output digest
//   - debug          : one event per input line with its outcome
//
// =============================================================================

package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

// Standard field keys.
const (
	FieldRunID     = "run_id"
	FieldComponent = "component"
	FieldLine      = "line"
	FieldOutcome   = "outcome"
)

// Config contains logging configuration.
type Config struct {
	// Level is one of trace, debug, info, warn, error.
	Level string `yaml:"level" mapstructure:"level"`

	// Format is "console" or "json".
	Format string `yaml:"format" mapstructure:"format"`
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.Level == "" {
		c.Level = "warn"
	}
	if c.Format == "" {
		c.Format = "console"
	}
}

// Validate checks the level and format names.
func (c *Config) Validate() error {
	if _, err := zerolog.ParseLevel(strings.ToLower(c.Level)); err != nil || c.Level == "" {
		return fmt.Errorf("log.level must be one of trace, debug, info, warn, error (got: %q)", c.Level)
	}
	switch strings.ToLower(c.Format) {
	case "console", "json":
		return nil
	default:
		return fmt.Errorf("log.format must be one of console, json (got: %q)", c.Format)
	}
}

// New builds a logger writing to out.
//
// Console output is coloured only when out is a terminal.
func New(cfg Config, out io.Writer) zerolog.Logger {
	cfg.ApplyDefaults()

	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		level = zerolog.WarnLevel
	}

	var zl zerolog.Logger
	if strings.ToLower(cfg.Format) == "json" {
		zl = zerolog.New(out)
	} else {
		zl = zerolog.New(zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: "15:04:05",
			NoColor:    !isTerminal(out),
		})
	}

	return zl.Level(level).With().Timestamp().Logger()
}

// NewRunLogger returns a child logger tagged with a fresh run ID.
func NewRunLogger(base zerolog.Logger) zerolog.Logger {
	return base.With().Str(FieldRunID, uuid.New().String()).Logger()
}

// WithComponent returns a logger tagged with a component name.
func WithComponent(l zerolog.Logger, name string) zerolog.Logger {
	return l.With().Str(FieldComponent, name).Logger()
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
