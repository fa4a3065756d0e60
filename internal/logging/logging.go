// Package logging builds the zerolog loggers used by the scc command.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// EnvLevel overrides the log level when no flag is given.
const EnvLevel = "SCC_LOG_LEVEL"

// Config selects level and output format.
type Config struct {
	Level   string // trace|debug|info|warn|error|disabled
	Console bool   // human readable output instead of JSON lines
}

// ParseLevel maps a level name to a zerolog level. An empty name falls back
// to $SCC_LOG_LEVEL and then to warn.
func ParseLevel(name string) (zerolog.Level, error) {
	if name == "" {
		name = os.Getenv(EnvLevel)
	}
	if name == "" {
		return zerolog.WarnLevel, nil
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(name))
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("invalid log level %q: %w", name, err)
	}
	return lvl, nil
}

// New returns a logger writing to w, tagged with the component field.
func New(w io.Writer, component string, cfg Config) (zerolog.Logger, error) {
	lvl, err := ParseLevel(cfg.Level)
	if err != nil {
		return zerolog.Nop(), err
	}
	if cfg.Console {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339, NoColor: true}
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Str("component", component).Logger(), nil
}
