// Package logging provides structured logging for relight.
//
// The orchestrator writes human-facing console output; --log-json switches
// to machine-readable JSON for use under process supervisors.
package logging

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Config holds logging configuration.
type Config struct {
	Level string // debug, info, warn, error
	JSON  bool   // emit JSON instead of console output
	Out   io.Writer
}

var (
	globalLogger zerolog.Logger
	globalMu     sync.RWMutex
)

func init() {
	globalLogger = build(Config{})
}

// Init configures the global logger.
func Init(cfg Config) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalLogger = build(cfg)
}

// Component returns a logger scoped to a named component.
func Component(name string) zerolog.Logger {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalLogger.With().Str("component", name).Logger()
}

// Logger returns the global logger.
func Logger() zerolog.Logger {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalLogger
}

func build(cfg Config) zerolog.Logger {
	out := cfg.Out
	if out == nil {
		out = os.Stderr
	}

	if !cfg.JSON {
		out = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: "15:04:05",
		}
	}

	return zerolog.New(out).
		Level(parseLevel(cfg.Level)).
		With().
		Timestamp().
		Logger()
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "", "info":
		return zerolog.InfoLevel
	default:
		return zerolog.InfoLevel
	}
}

// Timestamp returns the wall-clock formatted the way console lines are.
func Timestamp() string {
	return time.Now().Format("15:04:05")
}
