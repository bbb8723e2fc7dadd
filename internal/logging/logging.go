// Package logging provides the process-wide structured logger and the
// contextual-field helpers every component scopes itself with.
package logging

import (
	"os"
	"strings"

	"github.com/charmbracelet/log"
)

var Logger *log.Logger

// Level is one of the recognised log levels.
type Level string

const (
	DebugLevel Level = "debug"
	InfoLevel  Level = "info"
	WarnLevel  Level = "warn"
	ErrorLevel Level = "error"
)

// Init initializes the global logger at the given level.
func Init(level string) {
	Logger = log.New(os.Stderr)
	Logger.SetReportTimestamp(true)
	setLevel(Logger, parseLevel(level))
}

func parseLevel(raw string) Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return DebugLevel
	case "warn", "warning":
		return WarnLevel
	case "error":
		return ErrorLevel
	default:
		return InfoLevel
	}
}

func setLevel(logger *log.Logger, level Level) {
	switch level {
	case DebugLevel:
		logger.SetLevel(log.DebugLevel)
	case WarnLevel:
		logger.SetLevel(log.WarnLevel)
	case ErrorLevel:
		logger.SetLevel(log.ErrorLevel)
	default:
		logger.SetLevel(log.InfoLevel)
	}
}

// Get returns the global logger, lazily initializing it at info level if
// nothing has called Init yet.
func Get() *log.Logger {
	if Logger == nil {
		Init(string(InfoLevel))
	}
	return Logger
}

// Component returns a logger scoped to the given subsystem, e.g.
// logging.Component("worker-pool").
func Component(name string) *log.Logger {
	return Get().With("component", name)
}

// WithChunk returns a logger with chunk-coordinate context.
func WithChunk(logger *log.Logger, x, z int32) *log.Logger {
	return logger.With("chunk_x", x, "chunk_z", z)
}

// WithRegion returns a logger with region-coordinate context.
func WithRegion(logger *log.Logger, x, z int64) *log.Logger {
	return logger.With("region_x", x, "region_z", z)
}

// WithDuration returns a logger with operation/duration context, for
// performance logging around generation and persistence work.
func WithDuration(logger *log.Logger, operation string, duration interface{}) *log.Logger {
	return logger.With("operation", operation, "duration", duration)
}
