// Package logger constructs the process-wide structured logger.
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// Options configures the logger.
type Options struct {
	Level  string
	Output io.Writer
	Prefix string
}

// New creates a logger with the given options.
func New(opts Options) *log.Logger {
	if opts.Output == nil {
		opts.Output = os.Stderr
	}
	return log.NewWithOptions(opts.Output, log.Options{
		Level:           parseLevel(opts.Level),
		Prefix:          opts.Prefix,
		TimeFormat:      time.RFC3339,
		ReportTimestamp: true,
	})
}

// FromEnv creates a logger honoring AEGIS_LOG_LEVEL.
func FromEnv(prefix string) *log.Logger {
	level := os.Getenv("AEGIS_LOG_LEVEL")
	if level == "" {
		level = "info"
	}
	return New(Options{Level: level, Prefix: prefix})
}

func parseLevel(level string) log.Level {
	switch strings.ToLower(level) {
	case "debug":
		return log.DebugLevel
	case "warn", "warning":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}
