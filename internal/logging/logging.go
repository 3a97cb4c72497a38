// Package logging configures the process-wide charmbracelet logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
)

// Options selects the log level and destination.
type Options struct {
	Level  string    // debug, info, warn or error
	File   string    // Append to this file instead of Output when set
	Debug  bool      // Forces the debug level
	Output io.Writer // Defaults to os.Stderr
}

// Setup replaces the default logger and returns a function that releases
// the log file, if one was opened.
func Setup(opts Options) (func() error, error) {
	level, err := parseLevel(opts.Level)
	if err != nil {
		return nil, err
	}
	if opts.Debug {
		level = log.DebugLevel
	}

	if opts.File == "" {
		out := opts.Output
		if out == nil {
			out = os.Stderr
		}
		logger := log.NewWithOptions(out, log.Options{
			Level: level,
		})
		log.SetDefault(logger)
		return func() error { return nil }, nil
	}

	if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil { //nolint:gosec
		return nil, fmt.Errorf("unable to create log directory: %w", err)
	}
	f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("unable to open log file: %w", err)
	}

	logger := log.NewWithOptions(f, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Level:           level,
	})
	log.SetDefault(logger)
	logger.Debug("Logging to file", "path", opts.File, "level", level)

	return f.Close, nil
}

func parseLevel(s string) (log.Level, error) {
	if s == "" {
		return log.WarnLevel, nil
	}
	level, err := log.ParseLevel(s)
	if err != nil {
		return log.WarnLevel, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return level, nil
}
