// Package logging configures the log/slog loggers used by hector.
//
// Log levels from most to least verbose: debug, info, warn, error. Debug
// output includes source locations.
//
//	logger, err := logging.Setup(logging.Options{Level: "debug", Format: "json"})
//	logger.Info("listening", "addr", ":6767")
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Options controls how logging is configured.
type Options struct {
	Level  string    // "debug", "info", "warn", "error" (default: "info")
	Format string    // "text" or "json" (default: "text")
	Output io.Writer // default: os.Stderr
}

// Formats lists the accepted values of Options.Format.
var Formats = []string{"text", "json"}

// ParseLevel converts a level name to slog.Level.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("logging: unknown level %q (valid: %s)", level, LevelNames())
}

// LevelNames returns all valid level names, useful for -help text.
func LevelNames() string {
	return "debug, info, warn, error"
}

// New builds a logger from opts without touching the process default.
func New(opts Options) (*slog.Logger, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}

	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	handlerOpts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}

	switch strings.ToLower(opts.Format) {
	case "json":
		return slog.New(slog.NewJSONHandler(out, handlerOpts)), nil
	case "text", "":
		return slog.New(slog.NewTextHandler(out, handlerOpts)), nil
	}
	return nil, fmt.Errorf("logging: unknown format %q (valid: %s)", opts.Format, strings.Join(Formats, ", "))
}

// Setup builds a logger and installs it as the slog default.
func Setup(opts Options) (*slog.Logger, error) {
	logger, err := New(opts)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)
	return logger, nil
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
