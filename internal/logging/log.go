// Package logging provides JSON-lines structured logging for cmdbook.
//
//	{"ts":"2026-01-15T10:30:00Z","level":"DEBUG","msg":"search ranked","component":"suggest","mode":"auto","candidates":42,"results":10}
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/runger/cmdbook/internal/config"
)

// Options configures the structured logger.
type Options struct {
	// Output is the writer for log output (default: os.Stderr)
	Output io.Writer

	// Level is the minimum log level (default: LevelInfo)
	Level slog.Level

	// Debug enables debug level logging (overrides Level)
	Debug bool
}

// DefaultOptions returns the default logging options.
func DefaultOptions() *Options {
	return &Options{
		Output: os.Stderr,
		Level:  slog.LevelInfo,
	}
}

// New creates a new JSON-lines structured logger.
func New(opts *Options) *slog.Logger {
	if opts == nil {
		opts = DefaultOptions()
	}

	output := opts.Output
	if output == nil {
		output = os.Stderr
	}

	level := opts.Level
	if opts.Debug {
		level = slog.LevelDebug
	}

	handler := slog.NewJSONHandler(output, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey && len(groups) == 0 {
				a.Key = "ts"
			}
			return a
		},
	})
	return slog.New(handler)
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

// ParseLevel maps a config level name to a slog level. Unknown names map to
// info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Open builds the process logger from config. When logging is disabled it
// returns a discarding logger and a no-op closer. Otherwise records are
// appended to cfg.File, or to the default log file under paths.
func Open(cfg config.LogsConfig, paths *config.Paths) (*slog.Logger, io.Closer, error) {
	if !cfg.Enabled {
		return Discard(), nopCloser{}, nil
	}

	file := cfg.File
	if file == "" {
		file = paths.LogFile()
	}
	if err := os.MkdirAll(filepath.Dir(file), 0o700); err != nil {
		return nil, nil, fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(file, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}

	logger := New(&Options{Output: f, Level: ParseLevel(cfg.Level)})
	return logger, f, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Component returns a child logger tagged with the component name.
func Component(logger *slog.Logger, name string) *slog.Logger {
	if logger == nil {
		logger = Discard()
	}
	return logger.With("component", name)
}

// LogStartup logs process startup information.
func LogStartup(logger *slog.Logger, version, configPath, databasePath string, schemaVersion int) {
	logger.Info("cmdbook started",
		"version", version,
		"config_path", configPath,
		"database_path", databasePath,
		"schema_version", schemaVersion,
		"pid", os.Getpid(),
	)
}

// LogSQLiteError logs SQLite errors.
func LogSQLiteError(logger *slog.Logger, operation string, err error) {
	logger.Error("sqlite error", "operation", operation, "error", err)
}

// LogCompletionRun logs one dynamic completion execution.
func LogCompletionRun(logger *slog.Logger, command string, elapsed time.Duration, lines int, err error) {
	if err != nil {
		logger.Warn("completion failed",
			"command", command,
			"duration_ms", elapsed.Milliseconds(),
			"error", err,
		)
		return
	}
	logger.Debug("completion finished",
		"command", command,
		"duration_ms", elapsed.Milliseconds(),
		"lines", lines,
	)
}
