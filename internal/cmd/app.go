package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/runger/cmdbook/internal/completion"
	"github.com/runger/cmdbook/internal/config"
	"github.com/runger/cmdbook/internal/logging"
	"github.com/runger/cmdbook/internal/storage"
	"github.com/runger/cmdbook/internal/suggest"
)

// app bundles what a command needs: configuration, the store and the logger.
type app struct {
	cfg     *config.Config
	paths   *config.Paths
	store   *storage.SQLiteStore
	logger  *slog.Logger
	scoring *config.ScoringConfig

	logCloser io.Closer
}

// loadConfig reads --config when given and the default location otherwise.
func loadConfig(paths *config.Paths) (*config.Config, string, error) {
	path := configFlag
	if path == "" {
		path = paths.ConfigFile()
	}
	cfg, err := config.LoadFromFile(path)
	if err != nil {
		return nil, path, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, path, nil
}

// openApp loads config, opens the logger and the database.
// The caller must Close the returned app.
func openApp() (*app, error) {
	paths := config.DefaultPaths()
	cfg, cfgPath, err := loadConfig(paths)
	if err != nil {
		return nil, err
	}
	if err := paths.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to create directories: %w", err)
	}

	logger, logCloser, err := logging.Open(cfg.Logs, paths)
	if err != nil {
		// Logging must never block the user's command.
		fmt.Fprintf(os.Stderr, "cmdbook: logging disabled: %v\n", err)
		logger, logCloser = logging.Discard(), nopCloser{}
	}

	store, err := storage.NewSQLiteStore(paths.DatabaseFile(),
		storage.WithLogger(logging.Component(logger, "storage")))
	if err != nil {
		logging.LogSQLiteError(logger, "open", err)
		_ = logCloser.Close()
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	logging.LogStartup(logger, Version, cfgPath, paths.DatabaseFile(), storage.SchemaVersion)

	// Scoring is fixed for the lifetime of the process and shared by pointer.
	scoring := cfg.Tuning
	return &app{
		cfg:       cfg,
		paths:     paths,
		store:     store,
		logger:    logger,
		scoring:   &scoring,
		logCloser: logCloser,
	}, nil
}

// Close releases the database and the log file.
func (a *app) Close() error {
	return errors.Join(a.store.Close(), a.logCloser.Close())
}

func (a *app) searcher() *suggest.CommandSearcher {
	return suggest.NewCommandSearcher(a.store, a.scoring,
		suggest.WithSearchConfig(a.cfg.Search),
		suggest.WithSearchLogger(logging.Component(a.logger, "search")),
	)
}

// valueSource builds a value source; completion providers run in dir unless
// withCompletions is false.
func (a *app) valueSource(dir string, withCompletions bool) *suggest.ValueSource {
	var runner *completion.Runner
	if withCompletions {
		runner = a.runner(dir)
	}
	return suggest.NewValueSource(a.store, runner, a.scoring, logging.Component(a.logger, "values"))
}

func (a *app) runner(dir string) *completion.Runner {
	rc := completion.RunnerConfigFrom(a.cfg.Completion, logging.Component(a.logger, "completion"))
	rc.WorkingDir = dir
	return completion.NewRunner(rc)
}

func (a *app) debounce() time.Duration {
	return time.Duration(a.cfg.Search.DebounceMs) * time.Millisecond
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// workingDir returns override, or the process working directory.
func workingDir(override string) string {
	if override != "" {
		return override
	}
	wd, err := os.Getwd()
	if err != nil {
		return ""
	}
	return wd
}

// cmdContext returns the command's context, which is nil when a run
// function is called without Execute.
func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
