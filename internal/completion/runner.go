package completion

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/errgroup"

	"github.com/runger/cmdbook/internal/config"
	"github.com/runger/cmdbook/internal/logging"
)

// Runner errors.
var (
	ErrTimeout       = errors.New("completion timed out")
	ErrOutputLimit   = errors.New("completion output exceeded limit")
	ErrNonZeroExit   = errors.New("completion exited with non-zero status")
	ErrEmptyProvider = errors.New("completion provider is empty")
)

const (
	defaultTimeout     = 10 * time.Second
	defaultMaxOutput   = 1 << 20
	defaultShell       = "sh"
	defaultConcurrency = 4
	defaultCacheSize   = 64
)

// RunnerConfig configures how providers are executed.
type RunnerConfig struct {
	Logger         *slog.Logger
	Shell          string
	WorkingDir     string
	Timeout        time.Duration
	MaxOutputBytes int64
	// CacheTTL and CacheSize control the result cache. A zero TTL disables it.
	CacheTTL  time.Duration
	CacheSize int
	// Concurrency bounds RunAll.
	Concurrency int
}

// RunnerConfigFrom maps the user configuration onto a RunnerConfig.
func RunnerConfigFrom(cfg config.CompletionConfig, logger *slog.Logger) RunnerConfig {
	return RunnerConfig{
		Logger:      logger,
		Shell:       cfg.Shell,
		Timeout:     time.Duration(cfg.TimeoutMs) * time.Millisecond,
		CacheTTL:    time.Duration(cfg.CacheTTLSecs) * time.Second,
		CacheSize:   cfg.CacheSize,
		Concurrency: cfg.Concurrency,
	}
}

// Runner executes providers through a shell. It is safe for concurrent use.
type Runner struct {
	cfg   RunnerConfig
	cache *expirable.LRU[string, []string]
}

// NewRunner creates a runner, filling unset fields with defaults.
func NewRunner(cfg RunnerConfig) *Runner {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxOutputBytes <= 0 {
		cfg.MaxOutputBytes = defaultMaxOutput
	}
	if cfg.Shell == "" {
		cfg.Shell = defaultShell
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaultConcurrency
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Discard()
	}

	r := &Runner{cfg: cfg}
	if cfg.CacheTTL > 0 {
		size := cfg.CacheSize
		if size <= 0 {
			size = defaultCacheSize
		}
		r.cache = expirable.NewLRU[string, []string](size, nil, cfg.CacheTTL)
	}
	return r
}

// Run executes a resolved provider command and returns its output lines.
// Successful results are cached per command string.
func (r *Runner) Run(ctx context.Context, command string) ([]string, error) {
	command = strings.TrimSpace(command)
	if command == "" {
		return nil, ErrEmptyProvider
	}
	if r.cache != nil {
		if lines, ok := r.cache.Get(command); ok {
			return lines, nil
		}
	}

	start := time.Now()
	lines, err := r.exec(ctx, command)
	logging.LogCompletionRun(r.cfg.Logger, command, time.Since(start), len(lines), err)
	if err != nil {
		return nil, err
	}

	if r.cache != nil {
		r.cache.Add(command, lines)
	}
	return lines, nil
}

func (r *Runner) exec(ctx context.Context, command string) ([]string, error) {
	runCtx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, r.cfg.Shell, "-c", command) //nolint:gosec // providers are user-authored
	if r.cfg.WorkingDir != "" {
		cmd.Dir = r.cfg.WorkingDir
	}
	cmd.Stdin = nil
	// Children of the shell may hold the output pipes after it is killed.
	cmd.WaitDelay = time.Second

	stdout := &limitedBuffer{limit: r.cfg.MaxOutputBytes}
	stderr := &limitedBuffer{limit: r.cfg.MaxOutputBytes}
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	err := cmd.Run()

	if stdout.exceeded {
		return nil, ErrOutputLimit
	}
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return nil, fmt.Errorf("%w after %s", ErrTimeout, r.cfg.Timeout)
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			msg := strings.TrimSpace(stderr.String())
			if msg == "" {
				return nil, fmt.Errorf("%w: exit code %d", ErrNonZeroExit, exitErr.ExitCode())
			}
			return nil, fmt.Errorf("%w: exit code %d: %s", ErrNonZeroExit, exitErr.ExitCode(), msg)
		}
		return nil, err
	}

	return splitLines(stdout.String()), nil
}

// Result is the outcome of one provider in RunAll.
type Result struct {
	Provider string
	Command  string
	Lines    []string
	Err      error
}

// RunAll resolves every provider against values and runs them with
// bounded concurrency. A failing provider is reported in its Result and
// does not stop the others. Results keep the order of providers.
func (r *Runner) RunAll(ctx context.Context, providers []string, values map[string]string) []Result {
	results := make([]Result, len(providers))

	var g errgroup.Group
	g.SetLimit(r.cfg.Concurrency)
	for i, p := range providers {
		g.Go(func() error {
			command := Resolve(p, values)
			lines, err := r.Run(ctx, command)
			results[i] = Result{Provider: p, Command: command, Lines: lines, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// Purge empties the result cache.
func (r *Runner) Purge() {
	if r.cache != nil {
		r.cache.Purge()
	}
}

// limitedBuffer is a bytes.Buffer that stops accepting data past limit.
type limitedBuffer struct {
	buf      bytes.Buffer
	limit    int64
	exceeded bool
	mu       sync.Mutex
}

func (lb *limitedBuffer) Write(p []byte) (n int, err error) {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	if lb.exceeded {
		return len(p), nil
	}

	remaining := lb.limit - int64(lb.buf.Len())
	if int64(len(p)) > remaining {
		lb.buf.Write(p[:max(remaining, 0)])
		lb.exceeded = true
		return len(p), nil
	}
	return lb.buf.Write(p)
}

func (lb *limitedBuffer) String() string {
	lb.mu.Lock()
	defer lb.mu.Unlock()
	return lb.buf.String()
}

var _ io.Writer = (*limitedBuffer)(nil)
