package suggest

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/runger/cmdbook/internal/completion"
	"github.com/runger/cmdbook/internal/config"
	"github.com/runger/cmdbook/internal/logging"
	"github.com/runger/cmdbook/internal/storage"
	"github.com/runger/cmdbook/internal/template"
	"github.com/runger/cmdbook/internal/textmatch"
)

// Request is a command search.
type Request struct {
	Query      string
	Mode       textmatch.Mode
	WorkingDir string
	// Limit caps the results; 0 keeps everything.
	Limit int
}

// CommandSearcher retrieves candidate commands from storage and ranks them.
type CommandSearcher struct {
	store         storage.Store
	scoring       *config.ScoringConfig
	logger        *slog.Logger
	aliasShortcut bool
	candidateCap  int
}

// SearcherOption configures a CommandSearcher.
type SearcherOption func(*CommandSearcher)

// WithSearchLogger sets the logger.
func WithSearchLogger(l *slog.Logger) SearcherOption {
	return func(s *CommandSearcher) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithSearchConfig applies the alias shortcut and candidate cap settings.
func WithSearchConfig(cfg config.SearchConfig) SearcherOption {
	return func(s *CommandSearcher) {
		s.aliasShortcut = cfg.AliasShortcut
		s.candidateCap = cfg.CandidateCap
	}
}

// NewCommandSearcher creates a searcher. scoring is shared, never copied.
func NewCommandSearcher(store storage.Store, scoring *config.ScoringConfig, opts ...SearcherOption) *CommandSearcher {
	s := &CommandSearcher{
		store:         store,
		scoring:       scoringOrDefault(scoring),
		logger:        logging.Discard(),
		aliasShortcut: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Search returns the ranked commands for req. A query equal to an alias
// returns only the commands carrying that alias. #tag tokens in the query
// restrict the results to commands carrying every tag, and the remaining
// text is ranked. An invalid regex fails with an error matching
// textmatch.ErrInvalidPattern.
func (s *CommandSearcher) Search(ctx context.Context, req Request) ([]ScoredCommand, error) {
	start := time.Now()

	if s.aliasShortcut && strings.TrimSpace(req.Query) != "" {
		aliased, err := s.store.FindByAlias(ctx, req.Query)
		if err != nil {
			return nil, fmt.Errorf("alias lookup: %w", err)
		}
		if len(aliased) > 0 {
			ranked, err := RankCommands("", req.Mode, req.WorkingDir, aliased, s.scoring)
			if err != nil {
				return nil, err
			}
			for i := range ranked {
				ranked[i].Reasons = append(ranked[i].Reasons, Reason{Type: ReasonAlias, Description: ranked[i].Command.Alias})
			}
			s.logger.Debug("alias match", "alias", req.Query, "count", len(ranked))
			return limitCommands(ranked, req.Limit), nil
		}
	}

	tags, text := template.SplitHashtags(req.Query)

	// Compile before touching storage so an invalid pattern costs nothing.
	if _, err := textmatch.New(req.Mode, text, s.scoring.Commands.Text.Weights()); err != nil {
		return nil, err
	}

	candidates, err := s.store.GetCommandsForSearch(ctx, storage.SearchQuery{
		Mode:  req.Mode,
		Query: text,
		Tags:  tags,
		Limit: s.candidateCap,
	})
	if err != nil {
		return nil, fmt.Errorf("fetch candidates: %w", err)
	}

	ranked, err := RankCommands(text, req.Mode, req.WorkingDir, candidates, s.scoring)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("search",
		"mode", req.Mode.String(),
		"tags", tags,
		"candidates", len(candidates),
		"matched", len(ranked),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return limitCommands(ranked, req.Limit), nil
}

// ValueRequest asks for suggestions for one variable of a template.
type ValueRequest struct {
	RootCmd    string
	Variable   template.Variable
	WorkingDir string
	Context    map[string]string
	// Query narrows the suggestions to values fuzzily matching it.
	Query string
}

func (r ValueRequest) query() ValueQuery {
	return ValueQuery{
		RootCmd:    r.RootCmd,
		Variable:   r.Variable.FlatName(),
		WorkingDir: r.WorkingDir,
		Context:    r.Context,
	}
}

// ValueSource suggests values for template variables from stored history
// and completion providers.
type ValueSource struct {
	store   storage.Store
	runner  *completion.Runner
	scoring *config.ScoringConfig
	logger  *slog.Logger
}

// NewValueSource creates a value source. A nil runner disables completions.
func NewValueSource(store storage.Store, runner *completion.Runner, scoring *config.ScoringConfig, logger *slog.Logger) *ValueSource {
	if logger == nil {
		logger = logging.Discard()
	}
	return &ValueSource{
		store:   store,
		runner:  runner,
		scoring: scoringOrDefault(scoring),
		logger:  logger,
	}
}

// Interim ranks the stored values and the template's own alternatives
// without running any provider. It is meant to be shown while Suggest runs.
func (s *ValueSource) Interim(ctx context.Context, req ValueRequest) ([]ScoredValue, error) {
	if req.Variable.Secret {
		return nil, nil
	}
	stored, err := s.storedValues(ctx, req)
	if err != nil {
		return nil, err
	}
	candidates := mergeCandidates(stored, req.Variable.Options)
	return s.rank(req, candidates), nil
}

// Suggest fetches stored values and runs the completion providers
// concurrently, then ranks the merged set. Provider failures are logged and
// otherwise ignored.
func (s *ValueSource) Suggest(ctx context.Context, req ValueRequest) ([]ScoredValue, error) {
	if req.Variable.Secret {
		return nil, nil
	}

	var stored []storage.VariableValue
	var completed []string

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		stored, err = s.storedValues(gctx, req)
		return err
	})
	g.Go(func() error {
		completed = s.complete(gctx, req)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	candidates := mergeCandidates(stored, append(append([]string(nil), req.Variable.Options...), completed...))
	return s.rank(req, candidates), nil
}

func (s *ValueSource) storedValues(ctx context.Context, req ValueRequest) ([]storage.VariableValue, error) {
	values, err := s.store.GetVariableValues(ctx, req.RootCmd, req.Variable.FlatNames())
	if err != nil {
		return nil, fmt.Errorf("fetch values: %w", err)
	}
	return values, nil
}

// complete runs every provider bound to the variable and returns the
// distinct output lines in provider order.
func (s *ValueSource) complete(ctx context.Context, req ValueRequest) []string {
	if s.runner == nil {
		return nil
	}
	completions, err := s.store.GetCompletions(ctx, req.RootCmd, req.Variable.FlatNames())
	if err != nil {
		s.logger.Warn("failed to load completions", "root_cmd", req.RootCmd, "error", err)
		return nil
	}
	if len(completions) == 0 {
		return nil
	}

	providers := make([]string, len(completions))
	for i, c := range completions {
		providers[i] = c.Provider
	}

	var lines []string
	seen := make(map[string]bool)
	for _, res := range s.runner.RunAll(ctx, providers, req.Context) {
		if res.Err != nil {
			s.logger.Warn("completion provider failed",
				"variable", req.Variable.Name,
				"command", res.Command,
				"error", res.Err,
			)
			continue
		}
		for _, l := range res.Lines {
			if !seen[l] {
				seen[l] = true
				lines = append(lines, l)
			}
		}
	}
	return lines
}

func (s *ValueSource) rank(req ValueRequest, candidates []ValueCandidate) []ScoredValue {
	if q := strings.TrimSpace(req.Query); q != "" {
		m, err := textmatch.New(textmatch.ModeFuzzy, q, textmatch.DefaultWeights())
		if err == nil {
			kept := candidates[:0]
			for _, c := range candidates {
				if _, ok := m.Match(textmatch.Candidate{Command: c.Value}); ok {
					kept = append(kept, c)
				}
			}
			candidates = kept
		}
	}
	return RankValues(req.query(), candidates, s.scoring)
}

// mergeCandidates turns stored values into candidates and marks those also
// present in sourced. Sourced values without history are appended in order.
func mergeCandidates(stored []storage.VariableValue, sourced []string) []ValueCandidate {
	inSourced := make(map[string]bool, len(sourced))
	for _, v := range sourced {
		inSourced[v] = true
	}

	out := make([]ValueCandidate, 0, len(stored)+len(sourced))
	seen := make(map[string]bool, len(stored))
	for _, v := range stored {
		seen[v.Value] = true
		out = append(out, ValueCandidate{
			Value:             v.Value,
			Usages:            v.Usages,
			CompletionSourced: inSourced[v.Value],
		})
	}
	for _, v := range sourced {
		if seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, ValueCandidate{Value: v, CompletionSourced: true})
	}
	return out
}

// RecordTemplate stores the chosen value of every non-secret variable of t,
// each with the other chosen values as its context.
func RecordTemplate(ctx context.Context, store storage.Store, t *template.Template, workingDir string) error {
	filled := t.FilledValues()
	for _, v := range t.Variables() {
		if v.Secret {
			continue
		}
		value, ok := t.Value(v.Name)
		if !ok {
			continue
		}

		others := make(map[string]string, len(filled))
		for k, val := range filled {
			if k != v.FlatName() {
				others[k] = val
			}
		}

		err := store.RecordVariableValue(ctx, storage.VariableUse{
			RootCmd:  t.RootCommand(),
			FlatName: v.FlatName(),
			Value:    value,
			Path:     workingDir,
			Context:  others,
		})
		if err != nil {
			return fmt.Errorf("record %s: %w", v.Name, err)
		}
	}
	return nil
}
