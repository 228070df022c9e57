package suggest

import (
	"fmt"
	"sort"

	"github.com/runger/cmdbook/internal/config"
	"github.com/runger/cmdbook/internal/dirscope"
	"github.com/runger/cmdbook/internal/storage"
)

// ValueCandidate is one possible value for a variable.
type ValueCandidate struct {
	Value string
	// Usages is the stored history of the value; empty for values that only
	// come from a completion.
	Usages []storage.ValueUsage
	// CompletionSourced is set when a completion provider produced the value.
	CompletionSourced bool
}

// TotalUsage sums the usage counts of the candidate.
func (c ValueCandidate) TotalUsage() int64 {
	var n int64
	for _, u := range c.Usages {
		n += u.Count
	}
	return n
}

// ValueQuery identifies the variable being filled and where.
type ValueQuery struct {
	RootCmd    string
	Variable   string
	WorkingDir string
	// Context holds the values already chosen for the other variables of the
	// same invocation, keyed by flat name.
	Context map[string]string
}

// ScoredValue is a candidate value with its composite score.
type ScoredValue struct {
	Value             string
	Score             float64
	Usage             int64
	CompletionSourced bool
	Reasons           []Reason
}

// RankValues scores candidate values:
//
//	completion*completion.points + context*context.points + path*path.points
//
// RootCmd and Variable in q only identify the pool and do not affect the
// score. Results are sorted by score, then total usage, then input order.
// An empty candidate set yields an empty result.
func RankValues(q ValueQuery, candidates []ValueCandidate, cfg *config.ScoringConfig) []ScoredValue {
	cfg = scoringOrDefault(cfg)
	vs := cfg.Variables
	mult := vs.Path.Multipliers()

	paths := make([]float64, len(candidates))
	var maxPath float64
	for i, c := range candidates {
		paths[i] = dirscope.Score(q.WorkingDir, valueUsages(c.Usages), mult)
		maxPath = max(maxPath, paths[i])
	}

	out := make([]ScoredValue, 0, len(candidates))
	for i, c := range candidates {
		var completion float64
		if c.CompletionSourced {
			completion = vs.Completion.Points
		}
		matched := contextMatches(q.Context, c.Usages)
		context := contextSubscore(matched, len(q.Context)) * vs.Context.Points
		path := dirscope.Normalize(paths[i], maxPath) * vs.Path.Points

		reasons := []Reason{
			{Type: ReasonCompletion, Description: completionDescription(c.CompletionSourced), Contribution: completion},
			{Type: ReasonContext, Description: fmt.Sprintf("%d/%d context values", matched, len(q.Context)), Contribution: context},
			{Type: ReasonPath, Description: closestValueRelation(q.WorkingDir, c.Usages), Contribution: path},
		}

		out = append(out, ScoredValue{
			Value:             c.Value,
			Score:             completion + context + path,
			Usage:             c.TotalUsage(),
			CompletionSourced: c.CompletionSourced,
			Reasons:           reasons,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Usage > out[j].Usage
	})
	return out
}

// contextMatches returns the largest number of context pairs that appeared
// together in a single usage record of the value. Pairs seen only in
// separate invocations do not add up.
func contextMatches(ctx map[string]string, usages []storage.ValueUsage) int {
	best := 0
	for _, u := range usages {
		matched := 0
		for k, v := range ctx {
			if got, ok := u.Context[k]; ok && got == v {
				matched++
			}
		}
		best = max(best, matched)
	}
	return best
}

func contextSubscore(matched, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(matched) / float64(total)
}

func valueUsages(in []storage.ValueUsage) []dirscope.Usage {
	out := make([]dirscope.Usage, len(in))
	for i, u := range in {
		out[i] = dirscope.Usage{Path: u.Path, Count: u.Count}
	}
	return out
}

func closestValueRelation(workingDir string, usages []storage.ValueUsage) string {
	paths := make([]storage.PathUsage, len(usages))
	for i, u := range usages {
		paths[i] = storage.PathUsage{Path: u.Path, Count: u.Count}
	}
	return closestRelation(workingDir, paths)
}

func completionDescription(sourced bool) string {
	if sourced {
		return "in completion output"
	}
	return "history only"
}
