// Package suggest ranks bookmarked commands for a search and candidate
// values for a template variable.
//
// The rankers are pure: they take a candidate set and a scoring config and
// return a sorted copy. Retrieval, completion execution and logging live in
// the searchers built on top of them.
package suggest

import (
	"fmt"
	"sort"

	"github.com/runger/cmdbook/internal/config"
	"github.com/runger/cmdbook/internal/dirscope"
	"github.com/runger/cmdbook/internal/storage"
	"github.com/runger/cmdbook/internal/textmatch"
)

// Reason types.
const (
	ReasonUsage      = "usage"
	ReasonPath       = "path"
	ReasonText       = "text"
	ReasonAlias      = "alias"
	ReasonContext    = "context"
	ReasonCompletion = "completion"
)

// Reason describes a single "why" component for a score.
// Contribution is the points the source added to the final score.
type Reason struct {
	Type         string
	Description  string
	Contribution float64
}

// ScoredCommand is a command with its composite score.
type ScoredCommand struct {
	Command storage.Command
	Score   float64
	// Match is the text matcher outcome; zero for an empty query.
	Match   textmatch.Result
	Reasons []Reason
}

type commandCandidate struct {
	cmd   storage.Command
	usage float64
	path  float64
	text  float64
	match textmatch.Result
}

// RankCommands scores commands against a query from workingDir:
//
//	usage*usage.points + path*path.points + text*text.points
//
// Each subscore is normalized against its maximum in the admitted set.
// Candidates the matcher rejects are dropped; a blank query admits all of
// them with a zero text subscore. Results are sorted by score, then usage
// count, then input order. A nil cfg uses the default scoring.
func RankCommands(query string, mode textmatch.Mode, workingDir string, candidates []storage.Command, cfg *config.ScoringConfig) ([]ScoredCommand, error) {
	cfg = scoringOrDefault(cfg)
	sc := cfg.Commands

	m, err := textmatch.New(mode, query, sc.Text.Weights())
	if err != nil {
		return nil, err
	}

	mult := sc.Path.Multipliers()
	admitted := make([]commandCandidate, 0, len(candidates))
	var maxUsage, maxPath, maxText float64
	for _, c := range candidates {
		res, ok := m.Match(textmatch.Candidate{
			Command:     c.Cmd,
			Alias:       c.Alias,
			Description: c.Description,
		})
		if !ok {
			continue
		}

		cc := commandCandidate{
			cmd:   c,
			usage: float64(max(c.UsageCount, 0)),
			path:  dirscope.Score(workingDir, pathUsages(c.Usages), mult),
			match: res,
		}
		if !m.Empty() {
			cc.text = res.Weighted()
		}
		maxUsage = max(maxUsage, cc.usage)
		maxPath = max(maxPath, cc.path)
		maxText = max(maxText, cc.text)
		admitted = append(admitted, cc)
	}

	out := make([]ScoredCommand, 0, len(admitted))
	for _, cc := range admitted {
		usage := dirscope.Normalize(cc.usage, maxUsage) * sc.Usage.Points
		path := dirscope.Normalize(cc.path, maxPath) * sc.Path.Points
		text := dirscope.Normalize(cc.text, maxText) * sc.Text.Points

		reasons := []Reason{
			{Type: ReasonUsage, Description: fmt.Sprintf("used %d times", cc.cmd.UsageCount), Contribution: usage},
			{Type: ReasonPath, Description: closestRelation(workingDir, cc.cmd.Usages), Contribution: path},
		}
		if !m.Empty() {
			reasons = append(reasons, Reason{Type: ReasonText, Description: describeMatch(mode, cc.match), Contribution: text})
		}

		out = append(out, ScoredCommand{
			Command: cc.cmd,
			Score:   usage + path + text,
			Match:   cc.match,
			Reasons: reasons,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Command.UsageCount > out[j].Command.UsageCount
	})
	return out, nil
}

func pathUsages(in []storage.PathUsage) []dirscope.Usage {
	out := make([]dirscope.Usage, len(in))
	for i, u := range in {
		out[i] = dirscope.Usage{Path: u.Path, Count: u.Count}
	}
	return out
}

// closestRelation names the nearest relation among the usage paths.
func closestRelation(workingDir string, usages []storage.PathUsage) string {
	if len(usages) == 0 {
		return "never used here"
	}
	best := dirscope.Unrelated
	for _, u := range usages {
		if r := dirscope.Classify(workingDir, u.Path); relationRank(r) > relationRank(best) {
			best = r
		}
	}
	return best.String()
}

func relationRank(r dirscope.Relation) int {
	switch r {
	case dirscope.Exact:
		return 3
	case dirscope.Ancestor:
		return 2
	case dirscope.Descendant:
		return 1
	default:
		return 0
	}
}

func describeMatch(mode textmatch.Mode, res textmatch.Result) string {
	if mode == textmatch.ModeAuto {
		return fmt.Sprintf("%s tier x%.2g", res.Tier, res.Boost)
	}
	return mode.String()
}

func scoringOrDefault(cfg *config.ScoringConfig) *config.ScoringConfig {
	if cfg != nil {
		return cfg
	}
	def := config.DefaultScoringConfig()
	return &def
}

// limitCommands truncates to limit; a non-positive limit keeps everything.
func limitCommands(in []ScoredCommand, limit int) []ScoredCommand {
	if limit > 0 && len(in) > limit {
		return in[:limit]
	}
	return in
}
