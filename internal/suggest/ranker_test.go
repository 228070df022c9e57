package suggest

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runger/cmdbook/internal/config"
	"github.com/runger/cmdbook/internal/storage"
	"github.com/runger/cmdbook/internal/textmatch"
)

func defaultScoring() *config.ScoringConfig {
	cfg := config.DefaultScoringConfig()
	return &cfg
}

func cmdsOf(ranked []ScoredCommand) []string {
	out := make([]string, len(ranked))
	for i, r := range ranked {
		out[i] = r.Command.Cmd
	}
	return out
}

func usedIn(path string, count int64) []storage.PathUsage {
	return []storage.PathUsage{{Path: path, Count: count}}
}

func TestRankCommands_Deterministic(t *testing.T) {
	t.Parallel()

	candidates := []storage.Command{
		{ID: "1", Cmd: "git status", UsageCount: 3, Usages: usedIn("/repo", 3)},
		{ID: "2", Cmd: "git stash", UsageCount: 3, Usages: usedIn("/repo", 3)},
		{ID: "3", Cmd: "go test ./...", UsageCount: 1},
		{ID: "4", Cmd: "git switch {{branch}}", Description: "change branch", UsageCount: 7},
	}

	for _, mode := range textmatch.Modes() {
		first, err := RankCommands("gst", mode, "/repo", candidates, defaultScoring())
		require.NoError(t, err)
		for range 5 {
			again, err := RankCommands("gst", mode, "/repo", candidates, defaultScoring())
			require.NoError(t, err)
			assert.Equal(t, cmdsOf(first), cmdsOf(again), "mode %s", mode)
		}
	}
}

func TestRankCommands_EmptyCandidates(t *testing.T) {
	t.Parallel()

	ranked, err := RankCommands("anything", textmatch.ModeAuto, "/", nil, defaultScoring())
	require.NoError(t, err)
	assert.Empty(t, ranked)
}

func TestRankCommands_UsageMonotonic(t *testing.T) {
	t.Parallel()

	position := func(usage int64) int {
		ranked, err := RankCommands("", textmatch.ModeAuto, "/", []storage.Command{
			{ID: "y", Cmd: "echo y", UsageCount: 3},
			{ID: "x", Cmd: "echo x", UsageCount: usage},
		}, defaultScoring())
		require.NoError(t, err)
		for i, r := range ranked {
			if r.Command.ID == "x" {
				return i
			}
		}
		t.Fatal("x missing from results")
		return -1
	}

	prev := position(0)
	for usage := int64(1); usage <= 10; usage++ {
		pos := position(usage)
		assert.LessOrEqual(t, pos, prev, "usage %d moved x down", usage)
		prev = pos
	}
	assert.Equal(t, 0, prev)
}

func TestRankCommands_ExactExcludes(t *testing.T) {
	t.Parallel()

	candidates := []storage.Command{
		{Cmd: "git status"},
		{Cmd: "git statuz"},
		{Cmd: "git status -s"},
		{Cmd: "Git Státus"},
	}

	ranked, err := RankCommands("git status", textmatch.ModeExact, "/", candidates, defaultScoring())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"git status", "Git Státus"}, cmdsOf(ranked))
}

func TestRankCommands_RegexExcludes(t *testing.T) {
	t.Parallel()

	candidates := []storage.Command{
		{Cmd: "git status"},
		{Cmd: "git statuz"},
		{Cmd: "git status -s"},
	}

	ranked, err := RankCommands(`^git st.*s$`, textmatch.ModeRegex, "/", candidates, defaultScoring())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"git status", "git status -s"}, cmdsOf(ranked))
}

func TestRankCommands_InvalidRegex(t *testing.T) {
	t.Parallel()

	_, err := RankCommands(`(unclosed`, textmatch.ModeRegex, "/", []storage.Command{{Cmd: "x"}}, defaultScoring())
	require.Error(t, err)
	assert.ErrorIs(t, err, textmatch.ErrInvalidPattern)
}

func TestRankCommands_PathRelations(t *testing.T) {
	t.Parallel()

	candidates := []storage.Command{
		{ID: "unrelated", Cmd: "a", UsageCount: 1, Usages: usedIn("/a/x", 1)},
		{ID: "descendant", Cmd: "b", UsageCount: 1, Usages: usedIn("/a/b/c/d", 1)},
		{ID: "ancestor", Cmd: "c", UsageCount: 1, Usages: usedIn("/a/b", 1)},
		{ID: "exact", Cmd: "d", UsageCount: 1, Usages: usedIn("/a/b/c", 1)},
		{ID: "sibling-prefix", Cmd: "e", UsageCount: 1, Usages: usedIn("/a/b/cc", 1)},
	}

	ranked, err := RankCommands("", textmatch.ModeAuto, "/a/b/c", candidates, defaultScoring())
	require.NoError(t, err)

	ids := make([]string, len(ranked))
	for i, r := range ranked {
		ids[i] = r.Command.ID
	}
	assert.Equal(t, []string{"exact", "ancestor", "descendant", "unrelated", "sibling-prefix"}, ids)
	assert.InDelta(t, 300.0+100.0, ranked[0].Score, 1e-9)
}

func TestRankCommands_NegationExcludes(t *testing.T) {
	t.Parallel()

	candidates := []storage.Command{
		{Cmd: "docker run test-image"},
		{Cmd: "docker ps"},
		{Cmd: "docker compose up", Description: "integration test stack"},
		{Cmd: "podman ps"},
	}

	for _, mode := range []textmatch.Mode{textmatch.ModeFuzzy, textmatch.ModeRelaxed, textmatch.ModeAuto} {
		ranked, err := RankCommands("docker !test", mode, "/", candidates, defaultScoring())
		require.NoError(t, err)
		assert.Equal(t, []string{"docker ps"}, cmdsOf(ranked), "mode %s", mode)
	}
}

func TestRankCommands_AutoPrefixTierBeatsUsage(t *testing.T) {
	t.Parallel()

	candidates := []storage.Command{
		{ID: "commit", Cmd: "git commit", UsageCount: 10},
		{ID: "checkout", Cmd: "git checkout", Alias: "gco", UsageCount: 1},
	}

	ranked, err := RankCommands("gco", textmatch.ModeAuto, "/", candidates, defaultScoring())
	require.NoError(t, err)
	require.Len(t, ranked, 2)

	assert.Equal(t, "checkout", ranked[0].Command.ID)
	assert.Equal(t, textmatch.TierPrefix, ranked[0].Match.Tier)
	assert.Equal(t, textmatch.TierFuzzy, ranked[1].Match.Tier)
	assert.Greater(t, ranked[0].Score, ranked[1].Score)
}

func TestRankCommands_EmptyQueryFallback(t *testing.T) {
	t.Parallel()

	candidates := []storage.Command{
		{ID: "low", Cmd: "ls", UsageCount: 1},
		{ID: "high", Cmd: "make build", UsageCount: 9},
		{ID: "here", Cmd: "make test", UsageCount: 1, Usages: usedIn("/repo", 1)},
	}

	for _, q := range []string{"", "   ", "\t\n"} {
		ranked, err := RankCommands(q, textmatch.ModeExact, "/repo", candidates, defaultScoring())
		require.NoError(t, err)
		require.Len(t, ranked, 3, "query %q", q)

		ids := []string{ranked[0].Command.ID, ranked[1].Command.ID, ranked[2].Command.ID}
		assert.Equal(t, []string{"here", "high", "low"}, ids)
		for _, r := range ranked {
			assert.Zero(t, r.Match.Score)
			for _, reason := range r.Reasons {
				assert.NotEqual(t, ReasonText, reason.Type)
			}
		}
	}
}

func TestRankCommands_ConfigScaling(t *testing.T) {
	t.Parallel()

	candidates := []storage.Command{
		{ID: "hi", Cmd: "a", UsageCount: 10},
		{ID: "lo", Cmd: "b", UsageCount: 1},
	}

	gap := func(cfg *config.ScoringConfig) float64 {
		ranked, err := RankCommands("", textmatch.ModeAuto, "/", candidates, cfg)
		require.NoError(t, err)
		require.Len(t, ranked, 2)
		return ranked[0].Score - ranked[len(ranked)-1].Score
	}

	base := defaultScoring()
	doubled := defaultScoring()
	doubled.Commands.Usage.Points *= 2

	assert.Greater(t, gap(doubled), gap(base))
	assert.InDelta(t, 2*gap(base), gap(doubled), 1e-9)
}

func TestRankCommands_TieBreaks(t *testing.T) {
	t.Parallel()

	cfg := defaultScoring()
	cfg.Commands.Usage.Points = 0

	ranked, err := RankCommands("", textmatch.ModeAuto, "/", []storage.Command{
		{ID: "first", Cmd: "a", UsageCount: 1},
		{ID: "busy", Cmd: "b", UsageCount: 5},
		{ID: "second", Cmd: "c", UsageCount: 1},
	}, cfg)
	require.NoError(t, err)

	ids := []string{ranked[0].Command.ID, ranked[1].Command.ID, ranked[2].Command.ID}
	assert.Equal(t, []string{"busy", "first", "second"}, ids)
}

func TestRankCommands_ZeroMaxGuards(t *testing.T) {
	t.Parallel()

	ranked, err := RankCommands("", textmatch.ModeAuto, "", []storage.Command{
		{Cmd: "a"}, {Cmd: "b"},
	}, defaultScoring())
	require.NoError(t, err)
	for _, r := range ranked {
		assert.Zero(t, r.Score)
	}
}

func TestRankCommands_Reasons(t *testing.T) {
	t.Parallel()

	ranked, err := RankCommands("status", textmatch.ModeFuzzy, "/repo", []storage.Command{
		{Cmd: "git status", UsageCount: 2, Usages: usedIn("/repo", 2)},
	}, defaultScoring())
	require.NoError(t, err)
	require.Len(t, ranked, 1)

	var sum float64
	types := make([]string, 0, 3)
	for _, r := range ranked[0].Reasons {
		sum += r.Contribution
		types = append(types, r.Type)
	}
	assert.Equal(t, []string{ReasonUsage, ReasonPath, ReasonText}, types)
	assert.InDelta(t, ranked[0].Score, sum, 1e-9)
	assert.InDelta(t, 100.0+300.0+600.0, ranked[0].Score, 1e-9, "a lone candidate tops every source")
}

func TestRankCommands_NilConfigUsesDefaults(t *testing.T) {
	t.Parallel()

	withNil, err := RankCommands("", textmatch.ModeAuto, "/", []storage.Command{{Cmd: "a", UsageCount: 1}}, nil)
	require.NoError(t, err)
	withDefault, err := RankCommands("", textmatch.ModeAuto, "/", []storage.Command{{Cmd: "a", UsageCount: 1}}, defaultScoring())
	require.NoError(t, err)
	assert.Equal(t, withDefault[0].Score, withNil[0].Score)
}

func BenchmarkRankCommands(b *testing.B) {
	candidates := make([]storage.Command, 5000)
	for i := range candidates {
		candidates[i] = storage.Command{
			ID:          fmt.Sprintf("cmd-%d", i),
			Cmd:         fmt.Sprintf("git command-%d --flag {{value}}", i),
			Description: "benchmark candidate #bench",
			UsageCount:  int64(i % 17),
			Usages:      usedIn(fmt.Sprintf("/home/user/project-%d", i%13), int64(i%5)),
		}
	}
	cfg := defaultScoring()

	b.ResetTimer()
	for range b.N {
		if _, err := RankCommands("gcf", textmatch.ModeAuto, "/home/user/project-3", candidates, cfg); err != nil {
			b.Fatal(err)
		}
	}
}
