package textmatch

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustMatcher(t *testing.T, mode Mode, query string) *Matcher {
	t.Helper()
	m, err := New(mode, query, DefaultWeights())
	require.NoError(t, err)
	return m
}

func cmd(text string) Candidate {
	return Candidate{Command: text}
}

func TestMatcher_EmptyQueryAdmitsEverything(t *testing.T) {
	t.Parallel()

	for _, mode := range Modes() {
		for _, q := range []string{"", "   ", "\t"} {
			m := mustMatcher(t, mode, q)
			assert.True(t, m.Empty())
			res, ok := m.Match(cmd("anything at all"))
			assert.True(t, ok, "mode %s query %q", mode, q)
			assert.Zero(t, res.Weighted())
		}
	}
}

func TestMatcher_Exact(t *testing.T) {
	t.Parallel()

	m := mustMatcher(t, ModeExact, "git status")

	_, ok := m.Match(cmd("Git  Status"))
	assert.True(t, ok, "case and whitespace are folded")

	_, ok = m.Match(cmd("git statu"))
	assert.False(t, ok)

	_, ok = m.Match(cmd("git status "))
	assert.True(t, ok)

	_, ok = m.Match(cmd("git statuses"))
	assert.False(t, ok, "one extra character excludes")

	res, ok := m.Match(Candidate{Command: "git status --short", Alias: "Git Status"})
	assert.True(t, ok, "alias equality counts")
	assert.Equal(t, 1.0, res.Score)

	accent := mustMatcher(t, ModeExact, "cafe")
	_, ok = accent.Match(cmd("café"))
	assert.True(t, ok)
}

func TestMatcher_Regex(t *testing.T) {
	t.Parallel()

	m := mustMatcher(t, ModeRegex, `^git (push|pull)`)

	res, ok := m.Match(cmd("GIT push origin main"))
	assert.True(t, ok)
	assert.Equal(t, 1.0, res.Score)

	_, ok = m.Match(cmd("git fetch"))
	assert.False(t, ok)

	res, ok = m.Match(Candidate{Command: "ls -la", Alias: "git pull"})
	assert.True(t, ok, "alias is searched")
	assert.Equal(t, 1.0, res.Score)

	_, ok = m.Match(Candidate{Command: "ls", Description: "git pull wrapper"})
	assert.False(t, ok, "description is not searched")
}

func TestMatcher_RegexInvalidPattern(t *testing.T) {
	t.Parallel()

	_, err := New(ModeRegex, "git (", DefaultWeights())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidPattern))

	var perr *PatternError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "git (", perr.Pattern)

	_, _, err = Match(ModeRegex, "[a-", cmd("x"), DefaultWeights())
	assert.ErrorIs(t, err, ErrInvalidPattern)

	_, err = New(ModeFuzzy, "git (", DefaultWeights())
	assert.NoError(t, err, "only regex mode can fail")
}

func TestMatcher_FuzzyNegation(t *testing.T) {
	t.Parallel()

	m := mustMatcher(t, ModeFuzzy, "docker !test")

	tests := []struct {
		command string
		want    bool
	}{
		{"docker run -it alpine", true},
		{"docker test run", false},
		{"docker run --name integration-testing", false},
		{"podman run", false},
	}

	for _, tt := range tests {
		_, ok := m.Match(cmd(tt.command))
		assert.Equal(t, tt.want, ok, tt.command)
	}
}

func TestMatcher_FuzzyTermKinds(t *testing.T) {
	t.Parallel()

	tests := []struct {
		query   string
		command string
		want    bool
	}{
		{"gst", "git status", true},
		{"gts", "git status", true},
		{"sgt", "git status", false},
		{"'stat", "git status", true},
		{"'gst", "git status", false},
		{"'run'", "docker run -it", true},
		{"'run'", "docker running", false},
		{"^git", "git status", true},
		{"^git", "legit status", false},
		{"status$", "git status", true},
		{"status$", "git status -s", false},
		{"!^git", "legit", true},
		{"!^git", "git log", false},
		{"!log$", "git log", false},
		{"!log$", "git log -p", true},
	}

	for _, tt := range tests {
		m := mustMatcher(t, ModeFuzzy, tt.query)
		_, ok := m.Match(cmd(tt.command))
		assert.Equal(t, tt.want, ok, "%q vs %q", tt.query, tt.command)
	}
}

func TestMatcher_FuzzyOrGroups(t *testing.T) {
	t.Parallel()

	m := mustMatcher(t, ModeFuzzy, "kubectl | helm install")

	_, ok := m.Match(cmd("helm install chart"))
	assert.True(t, ok)

	_, ok = m.Match(cmd("kubectl install plugin"))
	assert.True(t, ok)

	_, ok = m.Match(cmd("kubectl apply -f x.yaml"))
	assert.False(t, ok, "second clause must match")

	_, ok = m.Match(cmd("docker install"))
	assert.False(t, ok, "first clause must match")
}

func TestMatcher_FuzzyTransliterates(t *testing.T) {
	t.Parallel()

	m := mustMatcher(t, ModeFuzzy, "cafe")
	res, ok := m.Match(cmd("echo café"))
	require.True(t, ok)
	assert.Greater(t, res.Score, 0.0)

	m = mustMatcher(t, ModeFuzzy, "CRÈME")
	_, ok = m.Match(cmd("brew creme"))
	assert.True(t, ok)
}

func TestMatcher_FuzzyContiguityScoresHigher(t *testing.T) {
	t.Parallel()

	m := mustMatcher(t, ModeFuzzy, "chk")
	tight, ok := m.Match(cmd("chkconfig list"))
	require.True(t, ok)
	loose, ok := m.Match(cmd("cat hosts | wc -k"))
	require.True(t, ok)
	assert.Greater(t, tight.Score, loose.Score)
}

func TestMatcher_FuzzyFieldWeights(t *testing.T) {
	t.Parallel()

	m := mustMatcher(t, ModeFuzzy, "'deploy")

	inCommand, ok := m.Match(Candidate{Command: "deploy", Description: "ship it"})
	require.True(t, ok)
	inDescription, ok := m.Match(Candidate{Command: "ship it", Description: "deploy"})
	require.True(t, ok)
	both, ok := m.Match(Candidate{Command: "deploy", Description: "deploy"})
	require.True(t, ok)

	assert.InDelta(t, 2.0/3.0, inCommand.Score, 1e-9)
	assert.InDelta(t, 1.0/3.0, inDescription.Score, 1e-9)
	assert.InDelta(t, 1.0, both.Score, 1e-9)

	w := DefaultWeights()
	w.Command, w.Description = 0, 0
	zero, err := New(ModeFuzzy, "'deploy", w)
	require.NoError(t, err)
	res, ok := zero.Match(cmd("deploy"))
	assert.True(t, ok, "zero weights still admit")
	assert.Zero(t, res.Score)
}

func TestMatcher_Relaxed(t *testing.T) {
	t.Parallel()

	m := mustMatcher(t, ModeRelaxed, "docker kubectl")

	one, ok := m.Match(cmd("docker ps"))
	require.True(t, ok)
	both, ok := m.Match(cmd("docker ps; kubectl get pods"))
	require.True(t, ok)
	assert.Greater(t, both.Score, one.Score, "higher coverage scores higher")

	_, ok = m.Match(cmd("ls -la"))
	assert.False(t, ok)

	neg := mustMatcher(t, ModeRelaxed, "docker !ps")
	_, ok = neg.Match(cmd("docker ps"))
	assert.False(t, ok, "negations still exclude")
	_, ok = neg.Match(cmd("docker images"))
	assert.True(t, ok)
}

func TestMatcher_AutoTiers(t *testing.T) {
	t.Parallel()

	w := DefaultWeights()
	m := mustMatcher(t, ModeAuto, "gco")

	checkout, ok := m.Match(Candidate{Command: "git checkout {{branch}}", Alias: "gco"})
	require.True(t, ok)
	assert.Equal(t, TierPrefix, checkout.Tier)
	assert.Equal(t, 1.0, checkout.Score, "exact alias")
	assert.Equal(t, w.Prefix, checkout.Boost)

	commit, ok := m.Match(cmd("git commit"))
	require.True(t, ok)
	assert.Equal(t, TierFuzzy, commit.Tier)
	assert.Equal(t, w.Fuzzy, commit.Boost)
	assert.Greater(t, checkout.Weighted(), commit.Weighted())

	relaxed := mustMatcher(t, ModeAuto, "docker zzz")
	res, ok := relaxed.Match(cmd("docker ps"))
	require.True(t, ok)
	assert.Equal(t, TierRelaxed, res.Tier)
	assert.Equal(t, w.Relaxed*w.Root, res.Boost, "first term starts the command")

	_, ok = relaxed.Match(cmd("ls"))
	assert.False(t, ok)
}

func TestMatcher_AutoRootBoost(t *testing.T) {
	t.Parallel()

	w := DefaultWeights()
	m := mustMatcher(t, ModeAuto, "git st")

	res, ok := m.Match(cmd("git status"))
	require.True(t, ok)
	assert.Equal(t, TierPrefix, res.Tier)
	assert.Equal(t, w.Prefix*w.Root, res.Boost)

	res, ok = m.Match(cmd("legit status"))
	require.True(t, ok)
	assert.Equal(t, TierFuzzy, res.Tier)
	assert.Equal(t, w.Fuzzy, res.Boost, "no root boost")
}

func TestMatcher_AutoKeepsNegations(t *testing.T) {
	t.Parallel()

	m := mustMatcher(t, ModeAuto, "docker !test")
	_, ok := m.Match(cmd("docker test"))
	assert.False(t, ok)
}

func TestParseMode(t *testing.T) {
	t.Parallel()

	for _, mode := range Modes() {
		got, err := ParseMode(mode.String())
		require.NoError(t, err)
		assert.Equal(t, mode, got)
	}

	got, err := ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, ModeAuto, got)

	_, err = ParseMode("semantic")
	assert.Error(t, err)

	assert.Equal(t, ModeFuzzy, ModeAuto.Next())
	assert.Equal(t, ModeAuto, ModeRelaxed.Next())
}
