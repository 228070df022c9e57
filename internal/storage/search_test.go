package storage

import (
	"context"
	"slices"
	"testing"

	"github.com/runger/cmdbook/internal/textmatch"
)

func seedSearch(t *testing.T, store *SQLiteStore) {
	t.Helper()

	for _, c := range []*Command{
		{Cmd: "git checkout main", Description: "switch branch"},
		{Cmd: "git commit -m {{message}}", Description: "commit staged"},
		{Alias: "gco", Cmd: "git checkout -b {{branch}}", Description: "new branch"},
		{Cmd: "docker compose up", Description: "start the café stack"},
		{Cmd: "echo 100%_done", Description: "literal wildcards"},
	} {
		mustCreate(t, store, c)
	}
}

func searchCmds(t *testing.T, store *SQLiteStore, mode textmatch.Mode, query string) []string {
	t.Helper()

	got, err := store.GetCommandsForSearch(context.Background(), SearchQuery{Mode: mode, Query: query})
	if err != nil {
		t.Fatalf("GetCommandsForSearch(%s, %q) error = %v", mode, query, err)
	}
	out := make([]string, 0, len(got))
	for _, c := range got {
		out = append(out, c.Cmd)
	}
	return out
}

func TestGetCommandsForSearch_Filters(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	defer store.Close()
	seedSearch(t, store)

	tests := []struct {
		name  string
		mode  textmatch.Mode
		query string
		want  int
	}{
		{name: "empty query returns all", mode: textmatch.ModeFuzzy, query: "  ", want: 5},
		{name: "auto is not narrowed", mode: textmatch.ModeAuto, query: "zzz", want: 5},
		{name: "relaxed is not narrowed", mode: textmatch.ModeRelaxed, query: "zzz", want: 5},
		{name: "exact command", mode: textmatch.ModeExact, query: "GIT checkout main", want: 1},
		{name: "exact alias", mode: textmatch.ModeExact, query: "gco", want: 1},
		{name: "fuzzy subsequence", mode: textmatch.ModeFuzzy, query: "gco", want: 3},
		{name: "fuzzy substring", mode: textmatch.ModeFuzzy, query: "'checkout", want: 2},
		{name: "fuzzy prefix", mode: textmatch.ModeFuzzy, query: "^docker", want: 1},
		{name: "fuzzy suffix", mode: textmatch.ModeFuzzy, query: "branch$", want: 2},
		{name: "fuzzy folds accents", mode: textmatch.ModeFuzzy, query: "'CAFE", want: 1},
		{name: "fuzzy negation not narrowed", mode: textmatch.ModeFuzzy, query: "!git", want: 5},
		{name: "fuzzy or group not narrowed", mode: textmatch.ModeFuzzy, query: "zzz | yyy", want: 5},
		{name: "fuzzy escapes wildcards", mode: textmatch.ModeFuzzy, query: "'100%_", want: 1},
		{name: "regex literal prefix", mode: textmatch.ModeRegex, query: `commit\s`, want: 1},
		{name: "regex literal in alias", mode: textmatch.ModeRegex, query: `gco`, want: 1},
		{name: "regex ignores descriptions", mode: textmatch.ModeRegex, query: `wildcards`, want: 0},
		{name: "regex without literal", mode: textmatch.ModeRegex, query: `.*`, want: 5},
		{name: "invalid regex is not narrowed", mode: textmatch.ModeRegex, query: `(`, want: 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := searchCmds(t, store, tt.mode, tt.query)
			if len(got) != tt.want {
				t.Errorf("got %d candidates %v, want %d", len(got), got, tt.want)
			}
		})
	}
}

func TestGetCommandsForSearch_OrderAndLimit(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	defer store.Close()
	ctx := context.Background()

	a := mustCreate(t, store, &Command{Cmd: "make a"})
	b := mustCreate(t, store, &Command{Cmd: "make b"})
	mustCreate(t, store, &Command{Cmd: "make c"})
	for range 2 {
		if err := store.IncrementCommandUsage(ctx, b.ID, "/x"); err != nil {
			t.Fatal(err)
		}
	}

	got, err := store.GetCommandsForSearch(ctx, SearchQuery{Mode: textmatch.ModeFuzzy, Query: "'make", Limit: 2})
	if err != nil {
		t.Fatalf("GetCommandsForSearch() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d commands, want 2", len(got))
	}
	if got[0].ID != b.ID || got[1].ID != a.ID {
		t.Errorf("order = [%s %s], want [make b, make a]", got[0].Cmd, got[1].Cmd)
	}
	if len(got[0].Usages) != 1 || got[0].Usages[0].Count != 2 {
		t.Errorf("Usages = %v, want one /x usage with count 2", got[0].Usages)
	}
}

func TestGetCommandsForSearch_UnfilteredIgnoresLimit(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	defer store.Close()
	ctx := context.Background()

	for _, c := range []string{"git status", "git log", "kubectl get pods"} {
		mustCreate(t, store, &Command{Cmd: c})
	}

	for _, mode := range []textmatch.Mode{textmatch.ModeAuto, textmatch.ModeRelaxed} {
		got, err := store.GetCommandsForSearch(ctx, SearchQuery{Mode: mode, Query: "kubectl", Limit: 2})
		if err != nil {
			t.Fatalf("GetCommandsForSearch(%s) error = %v", mode, err)
		}
		if len(got) != 3 {
			t.Errorf("%s: got %d commands, want all 3", mode, len(got))
		}
	}
}

func TestGetCommandsForSearch_Tags(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	defer store.Close()

	mustCreate(t, store, &Command{Cmd: "git status", Tags: []string{"git", "Daily"}})
	mustCreate(t, store, &Command{Cmd: "git push", Tags: []string{"git"}})
	mustCreate(t, store, &Command{Cmd: "docker ps", Tags: []string{"docker", "daily"}})
	mustCreate(t, store, &Command{Cmd: "ls"})

	tests := []struct {
		name string
		mode textmatch.Mode
		q    string
		tags []string
		want []string
	}{
		{name: "single tag", mode: textmatch.ModeAuto, tags: []string{"git"}, want: []string{"git status", "git push"}},
		{name: "all tags required", mode: textmatch.ModeAuto, tags: []string{"git", "daily"}, want: []string{"git status"}},
		{name: "case and hash ignored", mode: textmatch.ModeAuto, tags: []string{"#DAILY"}, want: []string{"git status", "docker ps"}},
		{name: "duplicates collapse", mode: textmatch.ModeAuto, tags: []string{"git", "GIT"}, want: []string{"git status", "git push"}},
		{name: "unknown tag", mode: textmatch.ModeAuto, tags: []string{"k8s"}, want: nil},
		{name: "combined with text filter", mode: textmatch.ModeFuzzy, q: "'docker", tags: []string{"daily"}, want: []string{"docker ps"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.GetCommandsForSearch(context.Background(), SearchQuery{Mode: tt.mode, Query: tt.q, Tags: tt.tags})
			if err != nil {
				t.Fatalf("GetCommandsForSearch() error = %v", err)
			}
			var cmds []string
			for _, c := range got {
				cmds = append(cmds, c.Cmd)
			}
			if !slices.Equal(cmds, tt.want) {
				t.Errorf("got %v, want %v", cmds, tt.want)
			}
		})
	}
}

func TestLikePattern(t *testing.T) {
	t.Parallel()

	tests := []struct {
		term textmatch.Term
		want string
	}{
		{textmatch.Term{Kind: textmatch.Subsequence, Text: "gco"}, "%g%c%o%"},
		{textmatch.Term{Kind: textmatch.Substring, Text: "a_b"}, `%a\_b%`},
		{textmatch.Term{Kind: textmatch.Word, Text: "git"}, "%git%"},
		{textmatch.Term{Kind: textmatch.Prefix, Text: "git"}, "git%"},
		{textmatch.Term{Kind: textmatch.Suffix, Text: "50%"}, `%50\%`},
		{textmatch.Term{Kind: textmatch.Prefix, Text: ""}, ""},
	}
	for _, tt := range tests {
		if got := likePattern(tt.term); got != tt.want {
			t.Errorf("likePattern(%v) = %q, want %q", tt.term, got, tt.want)
		}
	}
}
