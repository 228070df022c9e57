package storage

import (
	"context"
	"testing"
)

func TestSQLiteStore_Stats(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	defer store.Close()
	ctx := context.Background()

	st, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if st != (Stats{}) {
		t.Errorf("Stats() on empty store = %+v, want zero", st)
	}

	a := mustCreate(t, store, &Command{Cmd: "git status"})
	mustCreate(t, store, &Command{Cmd: "git checkout {{branch}}"})
	for range 3 {
		if err := store.IncrementCommandUsage(ctx, a.ID, "/repo"); err != nil {
			t.Fatalf("IncrementCommandUsage() error = %v", err)
		}
	}
	if err := store.RecordVariableValue(ctx, VariableUse{
		RootCmd: "git", FlatName: "branch", Value: "main", Path: "/repo",
	}); err != nil {
		t.Fatalf("RecordVariableValue() error = %v", err)
	}
	if err := store.UpsertCompletion(ctx, &Completion{Variable: "branch", Provider: "git branch"}); err != nil {
		t.Fatalf("UpsertCompletion() error = %v", err)
	}

	st, err = store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	want := Stats{Commands: 2, Uses: 3, Values: 1, Completions: 1}
	if st != want {
		t.Errorf("Stats() = %+v, want %+v", st, want)
	}
}
