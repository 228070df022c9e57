package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestNewSQLiteStore_CreatesDatabase(t *testing.T) {
	t.Parallel()

	dbPath := filepath.Join(t.TempDir(), "nested", "test.db")

	store, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	defer store.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file was not created")
	}
}

func TestNewSQLiteStore_EmptyPath(t *testing.T) {
	t.Parallel()

	if _, err := NewSQLiteStore(""); err == nil {
		t.Error("Expected error for empty path")
	}
}

func TestSQLiteStore_Migration_CreatesSchema(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	defer store.Close()

	tables := []string{
		"schema_meta", "command", "command_usage",
		"variable_value", "variable_value_usage", "variable_completion",
	}
	for _, table := range tables {
		_, err := store.DB().ExecContext(context.Background(), "SELECT 1 FROM "+table+" LIMIT 1")
		if err != nil {
			t.Errorf("Table %s does not exist: %v", table, err)
		}
	}

	var version int
	err := store.DB().QueryRowContext(context.Background(),
		"SELECT MAX(version) FROM schema_meta").Scan(&version)
	if err != nil {
		t.Fatalf("Failed to read schema version: %v", err)
	}
	if version != SchemaVersion {
		t.Errorf("schema version = %d, want %d", version, SchemaVersion)
	}
}

func TestSQLiteStore_Reopen_KeepsData(t *testing.T) {
	t.Parallel()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	ctx := context.Background()

	store, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	cmd := &Command{Cmd: "git status"}
	if err := store.CreateCommand(ctx, cmd); err != nil {
		t.Fatalf("CreateCommand() error = %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	store, err = NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer store.Close()

	got, err := store.GetCommand(ctx, cmd.ID)
	if err != nil {
		t.Fatalf("GetCommand() error = %v", err)
	}
	if got.Cmd != "git status" {
		t.Errorf("Cmd = %q, want git status", got.Cmd)
	}
}

func TestSQLiteStore_Pragmas(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	defer store.Close()

	pragmas := map[string]string{
		"journal_mode": "wal",
		"foreign_keys": "1",
	}
	for name, want := range pragmas {
		var got string
		if err := store.DB().QueryRowContext(context.Background(), "PRAGMA "+name).Scan(&got); err != nil {
			t.Fatalf("PRAGMA %s: %v", name, err)
		}
		if got != want {
			t.Errorf("PRAGMA %s = %q, want %q", name, got, want)
		}
	}
}

func TestSQLiteStore_Close(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	if err := store.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if err := store.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}

func TestPlaceholders(t *testing.T) {
	t.Parallel()

	tests := map[int]string{0: "", 1: "?", 3: "?, ?, ?"}
	for n, want := range tests {
		if got := placeholders(n); got != want {
			t.Errorf("placeholders(%d) = %q, want %q", n, got, want)
		}
	}
}

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	store, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	return store
}

func mustCreate(t *testing.T, store *SQLiteStore, cmd *Command) *Command {
	t.Helper()

	if err := store.CreateCommand(context.Background(), cmd); err != nil {
		t.Fatalf("CreateCommand(%q) error = %v", cmd.Cmd, err)
	}
	return cmd
}
