package cmd

import (
	"bytes"
	"context"
	"io"
	"os"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/runger/cmdbook/internal/config"
	"github.com/runger/cmdbook/internal/storage"
)

func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe() failed: %v", err)
	}
	os.Stdout = w

	outC := make(chan string)
	go func() {
		var buf bytes.Buffer
		_, _ = io.Copy(&buf, r)
		outC <- buf.String()
	}()

	fn()
	_ = w.Close()
	os.Stdout = old
	out := <-outC
	_ = r.Close()
	return out
}

// withTestHome points every cmdbook path at a fresh temporary directory.
func withTestHome(t *testing.T) *config.Paths {
	t.Helper()
	t.Setenv("CMDBOOK_HOME", t.TempDir())
	t.Setenv("NO_COLOR", "1")
	t.Setenv("CMDBOOK_SEARCH_MODE", "")
	t.Setenv("CMDBOOK_DEBUG", "")
	t.Setenv("CMDBOOK_LOG_LEVEL", "")
	t.Setenv("CMDBOOK_LOG_FILE", "")
	return config.DefaultPaths()
}

// runCLI executes the root command with args and returns its stdout.
// Flags are reset afterwards since cobra binds them to package globals.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Cleanup(func() { resetFlags(rootCmd) })

	var err error
	out := captureStdout(t, func() {
		rootCmd.SetArgs(args)
		err = rootCmd.Execute()
	})
	return out, err
}

func mustRunCLI(t *testing.T, args ...string) string {
	t.Helper()
	out, err := runCLI(t, args...)
	if err != nil {
		t.Fatalf("cmdbook %v: %v", args, err)
	}
	resetFlags(rootCmd)
	return out
}

func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// openTestStore opens the database under the test home for assertions.
func openTestStore(t *testing.T, paths *config.Paths) *storage.SQLiteStore {
	t.Helper()
	store, err := storage.NewSQLiteStore(paths.DatabaseFile())
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

// createCommand bookmarks c directly in the store and returns its id.
func createCommand(t *testing.T, paths *config.Paths, c storage.Command) string {
	t.Helper()
	store, err := storage.NewSQLiteStore(paths.DatabaseFile())
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	defer store.Close()
	if err := store.CreateCommand(context.Background(), &c); err != nil {
		t.Fatalf("CreateCommand(%q) error = %v", c.Cmd, err)
	}
	return c.ID
}
