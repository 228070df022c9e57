// Package storage provides SQLite-based persistent storage for cmdbook.
// It holds bookmarked commands with their per-directory usage, the values
// chosen for template variables, and dynamic completion providers.
package storage

import (
	"context"
	"time"

	"github.com/runger/cmdbook/internal/textmatch"
)

// Store defines the interface for all storage operations.
type Store interface {
	// Commands
	CreateCommand(ctx context.Context, c *Command) error
	GetCommand(ctx context.Context, id string) (*Command, error)
	UpdateCommand(ctx context.Context, c *Command) error
	DeleteCommand(ctx context.Context, id string) error
	FindByAlias(ctx context.Context, alias string) ([]Command, error)
	GetCommandsForSearch(ctx context.Context, q SearchQuery) ([]Command, error)
	IncrementCommandUsage(ctx context.Context, id, path string) error

	// Variables
	GetVariableValues(ctx context.Context, rootCmd string, flatNames []string) ([]VariableValue, error)
	RecordVariableValue(ctx context.Context, use VariableUse) error

	// Completions
	UpsertCompletion(ctx context.Context, c *Completion) error
	ListCompletions(ctx context.Context, rootCmd string) ([]Completion, error)
	DeleteCompletion(ctx context.Context, id string) error
	GetCompletions(ctx context.Context, rootCmd string, flatNames []string) ([]Completion, error)

	// Lifecycle
	Close() error
}

// Command is a bookmarked command template.
type Command struct {
	ID          string
	Alias       string
	Cmd         string
	Description string
	Tags        []string
	UsageCount  int64
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// Usages lists where the command has been run. It is filled by reads
	// and ignored by writes.
	Usages []PathUsage
}

// PathUsage counts uses of a command or value in one directory.
type PathUsage struct {
	Path  string
	Count int64
}

// SearchQuery selects candidate commands for ranking. The storage layer
// only pre-filters; the text matcher has the final word.
type SearchQuery struct {
	Mode  textmatch.Mode
	Query string
	// Tags restricts the candidates to commands carrying all of them.
	Tags []string
	// Limit caps the rows of a narrowed query; 0 means no cap. Queries the
	// text filter cannot narrow are never capped.
	Limit int
}

// VariableValue is one stored value of a variable pool with every usage
// record that produced it.
type VariableValue struct {
	ID     int64
	Value  string
	Usages []ValueUsage
}

// TotalUsage sums the usage counts across records.
func (v VariableValue) TotalUsage() int64 {
	var n int64
	for _, u := range v.Usages {
		n += u.Count
	}
	return n
}

// ValueUsage records that a value was used in Path alongside the other
// variable values in Context.
type ValueUsage struct {
	Path    string
	Context map[string]string
	Count   int64
}

// VariableUse describes one confirmed use of a variable value.
type VariableUse struct {
	RootCmd string
	// FlatName is the pool key the value is stored under.
	FlatName string
	Value    string
	Path     string
	// Context maps the flat names of other filled variables to their values.
	Context map[string]string
}

// Completion is a shell command whose output lines are candidate values for
// a variable. An empty RootCmd makes it apply to every command.
type Completion struct {
	ID        string
	RootCmd   string
	Variable  string
	Provider  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsGlobal reports whether the completion applies to every root command.
func (c Completion) IsGlobal() bool {
	return c.RootCmd == ""
}
