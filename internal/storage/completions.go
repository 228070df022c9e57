package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/runger/cmdbook/internal/textmatch"
)

const completionColumns = `id, root_cmd, variable, provider, created_at_unix_ms, updated_at_unix_ms`

// UpsertCompletion stores a provider for (root command, variable), replacing
// the provider of an existing entry. c.ID is set to the stored row's id.
func (s *SQLiteStore) UpsertCompletion(ctx context.Context, c *Completion) error {
	if c == nil {
		return errors.New("completion cannot be nil")
	}
	if strings.TrimSpace(c.Variable) == "" {
		return errors.New("variable is required")
	}
	if strings.TrimSpace(c.Provider) == "" {
		return errors.New("provider is required")
	}

	if c.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate id: %w", err)
		}
		c.ID = id.String()
	}

	now := time.Now().UnixMilli()
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO variable_completion (
			id, root_cmd, flat_root_cmd, variable, flat_variable, provider,
			created_at_unix_ms, updated_at_unix_ms
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (flat_root_cmd, flat_variable) DO UPDATE SET
			provider = excluded.provider,
			updated_at_unix_ms = excluded.updated_at_unix_ms
		RETURNING `+completionColumns+`
	`,
		c.ID, c.RootCmd, textmatch.Fold(c.RootCmd),
		c.Variable, textmatch.Fold(c.Variable), c.Provider,
		now, now,
	)
	stored, err := scanCompletion(row)
	if err != nil {
		return fmt.Errorf("failed to store completion: %w", err)
	}
	*c = *stored
	return nil
}

// ListCompletions returns every completion, or only those for rootCmd when
// it is not empty.
func (s *SQLiteStore) ListCompletions(ctx context.Context, rootCmd string) ([]Completion, error) {
	query := `SELECT ` + completionColumns + ` FROM variable_completion`
	var args []any
	if rootCmd != "" {
		query += ` WHERE flat_root_cmd = ?`
		args = append(args, textmatch.Fold(rootCmd))
	}
	query += ` ORDER BY flat_root_cmd, flat_variable`
	return s.queryCompletions(ctx, query, args...)
}

// DeleteCompletion removes a completion by id.
func (s *SQLiteStore) DeleteCompletion(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM variable_completion WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete completion: %w", err)
	}
	return requireRow(result, ErrCompletionNotFound)
}

// GetCompletions returns the providers that apply to a variable known by
// flatNames. For each name a provider bound to rootCmd wins over a global
// one; results follow the order of flatNames.
func (s *SQLiteStore) GetCompletions(ctx context.Context, rootCmd string, flatNames []string) ([]Completion, error) {
	if len(flatNames) == 0 {
		return nil, nil
	}

	flatRoot := textmatch.Fold(rootCmd)
	args := []any{flatRoot}
	for _, n := range flatNames {
		args = append(args, n)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+completionColumns+`, flat_variable FROM variable_completion
		WHERE (flat_root_cmd = ? OR flat_root_cmd = '')
		  AND flat_variable IN (`+placeholders(len(flatNames))+`)
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query completions: %w", err)
	}
	defer rows.Close()

	best := make(map[string]Completion)
	for rows.Next() {
		var c Completion
		var created, updated int64
		var flatVar string
		if err := rows.Scan(&c.ID, &c.RootCmd, &c.Variable, &c.Provider, &created, &updated, &flatVar); err != nil {
			return nil, fmt.Errorf("failed to scan completion: %w", err)
		}
		c.CreatedAt = unixMs(created)
		c.UpdatedAt = unixMs(updated)
		if prev, ok := best[flatVar]; ok && !prev.IsGlobal() {
			continue
		}
		best[flatVar] = c
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating completions: %w", err)
	}

	var out []Completion
	for _, n := range flatNames {
		if c, ok := best[n]; ok {
			out = append(out, c)
			delete(best, n)
		}
	}
	return out, nil
}

func (s *SQLiteStore) queryCompletions(ctx context.Context, query string, args ...any) ([]Completion, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query completions: %w", err)
	}
	defer rows.Close()

	var out []Completion
	for rows.Next() {
		c, err := scanCompletion(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan completion: %w", err)
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func scanCompletion(row scanner) (*Completion, error) {
	var c Completion
	var created, updated int64
	if err := row.Scan(&c.ID, &c.RootCmd, &c.Variable, &c.Provider, &created, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCompletionNotFound
		}
		return nil, err
	}
	c.CreatedAt = unixMs(created)
	c.UpdatedAt = unixMs(updated)
	return &c, nil
}
