package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/runger/cmdbook/internal/textmatch"
)

const commandColumns = `
	id, alias, cmd, description, tags_json, usage_count,
	created_at_unix_ms, updated_at_unix_ms
`

// CreateCommand creates a new command record. An empty ID is filled with a
// fresh time-ordered UUID.
func (s *SQLiteStore) CreateCommand(ctx context.Context, cmd *Command) error {
	if cmd == nil {
		return errors.New("command cannot be nil")
	}
	if strings.TrimSpace(cmd.Cmd) == "" {
		return errors.New("command is required")
	}

	if cmd.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate id: %w", err)
		}
		cmd.ID = id.String()
	}

	tags, err := encodeTags(cmd.Tags)
	if err != nil {
		return err
	}

	now := time.Now()
	if cmd.CreatedAt.IsZero() {
		cmd.CreatedAt = now
	}
	cmd.UpdatedAt = now

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO command (
			id, alias, flat_alias, cmd, flat_cmd, description, flat_description,
			tags_json, usage_count, created_at_unix_ms, updated_at_unix_ms
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		cmd.ID,
		cmd.Alias,
		textmatch.Fold(cmd.Alias),
		cmd.Cmd,
		textmatch.Fold(cmd.Cmd),
		cmd.Description,
		textmatch.Fold(cmd.Description),
		tags,
		cmd.UsageCount,
		cmd.CreatedAt.UnixMilli(),
		cmd.UpdatedAt.UnixMilli(),
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("command %q: %w", cmd.Cmd, ErrAlreadyExists)
		}
		return fmt.Errorf("failed to create command: %w", err)
	}
	return nil
}

// GetCommand returns a command with its path usages.
func (s *SQLiteStore) GetCommand(ctx context.Context, id string) (*Command, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+commandColumns+` FROM command WHERE id = ?`, id)
	cmd, err := scanCommand(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCommandNotFound
		}
		return nil, fmt.Errorf("failed to get command: %w", err)
	}

	cmds := []Command{*cmd}
	if err := s.attachUsages(ctx, cmds); err != nil {
		return nil, err
	}
	return &cmds[0], nil
}

// UpdateCommand rewrites the user-editable fields of a command. Usage
// counters are left untouched.
func (s *SQLiteStore) UpdateCommand(ctx context.Context, cmd *Command) error {
	if cmd == nil || cmd.ID == "" {
		return errors.New("command id is required")
	}
	if strings.TrimSpace(cmd.Cmd) == "" {
		return errors.New("command is required")
	}

	tags, err := encodeTags(cmd.Tags)
	if err != nil {
		return err
	}
	cmd.UpdatedAt = time.Now()

	result, err := s.db.ExecContext(ctx, `
		UPDATE command
		SET alias = ?, flat_alias = ?, cmd = ?, flat_cmd = ?,
		    description = ?, flat_description = ?, tags_json = ?,
		    updated_at_unix_ms = ?
		WHERE id = ?
	`,
		cmd.Alias, textmatch.Fold(cmd.Alias),
		cmd.Cmd, textmatch.Fold(cmd.Cmd),
		cmd.Description, textmatch.Fold(cmd.Description),
		tags, cmd.UpdatedAt.UnixMilli(), cmd.ID,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("command %q: %w", cmd.Cmd, ErrAlreadyExists)
		}
		return fmt.Errorf("failed to update command: %w", err)
	}
	return requireRow(result, ErrCommandNotFound)
}

// DeleteCommand removes a command and its usage history.
func (s *SQLiteStore) DeleteCommand(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM command WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete command: %w", err)
	}
	return requireRow(result, ErrCommandNotFound)
}

// FindByAlias returns commands whose alias equals alias after folding.
func (s *SQLiteStore) FindByAlias(ctx context.Context, alias string) ([]Command, error) {
	flat := textmatch.Fold(alias)
	if flat == "" {
		return nil, nil
	}
	return s.queryCommands(ctx, `
		SELECT `+commandColumns+` FROM command
		WHERE flat_alias = ?
		ORDER BY usage_count DESC, seq ASC
	`, flat)
}

// IncrementCommandUsage bumps the global counter and the counter for path.
func (s *SQLiteStore) IncrementCommandUsage(ctx context.Context, id, path string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `
			UPDATE command SET usage_count = usage_count + 1 WHERE id = ?
		`, id)
		if err != nil {
			return fmt.Errorf("failed to increment usage: %w", err)
		}
		if err := requireRow(result, ErrCommandNotFound); err != nil {
			return err
		}
		if path == "" {
			return nil
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO command_usage (command_id, path, usage_count)
			VALUES (?, ?, 1)
			ON CONFLICT (command_id, path) DO UPDATE SET usage_count = usage_count + 1
		`, id, path)
		if err != nil {
			return fmt.Errorf("failed to record path usage: %w", err)
		}
		return nil
	})
}

func (s *SQLiteStore) queryCommands(ctx context.Context, query string, args ...any) ([]Command, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query commands: %w", err)
	}
	defer rows.Close()

	var cmds []Command
	for rows.Next() {
		cmd, err := scanCommand(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan command: %w", err)
		}
		cmds = append(cmds, *cmd)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating commands: %w", err)
	}

	if err := s.attachUsages(ctx, cmds); err != nil {
		return nil, err
	}
	return cmds, nil
}

// attachUsages loads the path usages of cmds in one query.
func (s *SQLiteStore) attachUsages(ctx context.Context, cmds []Command) error {
	if len(cmds) == 0 {
		return nil
	}

	index := make(map[string]int, len(cmds))
	args := make([]any, 0, len(cmds))
	for i, c := range cmds {
		index[c.ID] = i
		args = append(args, c.ID)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT command_id, path, usage_count FROM command_usage
		WHERE command_id IN (`+placeholders(len(args))+`)
		ORDER BY command_id, path
	`, args...)
	if err != nil {
		return fmt.Errorf("failed to query command usage: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		var u PathUsage
		if err := rows.Scan(&id, &u.Path, &u.Count); err != nil {
			return fmt.Errorf("failed to scan command usage: %w", err)
		}
		if i, ok := index[id]; ok {
			cmds[i].Usages = append(cmds[i].Usages, u)
		}
	}
	return rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCommand(row scanner) (*Command, error) {
	var c Command
	var tags string
	var created, updated int64
	if err := row.Scan(&c.ID, &c.Alias, &c.Cmd, &c.Description, &tags, &c.UsageCount, &created, &updated); err != nil {
		return nil, err
	}
	if tags != "" {
		if err := json.Unmarshal([]byte(tags), &c.Tags); err != nil {
			return nil, fmt.Errorf("invalid tags for %s: %w", c.ID, err)
		}
	}
	c.CreatedAt = unixMs(created)
	c.UpdatedAt = unixMs(updated)
	return &c, nil
}

func encodeTags(tags []string) (string, error) {
	if len(tags) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("failed to encode tags: %w", err)
	}
	return string(b), nil
}

func requireRow(result sql.Result, notFound error) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return notFound
	}
	return nil
}
