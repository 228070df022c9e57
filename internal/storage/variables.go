package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/runger/cmdbook/internal/textmatch"
)

// GetVariableValues returns the pooled values of a variable. Values stored
// under any of flatNames are merged by value, keeping the order in which
// each value was first stored.
func (s *SQLiteStore) GetVariableValues(ctx context.Context, rootCmd string, flatNames []string) ([]VariableValue, error) {
	if len(flatNames) == 0 {
		return nil, nil
	}

	args := []any{textmatch.Fold(rootCmd)}
	for _, n := range flatNames {
		args = append(args, n)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT v.id, v.value, u.path, u.context_json, u.usage_count
		FROM variable_value v
		LEFT JOIN variable_value_usage u ON u.value_id = v.id
		WHERE v.flat_root_cmd = ? AND v.flat_variable IN (`+placeholders(len(flatNames))+`)
		ORDER BY v.id, u.path, u.context_json
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query variable values: %w", err)
	}
	defer rows.Close()

	var values []VariableValue
	index := make(map[string]int)
	for rows.Next() {
		var id int64
		var value string
		var path, ctxJSON sql.NullString
		var count sql.NullInt64
		if err := rows.Scan(&id, &value, &path, &ctxJSON, &count); err != nil {
			return nil, fmt.Errorf("failed to scan variable value: %w", err)
		}

		i, ok := index[value]
		if !ok {
			i = len(values)
			index[value] = i
			values = append(values, VariableValue{ID: id, Value: value})
		}
		if !path.Valid {
			continue
		}

		u := ValueUsage{Path: path.String, Count: count.Int64}
		if ctxJSON.String != "" && ctxJSON.String != "{}" {
			if err := json.Unmarshal([]byte(ctxJSON.String), &u.Context); err != nil {
				return nil, fmt.Errorf("invalid context for value %d: %w", id, err)
			}
		}
		values[i].Usages = append(values[i].Usages, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating variable values: %w", err)
	}
	return values, nil
}

// RecordVariableValue stores a value in its pool and counts one use of it
// in use.Path with use.Context. Context encoding is key-sorted so equal
// contexts share a usage row.
func (s *SQLiteStore) RecordVariableValue(ctx context.Context, use VariableUse) error {
	if use.FlatName == "" {
		return errors.New("variable name is required")
	}

	ctxJSON := "{}"
	if len(use.Context) > 0 {
		b, err := json.Marshal(use.Context)
		if err != nil {
			return fmt.Errorf("failed to encode context: %w", err)
		}
		ctxJSON = string(b)
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		var id int64
		err := tx.QueryRowContext(ctx, `
			INSERT INTO variable_value (flat_root_cmd, flat_variable, value)
			VALUES (?, ?, ?)
			ON CONFLICT (flat_root_cmd, flat_variable, value) DO UPDATE SET value = excluded.value
			RETURNING id
		`, textmatch.Fold(use.RootCmd), use.FlatName, use.Value).Scan(&id)
		if err != nil {
			return fmt.Errorf("failed to store variable value: %w", err)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO variable_value_usage (value_id, path, context_json, usage_count)
			VALUES (?, ?, ?, 1)
			ON CONFLICT (value_id, path, context_json) DO UPDATE SET usage_count = usage_count + 1
		`, id, use.Path, ctxJSON)
		if err != nil {
			return fmt.Errorf("failed to record variable usage: %w", err)
		}
		return nil
	})
}
