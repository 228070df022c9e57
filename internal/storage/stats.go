package storage

import (
	"context"
	"fmt"
)

// Stats summarizes the contents of the store.
type Stats struct {
	Commands    int64
	Uses        int64
	Values      int64
	Completions int64
}

// Stats counts stored commands, recorded command uses, variable values and
// completions.
func (s *SQLiteStore) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	err := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM command),
			(SELECT COALESCE(SUM(usage_count), 0) FROM command),
			(SELECT COUNT(*) FROM variable_value),
			(SELECT COUNT(*) FROM variable_completion)
	`).Scan(&st.Commands, &st.Uses, &st.Values, &st.Completions)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to count rows: %w", err)
	}
	return st, nil
}
