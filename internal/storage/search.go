package storage

import (
	"context"
	"regexp"
	"strings"

	"github.com/runger/cmdbook/internal/textmatch"
)

// GetCommandsForSearch returns candidate commands for a query, most used
// first. The WHERE clause is a cheap superset of what the text matcher will
// admit: exact and fuzzy queries narrow by folded columns, regex queries by
// their literal prefix, and auto or relaxed queries are not narrowed at all.
// Tags, when given, must all be present on a command.
//
// Limit only applies when the text filter narrowed the query, so an
// unfiltered search never loses rows the matcher would admit.
func (s *SQLiteStore) GetCommandsForSearch(ctx context.Context, q SearchQuery) ([]Command, error) {
	textWhere, args := searchFilter(q.Mode, q.Query)

	var conds []string
	if textWhere != "" {
		conds = append(conds, textWhere)
	}
	if tagWhere, tagArgs := tagFilter(q.Tags); tagWhere != "" {
		conds = append(conds, tagWhere)
		args = append(args, tagArgs...)
	}

	query := `SELECT ` + commandColumns + ` FROM command`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY usage_count DESC, seq ASC`
	if q.Limit > 0 && textWhere != "" {
		query += ` LIMIT ?`
		args = append(args, q.Limit)
	}

	return s.queryCommands(ctx, query, args...)
}

// tagFilter requires every tag to appear in tags_json, ignoring case.
func tagFilter(tags []string) (string, []any) {
	var args []any
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(t), "#"))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		args = append(args, t)
	}
	if len(args) == 0 {
		return "", nil
	}

	where := `(SELECT COUNT(DISTINCT lower(j.value)) FROM json_each(command.tags_json) j
		WHERE lower(j.value) IN (` + placeholders(len(args)) + `)) = ?`
	return where, append(args, len(args))
}

// searchFilter builds the pre-filter for a query. An empty clause means
// every row is a candidate.
func searchFilter(mode textmatch.Mode, query string) (string, []any) {
	if strings.TrimSpace(query) == "" {
		return "", nil
	}

	switch mode {
	case textmatch.ModeExact:
		flat := textmatch.Fold(query)
		return `(flat_cmd = ? OR flat_alias = ?)`, []any{flat, flat}

	case textmatch.ModeRegex:
		re, err := regexp.Compile(query)
		if err != nil {
			// The matcher reports the invalid pattern.
			return "", nil
		}
		prefix, _ := re.LiteralPrefix()
		flat := textmatch.Fold(prefix)
		if flat == "" {
			return "", nil
		}
		like := "%" + escapeLike(flat) + "%"
		return `(flat_cmd LIKE ? ESCAPE '\' OR flat_alias LIKE ? ESCAPE '\')`, []any{like, like}

	case textmatch.ModeFuzzy:
		var clauses []string
		var args []any
		for _, c := range textmatch.ParseQuery(query).Clauses {
			if len(c) != 1 || c[0].Negated() {
				continue
			}
			like := likePattern(c[0])
			if like == "" {
				continue
			}
			clauses = append(clauses, `(flat_cmd LIKE ? ESCAPE '\' OR flat_description LIKE ? ESCAPE '\')`)
			args = append(args, like, like)
		}
		return strings.Join(clauses, " AND "), args
	}

	return "", nil
}

// likePattern translates a single admitting term into a LIKE pattern that
// every field matching the term also matches.
func likePattern(t textmatch.Term) string {
	if t.Text == "" {
		return ""
	}
	switch t.Kind {
	case textmatch.Subsequence:
		var b strings.Builder
		b.WriteByte('%')
		for _, r := range t.Text {
			b.WriteString(escapeLike(string(r)))
			b.WriteByte('%')
		}
		return b.String()
	case textmatch.Prefix:
		return escapeLike(t.Text) + "%"
	case textmatch.Suffix:
		return "%" + escapeLike(t.Text)
	default:
		return "%" + escapeLike(t.Text) + "%"
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
