package textmatch

import (
	"strings"
	"unicode/utf8"

	"github.com/sahilm/fuzzy"
)

// exactScore rewards a contiguous hit by how much of the field it covers.
func exactScore(termLen, fieldLen int) float64 {
	if fieldLen == 0 {
		return 0
	}
	coverage := float64(termLen) / float64(fieldLen)
	if coverage > 1 {
		coverage = 1
	}
	return 0.5 + 0.5*coverage
}

// subsequenceScore matches term as a subsequence of field. The score is the
// coverage score of exactScore scaled by contiguity, term length over the
// width of the tightest matched window, so "gco" scores higher against
// "gcox" than against "g-c-o".
func subsequenceScore(term, field string) (float64, bool) {
	if term == "" {
		return 0, false
	}
	if len(term) > len(field) {
		return 0, false
	}
	matches := fuzzy.FindNoSort(term, []string{field})
	if len(matches) == 0 || len(matches[0].MatchedIndexes) == 0 {
		return 0, false
	}
	// MatchedIndexes are byte offsets of the first byte of each matched rune.
	idx := matches[0].MatchedIndexes
	last := idx[len(idx)-1]
	_, size := utf8.DecodeRuneInString(field[last:])
	end := last + size
	start := tightenWindow(term, field, end)
	span := end - start
	if span < len(term) {
		span = len(term)
	}
	contiguity := float64(len(term)) / float64(span)
	return contiguity * exactScore(len(term), len(field)), true
}

// tightenWindow walks backwards from end matching term in reverse, one
// rune at a time, and returns the byte offset of the shortest window ending
// at end that still holds term as a subsequence. The forward pass is greedy
// so its window may be wider than necessary.
func tightenWindow(term, field string, end int) int {
	rest := term
	for i := end; i > 0; {
		r, size := utf8.DecodeLastRuneInString(field[:i])
		i -= size
		want, wantSize := utf8.DecodeLastRuneInString(rest)
		if r != want {
			continue
		}
		rest = rest[:len(rest)-wantSize]
		if rest == "" {
			return i
		}
	}
	return 0
}

// containsWord reports whether term occurs in field bounded by non-word
// characters or the field edges.
func containsWord(field, term string) bool {
	if term == "" {
		return false
	}
	from := 0
	for {
		i := strings.Index(field[from:], term)
		if i < 0 {
			return false
		}
		i += from
		j := i + len(term)
		before := i == 0 || !isWordByte(field[i-1])
		after := j == len(field) || !isWordByte(field[j])
		if before && after {
			return true
		}
		from = i + 1
	}
}

// matchTerm applies an admitting term to a folded field.
func matchTerm(t Term, field string) (float64, bool) {
	switch t.Kind {
	case Subsequence:
		return subsequenceScore(t.Text, field)
	case Substring:
		if t.Text != "" && strings.Contains(field, t.Text) {
			return exactScore(len(t.Text), len(field)), true
		}
	case Word:
		if containsWord(field, t.Text) {
			return exactScore(len(t.Text), len(field)), true
		}
	case Prefix:
		if t.Text != "" && strings.HasPrefix(field, t.Text) {
			return exactScore(len(t.Text), len(field)), true
		}
	case Suffix:
		if t.Text != "" && strings.HasSuffix(field, t.Text) {
			return exactScore(len(t.Text), len(field)), true
		}
	}
	return 0, false
}
