package textmatch

import "strings"

// Kind is the matching rule a single query term applies.
type Kind int

const (
	// Subsequence requires the term's characters in order, gaps allowed.
	Subsequence Kind = iota
	// Substring requires the term verbatim ('term).
	Substring
	// Word requires the term bounded by non-word characters ('term').
	Word
	// Prefix requires the field to start with the term (^term).
	Prefix
	// Suffix requires the field to end with the term (term$).
	Suffix
	// NotSubstring excludes fields containing the term (!term).
	NotSubstring
	// NotPrefix excludes fields starting with the term (!^term).
	NotPrefix
	// NotSuffix excludes fields ending with the term (!term$).
	NotSuffix
)

func (k Kind) String() string {
	switch k {
	case Subsequence:
		return "subsequence"
	case Substring:
		return "substring"
	case Word:
		return "word"
	case Prefix:
		return "prefix"
	case Suffix:
		return "suffix"
	case NotSubstring:
		return "not-substring"
	case NotPrefix:
		return "not-prefix"
	case NotSuffix:
		return "not-suffix"
	default:
		return "unknown"
	}
}

// Term is one typed token of a fuzzy query. Text is already folded.
type Term struct {
	Kind Kind
	Text string
}

// Negated reports whether the term excludes rather than admits.
func (t Term) Negated() bool {
	return t.Kind >= NotSubstring
}

// positive returns the admitting form of a negated term.
func (t Term) positive() Term {
	switch t.Kind {
	case NotSubstring:
		return Term{Kind: Substring, Text: t.Text}
	case NotPrefix:
		return Term{Kind: Prefix, Text: t.Text}
	case NotSuffix:
		return Term{Kind: Suffix, Text: t.Text}
	default:
		return t
	}
}

// Clause is a set of alternatives: it is satisfied when any term is.
type Clause []Term

// Query is an AND of OR clauses.
type Query struct {
	Clauses []Clause
}

// Empty reports whether the query has no terms at all.
func (q Query) Empty() bool {
	return len(q.Clauses) == 0
}

// Terms returns every term in clause order.
func (q Query) Terms() []Term {
	var out []Term
	for _, c := range q.Clauses {
		out = append(out, c...)
	}
	return out
}

// FirstPositive returns the first admitting term, if any.
func (q Query) FirstPositive() (Term, bool) {
	for _, c := range q.Clauses {
		for _, t := range c {
			if !t.Negated() {
				return t, true
			}
		}
	}
	return Term{}, false
}

// ParseQuery tokenizes a query on whitespace. A standalone "|" token joins
// its neighbours into one OR clause; every other boundary starts a new
// clause. The query is folded before tokenizing.
func ParseQuery(query string) Query {
	var q Query
	joinNext := false
	for _, tok := range strings.Fields(Fold(query)) {
		if tok == "|" {
			if len(q.Clauses) > 0 {
				joinNext = true
			}
			continue
		}
		term := parseTerm(tok)
		if joinNext {
			last := len(q.Clauses) - 1
			q.Clauses[last] = append(q.Clauses[last], term)
			joinNext = false
			continue
		}
		q.Clauses = append(q.Clauses, Clause{term})
	}
	return q
}

func parseTerm(tok string) Term {
	if rest, ok := strings.CutPrefix(tok, "!"); ok && rest != "" {
		switch {
		case strings.HasPrefix(rest, "^") && len(rest) > 1:
			return Term{Kind: NotPrefix, Text: rest[1:]}
		case strings.HasSuffix(rest, "$") && len(rest) > 1:
			return Term{Kind: NotSuffix, Text: rest[:len(rest)-1]}
		case strings.HasPrefix(rest, "'") && len(rest) > 1:
			return Term{Kind: NotSubstring, Text: strings.TrimSuffix(rest[1:], "'")}
		default:
			return Term{Kind: NotSubstring, Text: rest}
		}
	}

	switch {
	case len(tok) > 2 && tok[0] == '\'' && tok[len(tok)-1] == '\'':
		return Term{Kind: Word, Text: tok[1 : len(tok)-1]}
	case len(tok) > 1 && tok[0] == '\'':
		return Term{Kind: Substring, Text: tok[1:]}
	case len(tok) > 1 && tok[0] == '^':
		return Term{Kind: Prefix, Text: tok[1:]}
	case len(tok) > 1 && tok[len(tok)-1] == '$':
		return Term{Kind: Suffix, Text: tok[:len(tok)-1]}
	}
	return Term{Kind: Subsequence, Text: tok}
}
