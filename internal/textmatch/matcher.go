package textmatch

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrInvalidPattern is returned when a regex query does not compile.
var ErrInvalidPattern = errors.New("invalid pattern")

// PatternError describes a regex query that failed to compile.
type PatternError struct {
	Pattern string
	Err     error
}

func (e *PatternError) Error() string {
	return fmt.Sprintf("invalid pattern %q: %v", e.Pattern, e.Err)
}

func (e *PatternError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrInvalidPattern) hold for any PatternError.
func (e *PatternError) Is(target error) bool { return target == ErrInvalidPattern }

// Weights carries the field weights and auto tier multipliers.
type Weights struct {
	Command     float64
	Description float64

	Prefix  float64
	Fuzzy   float64
	Relaxed float64
	Root    float64
}

// DefaultWeights returns the stock field weights and auto multipliers.
func DefaultWeights() Weights {
	return Weights{
		Command:     2.0,
		Description: 1.0,
		Prefix:      1.5,
		Fuzzy:       1.0,
		Relaxed:     0.5,
		Root:        2.0,
	}
}

// Candidate holds the fields of a command that a query is matched against.
type Candidate struct {
	Command     string
	Alias       string
	Description string
}

// Result is the outcome of a successful match.
type Result struct {
	// Score is the relevance in [0,1].
	Score float64
	// Tier is set in auto mode only.
	Tier Tier
	// Boost is the product of the auto tier and root multipliers. It is 1
	// outside auto mode.
	Boost float64
}

// Weighted returns Score multiplied by Boost.
func (r Result) Weighted() float64 {
	return r.Score * r.Boost
}

// Matcher is a compiled query for one mode. It holds no mutable state and
// is safe for concurrent use.
type Matcher struct {
	mode    Mode
	raw     string
	folded  string
	query   Query
	re      *regexp.Regexp
	weights Weights
	empty   bool
}

// New compiles query for mode. Only ModeRegex can fail, with an error
// matching ErrInvalidPattern.
func New(mode Mode, query string, w Weights) (*Matcher, error) {
	m := &Matcher{
		mode:    mode,
		raw:     query,
		folded:  Fold(query),
		weights: w,
		empty:   strings.TrimSpace(query) == "",
	}
	if m.empty {
		return m, nil
	}

	switch mode {
	case ModeRegex:
		re, err := regexp.Compile("(?i)" + query)
		if err != nil {
			return nil, &PatternError{Pattern: query, Err: err}
		}
		m.re = re
	case ModeFuzzy, ModeRelaxed, ModeAuto:
		m.query = ParseQuery(query)
	}
	return m, nil
}

// Mode returns the mode the matcher was compiled for.
func (m *Matcher) Mode() Mode { return m.mode }

// Empty reports whether the query was blank. A blank query admits every
// candidate with a zero score.
func (m *Matcher) Empty() bool { return m.empty }

// Query returns the parsed term query. It is empty for regex and exact.
func (m *Matcher) Query() Query { return m.query }

// Match reports whether c passes the mode's predicate and, if so, how
// relevant it is.
func (m *Matcher) Match(c Candidate) (Result, bool) {
	if m.empty {
		return Result{Boost: 1}, true
	}

	switch m.mode {
	case ModeExact:
		if m.folded == Fold(c.Command) || (c.Alias != "" && m.folded == Fold(c.Alias)) {
			return Result{Score: 1, Boost: 1}, true
		}
		return Result{}, false

	case ModeRegex:
		if m.matchRegex(c) {
			return Result{Score: 1, Boost: 1}, true
		}
		return Result{}, false

	case ModeFuzzy:
		score, ok := m.strict(m.fields(c))
		if !ok {
			return Result{}, false
		}
		return Result{Score: score, Boost: 1}, true

	case ModeRelaxed:
		score, ok := m.relaxed(m.fields(c))
		if !ok {
			return Result{}, false
		}
		return Result{Score: score, Boost: 1}, true

	case ModeAuto:
		return m.auto(c)
	}
	return Result{}, false
}

// matchRegex tests the command and its alias, the same fields exact mode
// compares. Descriptions are not searched.
func (m *Matcher) matchRegex(c Candidate) bool {
	for _, s := range []string{c.Command, c.Alias} {
		if s != "" && (m.re.MatchString(s) || m.re.MatchString(Fold(s))) {
			return true
		}
	}
	return false
}

type field struct {
	text   string
	weight float64
}

func (m *Matcher) fields(c Candidate) []field {
	return []field{
		{text: Fold(c.Command), weight: m.weights.Command},
		{text: Fold(c.Description), weight: m.weights.Description},
	}
}

// termScore matches an admitting term against every field and returns the
// weight-normalized sum of the per-field scores.
func (m *Matcher) termScore(t Term, fields []field) (float64, bool) {
	var sum, total float64
	matched := false
	for _, f := range fields {
		total += f.weight
		if s, ok := matchTerm(t, f.text); ok {
			matched = true
			sum += s * f.weight
		}
	}
	if !matched {
		return 0, false
	}
	if total <= 0 {
		return 0, true
	}
	return sum / total, true
}

// violates reports whether a negated term's positive form hits any field.
func violates(t Term, fields []field) bool {
	pos := t.positive()
	for _, f := range fields {
		if _, ok := matchTerm(pos, f.text); ok {
			return true
		}
	}
	return false
}

// strict evaluates the AND of OR clauses. The score is the mean, over
// clauses with admitting terms, of the best matching term in the clause.
func (m *Matcher) strict(fields []field) (float64, bool) {
	var sum float64
	scored := 0
	for _, clause := range m.query.Clauses {
		satisfied := false
		best := 0.0
		hasPositive := false
		for _, t := range clause {
			if t.Negated() {
				if !violates(t, fields) {
					satisfied = true
				}
				continue
			}
			hasPositive = true
			if s, ok := m.termScore(t, fields); ok {
				satisfied = true
				if s > best {
					best = s
				}
			}
		}
		if !satisfied {
			return 0, false
		}
		if hasPositive {
			sum += best
			scored++
		}
	}
	if scored == 0 {
		return 0, true
	}
	return sum / float64(scored), true
}

// relaxed admits a candidate when any admitting term matches and no
// negated term is violated. The score averages term coverage with the mean
// term score.
func (m *Matcher) relaxed(fields []field) (float64, bool) {
	var sum float64
	positives, matched := 0, 0
	for _, t := range m.query.Terms() {
		if t.Negated() {
			if violates(t, fields) {
				return 0, false
			}
			continue
		}
		positives++
		if s, ok := m.termScore(t, fields); ok {
			matched++
			sum += s
		}
	}
	if positives == 0 {
		return 0, true
	}
	if matched == 0 {
		return 0, false
	}
	coverage := float64(matched) / float64(positives)
	return (coverage + sum/float64(positives)) / 2, true
}

func (m *Matcher) auto(c Candidate) (Result, bool) {
	res := Result{Boost: 1}
	cmd := Fold(c.Command)

	if score, ok := m.prefix(cmd, Fold(c.Alias)); ok {
		res = Result{Score: score, Tier: TierPrefix, Boost: m.weights.Prefix}
	} else {
		fields := []field{
			{text: cmd, weight: m.weights.Command},
			{text: Fold(c.Description), weight: m.weights.Description},
		}
		if score, ok := m.strict(fields); ok {
			res = Result{Score: score, Tier: TierFuzzy, Boost: m.weights.Fuzzy}
		} else if score, ok := m.relaxed(fields); ok {
			res = Result{Score: score, Tier: TierRelaxed, Boost: m.weights.Relaxed}
		} else {
			return Result{}, false
		}
	}

	if first, ok := m.query.FirstPositive(); ok && strings.HasPrefix(cmd, first.Text) {
		res.Boost *= m.weights.Root
	}
	return res, true
}

// prefix checks whether the command or alias starts with the whole query.
func (m *Matcher) prefix(cmd, alias string) (float64, bool) {
	best, ok := 0.0, false
	if alias != "" && strings.HasPrefix(alias, m.folded) {
		best, ok = exactScore(len(m.folded), len(alias)), true
	}
	if strings.HasPrefix(cmd, m.folded) {
		if s := exactScore(len(m.folded), len(cmd)); s > best {
			best = s
		}
		ok = true
	}
	return best, ok
}

// Match compiles query and matches a single candidate.
func Match(mode Mode, query string, c Candidate, w Weights) (Result, bool, error) {
	m, err := New(mode, query, w)
	if err != nil {
		return Result{}, false, err
	}
	res, ok := m.Match(c)
	return res, ok, nil
}
