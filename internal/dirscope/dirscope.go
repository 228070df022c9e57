// Package dirscope classifies how a directory where something was used
// relates to the current working directory, and turns a usage history into a
// proximity score. Paths are compared segment by segment, so /home/user2 is
// never treated as an ancestor of /home/user.
package dirscope

import (
	"path/filepath"
	"strings"
)

// Relation is the position of a usage directory relative to the cwd.
type Relation int

const (
	Unrelated Relation = iota
	Exact
	// Ancestor means the usage directory contains the cwd.
	Ancestor
	// Descendant means the cwd contains the usage directory.
	Descendant
)

func (r Relation) String() string {
	switch r {
	case Exact:
		return "exact"
	case Ancestor:
		return "ancestor"
	case Descendant:
		return "descendant"
	default:
		return "unrelated"
	}
}

// Segments splits a path into its cleaned, non-empty components.
// Returns nil for the empty path. The root "/" yields an empty, non-nil slice.
func Segments(path string) []string {
	if path == "" {
		return nil
	}
	normalized := filepath.ToSlash(filepath.Clean(path))
	parts := strings.Split(normalized, "/")

	filtered := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" && p != "." {
			filtered = append(filtered, p)
		}
	}
	return filtered
}

// Classify returns the relation of dir to cwd. Empty paths and paths with
// mismatched absoluteness are unrelated.
func Classify(cwd, dir string) Relation {
	if cwd == "" || dir == "" {
		return Unrelated
	}
	if filepath.IsAbs(cwd) != filepath.IsAbs(dir) {
		return Unrelated
	}

	c := Segments(cwd)
	d := Segments(dir)

	n := min(len(c), len(d))
	for i := 0; i < n; i++ {
		if c[i] != d[i] {
			return Unrelated
		}
	}

	switch {
	case len(c) == len(d):
		return Exact
	case len(d) < len(c):
		return Ancestor
	default:
		return Descendant
	}
}

// Multipliers weights each relation.
type Multipliers struct {
	Exact      float64
	Ancestor   float64
	Descendant float64
	Unrelated  float64
}

// For returns the multiplier for r.
func (m Multipliers) For(r Relation) float64 {
	switch r {
	case Exact:
		return m.Exact
	case Ancestor:
		return m.Ancestor
	case Descendant:
		return m.Descendant
	default:
		return m.Unrelated
	}
}

// Usage is a count of uses in one directory.
type Usage struct {
	Path  string
	Count int64
}

// Score sums count times relation multiplier over every usage. The result is
// a raw proximity that callers normalize across a candidate set.
func Score(cwd string, usages []Usage, m Multipliers) float64 {
	var total float64
	for _, u := range usages {
		if u.Count <= 0 {
			continue
		}
		total += float64(u.Count) * m.For(Classify(cwd, u.Path))
	}
	return total
}

// Normalize maps a raw value into [0,1] against max. A non-positive max
// yields 0.
func Normalize(v, max float64) float64 {
	if max <= 0 || v <= 0 {
		return 0
	}
	if v >= max {
		return 1
	}
	return v / max
}
