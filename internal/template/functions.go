package template

import (
	"net/url"
	"strings"
	"unicode"
)

// Function transforms a variable value on render.
type Function string

const (
	FuncKebab Function = "kebab"
	FuncSnake Function = "snake"
	FuncUpper Function = "upper"
	FuncLower Function = "lower"
	FuncURL   Function = "url"
)

func parseFunction(s string) (Function, bool) {
	switch f := Function(strings.ToLower(strings.TrimSpace(s))); f {
	case FuncKebab, FuncSnake, FuncUpper, FuncLower, FuncURL:
		return f, true
	}
	return "", false
}

// Apply transforms s.
func (f Function) Apply(s string) string {
	switch f {
	case FuncKebab:
		return strings.Join(words(s), "-")
	case FuncSnake:
		return strings.Join(words(s), "_")
	case FuncUpper:
		return strings.ToUpper(s)
	case FuncLower:
		return strings.ToLower(s)
	case FuncURL:
		return url.PathEscape(s)
	}
	return s
}

func applyAll(fns []Function, s string) string {
	for _, f := range fns {
		s = f.Apply(s)
	}
	return s
}

// words splits s into lowercase words on separators and lower-to-upper case
// changes, so "myBranch name_2" yields my, branch, name, 2.
func words(s string) []string {
	var out []string
	var cur []rune
	flush := func() {
		if len(cur) > 0 {
			out = append(out, strings.ToLower(string(cur)))
			cur = cur[:0]
		}
	}
	var prev rune
	for _, r := range s {
		switch {
		case !unicode.IsLetter(r) && !unicode.IsDigit(r):
			flush()
		case unicode.IsUpper(r) && unicode.IsLower(prev):
			flush()
			cur = append(cur, r)
		default:
			cur = append(cur, r)
		}
		prev = r
	}
	flush()
	return out
}
