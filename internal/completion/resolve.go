// Package completion runs dynamic completion providers: shell commands whose
// output lines become candidate values for a template variable.
package completion

import (
	"regexp"
	"strings"

	"github.com/runger/cmdbook/internal/textmatch"
)

// conditionalRe finds outer blocks that contain at least one {{var}}.
var conditionalRe = regexp.MustCompile(`\{\{((?:[^{}]*\{\{[^}]*\}\})+[^{}]*)\}\}`)

var innerVariableRe = regexp.MustCompile(`\{\{([^{}]+)\}\}`)

// Resolve expands the conditional blocks of a provider command using the
// values, which is keyed by flat variable name.
//
// A block such as {{--context {{context}}}} is kept, without its outer
// braces and with the variables substituted, only when every variable in it
// has a value. Otherwise the whole block is dropped. Placeholders outside
// any block are left untouched.
func Resolve(provider string, values map[string]string) string {
	return conditionalRe.ReplaceAllStringFunc(provider, func(block string) string {
		inner := conditionalRe.FindStringSubmatch(block)[1]

		missing := false
		resolved := innerVariableRe.ReplaceAllStringFunc(inner, func(v string) string {
			name := innerVariableRe.FindStringSubmatch(v)[1]
			value, ok := values[textmatch.Fold(name)]
			if !ok {
				missing = true
				return v
			}
			return value
		})
		if missing {
			return ""
		}
		return resolved
	})
}

// Variables returns the flat names of the variables a provider depends on.
func Variables(provider string) []string {
	var names []string
	seen := make(map[string]bool)
	for _, m := range conditionalRe.FindAllStringSubmatch(provider, -1) {
		for _, v := range innerVariableRe.FindAllStringSubmatch(m[1], -1) {
			name := textmatch.Fold(v[1])
			if name != "" && !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	return names
}

// splitLines turns provider output into candidate values. Lines are trimmed
// and blank lines dropped.
func splitLines(out string) []string {
	var lines []string
	for _, line := range strings.Split(out, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
