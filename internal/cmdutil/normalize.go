// Package cmdutil provides shared command utility functions.
package cmdutil

import (
	"strings"

	"github.com/google/shlex"
)

// RootCommand extracts the base command (tool) from a command string. It
// is the grouping key for variable pools and completions.
// Examples:
//   - "git checkout {{branch}}" -> "git"
//   - "FOO=bar docker run -d nginx" -> "docker"
//   - "'My Tool' --flag" -> "my tool"
func RootCommand(cmd string) string {
	cmd = strings.TrimSpace(cmd)
	if cmd == "" {
		return ""
	}

	words, err := shlex.Split(cmd)
	if err != nil || len(words) == 0 {
		words = strings.Fields(cmd)
	}

	for _, w := range words {
		if isAssignment(w) {
			continue
		}
		return strings.ToLower(w)
	}
	return ""
}

// isAssignment reports whether w looks like VAR=value.
func isAssignment(w string) bool {
	idx := strings.IndexByte(w, '=')
	if idx <= 0 {
		return false
	}
	for i, r := range w[:idx] {
		switch {
		case r == '_', r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}

// NormalizeForDisplay collapses runs of whitespace and trims the ends.
func NormalizeForDisplay(cmd string) string {
	return strings.Join(strings.Fields(cmd), " ")
}
