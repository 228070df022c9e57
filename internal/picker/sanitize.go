package picker

import (
	"regexp"
	"strings"

	"github.com/mattn/go-runewidth"
)

// escapeRe matches terminal escape sequences: CSI (colors, cursor moves),
// OSC terminated by BEL or ST (titles, hyperlinks), charset designations and
// the remaining two-byte escapes.
var escapeRe = regexp.MustCompile(`\x1b(?:\[[0-?]*[ -/]*[@-~]|\][^\x07\x1b]*(?:\x07|\x1b\\)|[()][0-9A-Za-z]|[#*+\-./][0-9A-Za-z])`)

// escapeLiteralRe matches the spellings of ESC that shells and printf accept
// as literal text: \033, \x1b and \e, followed by [ or ].
var escapeLiteralRe = regexp.MustCompile(`\\(?:033|x1[bB]|e)([\[\]])`)

// controlReplacer flattens multi-line commands onto one picker row.
var controlReplacer = strings.NewReplacer("\r\n", " ⏎ ", "\n", " ⏎ ", "\r", " ", "\t", " ")

// DisplayText prepares a stored command or value for a single picker row.
// The result is for display only and must never be executed.
func DisplayText(s string) string {
	return controlReplacer.Replace(PrettyEscapeLiterals(StripANSI(ValidateUTF8(s))))
}

// DisplayWidth returns the terminal column width of s.
func DisplayWidth(s string) int {
	return runewidth.StringWidth(s)
}

// StripANSI removes terminal escape sequences.
func StripANSI(s string) string {
	if !strings.ContainsRune(s, '\x1b') {
		return s
	}
	return escapeRe.ReplaceAllString(s, "")
}

// ValidateUTF8 replaces invalid byte sequences with U+FFFD.
func ValidateUTF8(s string) string {
	return strings.ToValidUTF8(s, "�")
}

// PrettyEscapeLiterals shows literal escape spellings such as \033[ as
// <ESC>[ so colored printf commands stay readable. Display only.
func PrettyEscapeLiterals(s string) string {
	if !strings.ContainsRune(s, '\\') {
		return s
	}
	return escapeLiteralRe.ReplaceAllString(s, "<ESC>$1")
}

// MiddleTruncate shortens s to at most maxWidth columns by replacing its
// middle with an ellipsis, keeping both the command head and its last
// argument visible. Below three columns it keeps only a prefix.
func MiddleTruncate(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= maxWidth {
		return s
	}
	if maxWidth < 3 {
		return runewidth.Truncate(s, maxWidth, "")
	}

	runes := []rune(s)
	budget := maxWidth - 1
	headMax, tailMax := (budget+1)/2, budget/2

	head, used := 0, 0
	for head < len(runes) {
		w := runewidth.RuneWidth(runes[head])
		if used+w > headMax {
			break
		}
		used += w
		head++
	}

	tail, used := len(runes), 0
	for tail > head {
		w := runewidth.RuneWidth(runes[tail-1])
		if used+w > tailMax {
			break
		}
		used += w
		tail--
	}

	return string(runes[:head]) + "…" + string(runes[tail:])
}
