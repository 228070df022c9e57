package textmatch

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Letters that carry no combining mark and so survive decomposition.
var letterFolds = strings.NewReplacer(
	"ß", "ss",
	"æ", "ae",
	"œ", "oe",
	"ø", "o",
	"ł", "l",
	"đ", "d",
	"ð", "d",
	"þ", "th",
	"ı", "i",
)

// Fold lowercases s, strips diacritics and collapses runs of whitespace to a
// single space. Both queries and candidate fields are folded before any
// comparison so that "Café" and "cafe" compare equal.
func Fold(s string) string {
	if s == "" {
		return ""
	}
	if isPlainASCII(s) {
		return collapseSpace(strings.ToLower(s))
	}
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return collapseSpace(letterFolds.Replace(strings.ToLower(out)))
}

func isPlainASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= unicode.MaxASCII {
			return false
		}
	}
	return true
}

func collapseSpace(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 1 && fields[0] == s {
		return s
	}
	return strings.Join(fields, " ")
}

// isWordByte reports whether b is part of a word for whole-word matching.
func isWordByte(b byte) bool {
	return b == '_' || (b >= '0' && b <= '9') || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || b >= 0x80
}
