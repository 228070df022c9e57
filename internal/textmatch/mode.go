package textmatch

import (
	"fmt"
	"strings"
)

// Mode selects the matching algorithm applied to a query.
type Mode int

const (
	// ModeAuto tries prefix, then fuzzy, then relaxed matching and tags the
	// result with the tier that matched.
	ModeAuto Mode = iota
	// ModeFuzzy requires every OR clause of the query to match.
	ModeFuzzy
	// ModeRegex compiles the query as a case-insensitive regular expression.
	ModeRegex
	// ModeExact requires the command or alias to equal the query.
	ModeExact
	// ModeRelaxed admits candidates matching at least one query term.
	ModeRelaxed
)

var modeNames = [...]string{
	ModeAuto:    "auto",
	ModeFuzzy:   "fuzzy",
	ModeRegex:   "regex",
	ModeExact:   "exact",
	ModeRelaxed: "relaxed",
}

// String returns the lowercase name of the mode.
func (m Mode) String() string {
	if m < 0 || int(m) >= len(modeNames) {
		return fmt.Sprintf("mode(%d)", int(m))
	}
	return modeNames[m]
}

// Next returns the mode that follows m when cycling through all modes.
func (m Mode) Next() Mode {
	return Mode((int(m) + 1) % len(modeNames))
}

// Modes returns every mode in cycling order.
func Modes() []Mode {
	return []Mode{ModeAuto, ModeFuzzy, ModeRegex, ModeExact, ModeRelaxed}
}

// ParseMode parses a mode name. The empty string yields ModeAuto.
func ParseMode(s string) (Mode, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ModeAuto, nil
	}
	for i, name := range modeNames {
		if name == s {
			return Mode(i), nil
		}
	}
	return ModeAuto, fmt.Errorf("unknown search mode %q (want one of %s)", s, strings.Join(modeNames[:], ", "))
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(b []byte) error {
	parsed, err := ParseMode(string(b))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Tier records which stage of auto matching admitted a candidate.
type Tier int

const (
	TierNone Tier = iota
	TierPrefix
	TierFuzzy
	TierRelaxed
)

func (t Tier) String() string {
	switch t {
	case TierPrefix:
		return "prefix"
	case TierFuzzy:
		return "fuzzy"
	case TierRelaxed:
		return "relaxed"
	default:
		return "none"
	}
}
