// Package template parses command templates with {{variable}} placeholders
// and renders them once values are chosen.
//
// Placeholder forms:
//
//	{{name}}               plain variable
//	{{{name}}} {{*name*}}  secret, never stored or suggested
//	{{a|b|c}}              alternatives
//	{{name:kebab:upper}}   value transforms applied on render
package template

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/runger/cmdbook/internal/cmdutil"
	"github.com/runger/cmdbook/internal/textmatch"
)

// ErrMissingValue is returned by Render in strict mode when a variable has
// no value.
var ErrMissingValue = errors.New("missing variable value")

// ErrUnknownVariable is returned when setting a name the template lacks.
var ErrUnknownVariable = errors.New("unknown variable")

var variableRe = regexp.MustCompile(`\{\{((?:\{[^}]+\}|[^}]+))\}\}`)

// Variable is one distinct placeholder of a template.
type Variable struct {
	// Name identifies the variable within the template. Occurrences with the
	// same name share a value even when their transforms differ.
	Name string
	// Options holds the alternatives of {{a|b}}; nil otherwise.
	Options []string
	// Functions are applied in order to the value of this occurrence.
	Functions []Function
	// Secret variables are never persisted, suggested or used as context.
	Secret bool
}

// FlatName is the folded name used as the suggestion pool key.
func (v Variable) FlatName() string {
	return textmatch.Fold(v.Name)
}

// FlatNames returns every pool key for the variable: one per alternative
// followed by the composite name.
func (v Variable) FlatNames() []string {
	seen := make(map[string]bool)
	var names []string
	add := func(s string) {
		f := textmatch.Fold(s)
		if f != "" && !seen[f] {
			seen[f] = true
			names = append(names, f)
		}
	}
	for _, o := range v.Options {
		add(o)
	}
	add(v.Name)
	return names
}

func parseVariable(inner string) Variable {
	var v Variable
	switch {
	case len(inner) > 2 && strings.HasPrefix(inner, "{") && strings.HasSuffix(inner, "}"):
		v.Secret = true
		inner = inner[1 : len(inner)-1]
	case len(inner) > 2 && strings.HasPrefix(inner, "*") && strings.HasSuffix(inner, "*"):
		v.Secret = true
		inner = inner[1 : len(inner)-1]
	}

	segments := strings.Split(inner, ":")
	end := len(segments)
	for end > 1 {
		f, ok := parseFunction(segments[end-1])
		if !ok {
			break
		}
		v.Functions = append([]Function{f}, v.Functions...)
		end--
	}
	v.Name = strings.TrimSpace(strings.Join(segments[:end], ":"))

	if strings.Contains(v.Name, "|") {
		for _, o := range strings.Split(v.Name, "|") {
			if o = strings.TrimSpace(o); o != "" {
				v.Options = append(v.Options, o)
			}
		}
	}
	return v
}

type part struct {
	literal  string
	raw      string
	variable *Variable
}

// Template is a parsed command. It is not safe for concurrent mutation.
type Template struct {
	raw    string
	root   string
	parts  []part
	order  []string
	vars   map[string]Variable
	values map[string]string
}

// Parse splits cmd into literal text and placeholders. Parsing never fails;
// text without placeholders is a template with no variables.
func Parse(cmd string) *Template {
	t := &Template{
		raw:    cmd,
		root:   cmdutil.RootCommand(cmd),
		vars:   make(map[string]Variable),
		values: make(map[string]string),
	}

	last := 0
	for _, loc := range variableRe.FindAllStringSubmatchIndex(cmd, -1) {
		if loc[0] > last {
			t.parts = append(t.parts, part{literal: cmd[last:loc[0]]})
		}
		v := parseVariable(cmd[loc[2]:loc[3]])
		if v.Name == "" {
			t.parts = append(t.parts, part{literal: cmd[loc[0]:loc[1]]})
			last = loc[1]
			continue
		}
		t.parts = append(t.parts, part{raw: cmd[loc[0]:loc[1]], variable: &v})
		if _, ok := t.vars[v.Name]; !ok {
			t.order = append(t.order, v.Name)
			t.vars[v.Name] = v
		} else if v.Secret {
			// Any secret occurrence makes the whole variable secret.
			prev := t.vars[v.Name]
			prev.Secret = true
			t.vars[v.Name] = prev
		}
		last = loc[1]
	}
	if last < len(cmd) {
		t.parts = append(t.parts, part{literal: cmd[last:]})
	}
	return t
}

// Raw returns the original template text.
func (t *Template) Raw() string { return t.raw }

// RootCommand returns the lowercased first word of the command.
func (t *Template) RootCommand() string { return t.root }

// Variables returns the distinct variables in order of first appearance.
func (t *Template) Variables() []Variable {
	out := make([]Variable, 0, len(t.order))
	for _, name := range t.order {
		out = append(out, t.vars[name])
	}
	return out
}

// HasVariables reports whether the template has any placeholder.
func (t *Template) HasVariables() bool { return len(t.order) > 0 }

// Next returns the first variable without a value.
func (t *Template) Next() (Variable, bool) {
	for _, name := range t.order {
		if _, ok := t.values[name]; !ok {
			return t.vars[name], true
		}
	}
	return Variable{}, false
}

// Set fills every occurrence of the named variable.
func (t *Template) Set(name, value string) error {
	if _, ok := t.vars[name]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownVariable, name)
	}
	t.values[name] = value
	return nil
}

// Unset clears a value so the variable is pending again.
func (t *Template) Unset(name string) {
	delete(t.values, name)
}

// Value returns the chosen value for name.
func (t *Template) Value(name string) (string, bool) {
	v, ok := t.values[name]
	return v, ok
}

// Context returns the non-secret values filled before the current
// variable, keyed by flat name. It is the co-occurrence context for
// suggesting the current variable and for its completion providers. Values
// set out of order for later variables are not included until the current
// one is filled. A complete template yields every non-secret value.
func (t *Template) Context() map[string]string {
	return t.filled(true)
}

// FilledValues returns every filled non-secret value keyed by flat name,
// regardless of order.
func (t *Template) FilledValues() map[string]string {
	return t.filled(false)
}

func (t *Template) filled(stopAtCurrent bool) map[string]string {
	ctx := make(map[string]string)
	for _, name := range t.order {
		val, ok := t.values[name]
		if !ok {
			if stopAtCurrent {
				break
			}
			continue
		}
		if v := t.vars[name]; !v.Secret {
			ctx[v.FlatName()] = val
		}
	}
	return ctx
}

// Missing returns the names of variables without a value.
func (t *Template) Missing() []string {
	var out []string
	for _, name := range t.order {
		if _, ok := t.values[name]; !ok {
			out = append(out, name)
		}
	}
	return out
}

// Complete reports whether every variable has a value.
func (t *Template) Complete() bool {
	return len(t.Missing()) == 0
}

// Render substitutes chosen values. Unfilled placeholders are kept verbatim.
func (t *Template) Render() string {
	var b strings.Builder
	for _, p := range t.parts {
		if p.variable == nil {
			b.WriteString(p.literal)
			continue
		}
		val, ok := t.values[p.variable.Name]
		if !ok {
			b.WriteString(p.raw)
			continue
		}
		b.WriteString(applyAll(p.variable.Functions, val))
	}
	return b.String()
}

// RenderStrict is Render but fails when any variable is unfilled.
func (t *Template) RenderStrict() (string, error) {
	if missing := t.Missing(); len(missing) > 0 {
		return "", fmt.Errorf("%w: %s", ErrMissingValue, strings.Join(missing, ", "))
	}
	return t.Render(), nil
}

var hashtagRe = regexp.MustCompile(`(?:^|\s)#(\S*)`)

// tagTrim is stripped from both ends of a tag body so "#docker," and
// "(#docker)" both yield docker.
const tagTrim = ".,!?;:)[]{}'\"`<>-_\\/"

// Hashtags extracts the distinct #tag tokens of a description, lowercased
// and without the leading '#'.
func Hashtags(description string) []string {
	tags, _ := SplitHashtags(description)
	return tags
}

// SplitHashtags separates the #tag tokens of text from the rest of it. Tags
// are lowercased, trimmed of punctuation and deduplicated in order of
// appearance; rest is text with every tag token and its leading space
// removed.
func SplitHashtags(text string) (tags []string, rest string) {
	matches := hashtagRe.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return nil, text
	}

	var b strings.Builder
	last := 0
	for _, m := range matches {
		b.WriteString(text[last:m[0]])
		last = m[1]

		tag := strings.ToLower(strings.Trim(text[m[2]:m[3]], tagTrim))
		if tag != "" && !slices.Contains(tags, tag) {
			tags = append(tags, tag)
		}
	}
	b.WriteString(text[last:])
	return tags, strings.TrimSpace(b.String())
}
