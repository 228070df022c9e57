package config

import (
	"fmt"
	"log"
	"math"

	"github.com/runger/cmdbook/internal/dirscope"
	"github.com/runger/cmdbook/internal/textmatch"
)

// ScoringConfig holds the point budgets and multipliers of both rankers.
// Bootstrap builds it once and hands the same pointer to every ranking call.
type ScoringConfig struct {
	Commands  CommandScoring  `yaml:"commands" toml:"commands"`
	Variables VariableScoring `yaml:"variables" toml:"variables"`
}

// CommandScoring weighs usage, path proximity and text relevance.
type CommandScoring struct {
	Usage PointsScoring `yaml:"usage" toml:"usage"`
	Path  PathScoring   `yaml:"path" toml:"path"`
	Text  TextScoring   `yaml:"text" toml:"text"`
}

// VariableScoring weighs context, path proximity and completion membership.
type VariableScoring struct {
	Context    PointsScoring `yaml:"context" toml:"context"`
	Path       PathScoring   `yaml:"path" toml:"path"`
	Completion PointsScoring `yaml:"completion" toml:"completion"`
}

// PointsScoring is a source with only a point budget.
type PointsScoring struct {
	Points float64 `yaml:"points" toml:"points"`
}

// PathScoring is the path source budget plus one multiplier per relation.
type PathScoring struct {
	Points     float64 `yaml:"points" toml:"points"`
	Exact      float64 `yaml:"exact" toml:"exact"`
	Ancestor   float64 `yaml:"ancestor" toml:"ancestor"`
	Descendant float64 `yaml:"descendant" toml:"descendant"`
	Unrelated  float64 `yaml:"unrelated" toml:"unrelated"`
}

// TextScoring is the text source budget, field weights and auto tiers.
type TextScoring struct {
	Points      float64     `yaml:"points" toml:"points"`
	Command     float64     `yaml:"command" toml:"command"`
	Description float64     `yaml:"description" toml:"description"`
	Auto        AutoScoring `yaml:"auto" toml:"auto"`
}

// AutoScoring holds the auto mode tier multipliers.
type AutoScoring struct {
	Prefix  float64 `yaml:"prefix" toml:"prefix"`
	Fuzzy   float64 `yaml:"fuzzy" toml:"fuzzy"`
	Relaxed float64 `yaml:"relaxed" toml:"relaxed"`
	Root    float64 `yaml:"root" toml:"root"`
}

func defaultPathScoring() PathScoring {
	return PathScoring{
		Points:     300,
		Exact:      1.0,
		Ancestor:   0.5,
		Descendant: 0.25,
		Unrelated:  0.1,
	}
}

// DefaultScoringConfig returns the stock tuning.
func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		Commands: CommandScoring{
			Usage: PointsScoring{Points: 100},
			Path:  defaultPathScoring(),
			Text: TextScoring{
				Points:      600,
				Command:     2.0,
				Description: 1.0,
				Auto: AutoScoring{
					Prefix:  1.5,
					Fuzzy:   1.0,
					Relaxed: 0.5,
					Root:    2.0,
				},
			},
		},
		Variables: VariableScoring{
			Context:    PointsScoring{Points: 700},
			Path:       defaultPathScoring(),
			Completion: PointsScoring{Points: 400},
		},
	}
}

// Multipliers converts the relation multipliers for dirscope.
func (p PathScoring) Multipliers() dirscope.Multipliers {
	return dirscope.Multipliers{
		Exact:      p.Exact,
		Ancestor:   p.Ancestor,
		Descendant: p.Descendant,
		Unrelated:  p.Unrelated,
	}
}

// Weights converts the field weights and auto tiers for textmatch.
func (t TextScoring) Weights() textmatch.Weights {
	return textmatch.Weights{
		Command:     t.Command,
		Description: t.Description,
		Prefix:      t.Auto.Prefix,
		Fuzzy:       t.Auto.Fuzzy,
		Relaxed:     t.Auto.Relaxed,
		Root:        t.Auto.Root,
	}
}

// ValidationWarning represents a config validation warning.
type ValidationWarning struct {
	Field   string
	Message string
}

// ValidateAndFix resets negative or non-finite values to their defaults.
// Validation never prevents startup; the returned warnings are also logged.
func (s *ScoringConfig) ValidateAndFix() []ValidationWarning {
	var warnings []ValidationWarning
	defaults := DefaultScoringConfig()

	for i, f := range s.floatFields() {
		def := defaults.floatFields()[i]
		v := *f.val
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			msg := fmt.Sprintf("must be >= 0, got %v; falling back to default %v", v, *def.val)
			warnings = append(warnings, ValidationWarning{Field: f.key, Message: msg})
			log.Printf("WARN config: tuning.%s: %s", f.key, msg)
			*f.val = *def.val
		}
	}
	return warnings
}

type floatField struct {
	key string
	val *float64
}

// floatFields lists every tuning value in a fixed order.
func (s *ScoringConfig) floatFields() []floatField {
	path := func(prefix string, p *PathScoring) []floatField {
		return []floatField{
			{prefix + ".points", &p.Points},
			{prefix + ".exact", &p.Exact},
			{prefix + ".ancestor", &p.Ancestor},
			{prefix + ".descendant", &p.Descendant},
			{prefix + ".unrelated", &p.Unrelated},
		}
	}

	fields := []floatField{
		{"commands.usage.points", &s.Commands.Usage.Points},
	}
	fields = append(fields, path("commands.path", &s.Commands.Path)...)
	fields = append(fields,
		floatField{"commands.text.points", &s.Commands.Text.Points},
		floatField{"commands.text.command", &s.Commands.Text.Command},
		floatField{"commands.text.description", &s.Commands.Text.Description},
		floatField{"commands.text.auto.prefix", &s.Commands.Text.Auto.Prefix},
		floatField{"commands.text.auto.fuzzy", &s.Commands.Text.Auto.Fuzzy},
		floatField{"commands.text.auto.relaxed", &s.Commands.Text.Auto.Relaxed},
		floatField{"commands.text.auto.root", &s.Commands.Text.Auto.Root},
		floatField{"variables.context.points", &s.Variables.Context.Points},
	)
	fields = append(fields, path("variables.path", &s.Variables.Path)...)
	fields = append(fields, floatField{"variables.completion.points", &s.Variables.Completion.Points})
	return fields
}
