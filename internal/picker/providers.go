package picker

import (
	"context"
	"strings"

	"github.com/runger/cmdbook/internal/completion"
	"github.com/runger/cmdbook/internal/suggest"
)

// CommandProvider searches bookmarked commands.
type CommandProvider struct {
	searcher   *suggest.CommandSearcher
	workingDir string
}

// NewCommandProvider creates a provider ranking commands from workingDir.
func NewCommandProvider(searcher *suggest.CommandSearcher, workingDir string) *CommandProvider {
	return &CommandProvider{searcher: searcher, workingDir: workingDir}
}

// Fetch implements Provider.
func (p *CommandProvider) Fetch(ctx context.Context, req Request) (Response, error) {
	ranked, err := p.searcher.Search(ctx, suggest.Request{
		Query:      req.Query,
		Mode:       req.Mode,
		WorkingDir: p.workingDir,
		Limit:      req.Limit,
	})
	if err != nil {
		return Response{}, err
	}
	return Response{RequestID: req.RequestID, Items: CommandItems(ranked)}, nil
}

// CommandItems converts ranked commands into picker rows.
func CommandItems(ranked []suggest.ScoredCommand) []Item {
	items := make([]Item, len(ranked))
	for i, sc := range ranked {
		items[i] = Item{
			ID:     sc.Command.ID,
			Text:   sc.Command.Cmd,
			Detail: commandDetail(sc),
			Score:  sc.Score,
		}
	}
	return items
}

func commandDetail(sc suggest.ScoredCommand) string {
	var parts []string
	if sc.Command.Alias != "" {
		parts = append(parts, "["+sc.Command.Alias+"]")
	}
	if sc.Command.Description != "" {
		parts = append(parts, sc.Command.Description)
	}
	return strings.Join(parts, " ")
}

// ValueProvider suggests values for one template variable. Stored values
// are returned immediately and completion output follows up.
type ValueProvider struct {
	source  *suggest.ValueSource
	base    suggest.ValueRequest
	tracker *completion.Tracker
}

// NewValueProvider creates a provider for the variable described by base.
// The picker query replaces base.Query on each fetch.
func NewValueProvider(source *suggest.ValueSource, base suggest.ValueRequest) *ValueProvider {
	return &ValueProvider{source: source, base: base, tracker: completion.NewTracker()}
}

// Fetch implements Provider.
func (p *ValueProvider) Fetch(ctx context.Context, req Request) (Response, error) {
	vr := p.base
	vr.Query = req.Query

	tk := p.tracker.Begin(vr.Variable.FlatName())
	interim, err := p.source.Interim(ctx, vr)
	if err != nil {
		return Response{}, err
	}
	items := limitItems(ValueItems(interim), req.Limit)
	return Response{
		RequestID: req.RequestID,
		Items:     items,
		Followup: func(ctx context.Context) (Response, error) {
			// A newer fetch superseded this one; skip running providers.
			if !p.tracker.Current(tk) {
				return Response{RequestID: req.RequestID, Items: items}, nil
			}
			full, err := p.source.Suggest(ctx, vr)
			if err != nil {
				return Response{}, err
			}
			return Response{RequestID: req.RequestID, Items: limitItems(ValueItems(full), req.Limit)}, nil
		},
	}, nil
}

// ValueItems converts ranked values into picker rows.
func ValueItems(ranked []suggest.ScoredValue) []Item {
	items := make([]Item, len(ranked))
	for i, v := range ranked {
		var detail string
		if v.CompletionSourced {
			detail = "completion"
		}
		items[i] = Item{Text: v.Value, Detail: detail, Score: v.Score}
	}
	return items
}

func limitItems(items []Item, limit int) []Item {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}
