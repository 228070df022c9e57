package picker

import (
	"context"

	"github.com/runger/cmdbook/internal/textmatch"
)

// Provider is the interface for data sources that supply items to the picker.
type Provider interface {
	Fetch(ctx context.Context, req Request) (Response, error)
}

// Request describes what items the picker wants from a Provider.
type Request struct {
	RequestID uint64 // Monotonically increasing, for stale response detection
	Query     string
	Mode      textmatch.Mode
	Limit     int
}

// Item is one selectable row.
type Item struct {
	ID     string // Storage id, empty for values typed by the user
	Text   string // What the picker returns; never sanitized
	Detail string // Secondary text shown dimmed next to Text
	Score  float64
}

// Response carries items back from a Provider.
type Response struct {
	RequestID uint64
	Items     []Item
	// Followup, when set, produces a better answer for the same request
	// (for example once completion providers finish). The picker shows Items
	// first and replaces them with the follow-up result if it is still
	// current when it arrives.
	Followup func(ctx context.Context) (Response, error)
}
