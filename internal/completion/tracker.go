package completion

import "sync"

// Ticket identifies one request for a key.
type Ticket struct {
	Key string
	seq uint64
}

// Tracker hands out tickets so that late results can be recognized as
// stale. Only the latest ticket of a key is current; output produced for an
// older ticket must be discarded.
type Tracker struct {
	mu     sync.Mutex
	latest map[string]uint64
	next   uint64
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{latest: make(map[string]uint64)}
}

// Begin issues a ticket for key, invalidating earlier tickets of that key.
func (t *Tracker) Begin(key string) Ticket {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.next++
	t.latest[key] = t.next
	return Ticket{Key: key, seq: t.next}
}

// Current reports whether tk is still the latest ticket for its key.
func (t *Tracker) Current(tk Ticket) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return tk.seq != 0 && t.latest[tk.Key] == tk.seq
}

// Cancel invalidates every outstanding ticket for key.
func (t *Tracker) Cancel(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.latest, key)
}
