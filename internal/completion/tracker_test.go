package completion

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTracker_LatestTicketWins(t *testing.T) {
	t.Parallel()

	tr := NewTracker()
	first := tr.Begin("branch")
	assert.True(t, tr.Current(first))

	second := tr.Begin("branch")
	assert.False(t, tr.Current(first), "older ticket must be stale")
	assert.True(t, tr.Current(second))

	other := tr.Begin("remote")
	assert.True(t, tr.Current(other), "keys are independent")
	assert.True(t, tr.Current(second))
}

func TestTracker_Cancel(t *testing.T) {
	t.Parallel()

	tr := NewTracker()
	tk := tr.Begin("branch")
	tr.Cancel("branch")
	assert.False(t, tr.Current(tk))
	assert.False(t, tr.Current(Ticket{Key: "branch"}), "zero ticket is never current")
}

func TestTracker_Concurrent(t *testing.T) {
	t.Parallel()

	tr := NewTracker()
	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tk := tr.Begin("k")
			_ = tr.Current(tk)
		}()
	}
	wg.Wait()

	last := tr.Begin("k")
	assert.True(t, tr.Current(last))
}
