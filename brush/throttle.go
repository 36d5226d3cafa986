package brush

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// DefaultInterval bounds how often a dragging view re-publishes.
const DefaultInterval = 50 * time.Millisecond

// Throttle rate-limits publishes during a continuous drag. The first
// selection in an interval goes out immediately; later ones are held and
// the newest is sent by the next allowed Submit or by Flush. Only the
// final state has to converge, so dropped intermediates are fine.
type Throttle struct {
	mu      sync.Mutex
	lim     *rate.Limiter
	publish func(SelectionSet) error
	pending *SelectionSet
	now     func() time.Time
}

// NewThrottle wraps publish. interval <= 0 disables throttling.
func NewThrottle(interval time.Duration, publish func(SelectionSet) error) *Throttle {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &Throttle{
		lim:     rate.NewLimiter(limit, 1),
		publish: publish,
		now:     time.Now,
	}
}

// Submit publishes sel now if the interval allows, else holds it.
func (t *Throttle) Submit(sel SelectionSet) error {
	return t.SubmitAt(t.now(), sel)
}

// SubmitAt is Submit with an explicit clock reading.
func (t *Throttle) SubmitAt(now time.Time, sel SelectionSet) error {
	t.mu.Lock()
	if !t.lim.AllowN(now, 1) {
		t.pending = &sel
		t.mu.Unlock()
		return nil
	}
	t.pending = nil
	t.mu.Unlock()
	return t.publish(sel)
}

// Flush publishes the held selection, if any.
func (t *Throttle) Flush() error {
	t.mu.Lock()
	sel := t.pending
	t.pending = nil
	t.mu.Unlock()
	if sel == nil {
		return nil
	}
	return t.publish(*sel)
}

// Pending reports whether a selection is waiting for Flush.
func (t *Throttle) Pending() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pending != nil
}
