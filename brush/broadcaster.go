package brush

import (
	"errors"
	"log/slog"
	"sync"
)

// ============================================================================
// SELECTION BROADCASTER — one "brush" channel shared by every view
// ============================================================================
// Owned by the application shell and handed to each view at construction.
//
// Contract:
//   Subscribe(viewID, h)  one handler per view id; re-subscribing replaces it
//   Publish(sel)          delivers sel to every subscriber, source included,
//                         before returning; delivery order is unspecified
//   Empty selection       clears all highlighting
//
// Handlers update local highlight state only. A Publish issued while a
// delivery is in flight is rejected, which rules out feedback loops.
// ============================================================================

// Topic is the single channel name views brush on.
const Topic = "brush"

// ErrReentrantPublish is returned by Publish while another delivery is
// still running, most often because a handler tried to re-publish.
var ErrReentrantPublish = errors.New("brush: publish during delivery")

// Handler receives every published selection.
type Handler func(SelectionSet)

// Broadcaster fans selections out to subscribed views.
type Broadcaster struct {
	mu         sync.Mutex
	handlers   map[string]Handler
	delivering bool
	last       SelectionSet
	logger     *slog.Logger
}

// Option configures a Broadcaster.
type Option func(*Broadcaster)

// WithLogger routes debug output to l.
func WithLogger(l *slog.Logger) Option {
	return func(b *Broadcaster) {
		if l != nil {
			b.logger = l
		}
	}
}

// NewBroadcaster returns an empty broadcaster.
func NewBroadcaster(opts ...Option) *Broadcaster {
	b := &Broadcaster{
		handlers: make(map[string]Handler),
		last:     Clear(""),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe registers h for viewID, replacing any earlier handler.
func (b *Broadcaster) Subscribe(viewID string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[viewID] = h
	b.logger.Debug("linkview: subscribe", "topic", Topic+"."+viewID, "views", len(b.handlers))
}

// Unsubscribe removes viewID's handler.
func (b *Broadcaster) Unsubscribe(viewID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.handlers, viewID)
}

// Subscribers returns the number of registered views.
func (b *Broadcaster) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.handlers)
}

// Publish delivers sel to every subscriber and returns once all handlers
// have run.
func (b *Broadcaster) Publish(sel SelectionSet) error {
	b.mu.Lock()
	if b.delivering {
		b.mu.Unlock()
		b.logger.Warn("linkview: rejected re-entrant publish", "source", sel.Source)
		return ErrReentrantPublish
	}
	b.delivering = true
	b.last = sel
	snapshot := make([]Handler, 0, len(b.handlers))
	for _, h := range b.handlers {
		snapshot = append(snapshot, h)
	}
	b.mu.Unlock()

	defer func() {
		b.mu.Lock()
		b.delivering = false
		b.mu.Unlock()
	}()

	b.logger.Debug("linkview: publish", "topic", Topic, "source", sel.Source,
		"selected", sel.Len(), "views", len(snapshot))
	for _, h := range snapshot {
		h(sel)
	}
	return nil
}

// PublishIDs is Publish(NewSelection(source, ids...)).
func (b *Broadcaster) PublishIDs(source string, ids ...int) error {
	return b.Publish(NewSelection(source, ids...))
}

// Last returns the most recently published selection.
func (b *Broadcaster) Last() SelectionSet {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.last
}
