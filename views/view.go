// Package views holds the concrete chart adapters that sit between the
// engine's geometry and a user's gestures: they keep per-point highlight
// state, hit-test brush rectangles and publish selections on a shared
// brush.Broadcaster.
package views

import (
	"time"

	"github.com/paulmach/orb"

	"github.com/spektr-org/linkview/brush"
	"github.com/spektr-org/linkview/engine"
)

// View is what every chart adapter exposes to the shell.
type View interface {
	ID() string
	Render(frame *engine.Frame)
	ApplyHighlight(sel brush.SelectionSet)
}

// Mark is the highlight state of one record in a view.
type Mark int

const (
	// Unmarked: no selection is active.
	Unmarked Mark = iota
	// Selected: in the active selection.
	Selected
	// Unselected: a selection is active and this record is not in it.
	Unselected
)

func (m Mark) String() string {
	switch m {
	case Selected:
		return "selected"
	case Unselected:
		return "unselected"
	default:
		return "none"
	}
}

// MarshalText encodes m by name.
func (m Mark) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

// markFor resolves id against sel.
func markFor(sel brush.SelectionSet, id int) Mark {
	if sel.Empty() {
		return Unmarked
	}
	if sel.Contains(id) {
		return Selected
	}
	return Unselected
}

// Rect builds a pixel rectangle from two corners in any order.
func Rect(x0, y0, x1, y1 float64) orb.Bound {
	return orb.MultiPoint{{x0, y0}, {x1, y1}}.Bound()
}

// Option configures a chart adapter.
type Option func(*options)

type options struct {
	interval time.Duration
}

// WithThrottle sets the minimum time between publishes while dragging.
// Zero publishes every move.
func WithThrottle(d time.Duration) Option {
	return func(o *options) { o.interval = d }
}

func applyOptions(opts []Option) options {
	o := options{interval: brush.DefaultInterval}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
