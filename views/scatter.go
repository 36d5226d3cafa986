package views

import (
	"github.com/paulmach/orb"

	"github.com/spektr-org/linkview/brush"
	"github.com/spektr-org/linkview/engine"
)

// ============================================================================
// SCATTER — point marks, rectangle brush
// ============================================================================
// A point's rendered center is the scaled position plus its overlap offset
// on Frame.OffsetAxis; the brush tests exactly that center, so a point
// nudged out of the rectangle is not selected. Undrawable points are never
// hit.
//
// Not safe for concurrent use: a brush move publishes synchronously and the
// broadcaster calls back into ApplyHighlight on the same goroutine.
// ============================================================================

// Scatter is a two-axis point chart.
type Scatter struct {
	id       string
	bus      *brush.Broadcaster
	throttle *brush.Throttle

	frame    *engine.Frame
	pixels   []orb.Point
	drawable []bool

	rect *orb.Bound
	sel  brush.SelectionSet
}

// NewScatter creates a scatter view and subscribes it to bus.
func NewScatter(id string, bus *brush.Broadcaster, opts ...Option) *Scatter {
	o := applyOptions(opts)
	s := &Scatter{id: id, bus: bus, sel: brush.Clear("")}
	s.throttle = brush.NewThrottle(o.interval, bus.Publish)
	bus.Subscribe(id, s.ApplyHighlight)
	return s
}

func (s *Scatter) ID() string { return s.id }

// Render places every point of frame. Highlight state carries over.
func (s *Scatter) Render(frame *engine.Frame) {
	s.frame = frame
	s.pixels = make([]orb.Point, len(frame.Points))
	s.drawable = make([]bool, len(frame.Points))

	xs, ys := frame.XScale(), frame.YScale()
	for i, p := range frame.Points {
		if !p.Drawable() {
			continue
		}
		x, y := xs.Map(p.XPos), ys.Map(p.YPos)
		switch frame.OffsetAxis {
		case engine.RoleX:
			x += p.Offset
		case engine.RoleY:
			y += p.Offset
		}
		s.pixels[i] = orb.Point{x, y}
		s.drawable[i] = true
	}
}

// Frame returns the last rendered frame.
func (s *Scatter) Frame() *engine.Frame { return s.frame }

// Pixel returns the rendered center of record id.
func (s *Scatter) Pixel(id int) (orb.Point, bool) {
	if id < 0 || id >= len(s.pixels) || !s.drawable[id] {
		return orb.Point{}, false
	}
	return s.pixels[id], true
}

// HitTest returns, in record order, the drawable points inside b.
func (s *Scatter) HitTest(b orb.Bound) []int {
	ids := []int{}
	for i, px := range s.pixels {
		if s.drawable[i] && b.Contains(px) {
			ids = append(ids, i)
		}
	}
	return ids
}

// BrushMove updates the brush rectangle and publishes the points under it.
func (s *Scatter) BrushMove(b orb.Bound) error {
	s.rect = &b
	return s.throttle.Submit(brush.NewSelection(s.id, s.HitTest(b)...))
}

// BrushEnd clears the rectangle and sends any held selection. The last
// published selection stays as the highlight.
func (s *Scatter) BrushEnd() error {
	s.rect = nil
	return s.throttle.Flush()
}

// Brush returns the active brush rectangle.
func (s *Scatter) Brush() (orb.Bound, bool) {
	if s.rect == nil {
		return orb.Bound{}, false
	}
	return *s.rect, true
}

// ApplyHighlight replaces the highlight state with sel.
func (s *Scatter) ApplyHighlight(sel brush.SelectionSet) { s.sel = sel }

// Mark returns the highlight state of record id.
func (s *Scatter) Mark(id int) Mark { return markFor(s.sel, id) }

// Marks returns the highlight state of every rendered point.
func (s *Scatter) Marks() []Mark {
	marks := make([]Mark, len(s.pixels))
	for i := range marks {
		marks[i] = markFor(s.sel, i)
	}
	return marks
}

// Close unsubscribes the view.
func (s *Scatter) Close() { s.bus.Unsubscribe(s.id) }
