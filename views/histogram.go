package views

import (
	"fmt"
	"math"

	"github.com/spektr-org/linkview/brush"
	"github.com/spektr-org/linkview/engine"
)

// ============================================================================
// HISTOGRAM — bars over one Continuous column, x-range brush
// ============================================================================
// The brush selects records whose value, mapped to pixels, lies within
// [x0, x1]. A selection from any view is shown as overlay bars rebinned
// over the same edges.
// ============================================================================

// Histogram is a one-column bar chart.
type Histogram struct {
	id       string
	bus      *brush.Broadcaster
	throttle *brush.Throttle
	data     engine.RecordView

	hist    *engine.Histogram
	scale   engine.PositionScale
	overlay []engine.Bin
	sel     brush.SelectionSet
	err     error
}

// NewHistogram creates a histogram view over data and subscribes it.
func NewHistogram(id string, bus *brush.Broadcaster, data engine.RecordView, opts ...Option) *Histogram {
	o := applyOptions(opts)
	h := &Histogram{id: id, bus: bus, data: data, sel: brush.Clear("")}
	h.throttle = brush.NewThrottle(o.interval, bus.Publish)
	bus.Subscribe(id, h.ApplyHighlight)
	return h
}

func (h *Histogram) ID() string { return h.id }

// Render bins the frame's x column across the frame's width. A column
// that cannot be binned leaves the view empty; see Err.
func (h *Histogram) Render(frame *engine.Frame) {
	h.err = h.Draw(frame.Bindings.X, frame.Width)
}

// Draw bins column across width pixels.
func (h *Histogram) Draw(column string, width float64, opts ...engine.Option) error {
	h.hist = nil
	hist, err := engine.BuildHistogram(h.data, column, opts...)
	if err != nil {
		return fmt.Errorf("histogram %s: %w", h.id, err)
	}
	h.hist = hist
	h.scale = engine.NewPositionScale(hist.Domain, 0, width)
	h.ApplyHighlight(h.sel)
	return nil
}

// Err returns the error from the last Render.
func (h *Histogram) Err() error { return h.err }

// Histogram returns the current bins, nil before a successful draw.
func (h *Histogram) Histogram() *engine.Histogram { return h.hist }

// Overlay returns the selected-subset bins.
func (h *Histogram) Overlay() []engine.Bin { return h.overlay }

// Scale maps values to pixels.
func (h *Histogram) Scale() engine.PositionScale { return h.scale }

// IDsInPixels returns the records whose value maps into [x0, x1].
func (h *Histogram) IDsInPixels(x0, x1 float64) []int {
	if x0 > x1 {
		x0, x1 = x1, x0
	}
	ids := []int{}
	if h.hist == nil {
		return ids
	}
	for id := 0; id < h.hist.Len(); id++ {
		v := h.hist.Value(id)
		if math.IsNaN(v) {
			continue
		}
		if px := h.scale.Map(v); px >= x0 && px <= x1 {
			ids = append(ids, id)
		}
	}
	return ids
}

// BrushMove publishes the records under the pixel range [x0, x1].
func (h *Histogram) BrushMove(x0, x1 float64) error {
	return h.throttle.Submit(brush.NewSelection(h.id, h.IDsInPixels(x0, x1)...))
}

// BrushEnd sends any held selection.
func (h *Histogram) BrushEnd() error { return h.throttle.Flush() }

// ApplyHighlight rebins the overlay for sel.
func (h *Histogram) ApplyHighlight(sel brush.SelectionSet) {
	h.sel = sel
	if h.hist == nil {
		h.overlay = nil
		return
	}
	h.overlay = h.hist.Overlay(sel.IDs)
}

// Mark returns the highlight state of record id.
func (h *Histogram) Mark(id int) Mark { return markFor(h.sel, id) }

// Close unsubscribes the view.
func (h *Histogram) Close() { h.bus.Unsubscribe(h.id) }
