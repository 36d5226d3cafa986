package engine

import (
	"fmt"
	"math"
	"sort"

	"github.com/spektr-org/linkview/schema"
)

// ============================================================================
// HISTOGRAM BINNING — Numeric column → bins of record ids
// ============================================================================
// Domain is the value extent widened to tick boundaries; the scale's ticks
// are the thresholds. Bins are [x0, x1) except the last, which is closed.
// Every bin keeps its member ids so a brushed range or a selection overlay
// can be resolved without rereading the view.
// ============================================================================

// Bin is one histogram bar.
type Bin struct {
	X0  float64 `json:"x0" msgpack:"x0"`
	X1  float64 `json:"x1" msgpack:"x1"`
	IDs []int   `json:"ids" msgpack:"ids"`
}

// Count returns the number of records in the bin.
func (b Bin) Count() int { return len(b.IDs) }

// Histogram is the binned form of one Continuous column.
type Histogram struct {
	Column string    `json:"column" msgpack:"column"`
	Domain Domain    `json:"domain" msgpack:"domain"`
	Edges  []float64 `json:"edges" msgpack:"edges"`
	Bins   []Bin     `json:"bins" msgpack:"bins"`

	values []float64 // by record id, NaN when missing
}

// BuildHistogram bins column. The column must exist and be Continuous.
func BuildHistogram(view RecordView, column string, opts ...Option) (*Histogram, error) {
	cfg := applyOptions(opts)
	if !HasKey(view, column) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, column)
	}
	raw := ColumnValues(view, column)
	if schema.Classify(raw) != schema.Continuous {
		return nil, fmt.Errorf("%w: %q", ErrNotContinuous, column)
	}

	h := &Histogram{Column: column, values: make([]float64, len(raw))}
	for i, v := range raw {
		h.values[i] = finiteNumber(v)
	}
	lo, hi, _ := Extent(h.values)

	s := NewPositionScale(Domain{Min: lo, Max: hi}, 0, 1).Nice(cfg.MaxBins)
	h.Domain = s.Domain
	h.Edges = []float64{h.Domain.Min}
	for _, t := range s.Ticks(cfg.MaxBins) {
		if t > h.Domain.Min && t < h.Domain.Max {
			h.Edges = append(h.Edges, t)
		}
	}
	if h.Domain.Max > h.Domain.Min {
		h.Edges = append(h.Edges, h.Domain.Max)
	} else {
		h.Edges = append(h.Edges, h.Domain.Min)
	}

	h.Bins = h.bin(func(int) bool { return true })
	cfg.Logger.Debug("linkview: histogram",
		"column", column, "bins", len(h.Bins), "min", h.Domain.Min, "max", h.Domain.Max)
	return h, nil
}

// bin assigns every id accepted by keep to its bin.
func (h *Histogram) bin(keep func(id int) bool) []Bin {
	bins := make([]Bin, len(h.Edges)-1)
	for i := range bins {
		bins[i] = Bin{X0: h.Edges[i], X1: h.Edges[i+1]}
	}
	for id, v := range h.values {
		if math.IsNaN(v) || !keep(id) {
			continue
		}
		if i := h.binIndex(v); i >= 0 {
			bins[i].IDs = append(bins[i].IDs, id)
		}
	}
	return bins
}

// binIndex finds the bin holding v, or -1 outside the domain.
func (h *Histogram) binIndex(v float64) int {
	if v < h.Domain.Min || v > h.Domain.Max {
		return -1
	}
	i := sort.Search(len(h.Edges), func(k int) bool { return h.Edges[k] > v }) - 1
	if i >= len(h.Edges)-1 {
		i = len(h.Edges) - 2
	}
	return i
}

// Value returns the numeric value of record id, NaN if missing.
func (h *Histogram) Value(id int) float64 {
	if id < 0 || id >= len(h.values) {
		return math.NaN()
	}
	return h.values[id]
}

// Len returns the number of records the histogram was built from.
func (h *Histogram) Len() int { return len(h.values) }

// IDsInRange returns, in record order, the ids whose value lies in [lo, hi].
func (h *Histogram) IDsInRange(lo, hi float64) []int {
	if lo > hi {
		lo, hi = hi, lo
	}
	ids := []int{}
	for id, v := range h.values {
		if !math.IsNaN(v) && v >= lo && v <= hi {
			ids = append(ids, id)
		}
	}
	return ids
}

// Overlay rebins only the given ids over the same edges.
func (h *Histogram) Overlay(ids []int) []Bin {
	set := make(map[int]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return h.bin(func(id int) bool { return set[id] })
}

// MaxCount returns the tallest bin's count.
func (h *Histogram) MaxCount() int {
	m := 0
	for _, b := range h.Bins {
		if b.Count() > m {
			m = b.Count()
		}
	}
	return m
}
