package engine

import (
	"errors"
	"math"
	"testing"
)

// ============================================================================
// HISTOGRAM TESTS
// ============================================================================

func mpgRecords() []Record {
	mpg := []any{18, 15, 18, 16, 17, 15, 14, 24, 22, 18, 21, 27, 26, 25, 24, "", 31, 35, 44.6, 9}
	records := make([]Record, len(mpg))
	for i, v := range mpg {
		records[i] = Record{"mpg": v, "origin": []string{"USA", "Japan"}[i%2]}
	}
	return records
}

func TestBuildHistogram(t *testing.T) {
	view := NewSliceView(mpgRecords())
	h, err := BuildHistogram(view, "mpg")
	if err != nil {
		t.Fatalf("BuildHistogram failed: %v", err)
	}

	if h.Domain.Min > 9 || h.Domain.Max < 44.6 {
		t.Errorf("domain %+v should contain the extent [9, 44.6]", h.Domain)
	}
	if len(h.Bins) == 0 || len(h.Bins) > 12 {
		t.Fatalf("bins = %d", len(h.Bins))
	}
	for i := 1; i < len(h.Edges); i++ {
		if h.Edges[i] <= h.Edges[i-1] {
			t.Fatalf("edges not ascending: %v", h.Edges)
		}
	}

	total := 0
	for i, b := range h.Bins {
		total += b.Count()
		for _, id := range b.IDs {
			v := h.Value(id)
			last := i == len(h.Bins)-1
			if v < b.X0 || v > b.X1 || (!last && v == b.X1) {
				t.Errorf("value %v (id %d) in bin [%v, %v)", v, id, b.X0, b.X1)
			}
		}
	}
	if total != 19 {
		t.Errorf("binned %d values, want 19 (one missing)", total)
	}
	if !math.IsNaN(h.Value(15)) {
		t.Error("missing value should read as NaN")
	}
}

func TestHistogramRangeAndOverlay(t *testing.T) {
	h, err := BuildHistogram(NewSliceView(mpgRecords()), "mpg")
	if err != nil {
		t.Fatalf("BuildHistogram failed: %v", err)
	}

	ids := h.IDsInRange(24, 15)
	want := []int{0, 1, 2, 3, 4, 5, 7, 8, 9, 10, 14}
	if len(ids) != len(want) {
		t.Fatalf("IDsInRange = %v, want %v", ids, want)
	}
	for i := range ids {
		if ids[i] != want[i] {
			t.Fatalf("IDsInRange = %v, want %v", ids, want)
		}
	}

	overlay := h.Overlay([]int{0, 2, 9, 15})
	if len(overlay) != len(h.Bins) {
		t.Fatalf("overlay has %d bins, want %d", len(overlay), len(h.Bins))
	}
	count := 0
	for _, b := range overlay {
		count += b.Count()
	}
	if count != 3 {
		t.Errorf("overlay count = %d, want 3 (id 15 is missing)", count)
	}
	if h.MaxCount() < 1 {
		t.Error("MaxCount should be positive")
	}
}

func TestHistogramSingleValue(t *testing.T) {
	records := []Record{{"v": 5}, {"v": 5}}
	h, err := BuildHistogram(NewSliceView(records), "v")
	if err != nil {
		t.Fatalf("BuildHistogram failed: %v", err)
	}
	if len(h.Bins) != 1 || h.Bins[0].Count() != 2 {
		t.Errorf("single-value bins = %+v", h.Bins)
	}
}

func TestHistogramErrors(t *testing.T) {
	view := NewSliceView(mpgRecords())
	if _, err := BuildHistogram(view, "nope"); !errors.Is(err, ErrUnknownColumn) {
		t.Errorf("unknown column: got %v", err)
	}
	if _, err := BuildHistogram(view, "origin"); !errors.Is(err, ErrNotContinuous) {
		t.Errorf("discrete column: got %v", err)
	}
}
