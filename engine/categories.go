package engine

import (
	"math"

	"github.com/spektr-org/linkview/schema"
)

// ============================================================================
// CATEGORY ENCODER — Stable ordinal positions for Discrete columns
// ============================================================================
// Keys keep first-occurrence order; nothing is sorted, so the same input
// always yields the same table. Missing values share the "" category.
// Encode returns ordinal+0.5 so a point sits at the center of its band.
// ============================================================================

// CategoryTable is the ordered set of distinct keys in a Discrete column.
type CategoryTable struct {
	keys  []string
	index map[string]int
}

// BuildCategories scans values in order and records each new key.
func BuildCategories(values []schema.Value) *CategoryTable {
	t := &CategoryTable{index: make(map[string]int)}
	for _, v := range values {
		t.add(schema.Key(v))
	}
	return t
}

func (t *CategoryTable) add(key string) {
	if _, ok := t.index[key]; ok {
		return
	}
	t.index[key] = len(t.keys)
	t.keys = append(t.keys, key)
}

// Keys returns the categories in first-occurrence order.
func (t *CategoryTable) Keys() []string { return t.keys }

// Len returns the number of categories.
func (t *CategoryTable) Len() int { return len(t.keys) }

// Ordinal returns the index of v's key, or -1 if unseen.
func (t *CategoryTable) Ordinal(v schema.Value) int {
	if i, ok := t.index[schema.Key(v)]; ok {
		return i
	}
	return -1
}

// Encode returns ordinal+0.5, or NaN for an unseen value.
func (t *CategoryTable) Encode(v schema.Value) float64 {
	i := t.Ordinal(v)
	if i < 0 {
		return math.NaN()
	}
	return float64(i) + 0.5
}
