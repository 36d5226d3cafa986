package engine

import (
	"fmt"
	"math"

	"github.com/aclements/go-moremath/stats"

	"github.com/spektr-org/linkview/schema"
)

// ============================================================================
// SUMMARY — column statistics and group counts via RecordView
// ============================================================================
// Used to describe a selection next to the whole dataset: pass a SubView of
// the selected ids and the full view, compare the two.
// ============================================================================

// Stats summarizes the numeric values of one column.
type Stats struct {
	Column  string  `json:"column" msgpack:"column"`
	Count   int     `json:"count" msgpack:"count"`
	Missing int     `json:"missing" msgpack:"missing"`
	Sum     float64 `json:"sum" msgpack:"sum"`
	Mean    float64 `json:"mean" msgpack:"mean"`
	Min     float64 `json:"min" msgpack:"min"`
	Max     float64 `json:"max" msgpack:"max"`
}

// GroupCount is one distinct value of a column and how often it occurs.
type GroupCount struct {
	Key   string `json:"key" msgpack:"key"`
	Count int    `json:"count" msgpack:"count"`
}

// Summarize computes Stats for column. Values that are not finite numbers
// count as Missing. With no finite values every statistic is zero.
func Summarize(view RecordView, column string) (Stats, error) {
	if !HasKey(view, column) {
		return Stats{}, fmt.Errorf("%w: %q", ErrUnknownColumn, column)
	}

	s := Stats{Column: column}
	nums := make([]float64, 0, view.Len())
	for i := 0; i < view.Len(); i++ {
		f := finiteNumber(view.Value(i, column))
		if math.IsNaN(f) {
			s.Missing++
			continue
		}
		nums = append(nums, f)
		s.Sum += f
	}

	s.Count = len(nums)
	if s.Count == 0 {
		return s, nil
	}
	s.Mean = stats.Mean(nums)
	s.Min, s.Max = stats.Bounds(nums)
	return s, nil
}

// CountGroups counts each distinct value of column, in first-occurrence
// order. Missing values share the "" group.
func CountGroups(view RecordView, column string) ([]GroupCount, error) {
	if !HasKey(view, column) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, column)
	}

	index := make(map[string]int)
	groups := []GroupCount{}
	for i := 0; i < view.Len(); i++ {
		key := schema.Key(view.Value(i, column))
		j, seen := index[key]
		if !seen {
			j = len(groups)
			index[key] = j
			groups = append(groups, GroupCount{Key: key})
		}
		groups[j].Count++
	}
	return groups, nil
}
