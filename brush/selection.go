package brush

import (
	"slices"
	"sort"
)

// SelectionSet is a set of record ids published by one view. The ids are
// kept sorted and unique. An empty set means "clear all highlighting".
type SelectionSet struct {
	IDs    []int  `json:"ids" msgpack:"ids"`
	Source string `json:"source" msgpack:"source"`
}

// NewSelection builds a SelectionSet from ids in any order.
func NewSelection(source string, ids ...int) SelectionSet {
	sorted := make([]int, len(ids))
	copy(sorted, ids)
	sort.Ints(sorted)
	return SelectionSet{IDs: slices.Compact(sorted), Source: source}
}

// Clear is the empty selection from source.
func Clear(source string) SelectionSet {
	return SelectionSet{IDs: []int{}, Source: source}
}

// Len returns the number of selected ids.
func (s SelectionSet) Len() int { return len(s.IDs) }

// Empty reports whether nothing is selected.
func (s SelectionSet) Empty() bool { return len(s.IDs) == 0 }

// Contains reports whether id is selected.
func (s SelectionSet) Contains(id int) bool {
	_, ok := slices.BinarySearch(s.IDs, id)
	return ok
}

// SameIDs reports whether s and o select the same ids, ignoring Source.
func (s SelectionSet) SameIDs(o SelectionSet) bool {
	return slices.Equal(s.IDs, o.IDs)
}
