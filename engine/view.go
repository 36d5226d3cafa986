package engine

import (
	"sort"

	"github.com/spektr-org/linkview/schema"
)

// ============================================================================
// RECORD VIEW — Zero-Copy Data Access Interface
// ============================================================================
// The engine never owns consumer data. It reads through this interface.
//
// Implementations:
//   SliceView      : wraps []Record (CSV, Arrow, SQL loaders, ad-hoc)
//   DomainView[T]  : reads typed structs via accessor functions (zero-copy)
//   SubView        : subset by record id (indices into parent, zero-copy)
//
// Index i of a view is the RecordId the engine assigns to that row.
// ============================================================================

// RecordView provides indexed access to a dataset.
// The engine calls Value in tight loops; keep implementations fast.
type RecordView interface {
	Len() int
	Value(index int, key string) schema.Value
	Keys() []string // available column keys
}

// HasKey reports whether view exposes key.
func HasKey(view RecordView, key string) bool {
	for _, k := range view.Keys() {
		if k == key {
			return true
		}
	}
	return false
}

// ColumnValues reads one column in record order.
func ColumnValues(view RecordView, key string) []schema.Value {
	values := make([]schema.Value, view.Len())
	for i := range values {
		values[i] = view.Value(i, key)
	}
	return values
}

// ============================================================================
// SLICE VIEW — wraps []Record
// ============================================================================

// SliceView wraps a []Record slice as a RecordView.
// Used by the helpers loaders and ad-hoc consumers.
type SliceView struct {
	records []Record
	keys    []string
}

// NewSliceView creates a RecordView from a []Record slice. keys fixes the
// column order (a loader passes its header); without it the keys are the
// union of record keys, each record's new keys sorted.
func NewSliceView(records []Record, keys ...string) RecordView {
	v := &SliceView{records: records}
	if len(keys) > 0 {
		v.keys = keys
	} else {
		v.cacheKeys()
	}
	return v
}

func (v *SliceView) cacheKeys() {
	seen := make(map[string]bool)
	for _, r := range v.records {
		var fresh []string
		for k := range r {
			if !seen[k] {
				seen[k] = true
				fresh = append(fresh, k)
			}
		}
		sort.Strings(fresh)
		v.keys = append(v.keys, fresh...)
	}
}

func (v *SliceView) Len() int { return len(v.records) }

func (v *SliceView) Value(i int, key string) schema.Value {
	if i < 0 || i >= len(v.records) {
		return nil
	}
	return v.records[i][key]
}

func (v *SliceView) Keys() []string { return v.keys }

// Records returns the wrapped slice.
func (v *SliceView) Records() []Record { return v.records }

// ============================================================================
// SUB VIEW — subset by record id (zero-copy)
// ============================================================================

// SubView is a subset of a parent RecordView.
// Holds indices into the parent, no data copy.
type SubView struct {
	parent  RecordView
	indices []int
}

// NewSubView selects ids from parent, in the order given. Out-of-range ids
// are dropped.
func NewSubView(parent RecordView, ids []int) *SubView {
	indices := make([]int, 0, len(ids))
	for _, id := range ids {
		if id >= 0 && id < parent.Len() {
			indices = append(indices, id)
		}
	}
	return &SubView{parent: parent, indices: indices}
}

func (v *SubView) Len() int { return len(v.indices) }

func (v *SubView) Value(i int, key string) schema.Value {
	if i < 0 || i >= len(v.indices) {
		return nil
	}
	return v.parent.Value(v.indices[i], key)
}

func (v *SubView) Keys() []string { return v.parent.Keys() }

// ID maps a SubView index back to the parent's record id.
func (v *SubView) ID(i int) int { return v.indices[i] }

// ============================================================================
// DOMAIN ADAPTER — Zero-copy typed struct access
// ============================================================================
//
// Usage:
//
//	adapter := engine.NewDomainAdapter[Car]().
//	    Dimension("origin", func(c Car) string { return c.Origin }).
//	    Measure("mpg", func(c Car) float64 { return c.MPG })
//
//	view := adapter.Bind(cars)
//	frame, _ := engine.Transform(view, engine.Bindings{X: "origin", Y: "mpg"}, 5, 600, 400)
//
// ============================================================================

// DomainAdapter builds a RecordView from typed structs.
// Declare once, bind many times.
type DomainAdapter[T any] struct {
	order []string
	cols  map[string]func(T) schema.Value
}

// NewDomainAdapter creates a new adapter for type T.
func NewDomainAdapter[T any]() *DomainAdapter[T] {
	return &DomainAdapter[T]{
		cols: make(map[string]func(T) schema.Value),
	}
}

// Column registers a raw accessor.
func (a *DomainAdapter[T]) Column(key string, fn func(T) schema.Value) *DomainAdapter[T] {
	if _, exists := a.cols[key]; !exists {
		a.order = append(a.order, key)
	}
	a.cols[key] = fn
	return a
}

// Dimension registers a string accessor.
func (a *DomainAdapter[T]) Dimension(key string, fn func(T) string) *DomainAdapter[T] {
	return a.Column(key, func(t T) schema.Value { return fn(t) })
}

// Measure registers a numeric accessor.
func (a *DomainAdapter[T]) Measure(key string, fn func(T) float64) *DomainAdapter[T] {
	return a.Column(key, func(t T) schema.Value { return fn(t) })
}

// Bind creates a RecordView from a data slice. Zero-copy, holds a reference.
func (a *DomainAdapter[T]) Bind(data []T) RecordView {
	return &DomainView[T]{
		data: data,
		cols: a.cols,
		keys: a.order,
	}
}

// DomainView reads typed struct fields via registered accessor functions.
type DomainView[T any] struct {
	data []T
	cols map[string]func(T) schema.Value
	keys []string
}

func (v *DomainView[T]) Len() int { return len(v.data) }

func (v *DomainView[T]) Value(i int, key string) schema.Value {
	if i < 0 || i >= len(v.data) {
		return nil
	}
	if fn, ok := v.cols[key]; ok {
		return fn(v.data[i])
	}
	return nil
}

func (v *DomainView[T]) Keys() []string { return v.keys }
