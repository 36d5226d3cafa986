// Package linkview turns tabular records into plot geometry for linked
// views: a scatter, a histogram and a table that highlight each other's
// brushed selections.
//
// Usage:
//
//	import "github.com/spektr-org/linkview/engine"
//
//	frame, err := engine.Transform(view,
//	    engine.Bindings{X: "origin", Y: "mpg", Color: "origin"},
//	    5, 600, 400,
//	    engine.WithLogger(logger),
//	)
//
// The engine takes a RecordView (CSV, Arrow, DuckDB loaders in helpers, or
// typed structs through engine.DomainAdapter) and column bindings, and
// returns a Frame: per-record positions, overlap offsets, colors and sizes.
//
// Linking is handled by the brush package: views publish SelectionSets of
// record ids to an explicit Broadcaster and every subscriber re-highlights.
// The views package holds the scatter, histogram and table adapters; the
// server package serves them over HTTP.
package linkview
