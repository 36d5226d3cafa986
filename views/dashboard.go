package views

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/spektr-org/linkview/brush"
	"github.com/spektr-org/linkview/engine"
	"github.com/spektr-org/linkview/schema"
)

// ============================================================================
// DASHBOARD — scatter + histogram + table over one broadcaster
// ============================================================================
// The linked-views session the HTTP server and the CLI session both drive.
// One mutex serializes every draw and brush so the views, which are not
// safe for concurrent use, only ever see one caller.
// ============================================================================

// View ids inside a Dashboard.
const (
	ScatterID   = "scatter"
	HistogramID = "histogram"
	TableID     = "table"
)

// ErrNotDrawn is returned by brush calls before the first Draw.
var ErrNotDrawn = errors.New("views: dashboard not drawn")

// ErrUnknownView is returned when a brush names a view that cannot brush.
var ErrUnknownView = errors.New("views: unknown view")

// DashboardConfig sizes the views.
type DashboardConfig struct {
	// HistColumn is binned by the histogram; "" follows the x binding.
	HistColumn string
	// MaxRows caps the table (0 = all).
	MaxRows int
	// Throttle is the brush publish interval; zero publishes every move.
	Throttle time.Duration
}

// State is the linked highlight after a draw or brush.
type State struct {
	Selection    brush.SelectionSet `json:"selection" msgpack:"selection"`
	ScatterMarks []Mark             `json:"scatterMarks" msgpack:"scatterMarks"`
	Histogram    *engine.Histogram  `json:"histogram,omitempty" msgpack:"histogram,omitempty"`
	Overlay      []engine.Bin       `json:"overlay,omitempty" msgpack:"overlay,omitempty"`
	HistogramErr string             `json:"histogramError,omitempty" msgpack:"histogramError,omitempty"`
	Table        string             `json:"table" msgpack:"table"`
}

// Dashboard owns one linked session over a dataset.
type Dashboard struct {
	mu         sync.Mutex
	data       engine.RecordView
	cfg        DashboardConfig
	engineOpts []engine.Option

	bus     *brush.Broadcaster
	scatter *Scatter
	hist    *Histogram
	table   *Table
	frame   *engine.Frame
}

// NewDashboard builds and subscribes the three views.
func NewDashboard(data engine.RecordView, bus *brush.Broadcaster, cfg DashboardConfig, engineOpts ...engine.Option) *Dashboard {
	throttle := WithThrottle(cfg.Throttle)
	return &Dashboard{
		data:       data,
		cfg:        cfg,
		engineOpts: engineOpts,
		bus:        bus,
		scatter:    NewScatter(ScatterID, bus, throttle),
		hist:       NewHistogram(HistogramID, bus, data, throttle),
		table:      NewTable(TableID, bus, data, cfg.MaxRows),
	}
}

// Data returns the dataset the views read.
func (d *Dashboard) Data() engine.RecordView { return d.data }

// Draw recomputes the frame and renders every view. The current selection
// carries over to the new geometry.
func (d *Dashboard) Draw(b engine.Bindings, radius, width, height float64) (*engine.Frame, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	frame, err := engine.Transform(d.data, b, radius, width, height, d.engineOpts...)
	if err != nil {
		return nil, err
	}
	d.frame = frame
	d.scatter.Render(frame)
	d.table.Render(frame)

	col := d.cfg.HistColumn
	if col == "" {
		col = b.X
	}
	d.hist.err = d.hist.Draw(col, width, d.engineOpts...)
	return frame, nil
}

// Frame returns the last drawn frame, nil before Draw.
func (d *Dashboard) Frame() *engine.Frame {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.frame
}

// Brush moves the brush of view over a pixel rectangle. The histogram
// brushes along x only. end finishes the gesture.
func (d *Dashboard) Brush(view string, x0, y0, x1, y1 float64, end bool) (State, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.frame == nil {
		return State{}, ErrNotDrawn
	}

	var err error
	switch view {
	case ScatterID:
		err = d.scatter.BrushMove(Rect(x0, y0, x1, y1))
		if err == nil && end {
			err = d.scatter.BrushEnd()
		}
	case HistogramID:
		if d.hist.Histogram() == nil {
			return d.state(), fmt.Errorf("%w: %v", ErrNotDrawn, d.hist.Err())
		}
		err = d.hist.BrushMove(x0, x1)
		if err == nil && end {
			err = d.hist.BrushEnd()
		}
	default:
		return State{}, fmt.Errorf("%w: %q", ErrUnknownView, view)
	}
	return d.state(), err
}

// Clear publishes the empty selection.
func (d *Dashboard) Clear() (State, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	err := d.bus.Publish(brush.Clear(""))
	return d.state(), err
}

// State returns the current linked highlight.
func (d *Dashboard) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state()
}

// Table returns a snapshot of the table view.
func (d *Dashboard) Table(selectedOnly bool) *TableData {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.table.SelectedOnly(selectedOnly)
	defer d.table.SelectedOnly(false)
	return d.table.Data()
}

// ColumnSummary compares one column over the selection and the dataset.
// Continuous columns get Stats, Discrete columns get group counts.
type ColumnSummary struct {
	Column         string              `json:"column" msgpack:"column"`
	Kind           schema.Kind         `json:"kind" msgpack:"kind"`
	All            *engine.Stats       `json:"all,omitempty" msgpack:"all,omitempty"`
	Selected       *engine.Stats       `json:"selected,omitempty" msgpack:"selected,omitempty"`
	AllGroups      []engine.GroupCount `json:"allGroups,omitempty" msgpack:"allGroups,omitempty"`
	SelectedGroups []engine.GroupCount `json:"selectedGroups,omitempty" msgpack:"selectedGroups,omitempty"`
}

// Summary describes column for the selected rows and for all rows.
func (d *Dashboard) Summary(column string) (*ColumnSummary, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !engine.HasKey(d.data, column) {
		return nil, fmt.Errorf("%w: %q", engine.ErrUnknownColumn, column)
	}
	selected := d.table.SelectedRows()
	cs := &ColumnSummary{
		Column: column,
		Kind:   schema.Classify(engine.ColumnValues(d.data, column)),
	}

	if cs.Kind == schema.Continuous {
		all, err := engine.Summarize(d.data, column)
		if err != nil {
			return nil, err
		}
		sel, err := engine.Summarize(selected, column)
		if err != nil {
			return nil, err
		}
		cs.All, cs.Selected = &all, &sel
		return cs, nil
	}

	var err error
	if cs.AllGroups, err = engine.CountGroups(d.data, column); err != nil {
		return nil, err
	}
	if cs.SelectedGroups, err = engine.CountGroups(selected, column); err != nil {
		return nil, err
	}
	return cs, nil
}

// Close unsubscribes every view.
func (d *Dashboard) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.scatter.Close()
	d.hist.Close()
	d.table.Close()
}

func (d *Dashboard) state() State {
	s := State{
		Selection:    d.bus.Last(),
		ScatterMarks: d.scatter.Marks(),
		Histogram:    d.hist.Histogram(),
		Overlay:      d.hist.Overlay(),
		Table:        d.table.String(),
	}
	if err := d.hist.Err(); err != nil {
		s.HistogramErr = err.Error()
	}
	return s
}
