package views

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/spektr-org/linkview/brush"
	"github.com/spektr-org/linkview/engine"
)

// ============================================================================
// VIEW ADAPTER TESTS
// ============================================================================

var carRecords = []engine.Record{
	{"origin": "USA", "mpg": 18, "hp": 130},
	{"origin": "Japan", "mpg": 24, "hp": 95},
	{"origin": "USA", "mpg": 18, "hp": 150},
	{"origin": "Europe", "mpg": 26, "hp": 46},
	{"origin": "Japan", "mpg": 31, "hp": 65},
	{"origin": "USA", "mpg": "", "hp": 190},
}

type linked struct {
	bus     *brush.Broadcaster
	view    engine.RecordView
	frame   *engine.Frame
	scatter *Scatter
	hist    *Histogram
	table   *Table
}

func newLinked(t *testing.T) *linked {
	t.Helper()
	l := &linked{bus: brush.NewBroadcaster(), view: engine.NewSliceView(carRecords, "origin", "mpg", "hp")}

	frame, err := engine.Transform(l.view, engine.Bindings{X: "origin", Y: "mpg"}, 10, 300, 200)
	if err != nil {
		t.Fatalf("Transform failed: %v", err)
	}
	l.frame = frame

	l.scatter = NewScatter("scatter1", l.bus, WithThrottle(0))
	l.scatter.Render(frame)

	l.hist = NewHistogram("hist1", l.bus, l.view, WithThrottle(0))
	if err := l.hist.Draw("mpg", 300); err != nil {
		t.Fatalf("Draw failed: %v", err)
	}

	l.table = NewTable("table", l.bus, l.view, 0)
	l.table.Render(frame)
	return l
}

func TestScatterPixelsIncludeOffset(t *testing.T) {
	l := newLinked(t)

	// rows 0 and 2 share (USA, 18): a cluster of two nudged along x
	p0, ok0 := l.scatter.Pixel(0)
	p2, ok2 := l.scatter.Pixel(2)
	if !ok0 || !ok2 {
		t.Fatal("clustered points should be drawable")
	}
	if p0[1] != p2[1] {
		t.Errorf("cluster members should share y: %v vs %v", p0, p2)
	}
	if p0[0] >= p2[0] {
		t.Errorf("first member should sit left of second: %v vs %v", p0, p2)
	}
	if mid := (p0[0] + p2[0]) / 2; math.Abs(mid-50) > 1e-9 {
		t.Errorf("cluster should center on the USA band (50px), got %v", mid)
	}

	if _, ok := l.scatter.Pixel(5); ok {
		t.Error("row with missing mpg should be undrawable")
	}
}

func TestScatterBrushLinksViews(t *testing.T) {
	l := newLinked(t)

	// left half of the USA band only catches the first cluster member
	p0, _ := l.scatter.Pixel(0)
	rect := Rect(p0[0]-1, 0, p0[0]+1, 200)
	if err := l.scatter.BrushMove(rect); err != nil {
		t.Fatalf("BrushMove failed: %v", err)
	}
	if _, ok := l.scatter.Brush(); !ok {
		t.Error("brush rectangle should be active while dragging")
	}

	if l.scatter.Mark(0) != Selected || l.scatter.Mark(2) != Unselected {
		t.Errorf("scatter marks = %v", l.scatter.Marks())
	}
	if !l.table.Selected(0) || l.table.Selected(2) {
		t.Error("table should mirror the scatter selection")
	}
	overlay := 0
	for _, b := range l.hist.Overlay() {
		overlay += b.Count()
	}
	if overlay != 1 {
		t.Errorf("histogram overlay count = %d, want 1", overlay)
	}

	if err := l.scatter.BrushEnd(); err != nil {
		t.Fatalf("BrushEnd failed: %v", err)
	}
	if _, ok := l.scatter.Brush(); ok {
		t.Error("brush rectangle should be cleared on end")
	}
	if l.scatter.Mark(0) != Selected {
		t.Error("last selection should persist after brush end")
	}
}

func TestBrushEmptyRectClears(t *testing.T) {
	l := newLinked(t)
	_ = l.bus.PublishIDs("x", 1)

	if err := l.scatter.BrushMove(Rect(-50, -50, -40, -40)); err != nil {
		t.Fatalf("BrushMove failed: %v", err)
	}
	for i, m := range l.scatter.Marks() {
		if m != Unmarked {
			t.Errorf("point %d mark = %v, want none", i, m)
		}
	}
	if l.table.Mark(1) != Unmarked {
		t.Error("table should clear on empty selection")
	}
}

func TestHighlightIdempotent(t *testing.T) {
	l := newLinked(t)
	sel := brush.NewSelection("scatter1", 1, 3)
	l.scatter.ApplyHighlight(sel)
	before := l.scatter.Marks()
	l.scatter.ApplyHighlight(sel)
	after := l.scatter.Marks()
	for i := range before {
		if before[i] != after[i] {
			t.Fatalf("mark %d toggled: %v → %v", i, before[i], after[i])
		}
	}
}

func TestHistogramBrush(t *testing.T) {
	l := newLinked(t)

	s := l.hist.Scale()
	x0, x1 := s.Map(17.5), s.Map(24.5)
	if err := l.hist.BrushMove(x0, x1); err != nil {
		t.Fatalf("BrushMove failed: %v", err)
	}
	for _, id := range []int{0, 1, 2} {
		if l.scatter.Mark(id) != Selected {
			t.Errorf("record %d should be selected", id)
		}
	}
	if l.scatter.Mark(3) != Unselected || l.hist.Mark(5) != Unselected {
		t.Error("records outside the range should be unselected")
	}
	if err := l.hist.BrushEnd(); err != nil {
		t.Errorf("BrushEnd failed: %v", err)
	}
}

func TestHistogramRenderDiscreteColumn(t *testing.T) {
	l := newLinked(t)
	l.hist.Render(l.frame) // x is "origin"
	if l.hist.Err() == nil {
		t.Error("binning a discrete column should fail")
	}
	if l.hist.Histogram() != nil {
		t.Error("failed render should leave the view empty")
	}
}

func TestTableRendering(t *testing.T) {
	l := newLinked(t)
	_ = l.bus.PublishIDs("scatter1", 1, 4)

	td := l.table.Data()
	if len(td.Columns) != 2 || td.Columns[0].Key != "origin" {
		t.Errorf("columns = %+v", td.Columns)
	}
	if len(td.Rows) != len(carRecords) || !td.Selected[1] || td.Selected[0] {
		t.Errorf("rows=%d selected=%v", len(td.Rows), td.Selected)
	}
	if td.Summary != "2 of 6 rows selected" {
		t.Errorf("summary = %q", td.Summary)
	}

	l.table.SelectedOnly(true)
	td = l.table.Data()
	if len(td.Rows) != 2 || td.IDs[0] != 1 || td.IDs[1] != 4 {
		t.Errorf("selected-only ids = %v", td.IDs)
	}

	out := l.table.String()
	for _, want := range []string{"origin", "mpg", "Japan", "31", "*"} {
		if !strings.Contains(out, want) {
			t.Errorf("rendered table missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Europe") {
		t.Errorf("selected-only table should hide unselected rows:\n%s", out)
	}
}

func TestCloseUnsubscribes(t *testing.T) {
	l := newLinked(t)
	l.table.Close()
	l.hist.Close()
	l.scatter.Close()
	if n := l.bus.Subscribers(); n != 0 {
		t.Errorf("subscribers after close = %d", n)
	}
}

// ============================================================================
// DASHBOARD
// ============================================================================

func TestDashboardLinksAllViews(t *testing.T) {
	view := engine.NewSliceView(carRecords, "origin", "mpg", "hp")
	d := NewDashboard(view, brush.NewBroadcaster(), DashboardConfig{HistColumn: "mpg"})
	defer d.Close()

	if _, err := d.Brush(ScatterID, 0, 0, 10, 10, true); !errors.Is(err, ErrNotDrawn) {
		t.Errorf("brush before draw: got %v", err)
	}
	if _, err := d.Draw(engine.Bindings{X: "origin", Y: "mpg"}, 10, 300, 200); err != nil {
		t.Fatalf("Draw failed: %v", err)
	}

	state, err := d.Brush(ScatterID, 0, 0, 300, 200, true)
	if err != nil {
		t.Fatalf("Brush failed: %v", err)
	}
	if got := state.Selection.IDs; len(got) != 5 || state.Selection.Source != ScatterID {
		t.Errorf("selection = %+v, want ids 0-4 from scatter", state.Selection)
	}
	if state.ScatterMarks[5] != Unselected || state.ScatterMarks[0] != Selected {
		t.Errorf("marks = %v", state.ScatterMarks)
	}
	overlay := 0
	for _, b := range state.Overlay {
		overlay += b.Count()
	}
	if overlay != 5 {
		t.Errorf("overlay count = %d, want 5", overlay)
	}
	if !strings.Contains(state.Table, "5 of 6 rows selected") {
		t.Errorf("table summary missing:\n%s", state.Table)
	}
	if rows := d.Table(true); len(rows.IDs) != 5 {
		t.Errorf("selected-only table rows = %d", len(rows.IDs))
	}

	state, err = d.Clear()
	if err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if !state.Selection.Empty() || state.ScatterMarks[5] != Unmarked {
		t.Errorf("clear left %+v", state.Selection)
	}

	if _, err := d.Brush("nope", 0, 0, 1, 1, false); !errors.Is(err, ErrUnknownView) {
		t.Errorf("unknown view: got %v", err)
	}
}

func TestDashboardHistogramFollowsX(t *testing.T) {
	view := engine.NewSliceView(carRecords, "origin", "mpg", "hp")
	d := NewDashboard(view, brush.NewBroadcaster(), DashboardConfig{})
	defer d.Close()

	if _, err := d.Draw(engine.Bindings{X: "hp", Y: "mpg"}, 5, 300, 200); err != nil {
		t.Fatalf("Draw failed: %v", err)
	}
	if st := d.State(); st.Histogram == nil || st.Histogram.Column != "hp" {
		t.Fatalf("histogram should bin the x column, got %+v", st.Histogram)
	}

	if _, err := d.Draw(engine.Bindings{X: "origin", Y: "mpg"}, 5, 300, 200); err != nil {
		t.Fatalf("Draw failed: %v", err)
	}
	if st := d.State(); st.HistogramErr == "" {
		t.Error("a discrete x column should report a histogram error")
	}
	if _, err := d.Brush(HistogramID, 0, 0, 100, 0, true); !errors.Is(err, ErrNotDrawn) {
		t.Errorf("histogram brush without bins: got %v", err)
	}
}

func TestDashboardSummary(t *testing.T) {
	view := engine.NewSliceView(carRecords, "origin", "mpg", "hp")
	d := NewDashboard(view, brush.NewBroadcaster(), DashboardConfig{HistColumn: "mpg"})
	defer d.Close()
	if _, err := d.Draw(engine.Bindings{X: "origin", Y: "mpg"}, 10, 300, 200); err != nil {
		t.Fatalf("Draw failed: %v", err)
	}
	// ids 0, 1, 2 have mpg in [17.5, 24.5]
	lo, hi := d.hist.Scale().Map(17.5), d.hist.Scale().Map(24.5)
	if _, err := d.Brush(HistogramID, lo, 0, hi, 0, true); err != nil {
		t.Fatalf("Brush failed: %v", err)
	}

	hp, err := d.Summary("hp")
	if err != nil {
		t.Fatalf("Summary failed: %v", err)
	}
	if hp.All == nil || hp.All.Count != 6 || hp.Selected.Count != 3 || hp.Selected.Sum != 375 {
		t.Errorf("hp summary = all %+v selected %+v", hp.All, hp.Selected)
	}

	origin, err := d.Summary("origin")
	if err != nil {
		t.Fatalf("Summary failed: %v", err)
	}
	if len(origin.AllGroups) != 3 || len(origin.SelectedGroups) != 2 {
		t.Errorf("origin groups = %v / %v", origin.AllGroups, origin.SelectedGroups)
	}

	if _, err := d.Summary("weight"); !errors.Is(err, engine.ErrUnknownColumn) {
		t.Errorf("unknown column: got %v", err)
	}
}
