package engine

import (
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/spektr-org/linkview/schema"
)

// ============================================================================
// TRANSFORM TESTS
// ============================================================================

var abRecords = []Record{
	{"a": 1, "b": "x"},
	{"a": 2, "b": "y"},
	{"a": 3, "b": "x"},
}

func TestTransformEndToEnd(t *testing.T) {
	frame, err := TransformRecords(abRecords, Bindings{X: "b", Y: "a"}, 5, 300, 200)
	if err != nil {
		t.Fatalf("Transform failed: %v", err)
	}

	if frame.X.Kind != schema.Discrete {
		t.Errorf("x kind = %v, want discrete", frame.X.Kind)
	}
	if frame.Y.Kind != schema.Continuous {
		t.Errorf("y kind = %v, want continuous", frame.Y.Kind)
	}
	assertStrings(t, frame.X.Categories, []string{"x", "y"}, "x categories")

	wantX := []float64{0.5, 1.5, 0.5}
	for i, p := range frame.Points {
		if p.XPos != wantX[i] {
			t.Errorf("point %d xPos = %v, want %v", i, p.XPos, wantX[i])
		}
		if p.Offset != 0 {
			t.Errorf("point %d offset = %v, want 0", i, p.Offset)
		}
	}
	if frame.Points[0].YPos != 1 || frame.Points[2].YPos != 3 {
		t.Errorf("y positions = %v, %v", frame.Points[0].YPos, frame.Points[2].YPos)
	}
	if frame.OffsetAxis != RoleX {
		t.Errorf("offset axis = %q, want x", frame.OffsetAxis)
	}
	if frame.X.Domain != (Domain{0, 2}) {
		t.Errorf("x domain = %+v, want [0,2]", frame.X.Domain)
	}
	assertFloat(t, frame.Y.Domain.Min, 0.9, "y domain min")
	assertFloat(t, frame.Y.Domain.Max, 3.1, "y domain max")
}

func TestTransformIDsExact(t *testing.T) {
	records := make([]Record, 50)
	for i := range records {
		records[i] = Record{"v": i % 7, "g": string(rune('a' + i%3))}
	}
	frame, err := TransformRecords(records, Bindings{X: "g", Y: "v", Color: "g"}, 4, 400, 400)
	if err != nil {
		t.Fatalf("Transform failed: %v", err)
	}
	if len(frame.Points) != len(records) {
		t.Fatalf("got %d points for %d records", len(frame.Points), len(records))
	}
	seen := make(map[int]bool)
	for i, p := range frame.Points {
		if p.ID != i || seen[p.ID] {
			t.Fatalf("point %d has id %d", i, p.ID)
		}
		seen[p.ID] = true
	}
}

func TestTransformUnparsableIsUndrawable(t *testing.T) {
	records := []Record{
		{"x": "1", "y": "10"},
		{"x": "", "y": "20"},
		{"x": "3", "y": nil},
	}
	frame, err := TransformRecords(records, Bindings{X: "x", Y: "y"}, 5, 100, 100)
	if err != nil {
		t.Fatalf("Transform failed: %v", err)
	}
	if !math.IsNaN(frame.Points[1].XPos) || !math.IsNaN(frame.Points[2].YPos) {
		t.Error("missing continuous values should be NaN")
	}
	if frame.Points[0].XPos != 1 {
		t.Errorf("xPos = %v, want 1", frame.Points[0].XPos)
	}
	if frame.Quality.Undrawable != 2 {
		t.Errorf("undrawable = %d, want 2", frame.Quality.Undrawable)
	}
	if frame.Quality.Unparsable[RoleX] != 1 || frame.Quality.Unparsable[RoleY] != 1 {
		t.Errorf("unparsable = %v", frame.Quality.Unparsable)
	}
	if !strings.Contains(frame.Quality.Summary(), "2 undrawable") {
		t.Errorf("summary = %q", frame.Quality.Summary())
	}

	b, err := json.Marshal(frame.Points[1])
	if err != nil {
		t.Fatalf("marshal undrawable point: %v", err)
	}
	if !strings.Contains(string(b), `"xPos":null`) {
		t.Errorf("undrawable xPos should encode as null: %s", b)
	}
}

func TestTransformUnbound(t *testing.T) {
	frame, err := TransformRecords(abRecords, Bindings{}, 6, 100, 100)
	if err != nil {
		t.Fatalf("Transform failed: %v", err)
	}
	for _, p := range frame.Points {
		if p.XPos != 0.5 || p.YPos != 0.5 {
			t.Errorf("unbound positions = (%v, %v), want (0.5, 0.5)", p.XPos, p.YPos)
		}
		if p.Color != "black" || p.Size != 6 {
			t.Errorf("unbound color/size = %q/%v", p.Color, p.Size)
		}
		if p.Offset != 0 {
			t.Errorf("offset = %v, want 0", p.Offset)
		}
	}
	assertStrings(t, frame.X.Categories, []string{""}, "unbound x categories")
	if frame.X.Bound {
		t.Error("x should be reported unbound")
	}
	if len(frame.Quality.Degenerate) != 0 {
		t.Errorf("unbound roles are not degenerate: %v", frame.Quality.Degenerate)
	}
}

func TestTransformStripPlot(t *testing.T) {
	records := []Record{{"v": 2}, {"v": 2}, {"v": 5}}
	frame, err := TransformRecords(records, Bindings{Y: "v"}, 10, 100, 100)
	if err != nil {
		t.Fatalf("Transform failed: %v", err)
	}
	if frame.OffsetAxis != RoleX {
		t.Fatalf("offset axis = %q, want x", frame.OffsetAxis)
	}
	// one band of 100px, largest cluster 2: r = min(10, 100*0.8/2/2) = 10
	if frame.Points[0].Offset != -10 || frame.Points[1].Offset != 10 || frame.Points[2].Offset != 0 {
		t.Errorf("offsets = %v %v %v", frame.Points[0].Offset, frame.Points[1].Offset, frame.Points[2].Offset)
	}
}

func TestTransformDegenerateColumn(t *testing.T) {
	records := []Record{{"a": 1, "n": ""}, {"a": 2, "n": nil}}
	frame, err := TransformRecords(records, Bindings{X: "n", Y: "a"}, 5, 100, 100)
	if err != nil {
		t.Fatalf("Transform failed: %v", err)
	}
	if frame.X.Kind != schema.Discrete || len(frame.X.Categories) != 1 {
		t.Errorf("degenerate x: kind=%v categories=%v", frame.X.Kind, frame.X.Categories)
	}
	if len(frame.Quality.Degenerate) != 1 || frame.Quality.Degenerate[0] != RoleX {
		t.Errorf("degenerate roles = %v", frame.Quality.Degenerate)
	}
}

func TestTransformColorAndSize(t *testing.T) {
	records := []Record{
		{"g": "a", "w": 1.0, "s": 0},
		{"g": "b", "w": 4.0, "s": 100},
		{"g": "a", "w": "oops", "s": 25},
	}

	frame, err := TransformRecords(records, Bindings{X: "g", Y: "w", Color: "g", Size: "s"}, 10, 100, 100)
	if err != nil {
		t.Fatalf("Transform failed: %v", err)
	}
	if frame.Points[0].Color != Tableau10[0] || frame.Points[1].Color != Tableau10[1] || frame.Points[2].Color != Tableau10[0] {
		t.Errorf("categorical colors = %v %v %v", frame.Points[0].Color, frame.Points[1].Color, frame.Points[2].Color)
	}
	assertFloat(t, frame.Points[0].Size, 5, "min size")
	assertFloat(t, frame.Points[1].Size, 20, "max size")
	assertFloat(t, frame.Points[2].Size, 12.5, "sqrt size")

	// w is discrete because of "oops"
	if frame.Y.Kind != schema.Discrete {
		t.Errorf("y kind = %v, want discrete", frame.Y.Kind)
	}

	frame, err = TransformRecords(records[:2], Bindings{Color: "w"}, 10, 100, 100)
	if err != nil {
		t.Fatalf("Transform failed: %v", err)
	}
	lo, hi := frame.Points[0].Color, frame.Points[1].Color
	if !strings.HasPrefix(lo, "#") || len(lo) != 7 || lo == hi {
		t.Errorf("sequential colors = %q, %q", lo, hi)
	}
}

func TestTransformPaletteCycles(t *testing.T) {
	records := make([]Record, 12)
	for i := range records {
		records[i] = Record{"c": string(rune('a' + i))}
	}
	frame, err := TransformRecords(records, Bindings{Color: "c"}, 5, 100, 100,
		WithPalette([]string{"red", "blue"}))
	if err != nil {
		t.Fatalf("Transform failed: %v", err)
	}
	for i, p := range frame.Points {
		want := []string{"red", "blue"}[i%2]
		if p.Color != want {
			t.Errorf("point %d color = %q, want %q", i, p.Color, want)
		}
	}
}

func TestTransformErrors(t *testing.T) {
	_, err := TransformRecords(abRecords, Bindings{X: "missing"}, 5, 100, 100)
	if !errors.Is(err, ErrUnknownColumn) {
		t.Errorf("unknown column: got %v", err)
	}

	for _, g := range [][3]float64{{0, 100, 100}, {5, -1, 100}, {5, 100, math.NaN()}, {5, math.Inf(1), 100}} {
		_, err := TransformRecords(abRecords, Bindings{}, g[0], g[1], g[2])
		if !errors.Is(err, ErrInvalidGeometry) {
			t.Errorf("geometry %v: got %v", g, err)
		}
	}
}

func TestTransformEmpty(t *testing.T) {
	frame, err := Transform(NewSliceView(nil, "a"), Bindings{X: "a"}, 5, 100, 100)
	if err != nil {
		t.Fatalf("Transform failed: %v", err)
	}
	if len(frame.Points) != 0 {
		t.Errorf("points = %d, want 0", len(frame.Points))
	}
	if frame.X.Domain != (Domain{}) {
		t.Errorf("empty domain = %+v", frame.X.Domain)
	}
}

func TestTransformDomainAdapter(t *testing.T) {
	type car struct {
		Origin string
		MPG    float64
	}
	view := NewDomainAdapter[car]().
		Dimension("origin", func(c car) string { return c.Origin }).
		Measure("mpg", func(c car) float64 { return c.MPG }).
		Bind([]car{{"USA", 18}, {"Japan", 24}, {"USA", 18}})

	frame, err := Transform(view, Bindings{X: "origin", Y: "mpg"}, 10, 300, 300)
	if err != nil {
		t.Fatalf("Transform failed: %v", err)
	}
	// two bands of 150px, cluster of 2: r = min(10, 150*0.8/2/2) = 10
	if frame.Points[0].Offset != -10 || frame.Points[2].Offset != 10 || frame.Points[1].Offset != 0 {
		t.Errorf("offsets = %v %v %v", frame.Points[0].Offset, frame.Points[1].Offset, frame.Points[2].Offset)
	}
	x, _, ok := frame.Pixel(frame.Points[0])
	if !ok {
		t.Fatal("point 0 should be drawable")
	}
	assertFloat(t, x, 75-10, "pixel x with offset")
}

// ============================================================================
// HELPERS
// ============================================================================

func assertFloat(t *testing.T, got, want float64, msg string) {
	t.Helper()
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("%s: got %v, want %v", msg, got, want)
	}
}

func assertStrings(t *testing.T, got, want []string, msg string) {
	t.Helper()
	if len(got) != len(want) {
		t.Errorf("%s: got %v, want %v", msg, got, want)
		return
	}
	for i := range got {
		if got[i] != want[i] {
			t.Errorf("%s: got %v, want %v", msg, got, want)
			return
		}
	}
}
