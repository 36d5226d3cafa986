package engine

import (
	"fmt"
	"math"

	"github.com/spektr-org/linkview/schema"
)

// ============================================================================
// TRANSFORM ENGINE — Records + Bindings → Frame
// ============================================================================
// Entry point: Transform(view, bindings, baseRadius, width, height, opts...)
//
// Pipeline:
//   1. Validate geometry and bindings
//   2. Classify each bound column (unbound x/y read as all-missing)
//   3. Build category tables and positions per axis
//   4. Build domains, color and size scales
//   5. Emit one PlotPoint per record, raw values passed through
//   6. Resolve overlap offsets
//
// Pure: every call recomputes from the full view. Nothing is cached.
// ============================================================================

// Transform encodes every record of view into plot geometry.
//
// Options:
//   - WithLogger(l): debug output
//   - WithPalette(colors), WithDefaultColor(c), WithGradient(g): color scale
//   - WithPadding(p): continuous position padding
func Transform(view RecordView, b Bindings, baseRadius, width, height float64, opts ...Option) (*Frame, error) {
	cfg := applyOptions(opts)

	for _, g := range []struct {
		name string
		v    float64
	}{{"width", width}, {"height", height}, {"radius", baseRadius}} {
		if !(g.v > 0) || math.IsInf(g.v, 0) {
			return nil, fmt.Errorf("%w: %s must be positive, got %v", ErrInvalidGeometry, g.name, g.v)
		}
	}
	for _, r := range Roles {
		if col := b.Column(r); col != "" && !HasKey(view, col) {
			return nil, fmt.Errorf("%w: %s bound to %q", ErrUnknownColumn, r, col)
		}
	}

	n := view.Len()
	cfg.Logger.Debug("linkview: transform",
		"records", n, "x", b.X, "y", b.Y, "color", b.Color, "size", b.Size)

	frame := &Frame{
		Bindings:   b,
		Width:      width,
		Height:     height,
		BaseRadius: baseRadius,
		Quality:    Quality{Records: n},
	}

	// 1. Positions
	rawX := readRole(view, b.X)
	rawY := readRole(view, b.Y)
	var xPos, yPos []float64
	frame.X, xPos = encodeAxis(rawX, b.X, cfg.Padding, &frame.Quality, RoleX)
	frame.Y, yPos = encodeAxis(rawY, b.Y, cfg.Padding, &frame.Quality, RoleY)

	// 2. Color and size
	rawColor := readRole(view, b.Color)
	rawSize := readRole(view, b.Size)
	var colors ColorScale
	var sizes SizeScale
	frame.Color, colors = buildColor(rawColor, b.Color, cfg, &frame.Quality)
	frame.Size, sizes = buildSize(rawSize, b.Size, baseRadius, &frame.Quality)

	// 3. Points
	frame.Points = make([]PlotPoint, n)
	for i := 0; i < n; i++ {
		p := PlotPoint{
			ID:       i,
			XPos:     xPos[i],
			YPos:     yPos[i],
			Color:    colors.Color(rawColor[i]),
			Size:     sizes.Size(rawSize[i]),
			RawX:     rawX[i],
			RawY:     rawY[i],
			RawColor: rawColor[i],
			RawSize:  rawSize[i],
		}
		if !p.Drawable() {
			frame.Quality.Undrawable++
		}
		frame.Points[i] = p
	}

	// 4. Overlap
	frame.Radius, frame.OffsetAxis = ResolveOverlap(frame.Points, frame.X, frame.Y, width, height, baseRadius)

	cfg.Logger.Debug("linkview: frame ready",
		"xKind", frame.X.Kind, "yKind", frame.Y.Kind,
		"radius", frame.Radius, "offsetAxis", frame.OffsetAxis,
		"undrawable", frame.Quality.Undrawable)
	return frame, nil
}

// TransformRecords is Transform over a plain slice.
func TransformRecords(records []Record, b Bindings, baseRadius, width, height float64, opts ...Option) (*Frame, error) {
	return Transform(NewSliceView(records), b, baseRadius, width, height, opts...)
}

// readRole reads a bound column; an unbound role reads as all-missing.
func readRole(view RecordView, column string) []schema.Value {
	if column == "" {
		return make([]schema.Value, view.Len())
	}
	return ColumnValues(view, column)
}

// encodeAxis classifies one position axis and computes its positions.
func encodeAxis(values []schema.Value, column string, pad float64, q *Quality, r Role) (Channel, []float64) {
	ch := Channel{Column: column, Bound: column != "", Kind: schema.Classify(values)}
	if ch.Bound && len(values) > 0 && schema.IsDegenerate(values) {
		q.Degenerate = append(q.Degenerate, r)
	}

	pos := make([]float64, len(values))
	if ch.Kind == schema.Continuous {
		bad := 0
		for i, v := range values {
			pos[i] = finiteNumber(v)
			if math.IsNaN(pos[i]) {
				bad++
			}
		}
		q.addUnparsable(r, bad)
		if lo, hi, ok := Extent(pos); ok {
			ch.Domain = PaddedDomain(lo, hi, pad)
		}
		return ch, pos
	}

	cats := BuildCategories(values)
	for i, v := range values {
		pos[i] = cats.Encode(v)
	}
	ch.Categories = cats.Keys()
	ch.Domain = DiscreteDomain(cats.Len())
	return ch, pos
}

func buildColor(values []schema.Value, column string, cfg *config, q *Quality) (Channel, ColorScale) {
	ch := Channel{Column: column, Bound: column != ""}
	if !ch.Bound {
		return ch, ConstantColor(cfg.DefaultColor)
	}
	ch.Kind = schema.Classify(values)
	if len(values) > 0 && schema.IsDegenerate(values) {
		q.Degenerate = append(q.Degenerate, RoleColor)
	}
	if ch.Kind == schema.Discrete {
		cats := BuildCategories(values)
		ch.Categories = cats.Keys()
		return ch, CategoricalColor(cats, cfg.Palette, cfg.DefaultColor)
	}
	ch.Domain = continuousExtent(values, q, RoleColor)
	return ch, SequentialColor(ch.Domain, cfg.Gradient, cfg.DefaultColor)
}

func buildSize(values []schema.Value, column string, baseRadius float64, q *Quality) (Channel, SizeScale) {
	ch := Channel{Column: column, Bound: column != ""}
	if !ch.Bound {
		return ch, ConstantSize(baseRadius)
	}
	ch.Kind = schema.Classify(values)
	if len(values) > 0 && schema.IsDegenerate(values) {
		q.Degenerate = append(q.Degenerate, RoleSize)
	}
	if ch.Kind == schema.Discrete {
		return ch, ConstantSize(baseRadius)
	}
	ch.Domain = continuousExtent(values, q, RoleSize)
	return ch, SqrtSize(ch.Domain, baseRadius)
}

// continuousExtent is the unpadded extent of the finite values.
func continuousExtent(values []schema.Value, q *Quality, r Role) Domain {
	nums := make([]float64, len(values))
	bad := 0
	for i, v := range values {
		nums[i] = finiteNumber(v)
		if math.IsNaN(nums[i]) {
			bad++
		}
	}
	q.addUnparsable(r, bad)
	lo, hi, _ := Extent(nums)
	return Domain{Min: lo, Max: hi}
}

// finiteNumber parses v, returning NaN for anything that is not a finite
// number.
func finiteNumber(v schema.Value) float64 {
	f, ok := schema.ParseNumber(v)
	if !ok || math.IsInf(f, 0) {
		return math.NaN()
	}
	return f
}
