package engine

import (
	"fmt"
	"image/color"
	"math"

	"github.com/aclements/go-gg/palette"
	"github.com/aclements/go-moremath/scale"
	"github.com/aclements/go-moremath/stats"

	"github.com/spektr-org/linkview/schema"
)

// ============================================================================
// SCALE BUILDER — Domains and data → pixel / color / size mappings
// ============================================================================
// Position: continuous extent padded on both sides, or [0, categories] for
//           a Discrete axis; mapped linearly onto the pixel range.
// Color:    constant, categorical palette by ordinal, or a sequential
//           gradient over the extent.
// Size:     sqrt scale from the extent onto [r/2, 2r], else constant r.
// An equal-bounds domain maps every value to the middle of its range.
// ============================================================================

// Tableau10 is the default categorical palette.
var Tableau10 = []string{
	"#4e79a7", "#f28e2c", "#e15759", "#76b7b2", "#59a14f",
	"#edc949", "#af7aa1", "#ff9da7", "#9c755f", "#bab0ab",
}

// Extent returns the min and max of the finite values in xs.
// ok is false when there are none.
func Extent(xs []float64) (lo, hi float64, ok bool) {
	finite := make([]float64, 0, len(xs))
	for _, x := range xs {
		if !math.IsNaN(x) && !math.IsInf(x, 0) {
			finite = append(finite, x)
		}
	}
	if len(finite) == 0 {
		return 0, 0, false
	}
	lo, hi = stats.Bounds(finite)
	return lo, hi, true
}

// PaddedDomain widens [lo, hi] by pad*(hi-lo) on each side.
func PaddedDomain(lo, hi, pad float64) Domain {
	r := (hi - lo) * pad
	return Domain{Min: lo - r, Max: hi + r}
}

// DiscreteDomain is the position domain of an axis with n categories.
func DiscreteDomain(n int) Domain {
	// highest position is (n-1)+0.5, plus half a band
	return Domain{Min: 0, Max: float64(n)}
}

// ============================================================================
// POSITION SCALE
// ============================================================================

// PositionScale maps a data Domain onto a pixel range. The range may be
// inverted, as it is for a y axis.
type PositionScale struct {
	Domain     Domain
	RangeStart float64
	RangeEnd   float64
	lin        scale.Linear
}

// NewPositionScale builds a linear scale from d to [r0, r1].
func NewPositionScale(d Domain, r0, r1 float64) PositionScale {
	return PositionScale{
		Domain:     d,
		RangeStart: r0,
		RangeEnd:   r1,
		lin:        scale.Linear{Min: d.Min, Max: d.Max, Base: 10},
	}
}

// Map converts a data value to pixels. NaN stays NaN.
func (s PositionScale) Map(v float64) float64 {
	if math.IsNaN(v) {
		return math.NaN()
	}
	if s.Domain.Min == s.Domain.Max {
		return (s.RangeStart + s.RangeEnd) / 2
	}
	return s.RangeStart + s.lin.Map(v)*(s.RangeEnd-s.RangeStart)
}

// Invert converts pixels back to a data value.
func (s PositionScale) Invert(px float64) float64 {
	if s.RangeStart == s.RangeEnd {
		return s.Domain.Min
	}
	t := (px - s.RangeStart) / (s.RangeEnd - s.RangeStart)
	return s.Domain.Min + t*s.Domain.Span()
}

// Ticks returns at most n major tick values inside the domain.
func (s PositionScale) Ticks(n int) []float64 {
	if n < 1 {
		return nil
	}
	if s.Domain.Min == s.Domain.Max {
		return []float64{s.Domain.Min}
	}
	major, _ := s.lin.Ticks(scale.TickOptions{Max: n})
	return major
}

// Nice returns a copy whose domain is widened to tick boundaries.
func (s PositionScale) Nice(n int) PositionScale {
	if n < 1 || s.Domain.Min == s.Domain.Max {
		return s
	}
	lin := s.lin
	lin.Nice(scale.TickOptions{Max: n})
	return PositionScale{
		Domain:     Domain{Min: lin.Min, Max: lin.Max},
		RangeStart: s.RangeStart,
		RangeEnd:   s.RangeEnd,
		lin:        lin,
	}
}

// ============================================================================
// COLOR SCALE
// ============================================================================

type colorMode int

const (
	colorConstant colorMode = iota
	colorCategorical
	colorSequential
)

// ColorScale assigns a color string to a raw value.
type ColorScale struct {
	mode       colorMode
	constant   string
	palette    []string
	categories *CategoryTable
	domain     Domain
	gradient   palette.Continuous
}

// ConstantColor colors every value c.
func ConstantColor(c string) ColorScale {
	return ColorScale{mode: colorConstant, constant: c}
}

// CategoricalColor cycles colors over the table's ordinals.
func CategoricalColor(t *CategoryTable, colors []string, fallback string) ColorScale {
	return ColorScale{mode: colorCategorical, categories: t, palette: colors, constant: fallback}
}

// SequentialColor maps d onto g. Unreadable values get fallback.
func SequentialColor(d Domain, g palette.Continuous, fallback string) ColorScale {
	return ColorScale{mode: colorSequential, domain: d, gradient: g, constant: fallback}
}

// Color returns the color for v.
func (s ColorScale) Color(v schema.Value) string {
	switch s.mode {
	case colorCategorical:
		i := s.categories.Ordinal(v)
		if i < 0 || len(s.palette) == 0 {
			return s.constant
		}
		return s.palette[i%len(s.palette)]
	case colorSequential:
		f, ok := schema.ParseNumber(v)
		if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
			return s.constant
		}
		t := 0.5
		if s.domain.Span() != 0 {
			t = (f - s.domain.Min) / s.domain.Span()
		}
		return hexColor(s.gradient.Map(math.Max(0, math.Min(1, t))))
	}
	return s.constant
}

func hexColor(c color.Color) string {
	r, g, b, _ := c.RGBA()
	return fmt.Sprintf("#%02x%02x%02x", r>>8, g>>8, b>>8)
}

// ============================================================================
// SIZE SCALE
// ============================================================================

// SizeScale maps a raw value to a mark radius.
type SizeScale struct {
	sqrt     bool
	domain   Domain
	min, max float64
	base     float64
}

// ConstantSize gives every mark radius r.
func ConstantSize(r float64) SizeScale {
	return SizeScale{base: r}
}

// SqrtSize maps d onto [r/2, 2r] through a sign-preserving square root.
func SqrtSize(d Domain, r float64) SizeScale {
	return SizeScale{sqrt: true, domain: d, min: r / 2, max: 2 * r, base: r}
}

// Size returns the radius for v. Unreadable values get the base radius.
func (s SizeScale) Size(v schema.Value) float64 {
	if !s.sqrt {
		return s.base
	}
	f, ok := schema.ParseNumber(v)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return s.base
	}
	lo, hi := signedSqrt(s.domain.Min), signedSqrt(s.domain.Max)
	if lo == hi {
		return (s.min + s.max) / 2
	}
	t := (signedSqrt(f) - lo) / (hi - lo)
	return s.min + t*(s.max-s.min)
}

func signedSqrt(x float64) float64 {
	if x < 0 {
		return -math.Sqrt(-x)
	}
	return math.Sqrt(x)
}
