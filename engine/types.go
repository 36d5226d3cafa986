package engine

import (
	"encoding/json"
	"errors"
	"math"

	"github.com/spektr-org/linkview/schema"
)

// ============================================================================
// LINKVIEW ENGINE TYPES — Records in, plot geometry out
// ============================================================================
// A Transform call reads a RecordView through role Bindings and produces a
// Frame: one PlotPoint per record plus the domains, categories and scales
// a renderer needs to place them.
// ============================================================================

var (
	// ErrUnknownColumn is returned when a binding names a column that no
	// record carries.
	ErrUnknownColumn = errors.New("unknown column")

	// ErrInvalidGeometry is returned when width, height or radius is not a
	// positive finite number.
	ErrInvalidGeometry = errors.New("invalid geometry")

	// ErrNotContinuous is returned when a numeric-only operation is asked
	// to bin a Discrete column.
	ErrNotContinuous = errors.New("column is not continuous")
)

// ============================================================================
// RECORD
// ============================================================================

// Record is a single data row keyed by column name. Values may be missing,
// strings, bools or numbers; the engine never rejects a malformed cell.
type Record map[string]schema.Value

// ============================================================================
// ROLES & BINDINGS
// ============================================================================

// Role is a visual channel a column can be bound to.
type Role string

const (
	RoleX     Role = "x"
	RoleY     Role = "y"
	RoleColor Role = "color"
	RoleSize  Role = "size"
)

// Roles lists every channel in a fixed order.
var Roles = []Role{RoleX, RoleY, RoleColor, RoleSize}

// Bindings assigns column keys to roles. "" leaves a role unbound.
type Bindings struct {
	X     string `json:"x,omitempty" msgpack:"x,omitempty"`
	Y     string `json:"y,omitempty" msgpack:"y,omitempty"`
	Color string `json:"color,omitempty" msgpack:"color,omitempty"`
	Size  string `json:"size,omitempty" msgpack:"size,omitempty"`
}

// Column returns the key bound to r.
func (b Bindings) Column(r Role) string {
	switch r {
	case RoleX:
		return b.X
	case RoleY:
		return b.Y
	case RoleColor:
		return b.Color
	case RoleSize:
		return b.Size
	}
	return ""
}

// ============================================================================
// GEOMETRY
// ============================================================================

// Domain is a closed numeric interval in data space.
type Domain struct {
	Min float64 `json:"min" msgpack:"min"`
	Max float64 `json:"max" msgpack:"max"`
}

// Span returns Max - Min.
func (d Domain) Span() float64 { return d.Max - d.Min }

// PlotPoint is the encoded form of one record.
//
// XPos and YPos are data-space positions: the raw number for a Continuous
// axis, ordinal+0.5 for a Discrete one. NaN marks an undrawable point.
// Offset is a pixel nudge along Frame.OffsetAxis and is zero unless the
// two axes differ in kind.
type PlotPoint struct {
	ID       int          `json:"id" msgpack:"id"`
	XPos     float64      `json:"xPos" msgpack:"xPos"`
	YPos     float64      `json:"yPos" msgpack:"yPos"`
	Offset   float64      `json:"offset" msgpack:"offset"`
	Color    string       `json:"color" msgpack:"color"`
	Size     float64      `json:"size" msgpack:"size"`
	RawX     schema.Value `json:"rawX" msgpack:"rawX"`
	RawY     schema.Value `json:"rawY" msgpack:"rawY"`
	RawColor schema.Value `json:"rawColor" msgpack:"rawColor"`
	RawSize  schema.Value `json:"rawSize" msgpack:"rawSize"`
}

// Drawable reports whether both positions are defined.
func (p PlotPoint) Drawable() bool {
	return !math.IsNaN(p.XPos) && !math.IsNaN(p.YPos)
}

// MarshalJSON writes undrawable positions as null; JSON has no NaN.
func (p PlotPoint) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID       int          `json:"id"`
		XPos     *float64     `json:"xPos"`
		YPos     *float64     `json:"yPos"`
		Offset   float64      `json:"offset"`
		Color    string       `json:"color"`
		Size     float64      `json:"size"`
		RawX     schema.Value `json:"rawX"`
		RawY     schema.Value `json:"rawY"`
		RawColor schema.Value `json:"rawColor"`
		RawSize  schema.Value `json:"rawSize"`
	}{
		ID:       p.ID,
		XPos:     finiteOrNil(p.XPos),
		YPos:     finiteOrNil(p.YPos),
		Offset:   p.Offset,
		Color:    p.Color,
		Size:     p.Size,
		RawX:     jsonSafe(p.RawX),
		RawY:     jsonSafe(p.RawY),
		RawColor: jsonSafe(p.RawColor),
		RawSize:  jsonSafe(p.RawSize),
	})
}

func finiteOrNil(f float64) *float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

func jsonSafe(v schema.Value) schema.Value {
	switch f := v.(type) {
	case float64:
		if p := finiteOrNil(f); p == nil {
			return nil
		}
	case float32:
		if p := finiteOrNil(float64(f)); p == nil {
			return nil
		}
	}
	return v
}

// Channel describes how one role was encoded.
type Channel struct {
	Column     string      `json:"column,omitempty" msgpack:"column,omitempty"`
	Bound      bool        `json:"bound" msgpack:"bound"`
	Kind       schema.Kind `json:"kind" msgpack:"kind"`
	Domain     Domain      `json:"domain" msgpack:"domain"`
	Categories []string    `json:"categories,omitempty" msgpack:"categories,omitempty"`
}

// ============================================================================
// FRAME — Transform output
// ============================================================================

// Frame is everything a renderer needs to draw one chart.
type Frame struct {
	Bindings   Bindings `json:"bindings" msgpack:"bindings"`
	Width      float64  `json:"width" msgpack:"width"`
	Height     float64  `json:"height" msgpack:"height"`
	BaseRadius float64  `json:"baseRadius" msgpack:"baseRadius"`

	// Radius is the mark radius after overlap shrinking.
	Radius float64 `json:"radius" msgpack:"radius"`
	// OffsetAxis is the pixel axis PlotPoint.Offset is added to, "" if none.
	OffsetAxis Role `json:"offsetAxis,omitempty" msgpack:"offsetAxis,omitempty"`

	X     Channel `json:"x" msgpack:"x"`
	Y     Channel `json:"y" msgpack:"y"`
	Color Channel `json:"color" msgpack:"color"`
	Size  Channel `json:"size" msgpack:"size"`

	Points  []PlotPoint `json:"points" msgpack:"points"`
	Quality Quality     `json:"quality" msgpack:"quality"`
}

// XScale maps XPos to pixels in [0, Width].
func (f *Frame) XScale() PositionScale {
	return NewPositionScale(f.X.Domain, 0, f.Width)
}

// YScale maps YPos to pixels in [Height, 0].
func (f *Frame) YScale() PositionScale {
	return NewPositionScale(f.Y.Domain, f.Height, 0)
}

// Pixel returns the rendered pixel center of p, offset included.
// ok is false for undrawable points.
func (f *Frame) Pixel(p PlotPoint) (x, y float64, ok bool) {
	if !p.Drawable() {
		return math.NaN(), math.NaN(), false
	}
	x = f.XScale().Map(p.XPos)
	y = f.YScale().Map(p.YPos)
	switch f.OffsetAxis {
	case RoleX:
		x += p.Offset
	case RoleY:
		y += p.Offset
	}
	return x, y, true
}
