package schema

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ============================================================================
// SCHEMA — Describes the columns of a dataset and how each one is encoded
// ============================================================================
// Built by discovery (DiscoverFromCSV / DiscoverColumns) so a consumer can
// offer columns for role assignment and flag degenerate axes up front.
// The engine reclassifies bound columns on every draw; a Config is advisory.
// ============================================================================

// Value is one raw cell: nil, a string, a bool, or any Go numeric type.
type Value = any

// Kind is the classification of a column's values.
type Kind int

const (
	// Discrete columns are positioned by category ordinal.
	Discrete Kind = iota
	// Continuous columns are positioned by numeric value.
	Continuous
)

func (k Kind) String() string {
	switch k {
	case Continuous:
		return "continuous"
	default:
		return "discrete"
	}
}

// MarshalText encodes a Kind as its name.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes a Kind name.
func (k *Kind) UnmarshalText(b []byte) error {
	switch string(b) {
	case "continuous":
		*k = Continuous
	case "discrete":
		*k = Discrete
	default:
		return fmt.Errorf("unknown kind %q", b)
	}
	return nil
}

// Config describes the shape of a dataset.
type Config struct {
	Name    string       `json:"name"`
	Records int          `json:"records"`
	Columns []ColumnMeta `json:"columns"`

	// Auto-discovery metadata
	DiscoveredFrom string `json:"discoveredFrom,omitempty"`
	DiscoveredAt   string `json:"discoveredAt,omitempty"`
}

// ColumnMeta describes one column.
type ColumnMeta struct {
	Key             string   `json:"key"`
	DisplayName     string   `json:"displayName"`
	Kind            Kind     `json:"kind"`
	UniqueCount     int      `json:"uniqueCount"`
	NullCount       int      `json:"nullCount"`
	SampleValues    []string `json:"sampleValues"`
	CardinalityHint string   `json:"cardinalityHint,omitempty"` // "low", "medium", "high"

	// Degenerate is set when every value is missing. The column still
	// classifies as Discrete with a single "" category.
	Degenerate bool `json:"degenerate,omitempty"`
}

// Column returns the metadata for key.
func (c Config) Column(key string) (ColumnMeta, bool) {
	for _, col := range c.Columns {
		if col.Key == key {
			return col, true
		}
	}
	return ColumnMeta{}, false
}

// ColumnKeys returns all column keys in discovery order.
func (c Config) ColumnKeys() []string {
	keys := make([]string, len(c.Columns))
	for i, col := range c.Columns {
		keys[i] = col.Key
	}
	return keys
}

// DegenerateKeys returns the keys of columns with no informative values.
func (c Config) DegenerateKeys() []string {
	var keys []string
	for _, col := range c.Columns {
		if col.Degenerate {
			keys = append(keys, col.Key)
		}
	}
	return keys
}

// ============================================================================
// VALUE HELPERS
// ============================================================================

// IsMissing reports whether v is nil or a blank string.
func IsMissing(v Value) bool {
	switch v := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	case []byte:
		return strings.TrimSpace(string(v)) == ""
	}
	return false
}

// ParseNumber converts v to a float64. ok is false for missing values,
// bools, and strings that do not parse. NaN and infinities are returned
// with ok set only when they came from a Go float; callers that need a
// finite number must check.
func ParseNumber(v Value) (f float64, ok bool) {
	switch v := v.(type) {
	case nil, bool:
		return math.NaN(), false
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint8:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	case string:
		return parseNumberString(v)
	case []byte:
		return parseNumberString(string(v))
	case fmt.Stringer:
		return parseNumberString(v.String())
	}
	return math.NaN(), false
}

func parseNumberString(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return math.NaN(), false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN(), false
	}
	return f, true
}

// IsFinite reports whether v parses to a finite number.
func IsFinite(v Value) bool {
	f, ok := ParseNumber(v)
	return ok && !math.IsNaN(f) && !math.IsInf(f, 0)
}

// Key returns the category key for v. Missing values share the "" key.
func Key(v Value) string {
	if IsMissing(v) {
		return ""
	}
	switch v := v.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'g', -1, 32)
	}
	return fmt.Sprint(v)
}
