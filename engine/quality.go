package engine

import (
	"fmt"
	"strings"
)

// ============================================================================
// QUALITY REPORT — What a Transform could not draw
// ============================================================================
// Malformed cells never fail a Transform; they are counted here so the
// caller can show the user why points are missing or an axis is flat.
// ============================================================================

// Quality summarizes data problems found during a Transform.
type Quality struct {
	Records int `json:"records" msgpack:"records"`

	// Unparsable counts, per bound Continuous role, the values that did
	// not parse to a finite number.
	Unparsable map[Role]int `json:"unparsable,omitempty" msgpack:"unparsable,omitempty"`

	// Degenerate lists bound roles whose column has no values at all.
	Degenerate []Role `json:"degenerate,omitempty" msgpack:"degenerate,omitempty"`

	// Undrawable counts points with a NaN position.
	Undrawable int `json:"undrawable" msgpack:"undrawable"`
}

func (q *Quality) addUnparsable(r Role, n int) {
	if n == 0 {
		return
	}
	if q.Unparsable == nil {
		q.Unparsable = make(map[Role]int)
	}
	q.Unparsable[r] += n
}

// OK reports whether every record is drawable and no bound column is empty.
func (q Quality) OK() bool {
	return q.Undrawable == 0 && len(q.Degenerate) == 0 && len(q.Unparsable) == 0
}

// Summary renders the report as one line.
func (q Quality) Summary() string {
	parts := []string{fmt.Sprintf("%s records", FormatInt(q.Records))}
	if q.Undrawable > 0 {
		parts = append(parts, fmt.Sprintf("%s undrawable", FormatInt(q.Undrawable)))
	}
	for _, r := range Roles {
		if n := q.Unparsable[r]; n > 0 {
			parts = append(parts, fmt.Sprintf("%s: %s unparsable", r, FormatInt(n)))
		}
	}
	if len(q.Degenerate) > 0 {
		names := make([]string, len(q.Degenerate))
		for i, r := range q.Degenerate {
			names[i] = string(r)
		}
		parts = append(parts, "empty columns on "+strings.Join(names, ", "))
	}
	return strings.Join(parts, "; ")
}

// FormatInt formats an integer with comma separators.
func FormatInt(n int) string {
	if n < 0 {
		return "-" + FormatInt(-n)
	}
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	return fmt.Sprintf("%s,%03d", FormatInt(n/1000), n%1000)
}
