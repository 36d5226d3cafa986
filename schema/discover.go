package schema

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"
)

// ============================================================================
// AUTO-DISCOVERY — Column profiling for role assignment
// ============================================================================
// Inspects raw data and generates a schema.Config automatically.
//
// Profiling pipeline per column:
//   1. Count missing values and distinct keys
//   2. Classify Discrete vs Continuous (same rule the engine applies)
//   3. Collect sorted sample values and a cardinality hint
//   4. Flag degenerate (all-missing) columns
// ============================================================================

// DiscoverOptions controls discovery behavior.
type DiscoverOptions struct {
	SampleSize int    // Max rows to inspect (0 = all). Default: 1000
	Name       string // Dataset name override
}

// DefaultDiscoverOptions returns sensible defaults.
func DefaultDiscoverOptions() DiscoverOptions {
	return DiscoverOptions{
		SampleSize: 1000,
	}
}

// DiscoverFromCSV generates a schema.Config by inspecting CSV data.
func DiscoverFromCSV(data []byte, opts ...DiscoverOptions) (*Config, error) {
	opt := DefaultDiscoverOptions()
	if len(opts) > 0 {
		opt = opts[0]
	}

	reader := csv.NewReader(strings.NewReader(string(data)))
	reader.FieldsPerRecord = -1

	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV headers: %w", err)
	}
	if len(headers) == 0 {
		return nil, fmt.Errorf("CSV has no columns")
	}

	limit := opt.SampleSize
	if limit <= 0 {
		limit = 100000 // safety cap
	}

	columns := make(map[string][]Value, len(headers))
	keys := make([]string, len(headers))
	for i, h := range headers {
		keys[i] = strings.TrimSpace(h)
	}

	rows := 0
	for rows < limit {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue // skip malformed rows
		}
		for i, key := range keys {
			var v Value
			if i < len(row) {
				v = row[i]
			}
			columns[key] = append(columns[key], v)
		}
		rows++
	}

	if rows == 0 {
		return nil, fmt.Errorf("CSV has no data rows")
	}

	name := opt.Name
	if name == "" {
		name = "Auto-discovered Dataset"
	}
	config := DiscoverColumns(name, keys, columns)
	config.DiscoveredFrom = "CSV"
	return config, nil
}

// DiscoverColumns profiles columnar data. keys fixes the column order;
// a key without values profiles as a degenerate column.
func DiscoverColumns(name string, keys []string, columns map[string][]Value) *Config {
	config := &Config{
		Name:         name,
		DiscoveredAt: time.Now().Format(time.RFC3339),
	}
	for _, key := range keys {
		values := columns[key]
		if len(values) > config.Records {
			config.Records = len(values)
		}
		config.Columns = append(config.Columns, Profile(key, values))
	}
	return config
}

// Profile inspects all values in a column and classifies it.
func Profile(key string, values []Value) ColumnMeta {
	col := ColumnMeta{
		Key:         key,
		DisplayName: toDisplayName(key),
		Kind:        Classify(values),
	}

	uniqueSet := make(map[string]bool)
	for _, v := range values {
		if IsMissing(v) {
			col.NullCount++
			continue
		}
		uniqueSet[Key(v)] = true
	}
	col.UniqueCount = len(uniqueSet)
	col.SampleValues = collectSamples(uniqueSet, 10)
	col.Degenerate = col.UniqueCount == 0

	switch {
	case col.UniqueCount <= 10:
		col.CardinalityHint = "low"
	case col.UniqueCount <= 100:
		col.CardinalityHint = "medium"
	default:
		col.CardinalityHint = "high"
	}
	return col
}

// ============================================================================
// STRING UTILITIES
// ============================================================================

// toDisplayName cleans a header for human display.
// "story_points" → "Story Points", "assignee" → "Assignee"
func toDisplayName(s string) string {
	if strings.Contains(s, " ") {
		return strings.TrimSpace(s)
	}

	s = strings.ReplaceAll(s, "_", " ")
	s = strings.ReplaceAll(s, "-", " ")

	words := strings.Fields(s)
	for i, w := range words {
		if len(w) > 0 {
			words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
		}
	}
	return strings.Join(words, " ")
}

// collectSamples picks up to maxSamples representative values.
func collectSamples(uniqueSet map[string]bool, maxSamples int) []string {
	samples := make([]string, 0, len(uniqueSet))
	for v := range uniqueSet {
		samples = append(samples, v)
	}

	// Sort for deterministic output
	sort.Strings(samples)

	if len(samples) > maxSamples {
		samples = samples[:maxSamples]
	}
	return samples
}
