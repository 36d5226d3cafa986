package helpers

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/spektr-org/linkview/engine"
)

// ============================================================================
// CSV HELPER — Parses CSV data into []engine.Record
// ============================================================================
// Consumer reads the CSV from wherever it lives (file, HTTP body, archive).
// Every cell stays a trimmed string; classification happens per binding in
// the engine, so nothing here decides what is numeric.
// ============================================================================

// ParseCSV parses CSV bytes into Records keyed by the trimmed header names.
// Returns the records and the header keys in file order.
func ParseCSV(data []byte) ([]engine.Record, []string, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1

	headers, err := reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read CSV headers: %w", err)
	}
	keys := make([]string, len(headers))
	for i, h := range headers {
		keys[i] = strings.TrimSpace(h)
	}

	var records []engine.Record
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue // skip malformed rows
		}

		rec := make(engine.Record, len(keys))
		for i, key := range keys {
			if i < len(row) {
				rec[key] = strings.TrimSpace(row[i])
			} else {
				rec[key] = ""
			}
		}
		records = append(records, rec)
	}

	return records, keys, nil
}

// ParseCSVView parses CSV bytes into a RecordView that keeps header order.
func ParseCSVView(data []byte) (engine.RecordView, error) {
	records, keys, err := ParseCSV(data)
	if err != nil {
		return nil, err
	}
	return engine.NewSliceView(records, keys...), nil
}
