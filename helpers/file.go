package helpers

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spektr-org/linkview/engine"
	"github.com/spektr-org/linkview/schema"
)

// ============================================================================
// FILE LOADER — picks a reader by extension
// ============================================================================
//   .csv                 → ParseCSV
//   .arrow .arrows .ipc  → ReadArrowIPC
//   .parquet .json       → DuckDB read_parquet / read_json_auto
//   any of these + .zst  → zstd-decompressed first
// ============================================================================

// LoadFile reads path into Records and their column keys.
func LoadFile(ctx context.Context, path string) ([]engine.Record, []string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".parquet", ".json", ".jsonl", ".ndjson":
		return loadWithDuckDB(ctx, path, ext)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if ext == ".zst" || IsZstd(data) {
		if data, err = Decompress(data); err != nil {
			return nil, nil, err
		}
		if ext == ".zst" {
			ext = strings.ToLower(filepath.Ext(strings.TrimSuffix(path, filepath.Ext(path))))
		}
	}
	return Parse(data, ext)
}

// Parse decodes data in the format named by ext (".csv", ".arrow", ...).
// An unknown extension is read as CSV.
func Parse(data []byte, ext string) ([]engine.Record, []string, error) {
	switch strings.ToLower(ext) {
	case ".arrow", ".arrows", ".ipc":
		return ReadArrowIPC(bytes.NewReader(data))
	default:
		return ParseCSV(data)
	}
}

// LoadView is LoadFile wrapped as a RecordView in column order.
func LoadView(ctx context.Context, path string) (engine.RecordView, error) {
	records, keys, err := LoadFile(ctx, path)
	if err != nil {
		return nil, err
	}
	return engine.NewSliceView(records, keys...), nil
}

func loadWithDuckDB(ctx context.Context, path, ext string) ([]engine.Record, []string, error) {
	db, err := OpenDuckDB("")
	if err != nil {
		return nil, nil, err
	}
	defer db.Close()

	fn := "read_json_auto"
	if ext == ".parquet" {
		fn = "read_parquet"
	}
	quoted := "'" + strings.ReplaceAll(path, "'", "''") + "'"
	return QueryRecords(ctx, db, fmt.Sprintf("SELECT * FROM %s(%s)", fn, quoted))
}

// Profile describes every column of view for role assignment.
func Profile(name string, view engine.RecordView) *schema.Config {
	keys := view.Keys()
	columns := make(map[string][]schema.Value, len(keys))
	for _, k := range keys {
		columns[k] = engine.ColumnValues(view, k)
	}
	cfg := schema.DiscoverColumns(name, keys, columns)
	cfg.DiscoveredFrom = "RecordView"
	return cfg
}
