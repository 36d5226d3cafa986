package helpers

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/spektr-org/linkview/engine"
)

// ============================================================================
// DUCKDB HELPER — SQL query → []engine.Record
// ============================================================================
// Lets the CLI and server load a dataset with any query DuckDB can run,
// including read_csv / read_parquet over local files:
//
//	db, _ := helpers.OpenDuckDB("")
//	records, keys, _ := helpers.QueryRecords(ctx, db,
//	    "SELECT * FROM read_parquet('cars.parquet')")
//
// ============================================================================

// OpenDuckDB opens a DuckDB database. An empty dsn is in-memory.
func OpenDuckDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("duckdb", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open duckdb: %w", err)
	}
	return db, nil
}

// QueryRecords runs query and returns one Record per row, keyed by the
// result column names in select order.
func QueryRecords(ctx context.Context, db *sql.DB, query string, args ...any) ([]engine.Record, []string, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	keys, err := rows.Columns()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read result columns: %w", err)
	}

	var records []engine.Record
	cells := make([]any, len(keys))
	ptrs := make([]any, len(keys))
	for i := range cells {
		ptrs[i] = &cells[i]
	}

	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, fmt.Errorf("failed to scan row %d: %w", len(records), err)
		}
		rec := make(engine.Record, len(keys))
		for i, key := range keys {
			rec[key] = sqlValue(cells[i])
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("row iteration failed: %w", err)
	}

	return records, keys, nil
}

// sqlValue normalizes driver values the engine cannot parse directly.
func sqlValue(v any) any {
	switch t := v.(type) {
	case time.Time:
		return t.Format(time.RFC3339)
	case fmt.Stringer:
		return t.String()
	default:
		return v
	}
}
