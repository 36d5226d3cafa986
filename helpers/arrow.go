package helpers

import (
	"fmt"
	"io"
	"math"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/spektr-org/linkview/engine"
	"github.com/spektr-org/linkview/schema"
)

// ============================================================================
// ARROW HELPER — Arrow IPC stream ⇄ records / frames
// ============================================================================
// Reading flattens every record batch into []engine.Record keyed by field
// name. Nulls become nil so they classify as missing.
// Writing exports a Frame's points as one record batch, undrawable
// positions as nulls.
// ============================================================================

// ReadArrowIPC reads an Arrow IPC stream into Records.
// Returns the records and the field names in schema order.
func ReadArrowIPC(r io.Reader) ([]engine.Record, []string, error) {
	reader, err := ipc.NewReader(r, ipc.WithAllocator(memory.DefaultAllocator))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open Arrow IPC stream: %w", err)
	}
	defer reader.Release()

	sch := reader.Schema()
	keys := make([]string, sch.NumFields())
	for i := range keys {
		keys[i] = sch.Field(i).Name
	}

	var records []engine.Record
	for reader.Next() {
		batch := reader.RecordBatch()
		rows := int(batch.NumRows())
		for row := 0; row < rows; row++ {
			rec := make(engine.Record, len(keys))
			for col, key := range keys {
				rec[key] = arrowValue(batch.Column(col), row)
			}
			records = append(records, rec)
		}
	}
	if err := reader.Err(); err != nil && err != io.EOF {
		return nil, nil, fmt.Errorf("failed to read Arrow IPC batch: %w", err)
	}

	return records, keys, nil
}

// arrowValue extracts one cell as a plain Go value.
func arrowValue(arr arrow.Array, idx int) schema.Value {
	if arr.IsNull(idx) {
		return nil
	}

	switch a := arr.(type) {
	case *array.Int8:
		return int64(a.Value(idx))
	case *array.Int16:
		return int64(a.Value(idx))
	case *array.Int32:
		return int64(a.Value(idx))
	case *array.Int64:
		return a.Value(idx)
	case *array.Uint8:
		return int64(a.Value(idx))
	case *array.Uint16:
		return int64(a.Value(idx))
	case *array.Uint32:
		return int64(a.Value(idx))
	case *array.Uint64:
		return a.Value(idx)
	case *array.Float32:
		return float64(a.Value(idx))
	case *array.Float64:
		return a.Value(idx)
	case *array.String:
		return a.Value(idx)
	case *array.LargeString:
		return a.Value(idx)
	case *array.Boolean:
		return a.Value(idx)
	default:
		// dates, timestamps, decimals: keep the display form
		return arr.ValueStr(idx)
	}
}

// framePointSchema is the Arrow layout of exported points.
var framePointSchema = arrow.NewSchema([]arrow.Field{
	{Name: "id", Type: arrow.PrimitiveTypes.Int64},
	{Name: "xPos", Type: arrow.PrimitiveTypes.Float64, Nullable: true},
	{Name: "yPos", Type: arrow.PrimitiveTypes.Float64, Nullable: true},
	{Name: "offset", Type: arrow.PrimitiveTypes.Float64},
	{Name: "color", Type: arrow.BinaryTypes.String},
	{Name: "size", Type: arrow.PrimitiveTypes.Float64},
}, nil)

// WriteFrameArrow writes frame's points to w as an Arrow IPC stream.
func WriteFrameArrow(w io.Writer, frame *engine.Frame) error {
	alloc := memory.DefaultAllocator
	builder := array.NewRecordBuilder(alloc, framePointSchema)
	defer builder.Release()

	ids := builder.Field(0).(*array.Int64Builder)
	xs := builder.Field(1).(*array.Float64Builder)
	ys := builder.Field(2).(*array.Float64Builder)
	offsets := builder.Field(3).(*array.Float64Builder)
	colors := builder.Field(4).(*array.StringBuilder)
	sizes := builder.Field(5).(*array.Float64Builder)

	for _, p := range frame.Points {
		ids.Append(int64(p.ID))
		appendPosition(xs, p.XPos)
		appendPosition(ys, p.YPos)
		offsets.Append(p.Offset)
		colors.Append(p.Color)
		sizes.Append(p.Size)
	}

	record := builder.NewRecordBatch()
	defer record.Release()

	writer := ipc.NewWriter(w, ipc.WithSchema(framePointSchema), ipc.WithAllocator(alloc))
	if err := writer.Write(record); err != nil {
		writer.Close()
		return fmt.Errorf("failed to write IPC record: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close IPC writer: %w", err)
	}
	return nil
}

func appendPosition(b *array.Float64Builder, v float64) {
	if math.IsNaN(v) {
		b.AppendNull()
		return
	}
	b.Append(v)
}
