package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"

	"github.com/spektr-org/linkview/engine"
	"github.com/spektr-org/linkview/helpers"
	"github.com/spektr-org/linkview/schema"
	"github.com/spektr-org/linkview/views"
)

// ============================================================================
// OUTPUT — frame, histogram and schema writers per --format
// ============================================================================

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// writeValue writes v as json, pretty json or msgpack.
func writeValue(w io.Writer, v any, format string) error {
	var out []byte
	var err error

	switch format {
	case "msgpack":
		if out, err = helpers.EncodeMsgpack(v); err != nil {
			return err
		}
		_, err = w.Write(out)
		return err
	case "pretty":
		out, err = json.MarshalIndent(v, "", "  ")
	default:
		out, err = json.Marshal(v)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}

func writeFrame(w io.Writer, frame *engine.Frame, dash *views.Dashboard, format string) error {
	switch format {
	case "arrow":
		return helpers.WriteFrameArrow(w, frame)
	case "csv":
		return writePointsCSV(w, frame)
	case "table":
		_, err := fmt.Fprintf(w, "%s\n%s\n", dash.State().Table, frame.Quality.Summary())
		return err
	default:
		return writeValue(w, frame, format)
	}
}

// writePointsCSV writes one row per point: raw values then geometry.
func writePointsCSV(w io.Writer, frame *engine.Frame) error {
	cw := csv.NewWriter(w)
	cw.Write([]string{"id", "x", "y", "xPos", "yPos", "offset", "color", "size"})
	for _, p := range frame.Points {
		cw.Write([]string{
			strconv.Itoa(p.ID),
			schema.Key(p.RawX),
			schema.Key(p.RawY),
			fmtNum(p.XPos),
			fmtNum(p.YPos),
			fmtNum(p.Offset),
			p.Color,
			fmtNum(p.Size),
		})
	}
	cw.Flush()
	return cw.Error()
}

func writeHistogram(w io.Writer, hist *engine.Histogram, format string) error {
	switch format {
	case "csv", "table":
		cw := csv.NewWriter(w)
		if format == "table" {
			cw.Comma = '\t'
		}
		cw.Write([]string{"x0", "x1", "count"})
		for _, b := range hist.Bins {
			cw.Write([]string{fmtNum(b.X0), fmtNum(b.X1), strconv.Itoa(b.Count())})
		}
		cw.Flush()
		return cw.Error()
	default:
		return writeValue(w, hist, format)
	}
}

func fmtNum(v float64) string {
	// Whole numbers → no decimals, fractional → 2 decimals, NaN → empty
	if v != v {
		return ""
	}
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.2f", v)
}
