package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/spektr-org/linkview/brush"
	"github.com/spektr-org/linkview/engine"
	"github.com/spektr-org/linkview/helpers"
	"github.com/spektr-org/linkview/server"
	"github.com/spektr-org/linkview/views"
)

// ============================================================================
// LINKVIEW CLI — linked views for any dataset
// ============================================================================

const version = "0.1.0"

func main() {
	// ── Flags ─────────────────────────────────────────────────────────────
	filePath := flag.String("file", "", "Path to data file: .csv, .arrow, .parquet, .json (optionally .zst)")
	sqlQuery := flag.String("sql", "", "DuckDB query producing the dataset (instead of --file)")
	xCol := flag.String("x", "", "Column bound to the x axis")
	yCol := flag.String("y", "", "Column bound to the y axis")
	colorCol := flag.String("color", "", "Column bound to color")
	sizeCol := flag.String("size", "", "Column bound to size")
	width := flag.Float64("width", 600, "Plot width in pixels")
	height := flag.Float64("height", 400, "Plot height in pixels")
	radius := flag.Float64("radius", 5, "Base point radius in pixels")
	discover := flag.Bool("discover", false, "Print column profiles and exit")
	histCol := flag.String("hist", "", "Bin this column instead of plotting")
	format := flag.String("format", "json", "Output format: json, pretty, msgpack, arrow, csv, table")
	outFile := flag.String("out", "", "Write output to file instead of stdout (.zst compresses)")
	serveAddr := flag.String("serve", "", "Serve the linked views over HTTP on this address")
	session := flag.Bool("session", false, "Read brush commands from stdin")
	maxRows := flag.Int("rows", 20, "Table rows to show (0 = all)")
	verbose := flag.Bool("v", false, "Debug logging")
	showVersion := flag.Bool("version", false, "Print version and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `Linkview — linked views for any dataset

Usage:
  linkview --file cars.csv --x origin --y mpg --format pretty
  linkview --file cars.csv --x hp --y mpg --color origin --format arrow --out points.arrow
  linkview --sql "SELECT * FROM read_parquet('cars.parquet')" --discover --format pretty
  linkview --file cars.csv --hist mpg --format table
  linkview --file cars.csv --x origin --y mpg --session
  linkview --file cars.csv --x hp --y mpg --serve :8080

Flags:
`)
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Formats:
  json      Frame as JSON (default)
  pretty    Pretty-printed JSON
  msgpack   Frame as MessagePack
  arrow     Plot points as an Arrow IPC stream
  csv       Plot points as CSV
  table     Terminal table

Session commands (one per line, shell quoting allowed):
  draw x=origin y=mpg "color=Model Year"
  brush scatter 0 0 300 200
  brush histogram 40 180
  clear | show | selected | help | quit
`)
	}

	flag.Parse()

	if *showVersion {
		fmt.Printf("linkview %s\n", version)
		os.Exit(0)
	}

	if *filePath == "" && *sqlQuery == "" {
		fmt.Fprintln(os.Stderr, "Error: --file or --sql is required")
		flag.Usage()
		os.Exit(1)
	}

	logger := newLogger(*verbose)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ── Read data ─────────────────────────────────────────────────────────
	view, name, err := loadData(ctx, *filePath, *sqlQuery)
	if err != nil {
		fatalf("Failed to load data: %v", err)
	}
	log.Printf("📊 Loaded %s records from %s (%d columns)",
		engine.FormatInt(view.Len()), name, len(view.Keys()))

	bindings := engine.Bindings{X: *xCol, Y: *yCol, Color: *colorCol, Size: *sizeCol}
	engineOpts := []engine.Option{engine.WithLogger(logger)}

	// ── Serve mode ────────────────────────────────────────────────────────
	if *serveAddr != "" {
		cfg := server.DefaultConfig()
		cfg.Addr = *serveAddr
		cfg.Name = name
		cfg.Bindings = bindings
		cfg.Width, cfg.Height, cfg.Radius = *width, *height, *radius
		cfg.HistColumn = *histCol
		cfg.MaxRows = *maxRows
		cfg.Logger = logger
		if err := serve(ctx, view, cfg, engineOpts); err != nil {
			fatalf("Server failed: %v", err)
		}
		return
	}

	// ── Output writer ─────────────────────────────────────────────────────
	writer, closeOut, err := openOutput(*outFile)
	if err != nil {
		fatalf("Failed to create output file: %v", err)
	}
	defer func() {
		if err := closeOut(); err != nil {
			log.Printf("⚠️ Closing output: %v", err)
		}
	}()

	// ── Discover mode ─────────────────────────────────────────────────────
	if *discover {
		sch := helpers.Profile(name, view)
		log.Printf("🔍 Auto-Detect: %s (%d columns, %d degenerate)",
			sch.Name, len(sch.Columns), len(sch.DegenerateKeys()))
		if err := writeValue(writer, sch, *format); err != nil {
			fatalf("Failed to write schema: %v", err)
		}
		if *outFile != "" {
			log.Printf("📄 Schema written to %s", *outFile)
		}
		return
	}

	// ── Histogram mode ────────────────────────────────────────────────────
	if *histCol != "" && !*session {
		hist, err := engine.BuildHistogram(view, *histCol, engineOpts...)
		if err != nil {
			fatalf("Histogram failed: %v", err)
		}
		log.Printf("📶 Histogram: %s → %d bins over [%g, %g]",
			hist.Column, len(hist.Bins), hist.Domain.Min, hist.Domain.Max)
		if err := writeHistogram(writer, hist, *format); err != nil {
			fatalf("Failed to write histogram: %v", err)
		}
		return
	}

	// ── Linked views ──────────────────────────────────────────────────────
	dash := views.NewDashboard(view, brush.NewBroadcaster(brush.WithLogger(logger)),
		views.DashboardConfig{HistColumn: *histCol, MaxRows: *maxRows}, engineOpts...)
	defer dash.Close()

	frame, err := dash.Draw(bindings, *radius, *width, *height)
	if err != nil {
		fatalf("Transform failed: %v", err)
	}
	log.Printf("🔄 Frame: x=%s (%s) y=%s (%s), radius %.2f",
		orDash(bindings.X), frame.X.Kind, orDash(bindings.Y), frame.Y.Kind, frame.Radius)
	if !frame.Quality.OK() {
		log.Printf("⚠️ %s", frame.Quality.Summary())
	}

	if *session {
		if err := runSession(ctx, dash, bindings, geometry{*radius, *width, *height}, os.Stdin, writer); err != nil {
			fatalf("Session failed: %v", err)
		}
		return
	}

	if err := writeFrame(writer, frame, dash, *format); err != nil {
		fatalf("Failed to write frame: %v", err)
	}
	if *outFile != "" {
		log.Printf("📄 Output written to %s", *outFile)
	}
}

// ============================================================================
// DATA / SERVER
// ============================================================================

func loadData(ctx context.Context, path, query string) (engine.RecordView, string, error) {
	if query == "" {
		v, err := helpers.LoadView(ctx, path)
		return v, path, err
	}

	db, err := helpers.OpenDuckDB("")
	if err != nil {
		return nil, "", err
	}
	defer db.Close()

	records, keys, err := helpers.QueryRecords(ctx, db, query)
	if err != nil {
		return nil, "", err
	}
	return engine.NewSliceView(records, keys...), "query", nil
}

func serve(ctx context.Context, view engine.RecordView, cfg server.Config, opts []engine.Option) error {
	srv, err := server.New(view, cfg, opts...)
	if err != nil {
		return err
	}
	log.Printf("🌐 Serving linked views on %s", cfg.Addr)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(srv.Start)
	g.Go(func() error {
		<-ctx.Done()
		log.Printf("🛑 Shutting down")
		return srv.Shutdown(context.Background())
	})
	return g.Wait()
}

// ============================================================================
// HELPERS
// ============================================================================

// openOutput returns stdout or the named file, zstd-compressed when the
// name ends in .zst.
func openOutput(path string) (io.Writer, func() error, error) {
	if path == "" {
		return os.Stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	if !strings.HasSuffix(path, ".zst") {
		return f, f.Close, nil
	}
	zw, err := helpers.CompressWriter(f)
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	return zw, func() error {
		if err := zw.Close(); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	}, nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
