package engine

import (
	"log/slog"

	"github.com/aclements/go-gg/palette"
)

// ============================================================================
// ENGINE OPTIONS — Functional options for Transform() and BuildHistogram()
// ============================================================================

// Option configures engine behavior via functional options pattern.
type Option func(*config)

type config struct {
	Logger       *slog.Logger
	Palette      []string           // categorical colors, cycled by ordinal
	DefaultColor string             // color when color is unbound or unreadable
	Gradient     palette.Continuous // sequential colors for Continuous color
	Padding      float64            // fraction of the extent added to each side
	MaxBins      int                // upper bound on histogram thresholds
}

// WithLogger routes engine debug output to l.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.Logger = l
		}
	}
}

// WithPalette replaces the categorical palette. An empty palette is ignored.
func WithPalette(colors []string) Option {
	return func(c *config) {
		if len(colors) > 0 {
			c.Palette = colors
		}
	}
}

// WithDefaultColor sets the constant color (default "black").
func WithDefaultColor(color string) Option {
	return func(c *config) {
		c.DefaultColor = color
	}
}

// WithGradient replaces the sequential palette used for Continuous color.
func WithGradient(g palette.Continuous) Option {
	return func(c *config) {
		if g != nil {
			c.Gradient = g
		}
	}
}

// WithPadding sets the continuous-domain padding fraction (default 0.05).
func WithPadding(p float64) Option {
	return func(c *config) {
		if p >= 0 {
			c.Padding = p
		}
	}
}

// WithMaxBins caps the number of histogram thresholds (default 12).
func WithMaxBins(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.MaxBins = n
		}
	}
}

// applyOptions creates a config from functional options.
func applyOptions(opts []Option) *config {
	cfg := &config{
		Logger:       slog.Default(),
		Palette:      Tableau10,
		DefaultColor: "black",
		Gradient:     palette.Viridis,
		Padding:      0.05,
		MaxBins:      12,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}
