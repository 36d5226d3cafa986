// Package server exposes a linked-views Dashboard over HTTP.
//
// Routes:
//
//	GET    /api/schema     column profiles of the dataset
//	POST   /api/frame      bindings + geometry → engine.Frame (redraws every view)
//	POST   /api/brush      view id + pixel rectangle → linked State
//	GET    /api/selection  current linked State
//	DELETE /api/selection  clear the selection
//	GET    /api/table      table snapshot (?selected=true for selected rows only)
//	GET    /api/summary    ?column= statistics, selection vs dataset
//
// Every response is JSON unless the request sends
// "Accept: application/msgpack"; request bodies may be msgpack when
// Content-Type says so.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/spektr-org/linkview/brush"
	"github.com/spektr-org/linkview/engine"
	"github.com/spektr-org/linkview/helpers"
	"github.com/spektr-org/linkview/schema"
	"github.com/spektr-org/linkview/views"
)

// Config holds the server settings. Zero geometry fields fall back to
// DefaultConfig's.
type Config struct {
	Addr     string
	Name     string
	Bindings engine.Bindings
	Width    float64
	Height   float64
	Radius   float64

	HistColumn string
	MaxRows    int

	Logger *slog.Logger
}

// DefaultConfig returns the settings used by the CLI.
func DefaultConfig() Config {
	return Config{
		Addr:    ":8080",
		Name:    "dataset",
		Width:   600,
		Height:  400,
		Radius:  5,
		MaxRows: 50,
	}
}

// Server serves one Dashboard.
type Server struct {
	cfg    Config
	echo   *echo.Echo
	dash   *views.Dashboard
	schema *schema.Config
	logger *slog.Logger
}

// New builds the server and draws the initial frame from cfg.Bindings.
func New(data engine.RecordView, cfg Config, opts ...engine.Option) (*Server, error) {
	def := DefaultConfig()
	if cfg.Width <= 0 {
		cfg.Width = def.Width
	}
	if cfg.Height <= 0 {
		cfg.Height = def.Height
	}
	if cfg.Radius <= 0 {
		cfg.Radius = def.Radius
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	opts = append([]engine.Option{engine.WithLogger(cfg.Logger)}, opts...)

	bus := brush.NewBroadcaster(brush.WithLogger(cfg.Logger))
	s := &Server{
		cfg:    cfg,
		dash:   views.NewDashboard(data, bus, views.DashboardConfig{HistColumn: cfg.HistColumn, MaxRows: cfg.MaxRows}, opts...),
		schema: helpers.Profile(cfg.Name, data),
		logger: cfg.Logger,
	}
	if _, err := s.dash.Draw(cfg.Bindings, cfg.Radius, cfg.Width, cfg.Height); err != nil {
		return nil, err
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.Logger())
	e.HTTPErrorHandler = s.errorHandler
	s.echo = e
	s.RegisterRoutes(e)
	return s, nil
}

// RegisterRoutes mounts the API on e.
func (s *Server) RegisterRoutes(e *echo.Echo) {
	api := e.Group("/api")
	api.GET("/schema", s.GetSchema)
	api.POST("/frame", s.PostFrame)
	api.POST("/brush", s.PostBrush)
	api.GET("/selection", s.GetSelection)
	api.DELETE("/selection", s.DeleteSelection)
	api.GET("/table", s.GetTable)
	api.GET("/summary", s.GetSummary)
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.echo }

// Start listens on cfg.Addr until Shutdown.
func (s *Server) Start() error {
	s.logger.Info("linkview: serving", "addr", s.cfg.Addr)
	if err := s.echo.Start(s.cfg.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the listener and unsubscribes the views.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	err := s.echo.Shutdown(ctx)
	s.dash.Close()
	return err
}
