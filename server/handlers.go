package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/spektr-org/linkview/engine"
	"github.com/spektr-org/linkview/helpers"
	"github.com/spektr-org/linkview/views"
)

// FrameRequest redraws the dashboard. Zero geometry keeps the server's.
type FrameRequest struct {
	Bindings engine.Bindings `json:"bindings" msgpack:"bindings"`
	Width    float64         `json:"width,omitempty" msgpack:"width,omitempty"`
	Height   float64         `json:"height,omitempty" msgpack:"height,omitempty"`
	Radius   float64         `json:"radius,omitempty" msgpack:"radius,omitempty"`
}

// BrushRequest moves one view's brush. The histogram reads x0 and x1 only.
type BrushRequest struct {
	View string  `json:"view" msgpack:"view"`
	X0   float64 `json:"x0" msgpack:"x0"`
	Y0   float64 `json:"y0" msgpack:"y0"`
	X1   float64 `json:"x1" msgpack:"x1"`
	Y1   float64 `json:"y1" msgpack:"y1"`
	End  bool    `json:"end,omitempty" msgpack:"end,omitempty"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error" msgpack:"error"`
}

// --- HANDLERS ---

// GetSchema returns the column profiles.
func (s *Server) GetSchema(c echo.Context) error {
	return respond(c, http.StatusOK, s.schema)
}

// PostFrame redraws every view and returns the new frame.
func (s *Server) PostFrame(c echo.Context) error {
	var req FrameRequest
	if err := decode(c, &req); err != nil {
		return err
	}
	if req.Width == 0 {
		req.Width = s.cfg.Width
	}
	if req.Height == 0 {
		req.Height = s.cfg.Height
	}
	if req.Radius == 0 {
		req.Radius = s.cfg.Radius
	}

	frame, err := s.dash.Draw(req.Bindings, req.Radius, req.Width, req.Height)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, frame)
}

// PostBrush applies a brush gesture and returns the linked state.
func (s *Server) PostBrush(c echo.Context) error {
	var req BrushRequest
	if err := decode(c, &req); err != nil {
		return err
	}
	state, err := s.dash.Brush(req.View, req.X0, req.Y0, req.X1, req.Y1, req.End)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, state)
}

// GetSelection returns the linked state.
func (s *Server) GetSelection(c echo.Context) error {
	return respond(c, http.StatusOK, s.dash.State())
}

// DeleteSelection clears every view's highlight.
func (s *Server) DeleteSelection(c echo.Context) error {
	state, err := s.dash.Clear()
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, state)
}

// GetTable returns the table snapshot.
func (s *Server) GetTable(c echo.Context) error {
	only, _ := strconv.ParseBool(c.QueryParam("selected"))
	return respond(c, http.StatusOK, s.dash.Table(only))
}

// GetSummary compares ?column= over the selection and the dataset.
func (s *Server) GetSummary(c echo.Context) error {
	column := c.QueryParam("column")
	if column == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "column is required")
	}
	summary, err := s.dash.Summary(column)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, summary)
}

// --- CODEC ---

func wantsMsgpack(c echo.Context) bool {
	return strings.Contains(c.Request().Header.Get(echo.HeaderAccept), helpers.MsgpackContentType)
}

// respond writes v as msgpack or JSON per the Accept header.
func respond(c echo.Context, code int, v any) error {
	if !wantsMsgpack(c) {
		return c.JSON(code, v)
	}
	data, err := helpers.EncodeMsgpack(v)
	if err != nil {
		return err
	}
	return c.Blob(code, helpers.MsgpackContentType, data)
}

// decode reads the request body as msgpack or JSON per Content-Type.
func decode(c echo.Context, v any) error {
	ct := c.Request().Header.Get(echo.HeaderContentType)
	if !strings.HasPrefix(ct, helpers.MsgpackContentType) {
		if err := c.Bind(v); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		}
		return nil
	}
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "failed to read request body")
	}
	if err := helpers.DecodeMsgpack(body, v); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

// --- ERRORS ---

// statusFor maps engine and view errors to HTTP codes.
func statusFor(err error) int {
	var he *echo.HTTPError
	switch {
	case errors.As(err, &he):
		return he.Code
	case errors.Is(err, engine.ErrUnknownColumn),
		errors.Is(err, engine.ErrInvalidGeometry),
		errors.Is(err, views.ErrUnknownView):
		return http.StatusBadRequest
	case errors.Is(err, views.ErrNotDrawn):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	code := statusFor(err)
	msg := err.Error()
	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg = fmt.Sprint(he.Message)
	}
	if code >= http.StatusInternalServerError {
		s.logger.Error("linkview: request failed", "path", c.Path(), "error", err)
	}
	if rerr := respond(c, code, ErrorResponse{Error: msg}); rerr != nil {
		s.logger.Error("linkview: writing error response", "error", rerr)
	}
}
