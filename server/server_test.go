package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/spektr-org/linkview/brush"
	"github.com/spektr-org/linkview/engine"
	"github.com/spektr-org/linkview/helpers"
)

// ============================================================================
// FIXTURES
// ============================================================================

var carsCSV = []byte(`origin,mpg,hp
USA,18,130
Japan,24,95
USA,18,150
Europe,26,46
Japan,31,65
USA,,190
`)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	view, err := helpers.ParseCSVView(carsCSV)
	if err != nil {
		t.Fatalf("ParseCSVView failed: %v", err)
	}
	cfg := DefaultConfig()
	cfg.Name = "cars"
	cfg.Bindings = engine.Bindings{X: "origin", Y: "mpg"}
	cfg.HistColumn = "mpg"
	cfg.Width, cfg.Height = 300, 200
	s, err := New(view, cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return s
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

type selectionBody struct {
	Selection brush.SelectionSet `json:"selection" msgpack:"selection"`
}

// ============================================================================
// TESTS
// ============================================================================

func TestGetSchema(t *testing.T) {
	s := newTestServer(t)
	rec := do(t, s, http.MethodGet, "/api/schema", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	body := rec.Body.String()
	for _, want := range []string{`"name":"cars"`, `"key":"mpg"`, `"kind":"continuous"`, `"kind":"discrete"`} {
		if !strings.Contains(body, want) {
			t.Errorf("schema missing %s: %s", want, body)
		}
	}
}

func TestPostFrame(t *testing.T) {
	s := newTestServer(t)
	rec := do(t, s, http.MethodPost, "/api/frame", `{"bindings":{"x":"hp","y":"mpg","color":"origin"},"width":400}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}

	var frame struct {
		Width  float64 `json:"width"`
		Height float64 `json:"height"`
		Points []struct {
			ID   int      `json:"id"`
			YPos *float64 `json:"yPos"`
		} `json:"points"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &frame); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if frame.Width != 400 || frame.Height != 200 {
		t.Errorf("geometry = %vx%v, want 400x200", frame.Width, frame.Height)
	}
	if len(frame.Points) != 6 {
		t.Fatalf("points = %d, want 6", len(frame.Points))
	}
	if frame.Points[5].YPos != nil {
		t.Error("missing mpg should encode as null")
	}
}

func TestPostFrameErrors(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/api/frame", `{"bindings":{"x":"weight"}}`)
	if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), "weight") {
		t.Errorf("unknown column: %d %s", rec.Code, rec.Body)
	}

	rec = do(t, s, http.MethodPost, "/api/frame", `{"width":-5}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad geometry: %d %s", rec.Code, rec.Body)
	}

	rec = do(t, s, http.MethodPost, "/api/frame", `{not json`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad body: %d %s", rec.Code, rec.Body)
	}
}

func TestBrushAndSelection(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/api/brush", `{"view":"scatter","x0":0,"y0":0,"x1":300,"y1":200,"end":true}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("brush status = %d: %s", rec.Code, rec.Body)
	}
	var got selectionBody
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !got.Selection.SameIDs(brush.NewSelection("", 0, 1, 2, 3, 4)) {
		t.Errorf("selection = %v", got.Selection.IDs)
	}

	rec = do(t, s, http.MethodGet, "/api/table?selected=true", "")
	if !strings.Contains(rec.Body.String(), "5 of 6 rows selected") {
		t.Errorf("table = %s", rec.Body)
	}

	rec = do(t, s, http.MethodGet, "/api/summary?column=hp", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"count":5`) {
		t.Errorf("summary: %d %s", rec.Code, rec.Body)
	}
	rec = do(t, s, http.MethodGet, "/api/summary", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("summary without column: %d", rec.Code)
	}

	rec = do(t, s, http.MethodDelete, "/api/selection", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("clear status = %d", rec.Code)
	}
	rec = do(t, s, http.MethodGet, "/api/selection", "")
	got = selectionBody{}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !got.Selection.Empty() {
		t.Errorf("selection after clear = %v", got.Selection.IDs)
	}

	rec = do(t, s, http.MethodPost, "/api/brush", `{"view":"pie"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown view: %d %s", rec.Code, rec.Body)
	}
}

func TestMsgpackNegotiation(t *testing.T) {
	s := newTestServer(t)

	body, err := helpers.EncodeMsgpack(BrushRequest{View: "histogram", X0: 0, X1: 300, End: true})
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/brush", bytes.NewReader(body))
	req.Header.Set(echo.HeaderContentType, helpers.MsgpackContentType)
	req.Header.Set(echo.HeaderAccept, helpers.MsgpackContentType)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	if ct := rec.Header().Get(echo.HeaderContentType); ct != helpers.MsgpackContentType {
		t.Errorf("content type = %q", ct)
	}
	var got selectionBody
	if err := helpers.DecodeMsgpack(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Selection.Source != "histogram" || got.Selection.Len() != 5 {
		t.Errorf("selection = %+v", got.Selection)
	}
}
