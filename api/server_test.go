package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/liqboard/liqboard/internal/config"
	"github.com/liqboard/liqboard/internal/store"
)

// ════════════════════════════════════════════════════════════════════
// Test Helpers
// ════════════════════════════════════════════════════════════════════

const testDataset = `{
  "meta": {"last_updated": "2024-06-01"},
  "formula_1": [["2024-01-01", 6100.5], ["2024-03-01", 6200.0], ["2024-06-01", 6150.25]],
  "fed_assets": [["2024-01-01", 7700.0], ["2024-03-01", 7650.0], ["2024-06-01", 7600.0]],
  "tga": [["2024-01-01", 750.0], ["2024-03-01", 800.0], ["2024-06-01", 780.0]],
  "rrp": [["2024-01-01", 500.0], ["2024-03-01", 450.0], ["2024-06-01", 400.0]],
  "loans_facilities": [["2024-01-01", 5.0], ["2024-03-01", 4.5], ["2024-06-01", 4.0]],
  "loans_held": [["2024-01-01", 6.0], ["2024-03-01", 5.5], ["2024-06-01", 5.0]]
}`

func testServer(t *testing.T, loaded bool) *Server {
	t.Helper()
	st := store.New()
	if loaded {
		if err := st.Load([]byte(testDataset)); err != nil {
			t.Fatalf("load test dataset: %v", err)
		}
	}
	srv := NewServer(&config.Config{}, st)
	srv.SetServeUI(false)
	return srv
}

func doGet(t *testing.T, srv *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var resp APIResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return resp
}

func decodeLiquidity(t *testing.T, rec *httptest.ResponseRecorder) LiquidityResponse {
	t.Helper()
	var envelope struct {
		Success bool              `json:"success"`
		Data    LiquidityResponse `json:"data"`
		Error   string            `json:"error"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("failed to decode liquidity response: %v", err)
	}
	if !envelope.Success {
		t.Fatalf("request failed: %s", envelope.Error)
	}
	return envelope.Data
}

func seriesByKey(t *testing.T, resp LiquidityResponse, key string) SeriesPayload {
	t.Helper()
	for _, s := range resp.Series {
		if string(s.Key) == key {
			return s
		}
	}
	t.Fatalf("series %q not found in response", key)
	return SeriesPayload{}
}

// ════════════════════════════════════════════════════════════════════
// Health
// ════════════════════════════════════════════════════════════════════

func TestHealth(t *testing.T) {
	srv := testServer(t, true)

	for _, path := range []string{"/health", "/api/v1/health"} {
		rec := doGet(t, srv, path)
		if rec.Code != http.StatusOK {
			t.Errorf("%s: status %d, want 200", path, rec.Code)
		}
		resp := decodeResponse(t, rec)
		if !resp.Success {
			t.Errorf("%s: success=false", path)
		}
	}
}

func TestHealthReportsDataNotLoaded(t *testing.T) {
	srv := testServer(t, false)

	rec := doGet(t, srv, "/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, want 200", rec.Code)
	}
	var envelope struct {
		Data struct {
			DataLoaded bool `json:"data_loaded"`
		} `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if envelope.Data.DataLoaded {
		t.Error("data_loaded should be false before Load")
	}
}

// ════════════════════════════════════════════════════════════════════
// Liquidity endpoints
// ════════════════════════════════════════════════════════════════════

func TestLiquidityFull(t *testing.T) {
	srv := testServer(t, true)

	rec := doGet(t, srv, "/api/v1/liquidity")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, want 200", rec.Code)
	}
	data := decodeLiquidity(t, rec)

	if len(data.Series) != 6 {
		t.Fatalf("got %d series, want 6", len(data.Series))
	}
	if data.LastUpdated != "2024-06-01" {
		t.Errorf("last_updated = %q, want 2024-06-01", data.LastUpdated)
	}

	f1 := seriesByKey(t, data, "formula_1")
	if len(f1.Points) != 3 {
		t.Fatalf("formula_1: got %d points, want 3", len(f1.Points))
	}
	if f1.Points[0].Date != "2024-01-01" || f1.Points[0].Value != 6100.5 {
		t.Errorf("formula_1[0] = %+v", f1.Points[0])
	}
}

func TestLiquidityNotLoaded(t *testing.T) {
	srv := testServer(t, false)

	for _, path := range []string{
		"/api/v1/liquidity",
		"/api/v1/liquidity/filtered",
		"/api/v1/liquidity/latest",
		"/api/v1/meta",
		"/api/v1/chart/formula_1.png",
	} {
		rec := doGet(t, srv, path)
		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("%s: status %d, want 503", path, rec.Code)
		}
		resp := decodeResponse(t, rec)
		if resp.Success {
			t.Errorf("%s: success should be false", path)
		}
	}
}

func TestLiquidityFilteredCustomRange(t *testing.T) {
	srv := testServer(t, true)

	rec := doGet(t, srv, "/api/v1/liquidity/filtered?start=2024-02-01&end=2024-04-01")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, want 200", rec.Code)
	}
	data := decodeLiquidity(t, rec)

	f1 := seriesByKey(t, data, "formula_1")
	if len(f1.Points) != 1 {
		t.Fatalf("got %d points, want 1 (only 2024-03-01 inside window)", len(f1.Points))
	}
	if f1.Points[0].Date != "2024-03-01" {
		t.Errorf("point date = %q", f1.Points[0].Date)
	}
	if data.Range == nil || data.Range.Start != "2024-02-01" || data.Range.End != "2024-04-01" {
		t.Errorf("range info = %+v", data.Range)
	}
}

func TestLiquidityFilteredPresetAll(t *testing.T) {
	srv := testServer(t, true)

	rec := doGet(t, srv, "/api/v1/liquidity/filtered?range=all")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, want 200", rec.Code)
	}
	data := decodeLiquidity(t, rec)

	for _, s := range data.Series {
		if len(s.Points) != 3 {
			t.Errorf("%s: got %d points under range=all, want 3", s.Key, len(s.Points))
		}
	}
}

func TestLiquidityFilteredBadDate(t *testing.T) {
	srv := testServer(t, true)

	for _, path := range []string{
		"/api/v1/liquidity/filtered?start=junk",
		"/api/v1/liquidity/filtered?start=2024-01-01&end=junk",
	} {
		rec := doGet(t, srv, path)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status %d, want 400", path, rec.Code)
		}
		resp := decodeResponse(t, rec)
		if resp.Error == "" {
			t.Errorf("%s: expected error message", path)
		}
	}
}

func TestLiquidityFilteredCustomWithoutStart(t *testing.T) {
	srv := testServer(t, true)

	// A custom request with only an end date cannot be resolved; the
	// endpoint returns the previously filtered view instead of erroring.
	rec := doGet(t, srv, "/api/v1/liquidity/filtered?end=2024-04-01")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, want 200", rec.Code)
	}
	data := decodeLiquidity(t, rec)
	if data.Range != nil {
		t.Errorf("unresolvable selector should carry no range info, got %+v", data.Range)
	}
}

func TestLiquidityLatest(t *testing.T) {
	srv := testServer(t, true)

	rec := doGet(t, srv, "/api/v1/liquidity/latest")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, want 200", rec.Code)
	}
	var envelope struct {
		Data []LatestEntry `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(envelope.Data) != 6 {
		t.Fatalf("got %d entries, want 6", len(envelope.Data))
	}
	for _, e := range envelope.Data {
		if e.Date != "2024-06-01" {
			t.Errorf("%s: latest date = %q, want 2024-06-01", e.Key, e.Date)
		}
		if e.Formatted == "" {
			t.Errorf("%s: missing formatted value", e.Key)
		}
	}
}

func TestMeta(t *testing.T) {
	srv := testServer(t, true)

	rec := doGet(t, srv, "/api/v1/meta")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "2024-06-01") {
		t.Errorf("meta body missing last_updated: %s", rec.Body.String())
	}
}

func TestRanges(t *testing.T) {
	srv := testServer(t, true)

	rec := doGet(t, srv, "/api/v1/ranges")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, want 200", rec.Code)
	}
	var envelope struct {
		Data []string `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(envelope.Data) != 7 {
		t.Errorf("got %d preset keys, want 7", len(envelope.Data))
	}
}

// ════════════════════════════════════════════════════════════════════
// Charts
// ════════════════════════════════════════════════════════════════════

func TestChartEndpoint(t *testing.T) {
	srv := testServer(t, true)

	rec := doGet(t, srv, "/api/v1/chart/formula_1.png?range=all")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, want 200; body: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("Content-Type = %q, want image/png", ct)
	}
	if rec.Body.Len() == 0 {
		t.Error("empty chart body")
	}
}

func TestChartUnknownSeries(t *testing.T) {
	srv := testServer(t, true)

	rec := doGet(t, srv, "/api/v1/chart/bogus.png")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status %d, want 404", rec.Code)
	}
}

// ════════════════════════════════════════════════════════════════════
// Config
// ════════════════════════════════════════════════════════════════════

func TestGetConfigExcludesFREDKey(t *testing.T) {
	st := store.New()
	cfg := &config.Config{}
	cfg.FRED.APIKey = "super-secret-fred-key"
	srv := NewServer(cfg, st)
	srv.SetServeUI(false)

	rec := doGet(t, srv, "/api/v1/config")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, want 200", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "super-secret-fred-key") {
		t.Error("config response leaked the FRED API key")
	}
}

func TestGetConfigKeysMasked(t *testing.T) {
	st := store.New()
	cfg := &config.Config{}
	cfg.FRED.APIKey = "0123456789abcdef"
	srv := NewServer(cfg, st)
	srv.SetServeUI(false)

	rec := doGet(t, srv, "/api/v1/config/keys")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if strings.Contains(body, "0123456789abcdef") {
		t.Error("keys response contains the raw key")
	}
	if !strings.Contains(body, "012...def") {
		t.Errorf("keys response missing masked key: %s", body)
	}
}

// ════════════════════════════════════════════════════════════════════
// Selector parsing
// ════════════════════════════════════════════════════════════════════

func TestParseSelector(t *testing.T) {
	tests := []struct {
		query   string
		wantErr bool
	}{
		{"", false},
		{"range=1w", false},
		{"range=unknown-key", false}, // unknown preset falls back, not an error
		{"start=2024-01-01", false},
		{"start=2024-01-01&end=2024-02-01", false},
		{"end=2024-02-01", false},
		{"start=not-a-date", true},
		{"end=13/01/2024x", true},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/?%s", tt.query), nil)
			_, err := parseSelector(req)
			if (err != nil) != tt.wantErr {
				t.Errorf("query %q: err = %v, wantErr %v", tt.query, err, tt.wantErr)
			}
		})
	}
}
