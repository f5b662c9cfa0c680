// Package api provides the HTTP REST API server for liqboard.
//
// It exposes endpoints for the net-liquidity dataset, range-filtered
// views, chart images, and Federal Reserve news.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/liqboard/liqboard/internal/chart"
	"github.com/liqboard/liqboard/internal/config"
	"github.com/liqboard/liqboard/internal/news"
	"github.com/liqboard/liqboard/internal/series"
	"github.com/liqboard/liqboard/internal/store"
	"github.com/liqboard/liqboard/pkg/models"
	"github.com/liqboard/liqboard/pkg/utils"
	"github.com/liqboard/liqboard/web"
)

// Server is the HTTP API server.
type Server struct {
	router  chi.Router
	cfg     *config.Config
	store   *store.Store
	news    *news.Fetcher
	serveUI bool // when true, serve the embedded web UI at /
}

// NewServer creates a configured API server with all routes and middleware.
func NewServer(cfg *config.Config, st *store.Store) *Server {
	var feeds []news.Source
	for _, u := range cfg.News.Feeds {
		feeds = append(feeds, news.Source{Name: u, RSSURL: u})
	}

	srv := &Server{
		cfg:     cfg,
		store:   st,
		news:    news.NewFetcher(feeds),
		serveUI: true, // serve embedded web UI by default
	}

	srv.router = srv.buildRouter()
	return srv
}

// SetServeUI controls whether the embedded web UI is served.
// Must be called before ListenAndServe.
func (s *Server) SetServeUI(enabled bool) {
	s.serveUI = enabled
	s.router = s.buildRouter()
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// ListenAndServe starts the HTTP server with graceful shutdown.
func (s *Server) ListenAndServe(addr string) error {
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	<-done
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	return httpSrv.Shutdown(ctx)
}

// buildRouter configures all routes and middleware.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// CORS
	origins := []string{"*"}
	if len(s.cfg.API.CORSOrigins) > 0 {
		origins = s.cfg.API.CORSOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/health", s.handleHealth)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Health (also available at /health)
		r.Get("/health", s.handleHealth)

		// Dataset
		r.Get("/liquidity", s.handleLiquidity)
		r.Get("/liquidity/filtered", s.handleLiquidityFiltered)
		r.Get("/liquidity/latest", s.handleLiquidityLatest)
		r.Get("/meta", s.handleMeta)
		r.Get("/diagnostics", s.handleDiagnostics)
		r.Get("/ranges", s.handleRanges)

		// Chart images
		r.Get("/chart/{series}.png", s.handleChart)

		// News
		r.Get("/news", s.handleNews)

		// Configuration
		r.Get("/config", s.handleGetConfig)
		r.Get("/config/keys", s.handleGetConfigKeys)
	})

	// Serve embedded web UI
	if s.serveUI {
		s.mountUI(r, web.DistFS())
	}

	return r
}

// mountUI serves the embedded static dashboard. Unknown paths fall
// back to index.html.
func (s *Server) mountUI(r chi.Router, distFS fs.FS) {
	fileServer := http.FileServer(http.FS(distFS))

	r.Get("/*", func(w http.ResponseWriter, r *http.Request) {
		rPath := strings.TrimPrefix(r.URL.Path, "/")
		if rPath == "" {
			rPath = "index.html"
		}

		f, err := distFS.Open(rPath)
		if err != nil {
			serveIndexHTML(w, r, distFS)
			return
		}
		f.Close()

		if rPath == "index.html" || strings.HasSuffix(rPath, ".html") {
			w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		}

		fileServer.ServeHTTP(w, r)
	})
}

// serveIndexHTML reads and serves the embedded index.html.
func serveIndexHTML(w http.ResponseWriter, r *http.Request, distFS fs.FS) {
	data, err := fs.ReadFile(distFS, "index.html")
	if err != nil {
		http.Error(w, "web UI not available", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.WriteHeader(http.StatusOK)
	w.Write(data) //nolint:errcheck
}

// ============================================================
// Request / Response types
// ============================================================

// APIResponse is the standard JSON envelope.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// SeriesPayload is the wire form of one series.
type SeriesPayload struct {
	Key    models.SeriesKey `json:"key"`
	Title  string           `json:"title"`
	Points []PointPayload   `json:"points"`
}

// PointPayload is the wire form of one observation.
type PointPayload struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

// LiquidityResponse carries a full or filtered view of the dataset.
type LiquidityResponse struct {
	Series      []SeriesPayload `json:"series"`
	LastUpdated string          `json:"last_updated"`
	Range       *RangeInfo      `json:"range,omitempty"`
}

// RangeInfo describes the window a filtered view covers.
type RangeInfo struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// LatestEntry is the most recent value of one series, with a
// magnitude-formatted label for display.
type LatestEntry struct {
	Key       models.SeriesKey `json:"key"`
	Title     string           `json:"title"`
	Date      string           `json:"date"`
	Value     float64          `json:"value"`
	Formatted string           `json:"formatted"`
}

// ============================================================
// Handlers
// ============================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"status":      "ok",
			"version":     "dev",
			"data_loaded": s.store.Loaded(),
		},
	})
}

func (s *Server) handleLiquidity(w http.ResponseWriter, r *http.Request) {
	if !s.store.Loaded() {
		writeError(w, http.StatusServiceUnavailable, "dataset not loaded")
		return
	}

	set := s.store.Canonical()
	meta := s.store.Meta()

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    buildLiquidityResponse(set, meta, nil),
	})
}

func (s *Server) handleLiquidityFiltered(w http.ResponseWriter, r *http.Request) {
	if !s.store.Loaded() {
		writeError(w, http.StatusServiceUnavailable, "dataset not loaded")
		return
	}

	sel, err := parseSelector(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	now := time.Now().UTC()
	filtered := s.store.View(sel, now)
	meta := s.store.Meta()

	var info *RangeInfo
	if start, end, ok := series.ResolveWindow(sel, now); ok {
		info = &RangeInfo{
			Start: utils.FormatDate(start),
			End:   utils.FormatDate(end),
		}
	}

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    buildLiquidityResponse(filtered, meta, info),
	})
}

func (s *Server) handleLiquidityLatest(w http.ResponseWriter, r *http.Request) {
	if !s.store.Loaded() {
		writeError(w, http.StatusServiceUnavailable, "dataset not loaded")
		return
	}

	set := s.store.Canonical()
	entries := make([]LatestEntry, 0, len(models.SeriesKeys))
	for _, key := range models.SeriesKeys {
		ser := set[key]
		if len(ser) == 0 {
			continue
		}
		last := ser[len(ser)-1]
		entries = append(entries, LatestEntry{
			Key:       key,
			Title:     models.SeriesTitle(key),
			Date:      utils.FormatDate(last.Date),
			Value:     last.Value,
			Formatted: utils.FormatBillions(last.Value),
		})
	}

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    entries,
	})
}

func (s *Server) handleMeta(w http.ResponseWriter, r *http.Request) {
	if !s.store.Loaded() {
		writeError(w, http.StatusServiceUnavailable, "dataset not loaded")
		return
	}

	meta := s.store.Meta()
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"last_updated": utils.FormatDate(meta.LastUpdated),
		},
	})
}

func (s *Server) handleDiagnostics(w http.ResponseWriter, r *http.Request) {
	if !s.store.Loaded() {
		writeError(w, http.StatusServiceUnavailable, "dataset not loaded")
		return
	}

	diags := s.store.Diagnostics()
	out := make([]string, len(diags))
	for i, d := range diags {
		out[i] = d.String()
	}

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"count":       len(out),
			"diagnostics": out,
		},
	})
}

func (s *Server) handleRanges(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    series.PresetKeys,
	})
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	if !s.store.Loaded() {
		writeError(w, http.StatusServiceUnavailable, "dataset not loaded")
		return
	}

	key := models.SeriesKey(chi.URLParam(r, "series"))
	if !models.ValidSeriesKey(key) {
		writeError(w, http.StatusNotFound, "unknown series: "+string(key))
		return
	}

	sel, err := parseSelector(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	filtered := s.store.View(sel, time.Now().UTC())
	png, err := chart.Render(key, filtered[key])
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	w.Write(png) //nolint:errcheck
}

func (s *Server) handleNews(w http.ResponseWriter, r *http.Request) {
	limit := s.cfg.News.Limit

	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	articles, err := s.news.GetNews(ctx, limit)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    articles,
	})
}

// ============================================================
// Helpers
// ============================================================

// parseSelector builds a range selector from query parameters. The
// presence of either a start or end parameter makes the request a
// custom range; otherwise the range parameter names a preset (missing
// means the default window).
func parseSelector(r *http.Request) (series.Selector, error) {
	q := r.URL.Query()
	startStr := q.Get("start")
	endStr := q.Get("end")

	if startStr != "" || endStr != "" || hasParam(q, "start") || hasParam(q, "end") {
		var start, end time.Time
		if startStr != "" {
			t, err := utils.ParseDate(startStr)
			if err != nil {
				return series.Selector{}, fmt.Errorf("invalid start date %q; use YYYY-MM-DD", startStr)
			}
			start = t
		}
		if endStr != "" {
			t, err := utils.ParseDate(endStr)
			if err != nil {
				return series.Selector{}, fmt.Errorf("invalid end date %q; use YYYY-MM-DD", endStr)
			}
			end = t
		}
		return series.CustomSelector(start, end), nil
	}

	preset := q.Get("range")
	if preset == "" {
		preset = series.Range30D
	}
	return series.PresetSelector(preset), nil
}

func hasParam(q url.Values, name string) bool {
	_, ok := q[name]
	return ok
}

func buildLiquidityResponse(set models.SeriesSet, meta models.Meta, info *RangeInfo) LiquidityResponse {
	resp := LiquidityResponse{
		Series:      make([]SeriesPayload, 0, len(models.SeriesKeys)),
		LastUpdated: utils.FormatDate(meta.LastUpdated),
		Range:       info,
	}
	for _, key := range models.SeriesKeys {
		ser := set[key]
		pts := make([]PointPayload, len(ser))
		for i, p := range ser {
			pts[i] = PointPayload{Date: utils.FormatDate(p.Date), Value: p.Value}
		}
		resp.Series = append(resp.Series, SeriesPayload{
			Key:    key,
			Title:  models.SeriesTitle(key),
			Points: pts,
		})
	}
	return resp
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("failed to write JSON response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, APIResponse{
		Success: false,
		Error:   msg,
	})
}
