// Package api implements the HTTP surface: frame ingest from sensors, the
// latest-frame endpoint the monitor pulls from, occupancy queries, and the
// debug chart pages.
package api

import (
	"io"
	"log"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/heatsense/occupancy.report/internal/config"
	"github.com/heatsense/occupancy.report/internal/db"
	"github.com/heatsense/occupancy.report/internal/httputil"
	"github.com/heatsense/occupancy.report/internal/thermal"
	"github.com/heatsense/occupancy.report/internal/units"
	"github.com/heatsense/occupancy.report/internal/version"
)

// ANSI escape codes for request logging
const colorCyan = "\033[36m"
const colorReset = "\033[0m"
const colorYellow = "\033[33m"
const colorBoldGreen = "\033[1;32m"
const colorBoldRed = "\033[1;31m"

// maxIngestBody bounds frame uploads; a 32x24 frame is ~5KB of JSON.
const maxIngestBody = 1 * 1024 * 1024

// Server serves the thermal ingest and occupancy API.
type Server struct {
	cache *FrameCache
	db    *db.DB
	cfg   *config.TuningConfig
	units string

	mu      sync.RWMutex
	latest  *thermal.Reading
	started time.Time
}

// NewServer creates an API server. The db may be nil (history endpoints then
// report 404); units selects the display unit for chart pages.
func NewServer(cache *FrameCache, database *db.DB, cfg *config.TuningConfig, unit string) *Server {
	if cfg == nil {
		cfg = config.EmptyTuningConfig()
	}
	if !units.Valid(unit) {
		unit = units.Celsius
	}
	return &Server{
		cache:   cache,
		db:      database,
		cfg:     cfg,
		units:   unit,
		started: time.Now(),
	}
}

// SetLatestReading records the most recent reading for /api/occupancy.
func (s *Server) SetLatestReading(r *thermal.Reading) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest = r
}

// LatestReading returns the most recent reading, or nil.
func (s *Server) LatestReading() *thermal.Reading {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest
}

// ServeMux returns the API routes. Mount under /api via StripPrefix.
func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/thermal", s.handleThermal)
	mux.HandleFunc("/thermal/heatmap.png", s.handleHeatmapPNG)
	mux.HandleFunc("/occupancy", s.handleOccupancy)
	mux.HandleFunc("/occupancy/history", s.handleOccupancyHistory)
	mux.HandleFunc("/config", s.handleConfig)
	mux.HandleFunc("/test", s.handleTest)
	return mux
}

// AttachChartRoutes mounts the debug chart pages on the root mux.
func (s *Server) AttachChartRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/charts/occupancy", s.handleOccupancyChart)
	mux.HandleFunc("/charts/thermal", s.handleThermalChart)
}

// handleThermal is the ingest endpoint: sensors POST compact frames, the
// monitor (and the viewer page) GETs the latest one back.
func (s *Server) handleThermal(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.receiveFrame(w, r)
	case http.MethodGet:
		s.latestFrame(w, r)
	default:
		httputil.MethodNotAllowed(w)
	}
}

func (s *Server) receiveFrame(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxIngestBody))
	if err != nil {
		httputil.BadRequest(w, "failed to read body")
		return
	}

	frame, err := thermal.DecodeWireFrame(body, time.Now())
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	s.cache.Put(frame)
	httputil.WriteJSONOK(w, map[string]interface{}{
		"status":   "success",
		"received": len(frame.Temps),
	})
}

func (s *Server) latestFrame(w http.ResponseWriter, r *http.Request) {
	frame := s.cache.Latest(r.URL.Query().Get("sensor_id"))
	if frame == nil {
		httputil.NotFound(w, "no frame available")
		return
	}
	httputil.WriteJSONOK(w, frame.Wire())
}

func (s *Server) handleOccupancy(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	reading := s.LatestReading()
	if reading == nil {
		httputil.NotFound(w, "no reading available")
		return
	}
	httputil.WriteJSONOK(w, reading)
}

func (s *Server) handleOccupancyHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	if s.db == nil {
		httputil.NotFound(w, "no readings store configured")
		return
	}

	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		v, err := strconv.Atoi(l)
		if err != nil || v <= 0 || v > 1000 {
			httputil.BadRequest(w, "limit must be in 1..1000")
			return
		}
		limit = v
	}

	readings, err := s.db.RecentReadings(r.Context(), limit)
	if err != nil {
		httputil.InternalServerError(w, "failed to query readings: "+err.Error())
		return
	}
	httputil.WriteJSONOK(w, readings)
}

// handleConfig exposes the effective tuning so deployments can be inspected
// remotely. Read-only; changes require a restart.
func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	httputil.WriteJSONOK(w, map[string]interface{}{
		"min_human_temp":      s.cfg.GetMinHumanTemp(),
		"max_human_temp":      s.cfg.GetMaxHumanTemp(),
		"room_temp_threshold": s.cfg.GetRoomTempThreshold(),
		"min_cluster_size":    s.cfg.GetMinClusterSize(),
		"max_cluster_size":    s.cfg.GetMaxClusterSize(),
		"connectivity":        int(s.cfg.GetConnectivity()),
		"poll_interval":       s.cfg.GetPollInterval().String(),
		"fetch_timeout":       s.cfg.GetFetchTimeout().String(),
		"ambient_smoothing":   s.cfg.GetAmbientSmoothing(),
		"units":               s.units,
	})
}

func (s *Server) handleTest(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSONOK(w, map[string]string{
		"status":  "server is running",
		"time":    time.Now().Format(time.RFC3339),
		"uptime":  time.Since(s.started).Round(time.Second).String(),
		"version": version.Version,
	})
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Flush() {
	if flusher, ok := lrw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	default:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	}
}

// LoggingMiddleware logs method, path, status, and duration.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		log.Printf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}
