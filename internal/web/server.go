package web

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vbonduro/spaceaccess/internal/exportstore"
	"github.com/vbonduro/spaceaccess/internal/service"
)

type Server struct {
	directory *service.Directory
	locations *service.Locations
	tracker   *service.Tracker
	exports   exportstore.ExportStore
	mux       *http.ServeMux
	logger    *slog.Logger
}

func NewServer(dir *service.Directory, locs *service.Locations, tracker *service.Tracker, exports exportstore.ExportStore, logger *slog.Logger) *Server {
	s := &Server{
		directory: dir,
		locations: locs,
		tracker:   tracker,
		exports:   exports,
		mux:       http.NewServeMux(),
		logger:    logger,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	s.mux.Handle("GET /metrics", promhttp.Handler())

	s.mux.HandleFunc("GET /locations", s.handleListLocations)
	s.mux.HandleFunc("POST /locations", s.handleCreateLocation)
	s.mux.HandleFunc("PUT /locations/{id}", s.handleUpdateLocation)
	s.mux.HandleFunc("DELETE /locations/{id}", s.handleDeleteLocation)
	s.mux.HandleFunc("GET /locations/{id}/occupancy", s.handleLocationOccupancy)
	s.mux.HandleFunc("GET /occupancy", s.handleOccupancy)

	s.mux.HandleFunc("POST /scans", s.handleRecordScan)
	s.mux.HandleFunc("GET /events", s.handleListEvents)
	s.mux.HandleFunc("PATCH /events/{id}", s.handleRenameEvent)
	s.mux.HandleFunc("DELETE /events/{id}", s.handleDeleteEvent)

	s.mux.HandleFunc("GET /users/{studentId}", s.handleGetUser)
	s.mux.HandleFunc("PUT /users/{studentId}", s.handleUpdateUser)

	s.mux.HandleFunc("GET /export", s.handleExport)
	s.mux.HandleFunc("POST /exports", s.handleSaveExport)
	s.mux.HandleFunc("GET /exports/{key}", s.handleGetExport)
	s.mux.HandleFunc("DELETE /exports/{key}", s.handleDeleteExport)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// securityHeaders adds defensive HTTP response headers to every response.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		h.Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}

// statusRecorder wraps http.ResponseWriter to capture the written status code.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func requestLogger(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestLogger(s.logger, securityHeaders(s.mux)).ServeHTTP(w, r)
}

// NewHTTPServer wraps s in an http.Server with the listen timeouts.
func (s *Server) NewHTTPServer(addr string) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      s,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
}
