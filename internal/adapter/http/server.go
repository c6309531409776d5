// Package http exposes the rendering engine over HTTP: session and sample
// management, generation/animation job submission with polling, and the
// health, readiness, and metrics endpoints.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/adhirajmuduli/Heatmaps/internal/observability"
	"github.com/adhirajmuduli/Heatmaps/internal/pipeline"
	"github.com/adhirajmuduli/Heatmaps/internal/session"
	"github.com/adhirajmuduli/Heatmaps/internal/worker"
)

// Limits caps request-supplied render parameters.
type Limits struct {
	MaxGridResolution     int
	MaxIntermediateFrames int
}

// Server exposes the engine API plus health, readiness, and metrics routes.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
	metrics    *observability.Metrics

	sessions  *session.Manager
	runner    *worker.Runner
	generator *pipeline.Generator
	limits    Limits
}

// NewServer creates the HTTP server and registers all routes.
func NewServer(addr string, sessions *session.Manager, runner *worker.Runner, generator *pipeline.Generator, limits Limits, metrics *observability.Metrics, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger:    logger,
		metrics:   metrics,
		sessions:  sessions,
		runner:    runner,
		generator: generator,
		limits:    limits,
	}

	mux.HandleFunc("POST /api/sessions", s.handleCreateSession)
	mux.HandleFunc("GET /api/sessions/{id}", s.handleGetSession)
	mux.HandleFunc("DELETE /api/sessions/{id}", s.handleDeleteSession)
	mux.HandleFunc("PUT /api/sessions/{id}/boundary", s.handleSetBoundary)
	mux.HandleFunc("POST /api/sessions/{id}/samples", s.handleAddSamples)
	mux.HandleFunc("DELETE /api/sessions/{id}/samples", s.handleDeleteSample)
	mux.HandleFunc("POST /api/sessions/{id}/generate", s.handleGenerate)
	mux.HandleFunc("POST /api/sessions/{id}/animate", s.handleAnimate)
	mux.HandleFunc("GET /api/jobs/{id}", s.handleJobStatus)

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", promhttp.Handler())

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// handleReady reports ready as soon as the server is wired; the engine has
// no upstream dependency to wait for.
func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}

// writeError maps engine error kinds to HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusBadRequest
	switch {
	case errors.Is(err, session.ErrNotFound), errors.Is(err, worker.ErrUnknownJob):
		status = http.StatusNotFound
	case errors.Is(err, session.ErrSessionBusy), errors.Is(err, session.ErrBoundaryImmutable):
		status = http.StatusConflict
	case errors.Is(err, worker.ErrQueueFull):
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
