// Package api serves the TaskMate HTTP API.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/felixgeelhaar/taskmate/internal/chores/domain/task"
	"github.com/felixgeelhaar/taskmate/pkg/observability"
)

// Server is the HTTP API server.
type Server struct {
	mux     *http.ServeMux
	server  *http.Server
	logger  *slog.Logger
	metrics observability.Metrics
	health  *observability.HealthRegistry
	tasks   *TaskHandler
	events  *EventsHandler
}

// ServerConfig holds configuration for the API server.
type ServerConfig struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DefaultServerConfig returns the default server configuration.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:         ":8099",
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// Dependencies are the components the server exposes. Events and Health
// may be nil.
type Dependencies struct {
	Tasks   TaskService
	Events  Subscriber
	Health  *observability.HealthRegistry
	Metrics observability.Metrics
	Logger  *slog.Logger
}

// NewServer creates a new API server.
func NewServer(cfg ServerConfig, deps Dependencies) *Server {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Metrics == nil {
		deps.Metrics = observability.NoopMetrics{}
	}

	s := &Server{
		mux:     http.NewServeMux(),
		logger:  deps.Logger,
		metrics: deps.Metrics,
		health:  deps.Health,
		tasks:   NewTaskHandler(deps.Tasks, deps.Logger),
	}
	if deps.Events != nil {
		s.events = NewEventsHandler(deps.Events, deps.Tasks, deps.Logger)
	}

	s.registerRoutes()

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)

	s.mux.HandleFunc("GET /api/v1/tasks", s.tasks.List)
	s.mux.HandleFunc("POST /api/v1/tasks", s.tasks.Create)
	s.mux.HandleFunc("GET /api/v1/tasks/{id}", s.tasks.Get)
	s.mux.HandleFunc("PATCH /api/v1/tasks/{id}", s.tasks.Update)
	s.mux.HandleFunc("DELETE /api/v1/tasks/{id}", s.tasks.Delete)
	s.mux.HandleFunc("POST /api/v1/tasks/{id}/toggle", s.tasks.Toggle)
	s.mux.HandleFunc("GET /api/v1/points", s.tasks.Points)

	if s.events != nil {
		s.mux.HandleFunc("GET /api/v1/events", s.events.Stream)
	}
	if snap, ok := s.metrics.(interface{ Snapshot() observability.Snapshot }); ok {
		s.mux.HandleFunc("GET /api/v1/metrics", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, snap.Snapshot())
		})
	}
}

// Handler returns the routed handler wrapped in request middleware.
func (s *Server) Handler() http.Handler {
	return s.withRequestContext(s.mux)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.health == nil {
		writeJSON(w, http.StatusOK, map[string]string{
			"status": string(observability.HealthStatusHealthy),
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
		return
	}
	report := s.health.GetOverallHealth(r.Context())
	status := http.StatusOK
	if report.Status == observability.HealthStatusUnhealthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, report)
}

// withRequestContext tags each request with correlation and request ids,
// then logs and counts it.
func (s *Server) withRequestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := observability.NewRequestContext(r.Context(), r.Header.Get("X-Correlation-ID"))
		w.Header().Set("X-Request-ID", observability.RequestIDFromContext(ctx))

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r.WithContext(ctx))
		elapsed := time.Since(start)

		tags := []observability.Tag{
			observability.T("method", r.Method),
			observability.T("status", strconv.Itoa(rec.status)),
		}
		s.metrics.Counter(observability.MetricHTTPRequests, 1, tags...)
		s.metrics.Timing(observability.MetricHTTPDuration, elapsed, tags...)
		s.logger.DebugContext(ctx, "http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", elapsed.Milliseconds(),
		)
	})
}

// Start starts the API server.
func (s *Server) Start() error {
	s.logger.Info("starting TaskMate API server", "addr", s.server.Addr)
	err := s.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down TaskMate API server")
	if s.events != nil {
		s.events.Close()
	}
	return s.server.Shutdown(ctx)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Unwrap exposes the underlying writer to http.ResponseController.
func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode JSON response", "error", err)
		}
	}
}

// APIError is the JSON error body.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

func (e *APIError) Error() string {
	return e.Code + ": " + e.Message
}

func writeError(w http.ResponseWriter, apiErr *APIError) {
	writeJSON(w, apiErr.Status, apiErr)
}

// errorFor maps store errors to API errors.
func errorFor(err error) *APIError {
	var vErr *task.ValidationError
	switch {
	case errors.As(err, &vErr):
		return &APIError{Status: http.StatusBadRequest, Code: "validation_failed", Message: vErr.Error(), Field: vErr.Field}
	case errors.Is(err, task.ErrValidation):
		return &APIError{Status: http.StatusBadRequest, Code: "validation_failed", Message: err.Error()}
	case errors.Is(err, task.ErrTaskNotFound):
		return &APIError{Status: http.StatusNotFound, Code: "not_found", Message: "Task not found"}
	default:
		return &APIError{Status: http.StatusInternalServerError, Code: "internal_error", Message: "Internal server error"}
	}
}
