// Package server exposes the api-docs subsystem over HTTP: the initial
// snapshot load, server-side generation, a WebSocket gateway bridging browser
// clients to the broker subjects, and metrics/health endpoints.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/specboard/specboard/realtime"
	"github.com/specboard/specboard/session"
)

// Server serves the HTTP and WebSocket API.
type Server struct {
	addr      string
	snapshots realtime.SnapshotStore
	transport realtime.Transport
	generator session.Generator
	logger    *slog.Logger

	httpServer *http.Server
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithGenerator enables the server-side generation endpoint.
func WithGenerator(g session.Generator) Option {
	return func(s *Server) {
		s.generator = g
	}
}

// New creates a server. transport carries WebSocket traffic to the broker;
// snapshots serves initial loads.
func New(addr string, snapshots realtime.SnapshotStore, transport realtime.Transport, opts ...Option) *Server {
	s := &Server{
		addr:      addr,
		snapshots: snapshots,
		transport: transport,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler builds the HTTP route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/projects/{projectID}/api-docs", s.handleGetAPISpec)
	mux.HandleFunc("POST /api/v1/projects/{projectID}/api-docs/generate", s.handleGenerate)
	mux.HandleFunc("GET /ws", s.handleWebSocket)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())
	return s.logRequests(mux)
}

// ListenAndServe runs the server until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.httpServer.ListenAndServe()
	}()

	s.logger.Info("HTTP server listening", "addr", s.addr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn("HTTP shutdown failed", "error", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// logRequests wraps the mux with request logging.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
