// Package web provides the optional status endpoint for sloris.
// It serves liveness and readiness checks, the Prometheus exposition and
// the latest statistics snapshot as JSON.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-i2p/sloris/lib/metrics"
	"github.com/gorilla/mux"
)

// Server is the status HTTP server.
type Server struct {
	httpServer *http.Server
	source     StatsSource
	version    string
	logger     *slog.Logger
	mu         sync.RWMutex
	running    bool
	addr       net.Addr
}

// Config holds web server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., "127.0.0.1:9102")
	ListenAddr string
	// Source supplies snapshots. Required.
	Source StatsSource
	// Metrics serves /metrics. Defaults to the process metrics registry.
	Metrics http.Handler
	// Version is reported by the health endpoint
	Version string
	// Logger is the structured logger
	Logger *slog.Logger
}

// New creates a new status server. Call Start to begin serving.
func New(cfg Config) (*Server, error) {
	if cfg.Source == nil {
		return nil, errors.New("stats source is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.Handler()
	}

	s := &Server{
		source:  cfg.Source,
		version: cfg.Version,
		logger:  cfg.Logger.With("component", "web"),
	}

	s.httpServer = &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           s.withMiddleware(s.router(cfg.Metrics)),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return s, nil
}

// router configures all routes.
func (s *Server) router(metricsHandler http.Handler) *mux.Router {
	router := mux.NewRouter()

	// Health checks
	router.HandleFunc("/health", s.handleAPIHealth).Methods("GET")
	router.HandleFunc("/api/health", s.handleAPIHealth).Methods("GET")
	router.HandleFunc("/healthz", s.handleAPILiveness).Methods("GET")
	router.HandleFunc("/readyz", s.handleAPIReadiness).Methods("GET")

	// Prometheus metrics
	router.Handle("/metrics", metricsHandler).Methods("GET")

	// Statistics
	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/stats", s.handleAPIStats).Methods("GET")
	api.HandleFunc("/stats/lifetimes", s.handleAPILifetimes).Methods("GET")

	return router
}

// Start starts the web server.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("server already running")
	}

	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	s.running = true
	s.addr = ln.Addr()

	s.logger.Info("status server started", "addr", s.addr.String())

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Error("server error", "error", err)
		}
	}()

	return nil
}

// Addr returns the bound address, or nil if the server is not running.
func (s *Server) Addr() net.Addr {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.addr
}

// Stop stops the web server gracefully.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	s.mu.Unlock()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	s.logger.Info("status server stopped")
	return nil
}

// withMiddleware wraps the handler with common middleware.
func (s *Server) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Cache-Control", "no-store")

		next.ServeHTTP(w, r)

		log.WithField("method", r.Method).
			WithField("path", r.URL.Path).
			WithField("remote", r.RemoteAddr).
			WithField("duration", time.Since(start)).
			Debug("request served")
	})
}

// writeJSON writes a JSON response.
func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.WithError(err).Error("json encode error")
	}
}

// writeError writes a JSON error response.
func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
