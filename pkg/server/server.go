// Package server provides the HTTP admin API for managing password
// policies.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"citadel-sec/citadel/pkg/config"
	"citadel-sec/citadel/pkg/policy"
)

// Server is the HTTP admin server. It exposes the policy manager's
// read/add/update/delete/search operations, the cache-backed validity
// check, a health endpoint, and optionally the Prometheus metrics
// endpoint.
type Server struct {
	config         *config.ServerConfig
	manager        *policy.Manager
	metricsHandler http.Handler
	httpServer     *http.Server
	logger         *slog.Logger
	shutdownOnce   sync.Once
	mu             sync.RWMutex
	isRunning      bool
}

// NewServer creates a new admin server. metricsHandler may be nil to
// disable the /metrics endpoint.
func NewServer(cfg *config.ServerConfig, manager *policy.Manager, metricsHandler http.Handler, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		config:         cfg,
		manager:        manager,
		metricsHandler: metricsHandler,
		logger:         logger.With("component", "server"),
	}
}

// Start starts the HTTP server and blocks until ctx is cancelled or the
// listener fails.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("server is already running")
	}
	s.isRunning = true
	s.mu.Unlock()

	s.httpServer = &http.Server{
		Addr:         s.config.ListenAddress,
		Handler:      s.setupRoutes(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("starting admin server", "address", s.config.ListenAddress)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		return s.Shutdown()
	}
}

// Shutdown gracefully stops the server, waiting up to the configured
// shutdown timeout for in-flight requests.
func (s *Server) Shutdown() error {
	var err error
	s.shutdownOnce.Do(func() {
		s.logger.Info("shutting down admin server")

		ctx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
		defer cancel()

		if s.httpServer != nil {
			err = s.httpServer.Shutdown(ctx)
		}

		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()
	})
	return err
}

// setupRoutes configures the HTTP routes.
func (s *Server) setupRoutes() http.Handler {
	mux := http.NewServeMux()

	h := newPolicyHandler(s.manager, s.logger)
	mux.HandleFunc("/v1/policies", h.handleCollection)
	mux.HandleFunc("/v1/policies/", h.handleItem)
	mux.HandleFunc("/healthz", s.handleHealth)

	if s.metricsHandler != nil {
		mux.Handle("/metrics", s.metricsHandler)
	}

	return mux
}

// handleHealth answers liveness probes.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, `{"status":"ok"}`)
}
