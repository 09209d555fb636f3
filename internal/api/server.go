package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"atlas/internal/adapters/config"
	"atlas/internal/api/health"
	"atlas/internal/metrics"
	"atlas/pkg/errors"
	"atlas/pkg/logger"
)

// Server wraps HTTP server with lifecycle management
type Server struct {
	httpServer *http.Server
	log        *logger.Logger
}

// NewServer creates and configures HTTP server with all routes
func NewServer(cfg config.ServerConfig, app AppConfig, healthHandler *health.Handler, h *Handlers) *Server {
	log := logger.Get().With("component", "api")
	mux := http.NewServeMux()

	// Health check endpoints (Kubernetes probes)
	mux.HandleFunc("GET /health", healthHandler.HandleHealth)
	mux.HandleFunc("GET /ready", healthHandler.HandleReadiness)
	mux.HandleFunc("GET /live", healthHandler.HandleLiveness)

	// Prometheus metrics endpoint
	mux.Handle("GET /metrics", metrics.Handler())

	// Trading API
	mux.HandleFunc("GET /api/portfolio", h.GetPortfolio)
	mux.HandleFunc("GET /api/portfolio/equity", h.GetEquityHistory)
	mux.HandleFunc("GET /api/orders", h.ListOrders)
	mux.HandleFunc("POST /api/orders/{id}/approve", h.ApproveOrder)
	mux.HandleFunc("POST /api/orders/{id}/reject", h.RejectOrder)
	mux.HandleFunc("GET /api/traces", h.ListRuns)
	mux.HandleFunc("GET /api/traces/{id}/tools", h.ListToolCalls)
	mux.HandleFunc("POST /api/pilot/run", h.TriggerPilot)
	mux.HandleFunc("GET /api/pilot/status", h.PilotStatus)
	mux.HandleFunc("POST /api/copilot/analyze", h.Analyze)
	mux.HandleFunc("POST /api/competition/run", h.TriggerCompetition)
	mux.HandleFunc("GET /api/competition/leaderboard", h.GetLeaderboard)
	mux.HandleFunc("GET /api/competition/competitors", h.ListCompetitors)
	mux.HandleFunc("GET /api/workers", h.ListWorkers)

	// Root endpoint (service info)
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprintf(w, `{"service":"%s","version":"%s","status":"running"}`,
			app.ServiceName, app.Version)
	})

	log.Infof("HTTP server configured on %s", cfg.Addr())

	httpServer := &http.Server{
		Addr:        cfg.Addr(),
		Handler:     mux,
		ReadTimeout: cfg.ReadTimeout,
		// WriteTimeout stays at the configured value; the copilot SSE
		// stream needs it generous (0 disables it entirely).
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		log:        log,
	}
}

// AppConfig carries service identity for the root endpoint
type AppConfig struct {
	ServiceName string
	Version     string
}

// Start begins listening for HTTP requests
// Blocks until server is stopped or encounters an error
func (s *Server) Start() error {
	s.log.Infof("Starting HTTP server on %s", s.httpServer.Addr)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return errors.Wrap(err, "http server failed")
	}

	return nil
}

// Shutdown gracefully stops the HTTP server
// Waits for active connections to complete within timeout
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("Stopping HTTP server...")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return errors.Wrap(err, "http server shutdown failed")
	}

	s.log.Info("HTTP server stopped")
	return nil
}
