// internal/api/server.go
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	apihandler "github.com/newthinker/quantsafe/internal/api/handler/api"
	"github.com/newthinker/quantsafe/internal/api/handler/web"
	"github.com/newthinker/quantsafe/internal/app"
	"github.com/newthinker/quantsafe/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Server represents the HTTP server for QuantSafe
type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
	mux        *http.ServeMux
}

// Config holds server configuration
type Config struct {
	Host         string
	Port         int
	TemplatesDir string
	MetricsPath  string
	// WriteTimeout must cover a full model call, since POST /api/v1/signal
	// answers only after the cycle completes.
	WriteTimeout time.Duration
}

// Dependencies holds the components the routes are served from.
type Dependencies struct {
	App     *app.App
	Metrics *metrics.Registry
}

// NewServer creates a new HTTP server
func NewServer(cfg Config, deps Dependencies, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if deps.App == nil {
		return nil, fmt.Errorf("app is required")
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 3 * time.Minute
	}

	mux := http.NewServeMux()

	s := &Server{
		logger: logger,
		mux:    mux,
	}

	if err := s.setupRoutes(cfg, deps); err != nil {
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	var handler http.Handler = mux
	if deps.Metrics != nil {
		handler = metrics.HTTPMiddleware(deps.Metrics)(handler)
	}
	handler = metrics.LoggingMiddleware(logger)(handler)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes(cfg Config, deps Dependencies) error {
	// Web UI routes
	webHandler, err := web.NewHandler(cfg.TemplatesDir, deps.App)
	if err != nil {
		return fmt.Errorf("creating web handler: %w", err)
	}

	s.mux.HandleFunc("GET /{$}", webHandler.Dashboard)
	s.mux.HandleFunc("POST /signal", webHandler.Trigger)

	// JSON API
	signals := apihandler.NewSignalHandler(deps.App)

	s.mux.HandleFunc("GET /api/health", s.handleHealth)
	s.mux.HandleFunc("GET /api/v1/state", signals.State)
	s.mux.HandleFunc("POST /api/v1/signal", signals.Request)
	s.mux.HandleFunc("GET /api/v1/history", signals.History)
	s.mux.HandleFunc("GET /api/v1/chart", signals.Chart)

	if deps.Metrics != nil {
		path := cfg.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		s.mux.Handle("GET "+path, promhttp.HandlerFor(deps.Metrics, promhttp.HandlerOpts{}))
	}

	return nil
}

// Handler returns the root handler with middleware applied.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
