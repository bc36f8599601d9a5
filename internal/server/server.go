package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/rohankatakam/repograde/internal/config"
	"github.com/rohankatakam/repograde/internal/models"
)

// Service is the analysis core behind the HTTP API. *analyzer.Analyzer
// satisfies it.
type Service interface {
	Analyze(ctx context.Context, owner, repo string) (models.Report, error)
	Resolve(ctx context.Context, remoteURL string) (models.RepositoryDetails, error)
}

// Server is the HTTP API server
type Server struct {
	router  *http.ServeMux
	server  *http.Server
	addr    string
	service Service
	logger  logrus.FieldLogger
	origin  string
}

// New creates a server for service. Routes and middleware are ready on return.
func New(cfg config.ServerConfig, service Service, logger logrus.FieldLogger) *Server {
	s := &Server{
		addr:    cfg.Addr,
		service: service,
		logger:  logger.WithField("component", "server"),
		origin:  cfg.AllowOrigin,
		router:  http.NewServeMux(),
	}

	s.registerRoutes()

	writeTimeout := cfg.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = 90 * time.Second
	}

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.applyMiddleware(s.router),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: writeTimeout,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

func (s *Server) registerRoutes() {
	s.router.HandleFunc("/healthz", s.handleHealth)
	s.router.HandleFunc("/api/details", s.handleDetails)
	s.router.HandleFunc("/api/analyze", s.handleAnalyze)
}

// Start serves until Shutdown is called
func (s *Server) Start() error {
	s.logger.WithField("addr", s.addr).Info("Starting HTTP server")

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server, letting in-flight analyses finish
// until ctx expires
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	s.logger.Info("Server shut down successfully")
	return nil
}

// ServeHTTP implements http.Handler for testing
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.server.Handler.ServeHTTP(w, r)
}

// applyMiddleware wraps the handler; the last one applied runs first
func (s *Server) applyMiddleware(handler http.Handler) http.Handler {
	handler = RecoveryMiddleware(s.logger)(handler)
	handler = LoggingMiddleware(s.logger)(handler)
	handler = RequestIDMiddleware()(handler)
	handler = CORSMiddleware(s.origin)(handler)
	return handler
}
