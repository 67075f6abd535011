// Package server provides HTTP server management and lifecycle handling for
// the mediscan API: router setup, middleware configuration, route wiring and
// graceful shutdown.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/mediscan/mediscan-api/config"
	"github.com/mediscan/mediscan-api/handlers"
	"github.com/mediscan/mediscan-api/interfaces"
	"github.com/mediscan/mediscan-api/logging"
	"github.com/mediscan/mediscan-api/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server represents the HTTP server
type Server struct {
	server      *http.Server
	router      chi.Router
	config      *config.Config
	dataStore   interfaces.DataStore
	resolver    interfaces.Resolver
	reportStore interfaces.ReportStore
	health      interfaces.HealthChecker
}

// NewServer creates a new server instance with injected dependencies.
func NewServer(cfg *config.Config, dataStore interfaces.DataStore, resolver interfaces.Resolver,
	reportStore interfaces.ReportStore, health interfaces.HealthChecker) *Server {

	router := chi.NewRouter()

	s := &Server{
		server: &http.Server{
			Handler:      router,
			Addr:         cfg.Address + ":" + cfg.Port,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		router:      router,
		config:      cfg,
		dataStore:   dataStore,
		resolver:    resolver,
		reportStore: reportStore,
		health:      health,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// setupMiddleware configures all middleware
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(RealIPMiddleware)
	s.router.Use(logging.LoggingMiddleware(logging.DefaultLoggingService.Logger))
	s.router.Use(middleware.RedirectSlashes)
	s.router.Use(middleware.Recoverer)
	s.router.Use(metrics.Middleware)
	s.router.Use(RequestSizeMiddleware(s.config))

	// The front end is a browser PWA served from its own origin
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	s.router.Use(RateLimitHandler)
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	// Resolution pipeline
	s.router.Post("/scan", handlers.Scan(s.dataStore, s.resolver))
	s.router.Get("/search/{query}", handlers.Search(s.dataStore, s.resolver))
	s.router.Get("/scan/current", handlers.CurrentView(s.dataStore))

	// ADR reports
	s.router.Post("/reports", handlers.SubmitReport(s.reportStore))
	s.router.Get("/reports", handlers.ListReports(s.reportStore))
	s.router.Get("/reports/summary", handlers.SeveritySummary(s.reportStore))
	s.router.Get("/reports/export", handlers.ExportReports(s.reportStore))
	s.router.Get("/reports/{id}", handlers.GetReport(s.reportStore))
	s.router.Delete("/reports", handlers.ClearReports(s.reportStore))

	// Operational
	s.router.Get("/health", handlers.HealthCheck(s.health))
	s.router.Get("/metrics", promhttp.Handler().ServeHTTP)
}

// Start starts the server
func (s *Server) Start() error {
	logging.Info(fmt.Sprintf("Starting server at: %s:%s", s.config.Address, s.config.Port))
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info("Shutting down server...")

	if err := s.server.Shutdown(ctx); err != nil {
		logging.Error("Server forced to shutdown", "error", err)
		if err := s.server.Close(); err != nil {
			logging.Error("Server close error", "error", err)
			return err
		}
	}

	logging.Info("Server shutdown complete")
	return nil
}

// Router exposes the configured router, mainly for tests.
func (s *Server) Router() chi.Router {
	return s.router
}
