// Package api exposes the run history and run triggers over HTTP.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/rjlee/actual-tx-linker/internal/api/handlers"
	"github.com/rjlee/actual-tx-linker/internal/api/middleware"
	"github.com/rjlee/actual-tx-linker/internal/infrastructure/storage"
)

// Config holds API server configuration.
type Config struct {
	Port           int
	AllowedOrigins []string
}

// DefaultConfig returns sensible defaults for the API server.
func DefaultConfig() Config {
	return Config{
		Port:           8080,
		AllowedOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
	}
}

// Server is the HTTP API server.
type Server struct {
	config     Config
	router     *gin.Engine
	httpServer *http.Server
	logger     *slog.Logger
	repo       storage.Repository
	trigger    handlers.Trigger
}

// NewServer creates a new API server. If trigger is nil, the run-trigger
// endpoints are not registered.
func NewServer(cfg Config, repo storage.Repository, trigger handlers.Trigger, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	gin.SetMode(gin.ReleaseMode)
	s := &Server{
		config:  cfg,
		router:  gin.New(),
		logger:  logger,
		repo:    repo,
		trigger: trigger,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// setupMiddleware configures global middleware.
func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(middleware.Logging(s.logger))
	s.router.Use(cors.New(cors.Config{
		AllowOrigins:     s.config.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
}

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	// Health check (no /api prefix - for load balancers)
	s.router.GET("/health", handlers.Health)

	v1 := s.router.Group("/api/v1")
	{
		runsHandler := handlers.NewRunsHandler(s.repo)
		v1.GET("/runs", runsHandler.List)
		v1.GET("/runs/:id", runsHandler.Get)

		statsHandler := handlers.NewStatsHandler(s.repo)
		v1.GET("/stats", statsHandler.Get)

		if s.trigger != nil {
			triggerHandler := handlers.NewTriggerHandler(s.trigger, 2*time.Second)
			v1.POST("/link", triggerHandler.Link)
			v1.POST("/repair", triggerHandler.Repair)
		}
	}
}

// Router returns the underlying handler, mainly for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start begins listening. It blocks until the server stops.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	s.logger.Info("API server listening", "port", s.config.Port)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}
