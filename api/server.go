// Package api provides the HTTP REST surface of the HR backend
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/Xinye0723/HrBackend/pkg/config"
	"github.com/Xinye0723/HrBackend/pkg/interfaces"
	"github.com/Xinye0723/HrBackend/pkg/types"
)

// Metric names recorded by the HTTP middleware
const (
	MetricRequests        = "http_requests_total"
	MetricRequestDuration = "http_request_duration_seconds"
)

// HealthChecker reports whether a backing dependency is reachable
type HealthChecker func(ctx context.Context) error

// Server represents the API server instance
type Server struct {
	orgChart       interfaces.OrgChart
	employees      interfaces.EmployeeService
	config         *config.Config
	logger         interfaces.Logger
	metrics        interfaces.Metrics
	metricsHandler http.Handler
	checks         map[string]HealthChecker
	router         *gin.Engine
	server         *http.Server
	startedAt      time.Time
	version        string
}

// NewServer creates a new API server instance
func NewServer(cfg *config.Config, orgChart interfaces.OrgChart, employees interfaces.EmployeeService, logger interfaces.Logger, metrics interfaces.Metrics) *Server {
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}

	s := &Server{
		orgChart:  orgChart,
		employees: employees,
		config:    cfg,
		logger:    logger.WithFields(map[string]interface{}{"component": "api"}),
		metrics:   metrics,
		checks:    make(map[string]HealthChecker),
		router:    gin.New(),
		startedAt: time.Now(),
		version:   "dev",
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// SetMetricsHandler exposes h at GET /metrics
func (s *Server) SetMetricsHandler(h http.Handler) {
	s.metricsHandler = h
}

// AddHealthCheck registers a named check reported by GET /health
func (s *Server) AddHealthCheck(name string, check HealthChecker) {
	s.checks[name] = check
}

// SetVersion sets the version reported by GET /health
func (s *Server) SetVersion(v string) {
	s.version = v
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupMiddleware configures middleware for the server
func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(s.requestIDMiddleware())
	s.router.Use(s.loggingMiddleware())
	s.router.Use(s.metricsMiddleware())

	if len(s.config.Server.CORSOrigins) == 0 {
		return
	}
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = s.config.Server.CORSOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.AllowCredentials = true
	s.router.Use(cors.New(corsConfig))
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	s.router.GET("/health", s.healthCheck)
	s.router.GET("/metrics", s.serveMetrics)
	s.router.GET("/openapi.json", s.getOpenAPISpec)

	api := s.router.Group("/api")

	auth := api.Group("/auth")
	{
		auth.POST("/login", s.login)
		auth.POST("/logout", s.logout)
		auth.POST("/change-password", s.authMiddleware(), s.changePassword)
	}

	employees := api.Group("/employees", s.authMiddleware())
	{
		employees.GET("/me", s.getCurrentEmployee)
		employees.GET("", s.listEmployees)
		employees.POST("", s.createEmployee)
	}

	departments := api.Group("/departments")
	{
		departments.GET("", s.listDepartments)
		departments.GET("/:id", s.getDepartment)

		managed := departments.Group("", s.authMiddleware(), s.requireRoles(types.RoleAdmin, types.RoleHR))
		managed.POST("", s.createDepartment)
		managed.PUT("/:id", s.updateDepartment)
		managed.PUT("/:id/move", s.moveDepartment)
		managed.DELETE("/:id", s.deleteDepartment)

		departments.POST("/normalize", s.authMiddleware(), s.requireRoles(types.RoleAdmin), s.normalizeDepartments)
	}
}

// Start runs the API server until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:         s.config.Server.Address(),
		Handler:      s.router,
		ReadTimeout:  s.config.Server.ReadTimeout,
		WriteTimeout: s.config.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("Starting API server", map[string]interface{}{
		"address": s.server.Addr,
		"mode":    gin.Mode(),
	})

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			s.logger.Error("Failed to start server", err)
			return err
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down API server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout)
	defer cancel()

	return s.server.Shutdown(shutdownCtx)
}

// Stop gracefully stops the API server
func (s *Server) Stop() error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout)
	defer cancel()

	return s.server.Shutdown(ctx)
}
