// Package api maps the AgriHealth services onto the REST surface used by
// the mobile client.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/agrihealth-server/internal/domain"
	"github.com/agrihealth-server/internal/metrics"
	"github.com/agrihealth-server/internal/middleware"
	"github.com/agrihealth-server/internal/service"
)

const defaultUploadPrefix = "/uploads"

// Services groups the application services the handlers call
type Services struct {
	Auth      *service.AuthService
	Catalog   *service.CatalogService
	Diagnosis *service.DiagnosisService
	Advisory  *service.AdvisoryService
}

// Server represents the HTTP server
type Server struct {
	cfg      *domain.Config
	logger   *logrus.Logger
	services Services
	metrics  *metrics.Metrics
	router   *gin.Engine
	server   *http.Server
}

// NewServer creates a new HTTP server instance. m may be nil.
func NewServer(cfg *domain.Config, logger *logrus.Logger, services Services, m *metrics.Metrics) *Server {
	// Set Gin mode based on log level
	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	production := cfg.Environment == "production"
	router := gin.New()
	router.Use(middleware.Recovery(logger, production))
	router.Use(middleware.CorrelationID())
	router.Use(middleware.RequestTimeout(cfg.Server.RequestTimeout))
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.CORS())
	router.Use(middleware.AuditLogger())
	if m != nil && cfg.Metrics.Enabled {
		router.Use(middleware.Metrics(m))
	}
	router.Use(middleware.ErrorHandler(logger, production))

	s := &Server{
		cfg:      cfg,
		logger:   logger,
		services: services,
		metrics:  m,
		router:   router,
	}
	s.setupRoutes()

	return s
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	cfg := s.cfg.Server
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("addr", addr).Info("HTTP server listening")
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	s.logger.Info("Shutting down HTTP server")
	return s.server.Shutdown(shutdownCtx)
}

// setupRoutes configures the API routes
func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)
	s.router.Static(s.uploadPrefix(), s.cfg.Storage.UploadDir)

	if s.metrics != nil && s.cfg.Metrics.Enabled {
		s.router.GET(s.cfg.Metrics.Path, gin.WrapH(s.metrics.Handler()))
	}

	requireAuth := middleware.RequireAuth(s.services.Auth)

	auth := s.router.Group("/api/auth")
	{
		auth.POST("/register", s.handleRegister)
		auth.POST("/login", s.handleLogin)
		auth.GET("/profile", requireAuth, s.handleGetProfile)
		auth.PUT("/profile", requireAuth, s.handleUpdateProfile)
	}

	diagnosis := s.router.Group("/api/diagnosis", requireAuth)
	{
		diagnosis.POST("", s.handleSubmitDiagnosis)
		diagnosis.GET("/history", s.handleDiagnosisHistory)
		diagnosis.GET("/review-queue", middleware.RequireRoles(reviewerRoles...), s.handleReviewQueue)
		diagnosis.GET("/:id", s.handleGetDiagnosis)
		diagnosis.PUT("/:id/symptoms", s.handleUpdateSymptoms)
		diagnosis.PUT("/:id/review", middleware.RequireRoles(reviewerRoles...), s.handleSubmitReview)
	}

	diseases := s.router.Group("/api/diseases", requireAuth)
	{
		diseases.GET("/type/:type", s.handleDiseasesByType)
		diseases.GET("/species/:type/:species", s.handleDiseasesBySpecies)
		diseases.GET("/search/:type/:query", s.handleSearchDiseases)
		diseases.GET("/symptoms/:type", s.handleDistinctSymptoms)
		diseases.GET("/:type/:id", s.handleGetDisease)
	}

	weather := s.router.Group("/api/weather", requireAuth)
	{
		weather.GET("/advice", s.handleWeatherAdvice)
		weather.POST("/advice", s.handleRecommend)
	}
}

// uploadPrefix is the URL path stored images are served under
func (s *Server) uploadPrefix() string {
	if prefix := strings.TrimSuffix(s.cfg.Storage.PublicBaseURL, "/"); strings.HasPrefix(prefix, "/") {
		return prefix
	}
	return defaultUploadPrefix
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "Server is running"})
}

var reviewerRoles = []domain.Role{domain.RoleExpert, domain.RoleVeterinarian, domain.RoleAdmin}

// fail hands err to the error middleware
func fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		fail(c, domain.NewValidationError("body", "Invalid request body", err.Error()))
		return false
	}
	return true
}

func currentUser(c *gin.Context) (uuid.UUID, bool) {
	id, ok := middleware.CurrentUser(c)
	if !ok {
		fail(c, fmt.Errorf("no authenticated user: %w", domain.ErrUnauthenticated))
	}
	return id, ok
}
