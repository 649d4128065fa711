package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/contraceptive-compass-server/internal/cache"
	"github.com/contraceptive-compass-server/internal/domain"
	"github.com/contraceptive-compass-server/internal/feedback"
	"github.com/contraceptive-compass-server/internal/middleware"
	"github.com/contraceptive-compass-server/internal/service"
)

// Version is reported by the health endpoint
const Version = "1.0.0"

// HealthCheck reports the health of one dependency
type HealthCheck func(ctx context.Context) error

// Dependencies are the components the HTTP server serves from
type Dependencies struct {
	Recommender *service.RecommenderService
	// Feedback is optional; feedback routes answer 503 without it.
	Feedback feedback.Store
	// Cache is the recommender's result cache, reported by the health
	// endpoint. nil means caching is off.
	Cache  cache.ResultCache
	Logger *logrus.Logger
	Checks map[string]HealthCheck
}

// Server represents the HTTP server
type Server struct {
	configManager domain.ConfigManager
	recommender   *service.RecommenderService
	feedback      feedback.Store
	cache         cache.ResultCache
	checks        map[string]HealthCheck
	logger        *logrus.Logger
	router        *gin.Engine
	server        *http.Server
}

// NewServer creates a new HTTP server instance
func NewServer(configManager domain.ConfigManager, deps Dependencies) *Server {
	cfg := configManager.GetConfig()

	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	logger := deps.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CorrelationID())
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.CORS(cfg.Server.CORSOrigin))
	if cfg.RateLimit.Enabled {
		router.Use(middleware.NewRateLimiter(cfg.RateLimit, logger).Middleware())
	}
	router.Use(middleware.RequestTimeout(cfg.Server.RequestTimeout))

	server := &Server{
		configManager: configManager,
		recommender:   deps.Recommender,
		feedback:      deps.Feedback,
		cache:         deps.Cache,
		checks:        make(map[string]HealthCheck, len(deps.Checks)+1),
		logger:        logger,
		router:        router,
	}

	for name, check := range deps.Checks {
		server.checks[name] = check
	}
	if deps.Cache != nil {
		server.checks["cache"] = func(context.Context) error {
			return cache.Check(deps.Cache)
		}
	}

	server.setupRoutes()

	return server
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	cfg := s.configManager.GetServerConfig()
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
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	timeout := cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	s.logger.Info("Shutting down HTTP server")
	return s.server.Shutdown(shutdownCtx)
}

// setupRoutes configures the API routes
func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)

	v1 := s.router.Group("/api/v1")
	{
		v1.GET("/questions", s.handleQuestions)
		v1.GET("/methods", s.handleMethods)
		v1.GET("/methods/:name", s.handleMethod)
		v1.GET("/telehealth", s.handleTelehealth)

		v1.POST("/encode", s.handleEncode)
		v1.POST("/recommendations", s.handleRecommend)
		v1.GET("/recommendations", s.handleListRecommendations)
		v1.GET("/recommendations/:id", s.handleGetRecommendation)

		v1.POST("/feedback", s.handleSubmitFeedback)
		v1.GET("/feedback", s.handleListFeedback)
		v1.GET("/feedback/export", s.handleExportFeedback)
	}
}
