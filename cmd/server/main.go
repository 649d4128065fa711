package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/contraceptive-compass-server/internal/api"
	"github.com/contraceptive-compass-server/internal/cache"
	"github.com/contraceptive-compass-server/internal/catalog"
	"github.com/contraceptive-compass-server/internal/config"
	"github.com/contraceptive-compass-server/internal/database"
	"github.com/contraceptive-compass-server/internal/domain"
	"github.com/contraceptive-compass-server/internal/feedback"
	"github.com/contraceptive-compass-server/internal/repository"
	"github.com/contraceptive-compass-server/internal/service"
)

// purgeInterval is how often expired history rows are removed.
const purgeInterval = time.Hour

func main() {
	// A .env file is optional
	_ = godotenv.Load()

	configManager, err := config.NewManager()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := configManager.Validate(); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}
	cfg := configManager.GetConfig()

	logger, logCloser, err := config.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logCloser.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, configManager, logger); err != nil {
		logger.WithError(err).Error("Server exited with error")
		logCloser.Close()
		os.Exit(1)
	}
	logger.Info("Server stopped")
}

func run(ctx context.Context, configManager *config.Manager, logger *logrus.Logger) error {
	cfg := configManager.GetConfig()

	cat, err := catalog.LoadPath(cfg.Catalog.Path)
	if err != nil {
		return err
	}
	logger.WithFields(logrus.Fields{
		"catalog_version": cat.Version(),
		"methods":         cat.Len(),
	}).Info("Method catalog loaded")

	resultCache, err := cache.New(cfg.Cache, logger)
	if err != nil {
		return err
	}
	if resultCache != nil {
		defer resultCache.Close()
	}

	checks := map[string]api.HealthCheck{}
	opts := []service.Option{service.WithLogger(logger), service.WithResultCache(resultCache)}

	dbConfig := database.ConfigFromDomain(cfg.Database)
	if cfg.History.Enabled {
		db, err := database.NewConnection(ctx, dbConfig, logger)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := migrate(ctx, dbConfig.URL(), logger); err != nil {
			return err
		}

		opts = append(opts, service.WithHistory(repository.NewRecommendationRepository(db.Pool, logger)))
		checks["database"] = db.Health
	}

	recommender := service.NewRecommenderService(cat, opts...)

	if cfg.Feedback.Driver == domain.FeedbackDriverPostgres && !cfg.History.Enabled {
		if err := migrate(ctx, dbConfig.URL(), logger); err != nil {
			return err
		}
	}
	store, err := feedback.Open(cfg.Feedback, cfg.Database, dbConfig.DSN())
	if err != nil {
		return err
	}
	defer store.Close()
	checks["feedback"] = func(ctx context.Context) error {
		_, err := store.Count(ctx)
		return err
	}

	if cfg.History.Enabled && cfg.History.Retention > 0 {
		go purgeHistory(ctx, recommender, cfg.History.Retention, logger)
	}

	server := api.NewServer(configManager, api.Dependencies{
		Recommender: recommender,
		Feedback:    store,
		Cache:       resultCache,
		Logger:      logger,
		Checks:      checks,
	})

	logger.WithFields(logrus.Fields{
		"host":        cfg.Server.Host,
		"port":        cfg.Server.Port,
		"environment": cfg.Environment,
	}).Info("Starting Contraceptive Compass server")

	return server.Start(ctx)
}

func migrate(ctx context.Context, databaseURL string, logger *logrus.Logger) error {
	runner, err := database.NewMigrationRunner(databaseURL, logger)
	if err != nil {
		return err
	}
	defer runner.Close()
	return runner.Up(ctx)
}

func purgeHistory(ctx context.Context, recommender *service.RecommenderService, retention time.Duration, logger *logrus.Logger) {
	ticker := time.NewTicker(purgeInterval)
	defer ticker.Stop()

	for {
		if _, err := recommender.PurgeHistory(ctx, retention); err != nil && ctx.Err() == nil {
			logger.WithError(err).Warn("History purge failed")
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
