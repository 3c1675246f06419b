package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/agrihealth-server/internal/api"
	"github.com/agrihealth-server/internal/database"
	"github.com/agrihealth-server/internal/domain"
	"github.com/agrihealth-server/internal/metrics"
	"github.com/agrihealth-server/internal/repository"
	"github.com/agrihealth-server/internal/review"
	"github.com/agrihealth-server/internal/service"
	"github.com/agrihealth-server/internal/setup"
	"github.com/agrihealth-server/internal/storage"
	"github.com/agrihealth-server/pkg/external"
)

func serveCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}
}

func (a *app) serve(ctx context.Context) error {
	cfg := a.cfg
	log := a.logger

	log.WithFields(logrus.Fields{
		"host":        cfg.Server.Host,
		"port":        cfg.Server.Port,
		"environment": cfg.Environment,
	}).Info("Starting AgriHealth server")

	if cfg.Database.AutoMigrate {
		if err := a.runMigrations(func(mr *database.MigrationRunner) error { return mr.Up(ctx) }); err != nil {
			return err
		}
	}

	db, err := database.NewConnection(ctx, database.ConfigFromSettings(cfg.Database), log)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	diseases := repository.NewDiseaseRepository(db, log)
	diagnoses := repository.NewDiagnosisRepository(db.Pool, log)
	users := repository.NewUserRepository(db.Pool, log)

	if cfg.Catalog.SeedOnStart {
		if _, err := setup.NewSeeder(diseases, log).Seed(ctx); err != nil {
			return fmt.Errorf("failed to seed catalog: %w", err)
		}
	}

	reviews, err := review.Open(cfg.Review, a.manager.GetDatabaseURL())
	if err != nil {
		return fmt.Errorf("failed to open review store: %w", err)
	}
	defer reviews.Close()

	images, err := storage.NewLocalImageStore(cfg.Storage, log)
	if err != nil {
		return fmt.Errorf("failed to prepare image storage: %w", err)
	}

	var weather domain.WeatherProvider
	if cfg.Weather.Enabled {
		weatherCache, err := external.NewWeatherCache(cfg.Cache, cfg.Weather.CacheTTL)
		if err != nil {
			return fmt.Errorf("failed to create weather cache: %w", err)
		}
		defer weatherCache.Close()

		log.WithField("backend", weatherCache.Backend()).Info("Weather cache ready")
		weather = external.NewCachedWeatherProvider(external.NewOpenWeatherClient(cfg.Weather, log), weatherCache, log)
	} else {
		log.Warn("Weather advisory disabled, /api/weather endpoints will report errors")
	}

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m, err = metrics.New()
		if err != nil {
			return fmt.Errorf("failed to register metrics: %w", err)
		}
		if err := m.RegisterPool(func() metrics.PoolStats {
			stat := db.Stats()
			return metrics.PoolStats{
				Acquired:     stat.AcquiredConns(),
				Idle:         stat.IdleConns(),
				Total:        stat.TotalConns(),
				Max:          stat.MaxConns(),
				AcquireCount: stat.AcquireCount(),
			}
		}); err != nil {
			return fmt.Errorf("failed to register pool metrics: %w", err)
		}
	}

	seed := uint64(time.Now().UnixNano())
	catalog := service.NewCatalogService(log, diseases, cfg.Catalog.CacheSize, cfg.Catalog.CacheTTL)

	deps := service.DiagnosisDeps{
		Catalog:   catalog,
		Diseases:  diseases,
		Diagnoses: diagnoses,
		Images:    images,
		Backend:   service.NewRandomPlaceholderBackend(seed),
		Scorer:    service.NewSymptomScorer(cfg.Diagnosis.MinSymptomOverlap, cfg.Diagnosis.SymptomConfidence, seed+1),
		Reviews:   reviews,
		Seed:      seed + 2,
	}
	if m != nil {
		deps.Observer = m
	}

	services := api.Services{
		Auth:      service.NewAuthService(log, users, cfg.Auth),
		Catalog:   catalog,
		Diagnosis: service.NewDiagnosisService(log, cfg.Diagnosis, deps),
		Advisory:  service.NewAdvisoryService(log, weather),
	}

	server := api.NewServer(cfg, log, services, m)
	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}
