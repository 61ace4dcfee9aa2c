package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"lurelab/internal/api"
	"lurelab/internal/api/handlers"
	"lurelab/internal/config"
	"lurelab/internal/domain/services"
	"lurelab/internal/domain/services/ai"
	"lurelab/internal/infrastructure/cache"
	"lurelab/internal/infrastructure/database"
	"lurelab/internal/infrastructure/repository"
	"lurelab/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.LoadDefault()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	var log *logger.Logger
	if cfg.App.Environment == "production" {
		log = logger.NewProduction()
	} else {
		log = logger.NewDevelopment()
	}
	logger.SetGlobal(log)

	log.Info().
		Str("app", cfg.App.Name).
		Str("env", cfg.App.Environment).
		Str("version", cfg.App.Version).
		Msg("starting LureLab")

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize infrastructure
	db, redisCache := initInfrastructure(ctx, cfg, log)
	defer func() {
		if db != nil {
			db.Close()
		}
		if redisCache != nil {
			redisCache.Close()
		}
	}()

	// Choose session store: PostgreSQL when available, in-memory otherwise
	var store services.SessionStore
	if db != nil {
		repo := repository.NewSessionRepository(db, log)
		if err := repo.EnsureSchema(ctx); err != nil {
			log.Fatal().Err(err).Msg("failed to prepare database schema")
		}
		store = repo
		log.Info().Msg("session store backed by PostgreSQL")
	} else {
		store = repository.NewMemorySessionStore()
		log.Warn().Msg("running without database - sessions held in memory only")
	}

	// Initialize detection and engagement services
	catalog := ai.NewCatalog()
	classifier := ai.NewClassifier(catalog, cfg.Detection.Threshold, log)
	extractor := ai.NewExtractor(catalog, cfg.Detection.CountryCode, log)
	callbackClient := services.NewCallbackClient(cfg.Callback.URL, cfg.Callback.Timeout, log)

	coordinator := services.NewSessionCoordinator(
		store,
		classifier,
		extractor,
		callbackClient,
		services.CoordinatorConfig{
			MaxTurns:               cfg.Engagement.MaxTurns,
			MinTurnsBeforeCallback: cfg.Engagement.MinTurnsBeforeCallback,
		},
		log,
	)
	log.Info().
		Float64("threshold", cfg.Detection.Threshold).
		Int("max_turns", cfg.Engagement.MaxTurns).
		Msg("session coordinator initialized")

	// Initialize handlers and router
	h := handlers.NewHandlers(handlers.Dependencies{
		Coordinator: coordinator,
		Cache:       redisCache,
		DB:          db,
		Logger:      log,
	})
	router := api.NewRouter(*cfg, h, redisCache, log)

	// Start HTTP server
	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.HTTPPort),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info().Str("addr", httpServer.Addr).Msg("starting HTTP server")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info().Str("signal", sig.String()).Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}

	log.Info().Msg("shutdown complete")
}

// initInfrastructure connects to PostgreSQL and Redis. Both are optional:
// a failed or disabled connection degrades the service instead of stopping
// it.
func initInfrastructure(ctx context.Context, cfg *config.Config, log *logger.Logger) (*database.PostgresDB, *cache.RedisCache) {
	var db *database.PostgresDB
	if cfg.Database.Enabled {
		var err error
		db, err = database.NewPostgres(ctx, cfg.Database, log)
		if err != nil {
			log.Warn().Err(err).Msg("failed to connect to PostgreSQL, continuing without persistence")
			db = nil
		}
	}

	var redisCache *cache.RedisCache
	if cfg.Redis.Enabled {
		var err error
		redisCache, err = cache.NewRedis(ctx, cfg.Redis, log)
		if err != nil {
			log.Warn().Err(err).Msg("failed to connect to Redis, continuing without cache")
			redisCache = nil
		}
	}

	return db, redisCache
}
