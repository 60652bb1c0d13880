package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/Kamal-Wagle/recondition/internal/cache"
	"github.com/Kamal-Wagle/recondition/internal/config"
	"github.com/Kamal-Wagle/recondition/internal/database"
	"github.com/Kamal-Wagle/recondition/internal/handlers"
	"github.com/Kamal-Wagle/recondition/internal/jobs"
	"github.com/Kamal-Wagle/recondition/internal/log"
	"github.com/Kamal-Wagle/recondition/internal/middleware"
	"github.com/Kamal-Wagle/recondition/internal/queue"
	"github.com/Kamal-Wagle/recondition/internal/ratelimit"
	"github.com/Kamal-Wagle/recondition/internal/repository"
	"github.com/Kamal-Wagle/recondition/internal/server"
	"github.com/Kamal-Wagle/recondition/internal/service"
	"github.com/Kamal-Wagle/recondition/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := log.New(cfg.Environment, cfg.Logging.Level)

	ctx := context.Background()

	if cfg.Postgres.AutoMigrate {
		version, err := database.Migrate(cfg.Postgres.DSN)
		if err != nil {
			logger.Fatal().Err(err).Msg("database migration failed")
		}
		logger.Info().Uint("version", version).Msg("database schema up to date")
	}

	dbPool, err := database.NewPostgresPool(ctx, cfg.Postgres)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect postgres")
	}

	redisClient, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect redis")
	}

	objectStore, err := storage.NewObjectStore(cfg.Storage)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init object store")
	}
	if err := objectStore.EnsureBucket(ctx); err != nil {
		logger.Warn().Err(err).Msg("ensure bucket failed")
	}

	users := repository.NewUserRepository(dbPool)
	sessions := repository.NewSessionRepository(dbPool)

	producer := queue.NewProducer(redisClient, cfg.Worker.Stream)
	assets := service.NewAssets(objectStore, service.NewOrphanJournal(producer, logger), logger)

	handlerSet := handlers.NewHandlerSet(logger, cfg, handlers.Dependencies{
		Bikes:        service.NewBikeService(repository.NewBikeRepository(dbPool), assets, cfg.Storage.Folders.Bikes, logger),
		Albums:       service.NewAlbumService(repository.NewAlbumRepository(dbPool), assets, cfg.Storage.Folders.Albums, logger),
		Gallery:      service.NewGalleryService(repository.NewGalleryRepository(dbPool), assets, cfg.Storage.Folders.Gallery, logger),
		Auth:         service.NewAuthService(users, sessions, cfg.Security, logger),
		Files:        objectStore,
		Authenticate: middleware.Auth(cfg.Security.JWTAccessSecret, users, sessions),
		Limiter:      ratelimit.NewTokenBucket(redisClient, cfg.RateLimit.Capacity, cfg.RateLimit.RefillRate),
		Checks: []handlers.HealthCheck{
			{Name: "database", Ping: dbPool.Ping},
			{Name: "cache", Ping: func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }},
			{Name: "storage", Ping: objectStore.Ping},
		},
	})
	httpServer := server.NewHTTPServer(cfg, logger, handlerSet)

	scheduler := jobs.NewScheduler(producer, cfg.Worker.SweepSchedule, logger)
	if err := scheduler.Start(); err != nil {
		logger.Error().Err(err).Msg("scheduler start failed")
	}

	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	waitForShutdown(logger, httpServer, scheduler, dbPool, redisClient)
}

func waitForShutdown(logger zerolog.Logger, srv *server.HTTPServer, scheduler *jobs.Scheduler, db *pgxpool.Pool, redisClient *redis.Client) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
		if err := srv.Shutdown(context.Background()); err != nil {
			logger.Error().Err(err).Msg("forced shutdown failed")
		}
	}

	if scheduler != nil {
		select {
		case <-scheduler.Stop().Done():
		case <-shutdownCtx.Done():
			logger.Warn().Msg("scheduler did not stop in time")
		}
	}

	db.Close()
	if err := redisClient.Close(); err != nil {
		logger.Error().Err(err).Msg("redis close error")
	}

	logger.Info().Msg("server exited cleanly")
}
