package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/Kamal-Wagle/recondition/internal/cache"
	"github.com/Kamal-Wagle/recondition/internal/config"
	"github.com/Kamal-Wagle/recondition/internal/database"
	"github.com/Kamal-Wagle/recondition/internal/log"
	"github.com/Kamal-Wagle/recondition/internal/queue"
	"github.com/Kamal-Wagle/recondition/internal/repository"
	"github.com/Kamal-Wagle/recondition/internal/storage"
	"github.com/Kamal-Wagle/recondition/internal/tasks"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := log.New(cfg.Environment, cfg.Logging.Level).With().Str("component", "worker").Logger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbPool, err := database.NewPostgresPool(ctx, cfg.Postgres)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect postgres")
	}
	defer dbPool.Close()

	client, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis connection failed")
	}
	defer client.Close()

	objectStore, err := storage.NewObjectStore(cfg.Storage)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init object store")
	}

	processor := tasks.NewProcessor(
		objectStore,
		[]tasks.ReferenceSource{
			repository.NewBikeRepository(dbPool),
			repository.NewAlbumRepository(dbPool),
			repository.NewGalleryRepository(dbPool),
		},
		[]string{cfg.Storage.Folders.Bikes, cfg.Storage.Folders.Albums, cfg.Storage.Folders.Gallery},
		cfg.Worker.SweepGrace,
		logger,
	)
	consumer := queue.NewConsumer(
		client,
		cfg.Worker.Stream,
		cfg.Worker.Group,
		cfg.Worker.Consumer,
		cfg.Worker.ClaimInterval,
		logger,
		processor,
	)

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Fatal().Err(err).Msg("consumer stopped unexpectedly")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		logger.Warn().Msg("consumer did not stop in time")
	}
}
