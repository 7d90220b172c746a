package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"storefront/internal/backend"
	"storefront/internal/config"
	"storefront/internal/logging"
	"storefront/internal/repositories"
	"storefront/internal/storage"
	"storefront/pkg/rabbitmq"
)

func main() {
	// --- Configuration ---
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}
	log := logging.New(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Storage ---
	store, err := storage.Open(ctx, storage.Options{
		Driver:         cfg.StorageDriver,
		DSN:            cfg.DatabaseDSN,
		RedisURL:       cfg.RedisURL,
		RedisNamespace: cfg.RedisNamespace,
	}, log)
	if err != nil {
		log.WithError(err).Fatal("failed to open storage")
	}
	defer store.Close()

	// --- Backend API and repositories ---
	api := backend.NewClient(backend.Options{
		BaseURL: cfg.APIURL,
		Timeout: cfg.APITimeout,
		Debug:   cfg.APIDebug,
	}, log)
	deps := dependencies{
		Store:    store,
		Products: repositories.NewRESTProductRepository(api),
		Users:    repositories.NewRESTUserRepository(api),
		Orders:   repositories.NewRESTOrderRepository(api),
	}

	// --- Initialize RabbitMQ Client ---
	if cfg.RabbitMQURL != "" {
		mqClient, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL}, log)
		if err != nil {
			log.WithError(err).Warn("RabbitMQ unavailable; events will not be published")
		} else {
			defer mqClient.Close()
			deps.Events = mqClient
			if err := mqClient.ConsumeEvents(rabbitmq.LogEvents(log)); err != nil {
				log.WithError(err).Warn("failed to start RabbitMQ consumer")
			}
		}
	}

	app := newApplication(cfg, deps, log)
	go app.pruneSessions(ctx, pruneEvery, sessionIdle)

	// --- Start HTTP Server ---
	go func() {
		log.WithField("addr", cfg.AppPort).Info("starting server")
		if err := app.App.Listen(cfg.AppPort); err != nil {
			log.WithError(err).Fatal("server failed to start")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down server")
	if err := app.App.ShutdownWithTimeout(shutdownWait); err != nil {
		log.WithError(err).Error("error during Fiber shutdown")
	}
	log.Info("server gracefully stopped")
}
