package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"cloud.google.com/go/pubsub"
	"go.uber.org/zap"

	"github.com/shoppie-mart/api/internal/di"
	"github.com/shoppie-mart/api/internal/handlers"
	"github.com/shoppie-mart/api/internal/platform/config"
	pfirestore "github.com/shoppie-mart/api/internal/platform/firestore"
	"github.com/shoppie-mart/api/internal/platform/jobs"
	"github.com/shoppie-mart/api/internal/platform/observability"
	firestoreRepo "github.com/shoppie-mart/api/internal/repositories/firestore"
)

func main() {
	ctx := context.Background()
	startedAt := time.Now().UTC()

	baseLogger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = baseLogger.Sync()
	}()

	logger := baseLogger.Named("api")
	ctx = observability.WithLogger(ctx, logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	firestoreProvider := pfirestore.NewProvider(cfg.Firestore)
	if _, err := firestoreProvider.Client(ctx); err != nil {
		logger.Fatal("failed to initialise firestore client", zap.Error(err))
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := firestoreProvider.Close(closeCtx); err != nil {
			logger.Warn("firestore close error", zap.Error(err))
		}
	}()

	registry, err := firestoreRepo.NewRegistry(firestoreProvider)
	if err != nil {
		logger.Fatal("failed to initialise repositories", zap.Error(err))
	}

	var containerOpts []di.ContainerOption
	var pubsubClient *pubsub.Client
	if cfg.Events.Enabled {
		pubsubClient, err = pubsub.NewClient(ctx, cfg.Events.ProjectID)
		if err != nil {
			logger.Fatal("failed to initialise pubsub client", zap.Error(err))
		}
		publisher, err := jobs.NewPubSubOrderPublisher(pubsubClient.Topic(cfg.Events.OrdersTopic))
		if err != nil {
			logger.Fatal("failed to initialise order event publisher", zap.Error(err))
		}
		containerOpts = append(containerOpts, di.WithOrderEventPublisher(publisher))
	}
	defer func() {
		if pubsubClient != nil {
			if err := pubsubClient.Close(); err != nil {
				logger.Warn("pubsub close error", zap.Error(err))
			}
		}
	}()

	container, err := di.NewContainer(cfg, registry, containerOpts...)
	if err != nil {
		logger.Fatal("failed to build services", zap.Error(err))
	}

	middlewares := []func(http.Handler) http.Handler{
		observability.InjectLoggerMiddleware(logger.Named("http")),
		observability.TraceMiddleware(cfg.Firestore.ProjectID),
		observability.RecoveryMiddleware(logger.Named("http")),
		observability.RequestLoggerMiddleware(cfg.Firestore.ProjectID),
		handlers.RateLimit(120, time.Minute),
	}

	healthHandlers := handlers.NewHealthHandlers(
		handlers.WithHealthVersion(buildVersion(), cfg.Environment),
		handlers.WithHealthStartedAt(startedAt),
		handlers.WithHealthReadiness(registry.Health().Ping),
	)

	productHandlers := handlers.NewProductHandlers(container.Services.Catalog)
	cartHandlers := handlers.NewCartHandlers(container.Services.Cart)
	orderHandlers := handlers.NewOrderHandlers(container.Services.Orders)

	router := handlers.NewRouter(
		handlers.WithMiddlewares(middlewares...),
		handlers.WithHealthHandlers(healthHandlers),
		handlers.WithProductRoutes(productHandlers.Routes),
		handlers.WithCartRoutes(cartHandlers.Routes),
		handlers.WithOrderRoutes(orderHandlers.Routes),
		handlers.WithAdminRoutes(productHandlers.AdminRoutes),
	)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	serverLogger := logger.Named("http").With(zap.String("addr", server.Addr))
	go func() {
		serverLogger.Info("shoppie-mart api listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverLogger.Fatal("http server error", zap.Error(err))
		}
	}()

	<-shutdown
	logger.Info("shutdown signal received; draining requests")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

func buildVersion() string {
	if version := strings.TrimSpace(os.Getenv("API_BUILD_VERSION")); version != "" {
		return version
	}
	return "dev"
}
