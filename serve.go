package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ksk-service/config"
	"ksk-service/internal/assistant"
	"ksk-service/internal/handler"
	"ksk-service/internal/messaging"
	"ksk-service/internal/objectstore"
	"ksk-service/internal/repository"
	"ksk-service/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const localBusSize = 256

type eventBus interface {
	messaging.Publisher
	messaging.Source
}

func runServe(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStorage(ctx, cfg.Storage, logger)
	if err != nil {
		return err
	}
	defer st.close()

	// Events
	var bus eventBus
	if cfg.RabbitMQ.Enabled {
		rmq, err := messaging.NewRabbitMQ(cfg.RabbitMQ.URL, logger)
		if err != nil {
			return err
		}
		defer rmq.Close()
		bus = rmq
	} else {
		logger.Info("rabbitmq disabled, using in-process event bus")
		bus = messaging.NewLocalBus(localBusSize, logger)
	}

	// Assistant
	var generator assistant.Generator = assistant.DisabledGenerator{}
	if cfg.Assistant.APIKey != "" {
		gemini, err := assistant.NewGeminiGenerator(ctx, cfg.Assistant.APIKey, cfg.Assistant.Model)
		if err != nil {
			return err
		}
		generator = gemini
		logger.Info("assistant enabled", zap.String("model", gemini.Model()))
	} else {
		logger.Warn("GEMINI_API_KEY not set, assistant replies will apologise")
	}
	bridge, err := assistant.NewBridge(generator, logger)
	if err != nil {
		return err
	}

	// Photos
	photoService := service.NewPhotoService(nil)
	if cfg.Minio.Enabled {
		store, err := objectstore.NewMinioStore(ctx, objectstore.Config{
			Endpoint:  cfg.Minio.Endpoint,
			AccessKey: cfg.Minio.AccessKey,
			SecretKey: cfg.Minio.SecretKey,
			Bucket:    cfg.Minio.Bucket,
			Region:    cfg.Minio.Region,
			UseSSL:    cfg.Minio.UseSSL,
			PublicURL: cfg.Minio.PublicURL,
		})
		if err != nil {
			return err
		}
		photoService = service.NewPhotoService(store)
	}

	// Repositories
	sessionRepo := repository.NewSessionRepository(st.sessions)
	requestRepo := repository.NewRequestRepository(st.durable, repository.MockRequests())
	notificationRepo := repository.NewNotificationRepository(st.durable)
	citizenRepo := repository.NewCitizenRepository()

	sseHub := messaging.NewSSEHub()
	consumer := messaging.NewEventConsumer(notificationRepo, sseHub, logger)

	// Services
	registry := service.NewRegistry(service.RegistryDeps{
		Tokens:       service.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL.Duration),
		SessionRepo:  sessionRepo,
		CitizenRepo:  citizenRepo,
		RequestRepo:  requestRepo,
		Publisher:    bus,
		Assistant:    bridge,
		IdleTTL:      cfg.Clients.IdleTTL.Duration,
		JanitorEvery: cfg.Clients.JanitorEvery.Duration,
		Logger:       logger,
	})
	onboarding := service.NewOnboardingService(service.NewRoleResolver(cfg.Auth.Dispatchers), registry, cfg.Clients.OnboardingTTL.Duration, logger)
	limiter := handler.NewRateLimiter(cfg.Assistant.RatePerMinute, cfg.Assistant.Burst)

	if !verbose {
		gin.SetMode(gin.ReleaseMode)
	}
	router := handler.NewRouter(handler.RouterDeps{
		Registry:      registry,
		Onboarding:    onboarding,
		Notifications: service.NewNotificationService(notificationRepo, sseHub),
		Photos:        photoService,
		CitizenRepo:   citizenRepo,
		ChatLimiter:   limiter,
		Logger:        logger,
	})
	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return sseHub.Run(gctx) })
	g.Go(func() error { return bus.Run(gctx, consumer.Handle) })
	g.Go(func() error { return registry.Run(gctx) })
	g.Go(func() error { return onboarding.Run(gctx, cfg.Clients.JanitorEvery.Duration) })
	g.Go(func() error { return limiter.Run(gctx) })
	g.Go(func() error {
		logger.Info("ksk service starting", zap.String("addr", srv.Addr), zap.String("storage", cfg.Storage.Backend))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Duration)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
