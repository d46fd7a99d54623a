package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/salon-token-service/internal/api/http"
	"github.com/spec-kit/salon-token-service/internal/api/http/handlers"
	"github.com/spec-kit/salon-token-service/internal/auth"
	"github.com/spec-kit/salon-token-service/internal/config"
	"github.com/spec-kit/salon-token-service/internal/domain"
	"github.com/spec-kit/salon-token-service/internal/events"
	"github.com/spec-kit/salon-token-service/internal/observability"
	"github.com/spec-kit/salon-token-service/internal/persistence"
	"github.com/spec-kit/salon-token-service/internal/relay"
	"github.com/spec-kit/salon-token-service/internal/repository"
	"github.com/spec-kit/salon-token-service/internal/service"
	"github.com/spec-kit/salon-token-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	queues := domain.NewQueueSet(cfg.Queues.Categories, cfg.Queues.Services)

	var tokenStore repository.TokenStore
	var adminRepo repository.AdminRepository
	if pool := pg.PoolHandle(); pool != nil {
		tokenStore = repository.NewPostgresTokenStore(pool, queues, cfg.Postgres)
		adminRepo = repository.NewAdminRepository(pool)
	} else {
		tokenStore = repository.NewMemoryTokenStore(queues)
		adminRepo = repository.NewMemoryAdminRepository()
	}

	dispatcher := events.NewInMemoryDispatcher()
	queueRelay := relay.NewRedisRelay(redis.Client, logger)
	worker.StartRelayWorker(queueRelay, dispatcher)

	otpService := service.NewOTPService(cfg.OTP, repository.NewRedisOTPStore(redis.Client), logger)
	queueService := service.NewQueueService(service.QueueDependencies{
		Store:      tokenStore,
		Queues:     queues,
		OTP:        otpService,
		Dispatcher: dispatcher,
	})

	authService := service.NewAuthService(cfg.Auth, adminRepo, logger)
	if err := authService.EnsureBootstrapAdmin(ctx, cfg.Auth.BootstrapUsername, cfg.Auth.BootstrapPassword); err != nil {
		logger.Fatal("failed to bootstrap admin", zap.Error(err))
	}
	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), adminRepo)

	metrics := observability.NewMetrics()

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Tokens:         handlers.NewTokensHandler(queueService),
		Queues:         handlers.NewQueuesHandler(queueService),
		Auth:           handlers.NewAuthHandler(authService),
		OTP:            handlers.NewOTPHandler(otpService),
		Services:       handlers.NewServicesHandler(queues),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
