package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/auth-service/internal/api/http"
	"github.com/spec-kit/auth-service/internal/api/http/handlers"
	"github.com/spec-kit/auth-service/internal/auth"
	"github.com/spec-kit/auth-service/internal/config"
	"github.com/spec-kit/auth-service/internal/events"
	"github.com/spec-kit/auth-service/internal/notify"
	"github.com/spec-kit/auth-service/internal/observability"
	"github.com/spec-kit/auth-service/internal/persistence"
	"github.com/spec-kit/auth-service/internal/ratelimit"
	"github.com/spec-kit/auth-service/internal/repository"
	"github.com/spec-kit/auth-service/internal/service"
	"github.com/spec-kit/auth-service/internal/worker"
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

	if cfg.Postgres.RunMigrations && pg.PoolHandle() != nil {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	var userRepo repository.UserRepository
	if pg.PoolHandle() != nil {
		userRepo = repository.NewUserRepository(pg.PoolHandle())
	} else {
		logger.Warn("no postgres pool available; using in-memory user store")
		userRepo = repository.NewMemoryUserRepository()
	}

	dispatcher := events.NewInMemoryDispatcher()
	events.RegisterAuditLogger(dispatcher, logger)

	metrics := observability.NewMetrics()

	queue := notify.NewQueue(cfg.Notify.QueueCapacity, cfg.Notify.MaxAttempts, cfg.Notify.RetryBaseDelay(), logger)
	sender := notify.NewLogSender(cfg.Notify, logger)
	notificationWorker := worker.NewNotificationWorker(queue, sender, logger, cfg.Notify.DrainInterval())
	notificationWorker.Start(ctx)

	var counterStore ratelimit.CounterStore
	if cfg.RateLimit.UseRedis {
		counterStore = ratelimit.NewRedisStore(redis.Client)
	} else {
		memStore := ratelimit.NewMemoryStore()
		memStore.StartSweeper(ctx, cfg.RateLimit.SweepInterval())
		counterStore = memStore
	}
	limiter := ratelimit.NewLimiter(counterStore, cfg.RateLimit.MaxRequests, cfg.RateLimit.Window())

	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		UserRepo:   userRepo,
		Queue:      queue,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	adminService := service.NewAdminService(userRepo, queue, dispatcher, logger)
	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), userRepo)

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:           handlers.NewAuthHandler(authService),
		Tokens:         handlers.NewTokensHandler(authService),
		Admin:          handlers.NewAdminHandler(adminService),
		AuthMiddleware: authMiddleware,
		RateLimit:      httptransport.RateLimit(limiter, dispatcher, logger),
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
