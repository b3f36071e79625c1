package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/template/html/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/phone-auth/internal/accounts"
	httptransport "github.com/spec-kit/phone-auth/internal/api/http"
	"github.com/spec-kit/phone-auth/internal/api/http/handlers"
	"github.com/spec-kit/phone-auth/internal/config"
	"github.com/spec-kit/phone-auth/internal/events"
	"github.com/spec-kit/phone-auth/internal/observability"
	"github.com/spec-kit/phone-auth/internal/persistence"
	"github.com/spec-kit/phone-auth/internal/ratelimit"
	"github.com/spec-kit/phone-auth/internal/repository"
	"github.com/spec-kit/phone-auth/internal/service"
	"github.com/spec-kit/phone-auth/internal/session"
	"github.com/spec-kit/phone-auth/internal/verify"
	"github.com/spec-kit/phone-auth/internal/worker"
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

	var profileRepo repository.ProfileRepository
	if pool := pg.PoolHandle(); pool != nil {
		profileRepo = repository.NewProfileRepository(pool)
	} else {
		logger.Warn("no postgres pool; using in-memory profile repository")
		profileRepo = repository.NewMemoryProfileRepository()
	}

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()
	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	worker.StartNotificationWorker(notificationService)

	flowService := service.NewAuthFlowService(cfg.RateLimit, service.AuthFlowDependencies{
		Gateway:     verify.NewClient(cfg.Verify),
		Accounts:    accounts.NewClient(cfg.Accounts),
		ProfileRepo: profileRepo,
		Limiter:     ratelimit.NewRedisLimiter(redis.Client, cfg.RateLimit.Window()),
		Dispatcher:  dispatcher,
		Metrics:     metrics,
		Logger:      logger,
	})

	sessions := session.NewManager(cfg.Session)

	engine := html.New("./web/views", ".html")
	app := fiber.New(fiber.Config{
		Views:       engine,
		ViewsLayout: "layout",
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	healthHandler := handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis)
	authHandler := handlers.NewAuthHandler(flowService)

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:   healthHandler,
		Auth:     authHandler,
		Sessions: sessions,
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
