package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/support-workbench/internal/api/http"
	"github.com/spec-kit/support-workbench/internal/api/http/handlers"
	"github.com/spec-kit/support-workbench/internal/auth"
	"github.com/spec-kit/support-workbench/internal/config"
	"github.com/spec-kit/support-workbench/internal/events"
	"github.com/spec-kit/support-workbench/internal/observability"
	"github.com/spec-kit/support-workbench/internal/persistence"
	"github.com/spec-kit/support-workbench/internal/repository"
	"github.com/spec-kit/support-workbench/internal/search"
	"github.com/spec-kit/support-workbench/internal/service"
	"github.com/spec-kit/support-workbench/internal/worker"
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

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()

	pool := pg.PoolHandle()
	agentRepo := repository.NewAgentRepository(pool)
	workflowRepo := repository.NewWorkflowRepository(pool)
	historyRepo := repository.NewWorkflowHistoryRepository(pool)
	timeSessionRepo := repository.NewTimeSessionRepository(pool)
	researchStore := repository.NewResearchStore(redis.Client,
		cfg.Research.MaxSavedSessions, cfg.Research.MaxQueryHistory)

	authService := service.NewAuthService(*cfg, agentRepo)
	workflowService := service.NewWorkflowService(service.WorkflowDependencies{
		WorkflowRepo: workflowRepo,
		HistoryRepo:  historyRepo,
		Dispatcher:   dispatcher,
	})
	sessionService := service.NewSessionService(researchStore, logger)
	searchClient := search.NewClient(cfg.Search, logger, metrics)
	searchService := service.NewSearchService(searchClient, sessionService, researchStore, cfg.Search, logger)
	timetrackService := service.NewTimeTrackService(timeSessionRepo, dispatcher)
	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)

	worker.StartNotificationWorker(notificationService)

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), agentRepo)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Agents:         handlers.NewAgentsHandler(authService),
		Workflows:      handlers.NewWorkflowHandler(workflowService),
		Search:         handlers.NewSearchHandler(searchService),
		Sessions:       handlers.NewSessionsHandler(sessionService),
		TimeTrack:      handlers.NewTimeTrackHandler(timetrackService),
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
