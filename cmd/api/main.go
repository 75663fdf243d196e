package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/civicaid/intake-service/internal/api/http"
	"github.com/civicaid/intake-service/internal/api/http/handlers"
	"github.com/civicaid/intake-service/internal/auth"
	"github.com/civicaid/intake-service/internal/config"
	"github.com/civicaid/intake-service/internal/events"
	"github.com/civicaid/intake-service/internal/observability"
	"github.com/civicaid/intake-service/internal/persistence"
	"github.com/civicaid/intake-service/internal/repository"
	"github.com/civicaid/intake-service/internal/service"
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

	if cfg.Auth.Mode == config.AuthModeDevelopment {
		logger.Warn("authentication disabled: development mode serves a fixed synthetic identity")
	}

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

	pool := pg.PoolHandle()
	orgRepo := repository.NewOrganizationRepository(pool)
	userRepo := repository.NewUserRepository(pool)
	ticketRepo := repository.NewTicketRepository(pool)
	historyRepo := repository.NewTicketHistoryRepository(pool)

	dispatcher := events.NewInMemoryDispatcher()
	producer := events.NewKafkaProducer(cfg.Notification.KafkaBrokers, cfg.Notification.KafkaTopic, logger)
	defer producer.Close()

	notificationService := service.NewNotificationService(dispatcher, producer, logger)
	notificationService.RegisterHandlers()

	tenantService := service.NewTenantService(orgRepo)
	if err := tenantService.EnsureDefaultCommunity(ctx); err != nil {
		logger.Fatal("failed to bootstrap default community organization", zap.Error(err))
	}

	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:  ticketRepo,
		HistoryRepo: historyRepo,
		UserRepo:    userRepo,
		Dispatcher:  dispatcher,
	})
	communityService := service.NewCommunityService(service.CommunityDependencies{
		TicketRepo:  ticketRepo,
		OrgRepo:     orgRepo,
		HistoryRepo: historyRepo,
		Dispatcher:  dispatcher,
		Cache:       redis.Client,
		Config:      cfg.Community,
		Logger:      logger,
	})
	timelineService := service.NewTimelineService(ticketRepo, historyRepo)
	userService := service.NewUserService(userRepo, orgRepo)

	resolver := auth.NewResolver(cfg.Auth, userRepo, orgRepo)
	authMiddleware := auth.NewMiddleware(resolver)

	metrics := observability.NewMetrics()

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis, metrics),
		Community:      handlers.NewCommunityHandler(communityService, tenantService),
		Timeline:       handlers.NewTimelineHandler(timelineService),
		Inbox:          handlers.NewInboxHandler(ticketService),
		Orgs:           handlers.NewOrgsHandler(tenantService),
		Users:          handlers.NewUsersHandler(userService),
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
