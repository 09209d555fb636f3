package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"atlas/internal/adapters/ai"
	"atlas/internal/adapters/clickhouse"
	"atlas/internal/adapters/config"
	"atlas/internal/adapters/errors/noop"
	"atlas/internal/adapters/errors/sentry"
	"atlas/internal/adapters/kafka"
	"atlas/internal/adapters/postgres"
	"atlas/internal/adapters/redis"
	"atlas/internal/adapters/telegram"
	"atlas/internal/agents"
	"atlas/internal/api"
	"atlas/internal/api/health"
	"atlas/internal/events"
	"atlas/internal/marketdata"
	"atlas/internal/metrics"
	chrepo "atlas/internal/repository/clickhouse"
	pgrepo "atlas/internal/repository/postgres"
	"atlas/internal/services/execution"
	"atlas/internal/services/portfolio"
	"atlas/internal/tools"
	"atlas/internal/workers"
	"atlas/pkg/errors"
	"atlas/pkg/logger"
)

const version = "0.1.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	if err := logger.Init(cfg.App.LogLevel, cfg.App.Env); err != nil {
		panic("failed to init logger: " + err.Error())
	}
	defer logger.Sync()

	log := logger.Get()
	log.Infof("Starting %s %s in %s mode", cfg.App.Name, version, cfg.App.Env)

	errorTracker := initErrorTracker(cfg, log)
	logger.SetErrorTracker(errorTracker)

	metrics.Init()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Databases
	pgClient, err := postgres.NewClient(cfg.Postgres)
	if err != nil {
		log.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}
	defer pgClient.Close()

	chClient, err := clickhouse.NewClient(cfg.ClickHouse)
	if err != nil {
		log.Fatalf("Failed to connect to ClickHouse: %v", err)
	}
	defer chClient.Close()

	redisClient, err := redis.NewClient(cfg.Redis)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()

	log.Info("Databases connected")

	// Repositories
	db := pgClient.DB()
	accountRepo := pgrepo.NewAccountRepository(db)
	positionRepo := pgrepo.NewPositionRepository(db)
	snapshotRepo := pgrepo.NewSnapshotRepository(db)
	orderRepo := pgrepo.NewOrderRepository(db)

	traceRepo := chrepo.NewTraceRepository(chClient.Conn())
	traceRepo.Start(ctx)
	defer func() {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer stopCancel()
		if err := traceRepo.Stop(stopCtx); err != nil {
			log.Warnf("Trace repository shutdown: %v", err)
		}
	}()

	// Event streaming (optional)
	var producer *kafka.Producer
	if cfg.Kafka.Enabled {
		producer = kafka.NewProducer(kafka.ProducerConfig{Brokers: cfg.Kafka.Brokers})
		defer producer.Close()
		log.Info("Kafka producer initialized")
	}
	publisher := events.NewPublisher(producer)

	// Notifications (optional)
	var notifier execution.Notifier
	var runNotifier agents.RunNotifier
	if cfg.Telegram.Enabled {
		tg, err := telegram.NewNotifier(telegram.Config{
			Token:  cfg.Telegram.BotToken,
			ChatID: cfg.Telegram.ChatID,
		})
		if err != nil {
			log.Warnf("Telegram notifier disabled: %v", err)
		} else {
			notifier = tg
			runNotifier = tg
			log.Info("Telegram notifier initialized")
		}
	}

	// AI providers
	aiRegistry, err := ai.BuildRegistry(cfg.AI)
	if err != nil {
		log.Fatalf("Failed to initialize AI providers: %v", err)
	}
	chat, err := aiRegistry.GetChat(cfg.AI.DefaultProvider)
	if err != nil {
		log.Fatalf("Default AI provider unavailable: %v", err)
	}
	model := ai.DefaultModel(cfg.AI, cfg.AI.DefaultProvider)
	log.Infof("AI provider ready: %s (%s)", chat.Name(), model)

	// Market data and tools
	market := marketdata.NewService(cfg.MarketData, redisClient)
	toolRegistry := tools.NewRegistry(market)

	// Services
	portfolioSvc := portfolio.NewService(accountRepo, positionRepo, snapshotRepo, market, cfg.Trading)
	if _, err := portfolioSvc.EnsureAccount(ctx); err != nil {
		log.Fatalf("Failed to ensure trading account: %v", err)
	}
	executionSvc := execution.NewService(db, market, publisher, notifier)

	// Agents
	pilot := agents.NewPilot(agents.PilotConfig{
		Chat:      chat,
		Model:     model,
		Tools:     toolRegistry,
		Loader:    portfolioSvc,
		Trader:    executionSvc,
		Snapshots: portfolioSvc,
		Traces:    traceRepo,
		Events:    publisher,
		Notify:    runNotifier,
		Watchlist: cfg.Trading.Watchlist,
		AccountID: cfg.Trading.AccountID,
	})
	orchestrator := agents.NewOrchestrator(chat, model, toolRegistry, executionSvc, traceRepo, cfg.Trading.AccountID)

	var competition *agents.Competition
	if cfg.Competition.Enabled {
		competitors := make([]agents.Competitor, 0, len(cfg.Competition.Models))
		for _, compModel := range cfg.Competition.Models {
			compChat, err := aiRegistry.GetChatByModel(ctx, compModel)
			if err != nil {
				log.Warnf("Competition skips %s: %v", compModel, err)
				continue
			}

			tc := cfg.Trading
			tc.AccountID = "comp-" + compModel
			tc.StartingCash = cfg.Competition.StartingCash
			compPortfolio := portfolio.NewService(accountRepo, positionRepo, snapshotRepo, market, tc)
			if _, err := compPortfolio.EnsureAccount(ctx); err != nil {
				log.Fatalf("Failed to ensure competition account for %s: %v", compModel, err)
			}

			competitors = append(competitors, agents.Competitor{
				Name:      compModel,
				Model:     compModel,
				AccountID: tc.AccountID,
				Loader:    compPortfolio,
				Pilot: agents.NewPilot(agents.PilotConfig{
					Chat:      compChat,
					Model:     compModel,
					Tools:     toolRegistry,
					Loader:    compPortfolio,
					Trader:    executionSvc,
					Snapshots: compPortfolio,
					Traces:    traceRepo,
					Events:    publisher,
					Watchlist: cfg.Trading.Watchlist,
					AccountID: tc.AccountID,
					UserID:    "COMPETITION:" + compModel,
				}),
			})
		}
		if len(competitors) == 0 {
			log.Warn("Competition enabled but no model has a chat provider, disabling")
		} else {
			competition = agents.NewCompetition(competitors)
			log.Infof("Competition initialized with %d models", len(competitors))
		}
	}

	// Background workers
	scheduler := workers.NewScheduler()
	scheduler.Register(workers.NewPilotWorker(
		pilot, redisClient, cfg.Workers.PilotInterval, cfg.Workers.PilotLockTTL, cfg.Workers.PilotEnabled,
	))
	if competition != nil {
		scheduler.Register(workers.NewCompetitionWorker(
			competition, redisClient, cfg.Competition.Interval, cfg.Workers.PilotLockTTL, true,
		))
	}
	scheduler.Register(workers.NewSnapshotWorker(
		portfolioSvc, publisher, cfg.Workers.SnapshotInterval, cfg.Workers.SnapshotEnabled,
	))
	if err := scheduler.Start(ctx); err != nil {
		log.Fatalf("Failed to start workers: %v", err)
	}

	// HTTP server
	healthHandler := health.New(log, db, chClient.Conn(), redisClient, cfg.App.Name, version)
	handlers := api.NewHandlers(
		cfg.Trading.AccountID, portfolioSvc, executionSvc, orderRepo, traceRepo, pilot, orchestrator, competition, scheduler,
	)
	server := api.NewServer(cfg.Server, api.AppConfig{ServiceName: cfg.App.Name, Version: version}, healthHandler, handlers)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start()
	}()

	log.Info("System initialized successfully")

	waitForShutdown(ctx, cancel, cfg, server, scheduler, errorTracker, serverErr, log)
}

// initErrorTracker initializes error tracking (Sentry or no-op)
func initErrorTracker(cfg *config.Config, log *logger.Logger) errors.Tracker {
	if !cfg.ErrorTracking.Enabled || cfg.ErrorTracking.SentryDSN == "" {
		log.Info("Error tracking disabled")
		return noop.New()
	}

	tracker, err := sentry.New(cfg.ErrorTracking.SentryDSN, cfg.ErrorTracking.Environment)
	if err != nil {
		log.Warnf("Failed to initialize Sentry: %v", err)
		return noop.New()
	}

	log.Info("Error tracking initialized (Sentry)")
	return tracker
}

// waitForShutdown blocks until a signal or server failure, then stops
// everything in reverse start order
func waitForShutdown(
	ctx context.Context,
	cancel context.CancelFunc,
	cfg *config.Config,
	server *api.Server,
	scheduler *workers.Scheduler,
	errorTracker errors.Tracker,
	serverErr <-chan error,
	log *logger.Logger,
) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Infof("Received signal %s, shutting down...", sig)
	case err := <-serverErr:
		if err != nil {
			log.Errorf("HTTP server failed: %v", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warnf("HTTP server shutdown: %v", err)
	}

	if err := scheduler.Stop(); err != nil {
		log.Warnf("Worker shutdown: %v", err)
	}

	cancel()

	if errorTracker != nil {
		if err := errorTracker.Flush(shutdownCtx); err != nil {
			log.Warnf("Failed to flush error tracker: %v", err)
		}
	}

	log.Info("Shutdown complete")
}
