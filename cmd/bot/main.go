package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"outage_notification_bot/internal/app"
	"outage_notification_bot/internal/domain/subscription"
	"outage_notification_bot/internal/infra/config"
	idb "outage_notification_bot/internal/infra/database"
	"outage_notification_bot/internal/infra/logger"
	"outage_notification_bot/internal/infra/memory"
	"outage_notification_bot/internal/infra/metrics"
	"outage_notification_bot/internal/infra/scheduler"
	"outage_notification_bot/internal/infra/source"
	"outage_notification_bot/internal/infra/telegram"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"gopkg.in/telebot.v3"
)

// Upper bound for one notification cycle; ticks arrive every minute by default.
const cycleTimeout = 50 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Log.Fatalf("Could not load application configuration: %v", err)
	}
	logger.Init(cfg)
	mainLogger := logger.Component("main")
	mainLogger.Infof("Configuration loaded. LogLevel: %s, Environment: %s", cfg.LogLevel, cfg.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Metrics
	var recorder metrics.Recorder = metrics.Nop{}
	if cfg.MetricsAddr != "" {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		promRecorder, err := metrics.NewPromRecorder(reg)
		if err != nil {
			mainLogger.Fatalf("Could not register metrics: %v", err)
		}
		recorder = promRecorder
		go func() {
			if err := metrics.Serve(ctx, cfg.MetricsAddr, reg, logger.Component("metrics")); err != nil {
				mainLogger.WithError(err).Error("Metrics server failed")
			}
		}()
	}

	// Subscription registry
	var subsRepo subscription.Repository
	if cfg.DatabaseURL != "" {
		db, err := idb.NewPostgresConnection(ctx, cfg.DatabaseURL)
		if err != nil {
			mainLogger.Fatalf("Could not connect to database: %v", err)
		}
		defer db.Close()
		pgRepo := idb.NewPostgresSubscriptionRepository(db)
		if err := pgRepo.EnsureSchema(ctx); err != nil {
			mainLogger.Fatalf("Could not prepare database schema: %v", err)
		}
		subsRepo = pgRepo
		mainLogger.Info("Using PostgreSQL subscription registry.")
	} else {
		subsRepo = memory.NewSubscriptionRegistry()
		mainLogger.Warn("DATABASE_URL is not set, subscriptions are kept in memory and lost on restart.")
	}

	// Schedule source and cache
	sourceClient := source.NewClient(cfg.SourceURL, cfg.SourceTimeout, cfg.SourceRatePerMinute, cfg.SourceBurst, logger.Component("source"))
	scheduleCache := app.NewScheduleCache(sourceClient, cfg.CacheTTL, logger.Component("schedule_cache"), recorder)

	// Initialize Telegram Bot
	pref := telebot.Settings{
		Token:  cfg.TelegramToken,
		Poller: &telebot.LongPoller{Timeout: 10 * time.Second},
		OnError: func(err error, c telebot.Context) { // Global error handler
			entry := logger.Component("telebot").WithError(err)
			if c != nil && c.Sender() != nil {
				entry = entry.WithField("sender_id", c.Sender().ID)
			}
			entry.Error("Unhandled bot error")
		},
	}
	bot, err := telebot.NewBot(pref)
	if err != nil {
		mainLogger.Fatalf("Could not create Telegram bot: %v", err)
	}
	telegramClient := telegram.NewTelebotAdapter(bot)

	// Services
	subscriberService := app.NewSubscriberService(subsRepo, scheduleCache, logger.Component("subscriber_service"))
	notificationService := app.NewNotificationServiceImpl(
		subsRepo,
		scheduleCache,
		telegramClient,
		app.NotifyWindow{Lead: cfg.NotifyLeadMinutes, Tolerance: cfg.NotifyToleranceMinutes},
		cfg.NotifyMaxConcurrentGroups,
		logger.Component("notification_service"),
		recorder,
	)

	// Register Handlers
	telegram.NewHandlers(ctx, subscriberService, logger.Component("telegram")).Register(bot)
	mainLogger.Info("Bot handlers registered.")

	// Initialize NotificationScheduler
	notifScheduler := scheduler.NewNotificationScheduler(notificationService, logger.Component("scheduler"), cfg.CronSpecNotify, cycleTimeout)
	if err := notifScheduler.Start(); err != nil {
		mainLogger.Fatalf("Could not start scheduler: %v", err)
	}

	// Start bot in a goroutine so it doesn't block graceful shutdown handling
	go bot.Start()
	mainLogger.Info("Application setup complete. Bot and Scheduler are running.")

	<-ctx.Done() // Block until a signal is received

	mainLogger.Info("Shutting down application...")
	bot.Stop()
	notifScheduler.Stop()
	mainLogger.Info("Application shut down gracefully.")
}
