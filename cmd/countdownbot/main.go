package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"countdown-bot/internal/api"
	"countdown-bot/internal/bot"
	"countdown-bot/internal/config"
	"countdown-bot/internal/i18n"
	"countdown-bot/internal/logging"
	"countdown-bot/internal/repository"
	"countdown-bot/internal/service"
)

const tickTimeout = 50 * time.Second

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		return err
	}

	logger, _, err := logging.Setup(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	db, err := repository.NewDB(cfg.DatabaseURL, logger)
	if err != nil {
		logger.Error("Failed to open chat store", zap.Error(err))
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer func() {
		if err := sqlDB.Close(); err != nil {
			logger.Error("Failed to close chat store", zap.Error(err))
		}
	}()

	chatRepo := repository.NewChatRepository(db, cfg.DefaultReminderTime)
	eventRepo := repository.NewEventRepository(db, chatRepo)
	catalog := i18n.MustLoad()

	chatSvc := service.NewChatService(chatRepo, eventRepo)
	digestSvc := service.NewDigestService(catalog, logger.Named("digest"))
	conversations, err := service.NewConversations(cfg.PendingTTL)
	if err != nil {
		return err
	}
	defer func() { _ = conversations.Close() }()

	telegramBot, err := bot.New(cfg.TelegramToken, bot.Deps{
		Chats:         chatSvc,
		Digest:        digestSvc,
		Conversations: conversations,
		Catalog:       catalog,
		Location:      loc,
		Logger:        logger,
		Workers:       cfg.Workers,
	})
	if err != nil {
		logger.Error("Failed to start telegram bot", zap.Error(err))
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	dispatcher := service.NewDispatcher(chatRepo, eventRepo, digestSvc, telegramBot, loc, logger.Named("dispatcher"), reg)

	scheduler := service.NewSchedulerService(loc, logger)
	if _, err := scheduler.ScheduleInterval(cfg.TickInterval, func() {
		jobCtx, cancel := context.WithTimeout(ctx, tickTimeout)
		defer cancel()
		dispatcher.Tick(jobCtx, time.Now())
	}); err != nil {
		logger.Error("Failed to schedule reminder dispatcher", zap.Error(err))
		return err
	}
	scheduler.Start()
	defer scheduler.Stop()

	keepAlive := api.NewKeepAliveAPI(cfg.HTTPAddr, sqlDB, reg, logger)
	if err := keepAlive.Start(); err != nil {
		logger.Error("Failed to start keep-alive API", zap.Error(err))
		return err
	}
	defer keepAlive.Shutdown()

	logger.Info("Countdown bot started",
		zap.Duration("tick_interval", cfg.TickInterval), zap.String("time_zone", loc.String()))
	if err := telegramBot.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Bot stopped with error", zap.Error(err))
		return err
	}
	logger.Info("Shutdown complete")
	return nil
}
