package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/flybasist/moai/internal/bot"
	"github.com/flybasist/moai/internal/config"
	"github.com/flybasist/moai/internal/core"
	"github.com/flybasist/moai/internal/kafkabot"
	"github.com/flybasist/moai/internal/logx"
	"github.com/flybasist/moai/internal/migrations"
	"github.com/flybasist/moai/internal/modules/banwords"
	"github.com/flybasist/moai/internal/modules/comments"
	"github.com/flybasist/moai/internal/modules/forwards"
	"github.com/flybasist/moai/internal/modules/maintenance"
	"github.com/flybasist/moai/internal/modules/replylog"
	"github.com/flybasist/moai/internal/postgresql"
	"github.com/flybasist/moai/internal/postgresql/repositories"
	"github.com/flybasist/moai/internal/telegram"
)

func main() {
	// Русский комментарий: Главная точка входа бота.
	// 1. Загружаем конфиг (.env поддерживается)
	// 2. Инициализируем логгер
	// 3. Подключаемся к PostgreSQL, применяем миграции
	// 4. Создаём репозитории и модули (forwards, comments, banwords, replylog)
	// 5. Собираем роутер и Telegram-клиент
	// 6. Запускаем фоновые задачи (очистка альбомов, prune reply-лога)
	// 7. Слушаем обновления до SIGINT/SIGTERM, затем graceful shutdown

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// .env — для локальной разработки; в проде переменные приходят из окружения.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := logx.NewLogger(cfg.LogLevel, cfg.LogPretty, logx.DefaultRotation())
	if err != nil {
		return fmt.Errorf("failed to init logger: %w", err)
	}
	defer logger.Sync()

	logger.Info("starting moai bot",
		zap.String("log_level", cfg.LogLevel),
		zap.Bool("log_pretty", cfg.LogPretty),
		zap.Duration("shutdown_timeout", cfg.ShutdownTimeout),
		zap.Duration("album_retention", cfg.AlbumRetention),
		zap.Duration("album_settle_delay", cfg.AlbumSettleDelay),
	)

	// Подключаемся к PostgreSQL
	db, err := postgresql.ConnectToBase(context.Background(), cfg.PostgresDSN)
	if err != nil {
		return fmt.Errorf("failed to connect to postgres: %w", err)
	}
	defer db.Close()

	if err := postgresql.PingWithRetry(db, 10, 2*time.Second, logger); err != nil {
		return fmt.Errorf("failed to ping postgres: %w", err)
	}
	logger.Info("connected to postgresql")

	// Автоматически применяем миграции (или валидируем существующую схему)
	if err := migrations.RunMigrationsIfNeeded(db, logger); err != nil {
		return fmt.Errorf("database migration failed: %w", err)
	}
	logger.Info("database schema ready")

	// Репозитории
	userRepo := repositories.NewUserRepository(db)
	chatRepo := repositories.NewChatRepository(db)
	commentRepo := repositories.NewCommentRepository(db)
	banwordRepo := repositories.NewBanwordRepository(db)
	replyLogRepo := repositories.NewReplyLogRepository(db)
	eventRepo := repositories.NewEventRepository(db)

	gate := core.NewPermissionGate(userRepo, logger)

	// Telegram-клиент
	client, err := telegram.NewClient(cfg.TelegramBotToken, logger)
	if err != nil {
		return fmt.Errorf("failed to create telegram client: %w", err)
	}

	// Модули
	commentsModule, err := comments.New(commentRepo, comments.DefaultGenerators(), logger)
	if err != nil {
		return fmt.Errorf("failed to init comments module: %w", err)
	}

	tracker := forwards.NewTracker(cfg.AlbumRetention)
	dispatcher := forwards.NewDispatcher(client, logger, cfg.ReactionEmoji, cfg.ReactionMaxAttempts)
	forwardsModule := forwards.New(tracker, dispatcher, commentsModule.Selector(), eventRepo, logger, cfg.AlbumSettleDelay)

	banwordsModule := banwords.New(banwordRepo, logger)
	replyLogModule := replylog.New(replyLogRepo, gate, logger, cfg.LogChatID)

	// Опциональное зеркало событий в Kafka
	var producer *kafkabot.Producer
	if len(cfg.KafkaBrokers) > 0 {
		producer = kafkabot.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
		defer producer.Close()
	}

	router := bot.NewRouter(bot.Deps{
		Sender:       client,
		Gate:         gate,
		Users:        userRepo,
		Chats:        chatRepo,
		Events:       eventRepo,
		Pipeline:     []core.Module{forwardsModule, banwordsModule, commentsModule},
		Replies:      replyLogModule,
		Pools:        commentsModule,
		Mirror:       producer,
		IgnoredChats: cfg.IgnoredChats,
		Logger:       logger,
	})

	// Фоновые задачи: очистка записей об альбомах и prune reply-лога
	maintenanceModule := maintenance.New(tracker, replyLogRepo, logger)
	if err := maintenanceModule.Start(); err != nil {
		return fmt.Errorf("failed to start maintenance tasks: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	listenErr := make(chan error, 1)
	go func() {
		logger.Info("bot started, polling for updates...")
		listenErr <- client.Listen(ctx, router.Route)
	}()

	select {
	case sig := <-sigChan:
		logger.Info("received shutdown signal", zap.String("signal", sig.String()))
	case err := <-listenErr:
		if err != nil {
			return fmt.Errorf("polling failed: %w", err)
		}
		return nil
	}

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	logger.Info("shutting down bot...")
	client.Stop()
	cancel()

	logger.Info("shutting down maintenance tasks...")
	if err := maintenanceModule.Shutdown(); err != nil {
		logger.Error("failed to shutdown maintenance tasks", zap.Error(err))
	}

	logger.Info("closing kafka producer...")
	if err := producer.Close(); err != nil {
		logger.Error("failed to close kafka producer", zap.Error(err))
	}

	logger.Info("closing database connection...")
	if err := db.Close(); err != nil {
		logger.Error("failed to close database", zap.Error(err))
	}

	select {
	case <-shutdownCtx.Done():
		logger.Warn("shutdown timeout exceeded")
		return fmt.Errorf("shutdown timeout exceeded")
	default:
		logger.Info("bot shutdown complete")
		return nil
	}
}
