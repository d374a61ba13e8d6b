package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/flybasist/moai/internal/kafkabot"
	"github.com/flybasist/moai/internal/logx"
)

// Русский комментарий: Утилита для чтения зеркала событий бота из Kafka.
// Полезна при отладке: видно все входящие сообщения без доступа к базе.
// Нужны только KAFKA_BROKERS и (опционально) KAFKA_TOPIC, LOG_LEVEL.
func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	brokers := strings.Split(strings.ReplaceAll(os.Getenv("KAFKA_BROKERS"), " ", ","), ",")
	brokers = filterEmpty(brokers)
	if len(brokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS is required")
	}

	topic := os.Getenv("KAFKA_TOPIC")
	if topic == "" {
		topic = "moai-events"
	}
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		level = "info"
	}

	logger, err := logx.NewLogger(level, true, logx.DefaultRotation())
	if err != nil {
		return fmt.Errorf("failed to init logger: %w", err)
	}
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		logger.Info("received shutdown signal", zap.String("signal", sig.String()))
		cancel()
	}()

	return kafkabot.RunEventLogger(ctx, brokers, topic, "moai-eventlog", logger)
}

func filterEmpty(values []string) []string {
	out := values[:0]
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			out = append(out, s)
		}
	}
	return out
}
