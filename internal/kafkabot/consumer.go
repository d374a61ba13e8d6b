package kafkabot

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// RunEventLogger читает зеркало событий из топика и пишет их в structured log.
// Русский комментарий: Потребитель для cmd/eventlog — живой хвост всего, что
// видит бот. Блокируется до отмены контекста.
func RunEventLogger(ctx context.Context, brokers []string, topic, groupID string, logger *zap.Logger) error {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 10e6,
		MaxWait:  time.Second,
	})
	defer reader.Close()

	logger.Info("event logger started",
		zap.Strings("brokers", brokers),
		zap.String("topic", topic),
		zap.String("group_id", groupID))

	for {
		m, err := reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		var event Event
		if err := json.Unmarshal(m.Value, &event); err != nil {
			logger.Warn("skipping malformed event",
				zap.Int64("offset", m.Offset),
				zap.Error(err))
			continue
		}

		logger.Info("event",
			zap.Int64("chat_id", event.ChatID),
			zap.String("chat_type", event.ChatType),
			zap.Int("message_id", event.MessageID),
			zap.Int64("user_id", event.UserID),
			zap.String("username", event.Username),
			zap.Bool("forwarded", event.Forwarded),
			zap.String("media_group_id", event.MediaGroupID),
			zap.Bool("has_media", event.HasMedia),
			zap.Time("time", event.Time))
	}
}
