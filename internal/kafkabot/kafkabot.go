package kafkabot

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/flybasist/moai/internal/core"
)

// Producer зеркалирует входящие события в Kafka.
// Русский комментарий: Опциональный аудит-поток: каждое входящее сообщение
// уходит в топик как JSON. Потребители (аналитика, внешний логгер) живут
// отдельно от бота. Если брокеры не настроены, Producer == nil и зеркалирование
// просто выключено — см. Mirror.
type Producer struct {
	writer *kafka.Writer
	logger *zap.Logger
}

// Event — сериализованное входящее сообщение.
type Event struct {
	ChatID       int64     `json:"chat_id"`
	ChatType     string    `json:"chat_type"`
	MessageID    int       `json:"message_id"`
	UserID       int64     `json:"user_id"`
	Username     string    `json:"username,omitempty"`
	Text         string    `json:"text,omitempty"`
	Caption      string    `json:"caption,omitempty"`
	Forwarded    bool      `json:"forwarded"`
	MediaGroupID string    `json:"media_group_id,omitempty"`
	HasMedia     bool      `json:"has_media"`
	Time         time.Time `json:"time"`
}

// NewProducer создаёт writer для зеркала событий.
func NewProducer(brokers []string, topic string, logger *zap.Logger) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 100 * time.Millisecond,
	}
	logger.Info("kafka mirror enabled",
		zap.Strings("brokers", brokers),
		zap.String("topic", topic))
	return &Producer{writer: writer, logger: logger}
}

// Mirror отправляет событие в топик. Безопасен при nil-получателе.
// Ошибка записи логируется и не влияет на обработку сообщения.
func (p *Producer) Mirror(msg core.Message) {
	if p == nil {
		return
	}

	event := Event{
		ChatID:       msg.ChatID,
		ChatType:     string(msg.ChatType),
		MessageID:    msg.MessageID,
		UserID:       msg.UserID,
		Username:     msg.Username,
		Text:         msg.Text,
		Caption:      msg.Caption,
		Forwarded:    msg.Forwarded,
		MediaGroupID: msg.MediaGroupID,
		HasMedia:     msg.HasMedia(),
		Time:         msg.Time,
	}

	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("failed to marshal kafka event", zap.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(fmt.Sprintf("%d", msg.ChatID)),
		Value: payload,
	})
	if err != nil {
		p.logger.Warn("failed to write event to kafka", zap.Error(err))
	}
}

// Close закрывает соединение с Kafka. Безопасен при nil-получателе.
func (p *Producer) Close() error {
	if p == nil {
		return nil
	}
	return p.writer.Close()
}
