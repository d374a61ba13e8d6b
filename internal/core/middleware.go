package core

import (
	"runtime/debug"

	"go.uber.org/zap"
)

// LogIncoming логирует входящее сообщение.
// Русский комментарий: Логи на английском для единообразия операционных сообщений.
func LogIncoming(logger *zap.Logger, msg Message) {
	logger.Info("incoming message",
		zap.Int64("chat_id", msg.ChatID),
		zap.String("chat_type", string(msg.ChatType)),
		zap.Int("message_id", msg.MessageID),
		zap.Int64("user_id", msg.UserID),
		zap.String("username", msg.Username),
		zap.Bool("forwarded", msg.Forwarded),
		zap.String("media_group_id", msg.MediaGroupID),
		zap.String("text", msg.Text),
		zap.String("caption", msg.Caption),
	)
}

// Recover ловит панику обработчика и логирует её вместо падения бота.
// Русский комментарий: Каждое входящее сообщение обрабатывается в своей горутине,
// поэтому recover обязателен — иначе одна паника уронит весь процесс.
// Если чат известен, пользователю уходит best-effort извинение.
func Recover(logger *zap.Logger, sender Sender, msg Message) {
	if r := recover(); r != nil {
		logger.Error("panic recovered in handler",
			zap.Any("panic", r),
			zap.Int64("chat_id", msg.ChatID),
			zap.Int("message_id", msg.MessageID),
			zap.String("stack", string(debug.Stack())),
		)
		if sender != nil && msg.ChatID != 0 {
			_, _ = sender.SendMessage(msg.ChatID, "Произошла внутренняя ошибка. Попробуйте позже.", 0)
		}
	}
}
