package forwards

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/flybasist/moai/internal/core"
)

// Dispatcher ставит реакцию на сообщение с ретраями при flood control.
// Русский комментарий: Telegram на всплеске форвардов легко отвечает 429 с
// retry_after. Ждём указанную паузу и повторяем тот же вызов. Количество
// попыток ограничено — исходная реализация ретраила рекурсивно и без предела,
// здесь это явный цикл с верхней границей. Пауза усыпляет только горутину
// текущего события, остальные чаты не блокируются.
type Dispatcher struct {
	sender      core.Sender
	logger      *zap.Logger
	emoji       string
	maxAttempts int
	sleep       func(time.Duration) // подменяется в тестах
}

// NewDispatcher создаёт диспетчер реакций.
func NewDispatcher(sender core.Sender, logger *zap.Logger, emoji string, maxAttempts int) *Dispatcher {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Dispatcher{
		sender:      sender,
		logger:      logger,
		emoji:       emoji,
		maxAttempts: maxAttempts,
		sleep:       time.Sleep,
	}
}

// SetReaction ставит реакцию с ретраями при rate limit.
// Любая другая ошибка логируется и возвращается без повтора — неудавшаяся
// реакция не должна блокировать отправку комментария.
func (d *Dispatcher) SetReaction(chatID int64, messageID int) error {
	for attempt := 1; attempt <= d.maxAttempts; attempt++ {
		err := d.sender.SetReaction(chatID, messageID, d.emoji)
		if err == nil {
			return nil
		}

		var retryAfter *core.RetryAfterError
		if !errors.As(err, &retryAfter) {
			d.logger.Error("failed to set reaction",
				zap.Int64("chat_id", chatID),
				zap.Int("message_id", messageID),
				zap.Error(err))
			return err
		}

		d.logger.Warn("flood control on set reaction, waiting",
			zap.Int64("chat_id", chatID),
			zap.Int("message_id", messageID),
			zap.Duration("retry_after", retryAfter.After),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", d.maxAttempts))

		if attempt < d.maxAttempts {
			d.sleep(retryAfter.After)
		}
	}

	err := fmt.Errorf("reaction not set after %d attempts, giving up", d.maxAttempts)
	d.logger.Error("reaction retries exhausted",
		zap.Int64("chat_id", chatID),
		zap.Int("message_id", messageID),
		zap.Error(err))
	return err
}
