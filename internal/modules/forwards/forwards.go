package forwards

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/flybasist/moai/internal/core"
)

// CommentPicker выбирает текст комментария. Реализация — модуль comments.
type CommentPicker interface {
	Pick(photo bool) string
}

// ForwardCounter отдаёт счётчики обработанных форвардов для /stats.
type ForwardCounter interface {
	CountByType(chatID int64, eventType string) (int64, error)
}

// Module — обработка пересланных сообщений.
// Русский комментарий: Сердце бота. На каждый логический пост (одиночный форвард
// или альбом) ставит ровно одну реакцию и пишет ровно один комментарий.
// Сообщения с media_group_id выдерживают небольшую паузу перед классификацией,
// чтобы соседние элементы альбома успели прийти. Пауза живёт в горутине текущего
// события и не трогает другие чаты.
type Module struct {
	tracker     *Tracker
	dispatcher  *Dispatcher
	picker      CommentPicker
	counter     ForwardCounter
	logger      *zap.Logger
	settleDelay time.Duration
	sleep       func(time.Duration) // подменяется в тестах
}

// New создаёт модуль обработки форвардов.
func New(tracker *Tracker, dispatcher *Dispatcher, picker CommentPicker, counter ForwardCounter, logger *zap.Logger, settleDelay time.Duration) *Module {
	return &Module{
		tracker:     tracker,
		dispatcher:  dispatcher,
		picker:      picker,
		counter:     counter,
		logger:      logger,
		settleDelay: settleDelay,
		sleep:       time.Sleep,
	}
}

// Name возвращает имя модуля.
func (m *Module) Name() string {
	return "forwards"
}

// Commands возвращает команды модуля.
func (m *Module) Commands() []core.BotCommand {
	return []core.BotCommand{
		{
			Command:     "stats",
			Description: "Сколько постов бот прокомментировал в этом чате",
			MinRole:     core.RoleBase,
			Handler:     m.handleStats,
		},
	}
}

// OnMessage обрабатывает групповое сообщение.
func (m *Module) OnMessage(ctx *core.MessageContext) error {
	msg := ctx.Message
	if !msg.Forwarded {
		return nil
	}

	if msg.MediaGroupID != "" && m.settleDelay > 0 {
		m.sleep(m.settleDelay)
	}

	decision := m.tracker.Admit(msg.MediaGroupID, msg.Caption)
	m.logger.Info("forwarded message classified",
		zap.Int64("chat_id", msg.ChatID),
		zap.Int("message_id", msg.MessageID),
		zap.String("media_group_id", msg.MediaGroupID),
		zap.String("decision", decision.String()))

	if decision == DecisionSkip {
		return nil
	}

	// Реакция best-effort: её неудача не отменяет комментарий.
	if err := m.dispatcher.SetReaction(msg.ChatID, msg.MessageID); err != nil {
		m.logger.Warn("continuing without reaction", zap.Error(err))
	}

	// Фото без подписи комментируем из фото-пула, всё остальное — из текстового.
	photo := msg.HasMedia() && msg.Caption == ""
	comment := m.picker.Pick(photo)
	if comment == "" {
		m.logger.Warn("comment pool is empty, nothing to send",
			zap.Bool("photo", photo))
		return nil
	}

	if err := ctx.Reply(comment); err != nil {
		return fmt.Errorf("failed to send comment: %w", err)
	}

	ctx.LogEvent(m.Name(), "forward_processed", fmt.Sprintf("media_group_id=%s", msg.MediaGroupID))
	return nil
}

// handleStats — команда /stats.
func (m *Module) handleStats(ctx *core.MessageContext) error {
	count, err := m.counter.CountByType(ctx.Message.ChatID, "forward_processed")
	if err != nil {
		m.logger.Error("failed to count processed forwards", zap.Error(err))
		return ctx.Reply("Не удалось получить статистику.")
	}
	return ctx.Reply(fmt.Sprintf("Прокомментировано постов в этом чате: %d", count))
}
