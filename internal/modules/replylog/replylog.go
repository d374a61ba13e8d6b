package replylog

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/flybasist/moai/internal/core"
	"github.com/flybasist/moai/internal/postgresql/repositories"
)

// Module — зеркалирование личных сообщений в лог-чат и обратная доставка ответов.
// Русский комментарий: Каждое личное сообщение боту копируется в лог-чат
// разработчиков со связкой id в reply_log. Разработчик отвечает реплаем на копию,
// бот доставляет ответ исходному отправителю. Связки старше 24 часов вычищает
// планировщик — отвечать на совсем старые сообщения всё равно некому.
type Module struct {
	repo      *repositories.ReplyLogRepository
	gate      *core.PermissionGate
	logger    *zap.Logger
	logChatID int64 // 0 — зеркалирование выключено
}

// New создаёт модуль reply-лога.
func New(repo *repositories.ReplyLogRepository, gate *core.PermissionGate, logger *zap.Logger, logChatID int64) *Module {
	return &Module{repo: repo, gate: gate, logger: logger, logChatID: logChatID}
}

// Name возвращает имя модуля.
func (m *Module) Name() string {
	return "replylog"
}

// LogChatID возвращает id лог-чата (0 — выключено).
func (m *Module) LogChatID() int64 {
	return m.logChatID
}

// HandlePrivate обрабатывает личное сообщение: эхо-ответ плюс зеркало в лог-чат.
func (m *Module) HandlePrivate(ctx *core.MessageContext) error {
	msg := ctx.Message
	if msg.Text == "" {
		return nil
	}

	if err := ctx.Reply(fmt.Sprintf("Вы написали: %s", msg.Text)); err != nil {
		m.logger.Error("failed to send echo reply", zap.Error(err))
	}

	if m.logChatID == 0 {
		return nil
	}

	mirror := fmt.Sprintf("От %s (id %d):\n%s", displayName(msg), msg.UserID, msg.Text)
	mirrorID, err := ctx.Sender.SendMessage(m.logChatID, mirror, 0)
	if err != nil {
		return fmt.Errorf("failed to mirror private message: %w", err)
	}

	if err := m.repo.Insert(mirrorID, msg.ChatID, msg.MessageID); err != nil {
		m.logger.Error("failed to record reply log entry",
			zap.Int("logger_message_id", mirrorID),
			zap.Error(err))
	}
	return nil
}

// HandleLogReply обрабатывает ответ разработчика в лог-чате.
func (m *Module) HandleLogReply(ctx *core.MessageContext) error {
	msg := ctx.Message
	if msg.ReplyToID == 0 || msg.Text == "" || msg.IsCommand() {
		return nil
	}

	if err := m.gate.Authorize(msg.UserID, core.RoleDeveloper); err != nil {
		switch {
		case errors.Is(err, core.ErrNotRegistered):
			return ctx.Reply("Сначала зарегистрируйтесь: отправьте /start боту в личном чате.")
		case errors.Is(err, core.ErrInsufficientRights):
			return ctx.Reply("Отвечать из лог-чата могут только разработчики.")
		default:
			return ctx.Reply("Не удалось проверить права, попробуйте позже.")
		}
	}

	srcChatID, srcMessageID, found, err := m.repo.Lookup(msg.ReplyToID)
	if err != nil {
		m.logger.Error("failed to lookup reply log entry", zap.Error(err))
		return ctx.Reply("Не удалось найти исходное сообщение, попробуйте позже.")
	}
	if !found {
		return ctx.Reply("Исходное сообщение не найдено: записи старше 24 часов удаляются.")
	}

	if _, err := ctx.Sender.SendMessage(srcChatID, msg.Text, srcMessageID); err != nil {
		return fmt.Errorf("failed to relay reply: %w", err)
	}

	m.logger.Info("relayed developer reply",
		zap.Int64("source_chat_id", srcChatID),
		zap.Int("source_message_id", srcMessageID))
	ctx.LogEvent(m.Name(), "reply_relayed", fmt.Sprintf("source_chat_id=%d", srcChatID))
	return nil
}

func displayName(msg core.Message) string {
	if msg.Username != "" {
		return "@" + msg.Username
	}
	if msg.FirstName != "" {
		return msg.FirstName
	}
	return "неизвестный"
}
