package core

import (
	"go.uber.org/zap"
)

// Module — интерфейс модуля бота.
// Русский комментарий: Каждая фича (forwards, banwords, comments, replylog) —
// отдельный модуль. Групповые сообщения проходят через pipeline модулей по
// очереди, команды модулей собираются роутером в общую таблицу.
type Module interface {
	// Name возвращает имя модуля для логов и event_log.
	Name() string

	// OnMessage вызывается для каждого группового сообщения.
	// Модуль сам решает, обрабатывать его или нет.
	OnMessage(ctx *MessageContext) error

	// Commands возвращает команды, которые модуль регистрирует у роутера.
	Commands() []BotCommand
}

// BotCommand описывает команду бота.
type BotCommand struct {
	Command     string // Имя команды без слеша (например: "addcomment")
	Description string // Описание для /help
	MinRole     Role   // Минимальная роль для вызова; RoleBase — без проверки
	Handler     func(ctx *MessageContext) error
}

// EventLogger пишет события модулей в аудит-лог.
type EventLogger interface {
	Log(chatID, userID int64, moduleName, eventType, details string) error
}

// MessageContext — контекст обработки одного входящего сообщения.
// Русский комментарий: Обёртка над Message с готовыми helper-методами, чтобы
// модули не таскали sender и логгер по отдельности.
type MessageContext struct {
	Message Message
	Sender  Sender
	Logger  *zap.Logger
	Events  EventLogger
}

// Reply отправляет ответ на текущее сообщение.
func (ctx *MessageContext) Reply(text string) error {
	_, err := ctx.Sender.SendMessage(ctx.Message.ChatID, text, ctx.Message.MessageID)
	return err
}

// Send отправляет сообщение в текущий чат без reply.
func (ctx *MessageContext) Send(text string) error {
	_, err := ctx.Sender.SendMessage(ctx.Message.ChatID, text, 0)
	return err
}

// LogEvent записывает событие в аудит-лог. Ошибка записи не прерывает обработку.
func (ctx *MessageContext) LogEvent(moduleName, eventType, details string) {
	if ctx.Events == nil {
		return
	}
	if err := ctx.Events.Log(ctx.Message.ChatID, ctx.Message.UserID, moduleName, eventType, details); err != nil {
		ctx.Logger.Warn("failed to write event log",
			zap.String("module", moduleName),
			zap.String("event_type", eventType),
			zap.Error(err))
	}
}
