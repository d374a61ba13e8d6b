package bot

import (
	"errors"

	"go.uber.org/zap"

	"github.com/flybasist/moai/internal/core"
	"github.com/flybasist/moai/internal/kafkabot"
	"github.com/flybasist/moai/internal/postgresql/repositories"
)

// UserStore — операции над таблицей пользователей, нужные роутеру.
type UserStore interface {
	GetOrCreate(userID int64, username, firstName string) error
	Get(userID int64) (repositories.UserRecord, bool, error)
	SetRole(userID int64, role core.Role) error
	List() ([]repositories.UserRecord, error)
}

// ChatStore — регистрация чатов.
type ChatStore interface {
	GetOrCreate(chatID int64, chatType, title string) error
}

// ReplyRelay — зеркало личных сообщений и доставка ответов из лог-чата.
// Реализация — internal/modules/replylog.
type ReplyRelay interface {
	LogChatID() int64
	HandlePrivate(ctx *core.MessageContext) error
	HandleLogReply(ctx *core.MessageContext) error
}

// PoolFormatter — листинг пулов комментариев для ответа на /start.
type PoolFormatter interface {
	FormatPools() string
}

// Deps — зависимости роутера.
// Русский комментарий: DI-контейнер в стиле остальных модулей: всё собирается
// в cmd/bot/main.go и передаётся одним значением.
type Deps struct {
	Sender       core.Sender
	Gate         *core.PermissionGate
	Users        UserStore
	Chats        ChatStore
	Events       core.EventLogger
	Pipeline     []core.Module // порядок важен: forwards раньше banwords
	Replies      ReplyRelay
	Pools        PoolFormatter
	Mirror       *kafkabot.Producer // nil — зеркалирование выключено
	IgnoredChats []int64
	Logger       *zap.Logger
}

// Router классифицирует входящие сообщения и раздаёт их обработчикам.
// Русский комментарий: Единственная точка маршрутизации для всех транспортов.
// Сам роутер состояния не держит — всё состояние в модулях и репозиториях.
type Router struct {
	deps     Deps
	commands map[string]core.BotCommand
	ignored  map[int64]struct{}
	logger   *zap.Logger
}

// NewRouter собирает роутер и таблицу команд из модулей.
func NewRouter(deps Deps) *Router {
	r := &Router{
		deps:     deps,
		commands: make(map[string]core.BotCommand),
		ignored:  make(map[int64]struct{}, len(deps.IgnoredChats)),
		logger:   deps.Logger,
	}
	for _, chatID := range deps.IgnoredChats {
		r.ignored[chatID] = struct{}{}
	}
	for _, module := range deps.Pipeline {
		for _, cmd := range module.Commands() {
			if _, exists := r.commands[cmd.Command]; exists {
				r.logger.Warn("duplicate command registration, overwriting",
					zap.String("command", cmd.Command),
					zap.String("module", module.Name()))
			}
			r.commands[cmd.Command] = cmd
		}
	}
	for _, cmd := range r.builtinCommands() {
		r.commands[cmd.Command] = cmd
	}
	return r
}

// Route обрабатывает одно входящее сообщение. Вызывается в отдельной горутине
// на каждое сообщение; паника обработчика гасится и не роняет процесс.
func (r *Router) Route(msg core.Message) {
	defer core.Recover(r.logger, r.deps.Sender, msg)

	core.LogIncoming(r.logger, msg)
	r.deps.Mirror.Mirror(msg)

	// Игнорируемые чаты отсекаются до любой другой логики и в базе не появляются.
	if _, ok := r.ignored[msg.ChatID]; ok {
		if _, err := r.deps.Sender.SendMessage(msg.ChatID, "Этот чат не обслуживается.", msg.MessageID); err != nil {
			r.logger.Warn("failed to send refusal", zap.Error(err))
		}
		return
	}

	ctx := &core.MessageContext{
		Message: msg,
		Sender:  r.deps.Sender,
		Logger:  r.logger,
		Events:  r.deps.Events,
	}

	if err := r.deps.Chats.GetOrCreate(msg.ChatID, string(msg.ChatType), msg.ChatTitle); err != nil {
		r.logger.Error("failed to register chat", zap.Error(err))
	}

	// Сообщения в лог-чате — канал обратной связи разработчиков.
	if r.deps.Replies != nil && r.deps.Replies.LogChatID() != 0 && msg.ChatID == r.deps.Replies.LogChatID() {
		if err := r.deps.Replies.HandleLogReply(ctx); err != nil {
			r.logger.Error("failed to handle log chat reply", zap.Error(err))
		}
		return
	}

	if msg.IsCommand() {
		r.dispatchCommand(ctx)
		return
	}

	switch {
	case msg.ChatType.IsGroup():
		// Pipeline обработки: модули по очереди, ошибка одного не мешает другим.
		for _, module := range r.deps.Pipeline {
			if err := module.OnMessage(ctx); err != nil {
				r.logger.Error("module failed to process message",
					zap.String("module", module.Name()),
					zap.Int64("chat_id", msg.ChatID),
					zap.Int("message_id", msg.MessageID),
					zap.Error(err))
			}
		}
	case msg.ChatType == core.ChatPrivate:
		if r.deps.Replies != nil {
			if err := r.deps.Replies.HandlePrivate(ctx); err != nil {
				r.logger.Error("failed to handle private message", zap.Error(err))
			}
		}
	}
}

// dispatchCommand проверяет права и вызывает обработчик команды.
func (r *Router) dispatchCommand(ctx *core.MessageContext) {
	msg := ctx.Message
	name := msg.Command()

	cmd, ok := r.commands[name]
	if !ok {
		// В группах молчим про незнакомые команды — они могут быть адресованы
		// другому боту.
		if msg.ChatType == core.ChatPrivate {
			r.replyOrLog(ctx, "Неизвестная команда. Список команд: /help")
		}
		return
	}

	if cmd.MinRole > core.RoleBase {
		if err := r.deps.Gate.Authorize(msg.UserID, cmd.MinRole); err != nil {
			switch {
			case errors.Is(err, core.ErrNotRegistered):
				r.replyOrLog(ctx, "Сначала зарегистрируйтесь: отправьте /start боту в личном чате.")
			case errors.Is(err, core.ErrInsufficientRights):
				r.replyOrLog(ctx, "Недостаточно прав для этой команды.")
			default:
				r.replyOrLog(ctx, "Не удалось проверить права, попробуйте позже.")
			}
			return
		}
	}

	if err := cmd.Handler(ctx); err != nil {
		r.logger.Error("command handler failed",
			zap.String("command", name),
			zap.Int64("chat_id", msg.ChatID),
			zap.Error(err))
		r.replyOrLog(ctx, "Произошла ошибка при выполнении команды.")
	}
}

// replyOrLog — ответ пользователю, неудача которого не критична.
func (r *Router) replyOrLog(ctx *core.MessageContext, text string) {
	if err := ctx.Reply(text); err != nil {
		r.logger.Warn("failed to send reply", zap.Error(err))
	}
}
