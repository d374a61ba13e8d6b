package comments

import (
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/flybasist/moai/internal/core"
	"github.com/flybasist/moai/internal/postgresql/repositories"
)

// Module — пулы комментариев и команды их редактирования.
// Русский комментарий: В памяти живёт Selector, каждая мутация сперва
// записывается в PostgreSQL и только после успеха применяется к памяти.
// Поэтому после рестарта пулы совпадают с тем, что видели модераторы.
type Module struct {
	selector *Selector
	repo     *repositories.CommentRepository
	logger   *zap.Logger
}

// New загружает пулы из базы и создаёт модуль.
func New(repo *repositories.CommentRepository, gens Generators, logger *zap.Logger) (*Module, error) {
	text, err := repo.LoadPool(repositories.PoolText)
	if err != nil {
		return nil, fmt.Errorf("failed to load text pool: %w", err)
	}
	photo, err := repo.LoadPool(repositories.PoolPhoto)
	if err != nil {
		return nil, fmt.Errorf("failed to load photo pool: %w", err)
	}

	logger.Info("comment pools loaded",
		zap.Int("text_templates", len(text)),
		zap.Int("photo_templates", len(photo)))

	return &Module{
		selector: NewSelector(text, photo, gens),
		repo:     repo,
		logger:   logger,
	}, nil
}

// Name возвращает имя модуля.
func (m *Module) Name() string {
	return "comments"
}

// Selector отдаёт селектор для модуля forwards.
func (m *Module) Selector() *Selector {
	return m.selector
}

// OnMessage — модуль не обрабатывает обычные сообщения, только команды.
func (m *Module) OnMessage(ctx *core.MessageContext) error {
	return nil
}

// Commands возвращает команды модуля.
func (m *Module) Commands() []core.BotCommand {
	return []core.BotCommand{
		{Command: "addcomment", Description: "Добавить текстовый комментарий", MinRole: core.RoleModerator, Handler: m.handleAdd(false)},
		{Command: "addphoto", Description: "Добавить фото-комментарий", MinRole: core.RoleModerator, Handler: m.handleAdd(true)},
		{Command: "delcomment", Description: "Удалить текстовый комментарий по номеру", MinRole: core.RoleModerator, Handler: m.handleDelete(false)},
		{Command: "delphoto", Description: "Удалить фото-комментарий по номеру", MinRole: core.RoleModerator, Handler: m.handleDelete(true)},
		{Command: "listcomments", Description: "Показать оба пула комментариев", MinRole: core.RoleModerator, Handler: m.handleList},
	}
}

// FormatPools возвращает листинг обоих пулов в стиле ответа на /start:
// по строке "-- шаблон" на запись, пулы разделены линией PHOTO.
func (m *Module) FormatPools() string {
	var sb strings.Builder
	for _, tpl := range m.selector.Templates(false) {
		sb.WriteString("-- ")
		sb.WriteString(tpl)
		sb.WriteString("\n")
	}
	sb.WriteString(centerLine("PHOTO", 60))
	sb.WriteString("\n")
	for _, tpl := range m.selector.Templates(true) {
		sb.WriteString("-- ")
		sb.WriteString(tpl)
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

// centerLine центрирует текст в строке из '=' заданной ширины.
func centerLine(text string, width int) string {
	if len(text) >= width {
		return text
	}
	left := (width - len(text)) / 2
	right := width - len(text) - left
	return strings.Repeat("=", left) + text + strings.Repeat("=", right)
}

func poolName(photo bool) string {
	if photo {
		return repositories.PoolPhoto
	}
	return repositories.PoolText
}

func (m *Module) handleAdd(photo bool) func(*core.MessageContext) error {
	return func(ctx *core.MessageContext) error {
		template := ctx.Message.CommandPayload()
		if template == "" {
			return ctx.Reply(fmt.Sprintf("Использование: /%s <текст шаблона>", ctx.Message.Command()))
		}

		position, err := m.repo.Add(poolName(photo), template)
		if err != nil {
			m.logger.Error("failed to persist comment template", zap.Error(err))
			return ctx.Reply("Не удалось сохранить комментарий.")
		}
		m.selector.AddTemplate(photo, template)

		ctx.LogEvent(m.Name(), "comment_added", fmt.Sprintf("pool=%s position=%d", poolName(photo), position))
		return ctx.Reply(fmt.Sprintf("Комментарий добавлен под номером %d.", position))
	}
}

func (m *Module) handleDelete(photo bool) func(*core.MessageContext) error {
	return func(ctx *core.MessageContext) error {
		args := ctx.Message.CommandArgs()
		if len(args) != 1 {
			return ctx.Reply(fmt.Sprintf("Использование: /%s <номер>", ctx.Message.Command()))
		}
		position, err := strconv.Atoi(args[0])
		if err != nil || position < 1 {
			return ctx.Reply("Номер должен быть положительным числом.")
		}

		// Сначала валидируем номер против памяти, потом удаляем из базы. Порядок
		// важен: неуспешная запись в базу не должна оставлять память изменённой.
		pool := m.selector.Templates(photo)
		if position > len(pool) {
			return ctx.Reply(fmt.Sprintf("Нет комментария с номером %d, в пуле %d записей.", position, len(pool)))
		}

		if err := m.repo.Delete(poolName(photo), position); err != nil {
			m.logger.Error("failed to delete comment template", zap.Error(err))
			return ctx.Reply("Не удалось удалить комментарий.")
		}
		removed, err := m.selector.DeleteTemplate(photo, position)
		if err != nil {
			m.logger.Error("comment pool desync between db and memory", zap.Error(err))
			return ctx.Reply("Не удалось удалить комментарий.")
		}

		ctx.LogEvent(m.Name(), "comment_deleted", fmt.Sprintf("pool=%s position=%d", poolName(photo), position))
		return ctx.Reply(fmt.Sprintf("Удалён комментарий %d: %s", position, removed))
	}
}

func (m *Module) handleList(ctx *core.MessageContext) error {
	var sb strings.Builder
	sb.WriteString("Текстовые комментарии:\n")
	for i, tpl := range m.selector.Templates(false) {
		sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, tpl))
	}
	sb.WriteString("\nФото-комментарии:\n")
	for i, tpl := range m.selector.Templates(true) {
		sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, tpl))
	}
	return ctx.Reply(strings.TrimRight(sb.String(), "\n"))
}
