package banwords

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/flybasist/moai/internal/core"
	"github.com/flybasist/moai/internal/postgresql/repositories"
)

// cacheTTL — как долго живёт загруженный список банвордов.
// Список можно править командами или руками в базе, бот подхватит изменения
// без рестарта.
const cacheTTL = 5 * time.Minute

// Module — фильтр запрещённых слов.
// Русский комментарий: Обычные (непересланные) сообщения в группах прогоняются
// по упорядоченному списку регулярок. Побеждает первое совпадение — приоритет
// задаёт тот, кто ведёт список. Регистр не учитывается.
type Module struct {
	repo   *repositories.BanwordRepository
	logger *zap.Logger

	mu       sync.Mutex
	cache    []compiledBanword
	lastLoad time.Time
}

type compiledBanword struct {
	re       *regexp.Regexp
	response string
}

// New создаёт модуль банвордов.
func New(repo *repositories.BanwordRepository, logger *zap.Logger) *Module {
	return &Module{repo: repo, logger: logger}
}

// Name возвращает имя модуля.
func (m *Module) Name() string {
	return "banwords"
}

// OnMessage сканирует текст группового сообщения.
func (m *Module) OnMessage(ctx *core.MessageContext) error {
	msg := ctx.Message
	if msg.Forwarded || msg.Text == "" || msg.IsCommand() {
		return nil
	}

	response, ok := m.Check(msg.Text)
	if !ok {
		return nil
	}

	m.logger.Info("banword matched",
		zap.Int64("chat_id", msg.ChatID),
		zap.Int64("user_id", msg.UserID))
	ctx.LogEvent(m.Name(), "banword_matched", "")

	return ctx.Reply(response)
}

// Check возвращает ответ первого совпавшего паттерна.
func (m *Module) Check(text string) (string, bool) {
	for _, bw := range m.load() {
		if bw.re.MatchString(text) {
			return bw.response, true
		}
	}
	return "", false
}

// load возвращает скомпилированный список, перечитывая базу по истечении TTL.
func (m *Module) load() []compiledBanword {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cache != nil && time.Since(m.lastLoad) < cacheTTL {
		return m.cache
	}

	words, err := m.repo.Load()
	if err != nil {
		m.logger.Error("failed to load banwords", zap.Error(err))
		// Работаем на устаревшем кеше, если он есть.
		return m.cache
	}

	compiled := make([]compiledBanword, 0, len(words))
	for _, w := range words {
		re, err := regexp.Compile("(?is)" + w.Pattern)
		if err != nil {
			m.logger.Warn("invalid banword pattern, skipping",
				zap.Int("position", w.Position),
				zap.String("pattern", w.Pattern),
				zap.Error(err))
			continue
		}
		compiled = append(compiled, compiledBanword{re: re, response: w.Response})
	}

	m.cache = compiled
	m.lastLoad = time.Now()
	return m.cache
}

// invalidate сбрасывает кеш после мутации списка.
func (m *Module) invalidate() {
	m.mu.Lock()
	m.cache = nil
	m.mu.Unlock()
}

// Commands возвращает команды модуля.
func (m *Module) Commands() []core.BotCommand {
	return []core.BotCommand{
		{Command: "addban", Description: "Добавить запрещённое слово", MinRole: core.RoleModerator, Handler: m.handleAdd},
		{Command: "listbans", Description: "Список запрещённых слов", MinRole: core.RoleModerator, Handler: m.handleList},
		{Command: "removeban", Description: "Удалить запрещённое слово по номеру", MinRole: core.RoleModerator, Handler: m.handleRemove},
	}
}

func (m *Module) handleAdd(ctx *core.MessageContext) error {
	args := strings.SplitN(ctx.Message.Text, " ", 3)
	if len(args) < 3 {
		return ctx.Reply("Использование: /addban <паттерн> <ответ>\nПример: /addban спам Не спамьте!")
	}
	pattern := args[1]
	response := args[2]

	if _, err := regexp.Compile("(?is)" + pattern); err != nil {
		return ctx.Reply(fmt.Sprintf("Некорректное регулярное выражение: %v", err))
	}

	position, err := m.repo.Add(pattern, response)
	if err != nil {
		m.logger.Error("failed to add banword", zap.Error(err))
		return ctx.Reply("Не удалось добавить запрещённое слово.")
	}
	m.invalidate()

	ctx.LogEvent(m.Name(), "banword_added", fmt.Sprintf("position=%d", position))
	return ctx.Reply(fmt.Sprintf("Запрещённое слово добавлено под номером %d.", position))
}

func (m *Module) handleList(ctx *core.MessageContext) error {
	words, err := m.repo.Load()
	if err != nil {
		m.logger.Error("failed to list banwords", zap.Error(err))
		return ctx.Reply("Не удалось получить список.")
	}
	if len(words) == 0 {
		return ctx.Reply("Список запрещённых слов пуст.")
	}

	var sb strings.Builder
	sb.WriteString("Запрещённые слова:\n")
	for _, w := range words {
		sb.WriteString(fmt.Sprintf("%d. %s -> %s\n", w.Position, w.Pattern, w.Response))
	}
	return ctx.Reply(strings.TrimRight(sb.String(), "\n"))
}

func (m *Module) handleRemove(ctx *core.MessageContext) error {
	args := ctx.Message.CommandArgs()
	if len(args) != 1 {
		return ctx.Reply("Использование: /removeban <номер>")
	}
	position, err := strconv.Atoi(args[0])
	if err != nil || position < 1 {
		return ctx.Reply("Номер должен быть положительным числом.")
	}

	if err := m.repo.Delete(position); err != nil {
		m.logger.Warn("failed to remove banword",
			zap.Int("position", position),
			zap.Error(err))
		return ctx.Reply(fmt.Sprintf("Запись с номером %d не найдена.", position))
	}
	m.invalidate()

	ctx.LogEvent(m.Name(), "banword_removed", fmt.Sprintf("position=%d", position))
	return ctx.Reply(fmt.Sprintf("Запрещённое слово %d удалено.", position))
}
