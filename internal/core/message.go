package core

import (
	"strings"
	"time"
)

// ChatType — тип чата, как его присылает Telegram.
type ChatType string

const (
	ChatPrivate    ChatType = "private"
	ChatGroup      ChatType = "group"
	ChatSupergroup ChatType = "supergroup"
)

// IsGroup возвращает true для групп и супергрупп.
func (t ChatType) IsGroup() bool {
	return t == ChatGroup || t == ChatSupergroup
}

// Message — входящее сообщение, приведённое к внутреннему виду.
// Русский комментарий: Транспорт (telego) конвертирует update в эту структуру,
// дальше весь бот работает только с ней. Поля неизменяемы после конвертации.
type Message struct {
	ChatID    int64
	ChatType  ChatType
	ChatTitle string

	MessageID int
	UserID    int64
	Username  string
	FirstName string

	Text    string
	Caption string

	// Forwarded выставляется, если сообщение переслано из канала или другого чата.
	Forwarded bool
	// MediaGroupID связывает несколько сообщений одного альбома. Пустая строка —
	// одиночное сообщение.
	MediaGroupID string

	HasPhoto    bool
	HasVideo    bool
	HasDocument bool
	HasAudio    bool

	// ReplyToID — id сообщения, на которое отвечают (0, если это не reply).
	ReplyToID int

	Time time.Time
}

// HasMedia возвращает true, если сообщение несёт вложение любого типа.
func (m Message) HasMedia() bool {
	return m.HasPhoto || m.HasVideo || m.HasDocument || m.HasAudio
}

// IsCommand проверяет, является ли сообщение командой бота.
func (m Message) IsCommand() bool {
	return strings.HasPrefix(m.Text, "/")
}

// Command возвращает имя команды без слеша и без @botname суффикса.
func (m Message) Command() string {
	if !m.IsCommand() {
		return ""
	}
	name := strings.Fields(m.Text)[0]
	name = strings.TrimPrefix(name, "/")
	if i := strings.Index(name, "@"); i >= 0 {
		name = name[:i]
	}
	return name
}

// CommandArgs возвращает аргументы команды (всё после имени команды).
func (m Message) CommandArgs() []string {
	fields := strings.Fields(m.Text)
	if len(fields) < 2 {
		return nil
	}
	return fields[1:]
}

// CommandPayload возвращает хвост команды одной строкой (для текстовых аргументов).
func (m Message) CommandPayload() string {
	_, payload, found := strings.Cut(m.Text, " ")
	if !found {
		return ""
	}
	return strings.TrimSpace(payload)
}

// Sender — исходящие вызовы к Telegram.
// Русский комментарий: Интерфейс, чтобы модули не зависели от конкретного
// клиента и тестировались на фейках. Реализация — internal/telegram.
type Sender interface {
	// SendMessage отправляет текст в чат. replyTo == 0 означает сообщение без reply.
	// Возвращает id отправленного сообщения.
	SendMessage(chatID int64, text string, replyTo int) (int, error)

	// SetReaction ставит эмодзи-реакцию на сообщение.
	SetReaction(chatID int64, messageID int, emoji string) error
}
