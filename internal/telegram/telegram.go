package telegram

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mymmrac/telego"
	"github.com/mymmrac/telego/telegoapi"
	tu "github.com/mymmrac/telego/telegoutil"
	"go.uber.org/zap"

	"github.com/flybasist/moai/internal/core"
)

// Client — адаптер Telegram Bot API поверх telego.
// Русский комментарий: Единственное место, где бот знает про telego. Входящие
// update конвертируются в core.Message, исходящие вызовы реализуют core.Sender.
// Ответ 429 превращается в core.RetryAfterError — по нему работает retry-логика
// диспетчера реакций.
type Client struct {
	bot    *telego.Bot
	logger *zap.Logger
}

// NewClient создаёт клиента и проверяет токен запросом getMe.
func NewClient(token string, logger *zap.Logger) (*Client, error) {
	bot, err := telego.NewBot(token, telego.WithDiscardLogger())
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	me, err := bot.GetMe()
	if err != nil {
		return nil, fmt.Errorf("failed to get bot identity: %w", err)
	}
	logger.Info("telegram bot authorized",
		zap.Int64("bot_id", me.ID),
		zap.String("bot_username", me.Username))

	return &Client{bot: bot, logger: logger}, nil
}

// SendMessage отправляет текст в чат. Реализует core.Sender.
func (c *Client) SendMessage(chatID int64, text string, replyTo int) (int, error) {
	params := &telego.SendMessageParams{
		ChatID: tu.ID(chatID),
		Text:   text,
	}
	if replyTo != 0 {
		params.ReplyParameters = &telego.ReplyParameters{MessageID: replyTo}
	}

	msg, err := c.bot.SendMessage(params)
	if err != nil {
		return 0, wrapAPIError("sendMessage", err)
	}
	return msg.MessageID, nil
}

// SetReaction ставит эмодзи-реакцию на сообщение. Реализует core.Sender.
func (c *Client) SetReaction(chatID int64, messageID int, emoji string) error {
	err := c.bot.SetMessageReaction(&telego.SetMessageReactionParams{
		ChatID:    tu.ID(chatID),
		MessageID: messageID,
		Reaction: []telego.ReactionType{
			&telego.ReactionTypeEmoji{Type: telego.ReactionEmoji, Emoji: emoji},
		},
	})
	if err != nil {
		return wrapAPIError("setMessageReaction", err)
	}
	return nil
}

// Listen запускает long polling и передаёт каждое сообщение в handle.
// Каждое сообщение обрабатывается в своей горутине — пауза классификации
// альбома или ожидание retry_after не задерживают другие чаты.
func (c *Client) Listen(ctx context.Context, handle func(core.Message)) error {
	updates, err := c.bot.UpdatesViaLongPolling(nil)
	if err != nil {
		return fmt.Errorf("failed to start long polling: %w", err)
	}
	c.logger.Info("long polling started")

	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil {
				continue
			}
			msg := convertMessage(*update.Message)
			go handle(msg)
		}
	}
}

// Stop останавливает long polling.
func (c *Client) Stop() {
	c.bot.StopLongPolling()
}

// convertMessage приводит telego.Message к внутреннему виду.
func convertMessage(m telego.Message) core.Message {
	msg := core.Message{
		ChatID:       m.Chat.ID,
		ChatType:     core.ChatType(m.Chat.Type),
		ChatTitle:    m.Chat.Title,
		MessageID:    m.MessageID,
		Text:         m.Text,
		Caption:      m.Caption,
		Forwarded:    m.ForwardOrigin != nil,
		MediaGroupID: m.MediaGroupID,
		HasPhoto:     len(m.Photo) > 0,
		HasVideo:     m.Video != nil,
		HasDocument:  m.Document != nil,
		HasAudio:     m.Audio != nil,
		Time:         time.Unix(m.Date, 0),
	}
	if m.From != nil {
		msg.UserID = m.From.ID
		msg.Username = m.From.Username
		msg.FirstName = m.From.FirstName
	}
	if m.ReplyToMessage != nil {
		msg.ReplyToID = m.ReplyToMessage.MessageID
	}
	return msg
}

// wrapAPIError вытаскивает retry_after из ошибки Telegram API.
func wrapAPIError(op string, err error) error {
	var apiErr *telegoapi.Error
	if errors.As(err, &apiErr) && apiErr.Parameters != nil && apiErr.Parameters.RetryAfter > 0 {
		return fmt.Errorf("%s: %w", op, &core.RetryAfterError{
			After: time.Duration(apiErr.Parameters.RetryAfter) * time.Second,
		})
	}
	return fmt.Errorf("%s: %w", op, err)
}
