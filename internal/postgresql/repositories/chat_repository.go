package repositories

import (
	"database/sql"
	"fmt"
)

// ChatRepository управляет операциями с таблицей chats.
// Русский комментарий: Чат регистрируется при первом сообщении из него.
// Игнорируемые чаты сюда никогда не попадают — роутер отсекает их раньше.
type ChatRepository struct {
	db *sql.DB
}

// NewChatRepository создаёт новый инстанс репозитория чатов.
func NewChatRepository(db *sql.DB) *ChatRepository {
	return &ChatRepository{db: db}
}

// GetOrCreate получает существующий чат или создаёт новую запись.
func (r *ChatRepository) GetOrCreate(chatID int64, chatType, title string) error {
	query := `
		INSERT INTO chats (chat_id, chat_type, title, is_active)
		VALUES ($1, $2, $3, true)
		ON CONFLICT (chat_id) DO UPDATE
		SET
			chat_type = EXCLUDED.chat_type,
			title = EXCLUDED.title,
			is_active = true,
			updated_at = NOW()
	`
	if _, err := r.db.Exec(query, chatID, chatType, title); err != nil {
		return fmt.Errorf("failed to get or create chat: %w", err)
	}
	return nil
}

// Deactivate помечает чат неактивным (бота удалили из группы или заблокировали).
func (r *ChatRepository) Deactivate(chatID int64) error {
	query := `UPDATE chats SET is_active = false, updated_at = NOW() WHERE chat_id = $1`
	if _, err := r.db.Exec(query, chatID); err != nil {
		return fmt.Errorf("failed to deactivate chat: %w", err)
	}
	return nil
}
