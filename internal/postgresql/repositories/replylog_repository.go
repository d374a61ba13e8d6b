package repositories

import (
	"database/sql"
	"fmt"
	"time"
)

// ReplyLogRepository хранит соответствие «сообщение в лог-чате → исходное личное
// сообщение».
// Русский комментарий: Когда бот зеркалирует личное сообщение в лог-чат, сюда
// пишется связка id. Ответ разработчика в лог-чате находит по ней исходный чат.
// Записи старше 24 часов вычищаются планировщиком.
type ReplyLogRepository struct {
	db *sql.DB
}

// NewReplyLogRepository создаёт новый инстанс репозитория reply-лога.
func NewReplyLogRepository(db *sql.DB) *ReplyLogRepository {
	return &ReplyLogRepository{db: db}
}

// Insert записывает связку id зеркального сообщения с источником.
func (r *ReplyLogRepository) Insert(loggerMessageID int, sourceChatID int64, sourceMessageID int) error {
	_, err := r.db.Exec(`
		INSERT INTO reply_log (logger_message_id, source_chat_id, source_message_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (logger_message_id) DO NOTHING
	`, loggerMessageID, sourceChatID, sourceMessageID)
	if err != nil {
		return fmt.Errorf("failed to insert reply log entry: %w", err)
	}
	return nil
}

// Lookup находит источник по id зеркального сообщения. found == false — записи нет
// (не было или уже вычищена).
func (r *ReplyLogRepository) Lookup(loggerMessageID int) (sourceChatID int64, sourceMessageID int, found bool, err error) {
	err = r.db.QueryRow(`
		SELECT source_chat_id, source_message_id FROM reply_log WHERE logger_message_id = $1
	`, loggerMessageID).Scan(&sourceChatID, &sourceMessageID)
	if err == sql.ErrNoRows {
		return 0, 0, false, nil
	}
	if err != nil {
		return 0, 0, false, fmt.Errorf("failed to lookup reply log entry: %w", err)
	}
	return sourceChatID, sourceMessageID, true, nil
}

// Prune удаляет записи старше maxAge и возвращает число удалённых.
func (r *ReplyLogRepository) Prune(maxAge time.Duration) (int64, error) {
	result, err := r.db.Exec(`
		DELETE FROM reply_log WHERE created_at < NOW() - $1::interval
	`, fmt.Sprintf("%d seconds", int(maxAge.Seconds())))
	if err != nil {
		return 0, fmt.Errorf("failed to prune reply log: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to prune reply log: %w", err)
	}
	return rows, nil
}
