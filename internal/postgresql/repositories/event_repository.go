package repositories

import (
	"database/sql"
	"fmt"
)

// EventRepository пишет события модулей в таблицу event_log.
// Русский комментарий: Все действия модулей (обработан форвард, сработал банворд,
// выдана роль и т.д.) записываются для последующего анализа. По этим данным
// работает /stats.
type EventRepository struct {
	db *sql.DB
}

// NewEventRepository создаёт новый инстанс репозитория событий.
func NewEventRepository(db *sql.DB) *EventRepository {
	return &EventRepository{db: db}
}

// Log записывает одно событие. Реализует core.EventLogger.
func (r *EventRepository) Log(chatID, userID int64, moduleName, eventType, details string) error {
	query := `
		INSERT INTO event_log (chat_id, user_id, module_name, event_type, details)
		VALUES ($1, $2, $3, $4, $5)
	`
	if _, err := r.db.Exec(query, chatID, userID, moduleName, eventType, details); err != nil {
		return fmt.Errorf("failed to log event: %w", err)
	}
	return nil
}

// CountByType возвращает число событий заданного типа в чате.
func (r *EventRepository) CountByType(chatID int64, eventType string) (int64, error) {
	var count int64
	err := r.db.QueryRow(`
		SELECT COUNT(*) FROM event_log WHERE chat_id = $1 AND event_type = $2
	`, chatID, eventType).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count events: %w", err)
	}
	return count, nil
}
