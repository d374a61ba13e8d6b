package repositories

import (
	"database/sql"
	"fmt"
)

// Banword — одна запись запрещённого слова.
// Русский комментарий: Pattern — регулярное выражение, Response — ответ бота.
// Порядок записей задаёт приоритет: срабатывает первое совпадение.
type Banword struct {
	Position int
	Pattern  string
	Response string
}

// BanwordRepository хранит упорядоченный список запрещённых слов.
type BanwordRepository struct {
	db *sql.DB
}

// NewBanwordRepository создаёт новый инстанс репозитория запрещённых слов.
func NewBanwordRepository(db *sql.DB) *BanwordRepository {
	return &BanwordRepository{db: db}
}

// Load возвращает активные записи в порядке приоритета.
func (r *BanwordRepository) Load() ([]Banword, error) {
	rows, err := r.db.Query(`
		SELECT position, pattern, response
		FROM banwords
		WHERE is_active = true
		ORDER BY position
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to load banwords: %w", err)
	}
	defer rows.Close()

	var words []Banword
	for rows.Next() {
		var w Banword
		if err := rows.Scan(&w.Position, &w.Pattern, &w.Response); err != nil {
			return nil, fmt.Errorf("failed to scan banword: %w", err)
		}
		words = append(words, w)
	}
	return words, rows.Err()
}

// Add добавляет запись в конец списка и возвращает её позицию.
func (r *BanwordRepository) Add(pattern, response string) (int, error) {
	var position int
	err := r.db.QueryRow(`
		INSERT INTO banwords (position, pattern, response, is_active)
		VALUES ((SELECT COALESCE(MAX(position), 0) + 1 FROM banwords), $1, $2, true)
		RETURNING position
	`, pattern, response).Scan(&position)
	if err != nil {
		return 0, fmt.Errorf("failed to add banword: %w", err)
	}
	return position, nil
}

// Delete удаляет запись по позиции и сдвигает последующие позиции вниз.
func (r *BanwordRepository) Delete(position int) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(`DELETE FROM banwords WHERE position = $1`, position)
	if err != nil {
		return fmt.Errorf("failed to delete banword: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete banword: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}

	if _, err := tx.Exec(`UPDATE banwords SET position = position - 1 WHERE position > $1`, position); err != nil {
		return fmt.Errorf("failed to resequence banwords: %w", err)
	}

	return tx.Commit()
}
