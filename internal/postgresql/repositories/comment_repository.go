package repositories

import (
	"database/sql"
	"fmt"
)

// Имена пулов комментариев. Соответствуют CHECK-ограничению таблицы comments.
const (
	PoolText  = "text"
	PoolPhoto = "photo"
)

// CommentRepository хранит пулы шаблонов комментариев.
// Русский комментарий: Два упорядоченных списка (text и photo) с 1-based
// позициями. Каждая мутация пишется в базу сразу — пулы переживают рестарт.
// Порядок важен: индексы в командах /delcomment ссылаются на позиции.
type CommentRepository struct {
	db *sql.DB
}

// NewCommentRepository создаёт новый инстанс репозитория комментариев.
func NewCommentRepository(db *sql.DB) *CommentRepository {
	return &CommentRepository{db: db}
}

// LoadPool загружает пул в порядке позиций.
func (r *CommentRepository) LoadPool(pool string) ([]string, error) {
	rows, err := r.db.Query(`
		SELECT template FROM comments WHERE pool = $1 ORDER BY position
	`, pool)
	if err != nil {
		return nil, fmt.Errorf("failed to load comment pool %s: %w", pool, err)
	}
	defer rows.Close()

	var templates []string
	for rows.Next() {
		var tpl string
		if err := rows.Scan(&tpl); err != nil {
			return nil, fmt.Errorf("failed to scan comment template: %w", err)
		}
		templates = append(templates, tpl)
	}
	return templates, rows.Err()
}

// Add добавляет шаблон в конец пула и возвращает его 1-based позицию.
func (r *CommentRepository) Add(pool, template string) (int, error) {
	var position int
	err := r.db.QueryRow(`
		INSERT INTO comments (pool, position, template)
		VALUES ($1, (SELECT COALESCE(MAX(position), 0) + 1 FROM comments WHERE pool = $1), $2)
		RETURNING position
	`, pool, template).Scan(&position)
	if err != nil {
		return 0, fmt.Errorf("failed to add comment template: %w", err)
	}
	return position, nil
}

// Delete удаляет шаблон по 1-based позиции и сдвигает последующие позиции вниз.
// Русский комментарий: Удаление и сдвиг в одной транзакции, иначе при сбое
// между ними пул получит дыру в нумерации.
func (r *CommentRepository) Delete(pool string, position int) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(`
		DELETE FROM comments WHERE pool = $1 AND position = $2
	`, pool, position)
	if err != nil {
		return fmt.Errorf("failed to delete comment template: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete comment template: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}

	_, err = tx.Exec(`
		UPDATE comments SET position = position - 1 WHERE pool = $1 AND position > $2
	`, pool, position)
	if err != nil {
		return fmt.Errorf("failed to resequence comment pool: %w", err)
	}

	return tx.Commit()
}
