package repositories

import (
	"database/sql"
	"fmt"

	"github.com/flybasist/moai/internal/core"
)

// UserRepository управляет таблицей users — по ней работает PermissionGate.
// Русский комментарий: Запись создаётся при первом /start в личном чате с ролью
// base. Повышение роли — только командой /setrole от актора со строго большей
// ролью, это проверяет вызывающий код.
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository создаёт новый инстанс репозитория пользователей.
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// UserRecord — строка таблицы users.
type UserRecord struct {
	UserID    int64
	Username  string
	FirstName string
	Role      core.Role
}

// GetOrCreate регистрирует пользователя с ролью base или обновляет имя существующего.
// Роль при повторном вызове не трогаем.
func (r *UserRepository) GetOrCreate(userID int64, username, firstName string) error {
	query := `
		INSERT INTO users (user_id, username, first_name, role)
		VALUES ($1, $2, $3, 0)
		ON CONFLICT (user_id) DO UPDATE
		SET
			username = EXCLUDED.username,
			first_name = EXCLUDED.first_name,
			updated_at = NOW()
	`
	if _, err := r.db.Exec(query, userID, username, firstName); err != nil {
		return fmt.Errorf("failed to get or create user: %w", err)
	}
	return nil
}

// RoleOf возвращает роль пользователя. found == false — записи нет.
// Реализует core.RoleLookup.
func (r *UserRepository) RoleOf(userID int64) (core.Role, bool, error) {
	var role int
	err := r.db.QueryRow(`SELECT role FROM users WHERE user_id = $1`, userID).Scan(&role)
	if err == sql.ErrNoRows {
		return core.RoleBase, false, nil
	}
	if err != nil {
		return core.RoleBase, false, fmt.Errorf("failed to get user role: %w", err)
	}
	return core.Role(role), true, nil
}

// Get возвращает запись пользователя целиком.
func (r *UserRepository) Get(userID int64) (UserRecord, bool, error) {
	var rec UserRecord
	err := r.db.QueryRow(`
		SELECT user_id, username, first_name, role FROM users WHERE user_id = $1
	`, userID).Scan(&rec.UserID, &rec.Username, &rec.FirstName, &rec.Role)
	if err == sql.ErrNoRows {
		return rec, false, nil
	}
	if err != nil {
		return rec, false, fmt.Errorf("failed to get user: %w", err)
	}
	return rec, true, nil
}

// SetRole обновляет роль пользователя.
func (r *UserRepository) SetRole(userID int64, role core.Role) error {
	result, err := r.db.Exec(`
		UPDATE users SET role = $2, updated_at = NOW() WHERE user_id = $1
	`, userID, int(role))
	if err != nil {
		return fmt.Errorf("failed to set user role: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to set user role: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// List возвращает всех пользователей, отсортированных по убыванию роли.
func (r *UserRepository) List() ([]UserRecord, error) {
	rows, err := r.db.Query(`
		SELECT user_id, username, first_name, role
		FROM users
		ORDER BY role DESC, user_id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []UserRecord
	for rows.Next() {
		var rec UserRecord
		if err := rows.Scan(&rec.UserID, &rec.Username, &rec.FirstName, &rec.Role); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, rec)
	}
	return users, rows.Err()
}
