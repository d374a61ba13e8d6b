// Package migrations обеспечивает автоматическое создание и валидацию схемы БД
// при запуске приложения. Гарантирует совместимость схемы или останавливает запуск.
package migrations

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	"go.uber.org/zap"
)

//go:embed 001_initial_schema.sql
var initialSchema string

// ExpectedTable описывает ожидаемую структуру таблицы для валидации.
type ExpectedTable struct {
	Name    string
	Columns []string // Список обязательных колонок
}

// ExpectedSchema содержит описание всех таблиц, которые должны существовать.
// Русский комментарий: В режиме горячей разработки мы всегда используем только
// 001_initial_schema.sql и вайпаем базу при изменениях структуры.
var ExpectedSchema = []ExpectedTable{
	{Name: "chats", Columns: []string{"chat_id", "chat_type", "title", "is_active"}},
	{Name: "users", Columns: []string{"user_id", "username", "first_name", "role"}},
	{Name: "comments", Columns: []string{"id", "pool", "position", "template"}},
	{Name: "banwords", Columns: []string{"id", "position", "pattern", "response", "is_active"}},
	{Name: "reply_log", Columns: []string{"logger_message_id", "source_chat_id", "source_message_id", "created_at"}},
	{Name: "event_log", Columns: []string{"id", "chat_id", "user_id", "module_name", "event_type"}},
}

// SchemaState представляет состояние схемы БД.
type SchemaState int

const (
	SchemaEmpty    SchemaState = iota // Таблиц нет
	SchemaComplete                    // Все таблицы есть
	SchemaPartial                     // Некоторые таблицы есть
)

// RunMigrationsIfNeeded проверяет схему БД и выполняет миграции если требуется.
// Русский комментарий: Вызывается при старте бота сразу после подключения к
// PostgreSQL. Частично созданная схема — признак сломанной миграции, база
// требует ручного вмешательства.
func RunMigrationsIfNeeded(db *sql.DB, logger *zap.Logger) error {
	logger.Info("starting database schema validation and migrations")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	existingTables, err := getExistingTables(ctx, db)
	if err != nil {
		return fmt.Errorf("failed to get existing tables: %w", err)
	}
	logger.Info("found existing tables", zap.Int("count", len(existingTables)), zap.Strings("tables", existingTables))

	switch analyzeSchemaState(existingTables) {
	case SchemaEmpty:
		logger.Info("database schema is empty, running initial migration")
		if _, err := db.ExecContext(ctx, initialSchema); err != nil {
			return fmt.Errorf("initial migration failed: %w", err)
		}
		logger.Info("initial migration applied successfully")
		return nil

	case SchemaComplete:
		logger.Info("database schema is complete, validating structure")
		return validateExistingSchema(ctx, db, logger)

	default:
		return fmt.Errorf("database schema is partially created - this indicates corrupted migration state. "+
			"Expected tables: %v, found: %v. Please DROP DATABASE and recreate",
			expectedTableNames(), existingTables)
	}
}

// getExistingTables возвращает список существующих таблиц.
func getExistingTables(ctx context.Context, db *sql.DB) ([]string, error) {
	query := `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = 'public'
		AND table_type = 'BASE TABLE'
		ORDER BY table_name`

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var tableName string
		if err := rows.Scan(&tableName); err != nil {
			return nil, err
		}
		tables = append(tables, tableName)
	}
	return tables, rows.Err()
}

// analyzeSchemaState анализирует состояние схемы по списку существующих таблиц.
func analyzeSchemaState(existingTables []string) SchemaState {
	existing := make(map[string]bool, len(existingTables))
	for _, table := range existingTables {
		existing[table] = true
	}

	found := 0
	for _, name := range expectedTableNames() {
		if existing[name] {
			found++
		}
	}

	switch {
	case found == 0:
		return SchemaEmpty
	case found == len(ExpectedSchema):
		return SchemaComplete
	default:
		return SchemaPartial
	}
}

// validateExistingSchema сверяет обязательные колонки каждой таблицы.
func validateExistingSchema(ctx context.Context, db *sql.DB, logger *zap.Logger) error {
	for _, table := range ExpectedSchema {
		columns, err := getTableColumns(ctx, db, table.Name)
		if err != nil {
			return fmt.Errorf("failed to get columns of %s: %w", table.Name, err)
		}
		existing := make(map[string]bool, len(columns))
		for _, col := range columns {
			existing[col] = true
		}
		for _, required := range table.Columns {
			if !existing[required] {
				return fmt.Errorf("table %s is missing required column %s - schema is incompatible, "+
					"please DROP DATABASE and recreate", table.Name, required)
			}
		}
	}
	logger.Info("database schema validated successfully")
	return nil
}

// getTableColumns возвращает имена колонок таблицы.
func getTableColumns(ctx context.Context, db *sql.DB, tableName string) ([]string, error) {
	query := `
		SELECT column_name
		FROM information_schema.columns
		WHERE table_schema = 'public' AND table_name = $1`

	rows, err := db.QueryContext(ctx, query, tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		columns = append(columns, name)
	}
	return columns, rows.Err()
}

func expectedTableNames() []string {
	names := make([]string, 0, len(ExpectedSchema))
	for _, table := range ExpectedSchema {
		names = append(names, table.Name)
	}
	return names
}
