package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config — централизованная структура настроек сервиса.
// Русский комментарий: Все переменные окружения собираются один раз при старте.
// Это упрощает тестирование и делает код чище — далее мы работаем только с этой
// структурой. Логирование всегда на английском для единообразия операционных
// сообщений.

type Config struct {
	TelegramBotToken string        // Токен Telegram бота
	PostgresDSN      string        // Строка подключения к PostgreSQL
	KafkaBrokers     []string      // Адреса Kafka брокеров (пусто — зеркалирование выключено)
	KafkaTopic       string        // Топик для зеркала входящих событий
	LogLevel         string        // Уровень логирования (debug, info, warn, error)
	LogPretty        bool          // Человекочитаемый вывод логов
	ShutdownTimeout  time.Duration // Таймаут graceful shutdown

	LogChatID    int64   // Чат для зеркалирования личных сообщений (0 — выключено)
	IgnoredChats []int64 // Чаты, которым бот отвечает отказом

	ReactionEmoji       string        // Эмодзи реакции на пересланные посты
	ReactionMaxAttempts int           // Лимит попыток установки реакции при flood control
	AlbumRetention      time.Duration // Время жизни записи об альбоме
	AlbumSettleDelay    time.Duration // Пауза перед классификацией сообщения альбома
}

// Load загружает и валидирует конфигурацию из окружения.
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.TelegramBotToken = strings.TrimSpace(os.Getenv("TELEGRAM_BOT_TOKEN"))
	cfg.PostgresDSN = strings.TrimSpace(os.Getenv("POSTGRES_DSN"))

	brokersRaw := strings.TrimSpace(os.Getenv("KAFKA_BROKERS"))
	if brokersRaw != "" {
		// Разрешаем перечисление через запятую или пробелы
		cfg.KafkaBrokers = strings.FieldsFunc(brokersRaw, func(r rune) bool { return r == ',' || r == ' ' })
	}
	cfg.KafkaTopic = firstNonEmpty(os.Getenv("KAFKA_TOPIC"), "moai-events")

	cfg.LogLevel = firstNonEmpty(os.Getenv("LOG_LEVEL"), "info")
	cfg.LogPretty = strings.ToLower(os.Getenv("LOGGER_PRETTY")) == "true"

	var err error
	cfg.ShutdownTimeout, err = durationEnv("SHUTDOWN_TIMEOUT", 15*time.Second)
	if err != nil {
		return nil, err
	}

	logChatRaw := strings.TrimSpace(os.Getenv("LOG_CHAT_ID"))
	if logChatRaw != "" {
		cfg.LogChatID, err = strconv.ParseInt(logChatRaw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid LOG_CHAT_ID: %w", err)
		}
	}

	ignoredRaw := strings.TrimSpace(os.Getenv("IGNORED_CHATS"))
	if ignoredRaw != "" {
		for _, part := range strings.FieldsFunc(ignoredRaw, func(r rune) bool { return r == ',' || r == ' ' }) {
			id, err := strconv.ParseInt(part, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid IGNORED_CHATS entry %q: %w", part, err)
			}
			cfg.IgnoredChats = append(cfg.IgnoredChats, id)
		}
	}

	cfg.ReactionEmoji = firstNonEmpty(os.Getenv("REACTION_EMOJI"), "🗿")

	attemptsRaw := strings.TrimSpace(os.Getenv("REACTION_MAX_ATTEMPTS"))
	cfg.ReactionMaxAttempts = 5
	if attemptsRaw != "" {
		n, err := strconv.Atoi(attemptsRaw)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("invalid REACTION_MAX_ATTEMPTS: %q", attemptsRaw)
		}
		cfg.ReactionMaxAttempts = n
	}

	cfg.AlbumRetention, err = durationEnv("ALBUM_RETENTION", 30*time.Second)
	if err != nil {
		return nil, err
	}
	cfg.AlbumSettleDelay, err = durationEnv("ALBUM_SETTLE_DELAY", 1500*time.Millisecond)
	if err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var missing []string
	if c.TelegramBotToken == "" {
		missing = append(missing, "TELEGRAM_BOT_TOKEN")
	}
	if c.PostgresDSN == "" {
		missing = append(missing, "POSTGRES_DSN")
	}
	if len(missing) > 0 {
		return errors.New("missing required env vars: " + strings.Join(missing, ", "))
	}
	return nil
}

// durationEnv читает duration из окружения с дефолтом.
func durationEnv(name string, def time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return def, nil
	}
	dur, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	return dur, nil
}

// Helper: возвращает первое непустое значение.
func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
