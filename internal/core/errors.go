package core

import (
	"errors"
	"fmt"
	"time"
)

// Ошибки авторизации. Не логируются как ошибки — это штатные отказы,
// пользователь получает понятный ответ.
var (
	// ErrNotRegistered — у актора нет записи в таблице пользователей.
	ErrNotRegistered = errors.New("user is not registered")

	// ErrInsufficientRights — роль актора ниже требуемой.
	ErrInsufficientRights = errors.New("insufficient rights")
)

// RetryAfterError — ответ Telegram с кодом 429 (flood control).
// Русский комментарий: Единственный transient-класс ошибок доставки: диспетчер
// реакций ждёт указанную паузу и повторяет вызов. Остальные ошибки доставки
// считаются перманентными и не ретраятся.
type RetryAfterError struct {
	After time.Duration
}

func (e *RetryAfterError) Error() string {
	return fmt.Sprintf("rate limited by telegram, retry after %s", e.After)
}
