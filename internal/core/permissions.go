package core

import (
	"fmt"

	"go.uber.org/zap"
)

// RoleLookup — доступ к хранилищу ролей.
// Русский комментарий: Интерфейс вместо прямой зависимости от репозитория,
// чтобы gate тестировался без БД. found == false, когда записи о пользователе нет.
type RoleLookup interface {
	RoleOf(userID int64) (role Role, found bool, err error)
}

// PermissionGate проверяет права актора перед привилегированными операциями.
// Fail closed: нет записи, недостаточно прав или ошибка БД — операция отклонена.
type PermissionGate struct {
	lookup RoleLookup
	logger *zap.Logger
}

// NewPermissionGate создаёт gate поверх хранилища ролей.
func NewPermissionGate(lookup RoleLookup, logger *zap.Logger) *PermissionGate {
	return &PermissionGate{lookup: lookup, logger: logger}
}

// Authorize возвращает nil, если роль актора не ниже требуемой.
// ErrNotRegistered — актор неизвестен, ErrInsufficientRights — роль ниже требуемой,
// иначе — обёрнутая ошибка хранилища.
func (g *PermissionGate) Authorize(actorID int64, required Role) error {
	role, found, err := g.lookup.RoleOf(actorID)
	if err != nil {
		g.logger.Error("role lookup failed",
			zap.Int64("user_id", actorID),
			zap.Error(err))
		return fmt.Errorf("role lookup: %w", err)
	}
	if !found {
		return ErrNotRegistered
	}
	if role < required {
		return ErrInsufficientRights
	}
	return nil
}
