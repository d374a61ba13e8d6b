package core

import "fmt"

// Role — уровень прав пользователя.
// Русский комментарий: Роли строго упорядочены, сравнение ролей — обычное
// сравнение чисел. Порядок менять нельзя, значения хранятся в БД.
type Role int

const (
	RoleBase Role = iota
	RoleModerator
	RoleAdmin
	RoleDeveloper
)

var roleNames = map[Role]string{
	RoleBase:      "base",
	RoleModerator: "moderator",
	RoleAdmin:     "admin",
	RoleDeveloper: "developer",
}

func (r Role) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return fmt.Sprintf("role(%d)", int(r))
}

// ParseRole разбирает имя роли из команды /setrole.
func ParseRole(s string) (Role, error) {
	for role, name := range roleNames {
		if name == s {
			return role, nil
		}
	}
	return RoleBase, fmt.Errorf("unknown role %q", s)
}
