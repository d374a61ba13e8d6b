package bot

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/flybasist/moai/internal/core"
)

// builtinCommands — команды самого роутера: регистрация, справка, управление
// ролями. Модульные команды приходят через Module.Commands().
func (r *Router) builtinCommands() []core.BotCommand {
	return []core.BotCommand{
		{Command: "start", Description: "Регистрация и приветствие", MinRole: core.RoleBase, Handler: r.handleStart},
		{Command: "help", Description: "Список доступных команд", MinRole: core.RoleBase, Handler: r.handleHelp},
		{Command: "setrole", Description: "Назначить роль: /setrole <user_id> <role>", MinRole: core.RoleAdmin, Handler: r.handleSetRole},
		{Command: "users", Description: "Список зарегистрированных пользователей", MinRole: core.RoleAdmin, Handler: r.handleUsers},
	}
}

// handleStart регистрирует пользователя в личном чате и показывает пулы
// комментариев. В группе просто здоровается — регистрация только в личке.
func (r *Router) handleStart(ctx *core.MessageContext) error {
	msg := ctx.Message
	if msg.ChatType != core.ChatPrivate {
		return ctx.Reply("Привет! Я слежу за порядком в этой группе. Напишите мне в личные сообщения, чтобы зарегистрироваться.")
	}

	if err := r.deps.Users.GetOrCreate(msg.UserID, msg.Username, msg.FirstName); err != nil {
		return fmt.Errorf("failed to register user: %w", err)
	}
	ctx.LogEvent("bot", "user_registered", "")

	var b strings.Builder
	b.WriteString("Привет! Вы зарегистрированы.\n")
	b.WriteString("Команды: /help\n")
	if r.deps.Pools != nil {
		b.WriteString("\nТекущие пулы комментариев:\n")
		b.WriteString(r.deps.Pools.FormatPools())
	}
	return ctx.Reply(b.String())
}

// handleHelp перечисляет команды, отсортированные по имени, с минимальной ролью.
func (r *Router) handleHelp(ctx *core.MessageContext) error {
	names := make([]string, 0, len(r.commands))
	for name := range r.commands {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString("Доступные команды:\n")
	for _, name := range names {
		cmd := r.commands[name]
		b.WriteString("/")
		b.WriteString(cmd.Command)
		b.WriteString(" — ")
		b.WriteString(cmd.Description)
		if cmd.MinRole > core.RoleBase {
			fmt.Fprintf(&b, " (роль: %s)", cmd.MinRole)
		}
		b.WriteString("\n")
	}
	return ctx.Reply(b.String())
}

// handleSetRole меняет роль пользователя. Правила: актор должен быть строго
// выше текущей роли цели и не может выдать роль выше собственной.
func (r *Router) handleSetRole(ctx *core.MessageContext) error {
	args := ctx.Message.CommandArgs()
	if len(args) != 2 {
		return ctx.Reply("Формат: /setrole <user_id> <base|moderator|admin|developer>")
	}

	targetID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return ctx.Reply("Некорректный user_id: " + args[0])
	}
	newRole, err := core.ParseRole(args[1])
	if err != nil {
		return ctx.Reply("Неизвестная роль: " + args[1])
	}

	actor, found, err := r.deps.Users.Get(ctx.Message.UserID)
	if err != nil {
		return fmt.Errorf("failed to load actor: %w", err)
	}
	if !found {
		return ctx.Reply("Сначала зарегистрируйтесь: отправьте /start боту в личном чате.")
	}

	target, found, err := r.deps.Users.Get(targetID)
	if err != nil {
		return fmt.Errorf("failed to load target user: %w", err)
	}
	if !found {
		return ctx.Reply("Пользователь не найден. Он должен сначала отправить /start боту.")
	}

	if actor.Role <= target.Role {
		return ctx.Reply("Нельзя менять роль пользователя с ролью не ниже вашей.")
	}
	if newRole > actor.Role {
		return ctx.Reply("Нельзя выдать роль выше собственной.")
	}

	if err := r.deps.Users.SetRole(targetID, newRole); err != nil {
		return fmt.Errorf("failed to set role: %w", err)
	}

	r.logger.Info("role changed",
		zap.Int64("actor_id", ctx.Message.UserID),
		zap.Int64("target_id", targetID),
		zap.String("new_role", newRole.String()))
	ctx.LogEvent("bot", "role_changed", fmt.Sprintf("target=%d role=%s", targetID, newRole))

	return ctx.Reply(fmt.Sprintf("Роль пользователя %d изменена на %s.", targetID, newRole))
}

// handleUsers выводит список зарегистрированных пользователей по убыванию роли.
func (r *Router) handleUsers(ctx *core.MessageContext) error {
	users, err := r.deps.Users.List()
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}
	if len(users) == 0 {
		return ctx.Reply("Пока никто не зарегистрирован.")
	}

	var b strings.Builder
	b.WriteString("Зарегистрированные пользователи:\n")
	for _, u := range users {
		name := u.Username
		if name == "" {
			name = u.FirstName
		}
		fmt.Fprintf(&b, "%d — %s (%s)\n", u.UserID, name, u.Role)
	}
	return ctx.Reply(b.String())
}
