package domain

// Role — роль пользователя в системе.
type Role string

const (
	// RoleUser — аутентифицированный пользователь, только чтение.
	RoleUser Role = "USER"

	// RoleAdmin — администратор, может запускать синхронизацию и менять команды.
	RoleAdmin Role = "ADMIN"
)

// rank задаёт порядок ролей: старшая роль включает права младшей.
func (r Role) rank() int {
	switch r {
	case RoleUser:
		return 1
	case RoleAdmin:
		return 2
	default:
		return 0
	}
}

// Satisfies возвращает true, если роль не ниже required.
func (r Role) Satisfies(required Role) bool {
	return r.rank() > 0 && r.rank() >= required.rank()
}

// ParseRole парсит роль; неизвестные значения дают пустую роль.
func ParseRole(s string) Role {
	switch s {
	case "USER", "user":
		return RoleUser
	case "ADMIN", "admin":
		return RoleAdmin
	default:
		return ""
	}
}

// Principal — аутентифицированный вызывающий.
type Principal struct {
	// Subject — имя пользователя или сервисного аккаунта.
	Subject string `json:"subject"`

	// Role — роль вызывающего.
	Role Role `json:"role"`
}
