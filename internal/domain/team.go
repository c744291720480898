package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidTeam — данные команды не прошли валидацию.
var ErrInvalidTeam = errors.New("invalid team")

// Team — команда, владеющая набором ресурсов (кластеры, DAG, спецификации).
type Team struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewTeam создаёт команду с заданной идентичностью и временными метками.
func NewTeam(id int64, name, description string, createdAt, updatedAt time.Time) Team {
	return Team{
		ID:          id,
		Name:        name,
		Description: description,
		CreatedAt:   createdAt,
		UpdatedAt:   updatedAt,
	}
}

// Validate проверяет имя команды.
func (t *Team) Validate() error {
	name := strings.TrimSpace(t.Name)
	if name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidTeam)
	}
	if len(name) > 100 {
		return fmt.Errorf("%w: name is longer than 100 characters", ErrInvalidTeam)
	}
	return nil
}

// TeamRole — роль участника внутри команды.
type TeamRole string

const (
	TeamRoleOwner  TeamRole = "OWNER"
	TeamRoleMember TeamRole = "MEMBER"
)

// IsValid проверяет, известна ли роль.
func (r TeamRole) IsValid() bool {
	return r == TeamRoleOwner || r == TeamRoleMember
}

// TeamMember — участник команды.
type TeamMember struct {
	TeamID  int64     `json:"team_id"`
	UserID  string    `json:"user_id"`
	Role    TeamRole  `json:"role"`
	AddedAt time.Time `json:"added_at"`
}

// ResourceType — тип ресурса, закреплённого за командой.
type ResourceType string

const (
	ResourceCluster ResourceType = "CLUSTER"
	ResourceDag     ResourceType = "DAG"
	ResourceSpec    ResourceType = "SPEC"
)

// ParseResourceType парсит тип ресурса без учёта регистра.
func ParseResourceType(s string) (ResourceType, error) {
	switch ResourceType(strings.ToUpper(s)) {
	case ResourceCluster:
		return ResourceCluster, nil
	case ResourceDag:
		return ResourceDag, nil
	case ResourceSpec:
		return ResourceSpec, nil
	default:
		return "", fmt.Errorf("%w: unknown resource type %q", ErrInvalidTeam, s)
	}
}

// TeamResource — ресурс, закреплённый за командой.
type TeamResource struct {
	TeamID       int64        `json:"team_id"`
	ResourceType ResourceType `json:"resource_type"`
	ResourceID   string       `json:"resource_id"`
	AddedAt      time.Time    `json:"added_at"`
}
