package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shaiso/FlowSync/internal/domain"
)

// TeamRepo — репозиторий команд, участников и ресурсов.
type TeamRepo struct {
	pool *pgxpool.Pool
}

// NewTeamRepo создаёт новый TeamRepo.
func NewTeamRepo(pool *pgxpool.Pool) *TeamRepo {
	return &TeamRepo{pool: pool}
}

// --- Team CRUD ---

// List возвращает все команды.
func (r *TeamRepo) List(ctx context.Context) ([]domain.Team, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, description, created_at, updated_at
		FROM teams
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}
	defer rows.Close()

	var teams []domain.Team
	for rows.Next() {
		team, err := scanTeam(rows)
		if err != nil {
			return nil, fmt.Errorf("scan team: %w", err)
		}
		teams = append(teams, *team)
	}
	return teams, rows.Err()
}

// GetByID возвращает команду по ID.
func (r *TeamRepo) GetByID(ctx context.Context, id int64) (*domain.Team, error) {
	team, err := scanTeam(r.pool.QueryRow(ctx, `
		SELECT id, name, description, created_at, updated_at
		FROM teams
		WHERE id = $1
	`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get team by id: %w", err)
	}
	return team, nil
}

// Create создаёт команду и заполняет её ID.
func (r *TeamRepo) Create(ctx context.Context, team *domain.Team) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO teams (name, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, team.Name, nullString(team.Description), team.CreatedAt, team.UpdatedAt).Scan(&team.ID)
	if isUniqueViolation(err) {
		return fmt.Errorf("team %q: %w", team.Name, ErrAlreadyExists)
	}
	if err != nil {
		return fmt.Errorf("insert team: %w", err)
	}
	return nil
}

// Update обновляет имя и описание команды.
func (r *TeamRepo) Update(ctx context.Context, team *domain.Team) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE teams
		SET name = $2, description = $3, updated_at = $4
		WHERE id = $1
	`, team.ID, team.Name, nullString(team.Description), team.UpdatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("team %q: %w", team.Name, ErrAlreadyExists)
	}
	if err != nil {
		return fmt.Errorf("update team: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete удаляет команду вместе с участниками и ресурсами (ON DELETE CASCADE).
func (r *TeamRepo) Delete(ctx context.Context, id int64) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM teams WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete team: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Members ---

// ListMembers возвращает участников команды.
func (r *TeamRepo) ListMembers(ctx context.Context, teamID int64) ([]domain.TeamMember, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT team_id, user_id, role, added_at
		FROM team_members
		WHERE team_id = $1
		ORDER BY added_at, user_id
	`, teamID)
	if err != nil {
		return nil, fmt.Errorf("list team members: %w", err)
	}
	defer rows.Close()

	var members []domain.TeamMember
	for rows.Next() {
		var m domain.TeamMember
		if err := rows.Scan(&m.TeamID, &m.UserID, &m.Role, &m.AddedAt); err != nil {
			return nil, fmt.Errorf("scan team member: %w", err)
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// AddMember добавляет участника в команду.
func (r *TeamRepo) AddMember(ctx context.Context, m *domain.TeamMember) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO team_members (team_id, user_id, role, added_at)
		VALUES ($1, $2, $3, $4)
	`, m.TeamID, m.UserID, m.Role, m.AddedAt)
	switch {
	case isUniqueViolation(err):
		return fmt.Errorf("member %q: %w", m.UserID, ErrAlreadyExists)
	case isForeignKeyViolation(err):
		return ErrNotFound
	case err != nil:
		return fmt.Errorf("insert team member: %w", err)
	}
	return nil
}

// RemoveMember удаляет участника из команды.
func (r *TeamRepo) RemoveMember(ctx context.Context, teamID int64, userID string) error {
	result, err := r.pool.Exec(ctx,
		`DELETE FROM team_members WHERE team_id = $1 AND user_id = $2`, teamID, userID)
	if err != nil {
		return fmt.Errorf("delete team member: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Resources ---

// ListResources возвращает ресурсы команды.
func (r *TeamRepo) ListResources(ctx context.Context, teamID int64) ([]domain.TeamResource, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT team_id, resource_type, resource_id, added_at
		FROM team_resources
		WHERE team_id = $1
		ORDER BY resource_type, resource_id
	`, teamID)
	if err != nil {
		return nil, fmt.Errorf("list team resources: %w", err)
	}
	defer rows.Close()

	var resources []domain.TeamResource
	for rows.Next() {
		var res domain.TeamResource
		if err := rows.Scan(&res.TeamID, &res.ResourceType, &res.ResourceID, &res.AddedAt); err != nil {
			return nil, fmt.Errorf("scan team resource: %w", err)
		}
		resources = append(resources, res)
	}
	return resources, rows.Err()
}

// AddResource закрепляет ресурс за командой.
func (r *TeamRepo) AddResource(ctx context.Context, res *domain.TeamResource) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO team_resources (team_id, resource_type, resource_id, added_at)
		VALUES ($1, $2, $3, $4)
	`, res.TeamID, res.ResourceType, res.ResourceID, res.AddedAt)
	switch {
	case isUniqueViolation(err):
		return fmt.Errorf("resource %s/%s: %w", res.ResourceType, res.ResourceID, ErrAlreadyExists)
	case isForeignKeyViolation(err):
		return ErrNotFound
	case err != nil:
		return fmt.Errorf("insert team resource: %w", err)
	}
	return nil
}

// RemoveResource открепляет ресурс от команды.
func (r *TeamRepo) RemoveResource(ctx context.Context, teamID int64, resourceType domain.ResourceType, resourceID string) error {
	result, err := r.pool.Exec(ctx, `
		DELETE FROM team_resources
		WHERE team_id = $1 AND resource_type = $2 AND resource_id = $3
	`, teamID, resourceType, resourceID)
	if err != nil {
		return fmt.Errorf("delete team resource: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanTeam(row pgx.Row) (*domain.Team, error) {
	var team domain.Team
	var description *string
	if err := row.Scan(&team.ID, &team.Name, &description, &team.CreatedAt, &team.UpdatedAt); err != nil {
		return nil, err
	}
	team.Description = derefString(description)
	return &team, nil
}
