package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shaiso/FlowSync/internal/domain"
)

// SpecRepo — репозиторий зеркалированных спецификаций workflow.
type SpecRepo struct {
	pool *pgxpool.Pool
}

// NewSpecRepo создаёт новый SpecRepo.
func NewSpecRepo(pool *pgxpool.Pool) *SpecRepo {
	return &SpecRepo{pool: pool}
}

const specColumns = `id, name, description, owner, schedule, tags, cluster_name, checksum, source_key, created_at, updated_at`

// GetByName возвращает спецификацию по имени (dag_id).
func (r *SpecRepo) GetByName(ctx context.Context, name string) (*domain.WorkflowSpec, error) {
	query := `SELECT ` + specColumns + ` FROM workflow_specs WHERE name = $1`

	spec, err := scanSpec(r.pool.QueryRow(ctx, query, name))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get spec by name: %w", err)
	}
	return spec, nil
}

// List возвращает все спецификации по имени.
func (r *SpecRepo) List(ctx context.Context) ([]domain.WorkflowSpec, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+specColumns+` FROM workflow_specs ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list specs: %w", err)
	}
	defer rows.Close()

	var specs []domain.WorkflowSpec
	for rows.Next() {
		spec, err := scanSpec(rows)
		if err != nil {
			return nil, fmt.Errorf("scan spec: %w", err)
		}
		specs = append(specs, *spec)
	}
	return specs, rows.Err()
}

// Create сохраняет новую спецификацию и заполняет её ID.
func (r *SpecRepo) Create(ctx context.Context, spec *domain.WorkflowSpec) error {
	query := `
		INSERT INTO workflow_specs (name, description, owner, schedule, tags, cluster_name,
		                            checksum, source_key, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`
	err := r.pool.QueryRow(ctx, query,
		spec.Name,
		nullString(spec.Description),
		nullString(spec.Owner),
		nullString(spec.Schedule),
		tagsOrEmpty(spec.Tags),
		nullString(spec.ClusterName),
		spec.Checksum,
		spec.SourceKey,
		spec.CreatedAt,
		spec.UpdatedAt,
	).Scan(&spec.ID)
	if isUniqueViolation(err) {
		return fmt.Errorf("spec %q: %w", spec.Name, ErrAlreadyExists)
	}
	if err != nil {
		return fmt.Errorf("insert spec: %w", err)
	}
	return nil
}

// Update перезаписывает содержимое спецификации по ID.
func (r *SpecRepo) Update(ctx context.Context, spec *domain.WorkflowSpec) error {
	query := `
		UPDATE workflow_specs
		SET description = $2, owner = $3, schedule = $4, tags = $5, cluster_name = $6,
		    checksum = $7, source_key = $8, updated_at = $9
		WHERE id = $1
	`
	result, err := r.pool.Exec(ctx, query,
		spec.ID,
		nullString(spec.Description),
		nullString(spec.Owner),
		nullString(spec.Schedule),
		tagsOrEmpty(spec.Tags),
		nullString(spec.ClusterName),
		spec.Checksum,
		spec.SourceKey,
		spec.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update spec: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanSpec(row pgx.Row) (*domain.WorkflowSpec, error) {
	var spec domain.WorkflowSpec
	var description, owner, schedule, clusterName *string

	err := row.Scan(
		&spec.ID,
		&spec.Name,
		&description,
		&owner,
		&schedule,
		&spec.Tags,
		&clusterName,
		&spec.Checksum,
		&spec.SourceKey,
		&spec.CreatedAt,
		&spec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	spec.Description = derefString(description)
	spec.Owner = derefString(owner)
	spec.Schedule = derefString(schedule)
	spec.ClusterName = derefString(clusterName)
	return &spec, nil
}

// tagsOrEmpty не даёт записать NULL в text[] NOT NULL.
func tagsOrEmpty(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}
