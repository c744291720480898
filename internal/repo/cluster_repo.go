package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shaiso/FlowSync/internal/domain"
)

// ClusterRepo — реестр Airflow кластеров.
//
// Реестр заполняется администратором напрямую в БД;
// сервис только читает его и отмечает время синхронизации.
type ClusterRepo struct {
	pool *pgxpool.Pool
}

// NewClusterRepo создаёт новый ClusterRepo.
func NewClusterRepo(pool *pgxpool.Pool) *ClusterRepo {
	return &ClusterRepo{pool: pool}
}

const clusterColumns = `id, name, base_url, username, password, enabled, last_synced_at, created_at`

const qualifiedClusterColumns = `c.id, c.name, c.base_url, c.username, c.password, c.enabled, c.last_synced_at, c.created_at`

// GetByID возвращает кластер по ID.
func (r *ClusterRepo) GetByID(ctx context.Context, id int64) (*domain.Cluster, error) {
	query := `SELECT ` + clusterColumns + ` FROM airflow_clusters WHERE id = $1`

	c, err := scanCluster(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get cluster by id: %w", err)
	}
	return c, nil
}

// List возвращает все кластеры по возрастанию ID.
func (r *ClusterRepo) List(ctx context.Context) ([]domain.Cluster, error) {
	query := `SELECT ` + clusterColumns + ` FROM airflow_clusters ORDER BY id ASC`
	return r.query(ctx, "list clusters", query)
}

// ListStale возвращает включённые кластеры, устаревшие относительно cutoff.
//
// Кластер устарел, если он ни разу не синхронизировался, синхронизировался
// раньше cutoff, или у него есть незавершённый run, не обновлявшийся с cutoff.
// Для таких runs возвращается самый ранний start_date.
func (r *ClusterRepo) ListStale(ctx context.Context, cutoff time.Time) ([]domain.StaleCluster, error) {
	query := `
		SELECT ` + qualifiedClusterColumns + `, p.pending_since
		FROM airflow_clusters c
		LEFT JOIN LATERAL (
		        SELECT count(*) AS pending, min(wr.start_date) AS pending_since
		        FROM workflow_runs wr
		        WHERE wr.cluster_id = c.id
		          AND wr.state NOT IN ('success', 'failed')
		          AND wr.synced_at < $1
		) p ON true
		WHERE c.enabled
		  AND (
		        c.last_synced_at IS NULL
		     OR c.last_synced_at < $1
		     OR p.pending > 0
		  )
		ORDER BY c.id ASC
	`

	rows, err := r.pool.Query(ctx, query, cutoff)
	if err != nil {
		return nil, fmt.Errorf("list stale clusters: %w", err)
	}
	defer rows.Close()

	var clusters []domain.StaleCluster
	for rows.Next() {
		var pendingSince *time.Time
		c, err := scanCluster(rows, &pendingSince)
		if err != nil {
			return nil, fmt.Errorf("scan stale cluster: %w", err)
		}
		clusters = append(clusters, domain.StaleCluster{Cluster: *c, PendingSince: pendingSince})
	}
	return clusters, rows.Err()
}

// MarkSynced записывает время успешной синхронизации кластера.
func (r *ClusterRepo) MarkSynced(ctx context.Context, id int64, at time.Time) error {
	result, err := r.pool.Exec(ctx,
		`UPDATE airflow_clusters SET last_synced_at = $2 WHERE id = $1`, id, at)
	if err != nil {
		return fmt.Errorf("mark cluster synced: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ClusterRepo) query(ctx context.Context, op, query string, args ...any) ([]domain.Cluster, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var clusters []domain.Cluster
	for rows.Next() {
		c, err := scanCluster(rows)
		if err != nil {
			return nil, fmt.Errorf("scan cluster: %w", err)
		}
		clusters = append(clusters, *c)
	}
	return clusters, rows.Err()
}

// scanCluster сканирует строку в Cluster. pgx.Rows реализует pgx.Row.
// extra получает колонки, идущие после колонок кластера.
func scanCluster(row pgx.Row, extra ...any) (*domain.Cluster, error) {
	var c domain.Cluster
	var username, password *string

	dest := []any{
		&c.ID,
		&c.Name,
		&c.BaseURL,
		&username,
		&password,
		&c.Enabled,
		&c.LastSyncedAt,
		&c.CreatedAt,
	}
	err := row.Scan(append(dest, extra...)...)
	if err != nil {
		return nil, err
	}

	c.Username = derefString(username)
	c.Password = derefString(password)
	return &c, nil
}
