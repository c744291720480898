package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shaiso/FlowSync/internal/domain"
)

// RunRepo — репозиторий зеркалированных DAG runs.
type RunRepo struct {
	pool *pgxpool.Pool
}

// NewRunRepo создаёт новый RunRepo.
func NewRunRepo(pool *pgxpool.Pool) *RunRepo {
	return &RunRepo{pool: pool}
}

// UpsertStats — исходы сверки страницы runs с локальным состоянием.
type UpsertStats struct {
	Created   int
	Updated   int
	Unchanged int
}

// Add суммирует исходы.
func (s *UpsertStats) Add(other UpsertStats) {
	s.Created += other.Created
	s.Updated += other.Updated
	s.Unchanged += other.Unchanged
}

const runColumns = `id, cluster_id, dag_id, dag_run_id, state, run_type, logical_date,
	start_date, end_date, external_trigger, conf, synced_at, created_at`

// UpsertRuns сверяет страницу runs кластера с локальными записями.
//
// Новые runs вставляются, изменившиеся обновляются, у совпадающих
// только сдвигается synced_at. Вся страница пишется одной транзакцией;
// записи других кластеров не затрагиваются.
func (r *RunRepo) UpsertRuns(ctx context.Context, clusterID int64, runs []domain.WorkflowRun, syncedAt time.Time) (UpsertStats, error) {
	var stats UpsertStats
	if len(runs) == 0 {
		return stats, nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return stats, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	existing, err := r.loadByKeys(ctx, tx, clusterID, runs)
	if err != nil {
		return stats, err
	}

	batch := &pgx.Batch{}
	for i := range runs {
		run := &runs[i]
		confJSON, err := json.Marshal(run.Conf)
		if err != nil {
			return UpsertStats{}, fmt.Errorf("marshal conf for %s/%s: %w", run.DagID, run.DagRunID, err)
		}

		prev, found := existing[run.Key()]
		switch {
		case !found:
			stats.Created++
			batch.Queue(`
				INSERT INTO workflow_runs (cluster_id, dag_id, dag_run_id, state, run_type, logical_date,
				                           start_date, end_date, external_trigger, conf, synced_at, created_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)
				ON CONFLICT (cluster_id, dag_id, dag_run_id) DO NOTHING
			`, clusterID, run.DagID, run.DagRunID, run.State, nullString(run.RunType),
				run.LogicalDate, run.StartDate, run.EndDate, run.ExternalTrigger, confJSON, syncedAt)

		case !prev.SameAs(run):
			stats.Updated++
			batch.Queue(`
				UPDATE workflow_runs
				SET state = $2, run_type = $3, logical_date = $4, start_date = $5, end_date = $6,
				    external_trigger = $7, conf = $8, synced_at = $9
				WHERE id = $1
			`, prev.ID, run.State, nullString(run.RunType), run.LogicalDate, run.StartDate,
				run.EndDate, run.ExternalTrigger, confJSON, syncedAt)

		default:
			stats.Unchanged++
			batch.Queue(`UPDATE workflow_runs SET synced_at = $2 WHERE id = $1`, prev.ID, syncedAt)
		}
	}

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return UpsertStats{}, fmt.Errorf("upsert runs: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return UpsertStats{}, fmt.Errorf("commit runs: %w", err)
	}
	return stats, nil
}

// loadByKeys загружает существующие записи для ключей страницы.
func (r *RunRepo) loadByKeys(ctx context.Context, tx pgx.Tx, clusterID int64, runs []domain.WorkflowRun) (map[domain.RunKey]*domain.WorkflowRun, error) {
	dagIDs := make([]string, len(runs))
	runIDs := make([]string, len(runs))
	for i, run := range runs {
		dagIDs[i] = run.DagID
		runIDs[i] = run.DagRunID
	}

	query := `
		SELECT ` + runColumns + `
		FROM workflow_runs
		WHERE cluster_id = $1
		  AND (dag_id, dag_run_id) IN (SELECT * FROM unnest($2::text[], $3::text[]))
	`
	rows, err := tx.Query(ctx, query, clusterID, dagIDs, runIDs)
	if err != nil {
		return nil, fmt.Errorf("load existing runs: %w", err)
	}
	defer rows.Close()

	existing := make(map[domain.RunKey]*domain.WorkflowRun, len(runs))
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		existing[run.Key()] = run
	}
	return existing, rows.Err()
}

// RunFilter — параметры фильтрации runs.
type RunFilter struct {
	ClusterID *int64
	State     domain.RunState
	Limit     int
	Offset    int
}

// List возвращает runs с фильтрацией, новые первыми.
func (r *RunRepo) List(ctx context.Context, filter RunFilter) ([]domain.WorkflowRun, error) {
	query := `
		SELECT ` + runColumns + `
		FROM workflow_runs
		WHERE ($1::bigint IS NULL OR cluster_id = $1)
		  AND ($2::text IS NULL OR state = $2)
		ORDER BY start_date DESC NULLS LAST, id DESC
		LIMIT $3 OFFSET $4
	`
	rows, err := r.pool.Query(ctx, query,
		filter.ClusterID,
		nullString(string(filter.State)),
		filter.Limit,
		filter.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.WorkflowRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// StateCount — количество runs кластера в одном состоянии.
type StateCount struct {
	ClusterID int64
	State     domain.RunState
	Count     int
}

// CountByState возвращает статистику runs по кластерам и состояниям.
func (r *RunRepo) CountByState(ctx context.Context) ([]StateCount, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT cluster_id, state, count(*)
		FROM workflow_runs
		GROUP BY cluster_id, state
		ORDER BY cluster_id, state
	`)
	if err != nil {
		return nil, fmt.Errorf("count runs by state: %w", err)
	}
	defer rows.Close()

	var counts []StateCount
	for rows.Next() {
		var c StateCount
		if err := rows.Scan(&c.ClusterID, &c.State, &c.Count); err != nil {
			return nil, fmt.Errorf("scan state count: %w", err)
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

// scanRun сканирует строку в WorkflowRun.
func scanRun(row pgx.Row) (*domain.WorkflowRun, error) {
	var run domain.WorkflowRun
	var runType *string
	var confJSON []byte

	err := row.Scan(
		&run.ID,
		&run.ClusterID,
		&run.DagID,
		&run.DagRunID,
		&run.State,
		&runType,
		&run.LogicalDate,
		&run.StartDate,
		&run.EndDate,
		&run.ExternalTrigger,
		&confJSON,
		&run.SyncedAt,
		&run.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("scan run: %w", err)
	}

	run.RunType = derefString(runType)
	if len(confJSON) > 0 && string(confJSON) != "null" {
		if err := json.Unmarshal(confJSON, &run.Conf); err != nil {
			return nil, fmt.Errorf("unmarshal conf: %w", err)
		}
	}
	return &run, nil
}
