package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shaiso/FlowSync/internal/domain"
	"github.com/shaiso/FlowSync/internal/repo"
	"github.com/shaiso/FlowSync/internal/telemetry"
)

// ClusterSyncer синхронизирует runs одного кластера.
//
// Любая ошибка кластера превращается в неуспешный ClusterSyncResult
// и никогда не выходит наружу, чтобы не прерывать соседние кластеры.
type ClusterSyncer struct {
	clusters ClusterStore
	runs     RunStore
	sources  SourceFactory
	timeout  time.Duration
	now      func() time.Time
	logger   *slog.Logger
}

// NewClusterSyncer создаёт ClusterSyncer.
// timeout <= 0 отключает ограничение времени на кластер.
func NewClusterSyncer(clusters ClusterStore, runs RunStore, sources SourceFactory, timeout time.Duration, logger *slog.Logger) *ClusterSyncer {
	if logger == nil {
		logger = slog.Default()
	}
	return &ClusterSyncer{
		clusters: clusters,
		runs:     runs,
		sources:  sources,
		timeout:  timeout,
		now:      time.Now,
		logger:   logger,
	}
}

// SyncCluster находит кластер по ID и синхронизирует его runs.
//
// Отсутствующий кластер — ожидаемый исход: результат с ошибкой
// "Cluster not found: {id}".
func (s *ClusterSyncer) SyncCluster(ctx context.Context, clusterID int64, lookbackHours, batchSize int) domain.ClusterSyncResult {
	cluster, err := s.clusters.GetByID(ctx, clusterID)
	if errors.Is(err, repo.ErrNotFound) {
		s.logger.Warn("cluster not found", "cluster_id", clusterID)
		return domain.ClusterNotFound(clusterID)
	}
	if err != nil {
		s.logger.Error("failed to load cluster", "cluster_id", clusterID, "error", err)
		return domain.NewClusterSyncFailure(clusterID, "", fmt.Sprintf("load cluster %d: %v", clusterID, err))
	}

	return s.sync(ctx, cluster, lookbackHours, batchSize)
}

// sync синхронизирует уже найденный кластер.
func (s *ClusterSyncer) sync(ctx context.Context, cluster *domain.Cluster, lookbackHours, batchSize int) (result domain.ClusterSyncResult) {
	logger := telemetry.WithCluster(s.logger, cluster.ID, cluster.Name)
	started := s.now()

	defer func() {
		if p := recover(); p != nil {
			logger.Error("cluster sync panicked", "panic", p)
			result = domain.NewClusterSyncFailure(cluster.ID, cluster.Name,
				fmt.Sprintf("sync cluster %s: %v: %v", cluster.Name, ErrSyncPanicked, p))
		}
		telemetry.ObserveClusterSync(cluster.Name, result.Success(), s.now().Sub(started))
	}()

	// Неположительные окно или страница — пустая синхронизация, а не ошибка
	if lookbackHours <= 0 || batchSize <= 0 {
		logger.Warn("empty sync window, nothing to fetch",
			"lookback_hours", lookbackHours,
			"batch_size", batchSize,
		)
		return domain.NewClusterSyncSuccess(cluster.ID, cluster.Name, 0, 0, 0)
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	stats, total, err := s.fetchAndReconcile(ctx, cluster, started, lookbackHours, batchSize)
	if err != nil {
		logger.Warn("cluster sync failed", "error", err, "processed", total)
		// Страницы до ошибки уже закоммичены; счётчики результата остаются нулевыми
		msg := fmt.Sprintf("sync cluster %s: %v", cluster.Name, err)
		if total > 0 {
			msg += fmt.Sprintf(" (%d runs stored before failure)", total)
		}
		return domain.NewClusterSyncFailure(cluster.ID, cluster.Name, msg)
	}

	if err := s.clusters.MarkSynced(ctx, cluster.ID, started); err != nil {
		// Данные уже записаны; кластер лишь останется кандидатом для stale sync
		logger.Warn("failed to mark cluster synced", "error", err)
	}

	telemetry.ObserveRunsReconciled(stats.Created, stats.Updated, stats.Unchanged)
	logger.Info("cluster synced",
		"processed", total,
		"created", stats.Created,
		"updated", stats.Updated,
		"unchanged", stats.Unchanged,
		"duration", s.now().Sub(started),
	)

	return domain.NewClusterSyncSuccess(cluster.ID, cluster.Name, stats.Updated, stats.Created, total)
}

// fetchAndReconcile читает историю runs страницами и сверяет каждую страницу.
func (s *ClusterSyncer) fetchAndReconcile(ctx context.Context, cluster *domain.Cluster, syncedAt time.Time, lookbackHours, batchSize int) (repo.UpsertStats, int, error) {
	var stats repo.UpsertStats
	total := 0

	if s.sources == nil {
		return stats, 0, ErrNoSourceFactory
	}
	source, err := s.sources(cluster)
	if err != nil {
		return stats, 0, fmt.Errorf("create client: %w", err)
	}

	since := syncedAt.Add(-time.Duration(lookbackHours) * time.Hour)

	for offset := 0; ; offset += batchSize {
		page, err := source.ListRuns(ctx, since, batchSize, offset)
		if err != nil {
			return stats, total, fmt.Errorf("fetch runs at offset %d: %w", offset, err)
		}
		if len(page) == 0 {
			break
		}

		for i := range page {
			page[i].ClusterID = cluster.ID
		}

		pageStats, err := s.runs.UpsertRuns(ctx, cluster.ID, page, syncedAt)
		if err != nil {
			return stats, total, fmt.Errorf("store runs at offset %d: %w", offset, err)
		}

		total += len(page)
		stats.Add(pageStats)

		if len(page) < batchSize {
			break
		}
	}

	return stats, total, nil
}
