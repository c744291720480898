package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shaiso/FlowSync/internal/domain"
)

// ClusterBatchSyncer синхронизирует набор кластеров. Реализация: Orchestrator.
type ClusterBatchSyncer interface {
	SyncWindows(ctx context.Context, windows []ClusterWindow, batchSize int) domain.RunSyncResult
}

// StaleRunDetector выбирает кластеры, данные которых устарели.
//
// Устаревание определяется на уровне кластера: кластер ни разу не
// синхронизировался, синхронизировался раньше порога, либо содержит
// незавершённый run, не обновлявшийся дольше порога.
type StaleRunDetector struct {
	clusters ClusterStore
	now      func() time.Time
	logger   *slog.Logger
}

// NewStaleRunDetector создаёт StaleRunDetector.
func NewStaleRunDetector(clusters ClusterStore, logger *slog.Logger) *StaleRunDetector {
	if logger == nil {
		logger = slog.Default()
	}
	return &StaleRunDetector{
		clusters: clusters,
		now:      time.Now,
		logger:   logger,
	}
}

// Detect возвращает устаревшие кластеры по возрастанию ID.
func (d *StaleRunDetector) Detect(ctx context.Context, thresholdHours int) ([]domain.StaleCluster, error) {
	cutoff := d.now().Add(-time.Duration(thresholdHours) * time.Hour)

	clusters, err := d.clusters.ListStale(ctx, cutoff)
	if err != nil {
		return nil, fmt.Errorf("list stale clusters: %w", err)
	}

	d.logger.Debug("stale clusters detected",
		"threshold_hours", thresholdHours,
		"cutoff", cutoff,
		"count", len(clusters),
	)
	return clusters, nil
}

// Resubmit находит устаревшие кластеры и синхронизирует их.
//
// Окно истории не меньше DefaultLookbackHours и расширяется до start_date
// самого старого зависшего run, иначе Airflow его больше не вернёт.
func (d *StaleRunDetector) Resubmit(ctx context.Context, thresholdHours int, syncer ClusterBatchSyncer) (domain.RunSyncResult, error) {
	clusters, err := d.Detect(ctx, thresholdHours)
	if err != nil {
		return domain.RunSyncResult{}, err
	}

	now := d.now()
	windows := make([]ClusterWindow, len(clusters))
	for i, c := range clusters {
		windows[i] = ClusterWindow{
			Cluster:       c.Cluster,
			LookbackHours: c.LookbackHours(now, DefaultLookbackHours),
		}
	}

	d.logger.Info("resubmitting stale clusters",
		"threshold_hours", thresholdHours,
		"clusters", len(clusters),
	)
	return syncer.SyncWindows(ctx, windows, DefaultBatchSize), nil
}
