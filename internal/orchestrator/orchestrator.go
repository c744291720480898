package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/shaiso/FlowSync/internal/domain"
)

// Значения по умолчанию для ручной синхронизации.
const (
	DefaultLookbackHours       = 24
	DefaultBatchSize           = 100
	DefaultStaleThresholdHours = 1

	defaultConcurrency    = 4
	defaultClusterTimeout = 5 * time.Minute
)

// Orchestrator синхронизирует runs по всем кластерам реестра.
//
// Кластеры обрабатываются параллельно (не более concurrency одновременно),
// но ClusterResults всегда собираются в порядке перечисления кластеров.
// Реестр во время одного вызова только читается.
type Orchestrator struct {
	clusters  ClusterStore
	syncer    *ClusterSyncer
	stale     *StaleRunDetector
	publisher EventPublisher

	concurrency int
	now         func() time.Time
	logger      *slog.Logger
}

// Config — конфигурация Orchestrator.
type Config struct {
	// Stores
	ClusterStore ClusterStore
	RunStore     RunStore

	// SourceFactory создаёт клиента Airflow для кластера
	SourceFactory SourceFactory

	// Publisher — опционально; nil отключает публикацию событий
	Publisher EventPublisher

	// Concurrency — сколько кластеров синхронизируется одновременно (default: 4)
	Concurrency int

	// ClusterTimeout — ограничение времени на один кластер (default: 5m)
	ClusterTimeout time.Duration

	// Logger
	Logger *slog.Logger
}

// New создаёт новый Orchestrator.
func New(cfg Config) *Orchestrator {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}

	timeout := cfg.ClusterTimeout
	if timeout <= 0 {
		timeout = defaultClusterTimeout
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Orchestrator{
		clusters:    cfg.ClusterStore,
		syncer:      NewClusterSyncer(cfg.ClusterStore, cfg.RunStore, cfg.SourceFactory, timeout, logger),
		stale:       NewStaleRunDetector(cfg.ClusterStore, logger),
		publisher:   cfg.Publisher,
		concurrency: concurrency,
		now:         time.Now,
		logger:      logger,
	}
}

// SyncAllClusters синхронизирует все кластеры реестра.
//
// Выключенный кластер не опрашивается, но занимает свою позицию
// в ClusterResults с ошибкой "Cluster disabled: {id}". Ошибки отдельных
// кластеров попадают в результат. Ошибка возвращается только если
// не удалось прочитать сам реестр.
func (o *Orchestrator) SyncAllClusters(ctx context.Context, lookbackHours, batchSize int) (domain.RunSyncResult, error) {
	clusters, err := o.clusters.List(ctx)
	if err != nil {
		return domain.RunSyncResult{}, fmt.Errorf("list clusters: %w", err)
	}

	o.logger.Info("syncing runs for all clusters",
		"clusters", len(clusters),
		"lookback_hours", lookbackHours,
		"batch_size", batchSize,
	)

	windows := make([]ClusterWindow, len(clusters))
	for i := range clusters {
		windows[i] = ClusterWindow{Cluster: clusters[i], LookbackHours: lookbackHours}
	}

	result := o.SyncWindows(ctx, windows, batchSize)
	o.publish(ctx, EventKindRuns, result)
	return result, nil
}

// SyncCluster синхронизирует один кластер по ID.
func (o *Orchestrator) SyncCluster(ctx context.Context, clusterID int64, lookbackHours, batchSize int) domain.ClusterSyncResult {
	result := o.syncer.SyncCluster(ctx, clusterID, lookbackHours, batchSize)
	o.publish(ctx, EventKindCluster, result)
	return result
}

// SyncStaleRuns повторно синхронизирует кластеры, не обновлявшиеся дольше порога.
// thresholdHours <= 0 заменяется на DefaultStaleThresholdHours.
func (o *Orchestrator) SyncStaleRuns(ctx context.Context, thresholdHours int) (domain.RunSyncResult, error) {
	if thresholdHours <= 0 {
		thresholdHours = DefaultStaleThresholdHours
	}

	result, err := o.stale.Resubmit(ctx, thresholdHours, o)
	if err != nil {
		return domain.RunSyncResult{}, err
	}

	o.publish(ctx, EventKindStale, result)
	return result, nil
}

// ClusterWindow — кластер и окно истории, которое нужно у него запросить.
type ClusterWindow struct {
	Cluster       domain.Cluster
	LookbackHours int
}

// SyncWindows синхронизирует переданные кластеры и агрегирует результаты.
// Порядок ClusterResults совпадает с порядком windows.
func (o *Orchestrator) SyncWindows(ctx context.Context, windows []ClusterWindow, batchSize int) domain.RunSyncResult {
	results := make([]domain.ClusterSyncResult, len(windows))

	var g errgroup.Group
	g.SetLimit(o.concurrency)

	for i := range windows {
		w := &windows[i]
		if !w.Cluster.Enabled {
			results[i] = domain.ClusterDisabled(w.Cluster.ID, w.Cluster.Name)
			continue
		}
		g.Go(func() error {
			// Каждая горутина пишет только в свою ячейку
			results[i] = o.syncer.sync(ctx, &w.Cluster, w.LookbackHours, batchSize)
			return nil
		})
	}
	_ = g.Wait()

	result := domain.NewRunSyncResult(results, o.now())

	o.logger.Info("run sync completed",
		"clusters", result.TotalClusters,
		"failed_clusters", result.FailedClusters,
		"total_updated", result.TotalUpdated,
		"total_created", result.TotalCreated,
	)
	return result
}

// publish отправляет событие; ошибки публикации только логируются.
func (o *Orchestrator) publish(ctx context.Context, kind string, result any) {
	if o.publisher == nil {
		return
	}
	if err := o.publisher.PublishSyncCompleted(ctx, kind, result); err != nil {
		o.logger.Warn("failed to publish sync event", "kind", kind, "error", err)
	}
}
