package worker

import (
	"context"
	"fmt"

	"github.com/shaiso/FlowSync/internal/mq"
	"github.com/shaiso/FlowSync/internal/orchestrator"
	"github.com/shaiso/FlowSync/internal/telemetry"
)

// handleSyncRequest обрабатывает сообщение из очереди sync.requests.
//
// Некорректный запрос оборачивается в mq.ErrInvalidRequest и уходит в DLQ
// без повторной доставки.
func (w *Worker) handleSyncRequest(ctx context.Context, delivery *mq.Delivery) error {
	logger := telemetry.FromContext(ctx)

	req, err := mq.ParsePayload[mq.SyncRequest](&delivery.Message)
	if err != nil {
		logger.Error("failed to parse sync request", "error", err)
		return fmt.Errorf("%w: %v", mq.ErrInvalidRequest, err)
	}

	logger.Info("received sync request",
		"kind", req.Kind,
		"cluster_id", req.ClusterID,
		"redelivered", delivery.Redelivered,
	)

	summary, err := w.Process(ctx, req)
	if err != nil {
		logger.Error("sync request failed", "kind", req.Kind, "error", err)
		return err
	}

	logger.Info("sync request processed", "kind", req.Kind, "summary", summary)
	return nil
}

// Process выполняет запрос на синхронизацию и возвращает краткий итог.
//
// Нулевые параметры заменяются значениями по умолчанию. Ошибка возвращается
// только если синхронизация не смогла начаться (например, недоступен реестр);
// сбои отдельных кластеров и спецификаций остаются внутри результата.
func (w *Worker) Process(ctx context.Context, req mq.SyncRequest) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}

	lookback := orDefault(req.LookbackHours, orchestrator.DefaultLookbackHours)
	batch := orDefault(req.BatchSize, orchestrator.DefaultBatchSize)

	switch req.Kind {
	case mq.SyncKindSpecs:
		if w.specSync == nil {
			return "", fmt.Errorf("%w: %s", ErrUnsupportedKind, req.Kind)
		}
		result, err := w.specSync.SyncFromStorage(ctx)
		if err != nil {
			return "", fmt.Errorf("sync specs: %w", err)
		}
		return fmt.Sprintf("processed=%d created=%d updated=%d failed=%d",
			result.TotalProcessed, result.Created, result.Updated, result.Failed), nil

	case mq.SyncKindRuns:
		result, err := w.runSync.SyncAllClusters(ctx, lookback, batch)
		if err != nil {
			return "", fmt.Errorf("sync runs: %w", err)
		}
		return runSummary(result.TotalClusters, result.FailedClusters, result.TotalUpdated, result.TotalCreated), nil

	case mq.SyncKindCluster:
		result := w.runSync.SyncCluster(ctx, req.ClusterID, lookback, batch)
		if !result.Success() {
			return "cluster failed: " + result.Error, nil
		}
		return fmt.Sprintf("cluster=%s updated=%d created=%d",
			result.ClusterName, result.UpdatedCount, result.CreatedCount), nil

	case mq.SyncKindStale:
		threshold := orDefault(req.StaleThresholdHours, orchestrator.DefaultStaleThresholdHours)
		result, err := w.runSync.SyncStaleRuns(ctx, threshold)
		if err != nil {
			return "", fmt.Errorf("sync stale runs: %w", err)
		}
		return runSummary(result.TotalClusters, result.FailedClusters, result.TotalUpdated, result.TotalCreated), nil
	}

	return "", fmt.Errorf("%w: %s", ErrUnsupportedKind, req.Kind)
}

func runSummary(clusters, failed, updated, created int) string {
	return fmt.Sprintf("clusters=%d failed=%d updated=%d created=%d", clusters, failed, updated, created)
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
