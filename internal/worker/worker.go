package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/shaiso/FlowSync/internal/domain"
	"github.com/shaiso/FlowSync/internal/mq"
)

const defaultPrefetch = 1

// RunSyncService — синхронизация runs (реализуется orchestrator.Orchestrator).
type RunSyncService interface {
	SyncAllClusters(ctx context.Context, lookbackHours, batchSize int) (domain.RunSyncResult, error)
	SyncCluster(ctx context.Context, clusterID int64, lookbackHours, batchSize int) domain.ClusterSyncResult
	SyncStaleRuns(ctx context.Context, thresholdHours int) (domain.RunSyncResult, error)
}

// SpecSyncService — синхронизация спецификаций (реализуется orchestrator.SpecSyncer).
type SpecSyncService interface {
	SyncFromStorage(ctx context.Context) (domain.SpecSyncResult, error)
}

// Worker выполняет запросы на синхронизацию из очереди sync.requests.
//
// Worker — stateless компонент: несколько экземпляров могут потреблять
// из одной очереди. События о завершении публикует сам orchestrator,
// поэтому путь запроса из очереди совпадает с ручным запуском через API.
type Worker struct {
	runSync  RunSyncService
	specSync SpecSyncService

	// MQ
	conn     *mq.Connection
	consumer *mq.Consumer
	prefetch int

	// Lifecycle
	logger     *slog.Logger
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
	stopped    bool
	stoppedMu  sync.RWMutex
}

// Config — конфигурация Worker.
type Config struct {
	// Sync services
	RunSync  RunSyncService
	SpecSync SpecSyncService

	// MQ
	Conn *mq.Connection

	// Prefetch — сколько запросов выполняется одновременно (default: 1)
	Prefetch int

	// Logger
	Logger *slog.Logger
}

// New создаёт новый Worker.
func New(cfg Config) *Worker {
	prefetch := cfg.Prefetch
	if prefetch <= 0 {
		prefetch = defaultPrefetch
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Worker{
		runSync:  cfg.RunSync,
		specSync: cfg.SpecSync,
		conn:     cfg.Conn,
		prefetch: prefetch,
		logger:   logger,
	}
}

// Start запускает consumer очереди sync.requests.
func (w *Worker) Start(ctx context.Context) error {
	if w.conn == nil {
		return ErrNoConnection
	}

	ctx, cancel := context.WithCancel(ctx)
	w.cancelFunc = cancel

	w.logger.Info("starting worker", "queue", mq.QueueSyncRequests, "prefetch", w.prefetch)

	w.consumer = mq.NewConsumer(w.conn, w.logger, mq.ConsumerConfig{
		Queue:    mq.QueueSyncRequests,
		Handler:  w.handleSyncRequest,
		Prefetch: w.prefetch,
	})

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		if err := w.consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			w.logger.Error("sync request consumer error", "error", err)
		}
	}()

	w.logger.Info("worker started")
	return nil
}

// Stop останавливает Worker и ждёт завершения текущего запроса.
func (w *Worker) Stop() {
	w.stoppedMu.Lock()
	w.stopped = true
	w.stoppedMu.Unlock()

	w.logger.Info("stopping worker...")

	if w.cancelFunc != nil {
		w.cancelFunc()
	}

	if w.consumer != nil {
		w.consumer.Stop()
	}

	w.wg.Wait()

	w.logger.Info("worker stopped")
}

// IsStopped проверяет, остановлен ли Worker.
func (w *Worker) IsStopped() bool {
	w.stoppedMu.RLock()
	defer w.stoppedMu.RUnlock()
	return w.stopped
}
