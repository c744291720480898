package orchestrator

import (
	"context"
	"time"

	"github.com/shaiso/FlowSync/internal/domain"
	"github.com/shaiso/FlowSync/internal/repo"
	"github.com/shaiso/FlowSync/internal/storage"
)

// ClusterStore — реестр кластеров. Реализация: repo.ClusterRepo.
type ClusterStore interface {
	GetByID(ctx context.Context, id int64) (*domain.Cluster, error)
	List(ctx context.Context) ([]domain.Cluster, error)
	ListStale(ctx context.Context, cutoff time.Time) ([]domain.StaleCluster, error)
	MarkSynced(ctx context.Context, id int64, at time.Time) error
}

// RunStore — локальное хранилище runs. Реализация: repo.RunRepo.
type RunStore interface {
	UpsertRuns(ctx context.Context, clusterID int64, runs []domain.WorkflowRun, syncedAt time.Time) (repo.UpsertStats, error)
}

// RunSource — история runs внешнего кластера. Реализация: airflow.Client.
type RunSource interface {
	// ListRuns возвращает runs, начавшиеся не раньше since, страницей limit/offset
	// в стабильном порядке.
	ListRuns(ctx context.Context, since time.Time, limit, offset int) ([]domain.WorkflowRun, error)
}

// SourceFactory создаёт RunSource для кластера.
type SourceFactory func(cluster *domain.Cluster) (RunSource, error)

// SpecSource — внешнее хранилище спецификаций. Реализации: storage.DirSource, storage.GitSource.
type SpecSource interface {
	List(ctx context.Context) ([]storage.Document, error)
}

// SpecStore — локальное хранилище спецификаций. Реализация: repo.SpecRepo.
type SpecStore interface {
	GetByName(ctx context.Context, name string) (*domain.WorkflowSpec, error)
	Create(ctx context.Context, spec *domain.WorkflowSpec) error
	Update(ctx context.Context, spec *domain.WorkflowSpec) error
}

// EventPublisher публикует итоги синхронизации. Реализация: mq.Publisher.
type EventPublisher interface {
	PublishSyncCompleted(ctx context.Context, kind string, result any) error
}

// Виды событий о завершении синхронизации.
const (
	EventKindSpecs   = "specs"
	EventKindRuns    = "runs"
	EventKindCluster = "cluster"
	EventKindStale   = "stale"
)
