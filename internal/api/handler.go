package api

import (
	"context"
	"log/slog"
	"time"

	"github.com/shaiso/FlowSync/internal/domain"
	"github.com/shaiso/FlowSync/internal/mq"
	"github.com/shaiso/FlowSync/internal/repo"
)

// RunSyncService — синхронизация runs. Реализация: orchestrator.Orchestrator.
type RunSyncService interface {
	SyncAllClusters(ctx context.Context, lookbackHours, batchSize int) (domain.RunSyncResult, error)
	SyncCluster(ctx context.Context, clusterID int64, lookbackHours, batchSize int) domain.ClusterSyncResult
	SyncStaleRuns(ctx context.Context, thresholdHours int) (domain.RunSyncResult, error)
}

// SpecSyncService — синхронизация спецификаций. Реализация: orchestrator.SpecSyncer.
type SpecSyncService interface {
	SyncFromStorage(ctx context.Context) (domain.SpecSyncResult, error)
}

// SyncRequestPublisher ставит синхронизацию в очередь. Реализация: mq.Publisher.
type SyncRequestPublisher interface {
	PublishSyncRequest(ctx context.Context, req mq.SyncRequest) (string, error)
}

// ClusterReader — чтение реестра кластеров. Реализация: repo.ClusterRepo.
type ClusterReader interface {
	List(ctx context.Context) ([]domain.Cluster, error)
}

// RunReader — чтение зеркала runs. Реализация: repo.RunRepo.
type RunReader interface {
	List(ctx context.Context, filter repo.RunFilter) ([]domain.WorkflowRun, error)
	CountByState(ctx context.Context) ([]repo.StateCount, error)
}

// SpecReader — чтение зеркала спецификаций. Реализация: repo.SpecRepo.
type SpecReader interface {
	List(ctx context.Context) ([]domain.WorkflowSpec, error)
}

// TeamStore — команды, участники и ресурсы. Реализация: repo.TeamRepo.
type TeamStore interface {
	List(ctx context.Context) ([]domain.Team, error)
	GetByID(ctx context.Context, id int64) (*domain.Team, error)
	Create(ctx context.Context, team *domain.Team) error
	Update(ctx context.Context, team *domain.Team) error
	Delete(ctx context.Context, id int64) error

	ListMembers(ctx context.Context, teamID int64) ([]domain.TeamMember, error)
	AddMember(ctx context.Context, m *domain.TeamMember) error
	RemoveMember(ctx context.Context, teamID int64, userID string) error

	ListResources(ctx context.Context, teamID int64) ([]domain.TeamResource, error)
	AddResource(ctx context.Context, res *domain.TeamResource) error
	RemoveResource(ctx context.Context, teamID int64, resourceType domain.ResourceType, resourceID string) error
}

// Handler — главный обработчик API с зависимостями.
type Handler struct {
	runSync  RunSyncService
	specSync SpecSyncService
	requests SyncRequestPublisher

	clusters ClusterReader
	runs     RunReader
	specs    SpecReader
	teams    TeamStore

	tokens map[string]domain.Principal
	policy Policy

	now    func() time.Time
	logger *slog.Logger
}

// Config — конфигурация для создания Handler.
type Config struct {
	RunSync  RunSyncService
	SpecSync SpecSyncService

	// Requests — опционально; nil отключает асинхронный режим (?async=true)
	Requests SyncRequestPublisher

	Clusters ClusterReader
	Runs     RunReader
	Specs    SpecReader
	Teams    TeamStore

	// Tokens — bearer токены и их владельцы
	Tokens map[string]domain.Principal

	// Policy — опционально; по умолчанию DefaultPolicy()
	Policy Policy

	Logger *slog.Logger
}

// NewHandler создаёт новый Handler.
func NewHandler(cfg Config) *Handler {
	policy := cfg.Policy
	if policy == nil {
		policy = DefaultPolicy()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Handler{
		runSync:  cfg.RunSync,
		specSync: cfg.SpecSync,
		requests: cfg.Requests,
		clusters: cfg.Clusters,
		runs:     cfg.Runs,
		specs:    cfg.Specs,
		teams:    cfg.Teams,
		tokens:   cfg.Tokens,
		policy:   policy,
		now:      time.Now,
		logger:   logger,
	}
}
