package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shaiso/FlowSync/internal/domain"
	"github.com/shaiso/FlowSync/internal/repo"
	"github.com/shaiso/FlowSync/internal/storage"
	"github.com/shaiso/FlowSync/internal/telemetry"
)

// specOutcome — исход синхронизации одной спецификации.
type specOutcome int

const (
	specCreated specOutcome = iota
	specUpdated
	specUnchanged
)

// SpecSyncer синхронизирует спецификации workflow из хранилища в локальную БД.
type SpecSyncer struct {
	source    SpecSource
	store     SpecStore
	publisher EventPublisher
	now       func() time.Time
	logger    *slog.Logger
}

// SpecSyncerConfig — конфигурация SpecSyncer.
type SpecSyncerConfig struct {
	Source    SpecSource
	Store     SpecStore
	Publisher EventPublisher
	Logger    *slog.Logger
}

// NewSpecSyncer создаёт SpecSyncer.
func NewSpecSyncer(cfg SpecSyncerConfig) *SpecSyncer {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &SpecSyncer{
		source:    cfg.Source,
		store:     cfg.Store,
		publisher: cfg.Publisher,
		now:       time.Now,
		logger:    logger,
	}
}

// SyncFromStorage перечисляет спецификации в хранилище и сохраняет изменения.
//
// Каждый документ попадает ровно в одну корзину: created, updated,
// unchanged или failed. Ошибка возвращается только если хранилище
// не удалось перечислить.
func (s *SpecSyncer) SyncFromStorage(ctx context.Context) (domain.SpecSyncResult, error) {
	docs, err := s.source.List(ctx)
	if err != nil {
		return domain.SpecSyncResult{}, fmt.Errorf("list specs: %w", err)
	}

	now := s.now()
	var tally domain.SpecSyncTally
	seen := make(map[string]string, len(docs)) // name → key

	for _, doc := range docs {
		spec, err := storage.ParseSpec(doc)
		if err != nil {
			tally.Fail(doc.Key, err)
			continue
		}

		if firstKey, dup := seen[spec.Name]; dup {
			tally.Fail(doc.Key, fmt.Errorf("%w %q, already defined in %s", ErrDuplicateSpec, spec.Name, firstKey))
			continue
		}
		seen[spec.Name] = doc.Key

		outcome, err := s.upsert(ctx, spec, now)
		if err != nil {
			tally.Fail(doc.Key, err)
			continue
		}

		switch outcome {
		case specCreated:
			tally.Created()
		case specUpdated:
			tally.Updated()
		default:
			tally.Unchanged()
		}
	}

	result := tally.Result(now)
	telemetry.ObserveSpecSync(result.Created, result.Updated, result.Unchanged(), result.Failed)

	s.logger.Info("spec sync completed",
		"processed", result.TotalProcessed,
		"created", result.Created,
		"updated", result.Updated,
		"failed", result.Failed,
	)

	if s.publisher != nil {
		if err := s.publisher.PublishSyncCompleted(ctx, EventKindSpecs, result); err != nil {
			s.logger.Warn("failed to publish sync event", "kind", EventKindSpecs, "error", err)
		}
	}

	return result, nil
}

// upsert сохраняет спецификацию, если она новая или изменилась.
func (s *SpecSyncer) upsert(ctx context.Context, spec *domain.WorkflowSpec, now time.Time) (specOutcome, error) {
	existing, err := s.store.GetByName(ctx, spec.Name)
	if errors.Is(err, repo.ErrNotFound) {
		spec.CreatedAt = now
		spec.UpdatedAt = now
		if err := s.store.Create(ctx, spec); err != nil {
			return 0, fmt.Errorf("create: %w", err)
		}
		return specCreated, nil
	}
	if err != nil {
		return 0, fmt.Errorf("lookup: %w", err)
	}

	if existing.Checksum == spec.Checksum {
		return specUnchanged, nil
	}

	spec.ID = existing.ID
	spec.CreatedAt = existing.CreatedAt
	spec.UpdatedAt = now
	if err := s.store.Update(ctx, spec); err != nil {
		return 0, fmt.Errorf("update: %w", err)
	}
	return specUpdated, nil
}
