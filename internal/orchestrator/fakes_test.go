package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shaiso/FlowSync/internal/domain"
	"github.com/shaiso/FlowSync/internal/repo"
	"github.com/shaiso/FlowSync/internal/storage"
)

// --- Cluster store ---

type fakeClusterStore struct {
	mu       sync.Mutex
	clusters map[int64]*domain.Cluster
	listErr  error
	synced   map[int64]time.Time

	// runs — опционально; ListStale учитывает зависшие runs так же, как SQL репозитория
	runs *fakeRunStore
}

func newFakeClusterStore(clusters ...domain.Cluster) *fakeClusterStore {
	s := &fakeClusterStore{
		clusters: make(map[int64]*domain.Cluster),
		synced:   make(map[int64]time.Time),
	}
	for i := range clusters {
		c := clusters[i]
		s.clusters[c.ID] = &c
	}
	return s
}

func (s *fakeClusterStore) GetByID(_ context.Context, id int64) (*domain.Cluster, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.clusters[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *fakeClusterStore) sorted() []domain.Cluster {
	out := make([]domain.Cluster, 0, len(s.clusters))
	for _, c := range s.clusters {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *fakeClusterStore) List(_ context.Context) ([]domain.Cluster, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.sorted(), nil
}

func (s *fakeClusterStore) ListStale(_ context.Context, cutoff time.Time) ([]domain.StaleCluster, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}

	var out []domain.StaleCluster
	for _, c := range s.sorted() {
		if !c.Enabled {
			continue
		}
		pending, since := s.runs.pending(c.ID, cutoff)
		if c.LastSyncedAt == nil || c.LastSyncedAt.Before(cutoff) || pending > 0 {
			out = append(out, domain.StaleCluster{Cluster: c, PendingSince: since})
		}
	}
	return out, nil
}

func (s *fakeClusterStore) MarkSynced(_ context.Context, id int64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.clusters[id]
	if !ok {
		return repo.ErrNotFound
	}
	c.LastSyncedAt = &at
	s.synced[id] = at
	return nil
}

// --- Run store ---

type fakeRunStore struct {
	mu    sync.Mutex
	runs  map[int64]map[domain.RunKey]domain.WorkflowRun
	err   error
	calls int

	// failFrom > 0 — UpsertRuns падает начиная с этого вызова
	failFrom int
}

func newFakeRunStore() *fakeRunStore {
	return &fakeRunStore{runs: make(map[int64]map[domain.RunKey]domain.WorkflowRun)}
}

func (s *fakeRunStore) seed(clusterID int64, runs ...domain.WorkflowRun) {
	if s.runs[clusterID] == nil {
		s.runs[clusterID] = make(map[domain.RunKey]domain.WorkflowRun)
	}
	for _, r := range runs {
		r.ClusterID = clusterID
		s.runs[clusterID][r.Key()] = r
	}
}

func (s *fakeRunStore) UpsertRuns(_ context.Context, clusterID int64, runs []domain.WorkflowRun, syncedAt time.Time) (repo.UpsertStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++

	var stats repo.UpsertStats
	if s.err != nil {
		return stats, s.err
	}
	if s.failFrom > 0 && s.calls >= s.failFrom {
		return stats, errors.New("connection reset")
	}
	if s.runs[clusterID] == nil {
		s.runs[clusterID] = make(map[domain.RunKey]domain.WorkflowRun)
	}

	for _, run := range runs {
		if run.ClusterID != clusterID {
			return repo.UpsertStats{}, fmt.Errorf("run %v belongs to cluster %d, not %d", run.Key(), run.ClusterID, clusterID)
		}
		prev, found := s.runs[clusterID][run.Key()]
		switch {
		case !found:
			stats.Created++
		case !prev.SameAs(&run):
			stats.Updated++
		default:
			stats.Unchanged++
		}
		run.SyncedAt = syncedAt
		s.runs[clusterID][run.Key()] = run
	}
	return stats, nil
}

// pending повторяет условие ListStale: незавершённые runs с synced_at до cutoff.
// Возвращает их число и самый ранний start_date.
func (s *fakeRunStore) pending(clusterID int64, cutoff time.Time) (int, *time.Time) {
	if s == nil {
		return 0, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	var since *time.Time
	for _, r := range s.runs[clusterID] {
		if r.State.IsTerminal() || !r.SyncedAt.Before(cutoff) {
			continue
		}
		count++
		if r.StartDate != nil && (since == nil || r.StartDate.Before(*since)) {
			start := *r.StartDate
			since = &start
		}
	}
	return count, since
}

func (s *fakeRunStore) get(clusterID int64, key domain.RunKey) (domain.WorkflowRun, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.runs[clusterID][key]
	return r, ok
}

// --- Run source ---

type pageCall struct {
	since  time.Time
	limit  int
	offset int
}

type fakeSource struct {
	mu    sync.Mutex
	runs  []domain.WorkflowRun
	err   error
	delay time.Duration
	calls []pageCall

	// filterSince — отдавать только runs, начавшиеся не раньше since, как Airflow
	filterSince bool
}

func (s *fakeSource) ListRuns(ctx context.Context, since time.Time, limit, offset int) ([]domain.WorkflowRun, error) {
	s.mu.Lock()
	s.calls = append(s.calls, pageCall{since: since, limit: limit, offset: offset})
	s.mu.Unlock()

	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.err != nil {
		return nil, s.err
	}
	runs := s.runs
	if s.filterSince {
		runs = nil
		for _, r := range s.runs {
			if r.StartDate != nil && !r.StartDate.Before(since) {
				runs = append(runs, r)
			}
		}
	}
	if offset >= len(runs) {
		return nil, nil
	}
	end := min(offset+limit, len(runs))
	page := make([]domain.WorkflowRun, end-offset)
	copy(page, runs[offset:end])
	return page, nil
}

func (s *fakeSource) recorded() []pageCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]pageCall, len(s.calls))
	copy(out, s.calls)
	return out
}

// sourcesByCluster возвращает фабрику, выдающую заранее заданные источники.
func sourcesByCluster(sources map[int64]*fakeSource) SourceFactory {
	return func(c *domain.Cluster) (RunSource, error) {
		src, ok := sources[c.ID]
		if !ok {
			return nil, errors.New("no client configured")
		}
		return src, nil
	}
}

// makeRuns создаёт n runs одного DAG в состоянии state.
func makeRuns(dagID string, n int, state domain.RunState) []domain.WorkflowRun {
	runs := make([]domain.WorkflowRun, n)
	base := time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC)
	for i := range runs {
		start := base.Add(time.Duration(i) * time.Minute)
		runs[i] = domain.WorkflowRun{
			DagID:     dagID,
			DagRunID:  fmt.Sprintf("scheduled__%03d", i),
			State:     state,
			RunType:   "scheduled",
			StartDate: &start,
		}
	}
	return runs
}

// --- Publisher ---

type publishedEvent struct {
	kind   string
	result any
}

type fakePublisher struct {
	mu     sync.Mutex
	events []publishedEvent
	err    error
}

func (p *fakePublisher) PublishSyncCompleted(_ context.Context, kind string, result any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{kind: kind, result: result})
	return p.err
}

// --- Spec source / store ---

type fakeSpecSource struct {
	docs []storage.Document
	err  error
}

func (s *fakeSpecSource) List(context.Context) ([]storage.Document, error) {
	return s.docs, s.err
}

type fakeSpecStore struct {
	specs     map[string]domain.WorkflowSpec
	nextID    int64
	createErr map[string]error
	lookupErr error
	updates   int
}

func newFakeSpecStore(specs ...domain.WorkflowSpec) *fakeSpecStore {
	s := &fakeSpecStore{specs: make(map[string]domain.WorkflowSpec), nextID: 100}
	for _, sp := range specs {
		s.specs[sp.Name] = sp
	}
	return s
}

func (s *fakeSpecStore) GetByName(_ context.Context, name string) (*domain.WorkflowSpec, error) {
	if s.lookupErr != nil {
		return nil, s.lookupErr
	}
	sp, ok := s.specs[name]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return &sp, nil
}

func (s *fakeSpecStore) Create(_ context.Context, spec *domain.WorkflowSpec) error {
	if err := s.createErr[spec.Name]; err != nil {
		return err
	}
	s.nextID++
	spec.ID = s.nextID
	s.specs[spec.Name] = *spec
	return nil
}

func (s *fakeSpecStore) Update(_ context.Context, spec *domain.WorkflowSpec) error {
	if _, ok := s.specs[spec.Name]; !ok {
		return repo.ErrNotFound
	}
	s.updates++
	s.specs[spec.Name] = *spec
	return nil
}
