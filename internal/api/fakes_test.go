package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shaiso/FlowSync/internal/domain"
	"github.com/shaiso/FlowSync/internal/mq"
	"github.com/shaiso/FlowSync/internal/repo"
	"github.com/shaiso/FlowSync/internal/telemetry"
)

const (
	adminToken = "admin-token"
	userToken  = "user-token"
)

var testNow = time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)

// --- Sync services ---

type syncCall struct {
	op        string
	clusterID int64
	lookback  int
	batch     int
	threshold int
}

type fakeRunSync struct {
	mu      sync.Mutex
	calls   []syncCall
	all     domain.RunSyncResult
	allErr  error
	cluster func(id int64) domain.ClusterSyncResult
}

func (f *fakeRunSync) record(c syncCall) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, c)
}

func (f *fakeRunSync) SyncAllClusters(_ context.Context, lookback, batch int) (domain.RunSyncResult, error) {
	f.record(syncCall{op: "all", lookback: lookback, batch: batch})
	return f.all, f.allErr
}

func (f *fakeRunSync) SyncCluster(_ context.Context, id int64, lookback, batch int) domain.ClusterSyncResult {
	f.record(syncCall{op: "cluster", clusterID: id, lookback: lookback, batch: batch})
	if f.cluster != nil {
		return f.cluster(id)
	}
	return domain.ClusterNotFound(id)
}

func (f *fakeRunSync) SyncStaleRuns(_ context.Context, threshold int) (domain.RunSyncResult, error) {
	f.record(syncCall{op: "stale", threshold: threshold})
	return f.all, f.allErr
}

type fakeSpecSync struct {
	result domain.SpecSyncResult
	err    error
	calls  int
}

func (f *fakeSpecSync) SyncFromStorage(context.Context) (domain.SpecSyncResult, error) {
	f.calls++
	return f.result, f.err
}

type fakeRequests struct {
	sent []mq.SyncRequest
	err  error
}

func (f *fakeRequests) PublishSyncRequest(_ context.Context, req mq.SyncRequest) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.sent = append(f.sent, req)
	return "req-1", nil
}

// --- Catalog ---

type fakeClusters struct {
	clusters []domain.Cluster
}

func (f *fakeClusters) List(context.Context) ([]domain.Cluster, error) {
	return f.clusters, nil
}

type fakeRuns struct {
	lastFilter repo.RunFilter
	runs       []domain.WorkflowRun
	counts     []repo.StateCount
}

func (f *fakeRuns) List(_ context.Context, filter repo.RunFilter) ([]domain.WorkflowRun, error) {
	f.lastFilter = filter
	return f.runs, nil
}

func (f *fakeRuns) CountByState(context.Context) ([]repo.StateCount, error) {
	return f.counts, nil
}

type fakeSpecs struct {
	specs []domain.WorkflowSpec
}

func (f *fakeSpecs) List(context.Context) ([]domain.WorkflowSpec, error) {
	return f.specs, nil
}

// --- Teams ---

type fakeTeams struct {
	mu        sync.Mutex
	nextID    int64
	teams     map[int64]domain.Team
	members   map[int64][]domain.TeamMember
	resources map[int64][]domain.TeamResource
}

func newFakeTeams() *fakeTeams {
	return &fakeTeams{
		teams:     make(map[int64]domain.Team),
		members:   make(map[int64][]domain.TeamMember),
		resources: make(map[int64][]domain.TeamResource),
	}
}

func (f *fakeTeams) List(context.Context) ([]domain.Team, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Team
	for _, t := range f.teams {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeTeams) GetByID(_ context.Context, id int64) (*domain.Team, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.teams[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return &t, nil
}

func (f *fakeTeams) nameTaken(name string, except int64) bool {
	for id, t := range f.teams {
		if id != except && strings.EqualFold(t.Name, name) {
			return true
		}
	}
	return false
}

func (f *fakeTeams) Create(_ context.Context, team *domain.Team) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.nameTaken(team.Name, 0) {
		return repo.ErrAlreadyExists
	}
	f.nextID++
	team.ID = f.nextID
	f.teams[team.ID] = *team
	return nil
}

func (f *fakeTeams) Update(_ context.Context, team *domain.Team) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.teams[team.ID]; !ok {
		return repo.ErrNotFound
	}
	if f.nameTaken(team.Name, team.ID) {
		return repo.ErrAlreadyExists
	}
	f.teams[team.ID] = *team
	return nil
}

func (f *fakeTeams) Delete(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.teams[id]; !ok {
		return repo.ErrNotFound
	}
	delete(f.teams, id)
	delete(f.members, id)
	delete(f.resources, id)
	return nil
}

func (f *fakeTeams) ListMembers(_ context.Context, teamID int64) ([]domain.TeamMember, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.members[teamID], nil
}

func (f *fakeTeams) AddMember(_ context.Context, m *domain.TeamMember) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.teams[m.TeamID]; !ok {
		return repo.ErrNotFound
	}
	for _, existing := range f.members[m.TeamID] {
		if existing.UserID == m.UserID {
			return repo.ErrAlreadyExists
		}
	}
	f.members[m.TeamID] = append(f.members[m.TeamID], *m)
	return nil
}

func (f *fakeTeams) RemoveMember(_ context.Context, teamID int64, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	members := f.members[teamID]
	for i, m := range members {
		if m.UserID == userID {
			f.members[teamID] = append(members[:i], members[i+1:]...)
			return nil
		}
	}
	return repo.ErrNotFound
}

func (f *fakeTeams) ListResources(_ context.Context, teamID int64) ([]domain.TeamResource, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.resources[teamID], nil
}

func (f *fakeTeams) AddResource(_ context.Context, res *domain.TeamResource) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.teams[res.TeamID]; !ok {
		return repo.ErrNotFound
	}
	f.resources[res.TeamID] = append(f.resources[res.TeamID], *res)
	return nil
}

func (f *fakeTeams) RemoveResource(_ context.Context, teamID int64, rt domain.ResourceType, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	list := f.resources[teamID]
	for i, r := range list {
		if r.ResourceType == rt && r.ResourceID == id {
			f.resources[teamID] = append(list[:i], list[i+1:]...)
			return nil
		}
	}
	return repo.ErrNotFound
}

// --- Test server ---

type testEnv struct {
	runSync  *fakeRunSync
	specSync *fakeSpecSync
	requests *fakeRequests
	clusters *fakeClusters
	runs     *fakeRuns
	specs    *fakeSpecs
	teams    *fakeTeams
	mux      *http.ServeMux
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		runSync:  &fakeRunSync{},
		specSync: &fakeSpecSync{},
		requests: &fakeRequests{},
		clusters: &fakeClusters{},
		runs:     &fakeRuns{},
		specs:    &fakeSpecs{},
		teams:    newFakeTeams(),
		mux:      http.NewServeMux(),
	}

	h := NewHandler(Config{
		RunSync:  env.runSync,
		SpecSync: env.specSync,
		Requests: env.requests,
		Clusters: env.clusters,
		Runs:     env.runs,
		Specs:    env.specs,
		Teams:    env.teams,
		Tokens: map[string]domain.Principal{
			adminToken: {Subject: "ops", Role: domain.RoleAdmin},
			userToken:  {Subject: "analyst", Role: domain.RoleUser},
		},
		Logger: telemetry.Discard(),
	})
	h.now = func() time.Time { return testNow }
	h.RegisterRoutes(env.mux)
	return env
}

// do выполняет запрос к тестовому серверу.
func (e *testEnv) do(method, target, token, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	e.mux.ServeHTTP(rec, req)
	return rec
}

var errBoom = errors.New("boom")
