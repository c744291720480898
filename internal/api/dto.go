package api

import (
	"sort"
	"time"

	"github.com/shaiso/FlowSync/internal/domain"
	"github.com/shaiso/FlowSync/internal/repo"
)

// Sync DTOs

// SpecSyncResponse — итог синхронизации спецификаций.
type SpecSyncResponse struct {
	TotalProcessed int       `json:"total_processed"`
	Created        int       `json:"created"`
	Updated        int       `json:"updated"`
	Failed         int       `json:"failed"`
	Errors         []string  `json:"errors"`
	SyncedAt       time.Time `json:"synced_at"`
	Success        bool      `json:"success"`
}

// SpecSyncFromDomain конвертирует domain.SpecSyncResult в SpecSyncResponse.
func SpecSyncFromDomain(r domain.SpecSyncResult) SpecSyncResponse {
	errs := r.Errors
	if errs == nil {
		errs = []string{}
	}
	return SpecSyncResponse{
		TotalProcessed: r.TotalProcessed,
		Created:        r.Created,
		Updated:        r.Updated,
		Failed:         r.Failed,
		Errors:         errs,
		SyncedAt:       r.SyncedAt,
		Success:        r.Success(),
	}
}

// ClusterSyncResponse — итог синхронизации одного кластера.
type ClusterSyncResponse struct {
	ClusterID      int64  `json:"cluster_id"`
	ClusterName    string `json:"cluster_name"`
	UpdatedCount   int    `json:"updated_count"`
	CreatedCount   int    `json:"created_count"`
	TotalProcessed int    `json:"total_processed"`
	Error          string `json:"error,omitempty"`
	Success        bool   `json:"success"`
}

// ClusterSyncFromDomain конвертирует domain.ClusterSyncResult в ClusterSyncResponse.
func ClusterSyncFromDomain(r domain.ClusterSyncResult) ClusterSyncResponse {
	return ClusterSyncResponse{
		ClusterID:      r.ClusterID,
		ClusterName:    r.ClusterName,
		UpdatedCount:   r.UpdatedCount,
		CreatedCount:   r.CreatedCount,
		TotalProcessed: r.TotalProcessed,
		Error:          r.Error,
		Success:        r.Success(),
	}
}

// RunSyncResponse — агрегированный итог синхронизации runs.
type RunSyncResponse struct {
	TotalClusters  int                   `json:"total_clusters"`
	ClusterResults []ClusterSyncResponse `json:"cluster_results"`
	SyncedAt       time.Time             `json:"synced_at"`
	TotalUpdated   int                   `json:"total_updated"`
	TotalCreated   int                   `json:"total_created"`
	FailedClusters int                   `json:"failed_clusters"`
	Success        bool                  `json:"success"`
}

// RunSyncFromDomain конвертирует domain.RunSyncResult в RunSyncResponse.
func RunSyncFromDomain(r domain.RunSyncResult) RunSyncResponse {
	results := make([]ClusterSyncResponse, len(r.ClusterResults))
	for i, cr := range r.ClusterResults {
		results[i] = ClusterSyncFromDomain(cr)
	}
	return RunSyncResponse{
		TotalClusters:  r.TotalClusters,
		ClusterResults: results,
		SyncedAt:       r.SyncedAt,
		TotalUpdated:   r.TotalUpdated,
		TotalCreated:   r.TotalCreated,
		FailedClusters: r.FailedClusters,
		Success:        r.Success(),
	}
}

// SyncAcceptedResponse — ответ на асинхронный запуск синхронизации.
type SyncAcceptedResponse struct {
	RequestID string `json:"request_id"`
	Kind      string `json:"kind"`
}

// Catalog DTOs

// ClusterResponse — кластер без учётных данных.
type ClusterResponse struct {
	ID           int64      `json:"id"`
	Name         string     `json:"name"`
	BaseURL      string     `json:"base_url"`
	Enabled      bool       `json:"enabled"`
	LastSyncedAt *time.Time `json:"last_synced_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// ClusterFromDomain конвертирует domain.Cluster в ClusterResponse.
func ClusterFromDomain(c domain.Cluster) ClusterResponse {
	return ClusterResponse{
		ID:           c.ID,
		Name:         c.Name,
		BaseURL:      c.BaseURL,
		Enabled:      c.Enabled,
		LastSyncedAt: c.LastSyncedAt,
		CreatedAt:    c.CreatedAt,
	}
}

// RunResponse — зеркалированный DAG run.
type RunResponse struct {
	ID              int64          `json:"id"`
	ClusterID       int64          `json:"cluster_id"`
	DagID           string         `json:"dag_id"`
	DagRunID        string         `json:"dag_run_id"`
	State           string         `json:"state"`
	RunType         string         `json:"run_type,omitempty"`
	LogicalDate     *time.Time     `json:"logical_date,omitempty"`
	StartDate       *time.Time     `json:"start_date,omitempty"`
	EndDate         *time.Time     `json:"end_date,omitempty"`
	DurationSec     *float64       `json:"duration_sec,omitempty"`
	ExternalTrigger bool           `json:"external_trigger"`
	Conf            map[string]any `json:"conf,omitempty"`
	SyncedAt        time.Time      `json:"synced_at"`
}

// RunFromDomain конвертирует domain.WorkflowRun в RunResponse.
func RunFromDomain(r domain.WorkflowRun) RunResponse {
	resp := RunResponse{
		ID:              r.ID,
		ClusterID:       r.ClusterID,
		DagID:           r.DagID,
		DagRunID:        r.DagRunID,
		State:           string(r.State),
		RunType:         r.RunType,
		LogicalDate:     r.LogicalDate,
		StartDate:       r.StartDate,
		EndDate:         r.EndDate,
		ExternalTrigger: r.ExternalTrigger,
		Conf:            r.Conf,
		SyncedAt:        r.SyncedAt,
	}
	if r.IsFinished() {
		sec := r.Duration().Seconds()
		resp.DurationSec = &sec
	}
	return resp
}

// SpecResponse — зеркалированная спецификация workflow.
type SpecResponse struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Owner       string    `json:"owner,omitempty"`
	Schedule    string    `json:"schedule,omitempty"`
	Tags        []string  `json:"tags"`
	Cluster     string    `json:"cluster,omitempty"`
	Checksum    string    `json:"checksum"`
	SourceKey   string    `json:"source_key"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// SpecFromDomain конвертирует domain.WorkflowSpec в SpecResponse.
func SpecFromDomain(s domain.WorkflowSpec) SpecResponse {
	tags := s.Tags
	if tags == nil {
		tags = []string{}
	}
	return SpecResponse{
		ID:          s.ID,
		Name:        s.Name,
		Description: s.Description,
		Owner:       s.Owner,
		Schedule:    s.Schedule,
		Tags:        tags,
		Cluster:     s.ClusterName,
		Checksum:    s.Checksum,
		SourceKey:   s.SourceKey,
		UpdatedAt:   s.UpdatedAt,
	}
}

// ClusterStatsResponse — количество runs кластера по состояниям.
type ClusterStatsResponse struct {
	ClusterID int64          `json:"cluster_id"`
	States    map[string]int `json:"states"`
	Total     int            `json:"total"`
}

// StatsFromCounts группирует счётчики по кластерам в порядке возрастания ID.
func StatsFromCounts(counts []repo.StateCount) []ClusterStatsResponse {
	byCluster := make(map[int64]*ClusterStatsResponse)
	for _, c := range counts {
		s, ok := byCluster[c.ClusterID]
		if !ok {
			s = &ClusterStatsResponse{ClusterID: c.ClusterID, States: make(map[string]int)}
			byCluster[c.ClusterID] = s
		}
		s.States[string(c.State)] += c.Count
		s.Total += c.Count
	}

	result := make([]ClusterStatsResponse, 0, len(byCluster))
	for _, s := range byCluster {
		result = append(result, *s)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ClusterID < result[j].ClusterID })
	return result
}

// Team DTOs

// CreateTeamRequest — запрос на создание команды.
type CreateTeamRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// UpdateTeamRequest — запрос на обновление команды.
type UpdateTeamRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
}

// TeamResponse — ответ с командой.
type TeamResponse struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TeamFromDomain конвертирует domain.Team в TeamResponse.
func TeamFromDomain(t domain.Team) TeamResponse {
	return TeamResponse{
		ID:          t.ID,
		Name:        t.Name,
		Description: t.Description,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

// AddMemberRequest — запрос на добавление участника.
type AddMemberRequest struct {
	UserID string `json:"user_id"`
	Role   string `json:"role,omitempty"` // OWNER или MEMBER (default)
}

// MemberResponse — участник команды.
type MemberResponse struct {
	TeamID  int64     `json:"team_id"`
	UserID  string    `json:"user_id"`
	Role    string    `json:"role"`
	AddedAt time.Time `json:"added_at"`
}

// MemberFromDomain конвертирует domain.TeamMember в MemberResponse.
func MemberFromDomain(m domain.TeamMember) MemberResponse {
	return MemberResponse{
		TeamID:  m.TeamID,
		UserID:  m.UserID,
		Role:    string(m.Role),
		AddedAt: m.AddedAt,
	}
}

// AddResourceRequest — запрос на закрепление ресурса.
type AddResourceRequest struct {
	ResourceType string `json:"resource_type"`
	ResourceID   string `json:"resource_id"`
}

// ResourceResponse — ресурс команды.
type ResourceResponse struct {
	TeamID       int64     `json:"team_id"`
	ResourceType string    `json:"resource_type"`
	ResourceID   string    `json:"resource_id"`
	AddedAt      time.Time `json:"added_at"`
}

// ResourceFromDomain конвертирует domain.TeamResource в ResourceResponse.
func ResourceFromDomain(r domain.TeamResource) ResourceResponse {
	return ResourceResponse{
		TeamID:       r.TeamID,
		ResourceType: string(r.ResourceType),
		ResourceID:   r.ResourceID,
		AddedAt:      r.AddedAt,
	}
}
