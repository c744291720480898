package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// --- Response types (дублируются из api/dto.go, CLI не импортирует internal/api) ---

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

// RunSyncResponse — итог синхронизации runs по нескольким кластерам.
type RunSyncResponse struct {
	TotalClusters  int                   `json:"total_clusters"`
	ClusterResults []ClusterSyncResponse `json:"cluster_results"`
	SyncedAt       string                `json:"synced_at"`
	TotalUpdated   int                   `json:"total_updated"`
	TotalCreated   int                   `json:"total_created"`
	FailedClusters int                   `json:"failed_clusters"`
	Success        bool                  `json:"success"`
}

// SpecSyncResponse — итог синхронизации спецификаций.
type SpecSyncResponse struct {
	TotalProcessed int      `json:"total_processed"`
	Created        int      `json:"created"`
	Updated        int      `json:"updated"`
	Failed         int      `json:"failed"`
	Errors         []string `json:"errors"`
	SyncedAt       string   `json:"synced_at"`
	Success        bool     `json:"success"`
}

// SyncAcceptedResponse — запрос поставлен в очередь.
type SyncAcceptedResponse struct {
	RequestID string `json:"request_id"`
	Kind      string `json:"kind"`
}

// ClusterResponse — кластер из реестра.
type ClusterResponse struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	BaseURL      string `json:"base_url"`
	Enabled      bool   `json:"enabled"`
	LastSyncedAt string `json:"last_synced_at,omitempty"`
	CreatedAt    string `json:"created_at"`
}

// RunResponse — зеркалированный DAG run.
type RunResponse struct {
	ID          int64    `json:"id"`
	ClusterID   int64    `json:"cluster_id"`
	DagID       string   `json:"dag_id"`
	DagRunID    string   `json:"dag_run_id"`
	State       string   `json:"state"`
	RunType     string   `json:"run_type,omitempty"`
	StartDate   string   `json:"start_date,omitempty"`
	EndDate     string   `json:"end_date,omitempty"`
	DurationSec *float64 `json:"duration_sec,omitempty"`
	SyncedAt    string   `json:"synced_at"`
}

// TeamResponse — команда.
type TeamResponse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

// MemberResponse — участник команды.
type MemberResponse struct {
	TeamID  int64  `json:"team_id"`
	UserID  string `json:"user_id"`
	Role    string `json:"role"`
	AddedAt string `json:"added_at"`
}

// ResourceResponse — ресурс команды.
type ResourceResponse struct {
	TeamID       int64  `json:"team_id"`
	ResourceType string `json:"resource_type"`
	ResourceID   string `json:"resource_id"`
	AddedAt      string `json:"added_at"`
}

// --- Request types ---

// SyncOpts — параметры синхронизации. Нулевые значения не передаются,
// и сервер подставляет свои значения по умолчанию.
type SyncOpts struct {
	LookbackHours       int
	BatchSize           int
	StaleThresholdHours int
}

func (o SyncOpts) values() url.Values {
	params := url.Values{}
	if o.LookbackHours > 0 {
		params.Set("lookbackHours", strconv.Itoa(o.LookbackHours))
	}
	if o.BatchSize > 0 {
		params.Set("batchSize", strconv.Itoa(o.BatchSize))
	}
	if o.StaleThresholdHours > 0 {
		params.Set("staleThresholdHours", strconv.Itoa(o.StaleThresholdHours))
	}
	return params
}

// ListRunsOpts — параметры фильтрации runs.
type ListRunsOpts struct {
	ClusterID int64
	State     string
	Limit     int
	Offset    int
}

// UpdateTeamRequest — обновление команды.
type UpdateTeamRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
}

// --- API response wrappers ---

type dataResponse struct {
	Data json.RawMessage `json:"data"`
}

type listResponse struct {
	Data  json.RawMessage `json:"data"`
	Total int             `json:"total"`
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// --- Client ---

const syncBase = "/api/v1/airflow/sync/manual"

// Client — HTTP-клиент для FlowSync API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient создаёт клиент для API. Пустой token — запросы без авторизации.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			// Синхронизация всех кластеров может идти несколько минут
			Timeout: 10 * time.Minute,
		},
	}
}

// --- Sync ---

// SyncSpecs синхронизирует спецификации из хранилища.
func (c *Client) SyncSpecs() (*SpecSyncResponse, error) {
	var result SpecSyncResponse
	err := c.post(syncBase+"/specs", nil, &result)
	return &result, err
}

// SyncRuns синхронизирует runs всех включённых кластеров.
func (c *Client) SyncRuns(opts SyncOpts) (*RunSyncResponse, error) {
	var result RunSyncResponse
	err := c.post(withQuery(syncBase+"/runs", opts.values()), nil, &result)
	return &result, err
}

// SyncCluster синхронизирует runs одного кластера.
func (c *Client) SyncCluster(clusterID int64, opts SyncOpts) (*ClusterSyncResponse, error) {
	var result ClusterSyncResponse
	err := c.post(withQuery(clusterSyncPath(clusterID), opts.values()), nil, &result)
	return &result, err
}

// SyncStale повторно синхронизирует устаревшие кластеры.
func (c *Client) SyncStale(opts SyncOpts) (*RunSyncResponse, error) {
	var result RunSyncResponse
	err := c.post(withQuery(syncBase+"/runs/stale", opts.values()), nil, &result)
	return &result, err
}

// EnqueueSync ставит синхронизацию вида kind в очередь воркера.
func (c *Client) EnqueueSync(kind string, clusterID int64, opts SyncOpts) (*SyncAcceptedResponse, error) {
	var path string
	switch kind {
	case "specs":
		path = syncBase + "/specs"
	case "runs":
		path = syncBase + "/runs"
	case "cluster":
		path = clusterSyncPath(clusterID)
	case "stale":
		path = syncBase + "/runs/stale"
	default:
		return nil, fmt.Errorf("unknown sync kind: %s", kind)
	}

	params := opts.values()
	params.Set("async", "true")

	var result SyncAcceptedResponse
	err := c.post(withQuery(path, params), nil, &result)
	return &result, err
}

func clusterSyncPath(clusterID int64) string {
	return syncBase + "/runs/cluster/" + strconv.FormatInt(clusterID, 10)
}

// --- Catalog ---

// ListClusters возвращает реестр кластеров.
func (c *Client) ListClusters() ([]ClusterResponse, error) {
	var clusters []ClusterResponse
	err := c.list("/api/v1/airflow/clusters", nil, &clusters)
	return clusters, err
}

// ListRuns возвращает зеркалированные runs с фильтрацией.
func (c *Client) ListRuns(opts ListRunsOpts) ([]RunResponse, error) {
	params := url.Values{}
	if opts.ClusterID > 0 {
		params.Set("cluster_id", strconv.FormatInt(opts.ClusterID, 10))
	}
	if opts.State != "" {
		params.Set("state", opts.State)
	}
	if opts.Limit > 0 {
		params.Set("limit", strconv.Itoa(opts.Limit))
	}
	if opts.Offset > 0 {
		params.Set("offset", strconv.Itoa(opts.Offset))
	}

	var runs []RunResponse
	err := c.list("/api/v1/airflow/runs", params, &runs)
	return runs, err
}

// --- Teams ---

// ListTeams возвращает все команды.
func (c *Client) ListTeams() ([]TeamResponse, error) {
	var teams []TeamResponse
	err := c.list("/api/v1/teams", nil, &teams)
	return teams, err
}

// CreateTeam создаёт команду.
func (c *Client) CreateTeam(name, description string) (*TeamResponse, error) {
	body := map[string]string{"name": name, "description": description}
	var team TeamResponse
	err := c.post("/api/v1/teams", body, &team)
	return &team, err
}

// GetTeam возвращает команду по ID.
func (c *Client) GetTeam(id string) (*TeamResponse, error) {
	var team TeamResponse
	err := c.get("/api/v1/teams/"+id, &team)
	return &team, err
}

// UpdateTeam обновляет команду.
func (c *Client) UpdateTeam(id string, req UpdateTeamRequest) (*TeamResponse, error) {
	var team TeamResponse
	err := c.put("/api/v1/teams/"+id, req, &team)
	return &team, err
}

// DeleteTeam удаляет команду.
func (c *Client) DeleteTeam(id string) error {
	return c.delete("/api/v1/teams/" + id)
}

// ListMembers возвращает участников команды.
func (c *Client) ListMembers(teamID string) ([]MemberResponse, error) {
	var members []MemberResponse
	err := c.list("/api/v1/teams/"+teamID+"/members", nil, &members)
	return members, err
}

// AddMember добавляет участника. Пустая role — MEMBER.
func (c *Client) AddMember(teamID, userID, role string) (*MemberResponse, error) {
	body := map[string]string{"user_id": userID, "role": role}
	var member MemberResponse
	err := c.post("/api/v1/teams/"+teamID+"/members", body, &member)
	return &member, err
}

// RemoveMember удаляет участника.
func (c *Client) RemoveMember(teamID, userID string) error {
	return c.delete("/api/v1/teams/" + teamID + "/members/" + url.PathEscape(userID))
}

// ListResources возвращает ресурсы команды.
func (c *Client) ListResources(teamID string) ([]ResourceResponse, error) {
	var resources []ResourceResponse
	err := c.list("/api/v1/teams/"+teamID+"/resources", nil, &resources)
	return resources, err
}

// AddResource закрепляет ресурс за командой.
func (c *Client) AddResource(teamID, resourceType, resourceID string) (*ResourceResponse, error) {
	body := map[string]string{"resource_type": resourceType, "resource_id": resourceID}
	var res ResourceResponse
	err := c.post("/api/v1/teams/"+teamID+"/resources", body, &res)
	return &res, err
}

// RemoveResource открепляет ресурс.
func (c *Client) RemoveResource(teamID, resourceType, resourceID string) error {
	return c.delete("/api/v1/teams/" + teamID + "/resources/" + url.PathEscape(resourceType) + "/" + url.PathEscape(resourceID))
}

// --- HTTP helpers ---

func withQuery(path string, params url.Values) string {
	if len(params) == 0 {
		return path
	}
	return path + "?" + params.Encode()
}

func (c *Client) get(path string, result any) error {
	return c.doData(http.MethodGet, path, nil, result)
}

func (c *Client) post(path string, body any, result any) error {
	return c.doData(http.MethodPost, path, body, result)
}

func (c *Client) put(path string, body any, result any) error {
	return c.doData(http.MethodPut, path, body, result)
}

func (c *Client) delete(path string) error {
	resp, err := c.do(http.MethodDelete, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return c.checkError(resp)
}

func (c *Client) list(path string, params url.Values, result any) error {
	resp, err := c.do(http.MethodGet, withQuery(path, params), nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return err
	}

	var lr listResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return json.Unmarshal(lr.Data, result)
}

func (c *Client) doData(method, path string, body any, result any) error {
	resp, err := c.do(method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return err
	}

	// 204 No Content
	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	var dr dataResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if result != nil {
		return json.Unmarshal(dr.Data, result)
	}
	return nil
}

func (c *Client) do(method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	return c.httpClient.Do(req)
}

func (c *Client) checkError(resp *http.Response) error {
	if resp.StatusCode < 400 {
		return nil
	}

	var er errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil || er.Error.Code == "" {
		return fmt.Errorf("API error: HTTP %d", resp.StatusCode)
	}

	return fmt.Errorf("%s: %s", er.Error.Code, er.Error.Message)
}
