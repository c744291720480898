package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

// recordedRequest — запрос, полученный тестовым сервером.
type recordedRequest struct {
	method string
	uri    string
	auth   string
	body   map[string]any
}

// newTestServer отвечает status и body на любой запрос и записывает запросы.
func newTestServer(t *testing.T, status int, body string) (*httptest.Server, *[]recordedRequest) {
	t.Helper()
	var requests []recordedRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := recordedRequest{
			method: r.Method,
			uri:    r.URL.RequestURI(),
			auth:   r.Header.Get("Authorization"),
		}
		if data, _ := io.ReadAll(r.Body); len(data) > 0 {
			if err := json.Unmarshal(data, &rec.body); err != nil {
				t.Errorf("request body is not JSON: %s", data)
			}
		}
		requests = append(requests, rec)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)

	return srv, &requests
}

// execute запускает команду так же, как cmd/flowsync-cli.
func execute(t *testing.T, srv *httptest.Server, jsonMode bool, newCmd func(func() *Client, func() *Output) *cobra.Command, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var out, errOut bytes.Buffer

	clientFn := func() *Client { return NewClient(srv.URL, "secret-token") }
	outputFn := func() *Output { return NewOutputTo(jsonMode, &out, &errOut) }

	cmd := newCmd(clientFn, outputFn)
	cmd.SetArgs(args)
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SilenceUsage = true

	err = cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestSyncRuns_SendsParamsAndToken(t *testing.T) {
	srv, requests := newTestServer(t, http.StatusOK, `{"data": {
		"total_clusters": 1, "total_updated": 10, "total_created": 0, "failed_clusters": 0, "success": true,
		"cluster_results": [{"cluster_id": 1, "cluster_name": "data-platform", "updated_count": 10, "total_processed": 10, "success": true}]
	}}`)

	stdout, stderr, err := execute(t, srv, false, NewSyncCmd, "runs", "--lookback-hours", "48", "--batch-size", "200")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	req := (*requests)[0]
	if req.method != http.MethodPost {
		t.Errorf("expected POST, got %s", req.method)
	}
	if req.uri != "/api/v1/airflow/sync/manual/runs?batchSize=200&lookbackHours=48" {
		t.Errorf("unexpected uri: %s", req.uri)
	}
	if req.auth != "Bearer secret-token" {
		t.Errorf("unexpected auth header: %q", req.auth)
	}

	if !strings.Contains(stdout, "data-platform") {
		t.Errorf("table should list the cluster: %s", stdout)
	}
	if !strings.Contains(stderr, "updated: 10") {
		t.Errorf("summary missing: %s", stderr)
	}
}

func TestSyncRuns_DefaultsAreLeftToServer(t *testing.T) {
	srv, requests := newTestServer(t, http.StatusOK, `{"data": {"cluster_results": [], "success": true}}`)

	if _, _, err := execute(t, srv, false, NewSyncCmd, "runs"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if uri := (*requests)[0].uri; uri != "/api/v1/airflow/sync/manual/runs" {
		t.Errorf("expected no query parameters, got %s", uri)
	}
}

func TestSyncCluster_Failure(t *testing.T) {
	srv, requests := newTestServer(t, http.StatusOK, `{"data": {
		"cluster_id": 42, "success": false, "error": "Cluster not found: 42"
	}}`)

	stdout, _, err := execute(t, srv, false, NewSyncCmd, "cluster", "42")
	if err == nil || !strings.Contains(err.Error(), "Cluster not found: 42") {
		t.Errorf("expected failure to surface, got %v", err)
	}
	if uri := (*requests)[0].uri; uri != "/api/v1/airflow/sync/manual/runs/cluster/42" {
		t.Errorf("unexpected uri: %s", uri)
	}
	if !strings.Contains(stdout, "Cluster not found: 42") {
		t.Errorf("table should show the error: %s", stdout)
	}
}

func TestSyncCluster_InvalidID(t *testing.T) {
	srv, requests := newTestServer(t, http.StatusOK, `{}`)

	if _, _, err := execute(t, srv, false, NewSyncCmd, "cluster", "abc"); err == nil {
		t.Error("expected error for invalid id")
	}
	if len(*requests) != 0 {
		t.Error("no request should be sent")
	}
}

func TestSync_Async(t *testing.T) {
	srv, requests := newTestServer(t, http.StatusAccepted, `{"data": {"request_id": "req-1", "kind": "stale"}}`)

	stdout, stderr, err := execute(t, srv, true, NewSyncCmd, "stale", "--threshold-hours", "2", "--async")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if uri := (*requests)[0].uri; uri != "/api/v1/airflow/sync/manual/runs/stale?async=true&staleThresholdHours=2" {
		t.Errorf("unexpected uri: %s", uri)
	}
	if !strings.Contains(stderr, "req-1") {
		t.Errorf("expected request id in stderr: %s", stderr)
	}

	var accepted SyncAcceptedResponse
	if err := json.Unmarshal([]byte(stdout), &accepted); err != nil {
		t.Fatalf("stdout is not JSON: %v", err)
	}
	if accepted.Kind != "stale" {
		t.Errorf("unexpected kind: %s", accepted.Kind)
	}
}

func TestClient_APIError(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusForbidden, `{"error": {"code": "FORBIDDEN", "message": "insufficient role"}}`)

	_, err := NewClient(srv.URL, "").SyncSpecs()
	if err == nil || err.Error() != "FORBIDDEN: insufficient role" {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestClient_NonJSONError(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusBadGateway, `bad gateway`)

	_, err := NewClient(srv.URL, "").ListClusters()
	if err == nil || err.Error() != "API error: HTTP 502" {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestClient_EnqueueUnknownKind(t *testing.T) {
	if _, err := NewClient("http://localhost", "").EnqueueSync("flows", 0, SyncOpts{}); err == nil {
		t.Error("expected error for unknown kind")
	}
}

func TestRunList_Filters(t *testing.T) {
	srv, requests := newTestServer(t, http.StatusOK, `{"data": [
		{"id": 7, "cluster_id": 2, "dag_id": "etl", "dag_run_id": "r1", "state": "failed", "duration_sec": 90}
	], "total": 1}`)

	stdout, _, err := execute(t, srv, false, NewRunCmd, "list", "--cluster", "2", "--state", "failed", "--limit", "10")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if uri := (*requests)[0].uri; uri != "/api/v1/airflow/runs?cluster_id=2&limit=10&state=failed" {
		t.Errorf("unexpected uri: %s", uri)
	}
	if !strings.Contains(stdout, "90s") || !strings.Contains(stdout, "etl") {
		t.Errorf("unexpected table: %s", stdout)
	}
}

func TestTeamMemberAdd(t *testing.T) {
	srv, requests := newTestServer(t, http.StatusCreated, `{"data": {"team_id": 1, "user_id": "alice", "role": "OWNER"}}`)

	_, stderr, err := execute(t, srv, false, NewTeamCmd, "member", "add", "1", "alice", "--role", "owner")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	req := (*requests)[0]
	if req.uri != "/api/v1/teams/1/members" || req.body["user_id"] != "alice" || req.body["role"] != "owner" {
		t.Errorf("unexpected request: %+v", req)
	}
	if !strings.Contains(stderr, "Member added: alice") {
		t.Errorf("unexpected stderr: %s", stderr)
	}
}

func TestTeamUpdate_RequiresChanges(t *testing.T) {
	srv, requests := newTestServer(t, http.StatusOK, `{}`)

	if _, _, err := execute(t, srv, false, NewTeamCmd, "update", "1"); err == nil {
		t.Error("expected error without flags")
	}
	if len(*requests) != 0 {
		t.Error("no request should be sent")
	}
}

func TestTeamResourceRemove(t *testing.T) {
	srv, requests := newTestServer(t, http.StatusNoContent, ``)

	if _, _, err := execute(t, srv, false, NewTeamCmd, "resource", "remove", "3", "DAG", "etl daily"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	req := (*requests)[0]
	if req.method != http.MethodDelete || req.uri != "/api/v1/teams/3/resources/DAG/etl%20daily" {
		t.Errorf("unexpected request: %s %s", req.method, req.uri)
	}
}
