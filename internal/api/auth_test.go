package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shaiso/FlowSync/internal/domain"
	"github.com/shaiso/FlowSync/internal/telemetry"
)

var syncEndpoints = []string{
	"/api/v1/airflow/sync/manual/specs",
	"/api/v1/airflow/sync/manual/runs",
	"/api/v1/airflow/sync/manual/runs/cluster/1",
	"/api/v1/airflow/sync/manual/runs/stale",
}

func TestSyncEndpoints_Unauthenticated(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range syncEndpoints {
		for _, token := range []string{"", "unknown-token"} {
			rec := env.do(http.MethodPost, path, token, "")
			if rec.Code != http.StatusUnauthorized {
				t.Errorf("%s (token %q): expected 401, got %d", path, token, rec.Code)
			}
			if rec.Header().Get("WWW-Authenticate") == "" {
				t.Errorf("%s: 401 must carry WWW-Authenticate", path)
			}
		}
	}

	if len(env.runSync.calls) != 0 || env.specSync.calls != 0 {
		t.Error("sync components must not run for unauthenticated callers")
	}
}

func TestSyncEndpoints_UserForbidden(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range syncEndpoints {
		rec := env.do(http.MethodPost, path, userToken, "")
		if rec.Code != http.StatusForbidden {
			t.Errorf("%s: expected 403, got %d", path, rec.Code)
		}
	}

	if len(env.runSync.calls) != 0 || env.specSync.calls != 0 {
		t.Error("sync components must not run for non-admin callers")
	}
}

func TestSyncEndpoints_AdminAllowed(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range syncEndpoints {
		rec := env.do(http.MethodPost, path, adminToken, "")
		if rec.Code != http.StatusOK {
			t.Errorf("%s: expected 200, got %d: %s", path, rec.Code, rec.Body.String())
		}
	}
}

func TestReadEndpoints_UserAllowed(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{
		"/api/v1/airflow/clusters",
		"/api/v1/airflow/runs",
		"/api/v1/airflow/specs",
		"/api/v1/airflow/stats",
		"/api/v1/teams",
	} {
		if rec := env.do(http.MethodGet, path, userToken, ""); rec.Code != http.StatusOK {
			t.Errorf("%s: expected 200, got %d", path, rec.Code)
		}
		if rec := env.do(http.MethodGet, path, "", ""); rec.Code != http.StatusUnauthorized {
			t.Errorf("%s: expected 401 without token, got %d", path, rec.Code)
		}
	}
}

func TestTeamMutations_UserForbidden(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/api/v1/teams", userToken, `{"name": "data"}`)
	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", rec.Code)
	}
	if len(env.teams.teams) != 0 {
		t.Error("team must not be created")
	}
}

func TestAuthorize_UnknownPatternDenied(t *testing.T) {
	mux := http.NewServeMux()
	chain := Chain(
		Authenticate(map[string]domain.Principal{adminToken: {Subject: "ops", Role: domain.RoleAdmin}}),
		Authorize(Policy{}, telemetry.Discard()),
	)
	called := false
	mux.Handle("GET /api/v1/unlisted", chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/unlisted", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403 for route without policy, got %d", rec.Code)
	}
	if called {
		t.Error("handler must not be called")
	}
}

func TestDefaultPolicy_CoversAllRoutes(t *testing.T) {
	h := NewHandler(Config{Logger: telemetry.Discard()})
	policy := DefaultPolicy()

	routes := h.routes()
	for _, rt := range routes {
		if _, ok := policy[rt.pattern]; !ok {
			t.Errorf("route %q has no policy", rt.pattern)
		}
	}
	if len(policy) != len(routes) {
		t.Errorf("policy has %d entries for %d routes", len(policy), len(routes))
	}

	for pattern, role := range policy {
		if !strings.HasPrefix(pattern, "GET ") && role != domain.RoleAdmin {
			t.Errorf("mutating route %q must require ADMIN", pattern)
		}
	}
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"Bearer abc", "abc"},
		{"bearer abc", "abc"},
		{"Bearer  abc ", "abc"},
		{"Basic abc", ""},
		{"abc", ""},
		{"", ""},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if tt.header != "" {
			req.Header.Set("Authorization", tt.header)
		}
		if got := bearerToken(req); got != tt.want {
			t.Errorf("%q: expected %q, got %q", tt.header, tt.want, got)
		}
	}
}

func TestRequestID(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/api/v1/teams", userToken, "")
	if rec.Header().Get(HeaderRequestID) == "" {
		t.Error("response should carry a generated request id")
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/teams", nil)
	req.Header.Set("Authorization", "Bearer "+userToken)
	req.Header.Set(HeaderRequestID, "trace-42")
	rec = httptest.NewRecorder()
	env.mux.ServeHTTP(rec, req)
	if got := rec.Header().Get(HeaderRequestID); got != "trace-42" {
		t.Errorf("incoming request id should be kept, got %q", got)
	}
}
