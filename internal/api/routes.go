package api

import (
	"net/http"
)

// route — шаблон ServeMux и обработчик.
type route struct {
	pattern string
	handler http.HandlerFunc
}

// routes возвращает все маршруты API. Каждый шаблон должен быть в таблице политик.
func (h *Handler) routes() []route {
	return []route{
		// Ручная синхронизация
		{"POST /api/v1/airflow/sync/manual/specs", h.SyncSpecs},
		{"POST /api/v1/airflow/sync/manual/runs", h.SyncRuns},
		{"POST /api/v1/airflow/sync/manual/runs/cluster/{clusterId}", h.SyncClusterRuns},
		{"POST /api/v1/airflow/sync/manual/runs/stale", h.SyncStaleRuns},

		// Зеркало
		{"GET /api/v1/airflow/clusters", h.ListClusters},
		{"GET /api/v1/airflow/runs", h.ListRuns},
		{"GET /api/v1/airflow/specs", h.ListSpecs},
		{"GET /api/v1/airflow/stats", h.Stats},

		// Команды
		{"GET /api/v1/teams", h.ListTeams},
		{"POST /api/v1/teams", h.CreateTeam},
		{"GET /api/v1/teams/{id}", h.GetTeam},
		{"PUT /api/v1/teams/{id}", h.UpdateTeam},
		{"DELETE /api/v1/teams/{id}", h.DeleteTeam},

		{"GET /api/v1/teams/{id}/members", h.ListTeamMembers},
		{"POST /api/v1/teams/{id}/members", h.AddTeamMember},
		{"DELETE /api/v1/teams/{id}/members/{userId}", h.RemoveTeamMember},

		{"GET /api/v1/teams/{id}/resources", h.ListTeamResources},
		{"POST /api/v1/teams/{id}/resources", h.AddTeamResource},
		{"DELETE /api/v1/teams/{id}/resources/{type}/{resourceId}", h.RemoveTeamResource},
	}
}

// RegisterRoutes регистрирует все маршруты API.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// Middleware chain. Authorize последним: ему нужен r.Pattern
	chain := Chain(
		Recovery(h.logger),
		RequestID(h.logger),
		Logging(),
		Authenticate(h.tokens),
		Authorize(h.policy, h.logger),
	)

	for _, rt := range h.routes() {
		mux.Handle(rt.pattern, chain(rt.handler))
	}
}
