package api

import (
	"net/http"
	"strconv"

	"github.com/shaiso/FlowSync/internal/domain"
	"github.com/shaiso/FlowSync/internal/repo"
	"github.com/shaiso/FlowSync/internal/telemetry"
)

const (
	defaultRunLimit = 50
	maxRunLimit     = 500
)

// ListClusters возвращает реестр кластеров.
// GET /api/v1/airflow/clusters
func (h *Handler) ListClusters(w http.ResponseWriter, r *http.Request) {
	clusters, err := h.clusters.List(r.Context())
	if HandleRepoError(w, telemetry.FromContext(r.Context()), err, "") {
		return
	}

	result := make([]ClusterResponse, len(clusters))
	for i, c := range clusters {
		result[i] = ClusterFromDomain(c)
	}

	List(w, result, len(result))
}

// ListRuns возвращает зеркалированные runs с фильтрацией.
// GET /api/v1/airflow/runs?cluster_id=1&state=failed&limit=50&offset=0
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	filter := repo.RunFilter{}

	if v := r.URL.Query().Get("cluster_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			BadRequest(w, "invalid cluster_id")
			return
		}
		filter.ClusterID = &id
	}

	if v := r.URL.Query().Get("state"); v != "" {
		filter.State = domain.ParseRunState(v)
	}

	limit, err := queryPositiveInt(r, "limit", defaultRunLimit)
	if err != nil {
		BadRequest(w, err.Error())
		return
	}
	filter.Limit = min(limit, maxRunLimit)

	filter.Offset, err = queryNonNegativeInt(r, "offset", 0)
	if err != nil {
		BadRequest(w, err.Error())
		return
	}

	runs, err := h.runs.List(r.Context(), filter)
	if HandleRepoError(w, telemetry.FromContext(r.Context()), err, "") {
		return
	}

	result := make([]RunResponse, len(runs))
	for i, run := range runs {
		result[i] = RunFromDomain(run)
	}

	List(w, result, len(result))
}

// ListSpecs возвращает зеркалированные спецификации.
// GET /api/v1/airflow/specs
func (h *Handler) ListSpecs(w http.ResponseWriter, r *http.Request) {
	specs, err := h.specs.List(r.Context())
	if HandleRepoError(w, telemetry.FromContext(r.Context()), err, "") {
		return
	}

	result := make([]SpecResponse, len(specs))
	for i, s := range specs {
		result[i] = SpecFromDomain(s)
	}

	List(w, result, len(result))
}

// Stats возвращает количество runs по кластерам и состояниям.
// GET /api/v1/airflow/stats
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	counts, err := h.runs.CountByState(r.Context())
	if HandleRepoError(w, telemetry.FromContext(r.Context()), err, "") {
		return
	}

	result := StatsFromCounts(counts)
	List(w, result, len(result))
}
