package api

import (
	"net/http"

	"github.com/shaiso/FlowSync/internal/mq"
	"github.com/shaiso/FlowSync/internal/orchestrator"
	"github.com/shaiso/FlowSync/internal/telemetry"
)

// SyncSpecs синхронизирует спецификации из хранилища.
// POST /api/v1/airflow/sync/manual/specs
func (h *Handler) SyncSpecs(w http.ResponseWriter, r *http.Request) {
	if h.enqueueIfAsync(w, r, mq.SyncRequest{Kind: mq.SyncKindSpecs}) {
		return
	}

	result, err := h.specSync.SyncFromStorage(r.Context())
	if err != nil {
		InternalError(w, telemetry.FromContext(r.Context()), err)
		return
	}

	Success(w, SpecSyncFromDomain(result))
}

// SyncRuns синхронизирует runs всех кластеров.
// POST /api/v1/airflow/sync/manual/runs?lookbackHours=24&batchSize=100
func (h *Handler) SyncRuns(w http.ResponseWriter, r *http.Request) {
	lookback, batch, ok := syncWindow(w, r)
	if !ok {
		return
	}

	req := mq.SyncRequest{Kind: mq.SyncKindRuns, LookbackHours: lookback, BatchSize: batch}
	if h.enqueueIfAsync(w, r, req) {
		return
	}

	result, err := h.runSync.SyncAllClusters(r.Context(), lookback, batch)
	if err != nil {
		InternalError(w, telemetry.FromContext(r.Context()), err)
		return
	}

	Success(w, RunSyncFromDomain(result))
}

// SyncClusterRuns синхронизирует runs одного кластера.
// Неизвестный кластер (в том числе id <= 0) — 200 с success=false.
// POST /api/v1/airflow/sync/manual/runs/cluster/{clusterId}
func (h *Handler) SyncClusterRuns(w http.ResponseWriter, r *http.Request) {
	clusterID, err := pathInt64(r, "clusterId")
	if err != nil {
		BadRequest(w, err.Error())
		return
	}

	lookback, batch, ok := syncWindow(w, r)
	if !ok {
		return
	}

	req := mq.SyncRequest{Kind: mq.SyncKindCluster, ClusterID: clusterID, LookbackHours: lookback, BatchSize: batch}
	if h.enqueueIfAsync(w, r, req) {
		return
	}

	result := h.runSync.SyncCluster(r.Context(), clusterID, lookback, batch)
	Success(w, ClusterSyncFromDomain(result))
}

// SyncStaleRuns повторно синхронизирует устаревшие кластеры.
// POST /api/v1/airflow/sync/manual/runs/stale?staleThresholdHours=1
func (h *Handler) SyncStaleRuns(w http.ResponseWriter, r *http.Request) {
	threshold, err := queryPositiveInt(r, "staleThresholdHours", orchestrator.DefaultStaleThresholdHours)
	if err != nil {
		BadRequest(w, err.Error())
		return
	}

	req := mq.SyncRequest{Kind: mq.SyncKindStale, StaleThresholdHours: threshold}
	if h.enqueueIfAsync(w, r, req) {
		return
	}

	result, err := h.runSync.SyncStaleRuns(r.Context(), threshold)
	if err != nil {
		InternalError(w, telemetry.FromContext(r.Context()), err)
		return
	}

	Success(w, RunSyncFromDomain(result))
}

// syncWindow читает lookbackHours и batchSize; при ошибке ответ уже отправлен.
func syncWindow(w http.ResponseWriter, r *http.Request) (lookback, batch int, ok bool) {
	lookback, err := queryPositiveInt(r, "lookbackHours", orchestrator.DefaultLookbackHours)
	if err != nil {
		BadRequest(w, err.Error())
		return 0, 0, false
	}
	batch, err = queryPositiveInt(r, "batchSize", orchestrator.DefaultBatchSize)
	if err != nil {
		BadRequest(w, err.Error())
		return 0, 0, false
	}
	return lookback, batch, true
}

// enqueueIfAsync ставит запрос в очередь при ?async=true.
// Возвращает true, если ответ уже отправлен.
func (h *Handler) enqueueIfAsync(w http.ResponseWriter, r *http.Request, req mq.SyncRequest) bool {
	async, err := queryBool(r, "async")
	if err != nil {
		BadRequest(w, err.Error())
		return true
	}
	if !async {
		return false
	}

	// Запрос, который воркер отправил бы в DLQ, отклоняется сразу
	if err := req.Validate(); err != nil {
		BadRequest(w, err.Error())
		return true
	}

	if h.requests == nil {
		ServiceUnavailable(w, "asynchronous sync is not configured")
		return true
	}

	id, err := h.requests.PublishSyncRequest(r.Context(), req)
	if err != nil {
		InternalError(w, telemetry.FromContext(r.Context()), err)
		return true
	}

	telemetry.FromContext(r.Context()).Info("sync request enqueued", "kind", req.Kind, "request_id", id)
	Accepted(w, SyncAcceptedResponse{RequestID: id, Kind: req.Kind})
	return true
}
