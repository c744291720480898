package telemetry

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	clusterSyncTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "flowsync_cluster_sync_total",
		Help: "Cluster run syncs by cluster and outcome",
	}, []string{"cluster", "status"})

	clusterSyncDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "flowsync_cluster_sync_duration_seconds",
		Help:    "Duration of a single cluster run sync",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
	}, []string{"cluster"})

	runsReconciled = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "flowsync_runs_reconciled_total",
		Help: "Runs reconciled against local state by outcome",
	}, []string{"outcome"})

	specSyncTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "flowsync_specs_synced_total",
		Help: "Workflow specs processed by outcome",
	}, []string{"outcome"})

	airflowRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "flowsync_airflow_requests_total",
		Help: "Airflow REST API requests by cluster and status code",
	}, []string{"cluster", "code"})

	mqMessages = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "flowsync_mq_messages_total",
		Help: "Broker messages by direction and outcome",
	}, []string{"direction", "outcome"})

	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "flowsync_http_requests_total",
		Help: "HTTP requests by method, route pattern and status",
	}, []string{"method", "pattern", "status"})
)

// ObserveClusterSync фиксирует исход синхронизации одного кластера.
func ObserveClusterSync(cluster string, success bool, elapsed time.Duration) {
	status := "success"
	if !success {
		status = "failure"
	}
	clusterSyncTotal.WithLabelValues(cluster, status).Inc()
	clusterSyncDuration.WithLabelValues(cluster).Observe(elapsed.Seconds())
}

// ObserveRunsReconciled фиксирует исходы сверки runs.
func ObserveRunsReconciled(created, updated, unchanged int) {
	runsReconciled.WithLabelValues("created").Add(float64(created))
	runsReconciled.WithLabelValues("updated").Add(float64(updated))
	runsReconciled.WithLabelValues("unchanged").Add(float64(unchanged))
}

// ObserveSpecSync фиксирует исходы синхронизации спецификаций.
func ObserveSpecSync(created, updated, unchanged, failed int) {
	specSyncTotal.WithLabelValues("created").Add(float64(created))
	specSyncTotal.WithLabelValues("updated").Add(float64(updated))
	specSyncTotal.WithLabelValues("unchanged").Add(float64(unchanged))
	specSyncTotal.WithLabelValues("failed").Add(float64(failed))
}

// ObserveHTTPRequest фиксирует обработанный HTTP запрос.
// pattern — шаблон маршрута ServeMux, а не сырой путь, чтобы не плодить серии.
func ObserveHTTPRequest(method, pattern string, status int) {
	if pattern == "" {
		pattern = "unmatched"
	}
	httpRequests.WithLabelValues(method, pattern, strconv.Itoa(status)).Inc()
}

// ObserveAirflowRequest фиксирует запрос к Airflow. code 0 означает сетевую ошибку.
func ObserveAirflowRequest(cluster string, code int) {
	label := strconv.Itoa(code)
	if code == 0 {
		label = "error"
	}
	airflowRequests.WithLabelValues(cluster, label).Inc()
}

// ObserveMessage фиксирует отправленное или полученное сообщение брокера.
func ObserveMessage(direction, outcome string) {
	mqMessages.WithLabelValues(direction, outcome).Inc()
}
