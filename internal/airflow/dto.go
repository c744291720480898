package airflow

import (
	"time"

	"github.com/shaiso/FlowSync/internal/domain"
)

// dagRunCollection — ответ GET /api/v1/dags/~/dagRuns.
type dagRunCollection struct {
	DagRuns      []dagRun `json:"dag_runs"`
	TotalEntries int      `json:"total_entries"`
}

// dagRun — DAG run в представлении Airflow.
type dagRun struct {
	DagID           string         `json:"dag_id"`
	DagRunID        string         `json:"dag_run_id"`
	State           string         `json:"state"`
	RunType         string         `json:"run_type"`
	LogicalDate     *time.Time     `json:"logical_date"`
	ExecutionDate   *time.Time     `json:"execution_date"`
	StartDate       *time.Time     `json:"start_date"`
	EndDate         *time.Time     `json:"end_date"`
	ExternalTrigger bool           `json:"external_trigger"`
	Conf            map[string]any `json:"conf"`
}

// toDomain конвертирует run в доменную модель.
// ClusterID заполняет вызывающий код.
func (r dagRun) toDomain() domain.WorkflowRun {
	logical := r.LogicalDate
	if logical == nil {
		// Airflow < 2.2 отдаёт только execution_date
		logical = r.ExecutionDate
	}
	return domain.WorkflowRun{
		DagID:           r.DagID,
		DagRunID:        r.DagRunID,
		State:           domain.ParseRunState(r.State),
		RunType:         r.RunType,
		LogicalDate:     utc(logical),
		StartDate:       utc(r.StartDate),
		EndDate:         utc(r.EndDate),
		ExternalTrigger: r.ExternalTrigger,
		Conf:            r.Conf,
	}
}

func utc(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
