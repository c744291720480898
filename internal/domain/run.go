package domain

import (
	"reflect"
	"time"
)

// WorkflowRun — локальное зеркало DAG run из Airflow.
//
// Ключ идентичности во внешней системе — (ClusterID, DagID, DagRunID).
// Локальный ID присваивается при первой вставке.
type WorkflowRun struct {
	// ID — локальный идентификатор записи.
	ID int64 `json:"id"`

	// ClusterID — кластер, которому принадлежит run.
	ClusterID int64 `json:"cluster_id"`

	// DagID — идентификатор DAG в Airflow.
	DagID string `json:"dag_id"`

	// DagRunID — идентификатор run внутри DAG.
	DagRunID string `json:"dag_run_id"`

	// State — последнее известное состояние.
	State RunState `json:"state"`

	// RunType — scheduled, manual, backfill, dataset_triggered.
	RunType string `json:"run_type,omitempty"`

	LogicalDate *time.Time `json:"logical_date,omitempty"`
	StartDate   *time.Time `json:"start_date,omitempty"`
	EndDate     *time.Time `json:"end_date,omitempty"`

	// ExternalTrigger — run запущен не планировщиком Airflow.
	ExternalTrigger bool `json:"external_trigger"`

	// Conf — конфигурация, переданная при запуске.
	Conf map[string]any `json:"conf,omitempty"`

	// SyncedAt — когда запись последний раз обновлялась из Airflow.
	SyncedAt time.Time `json:"synced_at"`

	// CreatedAt — время создания локальной записи.
	CreatedAt time.Time `json:"created_at"`
}

// Duration возвращает продолжительность выполнения.
// Возвращает 0, если run ещё не завершён.
func (r *WorkflowRun) Duration() time.Duration {
	if r.StartDate == nil || r.EndDate == nil {
		return 0
	}
	return r.EndDate.Sub(*r.StartDate)
}

// IsFinished возвращает true, если run завершён.
func (r *WorkflowRun) IsFinished() bool {
	return r.State.IsTerminal()
}

// SameAs сообщает, совпадает ли изменяемая часть run с other.
// Используется при сверке: совпадающие записи не считаются обновлёнными.
func (r *WorkflowRun) SameAs(other *WorkflowRun) bool {
	return r.State == other.State &&
		r.RunType == other.RunType &&
		r.ExternalTrigger == other.ExternalTrigger &&
		sameTime(r.LogicalDate, other.LogicalDate) &&
		sameTime(r.StartDate, other.StartDate) &&
		sameTime(r.EndDate, other.EndDate) &&
		reflect.DeepEqual(r.Conf, other.Conf)
}

func sameTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

// RunKey — ключ run во внешней системе.
type RunKey struct {
	DagID    string
	DagRunID string
}

// Key возвращает внешний ключ run.
func (r *WorkflowRun) Key() RunKey {
	return RunKey{DagID: r.DagID, DagRunID: r.DagRunID}
}
