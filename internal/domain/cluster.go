package domain

import (
	"math"
	"time"
)

// Cluster — внешний Airflow кластер, из которого зеркалируются runs.
type Cluster struct {
	// ID — идентификатор кластера в локальном реестре.
	ID int64 `json:"id"`

	// Name — уникальное имя кластера (например, "data-platform").
	Name string `json:"name"`

	// BaseURL — адрес Airflow webserver, без суффикса /api/v1.
	BaseURL string `json:"base_url"`

	// Username и Password — учётные данные basic auth для REST API.
	Username string `json:"-"`
	Password string `json:"-"`

	// Enabled — участвует ли кластер в массовой синхронизации.
	Enabled bool `json:"enabled"`

	// LastSyncedAt — время последней успешной синхронизации runs.
	// Nil, если кластер ещё ни разу не синхронизировался.
	LastSyncedAt *time.Time `json:"last_synced_at,omitempty"`

	// CreatedAt — время регистрации кластера.
	CreatedAt time.Time `json:"created_at"`
}

// NewCluster создаёт включённый кластер с заданной идентичностью.
func NewCluster(id int64, name, baseURL string, createdAt time.Time) Cluster {
	return Cluster{
		ID:        id,
		Name:      name,
		BaseURL:   baseURL,
		Enabled:   true,
		CreatedAt: createdAt,
	}
}

// StaleCluster — кластер, выбранный для повторной синхронизации.
type StaleCluster struct {
	Cluster

	// PendingSince — start_date самого старого незавершённого run,
	// не обновлявшегося с порога. Nil, если таких runs нет.
	PendingSince *time.Time
}

// LookbackHours возвращает окно, покрывающее PendingSince, но не меньше minHours.
// Запас в один час компенсирует время между выбором кластера и запросом к Airflow.
func (c StaleCluster) LookbackHours(now time.Time, minHours int) int {
	if c.PendingSince == nil {
		return minHours
	}
	need := int(math.Ceil(now.Sub(*c.PendingSince).Hours())) + 1
	return max(need, minHours)
}
