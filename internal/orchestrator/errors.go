package orchestrator

import "errors"

// Ошибки оркестратора.
var (
	// ErrNoSourceFactory — не задана фабрика клиентов Airflow.
	ErrNoSourceFactory = errors.New("run source factory is not configured")

	// ErrDuplicateSpec — два документа в хранилище описывают один dag_id.
	ErrDuplicateSpec = errors.New("duplicate spec name")

	// ErrSyncPanicked — синхронизация кластера завершилась паникой.
	ErrSyncPanicked = errors.New("cluster sync panicked")
)
