package domain

// RunState — состояние DAG run в Airflow.
//
// Жизненный цикл (как его видит Airflow):
//
//	queued → running → success
//	                 ↘ failed
type RunState string

const (
	// RunStateQueued — run создан и ждёт свободного слота.
	RunStateQueued RunState = "queued"

	// RunStateRunning — run выполняется.
	RunStateRunning RunState = "running"

	// RunStateSuccess — run успешно завершён.
	RunStateSuccess RunState = "success"

	// RunStateFailed — run завершился с ошибкой.
	RunStateFailed RunState = "failed"
)

// IsTerminal возвращает true, если состояние финальное.
func (s RunState) IsTerminal() bool {
	switch s {
	case RunStateSuccess, RunStateFailed:
		return true
	default:
		return false
	}
}

// ParseRunState парсит строку из Airflow API.
// Неизвестные значения сохраняются как есть: Airflow добавляет состояния между версиями.
func ParseRunState(s string) RunState {
	switch s {
	case "queued":
		return RunStateQueued
	case "running":
		return RunStateRunning
	case "success":
		return RunStateSuccess
	case "failed":
		return RunStateFailed
	default:
		return RunState(s)
	}
}
