// Package domain содержит доменные модели FlowSync.
//
// Структура:
//   - cluster.go     — Airflow кластер, зарегистрированный в системе
//   - run.go         — WorkflowRun, зеркало DAG run из Airflow
//   - status.go      — RunState и его жизненный цикл
//   - spec.go        — WorkflowSpec, определение workflow из хранилища
//   - sync_result.go — результаты синхронизации (value objects)
//   - team.go        — команды, участники и ресурсы команд
//   - principal.go   — аутентифицированный пользователь и его роль
//
// Модели не зависят от БД и транспорта. Идентичность и временные метки
// передаются в конструкторы явно.
package domain
