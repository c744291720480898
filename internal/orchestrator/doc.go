// Package orchestrator управляет синхронизацией локального состояния с Airflow.
//
// Компоненты:
//   - ClusterSyncer    — синхронизация runs одного кластера
//   - Orchestrator     — fan-out по всем кластерам и агрегация результатов
//   - SpecSyncer       — синхронизация спецификаций из хранилища
//   - StaleRunDetector — выбор устаревших кластеров для повторной синхронизации
//
// Ошибки отдельного кластера или спецификации не прерывают пакет:
// они попадают в поля результата. Авторизация здесь не выполняется,
// это забота вызывающего (HTTP, очередь).
package orchestrator
