// Package telemetry — логирование и метрики FlowSync.
//
// logging.go настраивает slog (LOG_LEVEL, LOG_FORMAT) и переносит логгер
// через context: middleware API и consumer RabbitMQ кладут в него логгер
// с request_id или message_id, синхронизация добавляет cluster_id.
//
// metrics.go регистрирует Prometheus метрики через promauto: исходы
// синхронизации кластеров и спецификаций, запросы к Airflow, HTTP запросы
// по шаблону маршрута и сообщения очереди. Их отдаёт /metrics в каждом сервисе.
package telemetry
