// Package mq предоставляет инфраструктуру для работы с RabbitMQ.
//
// Структура:
//   - connection.go — соединение с RabbitMQ (reconnect, graceful shutdown)
//   - topology.go   — объявление exchanges, queues, bindings
//   - publisher.go  — публикация запросов и итогов синхронизации
//   - consumer.go   — потребление сообщений из очередей
//
// Типы сообщений:
//   - sync.requested          — запрос на синхронизацию (sync.requests)
//   - sync.{kind}.completed   — итог синхронизации (sync.events)
//
// Exchanges:
//   - flowsync.sync — запросы и события синхронизации
//   - flowsync.dlq  — dead letter queue для запросов
package mq
