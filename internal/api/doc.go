// Package api содержит HTTP API сервер.
//
// Структура:
//   - handler.go         — Handler с DI (синхронизаторы, хранилища, publisher, logger)
//   - routes.go          — регистрация маршрутов
//   - auth.go            — аутентификация по bearer токену и таблица политик
//   - middleware.go      — middleware (request id, logging, recovery)
//   - response.go        — унифицированные JSON-ответы и обработка ошибок
//   - dto.go             — Data Transfer Objects (request/response)
//   - sync_handler.go    — ручной запуск синхронизации (/airflow/sync/manual)
//   - catalog_handler.go — чтение зеркала (/airflow/clusters, /runs, /specs, /stats)
//   - team_handler.go    — команды, участники и ресурсы (/teams)
//
// Авторизация выполняется до вызова обработчика: синхронизаторы
// сами права не проверяют.
package api
