// Package cli реализует инструмент командной строки FlowSync.
//
// # Обзор
//
// CLI — клиентская утилита для FlowSync API. Работает через HTTP
// с bearer-токеном и не импортирует внутренние пакеты системы.
//
// # Ключевые компоненты
//
// ## Client
//
// HTTP-клиент для FlowSync API. Инкапсулирует запросы, разбор ответов
// (DataResponse, ListResponse, ErrorResponse) и обработку ошибок.
//
//	client := cli.NewClient("http://localhost:8080", token)
//	result, err := client.SyncRuns(cli.SyncOpts{LookbackHours: 48})
//
// ## Output
//
// Форматирование вывода: таблицы (text/tabwriter) по умолчанию
// или JSON с флагом --json. Данные идут в stdout, сообщения в stderr:
//
//	flowsync run list --state failed --json | jq .
//
// ## Commands
//
//   - sync: specs, runs, cluster ID, stale (все с --async)
//   - cluster: list
//   - run: list
//   - team: list, create, show, update, delete, member, resource
//
// Каждая группа создаётся фабричной функцией (NewSyncCmd и т.д.),
// принимающей clientFn и outputFn: Client и Output создаются лениво,
// после разбора PersistentFlags.
package cli
