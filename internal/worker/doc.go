// Package worker выполняет запросы на синхронизацию из RabbitMQ.
//
// # Обзор
//
// Worker потребляет очередь sync.requests и передаёт каждый запрос
// тем же сервисам, что обслуживают ручной запуск через API:
//
//   - specs   → SpecSyncer.SyncFromStorage
//   - runs    → Orchestrator.SyncAllClusters
//   - cluster → Orchestrator.SyncCluster
//   - stale   → Orchestrator.SyncStaleRuns
//
// Так внешний cron, публикующий запросы в очередь, и оператор с CLI
// проходят один и тот же путь. Нулевые параметры запроса заменяются
// значениями по умолчанию (24 часа, 100 runs на страницу, порог 1 час).
//
//	w := worker.New(worker.Config{
//	    RunSync:  orch,
//	    SpecSync: specSyncer,
//	    Conn:     mqConn,
//	    Logger:   logger,
//	})
//
//	if err := w.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer w.Stop()
//
// # Ошибки
//
// Сбой отдельного кластера или спецификации — часть результата, сообщение
// подтверждается. Если синхронизация не смогла начаться (недоступен реестр
// или хранилище спецификаций), сообщение возвращается в очередь один раз,
// затем уходит в DLQ. Некорректный запрос сразу уходит в DLQ.
package worker
