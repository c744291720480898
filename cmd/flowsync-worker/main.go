// FlowSync Worker — выполняет запросы на синхронизацию из RabbitMQ.
//
// Worker:
//   - Потребляет очередь sync.requests
//   - Вызывает тот же orchestrator, что и API
//   - Публикует итоги в sync.events
//
// Запросы публикуют API (?async=true) и внешние планировщики.
// Workers масштабируются горизонтально.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shaiso/FlowSync/internal/airflow"
	"github.com/shaiso/FlowSync/internal/config"
	"github.com/shaiso/FlowSync/internal/mq"
	"github.com/shaiso/FlowSync/internal/orchestrator"
	"github.com/shaiso/FlowSync/internal/repo"
	"github.com/shaiso/FlowSync/internal/storage"
	"github.com/shaiso/FlowSync/internal/telemetry"
	"github.com/shaiso/FlowSync/internal/worker"
)

func main() {
	cfg, err := config.Load(os.Getenv("FLOWSYNC_ENV_FILE"))
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	// Инициализируем structured logging
	logger := telemetry.SetupLogger(cfg.Log)
	logger.Info("starting flowsync-worker")

	// graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// DB pool
	pool, err := repo.NewPool(ctx, repo.PoolConfig{DSN: cfg.DB.URL, MaxConns: cfg.DB.MaxConns})
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("database connected")

	// RabbitMQ обязателен: без очереди воркеру нечего делать
	mqURL := cfg.RabbitMQ.URL
	if mqURL == "" {
		mqURL = mq.DefaultURL()
	}

	mqConn, err := mq.NewConnection(ctx, mq.ConnectionConfig{URL: mqURL, Logger: logger})
	if err != nil {
		logger.Error("failed to connect to RabbitMQ", "error", err)
		os.Exit(1)
	}
	defer mqConn.Close()
	logger.Info("RabbitMQ connected")

	if err := mq.SetupTopology(ctx, mqConn); err != nil {
		logger.Error("failed to setup topology", "error", err)
		os.Exit(1)
	}
	logger.Debug("topology ready", "topology", mq.TopologyInfo())

	publisher := mq.NewPublisher(mqConn, logger)

	sources := airflow.NewFactory(airflow.FactoryConfig{
		MaxRetries:        cfg.Airflow.MaxRetries,
		RequestsPerSecond: cfg.Airflow.RequestsPerSecond,
		Burst:             cfg.Airflow.Burst,
		Timeout:           cfg.Airflow.Timeout,
		Logger:            logger,
	})

	orch := orchestrator.New(orchestrator.Config{
		ClusterStore:   repo.NewClusterRepo(pool),
		RunStore:       repo.NewRunRepo(pool),
		SourceFactory:  sources.Source,
		Publisher:      publisher,
		Concurrency:    cfg.Sync.Concurrency,
		ClusterTimeout: cfg.Sync.ClusterTimeout,
		Logger:         logger,
	})

	specSyncer := orchestrator.NewSpecSyncer(orchestrator.SpecSyncerConfig{
		Source:    specSource(cfg.Specs, logger),
		Store:     repo.NewSpecRepo(pool),
		Publisher: publisher,
		Logger:    logger,
	})

	w := worker.New(worker.Config{
		RunSync:  orch,
		SpecSync: specSyncer,
		Conn:     mqConn,
		Prefetch: cfg.RabbitMQ.Prefetch,
		Logger:   logger,
	})

	if err := w.Start(ctx); err != nil {
		logger.Error("failed to start worker", "error", err)
		os.Exit(1)
	}

	// HTTP mux: /healthz + /metrics
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, _ *http.Request) {
		if !mqConn.IsConnected() {
			rw.WriteHeader(http.StatusServiceUnavailable)
			rw.Write([]byte("rabbitmq disconnected"))
			return
		}
		rw.WriteHeader(http.StatusOK)
		rw.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	addr := ":" + cfg.Worker.Port
	go func() {
		logger.Info("listening", "addr", addr)
		if err := http.ListenAndServe(addr, mux); err != nil {
			logger.Error("http server error", "error", err)
			cancel()
		}
	}()

	// Ожидаем сигнал завершения
	<-ctx.Done()

	w.Stop()
	logger.Info("flowsync-worker stopped")
}

// specSource выбирает хранилище спецификаций: git репозиторий или каталог.
func specSource(cfg config.SpecsConfig, logger *slog.Logger) orchestrator.SpecSource {
	if cfg.UseGit() {
		return storage.NewGitSource(storage.GitConfig{
			URL:      cfg.GitURL,
			Branch:   cfg.GitBranch,
			SubDir:   cfg.GitSubDir,
			CacheDir: cfg.GitCacheDir,
			Username: cfg.GitUsername,
			Token:    cfg.GitToken,
		}, logger)
	}
	return storage.NewDirSource(cfg.Dir)
}
