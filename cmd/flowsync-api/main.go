// FlowSync API — HTTP сервер ручной синхронизации с Airflow.
//
// Сервер:
//   - Синхронизирует спецификации и runs по запросу оператора
//   - Ставит синхронизацию в очередь воркера при ?async=true
//   - Отдаёт реестр кластеров, runs, статистику и команды
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shaiso/FlowSync/internal/airflow"
	"github.com/shaiso/FlowSync/internal/api"
	"github.com/shaiso/FlowSync/internal/config"
	"github.com/shaiso/FlowSync/internal/mq"
	"github.com/shaiso/FlowSync/internal/orchestrator"
	"github.com/shaiso/FlowSync/internal/repo"
	"github.com/shaiso/FlowSync/internal/storage"
	"github.com/shaiso/FlowSync/internal/telemetry"
)

var startTime = time.Now()

func main() {
	cfg, err := config.Load(os.Getenv("FLOWSYNC_ENV_FILE"))
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	// Инициализируем structured logging
	logger := telemetry.SetupLogger(cfg.Log)
	logger.Info("starting flowsync-api")

	if len(cfg.API.Tokens) == 0 {
		logger.Warn("AUTH_TOKENS is empty, every API request will be rejected")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Подключаемся к базе данных
	pool, err := repo.NewPool(ctx, repo.PoolConfig{DSN: cfg.DB.URL, MaxConns: cfg.DB.MaxConns})
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("connected to database")

	clusterRepo := repo.NewClusterRepo(pool)
	runRepo := repo.NewRunRepo(pool)
	specRepo := repo.NewSpecRepo(pool)
	teamRepo := repo.NewTeamRepo(pool)

	// RabbitMQ необязателен: без него нет событий и асинхронного режима
	var publisher *mq.Publisher
	if cfg.RabbitMQ.URL != "" {
		mqConn, err := mq.NewConnection(ctx, mq.ConnectionConfig{URL: cfg.RabbitMQ.URL, Logger: logger})
		if err != nil {
			logger.Warn("RabbitMQ not available, events and async sync disabled", "error", err)
		} else {
			defer mqConn.Close()
			if err := mq.SetupTopology(ctx, mqConn); err != nil {
				logger.Warn("failed to setup topology", "error", err)
			}
			publisher = mq.NewPublisher(mqConn, logger)
			logger.Info("RabbitMQ connected")
		}
	}

	var events orchestrator.EventPublisher
	var requests api.SyncRequestPublisher
	if publisher != nil {
		events = publisher
		requests = publisher
	}

	sources := airflow.NewFactory(airflow.FactoryConfig{
		MaxRetries:        cfg.Airflow.MaxRetries,
		RequestsPerSecond: cfg.Airflow.RequestsPerSecond,
		Burst:             cfg.Airflow.Burst,
		Timeout:           cfg.Airflow.Timeout,
		Logger:            logger,
	})

	orch := orchestrator.New(orchestrator.Config{
		ClusterStore:   clusterRepo,
		RunStore:       runRepo,
		SourceFactory:  sources.Source,
		Publisher:      events,
		Concurrency:    cfg.Sync.Concurrency,
		ClusterTimeout: cfg.Sync.ClusterTimeout,
		Logger:         logger,
	})

	specSyncer := orchestrator.NewSpecSyncer(orchestrator.SpecSyncerConfig{
		Source:    specSource(cfg.Specs, logger),
		Store:     specRepo,
		Publisher: events,
		Logger:    logger,
	})

	handler := api.NewHandler(api.Config{
		RunSync:  orch,
		SpecSync: specSyncer,
		Requests: requests,
		Clusters: clusterRepo,
		Runs:     runRepo,
		Specs:    specRepo,
		Teams:    teamRepo,
		Tokens:   cfg.API.Tokens,
		Logger:   logger,
	})

	mux := http.NewServeMux()

	// Health и metrics
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "ok %s", time.Since(startTime))
	})
	mux.Handle("/metrics", promhttp.Handler())

	handler.RegisterRoutes(mux)

	addr := ":" + cfg.API.Port
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("listening", "addr", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			cancel()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	// Синхронизация всех кластеров может идти долго; ждём не больше таймаута кластера
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Sync.ClusterTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}

	logger.Info("stopped")
}

// specSource выбирает хранилище спецификаций: git репозиторий или каталог.
func specSource(cfg config.SpecsConfig, logger *slog.Logger) orchestrator.SpecSource {
	if cfg.UseGit() {
		logger.Info("reading specs from git", "url", cfg.GitURL, "branch", cfg.GitBranch)
		return storage.NewGitSource(storage.GitConfig{
			URL:      cfg.GitURL,
			Branch:   cfg.GitBranch,
			SubDir:   cfg.GitSubDir,
			CacheDir: cfg.GitCacheDir,
			Username: cfg.GitUsername,
			Token:    cfg.GitToken,
		}, logger)
	}

	logger.Info("reading specs from directory", "dir", cfg.Dir)
	return storage.NewDirSource(cfg.Dir)
}
