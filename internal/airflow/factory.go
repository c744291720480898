package airflow

import (
	"log/slog"
	"sync"
	"time"

	"github.com/shaiso/FlowSync/internal/domain"
	"github.com/shaiso/FlowSync/internal/orchestrator"
)

// FactoryConfig — общие параметры клиентов всех кластеров.
type FactoryConfig struct {
	MaxRetries        int
	RequestsPerSecond float64
	Burst             int
	Timeout           time.Duration
	Logger            *slog.Logger
}

// Factory создаёт и кэширует клиентов по кластерам.
//
// Клиент живёт дольше одной синхронизации, поэтому ограничение частоты
// действует между последовательными вызовами, а не только внутри одного.
type Factory struct {
	cfg FactoryConfig

	mu      sync.Mutex
	clients map[int64]cachedClient
}

type cachedClient struct {
	baseURL, username, password string
	client                      *Client
}

// NewFactory создаёт Factory.
func NewFactory(cfg FactoryConfig) *Factory {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Factory{
		cfg:     cfg,
		clients: make(map[int64]cachedClient),
	}
}

// Source возвращает клиента для кластера. Сигнатура совпадает с orchestrator.SourceFactory.
func (f *Factory) Source(cluster *domain.Cluster) (orchestrator.RunSource, error) {
	client, err := f.ForCluster(cluster)
	if err != nil {
		return nil, err
	}
	return client, nil
}

// ForCluster возвращает клиента для кластера, пересоздавая его при смене адреса или учётных данных.
func (f *Factory) ForCluster(cluster *domain.Cluster) (*Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if cached, ok := f.clients[cluster.ID]; ok &&
		cached.baseURL == cluster.BaseURL &&
		cached.username == cluster.Username &&
		cached.password == cluster.Password {
		return cached.client, nil
	}

	client, err := NewClient(Config{
		Name:              cluster.Name,
		BaseURL:           cluster.BaseURL,
		Username:          cluster.Username,
		Password:          cluster.Password,
		MaxRetries:        f.cfg.MaxRetries,
		RequestsPerSecond: f.cfg.RequestsPerSecond,
		Burst:             f.cfg.Burst,
		Timeout:           f.cfg.Timeout,
		Logger:            f.cfg.Logger,
	})
	if err != nil {
		return nil, err
	}

	f.clients[cluster.ID] = cachedClient{
		baseURL:  cluster.BaseURL,
		username: cluster.Username,
		password: cluster.Password,
		client:   client,
	}
	return client, nil
}
