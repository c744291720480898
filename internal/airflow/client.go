package airflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"

	"github.com/shaiso/FlowSync/internal/domain"
	"github.com/shaiso/FlowSync/internal/telemetry"
)

// Значения по умолчанию.
const (
	defaultTimeout         = 30 * time.Second
	defaultMaxRetries      = 3
	defaultInitialInterval = 500 * time.Millisecond
	maxResponseBody        = 10 * 1024 * 1024 // 10 MB
	maxErrorBody           = 4 * 1024

	dagRunsPath = "/api/v1/dags/~/dagRuns"
)

// Config — параметры клиента одного кластера.
type Config struct {
	// Name — имя кластера, используется в логах и метриках
	Name string

	// BaseURL — адрес webserver без /api/v1
	BaseURL  string
	Username string
	Password string

	// MaxRetries — число повторов временных ошибок (default: 3, < 0 — без повторов)
	MaxRetries int

	// InitialInterval — первая задержка перед повтором (default: 500ms)
	InitialInterval time.Duration

	// RequestsPerSecond — ограничение частоты запросов (<= 0 — без ограничения)
	RequestsPerSecond float64
	Burst             int

	// Timeout — таймаут одного HTTP запроса (default: 30s)
	Timeout time.Duration

	// HTTPClient — опционально, для тестов и общих транспортов
	HTTPClient *http.Client

	Logger *slog.Logger
}

// Client — клиент Airflow REST API одного кластера.
type Client struct {
	name       string
	baseURL    string
	username   string
	password   string
	maxRetries int
	interval   time.Duration
	limiter    *rate.Limiter
	http       *http.Client
	logger     *slog.Logger
}

// NewClient создаёт клиента кластера.
func NewClient(cfg Config) (*Client, error) {
	base := strings.TrimSuffix(cfg.BaseURL, "/")
	u, err := url.Parse(base)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidBaseURL, cfg.BaseURL)
	}

	maxRetries := cfg.MaxRetries
	if maxRetries == 0 {
		maxRetries = defaultMaxRetries
	}
	if maxRetries < 0 {
		maxRetries = 0
	}

	interval := cfg.InitialInterval
	if interval <= 0 {
		interval = defaultInitialInterval
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		name:       cfg.Name,
		baseURL:    base,
		username:   cfg.Username,
		password:   cfg.Password,
		maxRetries: maxRetries,
		interval:   interval,
		limiter:    newLimiter(cfg.RequestsPerSecond, cfg.Burst),
		http:       httpClient,
		logger:     logger.With("cluster", cfg.Name),
	}, nil
}

// newLimiter создаёт ограничитель частоты; rps <= 0 снимает ограничение.
func newLimiter(rps float64, burst int) *rate.Limiter {
	if burst <= 0 {
		burst = 1
	}
	if rps <= 0 {
		return rate.NewLimiter(rate.Inf, burst)
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}

// ListRuns возвращает runs всех DAG кластера, начавшиеся не раньше since,
// отсортированные по start_date.
func (c *Client) ListRuns(ctx context.Context, since time.Time, limit, offset int) ([]domain.WorkflowRun, error) {
	q := url.Values{}
	q.Set("start_date_gte", since.UTC().Format(time.RFC3339))
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset))
	q.Set("order_by", "start_date")

	var resp dagRunCollection
	if err := c.get(ctx, dagRunsPath, q, &resp); err != nil {
		return nil, err
	}

	runs := make([]domain.WorkflowRun, 0, len(resp.DagRuns))
	for _, r := range resp.DagRuns {
		runs = append(runs, r.toDomain())
	}

	c.logger.Debug("fetched dag runs",
		"offset", offset,
		"limit", limit,
		"count", len(runs),
		"total_entries", resp.TotalEntries,
	)
	return runs, nil
}

// get выполняет GET запрос с повторами и декодирует JSON ответ в out.
func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	attempt := 0
	operation := func() error {
		attempt++
		if err := c.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}

		err := c.do(ctx, endpoint, out)
		if err == nil {
			return nil
		}

		var permanent *backoff.PermanentError
		if errors.As(err, &permanent) {
			return err
		}
		var apiErr *APIError
		if errors.As(err, &apiErr) && !apiErr.Temporary() {
			return backoff.Permanent(err)
		}
		if ctx.Err() != nil {
			return backoff.Permanent(err)
		}

		c.logger.Warn("airflow request failed, retrying",
			"path", path,
			"attempt", attempt,
			"error", err,
		)
		return err
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.interval

	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(c.maxRetries)), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	return nil
}

// do выполняет одну попытку запроса.
func (c *Client) do(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return backoff.Permanent(fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		telemetry.ObserveAirflowRequest(c.name, 0)
		return fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	telemetry.ObserveAirflowRequest(c.name, resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(resp)
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBody)).Decode(out); err != nil {
		return backoff.Permanent(fmt.Errorf("decode response: %w", err))
	}
	return nil
}

// decodeError читает тело ответа с ошибкой.
func decodeError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	apiErr := &APIError{}
	if err := json.Unmarshal(body, apiErr); err != nil || apiErr.Title == "" {
		apiErr.Detail = strings.TrimSpace(string(body))
	}
	// Код из тела не всегда совпадает с настоящим (прокси, балансировщики)
	apiErr.StatusCode = resp.StatusCode
	return apiErr
}
