package domain

import (
	"fmt"
	"time"
)

// SpecSyncResult — итог синхронизации спецификаций из хранилища.
//
// Created + Updated + Failed + (неизменённые) == TotalProcessed,
// len(Errors) == Failed.
type SpecSyncResult struct {
	TotalProcessed int       `json:"total_processed"`
	Created        int       `json:"created"`
	Updated        int       `json:"updated"`
	Failed         int       `json:"failed"`
	Errors         []string  `json:"errors"`
	SyncedAt       time.Time `json:"synced_at"`
}

// Success возвращает true, если ни одна спецификация не упала.
func (r SpecSyncResult) Success() bool {
	return r.Failed == 0
}

// Unchanged возвращает количество спецификаций, пропущенных без изменений.
func (r SpecSyncResult) Unchanged() int {
	return r.TotalProcessed - r.Created - r.Updated - r.Failed
}

// SpecSyncTally накапливает исходы по спецификациям.
// Каждая спецификация попадает ровно в одну корзину.
type SpecSyncTally struct {
	total, created, updated, failed int
	errors                          []string
}

// Created учитывает новую спецификацию.
func (t *SpecSyncTally) Created() {
	t.total++
	t.created++
}

// Updated учитывает изменённую спецификацию.
func (t *SpecSyncTally) Updated() {
	t.total++
	t.updated++
}

// Unchanged учитывает спецификацию без изменений.
func (t *SpecSyncTally) Unchanged() {
	t.total++
}

// Fail учитывает упавшую спецификацию и сохраняет ошибку.
func (t *SpecSyncTally) Fail(key string, err error) {
	t.total++
	t.failed++
	t.errors = append(t.errors, fmt.Sprintf("%s: %v", key, err))
}

// Result фиксирует накопленные значения.
func (t *SpecSyncTally) Result(syncedAt time.Time) SpecSyncResult {
	errs := make([]string, len(t.errors))
	copy(errs, t.errors)
	return SpecSyncResult{
		TotalProcessed: t.total,
		Created:        t.created,
		Updated:        t.updated,
		Failed:         t.failed,
		Errors:         errs,
		SyncedAt:       syncedAt,
	}
}

// ClusterSyncResult — итог синхронизации runs одного кластера.
//
// Успех определяется отсутствием ошибки. Неуспешный результат
// всегда имеет нулевые счётчики.
type ClusterSyncResult struct {
	ClusterID      int64  `json:"cluster_id"`
	ClusterName    string `json:"cluster_name"`
	UpdatedCount   int    `json:"updated_count"`
	CreatedCount   int    `json:"created_count"`
	TotalProcessed int    `json:"total_processed"`
	Error          string `json:"error,omitempty"`
}

// NewClusterSyncSuccess создаёт успешный результат.
func NewClusterSyncSuccess(clusterID int64, clusterName string, updated, created, total int) ClusterSyncResult {
	return ClusterSyncResult{
		ClusterID:      clusterID,
		ClusterName:    clusterName,
		UpdatedCount:   updated,
		CreatedCount:   created,
		TotalProcessed: total,
	}
}

// NewClusterSyncFailure создаёт неуспешный результат.
// Пустое сообщение заменяется на "unknown error", чтобы сохранить инвариант Success.
func NewClusterSyncFailure(clusterID int64, clusterName, message string) ClusterSyncResult {
	if message == "" {
		message = "unknown error"
	}
	return ClusterSyncResult{
		ClusterID:   clusterID,
		ClusterName: clusterName,
		Error:       message,
	}
}

// ClusterNotFound создаёт результат для отсутствующего в реестре кластера.
func ClusterNotFound(clusterID int64) ClusterSyncResult {
	return NewClusterSyncFailure(clusterID, "", fmt.Sprintf("Cluster not found: %d", clusterID))
}

// ClusterDisabled создаёт результат для выключенного кластера реестра.
func ClusterDisabled(clusterID int64, clusterName string) ClusterSyncResult {
	return NewClusterSyncFailure(clusterID, clusterName, fmt.Sprintf("Cluster disabled: %d", clusterID))
}

// Success возвращает true, если синхронизация кластера прошла без ошибки.
func (r ClusterSyncResult) Success() bool {
	return r.Error == ""
}

// RunSyncResult — агрегированный итог синхронизации runs по кластерам.
//
// ClusterResults упорядочены так же, как кластеры при перечислении,
// независимо от порядка завершения.
type RunSyncResult struct {
	TotalClusters  int                 `json:"total_clusters"`
	ClusterResults []ClusterSyncResult `json:"cluster_results"`
	SyncedAt       time.Time           `json:"synced_at"`
	TotalUpdated   int                 `json:"total_updated"`
	TotalCreated   int                 `json:"total_created"`
	FailedClusters int                 `json:"failed_clusters"`
}

// NewRunSyncResult агрегирует результаты по кластерам.
func NewRunSyncResult(results []ClusterSyncResult, syncedAt time.Time) RunSyncResult {
	out := RunSyncResult{
		TotalClusters:  len(results),
		ClusterResults: make([]ClusterSyncResult, len(results)),
		SyncedAt:       syncedAt,
	}
	copy(out.ClusterResults, results)

	for _, r := range results {
		if !r.Success() {
			out.FailedClusters++
			continue
		}
		out.TotalUpdated += r.UpdatedCount
		out.TotalCreated += r.CreatedCount
	}
	return out
}

// Success возвращает true, если ни один кластер не упал.
func (r RunSyncResult) Success() bool {
	return r.FailedClusters == 0
}
