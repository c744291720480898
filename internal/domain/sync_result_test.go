package domain

import (
	"errors"
	"testing"
	"time"
)

func TestClusterNotFound(t *testing.T) {
	r := ClusterNotFound(42)

	if r.Success() {
		t.Error("not found result should not be successful")
	}
	if r.Error != "Cluster not found: 42" {
		t.Errorf("unexpected error: %q", r.Error)
	}
	if r.TotalProcessed != 0 || r.UpdatedCount != 0 || r.CreatedCount != 0 {
		t.Errorf("failure result must have zero counts, got %+v", r)
	}
}

func TestClusterDisabled(t *testing.T) {
	r := ClusterDisabled(2, "retired")

	if r.Success() || r.Error != "Cluster disabled: 2" || r.ClusterName != "retired" {
		t.Errorf("unexpected result: %+v", r)
	}
	if r.TotalProcessed != 0 {
		t.Errorf("failure result must have zero counts, got %+v", r)
	}
}

func TestNewClusterSyncFailure_EmptyMessage(t *testing.T) {
	r := NewClusterSyncFailure(1, "c", "")
	if r.Success() {
		t.Error("failure with empty message should still be a failure")
	}
}

func TestNewRunSyncResult_Aggregates(t *testing.T) {
	syncedAt := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	results := []ClusterSyncResult{
		NewClusterSyncSuccess(1, "a", 10, 2, 15),
		NewClusterSyncFailure(2, "b", "connection refused"),
		NewClusterSyncSuccess(3, "c", 1, 4, 5),
	}

	r := NewRunSyncResult(results, syncedAt)

	if r.TotalClusters != 3 {
		t.Errorf("expected 3 clusters, got %d", r.TotalClusters)
	}
	if r.TotalUpdated != 11 {
		t.Errorf("expected 11 updated, got %d", r.TotalUpdated)
	}
	if r.TotalCreated != 6 {
		t.Errorf("expected 6 created, got %d", r.TotalCreated)
	}
	if r.FailedClusters != 1 {
		t.Errorf("expected 1 failed cluster, got %d", r.FailedClusters)
	}
	if r.Success() {
		t.Error("result with failed cluster should not be successful")
	}
	if !r.SyncedAt.Equal(syncedAt) {
		t.Errorf("unexpected synced_at: %v", r.SyncedAt)
	}
	for i, want := range []int64{1, 2, 3} {
		if r.ClusterResults[i].ClusterID != want {
			t.Errorf("result %d: expected cluster %d, got %d", i, want, r.ClusterResults[i].ClusterID)
		}
	}

	// Результат не должен разделять память с входным срезом
	results[0].UpdatedCount = 999
	if r.ClusterResults[0].UpdatedCount != 10 {
		t.Error("result should not alias input slice")
	}
}

func TestNewRunSyncResult_Empty(t *testing.T) {
	r := NewRunSyncResult(nil, time.Now())
	if r.TotalClusters != 0 || r.FailedClusters != 0 {
		t.Errorf("unexpected empty result: %+v", r)
	}
	if !r.Success() {
		t.Error("empty result should be successful")
	}
	if r.ClusterResults == nil {
		t.Error("cluster results should be an empty slice, not nil")
	}
}

func TestSpecSyncTally(t *testing.T) {
	var tally SpecSyncTally
	tally.Created()
	tally.Created()
	tally.Updated()
	tally.Unchanged()
	tally.Fail("specs/bad.yaml", errors.New("name is required"))

	r := tally.Result(time.Now())

	if r.TotalProcessed != 5 {
		t.Errorf("expected 5 processed, got %d", r.TotalProcessed)
	}
	if r.Created != 2 || r.Updated != 1 || r.Failed != 1 {
		t.Errorf("unexpected buckets: %+v", r)
	}
	if r.Unchanged() != 1 {
		t.Errorf("expected 1 unchanged, got %d", r.Unchanged())
	}
	if len(r.Errors) != r.Failed {
		t.Errorf("errors length %d should match failed %d", len(r.Errors), r.Failed)
	}
	if r.Errors[0] != "specs/bad.yaml: name is required" {
		t.Errorf("unexpected error text: %q", r.Errors[0])
	}
	if r.Success() {
		t.Error("result with failures should not be successful")
	}
}

func TestSpecSyncTally_NoFailures(t *testing.T) {
	var tally SpecSyncTally
	tally.Unchanged()

	r := tally.Result(time.Now())
	if !r.Success() {
		t.Error("expected success")
	}
	if r.Errors == nil || len(r.Errors) != 0 {
		t.Errorf("expected empty errors slice, got %v", r.Errors)
	}
}
