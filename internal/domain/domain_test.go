package domain

import (
	"errors"
	"testing"
	"time"
)

func TestRole_Satisfies(t *testing.T) {
	tests := []struct {
		role     Role
		required Role
		want     bool
	}{
		{RoleAdmin, RoleAdmin, true},
		{RoleAdmin, RoleUser, true},
		{RoleUser, RoleUser, true},
		{RoleUser, RoleAdmin, false},
		{Role(""), RoleUser, false},
		{Role("GUEST"), RoleUser, false},
	}

	for _, tt := range tests {
		if got := tt.role.Satisfies(tt.required); got != tt.want {
			t.Errorf("%q.Satisfies(%q) = %v, want %v", tt.role, tt.required, got, tt.want)
		}
	}
}

func TestWorkflowSpec_Validate(t *testing.T) {
	tests := []struct {
		name    string
		spec    WorkflowSpec
		wantErr bool
	}{
		{"valid", WorkflowSpec{Name: "daily_orders.v2"}, false},
		{"empty name", WorkflowSpec{}, true},
		{"spaces in name", WorkflowSpec{Name: "daily orders"}, true},
		{"empty tag", WorkflowSpec{Name: "etl", Tags: []string{"finance", ""}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.spec.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidSpec) {
				t.Errorf("error should wrap ErrInvalidSpec, got %v", err)
			}
		})
	}
}

func TestWorkflowRun_SameAs(t *testing.T) {
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)

	base := WorkflowRun{DagID: "etl", DagRunID: "r1", State: RunStateRunning, StartDate: &start}

	same := base
	startCopy := start.In(time.FixedZone("X", 3600))
	same.StartDate = &startCopy
	if !base.SameAs(&same) {
		t.Error("runs with equal instants should be the same")
	}

	finished := base
	finished.State = RunStateSuccess
	finished.EndDate = &end
	if base.SameAs(&finished) {
		t.Error("state change should be detected")
	}
}

func TestStaleCluster_LookbackHours(t *testing.T) {
	now := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	c := StaleCluster{Cluster: NewCluster(1, "data-platform", "http://airflow", now)}

	if got := c.LookbackHours(now, 24); got != 24 {
		t.Errorf("without pending runs expected 24, got %d", got)
	}

	tests := []struct {
		name    string
		pending time.Duration
		want    int
	}{
		{"recent pending run", 3 * time.Hour, 24},
		{"exactly 48h", 48 * time.Hour, 49},
		{"fractional hours", 47*time.Hour + 30*time.Minute, 49},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			since := now.Add(-tt.pending)
			c.PendingSince = &since
			got := c.LookbackHours(now, 24)
			if got != tt.want {
				t.Errorf("expected %d, got %d", tt.want, got)
			}
			if window := now.Add(-time.Duration(got) * time.Hour); window.After(since) {
				t.Errorf("window %v does not cover pending run started %v", window, since)
			}
		})
	}
}

func TestParseResourceType(t *testing.T) {
	rt, err := ParseResourceType("cluster")
	if err != nil || rt != ResourceCluster {
		t.Errorf("ParseResourceType(cluster) = %q, %v", rt, err)
	}
	if _, err := ParseResourceType("bucket"); !errors.Is(err, ErrInvalidTeam) {
		t.Errorf("expected ErrInvalidTeam, got %v", err)
	}
}
