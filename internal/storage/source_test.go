package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/shaiso/FlowSync/internal/domain"
)

func TestDirSource_List(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"b_etl.yaml":           "name: b_etl\n",
		"a_report.json":        `{"name": "a_report"}`,
		"nested/c_clean.yml":   "name: c_clean\n",
		"README.md":            "# not a spec",
		".git/config":          "ignored",
		".hidden/secret.yaml":  "name: secret\n",
		"nested/deeper/d.yaml": "name: d\n",
	}
	for name, content := range files {
		p := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	docs, err := NewDirSource(dir).List(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"a_report.json", "b_etl.yaml", "nested/c_clean.yml", "nested/deeper/d.yaml"}
	if len(docs) != len(want) {
		t.Fatalf("expected %d docs, got %d: %+v", len(want), len(docs), docs)
	}
	for i, key := range want {
		if docs[i].Key != key {
			t.Errorf("doc %d: expected key %q, got %q", i, key, docs[i].Key)
		}
	}
}

func TestDirSource_MissingDir(t *testing.T) {
	_, err := NewDirSource(filepath.Join(t.TempDir(), "missing")).List(context.Background())
	if err == nil {
		t.Fatal("expected error for missing directory")
	}
}

func TestFSSource_CancelledContext(t *testing.T) {
	fsys := fstest.MapFS{"a.yaml": {Data: []byte("name: a\n")}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewFSSource(fsys).List(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestParseSpec(t *testing.T) {
	doc := Document{
		Key: "specs/orders.yaml",
		Content: []byte(`
name: daily_orders
description: Load orders into the warehouse
owner: data-platform
schedule: "@daily"
tags: [finance, etl]
cluster: data-platform
`),
	}

	spec, err := ParseSpec(doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if spec.Name != "daily_orders" || spec.Schedule != "@daily" || spec.ClusterName != "data-platform" {
		t.Errorf("unexpected spec: %+v", spec)
	}
	if len(spec.Tags) != 2 || spec.Tags[1] != "etl" {
		t.Errorf("unexpected tags: %v", spec.Tags)
	}
	if spec.SourceKey != doc.Key {
		t.Errorf("expected source key %q, got %q", doc.Key, spec.SourceKey)
	}
	if len(spec.Checksum) != 64 {
		t.Errorf("expected sha256 hex checksum, got %q", spec.Checksum)
	}

	again, _ := ParseSpec(doc)
	if again.Checksum != spec.Checksum {
		t.Error("checksum should be stable")
	}

	doc.Content = append(doc.Content, []byte("# touched\n")...)
	changed, _ := ParseSpec(doc)
	if changed.Checksum == spec.Checksum {
		t.Error("checksum should change with content")
	}
}

func TestParseSpec_JSON(t *testing.T) {
	spec, err := ParseSpec(Document{Key: "a.json", Content: []byte(`{"name": "a_report", "tags": ["x"]}`)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if spec.Name != "a_report" {
		t.Errorf("unexpected name %q", spec.Name)
	}
}

func TestParseSpec_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{"empty", "   \n", ErrEmptyDocument},
		{"comments only", "# nothing here\n", ErrEmptyDocument},
		{"missing name", "owner: someone\n", domain.ErrInvalidSpec},
		{"invalid name", "name: 'has spaces'\n", domain.ErrInvalidSpec},
		{"unknown field", "name: etl\nretries: 3\n", nil},
		{"malformed", "name: [unclosed\n", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSpec(Document{Key: "x.yaml", Content: []byte(tt.content)})
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}
