package storage

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/shaiso/FlowSync/internal/telemetry"
)

// specRepo — локальный git репозиторий со спецификациями.
type specRepo struct {
	t    *testing.T
	dir  string
	repo *git.Repository
}

func newSpecRepo(t *testing.T) *specRepo {
	t.Helper()
	// Локальный транспорт go-git вызывает git-upload-pack
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git binary not available")
	}

	dir := t.TempDir()
	repo, err := git.PlainInitWithOptions(dir, &git.PlainInitOptions{
		InitOptions: git.InitOptions{DefaultBranch: plumbing.Main},
	})
	if err != nil {
		t.Fatalf("init repo: %v", err)
	}
	return &specRepo{t: t, dir: dir, repo: repo}
}

func (r *specRepo) commit(files map[string]string) {
	r.t.Helper()
	wt, err := r.repo.Worktree()
	if err != nil {
		r.t.Fatal(err)
	}
	for name, content := range files {
		p := filepath.Join(r.dir, name)
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			r.t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			r.t.Fatal(err)
		}
		if _, err := wt.Add(name); err != nil {
			r.t.Fatalf("add %s: %v", name, err)
		}
	}
	_, err = wt.Commit("update specs", &git.CommitOptions{
		Author: &object.Signature{Name: "flowsync", Email: "flowsync@example.com", When: time.Now()},
	})
	if err != nil {
		r.t.Fatalf("commit: %v", err)
	}
}

func docKeys(docs []Document) []string {
	keys := make([]string, len(docs))
	for i, d := range docs {
		keys[i] = d.Key
	}
	return keys
}

func TestGitSource_CloneAndPull(t *testing.T) {
	remote := newSpecRepo(t)
	remote.commit(map[string]string{
		"dags/etl.yaml": "name: etl\n",
		"README.md":     "# specs",
	})

	src := NewGitSource(GitConfig{
		URL:      remote.dir,
		SubDir:   "dags",
		CacheDir: filepath.Join(t.TempDir(), "cache"),
	}, telemetry.Discard())
	ctx := context.Background()

	// Первый вызов клонирует
	docs, err := src.List(ctx)
	if err != nil {
		t.Fatalf("clone: %v", err)
	}
	if keys := docKeys(docs); len(keys) != 1 || keys[0] != "etl.yaml" {
		t.Fatalf("unexpected docs after clone: %v", keys)
	}

	// Второй вызов без новых коммитов: pull без изменений
	docs, err = src.List(ctx)
	if err != nil {
		t.Fatalf("up-to-date pull: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("expected 1 doc, got %v", docKeys(docs))
	}

	remote.commit(map[string]string{
		"dags/etl.yaml":    "name: etl\nowner: data\n",
		"dags/report.yaml": "name: report\n",
	})

	docs, err = src.List(ctx)
	if err != nil {
		t.Fatalf("pull: %v", err)
	}
	keys := docKeys(docs)
	if len(keys) != 2 || keys[0] != "etl.yaml" || keys[1] != "report.yaml" {
		t.Fatalf("unexpected docs after pull: %v", keys)
	}

	spec, err := ParseSpec(docs[0])
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if spec.Owner != "data" {
		t.Errorf("pull did not update worktree: owner %q", spec.Owner)
	}
}

func TestGitSource_CloneError(t *testing.T) {
	src := NewGitSource(GitConfig{
		URL:      filepath.Join(t.TempDir(), "missing"),
		CacheDir: filepath.Join(t.TempDir(), "cache"),
	}, telemetry.Discard())

	if _, err := src.List(context.Background()); err == nil {
		t.Fatal("expected clone error for missing repository")
	}
}

func TestGitSource_Auth(t *testing.T) {
	anon := NewGitSource(GitConfig{}, nil)
	if anon.auth() != nil {
		t.Error("expected anonymous auth without token")
	}
	if anon.cfg.Branch != "main" {
		t.Errorf("expected default branch main, got %q", anon.cfg.Branch)
	}

	withToken := NewGitSource(GitConfig{Token: "secret"}, nil)
	if withToken.auth() == nil {
		t.Error("expected basic auth with token")
	}
}
