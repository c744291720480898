package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
)

// GitConfig — параметры git хранилища спецификаций.
type GitConfig struct {
	// URL — адрес репозитория.
	URL string

	// Branch — ветка (default: main).
	Branch string

	// SubDir — каталог со спецификациями внутри репозитория.
	SubDir string

	// CacheDir — локальный каталог для клона.
	CacheDir string

	// Username и Token — учётные данные HTTP basic auth (опционально).
	Username string
	Token    string
}

// GitSource держит локальный клон репозитория и читает его через DirSource.
//
// Перед каждым List клон обновляется до головы ветки.
type GitSource struct {
	cfg    GitConfig
	logger *slog.Logger
	mu     sync.Mutex
}

// NewGitSource создаёт GitSource.
func NewGitSource(cfg GitConfig, logger *slog.Logger) *GitSource {
	if cfg.Branch == "" {
		cfg.Branch = "main"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &GitSource{cfg: cfg, logger: logger}
}

// List обновляет клон и возвращает документы спецификаций.
func (s *GitSource) List(ctx context.Context) ([]Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.refresh(ctx); err != nil {
		return nil, err
	}

	return NewDirSource(filepath.Join(s.cfg.CacheDir, s.cfg.SubDir)).List(ctx)
}

// refresh клонирует репозиторий или подтягивает изменения.
func (s *GitSource) refresh(ctx context.Context) error {
	ref := plumbing.NewBranchReferenceName(s.cfg.Branch)

	repo, err := git.PlainOpen(s.cfg.CacheDir)
	if errors.Is(err, git.ErrRepositoryNotExists) {
		if err := os.MkdirAll(s.cfg.CacheDir, 0o755); err != nil {
			return fmt.Errorf("create cache dir: %w", err)
		}
		s.logger.Info("cloning spec repository", "url", s.cfg.URL, "branch", s.cfg.Branch)
		_, err = git.PlainCloneContext(ctx, s.cfg.CacheDir, false, &git.CloneOptions{
			URL:           s.cfg.URL,
			Auth:          s.auth(),
			ReferenceName: ref,
			SingleBranch:  true,
		})
		if err != nil {
			return fmt.Errorf("clone %s: %w", s.cfg.URL, err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("open %s: %w", s.cfg.CacheDir, err)
	}

	wt, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("worktree: %w", err)
	}

	err = wt.PullContext(ctx, &git.PullOptions{
		RemoteName:    git.DefaultRemoteName,
		Auth:          s.auth(),
		ReferenceName: ref,
		SingleBranch:  true,
		Force:         true,
	})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return fmt.Errorf("pull %s: %w", s.cfg.URL, err)
	}
	return nil
}

// auth возвращает nil-интерфейс без токена: go-git тогда ходит анонимно.
func (s *GitSource) auth() transport.AuthMethod {
	if s.cfg.Token == "" {
		return nil
	}
	username := s.cfg.Username
	if username == "" {
		username = "git"
	}
	return &http.BasicAuth{Username: username, Password: s.cfg.Token}
}
