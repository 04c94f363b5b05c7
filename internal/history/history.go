// Package history records every persisted collection change as a git commit
// in the data directory, using go-git so no git binary is needed.
package history

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/maruel/storefront/internal/storage"
)

const (
	authorName  = "storefront"
	authorEmail = "storefront@localhost"
	maxLog      = 1000
)

// Commit is one entry of a collection's history.
type Commit struct {
	Hash    string    `json:"hash"`
	Message string    `json:"message"`
	When    time.Time `json:"when"`
}

// Repo is the git repository holding the collection files.
type Repo struct {
	dir  string
	repo *gogit.Repository
	mu   sync.Mutex
}

// Open opens the repository at dir, initializing it if needed.
func Open(dir string) (*Repo, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil { //nolint:gosec // G301: 0o755 is intentional for data directories
		return nil, fmt.Errorf("failed to create repo directory: %w", err)
	}
	repo, err := gogit.PlainOpen(abs)
	if err != nil {
		repo, err = gogit.PlainInit(abs, false)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize git repo: %w", err)
		}
		cfg, err := repo.Config()
		if err != nil {
			return nil, fmt.Errorf("failed to read git config: %w", err)
		}
		cfg.User.Name = authorName
		cfg.User.Email = authorEmail
		if err := repo.SetConfig(cfg); err != nil {
			return nil, fmt.Errorf("failed to write git config: %w", err)
		}
	}
	return &Repo{dir: abs, repo: repo}, nil
}

// OnPersist implements storage.Observer. Failures are logged; history never
// fails a mutation.
func (r *Repo) OnPersist(ctx context.Context, c storage.Change) {
	msg := fmt.Sprintf("%s: %s %s", c.Collection, c.Op, c.ID)
	if err := r.Commit(c.Path, msg); err != nil {
		slog.WarnContext(ctx, "Failed to record history", "collection", c.Collection, "id", c.ID, "err", err)
	}
}

// Commit stages the file and its id counter and commits them. It is a no-op
// when nothing changed.
func (r *Repo) Commit(path, msg string) error {
	rel, err := r.rel(path)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	w, err := r.repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to get worktree: %w", err)
	}
	files := []string{rel}
	if _, err := os.Stat(path + ".seq"); err == nil {
		files = append(files, rel+".seq")
	}
	for _, f := range files {
		if _, err := w.Add(f); err != nil {
			return fmt.Errorf("failed to stage %s: %w", f, err)
		}
	}
	status, err := w.Status()
	if err != nil {
		return fmt.Errorf("failed to get worktree status: %w", err)
	}
	staged := false
	for _, f := range files {
		if s := status.File(f); s.Staging != gogit.Unmodified && s.Staging != gogit.Untracked {
			staged = true
		}
	}
	if !staged {
		return nil
	}
	sig := &object.Signature{Name: authorName, Email: authorEmail, When: time.Now()}
	if _, err := w.Commit(msg, &gogit.CommitOptions{Author: sig, Committer: sig}); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// Log returns up to limit commits touching the collection file, newest first.
func (r *Repo) Log(_ context.Context, path string, limit int) ([]Commit, error) {
	if limit <= 0 || limit > maxLog {
		limit = maxLog
	}
	rel, err := r.rel(path)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, err := r.repo.Head(); err != nil {
		// No commits yet.
		return []Commit{}, nil
	}
	iter, err := r.repo.Log(&gogit.LogOptions{FileName: &rel})
	if err != nil {
		return nil, fmt.Errorf("failed to read log: %w", err)
	}
	defer iter.Close()
	out := []Commit{}
	for range limit {
		c, err := iter.Next()
		if err != nil {
			break
		}
		subject, _, _ := strings.Cut(c.Message, "\n")
		out = append(out, Commit{Hash: c.Hash.String(), Message: subject, When: c.Author.When})
	}
	return out, nil
}

// rel converts path to a slash separated path inside the repository.
func (r *Repo) rel(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(r.dir, abs)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", errors.New("path is outside the repository: " + path)
	}
	return filepath.ToSlash(rel), nil
}
