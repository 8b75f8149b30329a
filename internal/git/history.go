package git

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// ErrNoHistory is returned when a path has no commits (untracked, or no repository).
var ErrNoHistory = errors.New("no commit history for path")

// History answers "when was this file last changed" from the repository that
// contains a working root. Lookups are cached; History is safe for concurrent use.
type History struct {
	repo  *git.Repository
	root  string
	mu    sync.Mutex
	cache map[string]time.Time
}

// OpenHistory opens the repository enclosing dir (searching parent
// directories). It returns ErrNoHistory when dir is not inside a repository.
func OpenHistory(dir string) (*History, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	repo, err := git.PlainOpenWithOptions(abs, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return nil, ErrNoHistory
		}
		return nil, fmt.Errorf("open repository: %w", err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("open worktree: %w", err)
	}
	return &History{repo: repo, root: wt.Filesystem.Root(), cache: make(map[string]time.Time)}, nil
}

// LastModified returns the committer time of the newest commit touching path.
func (h *History) LastModified(path string) (time.Time, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return time.Time{}, err
	}
	rel, err := filepath.Rel(h.root, abs)
	if err != nil {
		return time.Time{}, err
	}
	rel = filepath.ToSlash(rel)

	h.mu.Lock()
	defer h.mu.Unlock()
	if t, ok := h.cache[rel]; ok {
		return t, nil
	}

	iter, err := h.repo.Log(&git.LogOptions{FileName: &rel})
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s: %w", ErrNoHistory, rel, err)
	}
	defer iter.Close()

	commit, err := iter.Next()
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s", ErrNoHistory, rel)
	}
	when := commitTime(commit)
	h.cache[rel] = when
	return when, nil
}

func commitTime(c *object.Commit) time.Time {
	return c.Committer.When.UTC()
}
