// Package testutil holds filesystem and git fixtures shared by package tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/require"
)

// WriteFiles creates every file of files below root, keyed by slash-separated
// relative path. Parent directories are created as needed.
func WriteFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o750))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	}
}

// SetupGitRepo initializes a git repository in dir.
// Returns the repository and its worktree.
func SetupGitRepo(t *testing.T, dir string) (*git.Repository, *git.Worktree) {
	t.Helper()

	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err, "failed to initialize git repo")

	w, err := repo.Worktree()
	require.NoError(t, err, "failed to get worktree")

	return repo, w
}

// CommitFiles writes files into the worktree root, stages them and records a
// single commit authored at when.
func CommitFiles(t *testing.T, w *git.Worktree, files map[string]string, message string, when time.Time) {
	t.Helper()
	root := w.Filesystem.Root()
	WriteFiles(t, root, files)
	for rel := range files {
		_, err := w.Add(rel)
		require.NoError(t, err)
	}
	_, err := w.Commit(message, &git.CommitOptions{
		Author: &object.Signature{Name: "Docs Bot", Email: "docs@example.com", When: when},
	})
	require.NoError(t, err)
}
