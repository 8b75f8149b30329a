package git

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	foundationerrors "git.home.luguber.info/inful/contentbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/contentbuilder/internal/testutil"
)

// initRepo creates a repository holding files in a single commit authored at when.
func initRepo(t *testing.T, dir string, files map[string]string, when time.Time) (*git.Repository, string) {
	t.Helper()
	repo, wt := testutil.SetupGitRepo(t, dir)
	testutil.CommitFiles(t, wt, files, "add content", when)

	head, err := repo.Head()
	require.NoError(t, err)
	return repo, head.Name().Short()
}

func TestClient_CloneLocalRepository(t *testing.T) {
	src := filepath.Join(t.TempDir(), "src")
	_, branch := initRepo(t, src, map[string]string{"docs/index.md": "# Hello"}, time.Now())

	dest := filepath.Join(t.TempDir(), "clone")
	// Leave a stale file behind to prove the destination is replaced.
	require.NoError(t, os.MkdirAll(dest, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(dest, "stale.txt"), []byte("x"), 0o600))

	client := NewClient(WithDepth(0))
	res, err := client.Clone(context.Background(), CloneRequest{URL: src, Branch: branch, Dest: dest})
	require.NoError(t, err)
	assert.Equal(t, dest, res.Path)
	assert.Len(t, res.Commit, 40)

	data, err := os.ReadFile(filepath.Join(dest, "docs", "index.md"))
	require.NoError(t, err)
	assert.Equal(t, "# Hello", string(data))
	assert.NoFileExists(t, filepath.Join(dest, "stale.txt"))
}

func TestClient_CloneMissingBranchFails(t *testing.T) {
	src := filepath.Join(t.TempDir(), "src")
	initRepo(t, src, map[string]string{"a.md": "a"}, time.Now())

	dest := filepath.Join(t.TempDir(), "clone")
	_, err := NewClient(WithDepth(0)).Clone(context.Background(), CloneRequest{URL: src, Branch: "does-not-exist", Dest: dest})
	require.Error(t, err)
	assert.True(t, foundationerrors.IsClassified(err))
	assert.NoDirExists(t, dest)
}

func TestClassifyGitError(t *testing.T) {
	cases := []struct {
		msg       string
		category  foundationerrors.ErrorCategory
		retryable bool
	}{
		{"authentication required", foundationerrors.CategoryAuth, false},
		{"repository not found", foundationerrors.CategoryNotFound, false},
		{"couldn't find remote ref refs/heads/nope", foundationerrors.CategoryNotFound, false},
		{"read tcp: i/o timeout", foundationerrors.CategoryNetwork, true},
		{"429 too many requests", foundationerrors.CategoryNetwork, true},
		{"something odd", foundationerrors.CategoryGit, true},
	}
	for _, tc := range cases {
		t.Run(tc.msg, func(t *testing.T) {
			err := ClassifyGitError(errors.New(tc.msg), "clone", "https://example.com/r.git")
			classified, ok := foundationerrors.AsClassified(err)
			require.True(t, ok)
			assert.Equal(t, tc.category, classified.Category())
			assert.Equal(t, tc.retryable, classified.CanRetry())
			repo, _ := classified.Context().GetString("repository")
			assert.Equal(t, "https://example.com/r.git", repo)
		})
	}
	assert.NoError(t, ClassifyGitError(nil, "clone", "x"))
}

func TestHistory_LastModified(t *testing.T) {
	dir := t.TempDir()
	when := time.Date(2024, 3, 14, 15, 9, 26, 0, time.UTC)
	initRepo(t, dir, map[string]string{"content/docs/a/index.md": "# A"}, when)

	h, err := OpenHistory(filepath.Join(dir, "content"))
	require.NoError(t, err)

	got, err := h.LastModified(filepath.Join(dir, "content", "docs", "a", "index.md"))
	require.NoError(t, err)
	assert.True(t, when.Equal(got), "expected %s, got %s", when, got)

	_, err = h.LastModified(filepath.Join(dir, "untracked.md"))
	assert.ErrorIs(t, err, ErrNoHistory)
}

func TestOpenHistory_NoRepository(t *testing.T) {
	_, err := OpenHistory(t.TempDir())
	assert.ErrorIs(t, err, ErrNoHistory)
}

func TestAuthFromEnv(t *testing.T) {
	t.Setenv(TokenEnvVar, "")
	assert.Nil(t, AuthFromEnv())
	t.Setenv(TokenEnvVar, "secret")
	assert.NotNil(t, AuthFromEnv())
}
