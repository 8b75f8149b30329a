package ingest

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/contentbuilder/internal/config"
	foundationerrors "git.home.luguber.info/inful/contentbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/contentbuilder/internal/fsutil"
	"git.home.luguber.info/inful/contentbuilder/internal/git"
	"git.home.luguber.info/inful/contentbuilder/internal/retry"
	"git.home.luguber.info/inful/contentbuilder/internal/testutil"
)

// fakeCloner serves repositories from fixture directories keyed by URL.
type fakeCloner struct {
	repos    map[string]string
	failures map[string][]error
	calls    map[string]int
}

func newFakeCloner() *fakeCloner {
	return &fakeCloner{repos: map[string]string{}, failures: map[string][]error{}, calls: map[string]int{}}
}

func (f *fakeCloner) Clone(_ context.Context, req git.CloneRequest) (git.CloneResult, error) {
	f.calls[req.URL]++
	if errs := f.failures[req.URL]; len(errs) > 0 {
		f.failures[req.URL] = errs[1:]
		return git.CloneResult{}, errs[0]
	}
	dir, ok := f.repos[req.URL]
	if !ok {
		return git.CloneResult{}, errors.New("repository not found")
	}
	if err := fsutil.CopyDir(dir, req.Dest); err != nil {
		return git.CloneResult{}, err
	}
	return git.CloneResult{Path: req.Dest, Commit: "fixture"}, nil
}

// snapshot returns every regular file below dir keyed by slash-separated relative path.
func snapshot(t *testing.T, dir string) map[string]string {
	t.Helper()
	out := map[string]string{}
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		out[filepath.ToSlash(rel)] = string(data)
		return nil
	})
	require.NoError(t, err)
	return out
}

func fastPolicy() retry.Policy {
	return retry.NewPolicy(config.RetryBackoffFixed, time.Millisecond, time.Millisecond, 2)
}

func testConfig(repo string) *config.ContentConfig {
	return &config.ContentConfig{
		Sources: []config.ContentSource{{
			Repository: repo,
			Branch:     "main",
			Mappings:   []config.Mapping{{Source: "docs", Target: "content/docs/api"}},
		}},
		Include: []string{"*.md", "*.png"},
		Exclude: []string{"**/draft/**"},
	}
}

func TestIngestCopiesFilteredFiles(t *testing.T) {
	fixture := t.TempDir()
	testutil.WriteFiles(t, fixture, map[string]string{
		"docs/a.md":         "a",
		"docs/draft/c.md":   "draft",
		"docs/media/b.png":  "png",
		"docs/notes.txt":    "txt",
		"docs/guide/x.md":   "x",
		"README.md":         "outside mapping",
		"docs/.git/HEAD":    "ref",
		"docs/guide/y.yaml": "y",
	})
	cloner := newFakeCloner()
	cloner.repos["https://example.com/api.git"] = fixture

	root := t.TempDir()
	scratch := t.TempDir()
	ing := New(cloner, root, Options{ScratchDir: scratch, Retry: fastPolicy()})

	tracked, err := ing.Ingest(context.Background(), testConfig("https://example.com/api.git"))
	require.NoError(t, err)

	assert.Equal(t, []TrackedFile{
		{FromSource: "docs/a.md", ToTarget: "content/docs/api/a.md", Repository: "https://example.com/api.git"},
		{FromSource: "docs/guide/x.md", ToTarget: "content/docs/api/guide/x.md", Repository: "https://example.com/api.git"},
		{FromSource: "docs/media/b.png", ToTarget: "content/docs/api/media/b.png", Repository: "https://example.com/api.git"},
	}, tracked)

	assert.Equal(t, map[string]string{
		"a.md":        "a",
		"guide/x.md":  "x",
		"media/b.png": "png",
	}, snapshot(t, filepath.Join(root, "content", "docs", "api")))

	entries, err := os.ReadDir(scratch)
	require.NoError(t, err)
	assert.Empty(t, entries, "scratch workspace must be removed")
}

func TestIngestIsIdempotent(t *testing.T) {
	fixture := t.TempDir()
	testutil.WriteFiles(t, fixture, map[string]string{
		"docs/a.md":        "a",
		"docs/sub/b.md":    "b",
		"docs/media/i.png": "i",
	})
	cloner := newFakeCloner()
	cloner.repos["repo"] = fixture

	root := t.TempDir()
	ing := New(cloner, root, Options{ScratchDir: t.TempDir(), Retry: fastPolicy()})
	cfg := testConfig("repo")

	first, err := ing.Ingest(context.Background(), cfg)
	require.NoError(t, err)
	firstTree := snapshot(t, root)

	second, err := ing.Ingest(context.Background(), cfg)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, firstTree, snapshot(t, root))
}

func TestIngestRemovesStaleTargetFiles(t *testing.T) {
	fixture := t.TempDir()
	testutil.WriteFiles(t, fixture, map[string]string{"docs/a.md": "a"})
	cloner := newFakeCloner()
	cloner.repos["repo"] = fixture

	root := t.TempDir()
	testutil.WriteFiles(t, root, map[string]string{"content/docs/api/stale.md": "old"})

	ing := New(cloner, root, Options{ScratchDir: t.TempDir(), Retry: fastPolicy()})
	_, err := ing.Ingest(context.Background(), testConfig("repo"))
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"a.md": "a"}, snapshot(t, filepath.Join(root, "content", "docs", "api")))
}

func TestIngestCloneFailureAbortsAndCleansScratch(t *testing.T) {
	good := t.TempDir()
	testutil.WriteFiles(t, good, map[string]string{"docs/a.md": "a"})
	cloner := newFakeCloner()
	cloner.repos["good"] = good

	cfg := testConfig("good")
	cfg.Sources = append(cfg.Sources, config.ContentSource{
		Repository: "https://example.com/missing.git",
		Branch:     "main",
		Mappings:   []config.Mapping{{Source: "docs", Target: "content/docs/missing"}},
	})

	root := t.TempDir()
	scratch := t.TempDir()
	ing := New(cloner, root, Options{ScratchDir: scratch, Retry: fastPolicy()})

	tracked, err := ing.Ingest(context.Background(), cfg)
	require.Error(t, err)
	assert.Nil(t, tracked)

	var cloneErr *CloneError
	require.ErrorAs(t, err, &cloneErr)
	assert.Equal(t, "https://example.com/missing.git", cloneErr.Repository)
	assert.Contains(t, err.Error(), "https://example.com/missing.git")

	entries, err := os.ReadDir(scratch)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestIngestRetriesTransientCloneFailures(t *testing.T) {
	fixture := t.TempDir()
	testutil.WriteFiles(t, fixture, map[string]string{"docs/a.md": "a"})
	cloner := newFakeCloner()
	cloner.repos["repo"] = fixture
	cloner.failures["repo"] = []error{
		foundationerrors.NewError(foundationerrors.CategoryNetwork, "connection reset").Retryable().Build(),
	}

	ing := New(cloner, t.TempDir(), Options{ScratchDir: t.TempDir(), Retry: fastPolicy()})
	tracked, err := ing.Ingest(context.Background(), testConfig("repo"))
	require.NoError(t, err)
	assert.Len(t, tracked, 1)
	assert.Equal(t, 2, cloner.calls["repo"])
}

func TestIngestDoesNotRetryPermanentFailures(t *testing.T) {
	cloner := newFakeCloner()
	cloner.failures["repo"] = []error{
		foundationerrors.NewError(foundationerrors.CategoryAuth, "authentication failed").Fatal().Build(),
	}

	ing := New(cloner, t.TempDir(), Options{ScratchDir: t.TempDir(), Retry: fastPolicy()})
	_, err := ing.Ingest(context.Background(), testConfig("repo"))
	require.Error(t, err)
	assert.Equal(t, 1, cloner.calls["repo"])
	assert.True(t, foundationerrors.HasCategory(err, foundationerrors.CategoryAuth))
}

func TestIngestMissingMappingSource(t *testing.T) {
	fixture := t.TempDir()
	testutil.WriteFiles(t, fixture, map[string]string{"other/a.md": "a"})
	cloner := newFakeCloner()
	cloner.repos["repo"] = fixture

	ing := New(cloner, t.TempDir(), Options{ScratchDir: t.TempDir(), Retry: fastPolicy()})
	_, err := ing.Ingest(context.Background(), testConfig("repo"))
	require.Error(t, err)

	ce, ok := foundationerrors.AsClassified(err)
	require.True(t, ok)
	assert.Equal(t, foundationerrors.CategoryNotFound, ce.Category())
	repo, _ := ce.Context().GetString("repository")
	mapping, _ := ce.Context().GetString("mapping")
	assert.Equal(t, "repo", repo)
	assert.Equal(t, "docs", mapping)
}

func TestIngestEmptyIncludeCopiesNothing(t *testing.T) {
	fixture := t.TempDir()
	testutil.WriteFiles(t, fixture, map[string]string{"docs/a.md": "a"})
	cloner := newFakeCloner()
	cloner.repos["repo"] = fixture

	cfg := testConfig("repo")
	cfg.Include = nil

	root := t.TempDir()
	ing := New(cloner, root, Options{ScratchDir: t.TempDir(), Retry: fastPolicy()})
	tracked, err := ing.Ingest(context.Background(), cfg)
	require.NoError(t, err)
	assert.Empty(t, tracked)
	assert.DirExists(t, filepath.Join(root, "content", "docs", "api"))
}

func TestIngestWithGitClient(t *testing.T) {
	repoDir := t.TempDir()
	repo, wt := testutil.SetupGitRepo(t, repoDir)
	testutil.CommitFiles(t, wt, map[string]string{"docs/index.md": "# Hello"}, "initial", time.Now())

	head, err := repo.Head()
	require.NoError(t, err)

	cfg := testConfig(repoDir)
	cfg.Sources[0].Branch = head.Name().Short()

	root := t.TempDir()
	ing := New(git.NewClient(git.WithDepth(0)), root, Options{ScratchDir: t.TempDir(), Retry: fastPolicy()})
	tracked, err := ing.Ingest(context.Background(), cfg)
	require.NoError(t, err)
	require.Len(t, tracked, 1)
	assert.Equal(t, "docs/index.md", tracked[0].FromSource)
	assert.FileExists(t, filepath.Join(root, "content", "docs", "api", "index.md"))
}

func TestIngestRefusesRootTarget(t *testing.T) {
	fixture := t.TempDir()
	testutil.WriteFiles(t, fixture, map[string]string{"docs/a.md": "a"})
	cloner := newFakeCloner()
	cloner.repos["repo"] = fixture

	root := t.TempDir()
	testutil.WriteFiles(t, root, map[string]string{
		"contentbuilder.json":        "{}",
		".contentbuilder/history.db": "db",
		"content/reference/x/a.yaml": "type: x",
	})

	cfg := testConfig("repo")
	cfg.Sources[0].Mappings = []config.Mapping{{Source: "docs", Target: "."}}

	tracked, err := New(cloner, root, Options{ScratchDir: t.TempDir(), Retry: fastPolicy()}).
		Ingest(context.Background(), cfg)
	require.Error(t, err)
	assert.Nil(t, tracked)
	assert.True(t, foundationerrors.HasCategory(err, foundationerrors.CategoryConfig))
	assert.Zero(t, cloner.calls["repo"])

	assert.FileExists(t, filepath.Join(root, "contentbuilder.json"))
	assert.FileExists(t, filepath.Join(root, ".contentbuilder", "history.db"))
	assert.FileExists(t, filepath.Join(root, "content", "reference", "x", "a.yaml"))
}

func TestIngestRefusesNestedTargets(t *testing.T) {
	fixture := t.TempDir()
	testutil.WriteFiles(t, fixture, map[string]string{"docs/a.md": "a", "guide/b.md": "b"})
	cloner := newFakeCloner()
	cloner.repos["repo"] = fixture

	root := t.TempDir()
	cfg := testConfig("repo")
	cfg.Sources[0].Mappings = []config.Mapping{
		{Source: "docs", Target: "content/docs/api"},
		{Source: "guide", Target: "content/docs"},
	}

	tracked, err := New(cloner, root, Options{ScratchDir: t.TempDir(), Retry: fastPolicy()}).
		Ingest(context.Background(), cfg)
	require.Error(t, err)
	assert.Nil(t, tracked)
	assert.Contains(t, err.Error(), "mapping targets overlap")
	assert.NoDirExists(t, filepath.Join(root, "content"))
}
