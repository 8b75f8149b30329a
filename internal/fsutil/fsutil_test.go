package fsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCopyDirAndFile(t *testing.T) {
	src := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(src, "a", "b"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(src, "a", "b", "c.md"), []byte("deep"), 0o640))
	require.NoError(t, os.WriteFile(filepath.Join(src, "top.md"), []byte("top"), 0o600))

	dst := filepath.Join(t.TempDir(), "out")
	require.NoError(t, CopyDir(src, dst))

	data, err := os.ReadFile(filepath.Join(dst, "a", "b", "c.md"))
	require.NoError(t, err)
	assert.Equal(t, "deep", string(data))

	info, err := os.Stat(filepath.Join(dst, "a", "b", "c.md"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o640), info.Mode().Perm())
	assert.FileExists(t, filepath.Join(dst, "top.md"))
}

func TestCopyFileOverwrites(t *testing.T) {
	dir := t.TempDir()
	src, dst := filepath.Join(dir, "src"), filepath.Join(dir, "nested", "dst")
	require.NoError(t, os.WriteFile(src, []byte("new"), 0o600))
	require.NoError(t, os.MkdirAll(filepath.Dir(dst), 0o750))
	require.NoError(t, os.WriteFile(dst, []byte("old content that is longer"), 0o600))

	require.NoError(t, CopyFile(src, dst))
	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))
}

func TestResetDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "x"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "x", "f"), []byte("f"), 0o600))

	require.NoError(t, ResetDir(dir))
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.True(t, IsDir(dir))
	assert.False(t, IsDir(filepath.Join(dir, "missing")))
}
