package manifest

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/contentbuilder/internal/entity"
)

type fakeHistory map[string]time.Time

func (f fakeHistory) LastModified(path string) (time.Time, error) {
	if t, ok := f[path]; ok {
		return t, nil
	}
	return time.Time{}, errors.New("no history")
}

func sampleEntities() []entity.Entity {
	return []entity.Entity{
		{URL: "/", Slug: "index.png", Title: "Home", Type: entity.TypeHome},
		{URL: "/docs/a", Slug: "docs-a.png", Title: "A", Type: entity.TypeDocs, FilePath: "content/docs/a/index.md"},
		{URL: "/docs/b", Slug: "docs-b.png", Title: "B", Type: entity.TypeDocs, FilePath: "content/docs/b.md"},
	}
}

func TestBuild(t *testing.T) {
	start := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	edited := time.Date(2026, 4, 2, 8, 30, 0, 0, time.UTC)

	m := Build("run-1", start, sampleEntities(),
		map[string]bool{"index.png": true, "docs-a.png": true},
		fakeHistory{"content/docs/a/index.md": edited})

	require.Len(t, m.Entities, 3)
	assert.Equal(t, "run-1", m.RunID)
	assert.Equal(t, start, m.Entities[0].LastMod, "no file path falls back to run start")
	assert.Equal(t, edited, m.Entities[1].LastMod, "history wins when known")
	assert.Equal(t, start, m.Entities[2].LastMod, "unknown history falls back to run start")

	assert.Equal(t, "docs-a.png", m.Entities[1].Artifact)
	assert.Empty(t, m.Entities[2].Artifact)
	assert.False(t, m.Entities[2].Rendered)
	assert.Equal(t, entity.Fingerprint(sampleEntities()[1]), m.Entities[1].Fingerprint)
}

func TestWriteAndRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "public", "og", "entities.json")
	m := Build("run-2", time.Now(), sampleEntities(), nil, nil)

	require.NoError(t, Write(path, m))
	restored, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, "run-2", restored.RunID)
	require.Len(t, restored.Entities, 3)
	assert.Equal(t, "/docs/a", restored.Entities[1].URL)
	assert.Equal(t, "content/docs/a/index.md", restored.Entities[1].FilePath)
	assert.NoFileExists(t, path+".tmp")
}

func TestHashIgnoresRunIdentity(t *testing.T) {
	a := Build("run-a", time.Now(), sampleEntities(), nil, nil)
	b := Build("run-b", time.Now().Add(time.Hour), sampleEntities(), map[string]bool{"index.png": true}, nil)

	ha, err := a.Hash()
	require.NoError(t, err)
	hb, err := b.Hash()
	require.NoError(t, err)
	assert.Equal(t, ha, hb)

	changed := sampleEntities()
	changed[0].Title = "New home"
	hc, err := Build("run-c", time.Now(), changed, nil, nil).Hash()
	require.NoError(t, err)
	assert.NotEqual(t, ha, hc)
}
