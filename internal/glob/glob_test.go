package glob

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatch(t *testing.T) {
	cases := []struct {
		name     string
		path     string
		patterns []string
		want     bool
	}{
		{"base name match in subdir", "a/b/c.png", []string{"*.png"}, true},
		{"full path match", "guides/intro.md", []string{"guides/*.md"}, true},
		{"case insensitive", "Guides/INTRO.MD", []string{"*.md"}, true},
		{"double star subtree", "draft/c.md", []string{"**/draft/**"}, true},
		{"double star nested subtree", "x/draft/y/c.md", []string{"**/draft/**"}, true},
		{"no match", "b.png", []string{"*.md"}, false},
		{"empty patterns", "a.md", nil, false},
		{"blank pattern ignored", "a.md", []string{"  "}, false},
		{"windows separators", `a\b\c.md`, []string{"a/b/*.md"}, true},
		{"leading dot slash", "./a.md", []string{"a.md"}, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Match(tc.path, tc.patterns))
		})
	}
}

func TestFilter_ShouldCopy(t *testing.T) {
	f := NewFilter([]string{"*.md"}, []string{"**/draft/**"})

	var copied []string
	for _, p := range []string{"a.md", "draft/c.md", "b.png"} {
		if f.ShouldCopy(p) {
			copied = append(copied, p)
		}
	}
	assert.Equal(t, []string{"a.md"}, copied)
}

func TestFilter_ShouldCopyIsIncludeAndNotExclude(t *testing.T) {
	include := []string{"*.md", "*.png", "api/**"}
	exclude := []string{"**/draft/**", "secret*"}
	f := NewFilter(include, exclude)

	paths := []string{
		"a.md", "api/x.json", "api/draft/y.json", "draft/z.png",
		"secret.md", "img/logo.PNG", "notes.txt", "deep/api/q.md",
	}
	for _, p := range paths {
		assert.Equal(t, Match(p, include) && !Match(p, exclude), f.ShouldCopy(p), p)
	}
}

func TestFilter_EmptyIncludeCopiesNothing(t *testing.T) {
	f := NewFilter(nil, nil)
	assert.False(t, f.ShouldCopy("a.md"))
	assert.False(t, f.ShouldCopy("x/y/z.png"))
}

func TestValidate(t *testing.T) {
	require.NoError(t, Validate([]string{"*.md", "**/draft/**"}))
	require.Error(t, Validate([]string{"[unclosed"}))
}
