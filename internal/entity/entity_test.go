package entity

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/contentbuilder/internal/articles"
	"git.home.luguber.info/inful/contentbuilder/internal/blog"
	foundationerrors "git.home.luguber.info/inful/contentbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/contentbuilder/internal/reference"
	"git.home.luguber.info/inful/contentbuilder/internal/testutil"
)

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"Hello, World!":           "hello-world",
		"  Leading and trailing ": "leading-and-trailing",
		"Go 1.24 -- released":     "go-1-24-released",
		"---":                     "",
		"Ünïcode Stays Out":       "n-code-stays-out",
		"already-slugged":         "already-slugged",
	}
	for in, want := range tests {
		assert.Equal(t, want, Slugify(in), in)
	}
}

func TestSlugForURL(t *testing.T) {
	assert.Equal(t, "index.png", SlugForURL("/"))
	assert.Equal(t, "docs.png", SlugForURL("/docs"))
	assert.Equal(t, "docs-reference-operator-comparison-eq.png", SlugForURL("/docs/reference/operator/comparison/eq"))
	assert.Equal(t, "blogs-hello-world.png", SlugForURL("/blogs/hello-world/"))
}

func urls(entities []Entity) []string {
	out := make([]string, 0, len(entities))
	for _, e := range entities {
		out = append(out, e.URL)
	}
	return out
}

func assertUnique(t *testing.T, entities []Entity) {
	t.Helper()
	seenURL := map[string]bool{}
	seenSlug := map[string]bool{}
	for _, e := range entities {
		assert.False(t, seenURL[e.URL], "duplicate url %s", e.URL)
		assert.False(t, seenSlug[e.Slug], "duplicate slug %s", e.Slug)
		seenURL[e.URL] = true
		seenSlug[e.Slug] = true
	}
}

func TestEnumerateOrderAndFields(t *testing.T) {
	docs := t.TempDir()
	testutil.WriteFiles(t, docs, map[string]string{
		"guide/navigation.yml": "- title: Install Guide\n  link: install.md\n",
		"guide/index.md":       "---\ntitle: The Guide\ndescription: All about it\n---\n",
		"guide/install.md":     "Install\n",
		"guide/misc.md":        "Misc\n",
	})
	refs := reference.NewIndex([]reference.Item{
		{Name: "$eq", Type: "operator", Category: "comparison", ReferencePath: "operators/eq", File: "operators/eq.yml", Description: "Equality"},
		{Name: "drop", Type: "command", Category: "admin", ReferencePath: "commands/drop", File: "commands/drop.yml"},
		{Name: "untyped", ReferencePath: "misc/untyped"},
	})
	posts := blog.StaticSource{{Title: "Hello, World!", Link: "https://example.com/hello"}}

	en := NewEnumerator(articles.NewStore(docs), refs, posts, Options{
		SiteTitle:          "Example",
		DefaultDescription: "Default",
		DocsDir:            "content/docs",
		ReferenceDir:       "content/reference",
	})
	entities, err := en.Enumerate(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{
		"/",
		"/docs",
		"/docs/guide",
		"/docs/guide/install",
		"/docs/guide/misc",
		"/blogs",
		"/blogs/hello-world",
		"/docs/reference",
		"/docs/reference/command",
		"/docs/reference/operator",
		"/docs/reference/command/admin",
		"/docs/reference/operator/comparison",
		"/docs/reference/command/admin/drop",
		"/docs/reference/operator/comparison/eq",
		"/packages",
	}, urls(entities))
	assertUnique(t, entities)

	byURL := map[string]Entity{}
	for _, e := range entities {
		byURL[e.URL] = e
	}

	home := byURL["/"]
	assert.Equal(t, TypeHome, home.Type)
	assert.Equal(t, "Example", home.Title)
	assert.Equal(t, "index.png", home.Slug)

	guide := byURL["/docs/guide"]
	assert.Equal(t, "The Guide", guide.Title, "frontmatter title wins")
	assert.Equal(t, "All about it", guide.Description)
	assert.Equal(t, "content/docs/guide/index.md", guide.FilePath)
	assert.Equal(t, TypeDocs, guide.Type)

	assert.Equal(t, "Install Guide", byURL["/docs/guide/install"].Title, "navigation title is second choice")
	assert.Equal(t, "Guide", byURL["/docs/guide/misc"].Title, "section name is the fallback")
	assert.Equal(t, "Default", byURL["/docs/guide/misc"].Description)

	post := byURL["/blogs/hello-world"]
	assert.True(t, post.IsExternal)
	assert.Equal(t, TypeBlog, post.Type)
	assert.Equal(t, "https://example.com/hello", post.Link)
	assert.Equal(t, "blogs-hello-world.png", post.Slug)

	item := byURL["/docs/reference/operator/comparison/eq"]
	assert.Equal(t, "$eq", item.Title)
	assert.Equal(t, "Equality", item.Description)
	assert.Equal(t, "content/reference/operators/eq.yml", item.FilePath)
	assert.Equal(t, TypeReference, item.Type)
}

func TestEnumerateUniqueWithSharedDisplayNames(t *testing.T) {
	refs := reference.NewIndex([]reference.Item{
		{Name: "count", Type: "function", Category: "aggregate", ReferencePath: "functions/aggregate/count"},
		{Name: "count", Type: "function", Category: "string", ReferencePath: "functions/string/count"},
		{Name: "count", Type: "function", Category: "aggregate", ReferencePath: "functions/other/count"},
		{Name: "Count", Type: "Function", Category: "Aggregate", ReferencePath: "x/count"},
	})
	posts := blog.StaticSource{
		{Title: "Release Notes"},
		{Title: "release notes!"},
		{Title: "???"},
	}

	entities, err := NewEnumerator(nil, refs, posts, Options{}).Enumerate(context.Background())
	require.NoError(t, err)
	assertUnique(t, entities)

	all := urls(entities)
	assert.Contains(t, all, "/docs/reference/function/aggregate/count")
	assert.Contains(t, all, "/docs/reference/function/string/count")
	assert.Contains(t, all, "/blogs/release-notes")
}

func TestEnumerateReferenceURLsRoundTripThroughIndex(t *testing.T) {
	idx := reference.NewIndex([]reference.Item{
		{Name: "$eq", Type: "operator", Category: "comparison", ReferencePath: "operators/eq"},
		{Name: "$EQ", Type: "Operator", Category: "comparison", ReferencePath: "legacy/eq"},
		{Name: "$in", Type: "operator", Category: "Query Ops", ReferencePath: "operators/in"},
		{Name: "$nin", Type: "operator", Category: "query-ops", ReferencePath: "operators/nin"},
		{Name: "ping", Type: "command", ReferencePath: "commands/ping"},
		{Name: "odd", Type: "a/b", Category: "x?y", ReferencePath: "misc/odd name"},
	})

	entities, err := NewEnumerator(nil, idx, nil, Options{}).Enumerate(context.Background())
	require.NoError(t, err)
	assertUnique(t, entities)

	var types, pairs, items int
	for _, e := range entities {
		if e.Type != TypeReference {
			continue
		}
		typ, cat, file, ok := ParseReferenceURL(e.URL)
		require.True(t, ok, e.URL)
		switch {
		case file != "":
			items++
			item, found := idx.Lookup(typ, cat, file)
			require.True(t, found, e.URL)
			assert.Equal(t, item.Name, e.Title)
		case cat != "":
			pairs++
			assert.True(t, idx.IsValidPair(typ, cat), e.URL)
		default:
			types++
			assert.Contains(t, idx.Types(), typ, e.URL)
		}
	}
	assert.Equal(t, len(idx.Types()), types)
	assert.Equal(t, len(idx.Pairs()), pairs)
	assert.Equal(t, 6, items)

	all := urls(entities)
	assert.Contains(t, all, "/docs/reference/operator")
	assert.Contains(t, all, "/docs/reference/Operator")
	assert.Contains(t, all, "/docs/reference/operator/Query%20Ops")
	assert.Contains(t, all, "/docs/reference/operator/query-ops")
	assert.Contains(t, all, "/docs/reference/command/Uncategorized/ping")
	assert.Contains(t, all, "/docs/reference/a%2Fb/x%3Fy/odd%20name")
}

func TestParseReferenceURL(t *testing.T) {
	typ, cat, file, ok := ParseReferenceURL(ReferencePairURL("a/b", "Query Ops") + "/eq")
	require.True(t, ok)
	assert.Equal(t, []string{"a/b", "Query Ops", "eq"}, []string{typ, cat, file})

	for _, bad := range []string{"/docs/reference", "/docs/reference/", "/docs/other/x", "/docs/reference/a/b/c/d", "/docs/reference/a//c", "/docs/reference/%zz"} {
		_, _, _, ok := ParseReferenceURL(bad)
		assert.False(t, ok, bad)
	}
}

func TestEnumerateSlugCollisionFails(t *testing.T) {
	idx := reference.NewIndex([]reference.Item{
		{Name: "one", Type: "a-b", Category: "c", ReferencePath: "one"},
		{Name: "two", Type: "a", Category: "b", ReferencePath: "two"},
	})

	_, err := NewEnumerator(nil, idx, nil, Options{}).Enumerate(context.Background())
	require.Error(t, err)
	assert.True(t, foundationerrors.HasCategory(err, foundationerrors.CategoryValidation))
	assert.Contains(t, err.Error(), "/docs/reference/a-b")
	assert.Contains(t, err.Error(), "/docs/reference/a/b")
	assert.Contains(t, err.Error(), "docs-reference-a-b.png")
}

func TestEnumerateDocsSectionNamedReference(t *testing.T) {
	docs := t.TempDir()
	testutil.WriteFiles(t, docs, map[string]string{"reference/index.md": "Docs section shadowing the landing\n"})

	entities, err := NewEnumerator(articles.NewStore(docs), reference.NewIndex(nil), nil, Options{}).
		Enumerate(context.Background())
	require.NoError(t, err)
	assertUnique(t, entities)

	count := 0
	for _, e := range entities {
		if e.URL == ReferenceURL {
			count++
			assert.Equal(t, TypeDocs, e.Type, "the first occurrence wins")
		}
	}
	assert.Equal(t, 1, count)
}

type failingPosts struct{}

func (failingPosts) Posts(context.Context) ([]blog.Post, error) {
	return nil, errors.New("feed unavailable")
}

func TestEnumerateBlogFailureIsNotFatal(t *testing.T) {
	entities, err := NewEnumerator(nil, nil, failingPosts{}, Options{}).Enumerate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"/", "/docs", "/blogs", "/docs/reference", "/packages"}, urls(entities))
}

func TestEnumerateIsDeterministic(t *testing.T) {
	docs := t.TempDir()
	testutil.WriteFiles(t, docs, map[string]string{
		"b/index.md": "b",
		"a/x.md":     "x",
		"a/y/z.md":   "z",
	})
	en := NewEnumerator(articles.NewStore(docs), nil, nil, Options{})

	first, err := en.Enumerate(context.Background())
	require.NoError(t, err)
	second, err := en.Enumerate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestFingerprint(t *testing.T) {
	e := Entity{URL: "/docs/a", Title: "A", Description: "d", Type: TypeDocs}
	fp := Fingerprint(e)
	require.NotEmpty(t, fp)
	assert.Equal(t, fp, Fingerprint(e))

	e.FilePath = "content/docs/a/index.md"
	assert.Equal(t, fp, Fingerprint(e), "file path does not affect the artifact")

	e.Title = "B"
	assert.NotEqual(t, fp, Fingerprint(e))
}
