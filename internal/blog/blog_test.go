package blog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const rssFixture = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
  <title>Engineering Blog</title>
  <link>https://example.com/blog</link>
  <description>Posts</description>
  <item>
    <title>Hello, World!</title>
    <link>https://example.com/blog/hello-world</link>
    <description>&lt;p&gt;First &lt;b&gt;post&lt;/b&gt;.&lt;/p&gt;</description>
    <pubDate>Mon, 02 Jan 2006 15:04:05 GMT</pubDate>
  </item>
  <item>
    <title>   </title>
    <link>https://example.com/blog/untitled</link>
  </item>
  <item>
    <title>Second Post</title>
    <link>https://example.com/blog/second</link>
    <description>Plain text</description>
  </item>
  <item>
    <title>Third Post</title>
    <link>https://example.com/blog/third</link>
  </item>
</channel>
</rss>`

func TestFeedSourceFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feed.xml")
	require.NoError(t, os.WriteFile(path, []byte(rssFixture), 0o600))

	posts, err := NewFeedSource(path, 0).Posts(context.Background())
	require.NoError(t, err)
	require.Len(t, posts, 3)

	assert.Equal(t, "Hello, World!", posts[0].Title)
	assert.Equal(t, "First post.", posts[0].Description)
	assert.Equal(t, "https://example.com/blog/hello-world", posts[0].Link)
	assert.Equal(t, 2006, posts[0].Published.Year())
	assert.Equal(t, "Second Post", posts[1].Title)
	assert.True(t, posts[1].Published.IsZero())
}

func TestFeedSourceLimit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feed.xml")
	require.NoError(t, os.WriteFile(path, []byte(rssFixture), 0o600))

	posts, err := NewFeedSource(path, 2).Posts(context.Background())
	require.NoError(t, err)
	assert.Len(t, posts, 2)
}

func TestFeedSourceFromURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(rssFixture))
	}))
	defer srv.Close()

	posts, err := NewFeedSource(srv.URL+"/feed.xml", 0).Posts(context.Background())
	require.NoError(t, err)
	assert.Len(t, posts, 3)
}

func TestFeedSourceMissingFile(t *testing.T) {
	_, err := NewFeedSource(filepath.Join(t.TempDir(), "none.xml"), 0).Posts(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "none.xml")
}

func TestHTMLToText(t *testing.T) {
	tests := map[string]string{
		"plain   text\n here":                             "plain text here",
		"<p>One</p><p>Two</p>":                            "One Two",
		"a &amp; b":                                       "a & b",
		"<div>x<script>alert(1)</script>y</div>":          "xy",
		"<style>p{}</style><ul><li>a</li><li>b</li></ul>": "a b",
	}
	for in, want := range tests {
		assert.Equal(t, want, HTMLToText(in), in)
	}
}

func TestStaticSource(t *testing.T) {
	posts, err := StaticSource{{Title: "A"}}.Posts(context.Background())
	require.NoError(t, err)
	assert.Len(t, posts, 1)
}
