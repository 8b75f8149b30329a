// Package blog lists blog posts from an RSS or Atom feed.
package blog

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"golang.org/x/net/html"
)

// Post is one blog post as the enumerator needs it.
type Post struct {
	Title       string
	Description string
	Link        string
	Published   time.Time
}

// Source lists blog posts.
type Source interface {
	Posts(ctx context.Context) ([]Post, error)
}

// StaticSource serves a fixed list of posts.
type StaticSource []Post

func (s StaticSource) Posts(context.Context) ([]Post, error) { return s, nil }

// FeedSource reads posts from a feed URL or a local feed file.
type FeedSource struct {
	location string
	limit    int
	parser   *gofeed.Parser
}

// NewFeedSource returns a source for location; limit <= 0 means no limit.
func NewFeedSource(location string, limit int) *FeedSource {
	return &FeedSource{location: location, limit: limit, parser: gofeed.NewParser()}
}

// Posts fetches and parses the feed, keeping feed order up to the limit.
// Items without a title are skipped.
func (f *FeedSource) Posts(ctx context.Context) ([]Post, error) {
	feed, err := f.parse(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed %s: %w", f.location, err)
	}

	posts := make([]Post, 0, len(feed.Items))
	for _, item := range feed.Items {
		if f.limit > 0 && len(posts) >= f.limit {
			break
		}
		title := strings.TrimSpace(item.Title)
		if title == "" {
			continue
		}

		var published time.Time
		if item.PublishedParsed != nil {
			published = *item.PublishedParsed
		} else if item.UpdatedParsed != nil {
			published = *item.UpdatedParsed
		}

		description := item.Description
		if description == "" {
			description = item.Content
		}

		posts = append(posts, Post{
			Title:       title,
			Description: HTMLToText(description),
			Link:        item.Link,
			Published:   published,
		})
	}
	return posts, nil
}

func (f *FeedSource) parse(ctx context.Context) (*gofeed.Feed, error) {
	if strings.HasPrefix(f.location, "http://") || strings.HasPrefix(f.location, "https://") {
		return f.parser.ParseURLWithContext(f.location, ctx)
	}
	file, err := os.Open(f.location)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = file.Close()
	}()
	return f.parser.Parse(file)
}

// HTMLToText flattens an HTML fragment into plain text with collapsed
// whitespace. Script and style contents are dropped.
func HTMLToText(fragment string) string {
	if !strings.ContainsAny(fragment, "<&") {
		return strings.Join(strings.Fields(fragment), " ")
	}

	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(fragment))
	skip := 0
	for {
		switch z.Next() {
		case html.ErrorToken:
			return strings.Join(strings.Fields(b.String()), " ")
		case html.StartTagToken:
			name, _ := z.TagName()
			switch string(name) {
			case "script", "style":
				skip++
			case "p", "br", "div", "li":
				b.WriteByte(' ')
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			if s := string(name); (s == "script" || s == "style") && skip > 0 {
				skip--
			}
		case html.TextToken:
			if skip == 0 {
				b.Write(z.Text())
			}
		}
	}
}
