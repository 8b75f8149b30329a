package entity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"path"
	"strings"

	"git.home.luguber.info/inful/contentbuilder/internal/articles"
	"git.home.luguber.info/inful/contentbuilder/internal/blog"
	foundationerrors "git.home.luguber.info/inful/contentbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/contentbuilder/internal/logfields"
	"git.home.luguber.info/inful/contentbuilder/internal/reference"
)

// Fixed routes of the site.
const (
	HomeURL             = "/"
	DocsURL             = "/docs"
	BlogURL             = "/blogs"
	ReferenceURL        = "/docs/reference"
	PackagesURL         = "/packages"
	defaultSiteTitle    = "Documentation"
	defaultBlogTitle    = "Blog"
	defaultRefTitle     = "Reference"
	defaultPackageTitle = "Packages"
)

// Articles is the read interface the enumerator needs from the article store.
type Articles interface {
	AllPaths() ([]articles.Path, error)
	Document(section string, slug []string) (articles.Document, error)
	NavigationTitles(section string) (map[string]string, error)
	RouteFor(p articles.Path) string
}

// References is the read interface the enumerator needs from the reference index.
type References interface {
	Types() []string
	Pairs() []reference.Pair
	ItemsIn(typ, cat string) []reference.Item
}

// Options configure titles and source paths of enumerated entities.
type Options struct {
	SiteTitle          string
	DefaultDescription string
	// DocsDir and ReferenceDir are the working-root relative trees, used to
	// fill Entity.FilePath.
	DocsDir      string
	ReferenceDir string
}

// Enumerator merges articles, blog posts and the reference taxonomy into one
// entity list.
type Enumerator struct {
	articles Articles
	refs     References
	posts    blog.Source
	opts     Options
}

// NewEnumerator returns an Enumerator. refs and posts may be nil.
func NewEnumerator(arts Articles, refs References, posts blog.Source, opts Options) *Enumerator {
	if opts.SiteTitle == "" {
		opts.SiteTitle = defaultSiteTitle
	}
	return &Enumerator{articles: arts, refs: refs, posts: posts, opts: opts}
}

// list accumulates entities. A repeated URL is dropped with a warning; two
// URLs sharing an artifact slug are recorded as collisions.
type list struct {
	entities   []Entity
	urls       map[string]struct{}
	slugs      map[string]string
	collisions []error
}

func (l *list) add(e Entity) {
	if _, dup := l.urls[e.URL]; dup {
		slog.Warn("Dropping entity with duplicate URL", logfields.URL(e.URL), logfields.Name(e.Title))
		return
	}
	e.Slug = SlugForURL(e.URL)
	if owner, dup := l.slugs[e.Slug]; dup {
		l.collisions = append(l.collisions, foundationerrors.ValidationError("distinct URLs map to the same artifact").
			WithContext("slug", e.Slug).
			WithContext("url", e.URL).
			WithContext("existing_url", owner).
			Build())
		return
	}
	l.urls[e.URL] = struct{}{}
	l.slugs[e.Slug] = e.URL
	l.entities = append(l.entities, e)
}

// Enumerate builds the entity list in its fixed order: home, docs landing,
// articles, blog landing, blog posts, reference landing, reference types,
// type/category pairs, reference items, packages. Reference routes use the
// raw type, category and file name, path-escaped, so they map back onto the
// reference index unchanged. Distinct URLs whose artifact slugs collide fail
// the enumeration with an error naming both.
func (e *Enumerator) Enumerate(ctx context.Context) ([]Entity, error) {
	l := &list{urls: map[string]struct{}{}, slugs: map[string]string{}}
	desc := e.opts.DefaultDescription

	l.add(Entity{URL: HomeURL, Title: e.opts.SiteTitle, Description: desc, Type: TypeHome})
	l.add(Entity{URL: DocsURL, Title: "Documentation", Description: desc, Type: TypeLanding, Section: "docs"})

	if err := e.addArticles(l); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.add(Entity{URL: BlogURL, Title: defaultBlogTitle, Description: desc, Type: TypeLanding, Section: "blog"})
	e.addPosts(ctx, l)

	l.add(Entity{URL: ReferenceURL, Title: defaultRefTitle, Description: desc, Type: TypeLanding, Section: "reference"})
	e.addReferences(l)

	l.add(Entity{URL: PackagesURL, Title: defaultPackageTitle, Description: desc, Type: TypePackages})
	if err := errors.Join(l.collisions...); err != nil {
		return nil, err
	}
	return l.entities, nil
}

func (e *Enumerator) addArticles(l *list) error {
	if e.articles == nil {
		return nil
	}
	paths, err := e.articles.AllPaths()
	if err != nil {
		return err
	}

	navTitles := map[string]map[string]string{}
	for _, p := range paths {
		titles, ok := navTitles[p.Section]
		if !ok {
			if titles, err = e.articles.NavigationTitles(p.Section); err != nil {
				return err
			}
			navTitles[p.Section] = titles
		}

		doc, err := e.articles.Document(p.Section, p.Slug)
		if err != nil && !errors.Is(err, articles.ErrArticleNotFound) {
			return err
		}

		route := e.articles.RouteFor(p)
		title := doc.Meta.Title
		if title == "" {
			title = titles[route]
		}
		if title == "" {
			title = articles.Humanize(p.Section)
		}
		description := doc.Meta.Description
		if description == "" {
			description = e.opts.DefaultDescription
		}

		var filePath string
		if p.File != "" {
			filePath = path.Join(e.opts.DocsDir, p.Section, p.File)
		}
		l.add(Entity{
			URL:         route,
			Title:       title,
			Description: description,
			Section:     p.Section,
			Type:        TypeDocs,
			FilePath:    filePath,
		})
	}
	return nil
}

// addPosts adds one external entity per blog post. A failing feed only costs
// the post entities.
func (e *Enumerator) addPosts(ctx context.Context, l *list) {
	if e.posts == nil {
		return
	}
	posts, err := e.posts.Posts(ctx)
	if err != nil {
		slog.Warn("Skipping blog posts", logfields.Error(err))
		return
	}
	for _, post := range posts {
		slug := Slugify(post.Title)
		if slug == "" {
			slog.Warn("Skipping blog post without a usable title", logfields.Name(post.Title))
			continue
		}
		description := post.Description
		if description == "" {
			description = e.opts.DefaultDescription
		}
		l.add(Entity{
			URL:         BlogURL + "/" + slug,
			Title:       post.Title,
			Description: description,
			Section:     "blog",
			Type:        TypeBlog,
			IsExternal:  true,
			Link:        post.Link,
		})
	}
}

func (e *Enumerator) addReferences(l *list) {
	if e.refs == nil {
		return
	}
	desc := e.opts.DefaultDescription

	for _, typ := range e.refs.Types() {
		if typ == "" {
			continue
		}
		l.add(Entity{
			URL:         ReferenceTypeURL(typ),
			Title:       typ,
			Description: desc,
			Section:     typ,
			Type:        TypeReference,
		})
	}

	pairs := e.refs.Pairs()
	for _, p := range pairs {
		if p.Type == "" || p.Category == "" {
			continue
		}
		l.add(Entity{
			URL:         ReferencePairURL(p.Type, p.Category),
			Title:       fmt.Sprintf("%s: %s", p.Type, p.Category),
			Description: desc,
			Section:     p.Type,
			Type:        TypeReference,
		})
	}

	for _, p := range pairs {
		if p.Type == "" || p.Category == "" {
			continue
		}
		for _, item := range e.refs.ItemsIn(p.Type, p.Category) {
			description := item.Description
			if description == "" {
				description = desc
			}
			var filePath string
			if item.File != "" {
				filePath = path.Join(e.opts.ReferenceDir, item.File)
			}
			l.add(Entity{
				URL:         ReferencePairURL(p.Type, p.Category) + "/" + url.PathEscape(item.FileName()),
				Title:       item.Name,
				Description: description,
				Section:     p.Type,
				Type:        TypeReference,
				FilePath:    filePath,
			})
		}
	}
}

// ReferenceTypeURL is the route of a reference type landing page.
func ReferenceTypeURL(typ string) string {
	return ReferenceURL + "/" + url.PathEscape(typ)
}

// ReferencePairURL is the route of a reference type/category page.
func ReferencePairURL(typ, category string) string {
	return ReferenceTypeURL(typ) + "/" + url.PathEscape(category)
}

// ParseReferenceURL splits a reference route below ReferenceURL into its
// unescaped type, category and file name segments. Missing trailing segments
// are empty.
func ParseReferenceURL(u string) (typ, category, file string, ok bool) {
	rest, found := strings.CutPrefix(u, ReferenceURL+"/")
	if !found || rest == "" {
		return "", "", "", false
	}
	parts := strings.Split(rest, "/")
	if len(parts) > 3 {
		return "", "", "", false
	}
	out := make([]string, 3)
	for i, part := range parts {
		v, err := url.PathUnescape(part)
		if err != nil || v == "" {
			return "", "", "", false
		}
		out[i] = v
	}
	return out[0], out[1], out[2], true
}
