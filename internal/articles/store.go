// Package articles reads documentation sections from the docs tree: the
// per-section navigation order, markdown bodies with frontmatter, and the
// path model used to turn files into routes.
//
// Layout:
//
//	<docs>/<section>/navigation.yml   ordered [{title, link}] list
//	<docs>/<section>/**/*.md          article bodies
package articles

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/contentbuilder/internal/frontmatter"
)

const (
	// NavigationFile names the per-section navigation list.
	NavigationFile = "navigation.yml"
	// IndexName is the body file name that stands for its directory.
	IndexName = "index"

	markdownExt = ".md"
)

// NavEntry is one sidebar entry of a section.
type NavEntry struct {
	Title string `yaml:"title" json:"title"`
	Link  string `yaml:"link" json:"link"`
}

// Path addresses one article. Slug is empty for a section's index. File is
// the markdown file relative to the section directory.
type Path struct {
	Section string
	Slug    []string
	File    string
}

// Route returns the slash joined section and slug, without prefix.
func (p Path) Route() string {
	return path.Join(append([]string{p.Section}, p.Slug...)...)
}

// Document is one parsed article.
type Document struct {
	Path Path
	Meta frontmatter.Meta
	Body string
}

// Store reads articles below one docs directory.
type Store struct {
	dir    string
	prefix string
}

// Option customises a Store.
type Option func(*Store)

// WithURLPrefix sets the route prefix links resolve under (default "/docs").
func WithURLPrefix(prefix string) Option {
	return func(s *Store) { s.prefix = "/" + strings.Trim(prefix, "/") }
}

// NewStore returns a Store over dir.
func NewStore(dir string, opts ...Option) *Store {
	s := &Store{dir: dir, prefix: "/docs"}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dir returns the docs directory the store reads.
func (s *Store) Dir() string { return s.dir }

// Prefix returns the route prefix.
func (s *Store) Prefix() string { return s.prefix }

// ListSections returns the section directory names, sorted. A missing docs
// directory has no sections.
func (s *Store) ListSections() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %s: %w", ErrDocsWalkFailed, s.dir, err)
	}
	var sections []string
	for _, e := range entries {
		if e.IsDir() && !strings.HasPrefix(e.Name(), ".") {
			sections = append(sections, e.Name())
		}
	}
	sort.Strings(sections)
	return sections, nil
}

// Navigation returns the ordered navigation entries of section. A section
// without a navigation file has none.
func (s *Store) Navigation(section string) ([]NavEntry, error) {
	p := filepath.Join(s.dir, section, NavigationFile)
	data, err := os.ReadFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			return []NavEntry{}, nil
		}
		return nil, fmt.Errorf("%w: %s: %w", ErrFileReadFailed, p, err)
	}
	var entries []NavEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrNavigationParse, p, err)
	}
	if entries == nil {
		entries = []NavEntry{}
	}
	return entries, nil
}

// Body returns the markdown body of section/file.md without frontmatter. An
// empty file means "index"; a missing file yields "".
func (s *Store) Body(section, file string) (string, error) {
	if file == "" {
		file = IndexName
	}
	p := filepath.Join(s.dir, section, filepath.FromSlash(file)+markdownExt)
	data, err := os.ReadFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("%w: %s: %w", ErrFileReadFailed, p, err)
	}
	_, body, err := frontmatter.Parse(data)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrFileReadFailed, p, err)
	}
	return string(body), nil
}

// Document loads the article at section/slug. "<slug>.md" wins over
// "<slug>/index.md"; an empty slug reads the section index.
func (s *Store) Document(section string, slug []string) (Document, error) {
	for _, file := range candidateFiles(slug) {
		p := filepath.Join(s.dir, section, filepath.FromSlash(file))
		data, err := os.ReadFile(p)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return Document{}, fmt.Errorf("%w: %s: %w", ErrFileReadFailed, p, err)
		}
		meta, body, err := frontmatter.Parse(data)
		if err != nil {
			return Document{}, fmt.Errorf("%w: %s: %w", ErrFileReadFailed, p, err)
		}
		return Document{
			Path: Path{Section: section, Slug: slug, File: file},
			Meta: meta,
			Body: string(body),
		}, nil
	}
	return Document{}, fmt.Errorf("%w: %s", ErrArticleNotFound, path.Join(append([]string{section}, slug...)...))
}

func candidateFiles(slug []string) []string {
	if len(slug) == 0 {
		return []string{IndexName + markdownExt}
	}
	joined := path.Join(slug...)
	return []string{joined + markdownExt, path.Join(joined, IndexName+markdownExt)}
}

// AllPaths enumerates every article of every section, sorted by section then
// slug. An index file stands for its directory and never appears as ".../index".
func (s *Store) AllPaths() ([]Path, error) {
	sections, err := s.ListSections()
	if err != nil {
		return nil, err
	}
	var out []Path
	for _, section := range sections {
		paths, err := s.sectionPaths(section)
		if err != nil {
			return nil, err
		}
		out = append(out, paths...)
	}
	return out, nil
}

func (s *Store) sectionPaths(section string) ([]Path, error) {
	root := filepath.Join(s.dir, section)
	byRoute := make(map[string]Path)
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			if p != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.EqualFold(filepath.Ext(d.Name()), markdownExt) {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		file := filepath.ToSlash(rel)
		slug := slugFor(file)
		ap := Path{Section: section, Slug: slug, File: file}
		route := ap.Route()
		// "<x>.md" takes precedence over "<x>/index.md", matching Document.
		if existing, ok := byRoute[route]; ok && !isIndexFile(existing.File) {
			return nil
		}
		byRoute[route] = ap
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrDocsWalkFailed) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s: %w", ErrDocsWalkFailed, root, err)
	}

	paths := make([]Path, 0, len(byRoute))
	for _, p := range byRoute {
		paths = append(paths, p)
	}
	sort.Slice(paths, func(i, j int) bool { return paths[i].Route() < paths[j].Route() })
	return paths, nil
}

// slugFor turns a section relative markdown file into its slug segments.
func slugFor(file string) []string {
	trimmed := strings.TrimSuffix(file, path.Ext(file))
	segments := strings.Split(trimmed, "/")
	if segments[len(segments)-1] == IndexName {
		segments = segments[:len(segments)-1]
	}
	if len(segments) == 0 {
		return []string{}
	}
	return segments
}

func isIndexFile(file string) bool {
	return strings.TrimSuffix(path.Base(file), path.Ext(file)) == IndexName
}

// Humanize turns a directory or slug segment such as "getting-started" into
// "Getting Started".
func Humanize(name string) string {
	words := strings.FieldsFunc(name, func(r rune) bool { return r == '-' || r == '_' || r == ' ' })
	return cases.Title(language.English).String(strings.Join(words, " "))
}
