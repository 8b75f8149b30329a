package articles

import (
	"net/url"
	"path"
	"strings"

	"git.home.luguber.info/inful/contentbuilder/internal/markdown"
)

// ResolveLink turns a relative markdown link found in the document at current
// into a site route. The link is resolved against the document's directory,
// the .md extension and a trailing index segment are dropped, and the store
// prefix is added. Fragments survive. Absolute, external, anchor-only and
// non-markdown links are returned unchanged.
func (s *Store) ResolveLink(link string, current Path) string {
	if link == "" || strings.HasPrefix(link, "#") || strings.HasPrefix(link, "/") {
		return link
	}
	if u, err := url.Parse(link); err != nil || u.Scheme != "" || u.Host != "" {
		return link
	}

	target, fragment := link, ""
	if i := strings.IndexByte(target, '#'); i >= 0 {
		target, fragment = target[:i], target[i:]
	}
	if !strings.EqualFold(path.Ext(target), markdownExt) {
		return link
	}
	target = strings.TrimSuffix(target, path.Ext(target))

	resolved := path.Join("/", documentDir(current), target)
	if path.Base(resolved) == IndexName {
		resolved = path.Dir(resolved)
	}
	if resolved == "/" {
		return s.prefix + fragment
	}
	return s.prefix + resolved + fragment
}

// documentDir returns the section relative directory holding the document.
func documentDir(current Path) string {
	if current.File != "" {
		return path.Join(current.Section, path.Dir(current.File))
	}
	// Without a file the last slug segment is taken to be a file name.
	if len(current.Slug) == 0 {
		return current.Section
	}
	return path.Join(append([]string{current.Section}, current.Slug[:len(current.Slug)-1]...)...)
}

// ResolveBodyLinks rewrites every link destination of a markdown body through
// ResolveLink.
func (s *Store) ResolveBodyLinks(body string, current Path) (string, error) {
	out, err := markdown.RewriteLinks([]byte(body), func(dest string) string {
		return s.ResolveLink(dest, current)
	})
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// RouteFor returns the site route of an article path.
func (s *Store) RouteFor(p Path) string {
	return s.prefix + "/" + p.Route()
}

// NavigationTitles maps the routes linked from section's navigation to their
// titles. Markdown links resolve like body links relative to the section root;
// other relative links are taken as section relative routes.
func (s *Store) NavigationTitles(section string) (map[string]string, error) {
	entries, err := s.Navigation(section)
	if err != nil {
		return nil, err
	}
	root := Path{Section: section, File: IndexName + markdownExt}
	titles := make(map[string]string, len(entries))
	for _, e := range entries {
		if e.Title == "" || e.Link == "" {
			continue
		}
		link := strings.SplitN(e.Link, "#", 2)[0]
		var route string
		switch {
		case strings.HasPrefix(link, "/"):
			route = path.Clean(link)
		case strings.EqualFold(path.Ext(link), markdownExt):
			route = s.ResolveLink(link, root)
		default:
			if u, err := url.Parse(link); err != nil || u.Scheme != "" {
				continue
			}
			route = s.prefix + path.Join("/", section, link)
		}
		if _, exists := titles[route]; !exists {
			titles[route] = e.Title
		}
	}
	return titles, nil
}
