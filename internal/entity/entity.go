// Package entity enumerates every addressable page of the site into one flat
// list keyed by URL.
package entity

import (
	"strings"
)

// Type classifies an entity.
type Type string

const (
	TypeHome      Type = "home"
	TypeLanding   Type = "landing"
	TypeDocs      Type = "docs"
	TypeBlog      Type = "blog"
	TypeReference Type = "reference"
	TypePackages  Type = "packages"
)

// Entity is one addressable page. URL is unique across an enumeration and
// Slug, the artifact file name, is derived from it.
type Entity struct {
	URL         string `json:"url"`
	Slug        string `json:"slug"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Section     string `json:"section,omitempty"`
	Type        Type   `json:"type"`
	FilePath    string `json:"file_path,omitempty"`
	IsExternal  bool   `json:"is_external,omitempty"`
	// Link is the canonical location of an external entity.
	Link string `json:"link,omitempty"`
}

// ArtifactExt is the extension of rendered artifacts.
const ArtifactExt = ".png"

// SlugForURL maps a URL to its artifact file name: the leading slash is
// dropped, remaining slashes become hyphens and ArtifactExt is appended. The
// root URL maps to "index.png". URLs differing only in hyphen versus slash
// placement ("/a-b", "/a/b") share a slug; Enumerate rejects such pairs.
func SlugForURL(url string) string {
	trimmed := strings.Trim(url, "/")
	if trimmed == "" {
		return "index" + ArtifactExt
	}
	return strings.ReplaceAll(trimmed, "/", "-") + ArtifactExt
}

// Slugify lowercases title and replaces every run of characters outside
// [a-z0-9] with one hyphen, trimming hyphens at both ends.
func Slugify(title string) string {
	var b strings.Builder
	b.Grow(len(title))
	pendingHyphen := false
	for _, r := range strings.ToLower(title) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
			continue
		}
		pendingHyphen = true
	}
	return b.String()
}
