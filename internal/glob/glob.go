// Package glob decides which ingested files are copied into the working trees.
//
// Matching is case-insensitive. A pattern matches when it matches either the
// full slash-separated relative path or just the base name, so "*.png" accepts
// "a/b/c.png" while "**/draft/**" still excludes whole subtrees.
package glob

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Match reports whether relPath matches any of patterns.
func Match(relPath string, patterns []string) bool {
	p := normalize(relPath)
	if p == "" {
		return false
	}
	base := path.Base(p)
	for _, pattern := range patterns {
		pat := strings.ToLower(strings.TrimSpace(pattern))
		if pat == "" {
			continue
		}
		if ok, _ := doublestar.Match(pat, p); ok {
			return true
		}
		if ok, _ := doublestar.Match(pat, base); ok {
			return true
		}
	}
	return false
}

// Filter applies the global include/exclude pattern sets of a content config.
type Filter struct {
	Include []string
	Exclude []string
}

// NewFilter returns a Filter for the given pattern sets.
func NewFilter(include, exclude []string) Filter {
	return Filter{Include: include, Exclude: exclude}
}

// ShouldCopy reports whether relPath is included and not excluded. An empty
// include list copies nothing.
func (f Filter) ShouldCopy(relPath string) bool {
	return Match(relPath, f.Include) && !Match(relPath, f.Exclude)
}

// Validate returns an error naming the first malformed pattern.
func Validate(patterns []string) error {
	for _, pattern := range patterns {
		if !doublestar.ValidatePattern(strings.ToLower(pattern)) {
			return fmt.Errorf("invalid glob pattern %q", pattern)
		}
	}
	return nil
}

func normalize(p string) string {
	p = filepath.ToSlash(p)
	p = strings.TrimPrefix(p, "./")
	p = strings.TrimPrefix(p, "/")
	return strings.ToLower(p)
}
