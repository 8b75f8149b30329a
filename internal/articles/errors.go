package articles

import "errors"

var (
	// ErrDocsWalkFailed indicates traversal of a documentation section failed.
	ErrDocsWalkFailed = errors.New("documentation directory walk failed")

	// ErrFileReadFailed indicates reading an article or navigation file failed.
	ErrFileReadFailed = errors.New("documentation file read failed")

	// ErrNavigationParse indicates a navigation file is not a valid entry list.
	ErrNavigationParse = errors.New("navigation file parse failed")

	// ErrArticleNotFound indicates no markdown file exists for a requested path.
	ErrArticleNotFound = errors.New("article not found")
)
