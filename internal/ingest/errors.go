package ingest

import (
	"fmt"

	foundationerrors "git.home.luguber.info/inful/contentbuilder/internal/foundation/errors"
)

// CloneError reports a source repository that could not be cloned.
type CloneError struct {
	Repository string
	Branch     string
	Err        error
}

func (e *CloneError) Error() string {
	return fmt.Sprintf("failed to clone %s (branch %s): %v", e.Repository, e.Branch, e.Err)
}

func (e *CloneError) Unwrap() error { return e.Err }

func newCloneError(repository, branch string, err error) *CloneError {
	if _, ok := foundationerrors.AsClassified(err); !ok {
		err = foundationerrors.GitError("clone failed").
			WithCause(err).
			WithContext("repository", repository).
			WithContext("branch", branch).
			Build()
	}
	return &CloneError{Repository: repository, Branch: branch, Err: err}
}

func mappingSourceMissing(repository, source string) error {
	return foundationerrors.NewError(foundationerrors.CategoryNotFound, "mapping source not found in repository").
		Fatal().
		UserAction().
		WithContext("repository", repository).
		WithContext("mapping", source).
		Build()
}

func copyFailed(repository, path string, err error) error {
	return foundationerrors.FileSystemError("failed to copy source file").
		WithCause(err).
		WithContext("repository", repository).
		WithContext("path", path).
		Build()
}
