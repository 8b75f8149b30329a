// Package errors provides the classified error primitives used across contentbuilder.
//
// Every fatal pipeline failure (bad configuration, a repository that cannot be
// cloned, a media name collision) surfaces as a ClassifiedError carrying a
// category, a severity and structured context naming the offending repository,
// mapping or path. Render failures are classified too but never fatal.
//
// Example usage:
//
//	err := errors.NewError(errors.CategoryGit, "clone failed").
//		WithRetry(errors.RetryBackoff).
//		WithContext("repository", repoURL).
//		WithCause(originalErr).
//		Build()
package errors
