package git

import (
	"strings"

	"git.home.luguber.info/inful/contentbuilder/internal/foundation/errors"
)

// ClassifyGitError translates go-git errors into ClassifiedErrors. Network
// failures stay retryable; auth, missing repositories and missing branches do not.
func ClassifyGitError(err error, op string, url string) error {
	if err == nil {
		return nil
	}
	if _, ok := errors.AsClassified(err); ok {
		return err
	}

	l := strings.ToLower(err.Error())
	builder := errors.GitError("git operation failed").
		WithCause(err).
		WithContext("op", op).
		WithContext("repository", url)

	switch {
	case strings.Contains(l, "authentication") || strings.Contains(l, "not authorized") || strings.Contains(l, "invalid credentials"):
		builder.WithCategory(errors.CategoryAuth).UserAction()
	case strings.Contains(l, "couldn't find remote ref") || strings.Contains(l, "reference not found"):
		builder.WithCategory(errors.CategoryNotFound).WithRetry(errors.RetryNever).WithContext("reason", "branch not found")
	case strings.Contains(l, "repository not found") || strings.Contains(l, "not found") || strings.Contains(l, "does not exist"):
		builder.WithCategory(errors.CategoryNotFound).WithRetry(errors.RetryNever)
	case strings.Contains(l, "rate limit") || strings.Contains(l, "too many requests"):
		builder.WithCategory(errors.CategoryNetwork).RateLimit()
	case strings.Contains(l, "remote hung up") || strings.Contains(l, "connection reset") || strings.Contains(l, "timeout") || strings.Contains(l, "no route to host") || strings.Contains(l, "connection refused"):
		builder.WithCategory(errors.CategoryNetwork).Retryable()
	case strings.Contains(l, "unsupported protocol") || strings.Contains(l, "protocol not supported") || strings.Contains(l, "invalid url"):
		builder.WithCategory(errors.CategoryConfig).WithRetry(errors.RetryNever)
	case strings.Contains(l, "context canceled") || strings.Contains(l, "context deadline exceeded"):
		builder.WithRetry(errors.RetryNever)
	}

	return builder.Build()
}
