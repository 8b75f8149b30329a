package config

import (
	"fmt"
	"path/filepath"
	"strings"

	foundationerrors "git.home.luguber.info/inful/contentbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/contentbuilder/internal/glob"
)

// Validate checks the configuration invariants. The returned error names the
// offending source or mapping.
func (c *ContentConfig) Validate() error {
	if err := c.ValidateMappings(); err != nil {
		return err
	}

	if err := glob.Validate(c.Include); err != nil {
		return foundationerrors.ConfigError("invalid include pattern").WithContext("field", "include").WithCause(err).Build()
	}
	if err := glob.Validate(c.Exclude); err != nil {
		return foundationerrors.ConfigError("invalid exclude pattern").WithContext("field", "exclude").WithCause(err).Build()
	}

	if c.Build.Concurrency < 1 {
		return foundationerrors.ConfigError("build concurrency must be at least 1").
			WithContext("concurrency", c.Build.Concurrency).
			Build()
	}
	if c.Build.CloneDepth < 0 {
		return foundationerrors.ConfigError("clone depth cannot be negative").
			WithContext("clone_depth", c.Build.CloneDepth).
			Build()
	}
	if c.Build.Retry.Mode != "" {
		if _, err := retryBackoffModes.Parse(c.Build.Retry.Mode); err != nil {
			return foundationerrors.ConfigError("unknown retry backoff mode").
				WithContext("mode", c.Build.Retry.Mode).
				WithContext("valid", retryBackoffModes.Keys()).
				WithCause(err).
				Build()
		}
	}
	if strings.ContainsAny(c.Build.MediaDirName, `/\`) {
		return foundationerrors.ConfigError("media directory name must be a single path segment").
			WithContext("media_dir_name", c.Build.MediaDirName).
			Build()
	}
	if c.Publish.S3 != nil && c.Publish.S3.Bucket == "" {
		return foundationerrors.ConfigError("s3 publishing requires a bucket").
			WithContext("field", "publish.s3.bucket").
			Build()
	}
	return nil
}

// ValidateMappings checks the sources and their mappings: every mapping has a
// local source and a target strictly below the working root, and no target is
// equal to, inside, or around another one.
func (c *ContentConfig) ValidateMappings() error {
	if len(c.Sources) == 0 {
		return foundationerrors.ConfigError("no content sources configured").
			WithContext("field", "sources").
			Build()
	}

	var targets []claimedTarget
	for i, src := range c.Sources {
		if strings.TrimSpace(src.Repository) == "" {
			return foundationerrors.ConfigError("content source has no repository").
				WithContext("source_index", i).
				Build()
		}
		if len(src.Mappings) == 0 {
			return foundationerrors.ConfigError("content source has no mappings").
				WithContext("repository", src.Repository).
				Build()
		}
		for _, m := range src.Mappings {
			if err := validateMapping(src.Repository, m); err != nil {
				return err
			}
			claim := claimedTarget{dir: filepath.Clean(filepath.FromSlash(strings.TrimSpace(m.Target))), target: m.Target, repository: src.Repository}
			if err := claim.checkAgainst(targets); err != nil {
				return err
			}
			targets = append(targets, claim)
		}
	}
	return nil
}

func validateMapping(repository string, m Mapping) error {
	if strings.TrimSpace(m.Source) == "" || strings.TrimSpace(m.Target) == "" {
		return foundationerrors.ConfigError("mapping requires source and target").
			WithContext("repository", repository).
			WithContext("mapping", fmt.Sprintf("%s -> %s", m.Source, m.Target)).
			Build()
	}
	if filepath.Clean(filepath.FromSlash(strings.TrimSpace(m.Target))) == "." {
		return foundationerrors.ConfigError("mapping target cannot be the working root").
			WithContext("repository", repository).
			WithContext("mapping", fmt.Sprintf("%s -> %s", m.Source, m.Target)).
			WithContext("path", m.Target).
			Build()
	}
	for _, p := range []string{m.Source, m.Target} {
		if !IsLocalPath(p) {
			return foundationerrors.ConfigError("mapping path escapes its root").
				WithContext("repository", repository).
				WithContext("mapping", fmt.Sprintf("%s -> %s", m.Source, m.Target)).
				WithContext("path", p).
				Build()
		}
	}
	return nil
}

// claimedTarget is a mapping target already owned by an earlier mapping.
// Ingestion wipes each target before copying, so no two targets may be equal
// or nested inside one another.
type claimedTarget struct {
	dir        string
	target     string
	repository string
}

func (c claimedTarget) checkAgainst(previous []claimedTarget) error {
	for _, prev := range previous {
		msg := ""
		switch {
		case prev.dir == c.dir:
			msg = "mapping target used twice"
		case within(c.dir, prev.dir) || within(prev.dir, c.dir):
			msg = "mapping targets overlap"
		default:
			continue
		}
		return foundationerrors.ConfigError(msg).
			WithContext("target", c.target).
			WithContext("repository", c.repository).
			WithContext("previous_target", prev.target).
			WithContext("previous_repository", prev.repository).
			Build()
	}
	return nil
}

// within reports whether dir lies strictly below parent. Both are cleaned.
func within(dir, parent string) bool {
	return strings.HasPrefix(dir, parent+string(filepath.Separator))
}

// IsLocalPath reports whether p is relative and stays inside its root after
// cleaning. "." is accepted and means the root itself; mapping targets reject
// it separately.
func IsLocalPath(p string) bool {
	p = filepath.FromSlash(strings.TrimSpace(p))
	if p == "." || p == "./" {
		return true
	}
	return filepath.IsLocal(p)
}
