package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Example returns the configuration written by `contentbuilder init`.
func Example() *ContentConfig {
	retries := 2
	return &ContentConfig{
		Sources: []ContentSource{
			{
				Repository: "https://github.com/example/product.git",
				Branch:     "main",
				Mappings: []Mapping{
					{Source: "docs/getting-started", Target: "content/docs/getting-started"},
					{Source: "docs/architecture", Target: "content/docs/architecture"},
				},
			},
			{
				Repository: "https://github.com/example/reference.git",
				Branch:     "main",
				Mappings:   []Mapping{{Source: "reference", Target: "content/reference"}},
			},
		},
		Include: []string{"*.md", "*.yml", "*.yaml", "*.png", "*.jpg", "*.jpeg", "*.gif", "*.svg", "*.webp"},
		Exclude: []string{"**/draft/**", "**/.github/**"},
		Build: BuildConfig{
			Concurrency:   DefaultConcurrency,
			CloneDepth:    DefaultCloneDepth,
			RenderTimeout: Duration(30 * time.Second),
			SiteTitle:     "Example Docs",
			Retry:         RetryConfig{Mode: string(RetryBackoffLinear), MaxRetries: &retries},
		},
		Blog: BlogConfig{Feed: "https://example.com/blog/feed.xml"},
	}
}

// Init writes the example configuration to configPath as indented JSON.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", configPath)
	}
	data, err := json.MarshalIndent(Example(), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if dir := filepath.Dir(configPath); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	if err := os.WriteFile(configPath, append(data, '\n'), 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
