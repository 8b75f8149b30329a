package config

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	foundationerrors "git.home.luguber.info/inful/contentbuilder/internal/foundation/errors"
)

// Mapping selects one subtree of a source repository and the working-root
// relative directory it is copied into.
type Mapping struct {
	Source string `json:"source" yaml:"source"`
	Target string `json:"target" yaml:"target"`
}

// ContentSource identifies one external repository and the subtrees to extract.
type ContentSource struct {
	Repository string    `json:"repository" yaml:"repository"`
	Branch     string    `json:"branch,omitempty" yaml:"branch,omitempty"`
	Mappings   []Mapping `json:"mappings" yaml:"mappings"`
}

// ContentConfig is the root configuration of a pipeline run. Include and
// Exclude apply to every mapping of every source.
type ContentConfig struct {
	Sources []ContentSource `json:"sources" yaml:"sources"`
	Include []string        `json:"include" yaml:"include"`
	Exclude []string        `json:"exclude,omitempty" yaml:"exclude,omitempty"`

	Build   BuildConfig   `json:"build" yaml:"build"`
	Blog    BlogConfig    `json:"blog" yaml:"blog"`
	Publish PublishConfig `json:"publish" yaml:"publish"`
	Notify  NotifyConfig  `json:"notify" yaml:"notify"`
	History HistoryConfig `json:"history" yaml:"history"`
	Metrics MetricsConfig `json:"metrics" yaml:"metrics"`
}

// BuildConfig holds the working-root relative locations and tuning knobs of the pipeline stages.
type BuildConfig struct {
	DocsDir            string      `json:"docs_dir,omitempty" yaml:"docs_dir,omitempty"`
	ReferenceDir       string      `json:"reference_dir,omitempty" yaml:"reference_dir,omitempty"`
	MediaDirName       string      `json:"media_dir_name,omitempty" yaml:"media_dir_name,omitempty"`
	MediaOutput        string      `json:"media_output,omitempty" yaml:"media_output,omitempty"`
	ArtifactDir        string      `json:"artifact_dir,omitempty" yaml:"artifact_dir,omitempty"`
	Manifest           string      `json:"manifest,omitempty" yaml:"manifest,omitempty"`
	Concurrency        int         `json:"concurrency,omitempty" yaml:"concurrency,omitempty"`
	CloneDepth         int         `json:"clone_depth,omitempty" yaml:"clone_depth,omitempty"`
	RenderTimeout      Duration    `json:"render_timeout,omitempty" yaml:"render_timeout,omitempty"`
	SiteTitle          string      `json:"site_title,omitempty" yaml:"site_title,omitempty"`
	DefaultDescription string      `json:"default_description,omitempty" yaml:"default_description,omitempty"`
	Retry              RetryConfig `json:"retry" yaml:"retry"`
}

// BlogConfig points at the RSS/Atom feed listing blog posts (URL or local file).
type BlogConfig struct {
	Feed  string `json:"feed,omitempty" yaml:"feed,omitempty"`
	Limit int    `json:"limit,omitempty" yaml:"limit,omitempty"`
}

// PublishConfig configures optional artifact upload.
type PublishConfig struct {
	S3 *S3Config `json:"s3,omitempty" yaml:"s3,omitempty"`
}

// S3Config configures the S3 (or S3-compatible) artifact bucket.
type S3Config struct {
	Bucket       string `json:"bucket" yaml:"bucket"`
	Prefix       string `json:"prefix,omitempty" yaml:"prefix,omitempty"`
	Region       string `json:"region,omitempty" yaml:"region,omitempty"`
	Profile      string `json:"profile,omitempty" yaml:"profile,omitempty"`
	Endpoint     string `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
	UsePathStyle bool   `json:"path_style,omitempty" yaml:"path_style,omitempty"`
	CacheControl string `json:"cache_control,omitempty" yaml:"cache_control,omitempty"`
}

// NotifyConfig configures the optional NATS run-completed notification.
type NotifyConfig struct {
	NATSURL string `json:"nats_url,omitempty" yaml:"nats_url,omitempty"`
	Subject string `json:"subject,omitempty" yaml:"subject,omitempty"`
}

// HistoryConfig configures the SQLite run history database.
type HistoryConfig struct {
	Path string `json:"path,omitempty" yaml:"path,omitempty"`
}

// MetricsConfig configures the Prometheus textfile export.
type MetricsConfig struct {
	Textfile string `json:"textfile,omitempty" yaml:"textfile,omitempty"`
}

// Load reads, decodes, defaults and validates the configuration at configPath.
// Every failure is a fatal config error reported before any network or
// filesystem mutation happens.
func Load(configPath string) (*ContentConfig, error) {
	loadEnvFiles()

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, foundationerrors.ConfigError("configuration file not found").
				WithContext("path", configPath).
				Build()
		}
		return nil, foundationerrors.ConfigError("failed to read configuration file").
			WithContext("path", configPath).
			WithCause(err).
			Build()
	}

	cfg, err := Parse(configPath, []byte(os.ExpandEnv(string(data))))
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes raw configuration bytes; the format is chosen by the file
// extension of name (.json, .yaml, .yml), defaulting to JSON.
func Parse(name string, data []byte) (*ContentConfig, error) {
	var cfg ContentConfig
	var err error
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &cfg)
	default:
		dec := json.NewDecoder(bytes.NewReader(data))
		err = dec.Decode(&cfg)
	}
	if err != nil {
		return nil, foundationerrors.ConfigError("failed to parse configuration").
			WithContext("path", name).
			WithCause(err).
			Build()
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Resolve joins a configured working-root relative path onto root. Absolute
// paths are returned unchanged.
func Resolve(root, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, filepath.FromSlash(p))
}
