package config

import "git.home.luguber.info/inful/contentbuilder/internal/foundation/normalization"

// RetryBackoffMode enumerates supported backoff strategies for clone retries.
type RetryBackoffMode string

const (
	RetryBackoffFixed       RetryBackoffMode = "fixed"
	RetryBackoffLinear      RetryBackoffMode = "linear"
	RetryBackoffExponential RetryBackoffMode = "exponential"
)

var retryBackoffModes = normalization.NewNormalizer(map[string]RetryBackoffMode{
	string(RetryBackoffFixed):       RetryBackoffFixed,
	string(RetryBackoffLinear):      RetryBackoffLinear,
	string(RetryBackoffExponential): RetryBackoffExponential,
}, "")

// NormalizeRetryBackoff converts arbitrary user input (case-insensitive) into a typed mode, returning empty string for unknown.
func NormalizeRetryBackoff(raw string) RetryBackoffMode {
	return retryBackoffModes.Normalize(raw)
}

// RetryConfig tunes retries of transient clone failures.
type RetryConfig struct {
	Mode       string   `json:"mode,omitempty" yaml:"mode,omitempty"`
	Initial    Duration `json:"initial,omitempty" yaml:"initial,omitempty"`
	Max        Duration `json:"max,omitempty" yaml:"max,omitempty"`
	MaxRetries *int     `json:"max_retries,omitempty" yaml:"max_retries,omitempty"`
}
