// Package normalization maps loosely written configuration strings onto typed
// enum values.
package normalization

import (
	"fmt"
	"sort"
	"strings"
)

// Normalizer maps case-insensitive, whitespace-tolerant keys to enum values.
type Normalizer[T comparable] struct {
	values       map[string]T
	defaultValue T
	keys         []string
}

// NewNormalizer creates a normalizer for values. Unknown input normalizes to
// defaultValue.
func NewNormalizer[T comparable](values map[string]T, defaultValue T) *Normalizer[T] {
	normalized := make(map[string]T, len(values))
	keys := make([]string, 0, len(values))
	for k, v := range values {
		key := clean(k)
		normalized[key] = v
		keys = append(keys, key)
	}
	sort.Strings(keys)

	return &Normalizer[T]{
		values:       normalized,
		defaultValue: defaultValue,
		keys:         keys,
	}
}

// Normalize converts raw to its enum value, or the default when unrecognized.
func (n *Normalizer[T]) Normalize(raw string) T {
	if v, ok := n.values[clean(raw)]; ok {
		return v
	}
	return n.defaultValue
}

// Parse converts raw to its enum value and reports unrecognized input.
func (n *Normalizer[T]) Parse(raw string) (T, error) {
	if v, ok := n.values[clean(raw)]; ok {
		return v, nil
	}
	var zero T
	return zero, fmt.Errorf("invalid value %q, valid options: %s", raw, strings.Join(n.keys, ", "))
}

// Keys returns the accepted keys in sorted order.
func (n *Normalizer[T]) Keys() []string {
	out := make([]string, len(n.keys))
	copy(out, n.keys)
	return out
}

func clean(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
