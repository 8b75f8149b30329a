// Package manifest writes the entity manifest consumed by sitemap-style
// readers: every entity with its artifact, fingerprint and last-modified time.
package manifest

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/contentbuilder/internal/entity"
	"git.home.luguber.info/inful/contentbuilder/internal/logfields"
)

// LastModifier reports when a working-root relative file last changed.
type LastModifier interface {
	LastModified(path string) (time.Time, error)
}

// Entry is one manifest line.
type Entry struct {
	entity.Entity
	Artifact    string    `json:"artifact,omitempty"`
	Fingerprint string    `json:"fingerprint"`
	LastMod     time.Time `json:"lastmod"`
	Rendered    bool      `json:"rendered"`
}

// Manifest is the serialised document.
type Manifest struct {
	RunID       string    `json:"run_id"`
	GeneratedAt time.Time `json:"generated_at"`
	Entities    []Entry   `json:"entities"`
}

// Build assembles the manifest. lastmod comes from history when the entity
// has a file path and history knows it, else from runStart. rendered maps a
// slug to whether its artifact exists after the run.
func Build(runID string, runStart time.Time, entities []entity.Entity, rendered map[string]bool, history LastModifier) *Manifest {
	m := &Manifest{RunID: runID, GeneratedAt: runStart.UTC(), Entities: make([]Entry, 0, len(entities))}
	for _, e := range entities {
		entry := Entry{
			Entity:      e,
			Fingerprint: entity.Fingerprint(e),
			LastMod:     runStart.UTC(),
			Rendered:    rendered[e.Slug],
		}
		if entry.Rendered {
			entry.Artifact = e.Slug
		}
		if e.FilePath != "" && history != nil {
			if t, err := history.LastModified(e.FilePath); err == nil {
				entry.LastMod = t.UTC()
			} else {
				slog.Debug("No history for entity file", logfields.Path(e.FilePath), logfields.Error(err))
			}
		}
		m.Entities = append(m.Entities, entry)
	}
	return m
}

// ToJSON returns the indented JSON encoding.
func (m *Manifest) ToJSON() ([]byte, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal manifest: %w", err)
	}
	return append(data, '\n'), nil
}

// FromJSON decodes a manifest.
func FromJSON(data []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("unmarshal manifest: %w", err)
	}
	return &m, nil
}

// Hash returns a digest of the entity content, ignoring run identity and
// timestamps, so two runs over unchanged content hash equally.
func (m *Manifest) Hash() (string, error) {
	type hashEntry struct {
		URL         string `json:"url"`
		Fingerprint string `json:"fingerprint"`
	}
	input := make([]hashEntry, 0, len(m.Entities))
	for _, e := range m.Entities {
		input = append(input, hashEntry{URL: e.URL, Fingerprint: e.Fingerprint})
	}
	data, err := json.Marshal(input)
	if err != nil {
		return "", fmt.Errorf("marshal hash input: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// Write encodes m to path, replacing any previous manifest atomically.
func Write(path string, m *Manifest) error {
	if m == nil {
		return errors.New("nil manifest")
	}
	data, err := m.ToJSON()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create manifest directory: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace manifest: %w", err)
	}
	return nil
}

// Read loads the manifest at path.
func Read(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromJSON(data)
}
