package entity

import (
	"github.com/inful/mdfp"
	"gopkg.in/yaml.v3"
)

// fingerprintFields are the entity fields that change its rendered artifact.
type fingerprintFields struct {
	URL         string `yaml:"url"`
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Section     string `yaml:"section"`
	Type        Type   `yaml:"type"`
}

// Fingerprint returns a stable content fingerprint of the fields an artifact
// is rendered from. Equal fingerprints mean an existing artifact is current.
func Fingerprint(e Entity) string {
	data, err := yaml.Marshal(fingerprintFields{
		URL:         e.URL,
		Title:       e.Title,
		Description: e.Description,
		Section:     e.Section,
		Type:        e.Type,
	})
	if err != nil {
		return ""
	}
	return mdfp.CalculateFingerprintFromParts(string(data), "")
}
