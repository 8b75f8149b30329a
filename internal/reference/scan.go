// Package reference indexes the reference documentation tree into a
// type → category → items taxonomy.
//
// Every YAML descriptor below the reference root describes one item. Items
// without a type are kept by Scan but excluded from every grouping.
package reference

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	foundationerrors "git.home.luguber.info/inful/contentbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/contentbuilder/internal/logfields"
)

// MetadataFile is the root-level content metadata file, which is not a descriptor.
const MetadataFile = "_metadata.yml"

// Uncategorized is the category of items whose descriptor names none.
const Uncategorized = "Uncategorized"

// Item is one reference documentation entry.
type Item struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description"`
	Type        string `json:"type,omitempty" yaml:"type"`
	Category    string `json:"category,omitempty" yaml:"category"`
	// ReferencePath is the descriptor path relative to the root, slash
	// separated, without extension.
	ReferencePath string `json:"reference_path" yaml:"-"`
	// File is the descriptor path relative to the root, with extension.
	File string `json:"file" yaml:"-"`
}

// FileName returns the final segment of the item's identity path.
func (i Item) FileName() string { return path.Base(i.ReferencePath) }

func (i Item) category() string {
	if i.Category == "" {
		return Uncategorized
	}
	return i.Category
}

// Scan reads every descriptor below root, sorted by identity path. A missing
// root yields no items.
func Scan(root string) ([]Item, error) {
	if _, err := os.Stat(root); os.IsNotExist(err) {
		slog.Debug("Reference root missing", logfields.Path(root))
		return nil, nil
	}

	var items []Item
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return fmt.Errorf("%w: %s: %w", ErrWalkFailed, p, walkErr)
		}
		if d.IsDir() || !isDescriptor(d.Name()) {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return fmt.Errorf("%w: %s: %w", ErrWalkFailed, p, err)
		}
		rel = filepath.ToSlash(rel)
		if rel == MetadataFile {
			return nil
		}

		item, err := readDescriptor(p)
		if err != nil {
			return err
		}
		item.ReferencePath = strings.TrimSuffix(rel, path.Ext(rel))
		item.File = rel
		if item.Name == "" {
			item.Name = item.FileName()
		}
		if item.Type == "" {
			slog.Debug("Reference item has no type, excluded from taxonomy", logfields.Path(rel))
		}
		items = append(items, item)
		return nil
	})
	if err != nil {
		return nil, foundationerrors.NewError(foundationerrors.CategoryReference, "failed to scan reference tree").
			Fatal().
			WithCause(err).
			WithContext("path", root).
			Build()
	}

	sort.Slice(items, func(i, j int) bool { return items[i].ReferencePath < items[j].ReferencePath })
	return items, nil
}

func isDescriptor(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yml", ".yaml":
		return true
	}
	return false
}

func readDescriptor(p string) (Item, error) {
	data, err := os.ReadFile(p)
	if err != nil {
		return Item{}, fmt.Errorf("%w: %s: %w", ErrDescriptorRead, p, err)
	}
	var item Item
	if err := yaml.Unmarshal(data, &item); err != nil {
		return Item{}, fmt.Errorf("%w: %s: %w", ErrDescriptorParse, p, err)
	}
	item.Name = strings.TrimSpace(item.Name)
	item.Type = strings.TrimSpace(item.Type)
	item.Category = strings.TrimSpace(item.Category)
	return item, nil
}
