// Package frontmatter splits YAML frontmatter from markdown article bodies.
package frontmatter

import (
	"bytes"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// ErrMissingClosingDelimiter indicates the document started with a YAML
// frontmatter delimiter but did not contain a closing delimiter.
var ErrMissingClosingDelimiter = errors.New("yaml frontmatter start delimiter found but closing delimiter is missing")

// Meta holds the frontmatter fields the pipeline understands. Every decoded
// field, known or not, is also kept in Fields.
type Meta struct {
	Title       string         `yaml:"title"`
	Description string         `yaml:"description"`
	Weight      int            `yaml:"weight"`
	Draft       bool           `yaml:"draft"`
	Fields      map[string]any `yaml:"-"`
}

// Split separates YAML frontmatter (`---` delimited) from the markdown body.
// Both LF and CRLF line endings are accepted. When the document does not open
// with a delimiter, had is false and body is the full input.
func Split(content []byte) (frontmatter, body []byte, had bool, err error) {
	nl := newline(content)
	open := []byte("---" + nl)
	if !bytes.HasPrefix(content, open) {
		return nil, content, false, nil
	}

	rest := content[len(open):]
	if bytes.HasPrefix(rest, open) {
		return []byte{}, rest[len(open):], true, nil
	}

	closeSeq := []byte(nl + "---" + nl)
	idx := bytes.Index(rest, closeSeq)
	if idx < 0 {
		// A closing delimiter on the very last line has no trailing newline.
		if bytes.HasSuffix(rest, []byte(nl+"---")) {
			return rest[:len(rest)-len("---")], []byte{}, true, nil
		}
		return nil, nil, false, ErrMissingClosingDelimiter
	}
	return rest[:idx+len(nl)], rest[idx+len(closeSeq):], true, nil
}

// ParseYAML parses raw YAML frontmatter (without --- delimiters) into a map.
func ParseYAML(frontmatter []byte) (map[string]any, error) {
	fields := map[string]any{}
	if len(bytes.TrimSpace(frontmatter)) == 0 {
		return fields, nil
	}
	if err := yaml.Unmarshal(frontmatter, &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		fields = map[string]any{}
	}
	return fields, nil
}

// Parse splits content and decodes its frontmatter. A document without
// frontmatter yields a zero Meta with an empty Fields map.
func Parse(content []byte) (Meta, []byte, error) {
	fm, body, had, err := Split(content)
	if err != nil {
		return Meta{}, nil, err
	}
	meta := Meta{Fields: map[string]any{}}
	if !had || len(bytes.TrimSpace(fm)) == 0 {
		return meta, body, nil
	}
	if err := yaml.Unmarshal(fm, &meta); err != nil {
		return Meta{}, nil, fmt.Errorf("decode frontmatter: %w", err)
	}
	fields, err := ParseYAML(fm)
	if err != nil {
		return Meta{}, nil, fmt.Errorf("decode frontmatter: %w", err)
	}
	meta.Fields = fields
	return meta, body, nil
}

func newline(content []byte) string {
	if i := bytes.IndexByte(content, '\n'); i > 0 && content[i-1] == '\r' {
		return "\r\n"
	}
	return "\n"
}
