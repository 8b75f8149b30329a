package markdown

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"sort"

	gmast "github.com/yuin/goldmark/ast"
)

// Edit replaces Source[Start:End] with Replacement. Offsets refer to the
// original body.
type Edit struct {
	Start       int
	End         int
	Replacement []byte
}

// ApplyEdits applies non-overlapping edits to source and returns a new slice.
func ApplyEdits(source []byte, edits []Edit) ([]byte, error) {
	if len(edits) == 0 {
		return source, nil
	}

	sorted := make([]Edit, len(edits))
	copy(sorted, edits)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	var out bytes.Buffer
	out.Grow(len(source))
	pos := 0
	for i, e := range sorted {
		switch {
		case e.Start < 0 || e.End < e.Start:
			return nil, fmt.Errorf("invalid edit[%d]: bad range %d..%d", i, e.Start, e.End)
		case e.End > len(source):
			return nil, fmt.Errorf("invalid edit[%d]: range out of bounds", i)
		case e.Start < pos:
			return nil, errors.New("invalid edits: overlapping ranges")
		}
		out.Write(source[pos:e.Start])
		out.Write(e.Replacement)
		pos = e.End
	}
	out.Write(source[pos:])
	return out.Bytes(), nil
}

// RewriteLinks passes every inline link, image and reference definition
// destination of body through rewrite and returns the updated body. Only the
// destination bytes change; destinations inside code are never touched.
func RewriteLinks(body []byte, rewrite func(dest string) string) ([]byte, error) {
	p := parse(body)

	var edits []Edit
	cursor := 0
	_ = gmast.Walk(p.root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		var dest []byte
		switch node := n.(type) {
		case *gmast.Link:
			dest = node.Destination
		case *gmast.Image:
			dest = node.Destination
		default:
			return gmast.WalkContinue, nil
		}

		start, ok := inlineDestination(body, max(textStop(n), cursor), dest)
		if !ok {
			return gmast.WalkContinue, nil
		}
		end := start + len(dest)
		cursor = end
		if next := rewrite(string(dest)); next != string(dest) {
			edits = append(edits, Edit{Start: start, End: end, Replacement: []byte(next)})
		}
		return gmast.WalkContinue, nil
	})

	if len(p.refs) > 0 {
		edits = append(edits, referenceEdits(body, rewrite)...)
	}
	return ApplyEdits(body, edits)
}

// textStop returns the end offset of the last text segment inside n, or 0.
func textStop(n gmast.Node) int {
	stop := 0
	_ = gmast.Walk(n, func(c gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if t, ok := c.(*gmast.Text); ok && entering && t.Segment.Stop > stop {
			stop = t.Segment.Stop
		}
		return gmast.WalkContinue, nil
	})
	return stop
}

// inlineDestination finds dest in the "](dest" that closes a link whose text
// ends at from. Emphasis and code span delimiters may sit between the text and
// the bracket. Reference-style usages have no inline destination.
func inlineDestination(body []byte, from int, dest []byte) (int, bool) {
	if len(dest) == 0 {
		return 0, false
	}
	i := from
	for i < len(body) && bytes.IndexByte([]byte("*_`~"), body[i]) >= 0 {
		i++
	}
	if !bytes.HasPrefix(body[i:], []byte("](")) {
		return 0, false
	}
	i += 2
	for i < len(body) && (body[i] == ' ' || body[i] == '\t' || body[i] == '\n') {
		i++
	}
	if i < len(body) && body[i] == '<' {
		i++
	}
	if !bytes.HasPrefix(body[i:], dest) {
		return 0, false
	}
	return i, true
}

var referenceDefinition = regexp.MustCompile(`^ {0,3}\[[^\]]+\]:[ \t]*<?([^\s>]+)`)

func referenceEdits(body []byte, rewrite func(string) string) []Edit {
	var edits []Edit
	fence := ""
	offset := 0
	for _, line := range bytes.SplitAfter(body, []byte("\n")) {
		trimmed := bytes.TrimSpace(line)
		switch {
		case fence == "" && (bytes.HasPrefix(trimmed, []byte("```")) || bytes.HasPrefix(trimmed, []byte("~~~"))):
			fence = string(trimmed[:3])
		case fence != "" && bytes.HasPrefix(trimmed, []byte(fence)):
			fence = ""
		case fence == "":
			if m := referenceDefinition.FindSubmatchIndex(line); m != nil {
				dest := string(line[m[2]:m[3]])
				if next := rewrite(dest); next != dest {
					edits = append(edits, Edit{Start: offset + m[2], End: offset + m[3], Replacement: []byte(next)})
				}
			}
		}
		offset += len(line)
	}
	return edits
}
