// Package markdown locates link destinations in markdown bodies with goldmark
// so they can be rewritten without re-rendering the document.
package markdown

import (
	"sort"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

// LinkKind tells how a destination was written.
type LinkKind string

const (
	LinkKindInline              LinkKind = "inline"
	LinkKindImage               LinkKind = "image"
	LinkKindAuto                LinkKind = "auto"
	LinkKindReferenceDefinition LinkKind = "reference_definition"
)

// Link is one link destination found in a body.
type Link struct {
	Kind        LinkKind
	Destination string
}

type parsed struct {
	root gmast.Node
	refs []parser.Reference
}

func parse(body []byte) parsed {
	md := goldmark.New()
	ctx := parser.NewContext()
	root := md.Parser().Parse(text.NewReader(body), parser.WithContext(ctx))

	// Reference definitions live in the parse context, not in the AST.
	refs := ctx.References()
	sort.Slice(refs, func(i, j int) bool {
		return string(refs[i].Label()) < string(refs[j].Label())
	})
	return parsed{root: root, refs: refs}
}

// ExtractLinks returns every link destination in body, in document order,
// followed by reference definitions sorted by label.
func ExtractLinks(body []byte) []Link {
	p := parse(body)

	links := make([]Link, 0)
	_ = gmast.Walk(p.root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *gmast.AutoLink:
			links = append(links, Link{Kind: LinkKindAuto, Destination: string(node.URL(body))})
		case *gmast.Image:
			links = append(links, Link{Kind: LinkKindImage, Destination: string(node.Destination)})
		case *gmast.Link:
			// Reference-style usages resolve to a Link node carrying the destination.
			links = append(links, Link{Kind: LinkKindInline, Destination: string(node.Destination)})
		}
		return gmast.WalkContinue, nil
	})

	for _, ref := range p.refs {
		links = append(links, Link{Kind: LinkKindReferenceDefinition, Destination: string(ref.Destination())})
	}
	return links
}
