package ingest

import (
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"go.abhg.dev/goldmark/toc"
)

// markdownSection is one header-delimited span of a markdown document.
type markdownSection struct {
	Title   string // hierarchy, e.g. "Getting Started > Installation"
	Content string
}

var markdownParser = goldmark.New(
	goldmark.WithParserOptions(parser.WithAutoHeadingID()),
)

// splitMarkdownSections splits a markdown source at H1 and H2 boundaries.
// A document without headers comes back as a single untitled section.
func splitMarkdownSections(source []byte) ([]markdownSection, error) {
	reader := text.NewReader(source)
	doc := markdownParser.Parser().Parse(reader)

	tree, err := toc.Inspect(doc, source,
		toc.MinDepth(1),
		toc.MaxDepth(2),
		toc.Compact(true),
	)
	if err != nil {
		return nil, fmt.Errorf("inspect TOC: %w", err)
	}

	if len(tree.Items) == 0 {
		return []markdownSection{{Content: string(source)}}, nil
	}

	var sections []markdownSection
	collectSections(doc, source, tree.Items, nil, &sections)
	return sections, nil
}

// collectSections walks TOC items, slicing the source between consecutive
// header boundaries.
func collectSections(doc ast.Node, source []byte, items toc.Items, ancestors []string, sections *[]markdownSection) {
	for i, item := range items {
		titlePath := append(ancestors, string(item.Title))

		headerNode := headingByID(doc, string(item.ID))
		if headerNode == nil {
			continue
		}

		start := headerNode.Lines().At(0)
		var end text.Segment
		if i+1 < len(items) {
			if next := headingByID(doc, string(items[i+1].ID)); next != nil {
				end = next.Lines().At(0)
			}
		} else {
			end = nextBoundary(doc, headerNode, headerNode.(*ast.Heading).Level)
		}

		content := sliceContent(source, start, end)
		*sections = append(*sections, markdownSection{
			Title:   strings.Join(titlePath, " > "),
			Content: content,
		})

		if len(item.Items) > 0 {
			collectSections(doc, source, item.Items, titlePath, sections)
		}
	}
}

// headingByID locates a heading node by its auto-generated ID.
func headingByID(node ast.Node, id string) ast.Node {
	var found ast.Node
	ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if entering && n.Kind() == ast.KindHeading {
			headingID, ok := n.AttributeString("id")
			if ok && string(headingID.([]byte)) == id {
				found = n
				return ast.WalkStop, nil
			}
		}
		return ast.WalkContinue, nil
	})
	return found
}

// nextBoundary finds the first heading after current at the same or a higher
// level. The zero segment means the section runs to end of document.
func nextBoundary(root ast.Node, current ast.Node, currentLevel int) text.Segment {
	var boundary ast.Node
	foundCurrent := false

	ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if n.Kind() != ast.KindHeading {
			return ast.WalkContinue, nil
		}
		if !foundCurrent {
			if n == current {
				foundCurrent = true
			}
			return ast.WalkContinue, nil
		}
		if n.(*ast.Heading).Level <= currentLevel {
			boundary = n
			return ast.WalkStop, nil
		}
		return ast.WalkContinue, nil
	})

	if boundary != nil {
		return boundary.Lines().At(0)
	}
	return text.Segment{}
}

// sliceContent extracts the source text between two line segments.
func sliceContent(source []byte, start, end text.Segment) string {
	if end.Start == 0 && end.Stop == 0 {
		return strings.TrimSpace(string(source[start.Start:]))
	}
	return strings.TrimSpace(string(source[start.Start:end.Start]))
}
