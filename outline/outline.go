// Package outline rebuilds a document's bookmark tree from the flattened
// table of contents and renders it as Markdown or HTML.
package outline

import (
	"context"
	"fmt"

	"github.com/wudi/pdfium/document"
)

// Node is one bookmark with its nested entries.
type Node struct {
	Title    string
	Page     int
	Children []*Node
}

// HasTarget reports whether the bookmark points into the document.
func (n *Node) HasTarget() bool { return n.Page != document.NoTarget }

// Entry is a flattened node with its depth and a printable page label.
type Entry struct {
	Title string
	Page  int
	Label string
	Depth int
}

// Build nests entries by level. A level that skips ahead is attached to
// the deepest open node; a negative level is treated as a root.
func Build(entries []document.Bookmark) []*Node {
	var (
		roots []*Node
		stack []*Node
	)
	for _, e := range entries {
		n := &Node{Title: e.Title, Page: e.Page}
		level := e.Level
		if level < 0 {
			level = 0
		}
		if level > len(stack) {
			level = len(stack)
		}
		stack = stack[:level]
		if level == 0 {
			roots = append(roots, n)
		} else {
			parent := stack[level-1]
			parent.Children = append(parent.Children, n)
		}
		stack = append(stack, n)
	}
	return roots
}

// FromDocument reads the table of contents of doc and nests it.
func FromDocument(ctx context.Context, doc *document.Document) ([]*Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := doc.TableOfContents()
	if err != nil {
		return nil, err
	}
	return Build(entries), nil
}

// Walk visits nodes depth first. Returning false from fn skips the node's
// children.
func Walk(nodes []*Node, fn func(n *Node, depth int) bool) {
	var walk func(items []*Node, depth int)
	walk = func(items []*Node, depth int) {
		for _, n := range items {
			if fn(n, depth) {
				walk(n.Children, depth+1)
			}
		}
	}
	walk(nodes, 0)
}

// Flatten lists the tree depth first, labelling pages one based.
func Flatten(nodes []*Node) []Entry {
	var out []Entry
	Walk(nodes, func(n *Node, depth int) bool {
		out = append(out, Entry{Title: n.Title, Page: n.Page, Label: Label(n.Page), Depth: depth})
		return true
	})
	return out
}

// Label is the printed page number for a zero based index, or "" for
// bookmarks without a target.
func Label(page int) string {
	if page < 0 {
		return ""
	}
	return fmt.Sprintf("%d", page+1)
}

// Count returns the number of nodes in the tree.
func Count(nodes []*Node) int {
	n := 0
	Walk(nodes, func(*Node, int) bool {
		n++
		return true
	})
	return n
}
