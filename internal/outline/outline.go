// Package outline turns a document's flat, depth-tagged sections into a
// heading tree.
package outline

import (
	"fmt"
	"iter"

	"github.com/dgallion1/notedex/internal/doctree"
)

// Node is one heading in the outline. The root node of a tree stands for the
// document itself and has no section.
type Node struct {
	Section  *doctree.Section
	Path     doctree.HeadingPath // Titles from the document root; placeholders add nothing
	Children []*Node
	depth    int
}

// Depth is the heading depth, 0 for the document root.
func (n *Node) Depth() int { return n.depth }

func (n *Node) IsRoot() bool { return n.Section == nil }

func (n *Node) IsPlaceholder() bool { return n.Section != nil && n.Section.Placeholder }

func (n *Node) Title() string {
	if n.Section == nil {
		return ""
	}
	return n.Section.Title
}

// Tree is the outline of one document.
type Tree struct {
	Document *doctree.Document
	Root     *Node
	Warnings []*StructureError
}

// StructureError records a heading that skipped levels. It is recovered by
// synthesising empty placeholder parents and is reported as a warning.
type StructureError struct {
	Document  string
	Path      doctree.HeadingPath
	Line      int
	FromDepth int
	ToDepth   int
}

func (e *StructureError) Error() string {
	loc := e.Document
	if e.Line > 0 {
		loc = fmt.Sprintf("%s:%d", e.Document, e.Line)
	}
	return fmt.Sprintf("structure %s: heading %q jumps from level %d to level %d, synthesised %d placeholder(s)",
		loc, e.Path.String(), e.FromDepth, e.ToDepth, e.ToDepth-e.FromDepth-1)
}

// Build constructs the outline for doc. It never fails: depth skips produce
// placeholder nodes and a StructureError warning each.
func Build(doc *doctree.Document) *Tree {
	root := &Node{}
	tree := &Tree{Document: doc, Root: root}

	// stack holds the currently open nodes, shallowest first; root is depth 0.
	stack := []*Node{root}
	for _, s := range doc.Sections {
		for len(stack) > 1 && stack[len(stack)-1].depth >= s.Depth {
			stack = stack[:len(stack)-1]
		}
		top := stack[len(stack)-1]

		if s.Depth > top.depth+1 {
			tree.Warnings = append(tree.Warnings, &StructureError{
				Document:  doc.Name,
				Path:      top.Path.Append(s.Title),
				Line:      s.Line,
				FromDepth: top.depth,
				ToDepth:   s.Depth,
			})
			for d := top.depth + 1; d < s.Depth; d++ {
				ph := &Node{
					Section: &doctree.Section{Depth: d, Line: s.Line, Placeholder: true},
					Path:    top.Path,
					depth:   d,
				}
				top.Children = append(top.Children, ph)
				stack = append(stack, ph)
				top = ph
			}
		}

		path := top.Path
		if !s.Placeholder {
			path = top.Path.Append(s.Title)
		}
		n := &Node{Section: s, Path: path, depth: s.Depth}
		top.Children = append(top.Children, n)
		stack = append(stack, n)
	}
	return tree
}

// Nodes yields every node below the root in pre-order.
func (t *Tree) Nodes() iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		var walk func(n *Node) bool
		walk = func(n *Node) bool {
			for _, c := range n.Children {
				if !yield(c) || !walk(c) {
					return false
				}
			}
			return true
		}
		walk(t.Root)
	}
}

// Flatten serialises the tree back to a flat heading sequence in pre-order.
// Placeholders are kept (flagged) so rebuilding yields the same shape.
func Flatten(t *Tree) []*doctree.Section {
	var out []*doctree.Section
	for n := range t.Nodes() {
		out = append(out, n.Section)
	}
	return out
}

// Rebuild flattens t and builds a fresh tree from the result.
func Rebuild(t *Tree) *Tree {
	doc := *t.Document
	doc.Sections = Flatten(t)
	return Build(&doc)
}
