package index

import "github.com/dgallion1/notedex/internal/doctree"

// trieNode is keyed by heading title. Resolving a path costs one map lookup
// per segment.
type trieNode struct {
	children map[string]*trieNode
	entries  []Entry
}

func newTrieNode() *trieNode {
	return &trieNode{children: make(map[string]*trieNode)}
}

func (t *trieNode) insert(path doctree.HeadingPath, e Entry) {
	n := t
	for _, seg := range path {
		child, ok := n.children[seg]
		if !ok {
			child = newTrieNode()
			n.children[seg] = child
		}
		n = child
	}
	n.entries = append(n.entries, e)
}

func (t *trieNode) find(path doctree.HeadingPath) *trieNode {
	if len(path) == 0 {
		return nil
	}
	n := t
	for _, seg := range path {
		n = n.children[seg]
		if n == nil {
			return nil
		}
	}
	return n
}
