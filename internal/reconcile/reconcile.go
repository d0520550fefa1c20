// Package reconcile finds sections that appear under the same heading path in
// more than one place and groups the ones whose content is near-identical.
package reconcile

import (
	"strings"
	"unicode"

	"github.com/dgallion1/notedex/internal/doctree"
	"github.com/dgallion1/notedex/internal/outline"
)

// DefaultThreshold is the similarity at or above which two sections sharing a
// heading path are grouped for merge.
const DefaultThreshold = 0.8

// Member is one occurrence of a heading path.
type Member struct {
	Document *doctree.Document
	Node     *outline.Node
	Order    int // position across all documents, pre-order
}

// Group is a set of sections with the same heading path whose content is
// similar enough to be treated as one. A single-member group is a distinct
// variant of its path.
type Group struct {
	Path       doctree.HeadingPath
	Variant    int // 1-based, in source order within the path
	Members    []Member
	Similarity float64 // weakest link that joined the group; 1 for singletons
	Exact      bool    // every member has byte-identical content
}

// Duplicate reports whether the group holds more than one section.
func (g *Group) Duplicate() bool { return len(g.Members) > 1 }

// PathGroups lists every group found under one contested heading path.
type PathGroups struct {
	Path   doctree.HeadingPath
	Groups []*Group
}

// Result is the outcome of reconciling a set of outlines.
type Result struct {
	Threshold float64
	Paths     []*PathGroups // contested paths in order of first occurrence

	byNode map[*outline.Node]*Group
}

// GroupOf returns the group holding n. Nodes whose path occurs only once are
// not grouped.
func (r *Result) GroupOf(n *outline.Node) (*Group, bool) {
	g, ok := r.byNode[n]
	return g, ok
}

// Duplicates returns the groups with more than one member.
func (r *Result) Duplicates() []*Group {
	var out []*Group
	for _, p := range r.Paths {
		for _, g := range p.Groups {
			if g.Duplicate() {
				out = append(out, g)
			}
		}
	}
	return out
}

// Reconcile groups the nodes of trees. Placeholder nodes are ignored. Output
// depends only on tree order and threshold.
func Reconcile(trees []*outline.Tree, threshold float64) *Result {
	res := &Result{Threshold: threshold, byNode: make(map[*outline.Node]*Group)}

	byPath := make(map[string][]Member)
	var pathOrder []doctree.HeadingPath
	order := 0
	for _, t := range trees {
		for n := range t.Nodes() {
			if n.IsPlaceholder() {
				continue
			}
			key := n.Path.Key()
			if _, seen := byPath[key]; !seen {
				pathOrder = append(pathOrder, n.Path)
			}
			byPath[key] = append(byPath[key], Member{Document: t.Document, Node: n, Order: order})
			order++
		}
	}

	for _, path := range pathOrder {
		members := byPath[path.Key()]
		if len(members) < 2 {
			continue
		}
		pg := &PathGroups{Path: path, Groups: groupMembers(path, members, threshold)}
		for _, g := range pg.Groups {
			for _, m := range g.Members {
				res.byNode[m.Node] = g
			}
		}
		res.Paths = append(res.Paths, pg)
	}
	return res
}

// groupMembers links every pair at or above threshold and returns the
// connected components ordered by their first member.
func groupMembers(path doctree.HeadingPath, members []Member, threshold float64) []*Group {
	tokens := make([][]string, len(members))
	for i, m := range members {
		tokens[i] = Tokens(m.Node.Section)
	}

	uf := newUnionFind(len(members))
	weakest := make([]float64, len(members))
	for i := range weakest {
		weakest[i] = 1
	}
	for i := 0; i < len(members); i++ {
		for j := i + 1; j < len(members); j++ {
			sim := Similarity(tokens[i], tokens[j])
			if sim < threshold {
				continue
			}
			ri, rj := uf.find(i), uf.find(j)
			w := min(weakest[ri], weakest[rj], sim)
			uf.union(ri, rj)
			weakest[uf.find(i)] = w
		}
	}

	byRoot := make(map[int]*Group)
	var groups []*Group
	for i, m := range members {
		root := uf.find(i)
		g, ok := byRoot[root]
		if !ok {
			g = &Group{Path: path, Similarity: weakest[root]}
			byRoot[root] = g
			groups = append(groups, g)
		}
		g.Members = append(g.Members, m)
	}
	for i, g := range groups {
		g.Variant = i + 1
		g.Exact = allIdentical(g.Members)
	}
	return groups
}

func allIdentical(members []Member) bool {
	first := members[0].Node.Section.ContentText()
	for _, m := range members[1:] {
		if m.Node.Section.ContentText() != first {
			return false
		}
	}
	return true
}

// Tokens splits a section's content into lower-cased word tokens.
func Tokens(s *doctree.Section) []string {
	return strings.FieldsFunc(strings.ToLower(s.ContentText()), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// Similarity is the normalised longest-common-subsequence ratio
// 2·LCS/(len(a)+len(b)). Two empty sequences are identical.
func Similarity(a, b []string) float64 {
	if len(a)+len(b) == 0 {
		return 1
	}
	return 2 * float64(lcsLength(a, b)) / float64(len(a)+len(b))
}

func lcsLength(a, b []string) int {
	if len(a) < len(b) {
		a, b = b, a
	}
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				cur[j] = prev[j-1] + 1
			} else {
				cur[j] = max(prev[j], cur[j-1])
			}
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}

// Merge returns a new section holding the union of the group's blocks in
// first-seen order. Member sections are left untouched.
func Merge(g *Group) *doctree.Section {
	first := g.Members[0].Node.Section
	merged := &doctree.Section{
		Title: first.Title,
		Depth: first.Depth,
		Line:  first.Line,
	}
	seen := make(map[doctree.Block]bool)
	for _, m := range g.Members {
		for _, b := range m.Node.Section.Blocks {
			if seen[b] {
				continue
			}
			seen[b] = true
			merged.Blocks = append(merged.Blocks, b)
		}
	}
	return merged
}

type unionFind struct{ parent []int }

func newUnionFind(n int) *unionFind {
	p := make([]int, n)
	for i := range p {
		p[i] = i
	}
	return &unionFind{parent: p}
}

func (u *unionFind) find(x int) int {
	for u.parent[x] != x {
		u.parent[x] = u.parent[u.parent[x]]
		x = u.parent[x]
	}
	return x
}

// union attaches the higher root under the lower so roots stay the earliest
// member.
func (u *unionFind) union(a, b int) {
	ra, rb := u.find(a), u.find(b)
	if ra == rb {
		return
	}
	if ra < rb {
		u.parent[rb] = ra
	} else {
		u.parent[ra] = rb
	}
}
