package reconcile

import (
	"fmt"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/notedex/internal/doctree"
	"github.com/dgallion1/notedex/internal/outline"
)

func bullets(items ...string) []doctree.Block {
	out := make([]doctree.Block, len(items))
	for i, it := range items {
		out[i] = doctree.Block{Kind: doctree.KindListItem, Text: it}
	}
	return out
}

func helloWorldBullets(n int) []string {
	items := make([]string, n)
	for i := range items {
		items[i] = fmt.Sprintf("printf writes item %d to standard output", i)
	}
	return items
}

func book(name string, hello []doctree.Block) *outline.Tree {
	return outline.Build(&doctree.Document{
		Name:  name,
		Title: name,
		Sections: []*doctree.Section{
			{Title: "Chapter 1", Depth: 1},
			{Title: "Hello World", Depth: 2, Blocks: hello},
		},
	})
}

func findPath(t *testing.T, res *Result, path string) *PathGroups {
	t.Helper()
	for _, p := range res.Paths {
		if p.Path.String() == path {
			return p
		}
	}
	t.Fatalf("path %q not contested", path)
	return nil
}

func TestReconcile_NearIdenticalSectionsGrouped(t *testing.T) {
	a := helloWorldBullets(20)
	b := slices.Clone(a)
	b[7] = "the compiler links the program into an executable"

	trees := []*outline.Tree{book("kr.md", bullets(a...)), book("kr-copy.md", bullets(b...))}
	res := Reconcile(trees, DefaultThreshold)

	hello := findPath(t, res, "Chapter 1 > Hello World")
	require.Len(t, hello.Groups, 1)
	g := hello.Groups[0]
	require.Len(t, g.Members, 2, "both variants retained")
	assert.Equal(t, "kr.md", g.Members[0].Document.Name)
	assert.Equal(t, "kr-copy.md", g.Members[1].Document.Name)
	assert.GreaterOrEqual(t, g.Similarity, 0.9)
	assert.False(t, g.Exact)
	assert.Equal(t, 1, g.Variant)
}

func TestReconcile_ChapterHeadingsWithoutContentAreExact(t *testing.T) {
	trees := []*outline.Tree{book("a.md", nil), book("b.md", nil)}
	res := Reconcile(trees, DefaultThreshold)

	require.Len(t, res.Paths, 2)
	ch := res.Paths[0]
	assert.Equal(t, "Chapter 1", ch.Path.String())
	require.Len(t, ch.Groups, 1)
	assert.True(t, ch.Groups[0].Exact)
	assert.Equal(t, 1.0, ch.Groups[0].Similarity)
}

func TestReconcile_DissimilarSectionsAreVariants(t *testing.T) {
	trees := []*outline.Tree{
		book("kr.md", bullets("printf prints formatted output")),
		book("ccia.md", bullets("threads share memory", "mutexes serialise access")),
	}
	res := Reconcile(trees, DefaultThreshold)

	hello := findPath(t, res, "Chapter 1 > Hello World")
	require.Len(t, hello.Groups, 2)
	assert.Equal(t, 1, hello.Groups[0].Variant)
	assert.Equal(t, "kr.md", hello.Groups[0].Members[0].Document.Name)
	assert.Equal(t, 2, hello.Groups[1].Variant)
	assert.Equal(t, "ccia.md", hello.Groups[1].Members[0].Document.Name)
	for _, g := range hello.Groups {
		assert.False(t, g.Duplicate())
	}
}

func TestReconcile_UniquePathsNotGrouped(t *testing.T) {
	tree := outline.Build(&doctree.Document{Name: "solo.md", Sections: []*doctree.Section{
		{Title: "Only", Depth: 1},
	}})
	res := Reconcile([]*outline.Tree{tree}, DefaultThreshold)
	assert.Empty(t, res.Paths)
	_, ok := res.GroupOf(tree.Root.Children[0])
	assert.False(t, ok)
}

func TestReconcile_Symmetric(t *testing.T) {
	base := helloWorldBullets(10)
	near := slices.Clone(base)
	near[0] = "something else entirely"
	far := []string{"unrelated", "content"}

	trees := []*outline.Tree{
		book("a.md", bullets(base...)),
		book("b.md", bullets(near...)),
		book("c.md", bullets(far...)),
		book("d.md", bullets(base...)),
	}
	res := Reconcile(trees, DefaultThreshold)

	var nodes []*outline.Node
	for _, tr := range trees {
		for n := range tr.Nodes() {
			nodes = append(nodes, n)
		}
	}
	for _, a := range nodes {
		for _, b := range nodes {
			assert.Equal(t, groupedWith(res, a, b), groupedWith(res, b, a),
				"%s vs %s", a.Path, b.Path)
		}
	}

	// Grouping is a partition independent of the order the pair is examined in.
	reversed := slices.Clone(trees)
	slices.Reverse(reversed)
	assert.Equal(t, partition(res), partition(Reconcile(reversed, DefaultThreshold)))
}

// groupedWith reports whether b is a member of a's group.
func groupedWith(res *Result, a, b *outline.Node) bool {
	g, ok := res.GroupOf(a)
	if !ok {
		return false
	}
	for _, m := range g.Members {
		if m.Node == b {
			return true
		}
	}
	return false
}

// partition renders groups as sorted sets of document names.
func partition(res *Result) []string {
	var out []string
	for _, g := range res.Duplicates() {
		var names []string
		for _, m := range g.Members {
			names = append(names, m.Document.Name)
		}
		slices.Sort(names)
		out = append(out, g.Path.String()+": "+strings.Join(names, ","))
	}
	slices.Sort(out)
	return out
}

func TestReconcile_Deterministic(t *testing.T) {
	trees := []*outline.Tree{
		book("a.md", bullets(helloWorldBullets(5)...)),
		book("b.md", bullets("x")),
		book("c.md", bullets(helloWorldBullets(5)...)),
	}
	first := Reconcile(trees, DefaultThreshold)
	second := Reconcile(trees, DefaultThreshold)
	assert.Equal(t, partition(first), partition(second))
	require.Equal(t, len(first.Paths), len(second.Paths))
	for i := range first.Paths {
		for j, g := range first.Paths[i].Groups {
			assert.Equal(t, g.Variant, second.Paths[i].Groups[j].Variant)
			assert.Equal(t, g.Similarity, second.Paths[i].Groups[j].Similarity)
		}
	}
}

func TestReconcile_ThresholdBoundaryIsInclusive(t *testing.T) {
	// 4 shared tokens of 5 each: 2*4/10 = 0.8 exactly.
	trees := []*outline.Tree{
		book("a.md", bullets("one two three four five")),
		book("b.md", bullets("one two three four six")),
	}
	assert.Len(t, Reconcile(trees, 0.8).Duplicates(), 2, "chapter and section both grouped")
	assert.Len(t, Reconcile(trees, 0.81).Duplicates(), 1, "only the empty chapter headings")
}

func TestReconcile_TransitiveLinks(t *testing.T) {
	// a~b and b~c clear the threshold, a~c does not; all three still group.
	trees := []*outline.Tree{
		book("a.md", bullets("1 2 3 4 5 6 7 8 9 10")),
		book("b.md", bullets("1 2 3 4 5 6 7 8 x y")),
		book("c.md", bullets("1 2 3 4 5 6 p q x y")),
	}
	assert.Less(t, Similarity(tokensOf("1 2 3 4 5 6 7 8 9 10"), tokensOf("1 2 3 4 5 6 p q x y")), DefaultThreshold)

	res := Reconcile(trees, DefaultThreshold)
	dups := res.Duplicates()
	require.Len(t, dups, 2)
	hello := dups[1]
	assert.Len(t, hello.Members, 3)
	assert.InDelta(t, 0.8, hello.Similarity, 1e-9)
}

func tokensOf(s string) []string {
	return Tokens(&doctree.Section{Blocks: bullets(s)})
}

func TestSimilarity(t *testing.T) {
	tests := []struct {
		a, b string
		want float64
	}{
		{"", "", 1},
		{"a b c", "", 0},
		{"a b c", "a b c", 1},
		{"a b c d", "a x c d", 0.75},
		{"The Mutex", "the mutex", 1},
	}
	for _, tt := range tests {
		a, b := tokensOf(tt.a), tokensOf(tt.b)
		assert.InDelta(t, tt.want, Similarity(a, b), 1e-9, "%q vs %q", tt.a, tt.b)
		assert.Equal(t, Similarity(a, b), Similarity(b, a))
	}
}

func TestMerge_UnionInFirstSeenOrder(t *testing.T) {
	a := bullets("alpha", "beta", "gamma")
	b := bullets("alpha", "delta", "gamma")
	trees := []*outline.Tree{book("a.md", a), book("b.md", b)}
	res := Reconcile(trees, 0.5)

	dups := res.Duplicates()
	require.Len(t, dups, 2)
	merged := Merge(dups[1])

	var texts []string
	for _, blk := range merged.Blocks {
		texts = append(texts, blk.Text)
	}
	assert.Equal(t, []string{"alpha", "beta", "gamma", "delta"}, texts)
	assert.Equal(t, "Hello World", merged.Title)

	assert.Len(t, trees[0].Document.Sections[1].Blocks, 3, "sources untouched")
	assert.Equal(t, "delta", trees[1].Document.Sections[1].Blocks[1].Text)
}
