package render

import (
	"github.com/dgallion1/notedex/internal/doctree"
	"github.com/dgallion1/notedex/internal/index"
	"github.com/dgallion1/notedex/internal/outline"
	"github.com/dgallion1/notedex/internal/reconcile"
)

// SectionView is the JSON shape of a looked-up section.
type SectionView struct {
	Document string          `json:"document"`
	DocID    string          `json:"doc_id"`
	Path     string          `json:"path"`
	Title    string          `json:"title"`
	Depth    int             `json:"depth"`
	Line     int             `json:"line,omitempty"`
	Blocks   []doctree.Block `json:"blocks"`
	Group    *GroupRef       `json:"group,omitempty"`
}

// GroupRef summarises the duplicate group a section belongs to.
type GroupRef struct {
	Variant    int     `json:"variant"`
	Members    int     `json:"members"`
	Exact      bool    `json:"exact"`
	Similarity float64 `json:"similarity"`
}

func NewSectionView(e index.Entry, res *reconcile.Result) SectionView {
	sec := e.Section()
	v := SectionView{
		Document: e.Document.Name,
		DocID:    e.Document.ID(),
		Path:     e.Path().String(),
		Title:    sec.Title,
		Depth:    sec.Depth,
		Line:     sec.Line,
		Blocks:   sec.Blocks,
	}
	if v.Blocks == nil {
		v.Blocks = []doctree.Block{}
	}
	if res != nil {
		if g, ok := res.GroupOf(e.Node); ok {
			v.Group = &GroupRef{
				Variant:    g.Variant,
				Members:    len(g.Members),
				Exact:      g.Exact,
				Similarity: g.Similarity,
			}
		}
	}
	return v
}

// HitView is the JSON shape of a search hit.
type HitView struct {
	Document string `json:"document"`
	Path     string `json:"path"`
	Matches  int    `json:"matches"`
	Excerpt  string `json:"excerpt"`
}

func NewHitView(h index.Hit) HitView {
	return HitView{
		Document: h.Document.Name,
		Path:     h.Path.String(),
		Matches:  h.Matches,
		Excerpt:  h.Excerpt,
	}
}

// NodeView is the JSON shape of an outline node.
type NodeView struct {
	Title       string     `json:"title,omitempty"`
	Depth       int        `json:"depth"`
	Placeholder bool       `json:"placeholder,omitempty"`
	Path        string     `json:"path,omitempty"`
	Children    []NodeView `json:"children,omitempty"`
}

// OutlineView is the JSON shape of a document outline.
type OutlineView struct {
	Document string     `json:"document"`
	DocID    string     `json:"doc_id"`
	Title    string     `json:"title"`
	Sections []NodeView `json:"sections"`
}

func NewOutlineView(t *outline.Tree) OutlineView {
	return OutlineView{
		Document: t.Document.Name,
		DocID:    t.Document.ID(),
		Title:    t.Document.Title,
		Sections: nodeViews(t.Root.Children),
	}
}

func nodeViews(nodes []*outline.Node) []NodeView {
	out := make([]NodeView, 0, len(nodes))
	for _, n := range nodes {
		v := NodeView{
			Title:       n.Title(),
			Depth:       n.Depth(),
			Placeholder: n.IsPlaceholder(),
			Children:    nodeViews(n.Children),
		}
		if !n.IsPlaceholder() {
			v.Path = n.Path.String()
		}
		if len(v.Children) == 0 {
			v.Children = nil
		}
		out = append(out, v)
	}
	return out
}

// GroupView is the JSON shape of one duplicate group or variant.
type GroupView struct {
	Path       string       `json:"path"`
	Variant    int          `json:"variant"`
	Exact      bool         `json:"exact"`
	Similarity float64      `json:"similarity"`
	Members    []MemberView `json:"members"`
	Merged     *SectionView `json:"merged,omitempty"`
}

type MemberView struct {
	Document string `json:"document"`
	Line     int    `json:"line,omitempty"`
	Order    int    `json:"order"`
}

// NewGroupViews flattens every contested path into its groups. Groups with
// more than one member carry the merged section.
func NewGroupViews(res *reconcile.Result) []GroupView {
	out := []GroupView{}
	for _, p := range res.Paths {
		for _, g := range p.Groups {
			v := GroupView{
				Path:       g.Path.String(),
				Variant:    g.Variant,
				Exact:      g.Exact,
				Similarity: g.Similarity,
			}
			for _, m := range g.Members {
				v.Members = append(v.Members, MemberView{
					Document: m.Document.Name,
					Line:     m.Node.Section.Line,
					Order:    m.Order,
				})
			}
			if g.Duplicate() {
				merged := reconcile.Merge(g)
				v.Merged = &SectionView{
					Path:   g.Path.String(),
					Title:  merged.Title,
					Depth:  merged.Depth,
					Blocks: merged.Blocks,
				}
			}
			out = append(out, v)
		}
	}
	return out
}
