package index

import (
	"cmp"
	"context"
	"iter"
	"slices"
	"strings"
	"sync"

	"github.com/dgallion1/notedex/internal/chunker"
	"github.com/dgallion1/notedex/internal/doctree"
)

// Hit is one search result.
type Hit struct {
	Document *doctree.Document
	Path     doctree.HeadingPath
	Section  *doctree.Section
	Matches  int
	Excerpt  string
}

// Results is a lazy, finite search. Nothing is scanned until All is ranged
// over, and every range starts again from the top-ranked hit. Ranges may run
// concurrently; each reports its own stop reason.
type Results struct {
	ctx  context.Context
	snap *Snapshot
	term string

	mu  sync.Mutex
	err error
}

// Search matches term case-insensitively against section titles and content.
// Hits are ordered by match count, then document order, then pre-order.
func (s *Snapshot) Search(ctx context.Context, term string) *Results {
	return &Results{ctx: ctx, snap: s, term: strings.TrimSpace(term)}
}

func (r *Results) Term() string { return r.term }

// Err reports why the most recently finished iteration stopped early, if it
// did. Collect returns its own iteration's error directly.
func (r *Results) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

func (r *Results) setErr(err error) {
	r.mu.Lock()
	r.err = err
	r.mu.Unlock()
}

// All yields hits in relevance order.
func (r *Results) All() iter.Seq[Hit] {
	return func(yield func(Hit) bool) {
		r.setErr(r.scan(yield))
	}
}

// Collect drains up to limit hits. A limit of zero or less means no limit.
func (r *Results) Collect(limit int) ([]Hit, error) {
	var hits []Hit
	err := r.scan(func(h Hit) bool {
		hits = append(hits, h)
		return limit <= 0 || len(hits) < limit
	})
	r.setErr(err)
	return hits, err
}

// scan yields ranked hits until yield declines or the context ends.
func (r *Results) scan(yield func(Hit) bool) error {
	ranked, err := r.rank()
	if err != nil {
		return err
	}
	for _, sh := range ranked {
		if err := r.ctx.Err(); err != nil {
			return err
		}
		e := sh.entry
		hit := Hit{
			Document: e.Document,
			Path:     e.Path(),
			Section:  e.Section(),
			Matches:  sh.matches,
			Excerpt:  chunker.Excerpt(e.Section().ContentText(), r.term, r.snap.excerpt),
		}
		if !yield(hit) {
			return nil
		}
	}
	return nil
}

type scored struct {
	entry   Entry
	matches int
}

func (r *Results) rank() ([]scored, error) {
	if r.term == "" {
		return nil, nil
	}
	var out []scored
	for i, e := range r.snap.entries {
		if i%256 == 0 {
			if err := r.ctx.Err(); err != nil {
				return nil, err
			}
		}
		sec := e.Section()
		n := chunker.Count(sec.Title, r.term)
		for _, b := range sec.Blocks {
			n += chunker.Count(b.Text, r.term)
		}
		if n > 0 {
			out = append(out, scored{entry: e, matches: n})
		}
	}
	slices.SortFunc(out, func(a, b scored) int {
		if c := cmp.Compare(b.matches, a.matches); c != 0 {
			return c
		}
		return cmp.Compare(a.entry.order, b.entry.order)
	})
	return out, nil
}
