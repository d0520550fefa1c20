// Package index holds the queryable view of a load: outlines, duplicate
// groups, a heading-path trie for lookup and full-text search.
package index

import (
	"errors"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/dgallion1/notedex/internal/chunker"
	"github.com/dgallion1/notedex/internal/doctree"
	"github.com/dgallion1/notedex/internal/outline"
	"github.com/dgallion1/notedex/internal/reconcile"
)

// ErrNotLoaded is returned when querying a holder with no snapshot.
var ErrNotLoaded = errors.New("index not loaded")

// Options controls snapshot construction.
type Options struct {
	Threshold  float64
	Excerpt    chunker.Config
	Generation string // Reused when restoring a persisted load; generated when empty
}

// Entry is one section occurrence.
type Entry struct {
	Document *doctree.Document
	Node     *outline.Node
	order    int
}

func (e Entry) Section() *doctree.Section { return e.Node.Section }

func (e Entry) Path() doctree.HeadingPath { return e.Node.Path }

// Snapshot is an immutable, fully built index over one set of documents.
type Snapshot struct {
	Generation string
	LoadedAt   time.Time
	Documents  []*doctree.Document
	Trees      []*outline.Tree
	Reconciled *reconcile.Result
	Warnings   []*outline.StructureError

	entries []Entry // non-placeholder sections, document order then pre-order
	trie    *trieNode
	byID    map[string]*outline.Tree
	excerpt chunker.Config
}

// New builds outlines for docs, reconciles duplicates and indexes the result.
func New(docs []*doctree.Document, opts Options) *Snapshot {
	if opts.Threshold <= 0 {
		opts.Threshold = reconcile.DefaultThreshold
	}
	if opts.Generation == "" {
		opts.Generation = uuid.New().String()
	}
	s := &Snapshot{
		Generation: opts.Generation,
		LoadedAt:   time.Now().UTC(),
		Documents:  docs,
		trie:       newTrieNode(),
		byID:       make(map[string]*outline.Tree, len(docs)),
		excerpt:    opts.Excerpt,
	}

	for _, doc := range docs {
		tree := outline.Build(doc)
		s.Trees = append(s.Trees, tree)
		s.Warnings = append(s.Warnings, tree.Warnings...)
		if _, taken := s.byID[doc.ID()]; !taken {
			s.byID[doc.ID()] = tree
		}

		for n := range tree.Nodes() {
			if n.IsPlaceholder() {
				continue
			}
			e := Entry{Document: doc, Node: n, order: len(s.entries)}
			s.entries = append(s.entries, e)
			s.trie.insert(n.Path, e)
		}
	}
	s.Reconciled = reconcile.Reconcile(s.Trees, opts.Threshold)
	return s
}

// Lookup returns the first section, in source order, at path.
func (s *Snapshot) Lookup(path doctree.HeadingPath) (Entry, bool) {
	n := s.trie.find(path)
	if n == nil || len(n.entries) == 0 {
		return Entry{}, false
	}
	return n.entries[0], true
}

// LookupAll returns every section at path in source order.
func (s *Snapshot) LookupAll(path doctree.HeadingPath) []Entry {
	n := s.trie.find(path)
	if n == nil {
		return nil
	}
	return n.entries
}

// Outline returns the tree of the document with the given ID or name.
func (s *Snapshot) Outline(id string) (*outline.Tree, bool) {
	if t, ok := s.byID[id]; ok {
		return t, true
	}
	for _, t := range s.Trees {
		if t.Document.Name == id {
			return t, true
		}
	}
	return nil, false
}

// Stats summarises a snapshot.
type Stats struct {
	Documents       int `json:"documents"`
	Sections        int `json:"sections"`
	Warnings        int `json:"warnings"`
	ContestedPaths  int `json:"contested_paths"`
	DuplicateGroups int `json:"duplicate_groups"`
}

func (s *Snapshot) Stats() Stats {
	return Stats{
		Documents:       len(s.Documents),
		Sections:        len(s.entries),
		Warnings:        len(s.Warnings),
		ContestedPaths:  len(s.Reconciled.Paths),
		DuplicateGroups: len(s.Reconciled.Duplicates()),
	}
}

// Holder owns the process-wide current snapshot. Readers never block.
type Holder struct {
	current atomic.Pointer[Snapshot]
}

// Init installs snap as the current snapshot.
func (h *Holder) Init(snap *Snapshot) {
	h.current.Store(snap)
}

// Clear drops the current snapshot.
func (h *Holder) Clear() {
	h.current.Store(nil)
}

// Current returns the installed snapshot or ErrNotLoaded.
func (h *Holder) Current() (*Snapshot, error) {
	if s := h.current.Load(); s != nil {
		return s, nil
	}
	return nil, ErrNotLoaded
}
