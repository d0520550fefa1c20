package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/notedex/internal/render"
)

type documentSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Title       string `json:"title"`
	Sections    int    `json:"sections"`
	Warnings    int    `json:"warnings"`
	ContentHash string `json:"content_hash"`
}

// handleListDocuments lists the loaded documents in load order.
func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.snapshot(w)
	if !ok {
		return
	}

	docs := make([]documentSummary, 0, len(snap.Trees))
	for _, t := range snap.Trees {
		docs = append(docs, documentSummary{
			ID:          t.Document.ID(),
			Name:        t.Document.Name,
			Title:       t.Document.Title,
			Sections:    len(t.Document.Sections),
			Warnings:    len(t.Warnings),
			ContentHash: t.Document.ContentHash,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"generation": snap.Generation,
		"documents":  docs,
	})
}

// handleOutline returns one document's heading tree. docID may also be the
// document name.
func (s *Server) handleOutline(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.snapshot(w)
	if !ok {
		return
	}
	docID := chi.URLParam(r, "docID")
	tree, found := snap.Outline(docID)
	if !found {
		jsonError(w, "document not found: "+docID, http.StatusNotFound)
		return
	}
	warnings := make([]string, 0, len(tree.Warnings))
	for _, warn := range tree.Warnings {
		warnings = append(warnings, warn.Error())
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"outline":  render.NewOutlineView(tree),
		"warnings": warnings,
	})
}

func (s *Server) handleDuplicates(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.snapshot(w)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"threshold": snap.Reconciled.Threshold,
		"groups":    render.NewGroupViews(snap.Reconciled),
	})
}
