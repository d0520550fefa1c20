package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dgallion1/notedex/internal/doctree"
	"github.com/dgallion1/notedex/internal/index"
	"github.com/dgallion1/notedex/internal/render"
)

// handleLookup resolves ?path=Chapter 1 > Hello World. With all=true every
// occurrence is returned instead of the first.
func (s *Server) handleLookup(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.snapshot(w)
	if !ok {
		return
	}
	raw := r.URL.Query().Get("path")
	path := doctree.ParseHeadingPath(raw)
	if len(path) == 0 {
		jsonError(w, "path query parameter is required", http.StatusBadRequest)
		return
	}
	all, _ := strconv.ParseBool(r.URL.Query().Get("all"))

	start := time.Now()
	var entries []index.Entry
	if all {
		entries = snap.LookupAll(path)
	} else if e, found := snap.Lookup(path); found {
		entries = []index.Entry{e}
	}
	s.observe("lookup", time.Since(start), len(entries) > 0)

	if len(entries) == 0 {
		jsonError(w, "section not found: "+path.String(), http.StatusNotFound)
		return
	}

	sections := make([]render.SectionView, 0, len(entries))
	for _, e := range entries {
		sections = append(sections, render.NewSectionView(e, snap.Reconciled))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"path":     path.String(),
		"sections": sections,
	})
}

// handleSearch ranks sections containing ?q=. Results are cached per index
// generation, so a reload never serves stale hits.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.snapshot(w)
	if !ok {
		return
	}
	term := strings.TrimSpace(r.URL.Query().Get("q"))
	if term == "" {
		jsonError(w, "q query parameter is required", http.StatusBadRequest)
		return
	}
	limit := s.cfg.SearchLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			jsonError(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = n
	}

	key := fmt.Sprintf("%s\x00%d\x00%s", snap.Generation, limit, strings.ToLower(term))
	if cached, found := s.cache.Get(key); found {
		searchCacheTotal.WithLabelValues("hit").Inc()
		writeJSON(w, http.StatusOK, cached)
		return
	}
	searchCacheTotal.WithLabelValues("miss").Inc()

	start := time.Now()
	hits, err := snap.Search(r.Context(), term).Collect(limit)
	if err != nil {
		s.log.Warn("search aborted", "query", term, "error", err)
		jsonError(w, "search aborted: "+err.Error(), http.StatusServiceUnavailable)
		return
	}
	s.observe("search", time.Since(start), len(hits) > 0)

	views := make([]render.HitView, 0, len(hits))
	for _, h := range hits {
		views = append(views, render.NewHitView(h))
	}
	resp := map[string]any{
		"query":      term,
		"generation": snap.Generation,
		"hits":       views,
	}
	s.cache.SetDefault(key, resp)
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) observe(op string, d time.Duration, found bool) {
	s.stats.Record(op, d, found)
	queryDuration.WithLabelValues(op).Observe(d.Seconds())
	if !found {
		queryNotFoundTotal.WithLabelValues(op).Inc()
	}
}
