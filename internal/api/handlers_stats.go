package api

import (
	"net/http"
)

func (s *Server) handleIndexStats(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.snapshot(w)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"generation": snap.Generation,
		"loaded_at":  snap.LoadedAt,
		"stats":      snap.Stats(),
	})
}

func (s *Server) handleQueryStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"queries": s.stats.Snapshot(),
	})
}
