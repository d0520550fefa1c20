package api

import (
	"errors"
	"net/http"
)

// handleReload re-reads the configured sources. Malformed documents do not
// fail the request; they are listed in the report.
func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	report, err := s.Reload(r.Context())
	if errors.Is(err, ErrNoLoader) {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	if err != nil {
		s.log.Error("reload failed", "error", err)
		jsonError(w, "reload failed: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// handleClear drops the in-memory index. Queries answer 503 until the next
// reload.
func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	s.holder.Clear()
	s.cache.Flush()
	s.log.Info("index cleared")
	w.WriteHeader(http.StatusNoContent)
}
