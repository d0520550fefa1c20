package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/singleflight"

	"github.com/dgallion1/notedex/internal/config"
	"github.com/dgallion1/notedex/internal/index"
	"github.com/dgallion1/notedex/internal/pipeline"
	"github.com/dgallion1/notedex/internal/stats"
)

// ErrNoLoader is returned by Reload when the server was built without one.
var ErrNoLoader = errors.New("reload not configured")

// Loader rebuilds the index from its sources.
type Loader func(ctx context.Context) (*index.Snapshot, *pipeline.Report, error)

// Server is the HTTP API server for notedex.
type Server struct {
	router  chi.Router
	holder  *index.Holder
	loader  Loader
	cache   *cache.Cache
	reloads singleflight.Group
	stats   *stats.Queries
	log     *slog.Logger
	cfg     config.Config
}

// NewServer creates and configures the HTTP server. loader may be nil, in
// which case POST /api/reload answers 503.
func NewServer(holder *index.Holder, loader Loader, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		holder: holder,
		loader: loader,
		cache:  cache.New(cfg.SearchCacheTTL, 2*cfg.SearchCacheTTL),
		stats:  stats.NewQueries(time.Hour),
		log:    log,
		cfg:    cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		if s.cfg.APIKey != "" {
			r.Use(AuthMiddleware(s.cfg.APIKey, s.log))
		}

		r.Get("/api/documents", s.handleListDocuments)
		r.Get("/api/documents/{docID}/outline", s.handleOutline)
		r.Get("/api/lookup", s.handleLookup)
		r.Get("/api/search", s.handleSearch)
		r.Get("/api/duplicates", s.handleDuplicates)

		r.Post("/api/reload", s.handleReload)
		r.Delete("/api/index", s.handleClear)

		r.Get("/api/stats", s.handleIndexStats)
		r.Get("/api/stats/queries", s.handleQueryStats)
	})

	s.router = r
}

// Reload runs the loader and publishes its snapshot. Concurrent calls share
// one run.
func (s *Server) Reload(ctx context.Context) (*pipeline.Report, error) {
	if s.loader == nil {
		return nil, ErrNoLoader
	}
	v, err, shared := s.reloads.Do("reload", func() (any, error) {
		snap, report, err := s.loader(ctx)
		if err != nil {
			return nil, err
		}
		s.holder.Init(snap)
		s.cache.Flush()
		s.log.Info("index reloaded",
			"generation", snap.Generation,
			"documents", len(snap.Documents),
			"warnings", len(snap.Warnings),
		)
		return report, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		s.log.Debug("reload coalesced")
	}
	return v.(*pipeline.Report), nil
}

// snapshot writes 503 and returns false when nothing is loaded.
func (s *Server) snapshot(w http.ResponseWriter) (*index.Snapshot, bool) {
	snap, err := s.holder.Current()
	if err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return nil, false
	}
	return snap, true
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	if _, err := s.holder.Current(); err != nil {
		status = "empty"
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": status})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
