// Package http exposes the compiled graph over a read-only snapshot and
// query API, for tooling (editors, search indexers) that wants the
// current graph state without embedding the compiler.
package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"beliefgraph/domain/core/valueobjects"
	"beliefgraph/store"
)

// Server serves the graph store's read-only views.
type Server struct {
	st         *store.Store
	log        *zap.Logger
	enableCORS bool
}

// New constructs a Server over st.
func New(st *store.Store, log *zap.Logger, enableCORS bool) *Server {
	return &Server{st: st, log: log, enableCORS: enableCORS}
}

// Handler builds the chi router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)

	if s.enableCORS {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			MaxAge:         300,
		}))
	}

	r.Get("/health", s.health)
	r.Get("/snapshot", s.snapshot)
	r.Get("/nodes/{bid}", s.node)
	r.Get("/nodes/{bid}/context", s.context)

	return r
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) snapshot(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.st.Snapshot())
}

func (s *Server) node(w http.ResponseWriter, r *http.Request) {
	bid, err := valueobjects.ParseBid(chi.URLParam(r, "bid"))
	if err != nil {
		http.Error(w, "invalid bid", http.StatusBadRequest)
		return
	}
	n, ok := s.st.Node(bid)
	if !ok {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	s.writeJSON(w, http.StatusOK, n)
}

func (s *Server) context(w http.ResponseWriter, r *http.Request) {
	bid, err := valueobjects.ParseBid(chi.URLParam(r, "bid"))
	if err != nil {
		http.Error(w, "invalid bid", http.StatusBadRequest)
		return
	}
	s.writeJSON(w, http.StatusOK, s.st.Context(bid))
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil && s.log != nil {
		s.log.Error("failed to write response", zap.Error(err))
	}
}
