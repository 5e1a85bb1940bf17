package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/dgallion1/stmtclass/internal/config"
	"github.com/dgallion1/stmtclass/internal/model"
	"github.com/dgallion1/stmtclass/internal/parser"
	"github.com/dgallion1/stmtclass/internal/pipeline"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server is the HTTP API server for stmtclass.
type Server struct {
	router   chi.Router
	pipeline *pipeline.Pipeline
	bundle   *model.Bundle
	log      *slog.Logger
	cfg      config.Config

	// One document is classified at a time.
	slot chan struct{}
}

// NewServer creates and configures the HTTP server.
func NewServer(p *pipeline.Pipeline, bundle *model.Bundle, log *slog.Logger, cfg config.Config) *Server {
	if log == nil {
		log = slog.Default()
	}
	s := &Server{
		pipeline: p,
		bundle:   bundle,
		log:      log,
		cfg:      cfg,
		slot:     make(chan struct{}, 1),
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

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.APIKey, s.log))

		r.Post("/api/classify", s.handleClassify)
		r.Get("/api/taxonomy", s.handleTaxonomy)
		r.Get("/api/stats/models", s.handleModelStats)
	})

	s.router = r
}

func (s *Server) parserOptions() parser.Options {
	return parser.Options{FallbackPdftotext: s.cfg.PDFFallbackPdftotext, Log: s.log}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}
