package api

import (
	"net/http"
)

func (s *Server) handleModelStats(w http.ResponseWriter, r *http.Request) {
	if s.bundle == nil {
		jsonError(w, "model stats unavailable", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, s.bundle.Stats())
}

type categoryView struct {
	Name    string   `json:"name"`
	Phrases []string `json:"phrases"`
}

func (s *Server) handleTaxonomy(w http.ResponseWriter, r *http.Request) {
	if s.bundle == nil || s.bundle.Taxonomy == nil {
		jsonError(w, "taxonomy unavailable", http.StatusServiceUnavailable)
		return
	}
	tax := s.bundle.Taxonomy
	cats := make([]categoryView, len(tax.Categories))
	for i, c := range tax.Categories {
		cats[i] = categoryView{Name: c.Name, Phrases: c.Phrases}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"threshold":            tax.Threshold,
		"categories":           cats,
		"consolidation_labels": tax.ConsolidationLabels(),
	})
}
