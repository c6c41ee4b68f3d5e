package http

import (
	"net/http"

	"agency/internal/core"
)

type categoryRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.repo.ListCategories(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	out := make([]categoryView, 0, len(categories))
	for _, c := range categories {
		out = append(out, categoryView{ID: c.ID, Name: c.Name})
	}
	respondJSON(w, http.StatusOK, out)
}

// handleCreateCategory is idempotent: posting an existing name succeeds
// without creating a duplicate.
func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeJSON(r, &req); err != nil {
		respondBadRequest(w, "invalid request body")
		return
	}

	c := core.Category{Name: req.Name}
	if err := c.Validate(); err != nil {
		respondError(w, r, err)
		return
	}

	if err := s.repo.CreateCategory(r.Context(), req.Name); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
