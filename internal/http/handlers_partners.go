package http

import (
	"net/http"

	"agency/internal/core"
)

type partnerRequest struct {
	Name  string `json:"name"`
	Notes string `json:"notes"`
}

func (s *Server) handleListPartners(w http.ResponseWriter, r *http.Request) {
	partners, err := s.repo.ListPartners(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toPartnerOverviewViews(partners))
}

func (s *Server) handleGetPartner(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	p, err := s.repo.GetPartner(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toPartnerView(p))
}

func (s *Server) handleCreatePartner(w http.ResponseWriter, r *http.Request) {
	var req partnerRequest
	if err := decodeJSON(r, &req); err != nil {
		respondBadRequest(w, "invalid request body")
		return
	}

	p := core.Partner{Name: req.Name, Notes: req.Notes}
	if err := p.Validate(); err != nil {
		respondError(w, r, err)
		return
	}

	id, err := s.repo.CreatePartner(r.Context(), p)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, idResponse{ID: id})
}

func (s *Server) handleUpdatePartner(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req partnerRequest
	if err := decodeJSON(r, &req); err != nil {
		respondBadRequest(w, "invalid request body")
		return
	}

	p := core.Partner{ID: id, Name: req.Name, Notes: req.Notes}
	if err := p.Validate(); err != nil {
		respondError(w, r, err)
		return
	}

	if err := s.repo.UpdatePartner(r.Context(), p); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toPartnerView(p))
}

func (s *Server) handleDeletePartner(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.repo.DeletePartner(r.Context(), id); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
