package http

import (
	"net/http"

	"agency/internal/core"
)

type creatorRequest struct {
	Name          string `json:"name"`
	FixedSalary   string `json:"fixed_salary"`
	CommissionPct string `json:"commission_pct"`
	Notes         string `json:"notes"`
	Investment    string `json:"investment"`
	PartnerID     *int64 `json:"partner_id"`
}

func (req creatorRequest) toCreator(id int64) (core.Creator, error) {
	salary, err := core.ParseAmount(req.FixedSalary)
	if err != nil {
		return core.Creator{}, err
	}
	pct, err := core.ParsePercentage(req.CommissionPct)
	if err != nil {
		return core.Creator{}, err
	}
	investment, err := core.ParseAmount(req.Investment)
	if err != nil {
		return core.Creator{}, err
	}

	c := core.Creator{
		ID:            id,
		Name:          req.Name,
		FixedSalary:   salary,
		CommissionPct: pct,
		Notes:         req.Notes,
		Investment:    investment,
		PartnerID:     req.PartnerID,
	}
	return c, c.Validate()
}

func (s *Server) handleListCreators(w http.ResponseWriter, r *http.Request) {
	creators, err := s.repo.ListCreators(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toCreatorOverviewViews(creators))
}

func (s *Server) handleGetCreator(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	c, err := s.repo.GetCreator(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toCreatorView(c))
}

func (s *Server) handleCreateCreator(w http.ResponseWriter, r *http.Request) {
	var req creatorRequest
	if err := decodeJSON(r, &req); err != nil {
		respondBadRequest(w, "invalid request body")
		return
	}

	c, err := req.toCreator(0)
	if err != nil {
		respondError(w, r, err)
		return
	}

	id, err := s.repo.CreateCreator(r.Context(), c)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, idResponse{ID: id})
}

func (s *Server) handleUpdateCreator(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req creatorRequest
	if err := decodeJSON(r, &req); err != nil {
		respondBadRequest(w, "invalid request body")
		return
	}

	c, err := req.toCreator(id)
	if err != nil {
		respondError(w, r, err)
		return
	}

	if err := s.repo.UpdateCreator(r.Context(), c); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toCreatorView(c))
}

func (s *Server) handleDeleteCreator(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.repo.DeleteCreator(r.Context(), id); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
