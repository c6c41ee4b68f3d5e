package http

import (
	"net/http"

	"agency/internal/core"
)

type employeeRequest struct {
	Name          string `json:"name"`
	Role          string `json:"role"`
	Salary        string `json:"salary"`
	Sales         string `json:"sales"`
	CommissionPct string `json:"commission_pct"`
	Notes         string `json:"notes"`
	PartnerID     *int64 `json:"partner_id"`
}

func (req employeeRequest) toEmployee(id int64) (core.Employee, error) {
	salary, err := core.ParseAmount(req.Salary)
	if err != nil {
		return core.Employee{}, err
	}
	sales, err := core.ParseAmount(req.Sales)
	if err != nil {
		return core.Employee{}, err
	}
	pct, err := core.ParsePercentage(req.CommissionPct)
	if err != nil {
		return core.Employee{}, err
	}

	e := core.Employee{
		ID:            id,
		Name:          req.Name,
		Role:          req.Role,
		Salary:        salary,
		Sales:         sales,
		CommissionPct: pct,
		Notes:         req.Notes,
		PartnerID:     req.PartnerID,
	}
	return e, e.Validate()
}

func (s *Server) handleListEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := s.repo.ListEmployees(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toEmployeeOverviewViews(employees))
}

func (s *Server) handleGetEmployee(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	e, err := s.repo.GetEmployee(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toEmployeeView(e))
}

func (s *Server) handleCreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req employeeRequest
	if err := decodeJSON(r, &req); err != nil {
		respondBadRequest(w, "invalid request body")
		return
	}

	e, err := req.toEmployee(0)
	if err != nil {
		respondError(w, r, err)
		return
	}

	id, err := s.repo.CreateEmployee(r.Context(), e)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, idResponse{ID: id})
}

func (s *Server) handleUpdateEmployee(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req employeeRequest
	if err := decodeJSON(r, &req); err != nil {
		respondBadRequest(w, "invalid request body")
		return
	}

	e, err := req.toEmployee(id)
	if err != nil {
		respondError(w, r, err)
		return
	}

	if err := s.repo.UpdateEmployee(r.Context(), e); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toEmployeeView(e))
}

func (s *Server) handleDeleteEmployee(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.repo.DeleteEmployee(r.Context(), id); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
