package http

import (
	"net/http"
	"strings"
	"time"

	"agency/internal/core"
)

type transactionRequest struct {
	Type           string `json:"type"`
	Category       string `json:"category"`
	Amount         string `json:"amount"`
	Description    string `json:"description"`
	OccurredAt     string `json:"occurred_at"` // optional YYYY-MM-DD
	CreatorID      *int64 `json:"creator_id"`
	WithCommission bool   `json:"with_commission"`
}

type transactionUpdateRequest struct {
	Category    string `json:"category"`
	Description string `json:"description"`
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	start := strings.TrimSpace(r.URL.Query().Get("start"))
	end := strings.TrimSpace(r.URL.Query().Get("end"))

	rows, err := s.txSvc.List(r.Context(), start, end)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toTransactionRowViews(rows))
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	t, err := s.txSvc.Get(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toTransactionView(t))
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeJSON(r, &req); err != nil {
		respondBadRequest(w, "invalid request body")
		return
	}

	amount, err := core.ParseAmount(req.Amount)
	if err != nil {
		respondError(w, r, err)
		return
	}

	var occurredAt time.Time
	if strings.TrimSpace(req.OccurredAt) != "" {
		occurredAt, err = core.ParseDate(req.OccurredAt)
		if err != nil {
			respondError(w, r, err)
			return
		}
	}

	t := core.Transaction{
		Type:        core.TransactionType(req.Type),
		Category:    req.Category,
		Amount:      amount,
		Description: req.Description,
		OccurredAt:  occurredAt,
		CreatorID:   req.CreatorID,
	}

	id, err := s.txSvc.Create(r.Context(), t, req.WithCommission)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, idResponse{ID: id})
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req transactionUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		respondBadRequest(w, "invalid request body")
		return
	}

	if err := s.txSvc.Update(r.Context(), id, req.Category, req.Description); err != nil {
		respondError(w, r, err)
		return
	}

	t, err := s.txSvc.Get(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toTransactionView(t))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.txSvc.Delete(r.Context(), id); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
