package httpapi

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"bolsillo/internal/core"
)

func (s *Server) handleListRecurring(w http.ResponseWriter, r *http.Request) {
	all, err := s.store.ListRecurring(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	views := make([]recurringView, 0, len(all))
	for _, rp := range all {
		views = append(views, viewRecurring(rp))
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleGetRecurring(w http.ResponseWriter, r *http.Request) {
	rp, err := s.store.GetRecurring(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewRecurring(rp))
}

func recurringFromRequest(req recurringRequest, id string, createdAt time.Time) (core.RecurringPayment, error) {
	amount, err := req.money()
	if err != nil {
		return core.RecurringPayment{}, err
	}
	return core.RecurringPayment{
		ID:          id,
		Frequency:   core.Frequency(req.Frequency),
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		Kind:        core.TransactionKind(req.Kind),
		Amount:      amount,
		Category:    sanitizeInput(req.Category),
		Description: sanitizeInput(req.Description),
		AccountID:   req.AccountID,
		CreatedAt:   createdAt,
	}, nil
}

func (s *Server) handleCreateRecurring(w http.ResponseWriter, r *http.Request) {
	var req recurringRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Class: "validation"})
		return
	}

	id := req.ID
	if id == "" {
		id = uuid.NewString()
	}
	rp, err := recurringFromRequest(req, id, time.Now())
	if err != nil {
		writeError(w, err)
		return
	}
	if err := rp.Validate(); err != nil {
		writeError(w, err)
		return
	}
	if _, err := s.store.GetAccount(r.Context(), rp.AccountID); err != nil {
		writeError(w, err)
		return
	}
	if err := s.store.PutRecurring(r.Context(), rp); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, viewRecurring(rp))
}

func (s *Server) handleUpdateRecurring(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	existing, err := s.store.GetRecurring(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	var req recurringRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Class: "validation"})
		return
	}
	rp, err := recurringFromRequest(req, id, existing.CreatedAt)
	if err != nil {
		writeError(w, err)
		return
	}
	rp.LastRun = existing.LastRun
	if err := rp.Validate(); err != nil {
		writeError(w, err)
		return
	}
	if err := s.store.PutRecurring(r.Context(), rp); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewRecurring(rp))
}

func (s *Server) handleDeleteRecurring(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteRecurring(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleRunRecurring(w http.ResponseWriter, r *http.Request) {
	posted, err := s.recurring.RunOnce(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"posted": posted})
}
