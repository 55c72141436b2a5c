package httpapi

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"bolsillo/internal/core"
	"bolsillo/internal/debts"
)

func (s *Server) handleListDebts(w http.ResponseWriter, r *http.Request) {
	all, err := s.store.ListDebts(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	views := make([]debtView, 0, len(all))
	for _, d := range all {
		views = append(views, viewDebt(d))
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleGetDebt(w http.ResponseWriter, r *http.Request) {
	d, err := s.store.GetDebt(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewDebt(d))
}

func (s *Server) handleCreateDebt(w http.ResponseWriter, r *http.Request) {
	var req debtRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Class: "validation"})
		return
	}
	amount, err := req.money()
	if err != nil {
		writeError(w, err)
		return
	}

	id := req.ID
	if id == "" {
		id = uuid.NewString()
	}
	d := core.Debt{
		ID:         id,
		PersonName: sanitizeInput(req.PersonName),
		Direction:  core.DebtDirection(req.Direction),
		Original:   amount,
		Remaining:  amount,
		CreatedAt:  time.Now(),
	}
	if err := d.Validate(); err != nil {
		writeError(w, err)
		return
	}
	if err := s.store.PutDebt(r.Context(), d); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, viewDebt(d))
}

func (s *Server) handleDeleteDebt(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteDebt(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleModifyDebt(w http.ResponseWriter, r *http.Request) {
	var req modifyDebtRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Class: "validation"})
		return
	}
	amount, err := req.money()
	if err != nil {
		writeError(w, err)
		return
	}

	d, err := s.debts.Modify(r.Context(), r.PathValue("id"), amount, debts.Op(req.Op))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewDebt(d))
}
