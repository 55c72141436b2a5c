package httpapi

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"bolsillo/internal/balance"
	"bolsillo/internal/core"
)

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := s.store.ListAccounts(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	views := make([]accountView, 0, len(accounts))
	for _, a := range accounts {
		views = append(views, viewAccount(a))
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	a, err := s.store.GetAccount(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewAccount(a))
}

func (s *Server) accountFromRequest(req accountRequest, id string, createdAt time.Time) core.Account {
	return core.Account{
		ID:                 id,
		Name:               sanitizeInput(req.Name),
		Kind:               core.AccountKind(req.Kind),
		InitialBalance:     core.NewMoney(req.InitialBalance),
		CreditLimit:        core.NewMoney(req.CreditLimit),
		StatementCutoffDay: req.StatementCutoffDay,
		PaymentDueDay:      req.PaymentDueDay,
		AnnualInterestRate: req.AnnualInterestRate,
		DisplayOrder:       req.DisplayOrder,
		CreatedAt:          createdAt,
	}
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var req accountRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Class: "validation"})
		return
	}

	id := req.ID
	if id == "" {
		id = uuid.NewString()
	}
	a := s.accountFromRequest(req, id, time.Now())
	if err := a.Validate(); err != nil {
		writeError(w, err)
		return
	}
	if err := s.store.PutAccount(r.Context(), a); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, viewAccount(a))
}

func (s *Server) handleUpdateAccount(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	existing, err := s.store.GetAccount(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	var req accountRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Class: "validation"})
		return
	}

	a := s.accountFromRequest(req, id, existing.CreatedAt)
	if err := a.Validate(); err != nil {
		writeError(w, err)
		return
	}
	if err := s.store.PutAccount(r.Context(), a); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewAccount(a))
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteAccount(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

type balanceView struct {
	AccountID  string `json:"account_id"`
	Kind       string `json:"kind"`
	Balance    int64  `json:"balance_cents"`
	UsedCredit *int64 `json:"used_credit_cents,omitempty"`
}

// handleAccountBalance recomputes the derived balance from the full
// transaction log on every call; nothing is cached.
func (s *Server) handleAccountBalance(w http.ResponseWriter, r *http.Request) {
	a, err := s.store.GetAccount(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	txns, err := s.store.ListAccountTransactions(r.Context(), a.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	strategy, err := balance.ForKind(a.Kind)
	if err != nil {
		writeError(w, err)
		return
	}

	view := balanceView{
		AccountID: a.ID,
		Kind:      string(a.Kind),
		Balance:   strategy.Balance(a, txns).Cents,
	}
	if a.Kind == core.Credit {
		used := balance.UsedCredit(a, txns).Cents
		view.UsedCredit = &used
	}
	writeJSON(w, http.StatusOK, view)
}
