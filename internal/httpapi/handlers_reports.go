package httpapi

import (
	"net/http"
	"time"

	"bolsillo/internal/amortize"
	"bolsillo/internal/balance"
)

func (s *Server) handleInterestPortfolio(w http.ResponseWriter, r *http.Request) {
	accounts, err := s.store.ListAccounts(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	txns, err := s.store.ListTransactions(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewPortfolio(amortize.SummarizePortfolio(accounts, txns, time.Now())))
}

func (s *Server) handleInterestCard(w http.ResponseWriter, r *http.Request) {
	acct, err := s.store.GetAccount(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	txns, err := s.store.ListAccountTransactions(r.Context(), acct.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	summary, ok := amortize.SummarizeCard(acct, txns, time.Now())
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error: "account is not a credit card",
			Class: "validation",
		})
		return
	}
	writeJSON(w, http.StatusOK, viewCardSummary(summary))
}

func (s *Server) handleMonthOverview(w http.ResponseWriter, r *http.Request) {
	txns, err := s.store.ListTransactions(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	year, month := parseYearMonth(r)
	writeJSON(w, http.StatusOK, viewOverview(balance.MonthOverview(txns, year, month)))
}

func (s *Server) handleNetWorth(w http.ResponseWriter, r *http.Request) {
	accounts, err := s.store.ListAccounts(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	txns, err := s.store.ListTransactions(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	total, err := balance.NetWorth(accounts, txns)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"net_worth_cents": total.Cents})
}
