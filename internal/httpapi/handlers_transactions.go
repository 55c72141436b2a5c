package httpapi

import (
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"bolsillo/internal/balance"
	"bolsillo/internal/core"
	"bolsillo/internal/duplicate"
	"bolsillo/internal/ledger"
	"bolsillo/internal/notify"
	"bolsillo/internal/store"
)

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	var (
		txns []core.Transaction
		err  error
	)
	if accountID := r.URL.Query().Get("account_id"); accountID != "" {
		txns, err = s.store.ListAccountTransactions(r.Context(), accountID)
	} else {
		txns, err = s.store.ListTransactions(r.Context())
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewTransactions(txns))
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	t, err := s.store.GetTransaction(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewTransaction(t))
}

func transactionFromRequest(req transactionRequest, id string, createdAt time.Time) (core.Transaction, error) {
	amount, err := req.money()
	if err != nil {
		return core.Transaction{}, err
	}

	occurred := req.OccurredAt
	if occurred.IsZero() {
		occurred = createdAt
	}
	t := core.Transaction{
		ID:            id,
		Kind:          core.TransactionKind(req.Kind),
		Amount:        amount,
		Category:      sanitizeInput(req.Category),
		Description:   sanitizeInput(req.Description),
		OccurredAt:    occurred,
		Settled:       req.Settled,
		AccountID:     req.AccountID,
		DestinationID: req.DestinationID,
		CreatedAt:     createdAt,
	}
	if req.Installments != nil && req.Installments.Count > 0 {
		t.Installments = &core.InstallmentPlan{
			Count:          req.Installments.Count,
			TotalInterest:  core.NewMoney(req.Installments.TotalInterest),
			PerInstallment: core.NewMoney(req.Installments.PerInstallment),
		}
	}
	return t, nil
}

// validateAgainstBalance runs the account-kind strategy over the current
// transaction log. Unsettled movements don't touch deposit balances, but a
// credit purchase consumes capacity the moment it is recorded, so credit
// accounts are checked regardless of settlement. On updates, excludeID drops
// the prior version of the row from the history it is validated against.
func (s *Server) validateAgainstBalance(r *http.Request, t core.Transaction, excludeID string) error {
	var op balance.Operation
	switch t.Kind {
	case core.Expense:
		op = balance.OpExpense
	case core.Income:
		op = balance.OpIncome
	default:
		return nil
	}

	acct, err := s.store.GetAccount(r.Context(), t.AccountID)
	if err != nil {
		return err
	}
	if !t.Settled && acct.Kind != core.Credit {
		return nil
	}

	txns, err := s.store.ListAccountTransactions(r.Context(), t.AccountID)
	if err != nil {
		return err
	}
	if excludeID != "" {
		kept := txns[:0]
		for _, existing := range txns {
			if existing.ID != excludeID {
				kept = append(kept, existing)
			}
		}
		txns = kept
	}
	strategy, err := balance.ForKind(acct.Kind)
	if err != nil {
		return err
	}
	return strategy.Validate(acct, t.Amount, txns, op)
}

type createTransactionResponse struct {
	Transaction transactionView `json:"transaction"`
	Queued      bool            `json:"queued"`
	Duplicates  []matchView     `json:"duplicates,omitempty"`
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Class: "validation"})
		return
	}
	if core.TransactionKind(req.Kind) == core.Transfer {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error: "transfers must go through /api/transfers",
			Class: "validation",
		})
		return
	}

	id := req.ID
	if id == "" {
		id = uuid.NewString()
	}
	t, err := transactionFromRequest(req, id, time.Now())
	if err != nil {
		writeError(w, err)
		return
	}
	if err := t.Validate(); err != nil {
		writeError(w, err)
		return
	}
	if err := s.validateAgainstBalance(r, t, ""); err != nil {
		if core.IsValidation(err) && s.sink != nil {
			s.sink.Notify(r.Context(), notify.KindValidation, err.Error())
		}
		writeError(w, err)
		return
	}

	// Advisory only: suspected duplicates never block the write.
	matches := s.detectDuplicates(r, t)

	queued, err := s.gateway.Put(r.Context(), t.ID, store.OpCreate, store.CollectionTransactions, t)
	if err != nil {
		writeError(w, err)
		return
	}

	status := http.StatusCreated
	if queued {
		status = http.StatusAccepted
	}
	writeJSON(w, status, createTransactionResponse{
		Transaction: viewTransaction(t),
		Queued:      queued,
		Duplicates:  matches,
	})
}

func (s *Server) detectDuplicates(r *http.Request, t core.Transaction) []matchView {
	history, err := s.store.ListAccountTransactions(r.Context(), t.AccountID)
	if err != nil {
		// History being unavailable only costs the advisory.
		return nil
	}

	matches := duplicate.Detect(duplicate.Candidate{
		Kind:        t.Kind,
		Amount:      t.Amount.Decimal().StringFixed(2),
		Category:    t.Category,
		Description: t.Description,
		OccurredAt:  t.OccurredAt,
	}, history)
	if len(matches) > 0 && s.sink != nil {
		s.sink.Notify(r.Context(), notify.KindDuplicate,
			fmt.Sprintf("%d possible duplicate(s) of %q", len(matches), t.Description))
	}
	return viewMatches(matches)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	existing, err := s.store.GetTransaction(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	var req transactionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Class: "validation"})
		return
	}

	t, err := transactionFromRequest(req, id, existing.CreatedAt)
	if err != nil {
		writeError(w, err)
		return
	}
	t.CreditPayment = existing.CreditPayment
	t.RecurringID = existing.RecurringID
	if err := t.Validate(); err != nil {
		writeError(w, err)
		return
	}
	if err := s.validateAgainstBalance(r, t, t.ID); err != nil {
		if core.IsValidation(err) && s.sink != nil {
			s.sink.Notify(r.Context(), notify.KindValidation, err.Error())
		}
		writeError(w, err)
		return
	}

	queued, err := s.gateway.Put(r.Context(), t.ID, store.OpUpdate, store.CollectionTransactions, t)
	if err != nil {
		writeError(w, err)
		return
	}
	status := http.StatusOK
	if queued {
		status = http.StatusAccepted
	}
	writeJSON(w, status, createTransactionResponse{Transaction: viewTransaction(t), Queued: queued})
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	existing, err := s.store.GetTransaction(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	queued, err := s.gateway.Delete(r.Context(), id, store.CollectionTransactions, existing)
	if err != nil {
		writeError(w, err)
		return
	}
	if queued {
		writeJSON(w, http.StatusAccepted, map[string]bool{"queued": true})
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleTransfer(w http.ResponseWriter, r *http.Request) {
	var req transferRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Class: "validation"})
		return
	}
	amount, err := req.money()
	if err != nil {
		writeError(w, err)
		return
	}

	// Balance sufficiency is checked before the coordinator runs; the
	// coordinator itself only guards referential integrity and atomicity.
	if err := s.validateTransferFunds(r, req.SourceID, amount); err != nil {
		if core.IsValidation(err) && s.sink != nil {
			s.sink.Notify(r.Context(), notify.KindValidation, err.Error())
		}
		writeError(w, err)
		return
	}

	t, err := s.coordinator.ExecuteTransfer(r.Context(), ledger.TransferRequest{
		SourceID:      req.SourceID,
		DestinationID: req.DestinationID,
		Amount:        amount,
		Description:   sanitizeInput(req.Description),
		OccurredAt:    req.OccurredAt,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, viewTransaction(t))
}

func (s *Server) validateTransferFunds(r *http.Request, sourceID string, amount core.Money) error {
	acct, err := s.store.GetAccount(r.Context(), sourceID)
	if err != nil {
		return err
	}
	txns, err := s.store.ListAccountTransactions(r.Context(), sourceID)
	if err != nil {
		return err
	}
	strategy, err := balance.ForKind(acct.Kind)
	if err != nil {
		return err
	}
	return strategy.Validate(acct, amount, txns, balance.OpTransferOut)
}

type creditPaymentResponse struct {
	CreditLeg transactionView `json:"credit_leg"`
	SourceLeg transactionView `json:"source_leg"`
}

func (s *Server) handleCreditPayment(w http.ResponseWriter, r *http.Request) {
	var req creditPaymentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Class: "validation"})
		return
	}
	amount, err := req.money()
	if err != nil {
		writeError(w, err)
		return
	}

	// The payment must not exceed used credit, and the funding account
	// must cover it.
	if err := s.validateCreditPayment(r, req, amount); err != nil {
		if core.IsValidation(err) && s.sink != nil {
			s.sink.Notify(r.Context(), notify.KindValidation, err.Error())
		}
		writeError(w, err)
		return
	}

	payment, err := s.coordinator.ExecuteCreditPayment(r.Context(), ledger.CreditPaymentRequest{
		CreditAccountID: req.CreditAccountID,
		SourceAccountID: req.SourceAccountID,
		Amount:          amount,
		Description:     sanitizeInput(req.Description),
		OccurredAt:      req.OccurredAt,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, creditPaymentResponse{
		CreditLeg: viewTransaction(payment.CreditLeg),
		SourceLeg: viewTransaction(payment.SourceLeg),
	})
}

func (s *Server) validateCreditPayment(r *http.Request, req creditPaymentRequest, amount core.Money) error {
	credit, err := s.store.GetAccount(r.Context(), req.CreditAccountID)
	if err != nil {
		return err
	}
	creditTxns, err := s.store.ListAccountTransactions(r.Context(), credit.ID)
	if err != nil {
		return err
	}
	creditStrategy, err := balance.ForKind(credit.Kind)
	if err != nil {
		return err
	}
	if err := creditStrategy.Validate(credit, amount, creditTxns, balance.OpIncome); err != nil {
		return err
	}

	source, err := s.store.GetAccount(r.Context(), req.SourceAccountID)
	if err != nil {
		return err
	}
	sourceTxns, err := s.store.ListAccountTransactions(r.Context(), source.ID)
	if err != nil {
		return err
	}
	sourceStrategy, err := balance.ForKind(source.Kind)
	if err != nil {
		return err
	}
	return sourceStrategy.Validate(source, amount, sourceTxns, balance.OpExpense)
}
