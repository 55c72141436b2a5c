// Package ledger coordinates multi-account mutations. A transfer or a
// credit-card payment touches two accounts; both halves commit together or
// not at all. Balance sufficiency is the caller's job (see internal/balance);
// the coordinator enforces referential and atomicity invariants only.
package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"bolsillo/internal/core"
	"bolsillo/internal/store"
)

type Coordinator struct {
	atomic store.Atomic
	now    func() time.Time
	newID  func() string
}

func NewCoordinator(atomic store.Atomic) *Coordinator {
	return &Coordinator{
		atomic: atomic,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// TransferRequest describes a movement of funds between two accounts.
type TransferRequest struct {
	SourceID      string
	DestinationID string
	Amount        core.Money
	Description   string
	OccurredAt    time.Time
}

// ExecuteTransfer commits a single transfer transaction referencing both
// accounts. Source and destination existence is read-verified inside the
// same atomic unit the write commits in, so a concurrent account deletion
// cannot leave a dangling transfer. A same-account transfer is rejected
// before any storage call.
func (c *Coordinator) ExecuteTransfer(ctx context.Context, req TransferRequest) (core.Transaction, error) {
	if req.SourceID == req.DestinationID {
		return core.Transaction{}, core.ErrTransferSameAccount
	}

	occurred := req.OccurredAt
	if occurred.IsZero() {
		occurred = c.now()
	}
	t := core.Transaction{
		ID:            c.newID(),
		Kind:          core.Transfer,
		Amount:        req.Amount,
		Description:   req.Description,
		OccurredAt:    occurred,
		Settled:       true,
		AccountID:     req.SourceID,
		DestinationID: req.DestinationID,
		CreatedAt:     c.now(),
	}
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}

	err := c.atomic.RunAtomic(ctx, func(tx store.Tx) error {
		if _, err := tx.GetAccount(ctx, req.SourceID); err != nil {
			return fmt.Errorf("transfer source: %w", err)
		}
		if _, err := tx.GetAccount(ctx, req.DestinationID); err != nil {
			return fmt.Errorf("transfer destination: %w", err)
		}
		return tx.PutTransaction(ctx, t)
	})
	if err != nil {
		return core.Transaction{}, err
	}
	return t, nil
}

// CreditPaymentRequest describes paying down a credit card from another
// account.
type CreditPaymentRequest struct {
	CreditAccountID string
	SourceAccountID string
	Amount          core.Money
	Description     string
	OccurredAt      time.Time
}

// CreditPayment is the pair of transactions a committed payment produces:
// an income leg at the credit account reducing used credit, and an expense
// leg at the funding account.
type CreditPayment struct {
	CreditLeg core.Transaction
	SourceLeg core.Transaction
}

// ExecuteCreditPayment commits both legs of a credit-card payment in one
// atomic unit. Either both transactions land or neither does.
func (c *Coordinator) ExecuteCreditPayment(ctx context.Context, req CreditPaymentRequest) (CreditPayment, error) {
	if req.CreditAccountID == req.SourceAccountID {
		return CreditPayment{}, core.ErrTransferSameAccount
	}

	occurred := req.OccurredAt
	if occurred.IsZero() {
		occurred = c.now()
	}
	created := c.now()
	payment := CreditPayment{
		CreditLeg: core.Transaction{
			ID:            c.newID(),
			Kind:          core.Income,
			Amount:        req.Amount,
			Description:   req.Description,
			OccurredAt:    occurred,
			Settled:       true,
			AccountID:     req.CreditAccountID,
			CreditPayment: true,
			CreatedAt:     created,
		},
		SourceLeg: core.Transaction{
			ID:            c.newID(),
			Kind:          core.Expense,
			Amount:        req.Amount,
			Description:   req.Description,
			OccurredAt:    occurred,
			Settled:       true,
			AccountID:     req.SourceAccountID,
			CreditPayment: true,
			CreatedAt:     created,
		},
	}
	if err := payment.CreditLeg.Validate(); err != nil {
		return CreditPayment{}, err
	}
	if err := payment.SourceLeg.Validate(); err != nil {
		return CreditPayment{}, err
	}

	err := c.atomic.RunAtomic(ctx, func(tx store.Tx) error {
		if _, err := tx.GetAccount(ctx, req.CreditAccountID); err != nil {
			return fmt.Errorf("credit account: %w", err)
		}
		if _, err := tx.GetAccount(ctx, req.SourceAccountID); err != nil {
			return fmt.Errorf("payment source: %w", err)
		}
		if err := tx.PutTransaction(ctx, payment.CreditLeg); err != nil {
			return err
		}
		return tx.PutTransaction(ctx, payment.SourceLeg)
	})
	if err != nil {
		return CreditPayment{}, err
	}
	return payment, nil
}
