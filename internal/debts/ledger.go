// Package debts implements the lifecycle of person-to-person loan records.
//
// A debt is active until its remaining amount reaches zero, at which point
// it settles and becomes terminal. Amounts are exact minor units, so the
// zero comparison needs no epsilon.
package debts

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"bolsillo/internal/core"
)

// Op is the debt mutation kind.
type Op string

const (
	// Add grows the loan: the same person borrows or lends more under an
	// existing record.
	Add Op = "add"
	// Subtract records a partial or full payment.
	Subtract Op = "subtract"
)

// Modify applies a single add/subtract operation to a debt and returns the
// updated record. The input is not mutated.
//
// Failure modes, all checked before any state change: a settled debt
// rejects everything, a non-positive amount is rejected, and a subtract
// larger than the remaining balance is rejected rather than clamped.
func Modify(d core.Debt, amount core.Money, op Op, now time.Time) (core.Debt, error) {
	if d.Settled {
		return d, fmt.Errorf("%w: %s", core.ErrDebtSettled, d.PersonName)
	}
	if err := amount.Validate(); err != nil {
		return d, err
	}

	switch op {
	case Add:
		d.Original = d.Original.Add(amount)
		d.Remaining = d.Remaining.Add(amount)
	case Subtract:
		if amount.Cents > d.Remaining.Cents {
			return d, fmt.Errorf("%w: remaining %d, got %d",
				core.ErrDebtOverPayment, d.Remaining.Cents, amount.Cents)
		}
		d.Original = d.Original.Sub(amount)
		d.Remaining = d.Remaining.Sub(amount)
	default:
		return d, fmt.Errorf("%w: %q", core.ErrUnknownOperation, op)
	}

	if d.Remaining.IsZero() {
		d.Settled = true
		settledAt := now
		d.SettledAt = &settledAt
	}
	return d, nil
}

// Store is the persistence surface the service needs.
type Store interface {
	GetDebt(ctx context.Context, id string) (core.Debt, error)
	PutDebt(ctx context.Context, d core.Debt) error
}

// Service mutates persisted debts through the ledger rules.
type Service struct {
	store Store
	now   func() time.Time
}

func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// Modify loads the debt, applies the operation and persists the result.
func (s *Service) Modify(ctx context.Context, id string, amount core.Money, op Op) (core.Debt, error) {
	d, err := s.store.GetDebt(ctx, id)
	if err != nil {
		return core.Debt{}, fmt.Errorf("get debt %s: %w", id, err)
	}

	updated, err := Modify(d, amount, op, s.now())
	if err != nil {
		return core.Debt{}, err
	}

	if err := s.store.PutDebt(ctx, updated); err != nil {
		return core.Debt{}, fmt.Errorf("save debt %s: %w", id, err)
	}

	if updated.Settled && !d.Settled {
		slog.InfoContext(ctx, "Debt settled",
			"id", updated.ID,
			"person", updated.PersonName,
			"direction", updated.Direction)
	}
	return updated, nil
}
