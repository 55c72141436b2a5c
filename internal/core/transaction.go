package core

import (
	"strings"
	"time"
)

// TransactionKind is the closed set of transaction types.
type TransactionKind string

const (
	Income   TransactionKind = "income"
	Expense  TransactionKind = "expense"
	Transfer TransactionKind = "transfer"
)

func (k TransactionKind) IsValid() bool {
	switch k {
	case Income, Expense, Transfer:
		return true
	}
	return false
}

// InstallmentPlan splits a credit purchase into equal future charges,
// optionally carrying total interest amortized across them.
type InstallmentPlan struct {
	Count          int
	TotalInterest  Money
	PerInstallment Money
}

// Transaction is an immutable financial event once committed. Updates and
// deletes are mutations in their own right, never edits of derived state.
type Transaction struct {
	ID          string
	Kind        TransactionKind
	Amount      Money
	Category    string
	Description string
	OccurredAt  time.Time
	Settled     bool

	// AccountID is the source account. DestinationID is set iff Kind is
	// Transfer and must differ from AccountID.
	AccountID     string
	DestinationID string

	// CreditPayment marks the income leg of a credit-card payment, which
	// is exempt from the category requirement like transfers are.
	CreditPayment bool

	Installments *InstallmentPlan
	RecurringID  string

	CreatedAt time.Time
}

func (t Transaction) Validate() error {
	if !t.Kind.IsValid() {
		return ErrInvalidKind
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if t.AccountID == "" {
		return ErrMissingAccount
	}
	if t.OccurredAt.IsZero() {
		return ErrInvalidDate
	}
	switch t.Kind {
	case Transfer:
		if t.DestinationID == "" {
			return ErrMissingAccount
		}
		if t.DestinationID == t.AccountID {
			return ErrTransferSameAccount
		}
	default:
		if t.DestinationID != "" {
			return ErrInvalidKind
		}
		if strings.TrimSpace(t.Category) == "" && !t.CreditPayment {
			return ErrMissingCategory
		}
	}
	return nil
}

// References reports whether the transaction touches the given account,
// either as source or as transfer destination.
func (t Transaction) References(accountID string) bool {
	return t.AccountID == accountID || (t.Kind == Transfer && t.DestinationID == accountID)
}

// HasInterestPlan reports whether the transaction carries an installment
// plan with amortizable interest.
func (t Transaction) HasInterestPlan() bool {
	return t.Installments != nil && t.Installments.Count > 0 && t.Installments.TotalInterest.Cents > 0
}
