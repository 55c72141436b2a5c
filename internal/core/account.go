package core

import (
	"strings"
	"time"
)

// AccountKind is the closed set of account types. The set is stable; an
// unknown kind reaching balance computation is a configuration error.
type AccountKind string

const (
	Savings AccountKind = "savings"
	Cash    AccountKind = "cash"
	Credit  AccountKind = "credit"
)

func (k AccountKind) IsValid() bool {
	switch k {
	case Savings, Cash, Credit:
		return true
	}
	return false
}

// Account is a named money container. Savings and cash accounts carry an
// initial balance; credit accounts carry a limit and statement parameters
// and their derived state is available credit, not a balance.
type Account struct {
	ID   string
	Name string
	Kind AccountKind

	// Savings/cash only. May be negative within configured bounds.
	InitialBalance Money

	// Credit only.
	CreditLimit        Money
	StatementCutoffDay int
	PaymentDueDay      int
	AnnualInterestRate float64 // percent; zero means not configured

	// Display ordering, not used by derivation.
	DisplayOrder int

	CreatedAt time.Time
}

func (a Account) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return ErrInvalidName
	}
	if !a.Kind.IsValid() {
		return ErrUnknownAccountKind
	}
	if a.Kind == Credit {
		if a.CreditLimit.Cents <= 0 {
			return ErrInvalidAmount
		}
		if a.StatementCutoffDay < 1 || a.StatementCutoffDay > 31 {
			return ErrInvalidDay
		}
		if a.PaymentDueDay < 1 || a.PaymentDueDay > 31 {
			return ErrInvalidDay
		}
	}
	return nil
}
