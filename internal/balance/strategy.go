// Package balance derives per-account financial state from the transaction
// log. Balances are never stored: every read recomputes from the latest
// observed transaction set, so derived state self-heals once all writes land.
//
// Each account kind has its own strategy encapsulating how its balance (or
// available credit) is computed and which mutations it accepts.
package balance

import (
	"fmt"

	"bolsillo/internal/core"
)

// Operation is the mutation being validated against an account.
type Operation string

const (
	OpExpense     Operation = "expense"
	OpIncome      Operation = "income"
	OpTransferOut Operation = "transfer_out"
)

// Strategy computes derived state for one account kind.
type Strategy interface {
	// Balance returns the account's derived balance. For credit accounts
	// this is available credit, not cash.
	Balance(acct core.Account, txns []core.Transaction) core.Money

	// Validate checks whether a mutation of the given amount is allowed
	// against the current derived state. Violations are reported with a
	// typed error, never silently clamped.
	Validate(acct core.Account, amount core.Money, txns []core.Transaction, op Operation) error

	// IncludeInNetWorth reports whether the account's balance counts
	// toward the net-worth aggregate.
	IncludeInNetWorth() bool
}

// strategies is the complete registry. The kind set is closed and stable,
// so the table is constant: no runtime registration.
var strategies = map[core.AccountKind]Strategy{
	core.Savings: depositStrategy{},
	core.Cash:    depositStrategy{},
	core.Credit:  creditStrategy{},
}

// ForKind selects the strategy for an account kind. An unknown kind is a
// configuration error, not user input.
func ForKind(kind core.AccountKind) (Strategy, error) {
	s, ok := strategies[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", core.ErrUnknownAccountKind, kind)
	}
	return s, nil
}

// depositStrategy covers savings and cash accounts. Cash is behaviorally
// identical to savings today; both map to this strategy until they diverge.
type depositStrategy struct{}

func (depositStrategy) Balance(acct core.Account, txns []core.Transaction) core.Money {
	balance := acct.InitialBalance
	for _, t := range txns {
		if !t.Settled || !t.References(acct.ID) {
			continue
		}
		switch t.Kind {
		case core.Income:
			if t.AccountID == acct.ID {
				balance = balance.Add(t.Amount)
			}
		case core.Expense:
			if t.AccountID == acct.ID {
				balance = balance.Sub(t.Amount)
			}
		case core.Transfer:
			if t.AccountID == acct.ID {
				balance = balance.Sub(t.Amount)
			}
			if t.DestinationID == acct.ID {
				balance = balance.Add(t.Amount)
			}
		}
	}
	return balance
}

func (s depositStrategy) Validate(acct core.Account, amount core.Money, txns []core.Transaction, op Operation) error {
	if err := amount.Validate(); err != nil {
		return err
	}
	switch op {
	case OpIncome:
		return nil
	case OpExpense, OpTransferOut:
		if amount.Cents > s.Balance(acct, txns).Cents {
			return fmt.Errorf("%w: account %q", core.ErrInsufficientBalance, acct.Name)
		}
		return nil
	default:
		return fmt.Errorf("%w: %q", core.ErrUnknownOperation, op)
	}
}

func (depositStrategy) IncludeInNetWorth() bool { return true }

// creditStrategy covers credit-card accounts. Derived state is available
// credit. Unsettled expenses count: a credit purchase consumes capacity
// immediately regardless of statement settlement.
type creditStrategy struct{}

// UsedCredit is the portion of the limit consumed by expenses net of
// payments and incoming transfers, floored at zero.
func (creditStrategy) UsedCredit(acct core.Account, txns []core.Transaction) core.Money {
	var used int64
	for _, t := range txns {
		switch t.Kind {
		case core.Expense:
			if t.AccountID == acct.ID {
				used += t.Amount.Cents
			}
		case core.Income:
			if t.AccountID == acct.ID {
				used -= t.Amount.Cents
			}
		case core.Transfer:
			if t.DestinationID == acct.ID {
				used -= t.Amount.Cents
			}
		}
	}
	if used < 0 {
		used = 0
	}
	return core.NewMoney(used)
}

func (s creditStrategy) Balance(acct core.Account, txns []core.Transaction) core.Money {
	available := acct.CreditLimit.Cents - s.UsedCredit(acct, txns).Cents
	if available < 0 {
		available = 0
	}
	return core.NewMoney(available)
}

func (s creditStrategy) Validate(acct core.Account, amount core.Money, txns []core.Transaction, op Operation) error {
	if err := amount.Validate(); err != nil {
		return err
	}
	switch op {
	case OpExpense:
		if amount.Cents > s.Balance(acct, txns).Cents {
			return fmt.Errorf("%w: card %q", core.ErrInsufficientCredit, acct.Name)
		}
		return nil
	case OpIncome:
		used := s.UsedCredit(acct, txns)
		if used.IsZero() {
			return fmt.Errorf("%w: card %q", core.ErrNoCreditUsed, acct.Name)
		}
		if amount.Cents > used.Cents {
			return fmt.Errorf("%w: card %q", core.ErrCreditOverPayment, acct.Name)
		}
		return nil
	case OpTransferOut:
		return fmt.Errorf("%w: card %q", core.ErrCreditTransfer, acct.Name)
	default:
		return fmt.Errorf("%w: %q", core.ErrUnknownOperation, op)
	}
}

func (creditStrategy) IncludeInNetWorth() bool { return false }

// UsedCredit returns the consumed portion of a credit account's limit.
// Non-credit accounts have no used credit.
func UsedCredit(acct core.Account, txns []core.Transaction) core.Money {
	if acct.Kind != core.Credit {
		return core.Money{}
	}
	return creditStrategy{}.UsedCredit(acct, txns)
}
