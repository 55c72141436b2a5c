package core

import (
	"strings"
	"time"
)

// DebtDirection says who owes whom.
type DebtDirection string

const (
	Lent     DebtDirection = "lent"
	Borrowed DebtDirection = "borrowed"
)

func (d DebtDirection) IsValid() bool {
	return d == Lent || d == Borrowed
}

// Debt is a person-to-person loan record, independent of accounts and
// transactions. It is created with Remaining equal to Original and mutated
// only through the debt ledger's add/subtract operation. Once settled it is
// terminal and rejects further mutation.
type Debt struct {
	ID         string
	PersonName string
	Direction  DebtDirection
	Original   Money
	Remaining  Money
	Settled    bool
	SettledAt  *time.Time
	CreatedAt  time.Time
}

func (d Debt) Validate() error {
	if strings.TrimSpace(d.PersonName) == "" {
		return ErrInvalidName
	}
	if !d.Direction.IsValid() {
		return ErrInvalidKind
	}
	if err := d.Original.Validate(); err != nil {
		return err
	}
	if d.Remaining.Cents < 0 || d.Remaining.Cents > d.Original.Cents {
		return ErrInvalidAmount
	}
	return nil
}

// NewDebt creates an active debt with the full amount outstanding.
func NewDebt(id, personName string, direction DebtDirection, amount Money, now time.Time) Debt {
	return Debt{
		ID:         id,
		PersonName: personName,
		Direction:  direction,
		Original:   amount,
		Remaining:  amount,
		CreatedAt:  now,
	}
}
