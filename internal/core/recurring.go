package core

import (
	"strings"
	"time"
)

// Frequency of a recurring payment.
type Frequency string

const (
	Daily   Frequency = "daily"
	Weekly  Frequency = "weekly"
	Monthly Frequency = "monthly"
	Yearly  Frequency = "yearly"
)

func (f Frequency) IsValid() bool {
	switch f {
	case Daily, Weekly, Monthly, Yearly:
		return true
	}
	return false
}

// RecurringPayment is a template that materializes transactions on a
// schedule. Generated transactions link back through RecurringID.
type RecurringPayment struct {
	ID          string
	Frequency   Frequency
	StartDate   time.Time
	EndDate     time.Time // zero means open-ended
	Kind        TransactionKind
	Amount      Money
	Category    string
	Description string
	AccountID   string
	LastRun     time.Time
	CreatedAt   time.Time
}

func (r RecurringPayment) Validate() error {
	if !r.Frequency.IsValid() {
		return ErrInvalidKind
	}
	if r.Kind != Income && r.Kind != Expense {
		return ErrInvalidKind
	}
	if r.StartDate.IsZero() {
		return ErrInvalidDate
	}
	if !r.EndDate.IsZero() && r.EndDate.Before(r.StartDate) {
		return ErrInvalidDate
	}
	if err := r.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(r.Category) == "" {
		return ErrMissingCategory
	}
	if r.AccountID == "" {
		return ErrMissingAccount
	}
	return nil
}

// Expired reports whether the schedule has ended as of now.
func (r RecurringPayment) Expired(now time.Time) bool {
	return !r.EndDate.IsZero() && now.After(r.EndDate)
}
