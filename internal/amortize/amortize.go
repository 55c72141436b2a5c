// Package amortize computes installment interest for credit purchases.
//
// Interest math uses decimal arithmetic: the per-installment share is an
// exact division of the total interest, so sums across the plan's span do
// not drift beyond minor-unit precision.
//
// Month arithmetic is deliberately calendar-based (year*12+month), not
// day-count against the card's statement cutoff.
package amortize

import (
	"time"

	"github.com/shopspring/decimal"

	"bolsillo/internal/core"
)

// interestPrecision bounds the division I/n. Four extra digits past cents
// keep 12- and 36-installment splits from losing a cent across the span.
const interestPrecision = 6

func monthIndex(t time.Time) int {
	return t.Year()*12 + int(t.Month()) - 1
}

// PerInstallmentInterest returns I/n for a transaction's plan, or zero when
// the transaction carries no amortizable interest. It never errors: a plan
// with installmentCount <= 0 or missing interest simply contributes nothing.
func PerInstallmentInterest(t core.Transaction) decimal.Decimal {
	if !t.HasInterestPlan() {
		return decimal.Zero
	}
	return t.Installments.TotalInterest.Decimal().
		DivRound(decimal.NewFromInt(int64(t.Installments.Count)), interestPrecision)
}

// MonthsElapsed counts whole calendar months from the transaction's month
// to asOf's month. Same month is zero; earlier asOf is negative.
func MonthsElapsed(t core.Transaction, asOf time.Time) int {
	return monthIndex(asOf) - monthIndex(t.OccurredAt)
}

// ActiveInMonth reports whether the given calendar month contains one of
// the transaction's installments.
func ActiveInMonth(t core.Transaction, year int, month time.Month) bool {
	if !t.HasInterestPlan() {
		return false
	}
	elapsed := (year*12 + int(month) - 1) - monthIndex(t.OccurredAt)
	return elapsed >= 0 && elapsed < t.Installments.Count
}

// MonthlyInterest returns the interest charged in asOf's month: the
// per-installment share when that month is active, zero otherwise.
func MonthlyInterest(t core.Transaction, asOf time.Time) decimal.Decimal {
	if !ActiveInMonth(t, asOf.Year(), asOf.Month()) {
		return decimal.Zero
	}
	return PerInstallmentInterest(t)
}

// YearlyInterest sums the per-installment share over the months of year
// that are active, which handles plans spanning a year boundary.
func YearlyInterest(t core.Transaction, year int) decimal.Decimal {
	per := PerInstallmentInterest(t)
	if per.IsZero() {
		return decimal.Zero
	}
	active := 0
	for month := time.January; month <= time.December; month++ {
		if ActiveInMonth(t, year, month) {
			active++
		}
	}
	return per.Mul(decimal.NewFromInt(int64(active)))
}

// Pending holds the not-yet-charged remainder of an installment plan.
type Pending struct {
	Installments int
	Principal    decimal.Decimal
	Interest     decimal.Decimal
}

// PendingAsOf returns the remaining installments and their principal and
// interest. A fully elapsed plan reports zeros, never negatives.
func PendingAsOf(t core.Transaction, asOf time.Time) Pending {
	p := Pending{Principal: decimal.Zero, Interest: decimal.Zero}
	if !t.HasInterestPlan() {
		return p
	}
	remaining := t.Installments.Count - MonthsElapsed(t, asOf)
	if remaining < 0 {
		remaining = 0
	}
	if remaining > t.Installments.Count {
		remaining = t.Installments.Count
	}
	n := decimal.NewFromInt(int64(remaining))
	p.Installments = remaining
	p.Principal = t.Installments.PerInstallment.Decimal().Mul(n)
	p.Interest = PerInstallmentInterest(t).Mul(n)
	return p
}
