package amortize

import (
	"time"

	"github.com/shopspring/decimal"

	"bolsillo/internal/core"
)

// CardSummary is the interest position of a single credit card.
type CardSummary struct {
	AccountID           string
	AccountName         string
	MonthlyInterest     decimal.Decimal
	YearlyInterest      decimal.Decimal
	PendingPrincipal    decimal.Decimal
	PendingInterest     decimal.Decimal
	PendingInstallments int
}

// PortfolioSummary aggregates interest across all qualifying cards.
type PortfolioSummary struct {
	MonthlyInterest  decimal.Decimal
	YearlyInterest   decimal.Decimal
	PendingPrincipal decimal.Decimal
	PendingInterest  decimal.Decimal
	Cards            []CardSummary
}

// SummarizeCard aggregates one card's interest-bearing transactions as of
// the reference date. The second return is false when the card does not
// qualify: either no configured interest rate, or no interest-bearing
// transaction. Callers omit such cards from aggregates rather than showing
// zeros.
func SummarizeCard(acct core.Account, txns []core.Transaction, asOf time.Time) (CardSummary, bool) {
	s := CardSummary{
		AccountID:        acct.ID,
		AccountName:      acct.Name,
		MonthlyInterest:  decimal.Zero,
		YearlyInterest:   decimal.Zero,
		PendingPrincipal: decimal.Zero,
		PendingInterest:  decimal.Zero,
	}
	if acct.Kind != core.Credit || acct.AnnualInterestRate == 0 {
		return s, false
	}

	qualifying := false
	for _, t := range txns {
		if t.AccountID != acct.ID || !t.HasInterestPlan() {
			continue
		}
		qualifying = true
		s.MonthlyInterest = s.MonthlyInterest.Add(MonthlyInterest(t, asOf))
		s.YearlyInterest = s.YearlyInterest.Add(YearlyInterest(t, asOf.Year()))
		p := PendingAsOf(t, asOf)
		s.PendingPrincipal = s.PendingPrincipal.Add(p.Principal)
		s.PendingInterest = s.PendingInterest.Add(p.Interest)
		s.PendingInstallments += p.Installments
	}
	return s, qualifying
}

// SummarizePortfolio aggregates across cards. Non-qualifying cards are
// excluded, not reported as zero rows.
func SummarizePortfolio(accounts []core.Account, txns []core.Transaction, asOf time.Time) PortfolioSummary {
	total := PortfolioSummary{
		MonthlyInterest:  decimal.Zero,
		YearlyInterest:   decimal.Zero,
		PendingPrincipal: decimal.Zero,
		PendingInterest:  decimal.Zero,
	}
	for _, acct := range accounts {
		card, ok := SummarizeCard(acct, txns, asOf)
		if !ok {
			continue
		}
		total.MonthlyInterest = total.MonthlyInterest.Add(card.MonthlyInterest)
		total.YearlyInterest = total.YearlyInterest.Add(card.YearlyInterest)
		total.PendingPrincipal = total.PendingPrincipal.Add(card.PendingPrincipal)
		total.PendingInterest = total.PendingInterest.Add(card.PendingInterest)
		total.Cards = append(total.Cards, card)
	}
	return total
}
