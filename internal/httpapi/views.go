package httpapi

import (
	"time"

	"bolsillo/internal/amortize"
	"bolsillo/internal/core"
	"bolsillo/internal/duplicate"
)

type accountView struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	Kind               string    `json:"kind"`
	InitialBalance     int64     `json:"initial_balance_cents"`
	CreditLimit        int64     `json:"credit_limit_cents"`
	StatementCutoffDay int       `json:"statement_cutoff_day"`
	PaymentDueDay      int       `json:"payment_due_day"`
	AnnualInterestRate float64   `json:"annual_interest_rate"`
	DisplayOrder       int       `json:"display_order"`
	CreatedAt          time.Time `json:"created_at"`
}

func viewAccount(a core.Account) accountView {
	return accountView{
		ID:                 a.ID,
		Name:               a.Name,
		Kind:               string(a.Kind),
		InitialBalance:     a.InitialBalance.Cents,
		CreditLimit:        a.CreditLimit.Cents,
		StatementCutoffDay: a.StatementCutoffDay,
		PaymentDueDay:      a.PaymentDueDay,
		AnnualInterestRate: a.AnnualInterestRate,
		DisplayOrder:       a.DisplayOrder,
		CreatedAt:          a.CreatedAt,
	}
}

type planView struct {
	Count          int   `json:"count"`
	TotalInterest  int64 `json:"total_interest_cents"`
	PerInstallment int64 `json:"per_installment_cents"`
}

type transactionView struct {
	ID            string    `json:"id"`
	Kind          string    `json:"kind"`
	Amount        int64     `json:"amount_cents"`
	Category      string    `json:"category"`
	Description   string    `json:"description"`
	OccurredAt    time.Time `json:"occurred_at"`
	Settled       bool      `json:"settled"`
	AccountID     string    `json:"account_id"`
	DestinationID string    `json:"destination_id,omitempty"`
	CreditPayment bool      `json:"credit_payment,omitempty"`
	Installments  *planView `json:"installments,omitempty"`
	RecurringID   string    `json:"recurring_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

func viewTransaction(t core.Transaction) transactionView {
	v := transactionView{
		ID:            t.ID,
		Kind:          string(t.Kind),
		Amount:        t.Amount.Cents,
		Category:      t.Category,
		Description:   t.Description,
		OccurredAt:    t.OccurredAt,
		Settled:       t.Settled,
		AccountID:     t.AccountID,
		DestinationID: t.DestinationID,
		CreditPayment: t.CreditPayment,
		RecurringID:   t.RecurringID,
		CreatedAt:     t.CreatedAt,
	}
	if t.Installments != nil {
		v.Installments = &planView{
			Count:          t.Installments.Count,
			TotalInterest:  t.Installments.TotalInterest.Cents,
			PerInstallment: t.Installments.PerInstallment.Cents,
		}
	}
	return v
}

func viewTransactions(txns []core.Transaction) []transactionView {
	out := make([]transactionView, 0, len(txns))
	for _, t := range txns {
		out = append(out, viewTransaction(t))
	}
	return out
}

type matchView struct {
	Transaction transactionView `json:"transaction"`
	Score       int             `json:"score"`
	Reasons     []string        `json:"reasons"`
}

func viewMatches(matches []duplicate.Match) []matchView {
	out := make([]matchView, 0, len(matches))
	for _, m := range matches {
		out = append(out, matchView{
			Transaction: viewTransaction(m.Transaction),
			Score:       m.Score,
			Reasons:     m.Reasons,
		})
	}
	return out
}

type debtView struct {
	ID         string     `json:"id"`
	PersonName string     `json:"person_name"`
	Direction  string     `json:"direction"`
	Original   int64      `json:"original_cents"`
	Remaining  int64      `json:"remaining_cents"`
	Settled    bool       `json:"settled"`
	SettledAt  *time.Time `json:"settled_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

func viewDebt(d core.Debt) debtView {
	return debtView{
		ID:         d.ID,
		PersonName: d.PersonName,
		Direction:  string(d.Direction),
		Original:   d.Original.Cents,
		Remaining:  d.Remaining.Cents,
		Settled:    d.Settled,
		SettledAt:  d.SettledAt,
		CreatedAt:  d.CreatedAt,
	}
}

type recurringView struct {
	ID          string     `json:"id"`
	Frequency   string     `json:"frequency"`
	StartDate   time.Time  `json:"start_date"`
	EndDate     *time.Time `json:"end_date,omitempty"`
	Kind        string     `json:"kind"`
	Amount      int64      `json:"amount_cents"`
	Category    string     `json:"category"`
	Description string     `json:"description"`
	AccountID   string     `json:"account_id"`
	LastRun     *time.Time `json:"last_run,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

func viewRecurring(r core.RecurringPayment) recurringView {
	return recurringView{
		ID:          r.ID,
		Frequency:   string(r.Frequency),
		StartDate:   r.StartDate,
		EndDate:     optTime(r.EndDate),
		Kind:        string(r.Kind),
		Amount:      r.Amount.Cents,
		Category:    r.Category,
		Description: r.Description,
		AccountID:   r.AccountID,
		LastRun:     optTime(r.LastRun),
		CreatedAt:   r.CreatedAt,
	}
}

func optTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

type cardSummaryView struct {
	AccountID           string `json:"account_id"`
	AccountName         string `json:"account_name"`
	MonthlyInterest     string `json:"monthly_interest"`
	YearlyInterest      string `json:"yearly_interest"`
	PendingPrincipal    string `json:"pending_principal"`
	PendingInterest     string `json:"pending_interest"`
	PendingInstallments int    `json:"pending_installments"`
}

func viewCardSummary(s amortize.CardSummary) cardSummaryView {
	return cardSummaryView{
		AccountID:           s.AccountID,
		AccountName:         s.AccountName,
		MonthlyInterest:     s.MonthlyInterest.String(),
		YearlyInterest:      s.YearlyInterest.String(),
		PendingPrincipal:    s.PendingPrincipal.String(),
		PendingInterest:     s.PendingInterest.String(),
		PendingInstallments: s.PendingInstallments,
	}
}

type portfolioView struct {
	MonthlyInterest  string            `json:"monthly_interest"`
	YearlyInterest   string            `json:"yearly_interest"`
	PendingPrincipal string            `json:"pending_principal"`
	PendingInterest  string            `json:"pending_interest"`
	Cards            []cardSummaryView `json:"cards"`
}

func viewPortfolio(p amortize.PortfolioSummary) portfolioView {
	cards := make([]cardSummaryView, 0, len(p.Cards))
	for _, c := range p.Cards {
		cards = append(cards, viewCardSummary(c))
	}
	return portfolioView{
		MonthlyInterest:  p.MonthlyInterest.String(),
		YearlyInterest:   p.YearlyInterest.String(),
		PendingPrincipal: p.PendingPrincipal.String(),
		PendingInterest:  p.PendingInterest.String(),
		Cards:            cards,
	}
}

type categoryAmountView struct {
	Name   string `json:"name"`
	Amount int64  `json:"amount_cents"`
}

type overviewView struct {
	Year       int                  `json:"year"`
	Month      int                  `json:"month"`
	Total      int64                `json:"total_cents"`
	ByCategory []categoryAmountView `json:"by_category"`
}

func viewOverview(o core.MonthOverview) overviewView {
	byCategory := make([]categoryAmountView, 0, len(o.ByCategory))
	for _, c := range o.ByCategory {
		byCategory = append(byCategory, categoryAmountView{Name: c.Name, Amount: c.Amount.Cents})
	}
	return overviewView{
		Year:       o.Year,
		Month:      o.Month,
		Total:      o.Total.Cents,
		ByCategory: byCategory,
	}
}
