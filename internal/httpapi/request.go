package httpapi

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"bolsillo/internal/core"
)

// amountField accepts either an integer amount in cents or a formatted
// string ("1.234,56" and "1,234.56" both work).
type amountField struct {
	AmountCents int64  `json:"amount_cents"`
	Amount      string `json:"amount"`
}

func (f amountField) money() (core.Money, error) {
	if strings.TrimSpace(f.Amount) != "" {
		cents, err := core.ParseAmountCents(f.Amount)
		if err != nil {
			return core.Money{}, err
		}
		return core.NewMoney(cents), nil
	}
	return core.NewMoney(f.AmountCents), nil
}

type accountRequest struct {
	ID                 string  `json:"id"`
	Name               string  `json:"name"`
	Kind               string  `json:"kind"`
	InitialBalance     int64   `json:"initial_balance_cents"`
	CreditLimit        int64   `json:"credit_limit_cents"`
	StatementCutoffDay int     `json:"statement_cutoff_day"`
	PaymentDueDay      int     `json:"payment_due_day"`
	AnnualInterestRate float64 `json:"annual_interest_rate"`
	DisplayOrder       int     `json:"display_order"`
}

type transactionRequest struct {
	ID   string `json:"id"`
	Kind string `json:"kind"`
	amountField
	Category      string     `json:"category"`
	Description   string     `json:"description"`
	OccurredAt    time.Time  `json:"occurred_at"`
	Settled       bool       `json:"settled"`
	AccountID     string     `json:"account_id"`
	DestinationID string     `json:"destination_id"`
	Installments  *planField `json:"installments"`
}

type planField struct {
	Count          int   `json:"count"`
	TotalInterest  int64 `json:"total_interest_cents"`
	PerInstallment int64 `json:"per_installment_cents"`
}

type transferRequest struct {
	SourceID      string `json:"source_id"`
	DestinationID string `json:"destination_id"`
	amountField
	Description string    `json:"description"`
	OccurredAt  time.Time `json:"occurred_at"`
}

type creditPaymentRequest struct {
	CreditAccountID string `json:"credit_account_id"`
	SourceAccountID string `json:"source_account_id"`
	amountField
	Description string    `json:"description"`
	OccurredAt  time.Time `json:"occurred_at"`
}

type debtRequest struct {
	ID         string `json:"id"`
	PersonName string `json:"person_name"`
	Direction  string `json:"direction"`
	amountField
}

type modifyDebtRequest struct {
	amountField
	Op string `json:"op"`
}

type recurringRequest struct {
	ID        string `json:"id"`
	Frequency string `json:"frequency"`
	amountField
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
	Kind        string    `json:"kind"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	AccountID   string    `json:"account_id"`
}

// parseYearMonth extracts year and month from query parameters, defaulting
// to the current month.
func parseYearMonth(r *http.Request) (year, month int) {
	now := time.Now()
	year = now.Year()
	month = int(now.Month())

	if v := strings.TrimSpace(r.URL.Query().Get("year")); v != "" {
		if y, err := strconv.Atoi(v); err == nil {
			year = y
		}
	}
	if v := strings.TrimSpace(r.URL.Query().Get("month")); v != "" {
		if m, err := strconv.Atoi(v); err == nil {
			month = m
		}
	}
	return year, month
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
