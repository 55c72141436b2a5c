package amortize

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"bolsillo/internal/core"
)

func planTx(accountID string, occurred time.Time, count int, totalInterestCents, perInstallmentCents int64) core.Transaction {
	return core.Transaction{
		Kind:       core.Expense,
		AccountID:  accountID,
		Amount:     core.NewMoney(perInstallmentCents * int64(count)),
		Category:   "Tecnología",
		OccurredAt: occurred,
		Installments: &core.InstallmentPlan{
			Count:          count,
			TotalInterest:  core.NewMoney(totalInterestCents),
			PerInstallment: core.NewMoney(perInstallmentCents),
		},
	}
}

func TestPerInstallmentInterest(t *testing.T) {
	jan := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		tx   core.Transaction
		want string
	}{
		{"even split", planTx("cc-1", jan, 12, 120_000, 100_000), "100"},
		{"uneven split", planTx("cc-1", jan, 3, 10_000, 100_000), "33.333333"},
		{"no plan", core.Transaction{OccurredAt: jan}, "0"},
		{"zero installments", planTx("cc-1", jan, 0, 120_000, 100_000), "0"},
		{"negative installments", planTx("cc-1", jan, -2, 120_000, 100_000), "0"},
		{"missing interest", planTx("cc-1", jan, 12, 0, 100_000), "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PerInstallmentInterest(tt.tx)
			if got.String() != tt.want {
				t.Errorf("PerInstallmentInterest() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestMonthsElapsed(t *testing.T) {
	txn := planTx("cc-1", time.Date(2025, 11, 20, 0, 0, 0, 0, time.UTC), 6, 6_000, 50_000)

	tests := []struct {
		name string
		asOf time.Time
		want int
	}{
		{"same month", time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC), 0},
		{"next month", time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC), 1},
		{"across year boundary", time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC), 3},
		{"before purchase", time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC), -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MonthsElapsed(txn, tt.asOf); got != tt.want {
				t.Errorf("MonthsElapsed() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestMonthlyInterest(t *testing.T) {
	// 6 installments starting November 2025: active Nov 2025 - Apr 2026.
	txn := planTx("cc-1", time.Date(2025, 11, 20, 0, 0, 0, 0, time.UTC), 6, 6_000, 50_000)

	tests := []struct {
		name string
		asOf time.Time
		want string
	}{
		{"first active month", time.Date(2025, 11, 30, 0, 0, 0, 0, time.UTC), "10"},
		{"mid plan across year", time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), "10"},
		{"last active month", time.Date(2026, 4, 30, 0, 0, 0, 0, time.UTC), "10"},
		{"after plan ends", time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC), "0"},
		{"before plan starts", time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC), "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MonthlyInterest(txn, tt.asOf); got.String() != tt.want {
				t.Errorf("MonthlyInterest() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestYearlyInterestSpansBoundary(t *testing.T) {
	// Nov 2025 - Apr 2026: two active months in 2025, four in 2026.
	txn := planTx("cc-1", time.Date(2025, 11, 20, 0, 0, 0, 0, time.UTC), 6, 6_000, 50_000)

	if got := YearlyInterest(txn, 2025); got.String() != "20" {
		t.Errorf("YearlyInterest(2025) = %s, want 20", got)
	}
	if got := YearlyInterest(txn, 2026); got.String() != "40" {
		t.Errorf("YearlyInterest(2026) = %s, want 40", got)
	}
	if got := YearlyInterest(txn, 2027); !got.IsZero() {
		t.Errorf("YearlyInterest(2027) = %s, want 0", got)
	}
}

func TestInterestSumsToTotalAcrossSpan(t *testing.T) {
	txn := planTx("cc-1", time.Date(2025, 11, 20, 0, 0, 0, 0, time.UTC), 6, 6_000, 50_000)

	sum := decimal.Zero
	for y := 2025; y <= 2026; y++ {
		sum = sum.Add(YearlyInterest(txn, y))
	}
	if want := txn.Installments.TotalInterest.Decimal(); !sum.Equal(want) {
		t.Errorf("interest over full span = %s, want %s", sum, want)
	}
}

func TestPendingAsOf(t *testing.T) {
	txn := planTx("cc-1", time.Date(2025, 11, 20, 0, 0, 0, 0, time.UTC), 6, 6_000, 50_000)

	tests := []struct {
		name         string
		asOf         time.Time
		installments int
		principal    string
		interest     string
	}{
		{"at purchase", time.Date(2025, 11, 25, 0, 0, 0, 0, time.UTC), 6, "3000", "60"},
		{"half elapsed", time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), 3, "1500", "30"},
		{"fully elapsed", time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC), 0, "0", "0"},
		{"long after", time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC), 0, "0", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := PendingAsOf(txn, tt.asOf)
			if p.Installments != tt.installments {
				t.Errorf("Installments = %d, want %d", p.Installments, tt.installments)
			}
			if p.Principal.String() != tt.principal {
				t.Errorf("Principal = %s, want %s", p.Principal, tt.principal)
			}
			if p.Interest.String() != tt.interest {
				t.Errorf("Interest = %s, want %s", p.Interest, tt.interest)
			}
		})
	}
}

func TestSummarizeCard(t *testing.T) {
	asOf := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	card := core.Account{
		ID: "cc-1", Name: "Visa", Kind: core.Credit,
		CreditLimit: core.NewMoney(5_000_000), AnnualInterestRate: 28.5,
	}

	t.Run("aggregates qualifying transactions", func(t *testing.T) {
		txns := []core.Transaction{
			planTx("cc-1", time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC), 12, 120_000, 100_000),
			planTx("cc-1", time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC), 6, 6_000, 50_000),
			planTx("cc-2", asOf, 6, 6_000, 50_000), // other card ignored
			{Kind: core.Expense, AccountID: "cc-1", Amount: core.NewMoney(999), OccurredAt: asOf}, // no plan
		}
		s, ok := SummarizeCard(card, txns, asOf)
		if !ok {
			t.Fatal("SummarizeCard() ok = false, want true")
		}
		if s.MonthlyInterest.String() != "110" {
			t.Errorf("MonthlyInterest = %s, want 110", s.MonthlyInterest)
		}
		if s.PendingInstallments != 11+6 {
			t.Errorf("PendingInstallments = %d, want 17", s.PendingInstallments)
		}
	})

	t.Run("card without interest rate excluded", func(t *testing.T) {
		noRate := card
		noRate.AnnualInterestRate = 0
		if _, ok := SummarizeCard(noRate, []core.Transaction{planTx("cc-1", asOf, 6, 6_000, 50_000)}, asOf); ok {
			t.Error("card without configured rate must not qualify")
		}
	})

	t.Run("card without interest-bearing transactions excluded", func(t *testing.T) {
		if _, ok := SummarizeCard(card, nil, asOf); ok {
			t.Error("card without plan transactions must not qualify")
		}
	})

	t.Run("non-credit account excluded", func(t *testing.T) {
		sav := core.Account{ID: "sav-1", Kind: core.Savings, AnnualInterestRate: 2}
		if _, ok := SummarizeCard(sav, nil, asOf); ok {
			t.Error("non-credit accounts must not qualify")
		}
	})
}

func TestSummarizePortfolio(t *testing.T) {
	asOf := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	accounts := []core.Account{
		{ID: "cc-1", Name: "Visa", Kind: core.Credit, CreditLimit: core.NewMoney(5_000_000), AnnualInterestRate: 28.5},
		{ID: "cc-2", Name: "Master", Kind: core.Credit, CreditLimit: core.NewMoney(3_000_000), AnnualInterestRate: 31.2},
		{ID: "cc-3", Name: "Sin uso", Kind: core.Credit, CreditLimit: core.NewMoney(1_000_000), AnnualInterestRate: 25},
		{ID: "sav-1", Name: "Ahorros", Kind: core.Savings},
	}
	txns := []core.Transaction{
		planTx("cc-1", time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC), 6, 6_000, 50_000),
		planTx("cc-2", time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC), 12, 120_000, 100_000),
	}

	got := SummarizePortfolio(accounts, txns, asOf)
	if len(got.Cards) != 2 {
		t.Fatalf("Cards len = %d, want 2 (idle card omitted, not zero)", len(got.Cards))
	}
	if got.MonthlyInterest.String() != "110" {
		t.Errorf("MonthlyInterest = %s, want 110", got.MonthlyInterest)
	}
	if got.PendingPrincipal.String() != "15000" {
		t.Errorf("PendingPrincipal = %s, want 15000", got.PendingPrincipal)
	}
}
