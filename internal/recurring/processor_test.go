package recurring

import (
	"context"
	"testing"
	"time"

	"bolsillo/internal/core"
	"bolsillo/internal/store/memory"
)

func TestRunOncePostsDueTemplates(t *testing.T) {
	st := memory.New()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	tmpl := core.RecurringPayment{
		ID:          "rent",
		Frequency:   core.Monthly,
		StartDate:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Kind:        core.Expense,
		Amount:      core.NewMoney(800_000),
		Category:    "Vivienda",
		Description: "monthly rent",
		AccountID:   "checking",
		LastRun:     time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC),
		CreatedAt:   now,
	}
	if err := st.PutRecurring(context.Background(), tmpl); err != nil {
		t.Fatalf("PutRecurring() error = %v", err)
	}

	p := NewProcessor(st, nil)
	p.now = func() time.Time { return now }

	posted, err := p.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce() error = %v", err)
	}
	if posted != 1 {
		t.Fatalf("posted = %d, want 1", posted)
	}

	txns, err := st.ListTransactions(context.Background())
	if err != nil {
		t.Fatalf("ListTransactions() error = %v", err)
	}
	if len(txns) != 1 {
		t.Fatalf("got %d transactions, want 1", len(txns))
	}
	got := txns[0]
	if got.RecurringID != "rent" {
		t.Errorf("RecurringID = %q, want rent", got.RecurringID)
	}
	if got.Amount.Cents != 800_000 || got.Category != "Vivienda" {
		t.Errorf("materialized %d cents %q, want template values", got.Amount.Cents, got.Category)
	}

	// LastRun advances, so a second pass in the same month posts nothing.
	posted, err = p.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce() #2 error = %v", err)
	}
	if posted != 0 {
		t.Errorf("second pass posted = %d, want 0", posted)
	}
}
