package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"bolsillo/internal/core"
	"bolsillo/internal/store"
	"bolsillo/internal/store/memory"
)

// spyAtomic counts atomic-unit invocations so tests can assert that
// rejected requests never reach storage.
type spyAtomic struct {
	calls int
}

func (s *spyAtomic) RunAtomic(ctx context.Context, fn func(tx store.Tx) error) error {
	s.calls++
	return nil
}

func seedAccounts(t *testing.T, st *memory.Store, kinds map[string]core.AccountKind) {
	t.Helper()
	for id, kind := range kinds {
		err := st.PutAccount(context.Background(), core.Account{
			ID:        id,
			Name:      id,
			Kind:      kind,
			CreatedAt: time.Now(),
		})
		if err != nil {
			t.Fatalf("seed account %s: %v", id, err)
		}
	}
}

func TestExecuteTransfer(t *testing.T) {
	st := memory.New()
	seedAccounts(t, st, map[string]core.AccountKind{
		"checking": core.Savings,
		"wallet":   core.Cash,
	})

	c := NewCoordinator(st)
	got, err := c.ExecuteTransfer(context.Background(), TransferRequest{
		SourceID:      "checking",
		DestinationID: "wallet",
		Amount:        core.NewMoney(25_000),
		Description:   "cash withdrawal",
	})
	if err != nil {
		t.Fatalf("ExecuteTransfer() error = %v", err)
	}
	if got.Kind != core.Transfer {
		t.Errorf("kind = %q, want %q", got.Kind, core.Transfer)
	}
	if !got.Settled {
		t.Error("transfer should commit settled")
	}

	stored, err := st.GetTransaction(context.Background(), got.ID)
	if err != nil {
		t.Fatalf("GetTransaction() error = %v", err)
	}
	if stored.AccountID != "checking" || stored.DestinationID != "wallet" {
		t.Errorf("stored endpoints = %q -> %q, want checking -> wallet",
			stored.AccountID, stored.DestinationID)
	}
}

func TestExecuteTransferSameAccountSkipsStorage(t *testing.T) {
	spy := &spyAtomic{}
	c := NewCoordinator(spy)

	_, err := c.ExecuteTransfer(context.Background(), TransferRequest{
		SourceID:      "checking",
		DestinationID: "checking",
		Amount:        core.NewMoney(1_000),
	})
	if !errors.Is(err, core.ErrTransferSameAccount) {
		t.Fatalf("error = %v, want ErrTransferSameAccount", err)
	}
	if spy.calls != 0 {
		t.Errorf("atomic unit invoked %d times, want 0", spy.calls)
	}
}

func TestExecuteTransferMissingAccountAbortsUnit(t *testing.T) {
	st := memory.New()
	seedAccounts(t, st, map[string]core.AccountKind{"checking": core.Savings})

	c := NewCoordinator(st)
	_, err := c.ExecuteTransfer(context.Background(), TransferRequest{
		SourceID:      "checking",
		DestinationID: "ghost",
		Amount:        core.NewMoney(1_000),
	})
	if !errors.Is(err, core.ErrAccountNotFound) {
		t.Fatalf("error = %v, want ErrAccountNotFound", err)
	}

	txns, err := st.ListTransactions(context.Background())
	if err != nil {
		t.Fatalf("ListTransactions() error = %v", err)
	}
	if len(txns) != 0 {
		t.Errorf("got %d transactions after aborted unit, want 0", len(txns))
	}
}

func TestExecuteTransferInvalidAmount(t *testing.T) {
	spy := &spyAtomic{}
	c := NewCoordinator(spy)

	_, err := c.ExecuteTransfer(context.Background(), TransferRequest{
		SourceID:      "checking",
		DestinationID: "wallet",
		Amount:        core.NewMoney(0),
	})
	if !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("error = %v, want ErrInvalidAmount", err)
	}
	if spy.calls != 0 {
		t.Errorf("atomic unit invoked %d times, want 0", spy.calls)
	}
}

func TestExecuteCreditPayment(t *testing.T) {
	st := memory.New()
	seedAccounts(t, st, map[string]core.AccountKind{
		"visa":     core.Credit,
		"checking": core.Savings,
	})

	c := NewCoordinator(st)
	payment, err := c.ExecuteCreditPayment(context.Background(), CreditPaymentRequest{
		CreditAccountID: "visa",
		SourceAccountID: "checking",
		Amount:          core.NewMoney(500_000),
		Description:     "statement payment",
	})
	if err != nil {
		t.Fatalf("ExecuteCreditPayment() error = %v", err)
	}

	if payment.CreditLeg.Kind != core.Income || payment.CreditLeg.AccountID != "visa" {
		t.Errorf("credit leg = %q at %q, want income at visa",
			payment.CreditLeg.Kind, payment.CreditLeg.AccountID)
	}
	if !payment.CreditLeg.CreditPayment {
		t.Error("credit leg must be marked as a credit payment")
	}
	if payment.SourceLeg.Kind != core.Expense || payment.SourceLeg.AccountID != "checking" {
		t.Errorf("source leg = %q at %q, want expense at checking",
			payment.SourceLeg.Kind, payment.SourceLeg.AccountID)
	}
	if payment.CreditLeg.ID == payment.SourceLeg.ID {
		t.Error("legs must have distinct ids")
	}

	txns, err := st.ListTransactions(context.Background())
	if err != nil {
		t.Fatalf("ListTransactions() error = %v", err)
	}
	if len(txns) != 2 {
		t.Fatalf("got %d transactions, want 2", len(txns))
	}
}

func TestExecuteCreditPaymentMissingSourceWritesNothing(t *testing.T) {
	st := memory.New()
	seedAccounts(t, st, map[string]core.AccountKind{"visa": core.Credit})

	c := NewCoordinator(st)
	_, err := c.ExecuteCreditPayment(context.Background(), CreditPaymentRequest{
		CreditAccountID: "visa",
		SourceAccountID: "ghost",
		Amount:          core.NewMoney(100_000),
	})
	if !errors.Is(err, core.ErrAccountNotFound) {
		t.Fatalf("error = %v, want ErrAccountNotFound", err)
	}

	txns, err := st.ListTransactions(context.Background())
	if err != nil {
		t.Fatalf("ListTransactions() error = %v", err)
	}
	if len(txns) != 0 {
		t.Errorf("got %d transactions after aborted unit, want 0", len(txns))
	}
}

func TestExecuteCreditPaymentSameAccountSkipsStorage(t *testing.T) {
	spy := &spyAtomic{}
	c := NewCoordinator(spy)

	_, err := c.ExecuteCreditPayment(context.Background(), CreditPaymentRequest{
		CreditAccountID: "visa",
		SourceAccountID: "visa",
		Amount:          core.NewMoney(1_000),
	})
	if !errors.Is(err, core.ErrTransferSameAccount) {
		t.Fatalf("error = %v, want ErrTransferSameAccount", err)
	}
	if spy.calls != 0 {
		t.Errorf("atomic unit invoked %d times, want 0", spy.calls)
	}
}
