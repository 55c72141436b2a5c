package debts

import (
	"errors"
	"testing"
	"time"

	"bolsillo/internal/core"
)

var now = time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)

func activeDebt(original, remaining int64) core.Debt {
	return core.Debt{
		ID:         "debt-1",
		PersonName: "Carlos",
		Direction:  core.Lent,
		Original:   core.NewMoney(original),
		Remaining:  core.NewMoney(remaining),
		CreatedAt:  now.AddDate(0, -1, 0),
	}
}

func TestModify(t *testing.T) {
	tests := []struct {
		name          string
		debt          core.Debt
		amount        int64
		op            Op
		wantErr       error
		wantOriginal  int64
		wantRemaining int64
		wantSettled   bool
	}{
		{
			name:          "add grows both amounts",
			debt:          activeDebt(1_000_000, 500_000),
			amount:        250_000,
			op:            Add,
			wantOriginal:  1_250_000,
			wantRemaining: 750_000,
		},
		{
			name:          "partial subtract",
			debt:          activeDebt(1_000_000, 500_000),
			amount:        200_000,
			op:            Subtract,
			wantOriginal:  800_000,
			wantRemaining: 300_000,
		},
		{
			name:          "subtract to zero settles",
			debt:          activeDebt(1_000_000, 500_000),
			amount:        500_000,
			op:            Subtract,
			wantOriginal:  500_000,
			wantRemaining: 0,
			wantSettled:   true,
		},
		{
			name:    "subtract over remaining rejected, never clamped",
			debt:    activeDebt(1_000_000, 500_000),
			amount:  500_001,
			op:      Subtract,
			wantErr: core.ErrDebtOverPayment,
		},
		{
			name:    "zero amount rejected",
			debt:    activeDebt(1_000_000, 500_000),
			amount:  0,
			op:      Add,
			wantErr: core.ErrInvalidAmount,
		},
		{
			name:    "negative amount rejected",
			debt:    activeDebt(1_000_000, 500_000),
			amount:  -100,
			op:      Subtract,
			wantErr: core.ErrInvalidAmount,
		},
		{
			name:    "unknown operation",
			debt:    activeDebt(1_000_000, 500_000),
			amount:  100,
			op:      Op("multiply"),
			wantErr: core.ErrUnknownOperation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Modify(tt.debt, core.NewMoney(tt.amount), tt.op, now)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Modify() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Modify() error = %v", err)
			}
			if got.Original.Cents != tt.wantOriginal {
				t.Errorf("Original = %d, want %d", got.Original.Cents, tt.wantOriginal)
			}
			if got.Remaining.Cents != tt.wantRemaining {
				t.Errorf("Remaining = %d, want %d", got.Remaining.Cents, tt.wantRemaining)
			}
			if got.Settled != tt.wantSettled {
				t.Errorf("Settled = %v, want %v", got.Settled, tt.wantSettled)
			}
			if tt.wantSettled {
				if got.SettledAt == nil || !got.SettledAt.Equal(now) {
					t.Errorf("SettledAt = %v, want %v", got.SettledAt, now)
				}
			} else if got.SettledAt != nil {
				t.Errorf("SettledAt = %v, want nil", got.SettledAt)
			}
		})
	}
}

func TestModifySettledIsTerminal(t *testing.T) {
	d := activeDebt(1_000_000, 500_000)
	d, err := Modify(d, core.NewMoney(500_000), Subtract, now)
	if err != nil {
		t.Fatal(err)
	}
	if !d.Settled {
		t.Fatal("debt should be settled")
	}

	if _, err := Modify(d, core.NewMoney(100), Add, now); !errors.Is(err, core.ErrDebtSettled) {
		t.Errorf("add on settled debt = %v, want ErrDebtSettled", err)
	}
	if _, err := Modify(d, core.NewMoney(100), Subtract, now); !errors.Is(err, core.ErrDebtSettled) {
		t.Errorf("subtract on settled debt = %v, want ErrDebtSettled", err)
	}
}

func TestModifyRoundTrip(t *testing.T) {
	// subtract then add of the same amount restores the remaining balance.
	d := activeDebt(1_000_000, 500_000)

	after, err := Modify(d, core.NewMoney(200_000), Subtract, now)
	if err != nil {
		t.Fatal(err)
	}
	restored, err := Modify(after, core.NewMoney(200_000), Add, now)
	if err != nil {
		t.Fatal(err)
	}
	if restored.Remaining.Cents != d.Remaining.Cents {
		t.Errorf("Remaining after round trip = %d, want %d",
			restored.Remaining.Cents, d.Remaining.Cents)
	}
}

func TestModifyDoesNotMutateInput(t *testing.T) {
	d := activeDebt(1_000_000, 500_000)
	if _, err := Modify(d, core.NewMoney(100_000), Subtract, now); err != nil {
		t.Fatal(err)
	}
	if d.Remaining.Cents != 500_000 || d.Original.Cents != 1_000_000 {
		t.Error("Modify must not mutate its input")
	}
}
