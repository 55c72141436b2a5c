package recurring

import (
	"testing"
	"time"

	"bolsillo/internal/core"
)

func TestDailyChecker_IsDue(t *testing.T) {
	checker := DailyChecker{}
	now := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	startDate := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		lastRun time.Time
		want    bool
	}{
		{
			name:    "never run - is due",
			lastRun: time.Time{},
			want:    true,
		},
		{
			name:    "ran today - not due",
			lastRun: time.Date(2026, 1, 15, 8, 0, 0, 0, time.UTC),
			want:    false,
		},
		{
			name:    "ran yesterday - is due",
			lastRun: time.Date(2026, 1, 14, 12, 0, 0, 0, time.UTC),
			want:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := checker.IsDue(tt.lastRun, now, startDate)
			if got != tt.want {
				t.Errorf("DailyChecker.IsDue() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWeeklyChecker_IsDue(t *testing.T) {
	checker := WeeklyChecker{}
	now := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	startDate := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		lastRun time.Time
		want    bool
	}{
		{
			name:    "never run - is due",
			lastRun: time.Time{},
			want:    true,
		},
		{
			name:    "ran 3 days ago - not due",
			lastRun: time.Date(2026, 1, 12, 12, 0, 0, 0, time.UTC),
			want:    false,
		},
		{
			name:    "ran 7 days ago - is due",
			lastRun: time.Date(2026, 1, 8, 12, 0, 0, 0, time.UTC),
			want:    true,
		},
		{
			name:    "ran 10 days ago - is due",
			lastRun: time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC),
			want:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := checker.IsDue(tt.lastRun, now, startDate)
			if got != tt.want {
				t.Errorf("WeeklyChecker.IsDue() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMonthlyChecker_IsDue(t *testing.T) {
	checker := MonthlyChecker{}

	tests := []struct {
		name      string
		lastRun   time.Time
		now       time.Time
		startDate time.Time
		want      bool
	}{
		{
			name:      "never run - is due",
			lastRun:   time.Time{},
			now:       time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC),
			startDate: time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC),
			want:      true,
		},
		{
			name:      "ran this month - not due",
			lastRun:   time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC),
			now:       time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC),
			startDate: time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC),
			want:      false,
		},
		{
			name:      "new month but before target day - not due",
			lastRun:   time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC),
			now:       time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC),
			startDate: time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
			want:      false,
		},
		{
			name:      "new month and on target day - is due",
			lastRun:   time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC),
			now:       time.Date(2026, 2, 15, 12, 0, 0, 0, time.UTC),
			startDate: time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
			want:      true,
		},
		{
			name:      "target day 31 in February - clamps to month end",
			lastRun:   time.Date(2026, 1, 31, 12, 0, 0, 0, time.UTC),
			now:       time.Date(2026, 2, 28, 12, 0, 0, 0, time.UTC),
			startDate: time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC),
			want:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := checker.IsDue(tt.lastRun, tt.now, tt.startDate)
			if got != tt.want {
				t.Errorf("MonthlyChecker.IsDue() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestYearlyChecker_IsDue(t *testing.T) {
	checker := YearlyChecker{}

	tests := []struct {
		name      string
		lastRun   time.Time
		now       time.Time
		startDate time.Time
		want      bool
	}{
		{
			name:      "never run - is due",
			lastRun:   time.Time{},
			now:       time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC),
			startDate: time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC),
			want:      true,
		},
		{
			name:      "ran this year - not due",
			lastRun:   time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC),
			now:       time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC),
			startDate: time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC),
			want:      false,
		},
		{
			name:      "new year before target month - not due",
			lastRun:   time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC),
			now:       time.Date(2026, 2, 15, 12, 0, 0, 0, time.UTC),
			startDate: time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC),
			want:      false,
		},
		{
			name:      "new year on target month and day - is due",
			lastRun:   time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC),
			now:       time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC),
			startDate: time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC),
			want:      true,
		},
		{
			name:      "new year past target month - is due",
			lastRun:   time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC),
			now:       time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC),
			startDate: time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC),
			want:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := checker.IsDue(tt.lastRun, tt.now, tt.startDate)
			if got != tt.want {
				t.Errorf("YearlyChecker.IsDue() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCheckerFor(t *testing.T) {
	for _, f := range []core.Frequency{core.Daily, core.Weekly, core.Monthly, core.Yearly} {
		if _, err := CheckerFor(f); err != nil {
			t.Errorf("CheckerFor(%s) error = %v", f, err)
		}
	}
	if _, err := CheckerFor("fortnightly"); err == nil {
		t.Error("CheckerFor(fortnightly) should fail")
	}
}

func TestIsDueRespectsSchedule(t *testing.T) {
	tmpl := core.RecurringPayment{
		ID:        "rent",
		Frequency: core.Monthly,
		StartDate: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC),
		Kind:      core.Expense,
		Amount:    core.NewMoney(800_000),
		Category:  "Vivienda",
		AccountID: "checking",
	}

	due, err := IsDue(tmpl, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("IsDue() error = %v", err)
	}
	if !due {
		t.Error("template inside its schedule should be due")
	}

	// After the end date the template never fires again.
	due, err = IsDue(tmpl, time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("IsDue() error = %v", err)
	}
	if due {
		t.Error("expired template should not be due")
	}

	// And never before the start date.
	due, err = IsDue(tmpl, time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("IsDue() error = %v", err)
	}
	if due {
		t.Error("template before its start date should not be due")
	}
}
