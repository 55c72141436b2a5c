// Package recurring materializes transactions from recurring-payment
// templates. Each frequency has its own dueness checker deciding whether a
// template should fire given its last run.
package recurring

import (
	"fmt"
	"time"

	"bolsillo/internal/core"
)

// DuenessChecker decides whether a recurring payment is due.
type DuenessChecker interface {
	IsDue(lastRun, now time.Time, startDate time.Time) bool
}

// DailyChecker fires once per calendar day.
type DailyChecker struct{}

func (DailyChecker) IsDue(lastRun, now time.Time, _ time.Time) bool {
	if lastRun.IsZero() {
		return true
	}
	return lastRun.Format("2006-01-02") != now.Format("2006-01-02")
}

// WeeklyChecker fires when 7 or more days have passed since the last run.
type WeeklyChecker struct{}

func (WeeklyChecker) IsDue(lastRun, now time.Time, _ time.Time) bool {
	if lastRun.IsZero() {
		return true
	}
	return now.Sub(lastRun).Hours()/24 >= 7
}

// MonthlyChecker fires once per month on the start date's day, clamped to
// the last day of shorter months.
type MonthlyChecker struct{}

func (MonthlyChecker) IsDue(lastRun, now time.Time, startDate time.Time) bool {
	if lastRun.IsZero() {
		return true
	}
	if lastRun.Year() == now.Year() && lastRun.Month() == now.Month() {
		return false
	}
	return now.Day() >= clampDay(startDate.Day(), now)
}

// YearlyChecker fires once per year on the start date's month and day.
type YearlyChecker struct{}

func (YearlyChecker) IsDue(lastRun, now time.Time, startDate time.Time) bool {
	if lastRun.IsZero() {
		return true
	}
	if lastRun.Year() == now.Year() {
		return false
	}
	switch {
	case now.Month() < startDate.Month():
		return false
	case now.Month() == startDate.Month():
		return now.Day() >= clampDay(startDate.Day(), now)
	default:
		return true
	}
}

// clampDay caps a target day of month to the last day of now's month, so a
// payment anchored on the 31st still fires in February.
func clampDay(targetDay int, now time.Time) int {
	lastDay := time.Date(now.Year(), now.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
	if targetDay > lastDay {
		return lastDay
	}
	return targetDay
}

// checkers is the closed frequency registry.
var checkers = map[core.Frequency]DuenessChecker{
	core.Daily:   DailyChecker{},
	core.Weekly:  WeeklyChecker{},
	core.Monthly: MonthlyChecker{},
	core.Yearly:  YearlyChecker{},
}

// CheckerFor returns the dueness checker for a frequency.
func CheckerFor(f core.Frequency) (DuenessChecker, error) {
	c, ok := checkers[f]
	if !ok {
		return nil, fmt.Errorf("unknown frequency: %s", f)
	}
	return c, nil
}

// IsDue reports whether a recurring payment should fire at now. An expired
// template never fires.
func IsDue(r core.RecurringPayment, now time.Time) (bool, error) {
	if r.Expired(now) {
		return false, nil
	}
	if now.Before(r.StartDate) {
		return false, nil
	}
	checker, err := CheckerFor(r.Frequency)
	if err != nil {
		return false, err
	}
	return checker.IsDue(r.LastRun, now, r.StartDate), nil
}
