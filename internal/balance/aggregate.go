package balance

import (
	"sort"

	"bolsillo/internal/core"
)

// NetWorth sums the balances of all accounts whose strategy participates in
// the aggregate. Credit accounts are excluded: available credit is not an
// asset. Unknown kinds propagate as configuration errors.
func NetWorth(accounts []core.Account, txns []core.Transaction) (core.Money, error) {
	var total int64
	for _, acct := range accounts {
		s, err := ForKind(acct.Kind)
		if err != nil {
			return core.Money{}, err
		}
		if !s.IncludeInNetWorth() {
			continue
		}
		total += s.Balance(acct, txns).Cents
	}
	return core.NewMoney(total), nil
}

// MonthOverview aggregates settled expenses for a calendar month by
// category, most expensive category first.
func MonthOverview(txns []core.Transaction, year int, month int) core.MonthOverview {
	overview := core.MonthOverview{Year: year, Month: month}

	byCategory := make(map[string]int64)
	for _, t := range txns {
		if t.Kind != core.Expense || !t.Settled {
			continue
		}
		if t.OccurredAt.Year() != year || int(t.OccurredAt.Month()) != month {
			continue
		}
		overview.Total = overview.Total.Add(t.Amount)
		byCategory[t.Category] += t.Amount.Cents
	}

	for name, cents := range byCategory {
		overview.ByCategory = append(overview.ByCategory, core.CategoryAmount{
			Name:   name,
			Amount: core.NewMoney(cents),
		})
	}
	sort.Slice(overview.ByCategory, func(i, j int) bool {
		if overview.ByCategory[i].Amount.Cents != overview.ByCategory[j].Amount.Cents {
			return overview.ByCategory[i].Amount.Cents > overview.ByCategory[j].Amount.Cents
		}
		return overview.ByCategory[i].Name < overview.ByCategory[j].Name
	})
	return overview
}
