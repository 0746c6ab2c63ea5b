package aggregate

import (
	"slices"

	"github.com/shopspring/decimal"

	"autofin/internal/core"
)

// DayGroup is one day of the daily expense report.
type DayGroup struct {
	Date         core.Date          `json:"date"`
	Transactions []core.Transaction `json:"transactions"`
	Total        decimal.Decimal    `json:"total"`
}

// DailyReport groups the expenses inside r per calendar day, newest day
// first. Transactions keep input order within a day.
func DailyReport(txs []core.Transaction, r core.DateRange) ([]DayGroup, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	index := make(map[string]int)
	groups := []DayGroup{}
	for _, t := range txs {
		if !t.IsExpense() || !r.Contains(t.Date) {
			continue
		}
		key := t.Date.String()
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, DayGroup{Date: t.Date, Total: decimal.Zero})
		}
		groups[i].Transactions = append(groups[i].Transactions, t)
		groups[i].Total = groups[i].Total.Add(t.Amount)
	}
	slices.SortFunc(groups, func(a, b DayGroup) int {
		return b.Date.Compare(a.Date)
	})
	return groups, nil
}

// RemoveFromReport drops transaction id from the report, subtracting its
// amount from the day total. A day left without transactions disappears.
// groups is not modified.
func RemoveFromReport(groups []DayGroup, id string) []DayGroup {
	out := make([]DayGroup, 0, len(groups))
	for _, g := range groups {
		i := slices.IndexFunc(g.Transactions, func(t core.Transaction) bool { return t.ID == id })
		if i < 0 {
			out = append(out, g)
			continue
		}
		removed := g.Transactions[i]
		rest := slices.Delete(slices.Clone(g.Transactions), i, i+1)
		if len(rest) == 0 {
			continue
		}
		out = append(out, DayGroup{
			Date:         g.Date,
			Transactions: rest,
			Total:        g.Total.Sub(removed.Amount),
		})
	}
	return out
}

// SumRecurringIncome adds up every recurring income.
func SumRecurringIncome(list []core.RecurringIncome) decimal.Decimal {
	total := decimal.Zero
	for _, ri := range list {
		total = total.Add(ri.Amount)
	}
	return total
}

// CommittedInMonth sums the fixed costs active in ym.
func CommittedInMonth(costs []core.FixedCost, ym core.YearMonth) decimal.Decimal {
	total := decimal.Zero
	for _, fc := range costs {
		if fc.ActiveIn(ym) {
			total = total.Add(fc.Amount)
		}
	}
	return total
}
