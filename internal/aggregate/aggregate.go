// Package aggregate buckets transactions by category and by day over a date
// range. Every function is pure: inputs are never mutated.
package aggregate

import (
	"cmp"
	"errors"
	"slices"

	"github.com/shopspring/decimal"

	"autofin/internal/core"
)

// CategoryTotal is one slice of the category breakdown.
type CategoryTotal struct {
	Category string          `json:"category"`
	Amount   decimal.Decimal `json:"amount"`
}

// ByCategory sums expenses inside r per exact category label. Incomes are
// ignored.
func ByCategory(txs []core.Transaction, r core.DateRange) (map[string]decimal.Decimal, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	out := make(map[string]decimal.Decimal)
	for _, t := range txs {
		if !t.IsExpense() || !r.Contains(t.Date) {
			continue
		}
		out[t.Category] = out[t.Category].Add(t.Amount)
	}
	return out, nil
}

// SortedCategories orders totals by amount descending, then by name.
func SortedCategories(totals map[string]decimal.Decimal) []CategoryTotal {
	out := make([]CategoryTotal, 0, len(totals))
	for c, a := range totals {
		out = append(out, CategoryTotal{Category: c, Amount: a})
	}
	slices.SortFunc(out, func(a, b CategoryTotal) int {
		if c := b.Amount.Cmp(a.Amount); c != 0 {
			return c
		}
		return cmp.Compare(a.Category, b.Category)
	})
	return out
}

// ByDay returns one expense total per day of r's reference month. Bucket i
// holds day i+1. Days that do not exist in the reference month are skipped.
func ByDay(txs []core.Transaction, r core.DateRange) ([]decimal.Decimal, error) {
	return byDay(txs, r, core.Expense)
}

// IncomeByDay is ByDay for incomes.
func IncomeByDay(txs []core.Transaction, r core.DateRange) ([]decimal.Decimal, error) {
	return byDay(txs, r, core.Income)
}

func byDay(txs []core.Transaction, r core.DateRange, kind core.Kind) ([]decimal.Decimal, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	ref := r.Reference()
	buckets := make([]decimal.Decimal, ref.Days())
	for i := range buckets {
		buckets[i] = decimal.Zero
	}
	for _, t := range txs {
		if t.Kind != kind || !r.Contains(t.Date) {
			continue
		}
		day, err := core.BucketOf(t.Date, ref)
		if errors.Is(err, core.ErrDayOutOfBucket) {
			continue
		}
		if err != nil {
			return nil, err
		}
		buckets[day-1] = buckets[day-1].Add(t.Amount)
	}
	return buckets, nil
}

// TopN returns the n largest transactions by amount. Ties keep input order.
func TopN(txs []core.Transaction, n int) []core.Transaction {
	if n <= 0 || len(txs) == 0 {
		return []core.Transaction{}
	}
	sorted := slices.Clone(txs)
	slices.SortStableFunc(sorted, func(a, b core.Transaction) int {
		return b.Amount.Cmp(a.Amount)
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// TopExpenses is TopN restricted to expenses.
func TopExpenses(txs []core.Transaction, n int) []core.Transaction {
	expenses, _ := core.SplitByKind(txs)
	return TopN(expenses, n)
}

// LastDays keeps the transactions dated in [today-(days-1), today].
func LastDays(txs []core.Transaction, today core.Date, days int) []core.Transaction {
	out := []core.Transaction{}
	if days <= 0 {
		return out
	}
	window := core.DateRange{Start: today.AddDays(-(days - 1)), End: today}
	for _, t := range txs {
		if window.Contains(t.Date) {
			out = append(out, t)
		}
	}
	return out
}

// Total sums the amounts of txs of the given kind inside r.
func Total(txs []core.Transaction, r core.DateRange, kind core.Kind) decimal.Decimal {
	total := decimal.Zero
	for _, t := range txs {
		if t.Kind == kind && r.Contains(t.Date) {
			total = total.Add(t.Amount)
		}
	}
	return total
}
