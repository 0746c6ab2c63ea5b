package dashboard

import (
	"github.com/shopspring/decimal"

	"autofin/internal/aggregate"
	"autofin/internal/balance"
	"autofin/internal/core"
)

const (
	topCount   = 3
	weekLength = 7
)

// View is everything the dashboard page shows for one range.
type View struct {
	Range           core.DateRange
	Today           core.Date
	Balance         balance.Result
	Sparkline       []decimal.Decimal
	Categories      []aggregate.CategoryTotal
	DailyExpenses   []decimal.Decimal
	TopWeek         []core.Transaction
	TopPeriod       []core.Transaction
	RecurringIncome decimal.Decimal
	Display         Display
}

// Display holds the amounts preformatted for the UI.
type Display struct {
	Balance         string
	Incomes         string
	Expenses        string
	RecurringIncome string
}

// Inputs are the fetched data a View is computed from.
type Inputs struct {
	Transactions []core.Transaction
	Config       *core.SalaryConfig
	Recurring    []core.RecurringIncome
}

// Build computes the view. It is pure and fails like balance.Compute.
func Build(in Inputs, r core.DateRange, today core.Date) (View, error) {
	bin := balance.NewInputs(in.Transactions, in.Config, r, today)

	res, err := balance.Compute(bin)
	if err != nil {
		return View{}, err
	}
	spark, err := balance.Sparkline(bin)
	if err != nil {
		return View{}, err
	}
	byCategory, err := aggregate.ByCategory(bin.Expenses, r)
	if err != nil {
		return View{}, err
	}
	daily, err := aggregate.ByDay(bin.Expenses, r)
	if err != nil {
		return View{}, err
	}
	recurring := aggregate.SumRecurringIncome(in.Recurring)
	// Transactions may reach back into the previous cycle; the lists only
	// show the range itself.
	periodExpenses := inRange(bin.Expenses, r)

	return View{
		Range:           r,
		Today:           today,
		Balance:         res,
		Sparkline:       spark,
		Categories:      aggregate.SortedCategories(byCategory),
		DailyExpenses:   daily,
		TopWeek:         aggregate.TopN(aggregate.LastDays(periodExpenses, today, weekLength), topCount),
		TopPeriod:       aggregate.TopExpenses(periodExpenses, topCount),
		RecurringIncome: recurring,
		Display: Display{
			Balance:         core.FormatAmountForDisplay(res.Balance),
			Incomes:         core.FormatAmountForDisplay(res.IncomeTotal),
			Expenses:        core.FormatAmountForDisplay(res.ExpenseTotal),
			RecurringIncome: core.FormatAmountForDisplay(recurring),
		},
	}, nil
}

func inRange(txs []core.Transaction, r core.DateRange) []core.Transaction {
	out := make([]core.Transaction, 0, len(txs))
	for _, t := range txs {
		if r.Contains(t.Date) {
			out = append(out, t)
		}
	}
	return out
}
