// Package balance computes the dashboard balance.
//
// When the active range is the current calendar month the balance is the
// "restante": what is left of the current paycheck cycle. Any other range
// yields the plain net of the period.
package balance

import (
	"github.com/shopspring/decimal"

	"autofin/internal/aggregate"
	"autofin/internal/core"
	"autofin/internal/cycle"
)

type Mode string

const (
	ModeRestante Mode = "restante"
	ModePeriod   Mode = "period"
)

// Inputs bundles everything a balance evaluation depends on. Config is nil
// until the salary configuration has been loaded.
type Inputs struct {
	Expenses []core.Transaction
	Incomes  []core.Transaction
	Config   *core.SalaryConfig
	Range    core.DateRange
	Today    core.Date
}

// NewInputs splits a mixed transaction list by kind.
func NewInputs(txs []core.Transaction, cfg *core.SalaryConfig, r core.DateRange, today core.Date) Inputs {
	expenses, incomes := core.SplitByKind(txs)
	return Inputs{Expenses: expenses, Incomes: incomes, Config: cfg, Range: r, Today: today}
}

type Result struct {
	Mode    Mode
	Balance decimal.Decimal
	// Cycle is set in restante mode only.
	Cycle        *cycle.PaycheckCycle
	IncomeTotal  decimal.Decimal
	ExpenseTotal decimal.Decimal
}

// IsDefaultRange reports whether r is exactly the calendar month of today.
func IsDefaultRange(r core.DateRange, today core.Date) bool {
	return r.Equal(core.MonthOf(today))
}

func (in Inputs) check() error {
	if in.Config == nil {
		return core.ErrConfigNotReady
	}
	return in.Range.Validate()
}

// Compute returns the balance for in. It fails with core.ErrConfigNotReady
// before the salary configuration is known and with a *core.EmptyRangeError
// for inverted ranges.
func Compute(in Inputs) (Result, error) {
	if err := in.check(); err != nil {
		return Result{}, err
	}

	if !IsDefaultRange(in.Range, in.Today) {
		incomes := aggregate.Total(in.Incomes, in.Range, core.Income)
		expenses := aggregate.Total(in.Expenses, in.Range, core.Expense)
		return Result{
			Mode:         ModePeriod,
			Balance:      incomes.Sub(expenses),
			IncomeTotal:  incomes,
			ExpenseTotal: expenses,
		}, nil
	}

	c := cycle.Resolve(*in.Config, in.Today)
	window := c.Window(in.Today)
	incomes := aggregate.Total(in.Incomes, window, core.Income)
	expenses := aggregate.Total(in.Expenses, window, core.Expense)
	return Result{
		Mode:         ModeRestante,
		Balance:      c.Total.Add(incomes).Sub(expenses),
		Cycle:        &c,
		IncomeTotal:  incomes,
		ExpenseTotal: expenses,
	}, nil
}

// Sparkline returns the running balance for every day of the range's
// reference month. It starts from the cycle total in restante mode and from
// zero otherwise; each day adds that day's incomes and subtracts its
// expenses.
func Sparkline(in Inputs) ([]decimal.Decimal, error) {
	if err := in.check(); err != nil {
		return nil, err
	}

	running := decimal.Zero
	if IsDefaultRange(in.Range, in.Today) {
		running = cycle.Resolve(*in.Config, in.Today).Total
	}

	expenses, err := aggregate.ByDay(in.Expenses, in.Range)
	if err != nil {
		return nil, err
	}
	incomes, err := aggregate.IncomeByDay(in.Incomes, in.Range)
	if err != nil {
		return nil, err
	}

	series := make([]decimal.Decimal, len(expenses))
	for i := range series {
		running = running.Add(incomes[i]).Sub(expenses[i])
		series[i] = running
	}
	return series, nil
}
