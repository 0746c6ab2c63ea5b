// Package cycle resolves the paycheck cycle a given day belongs to.
package cycle

import (
	"github.com/shopspring/decimal"

	"autofin/internal/core"
)

const (
	midMonthPayday = 15
	endMonthPayday = 30
)

// PaycheckCycle is derived on every evaluation and never stored.
type PaycheckCycle struct {
	Start  core.Date
	Income decimal.Decimal
	Extra  decimal.Decimal
	Total  decimal.Decimal
}

// Resolve returns the cycle containing today.
//
// Paydays fall on day 30 (and day 15 for split salaries). "Day 30" of a month
// shorter than 30 days rolls over into the next month, so in March a whole
// salary cycle may start on March 1st or 2nd.
func Resolve(cfg core.SalaryConfig, today core.Date) PaycheckCycle {
	y, m, d := today.Year(), today.Month(), today.Day()

	var start core.Date
	income := decimal.Zero

	switch cfg.Type {
	case core.SalaryWhole:
		income = cfg.WholeAmount
		if d < endMonthPayday {
			start = core.NewDate(y, m-1, endMonthPayday)
		} else {
			start = core.NewDate(y, m, endMonthPayday)
		}
	case core.SalarySplit:
		switch {
		case d < midMonthPayday:
			start = core.NewDate(y, m-1, endMonthPayday)
			income = cfg.Day30Amount
		case d < endMonthPayday:
			start = core.NewDate(y, m, midMonthPayday)
			income = cfg.Day15Amount
		default:
			start = core.NewDate(y, m, endMonthPayday)
			income = cfg.Day30Amount
		}
	default:
		start = today.FirstOfMonth()
	}

	return PaycheckCycle{
		Start:  start,
		Income: income,
		Extra:  cfg.ExtraIncomeTarget,
		Total:  income.Add(cfg.ExtraIncomeTarget),
	}
}

// Window is the span [Start, today] the restante balance is computed over.
// It is empty when an overflowed start lies after today.
func (c PaycheckCycle) Window(today core.Date) core.DateRange {
	return core.DateRange{Start: c.Start, End: today}
}
