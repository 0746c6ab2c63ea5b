package core

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	Expense Kind = "expense"
	Income  Kind = "income"
)

const (
	SalaryWhole SalaryType = "whole"
	SalarySplit SalaryType = "split"
)

const (
	FixedRecurring   FixedCostType = "recurring"
	FixedInstallment FixedCostType = "installment"
)

// IncomeCategory is the label the backend stores on manual incomes.
const IncomeCategory = "Receita"

type (
	Kind          string
	SalaryType    string
	FixedCostType string

	// Transaction is a single expense or income. Amount is always positive;
	// Kind carries the sign.
	Transaction struct {
		ID          string
		Date        Date
		Category    string
		Description string
		Amount      decimal.Decimal
		Kind        Kind
	}

	// SalaryConfig describes how the user is paid. Split salaries use the
	// day-15 and day-30 amounts, whole salaries use WholeAmount.
	SalaryConfig struct {
		Type              SalaryType
		WholeAmount       decimal.Decimal
		Day15Amount       decimal.Decimal
		Day30Amount       decimal.Decimal
		ExtraIncomeTarget decimal.Decimal
	}

	RecurringIncome struct {
		ID         string
		Name       string
		Amount     decimal.Decimal
		DayOfMonth int
	}

	// FixedCost is a fixed charge: either recurring on DueDay every month,
	// or an installment plan running until EndDate.
	FixedCost struct {
		ID          string
		Description string
		Amount      decimal.Decimal
		Category    string
		Type        FixedCostType
		DueDay      int
		EndDate     Date
	}
)

func (k Kind) IsValid() bool {
	return k == Expense || k == Income
}

func (t Transaction) IsExpense() bool { return t.Kind == Expense }

func (t Transaction) IsIncome() bool { return t.Kind == Income }

func (t Transaction) Validate() error {
	if t.Date.IsZero() {
		return errors.New("date cannot be zero")
	}
	if !t.Kind.IsValid() {
		return ErrInvalidKind
	}
	if !t.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if len(strings.TrimSpace(t.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(t.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	if t.IsExpense() && strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	return nil
}

func (s SalaryType) IsValid() bool {
	return s == SalaryWhole || s == SalarySplit
}

func (c SalaryConfig) Validate() error {
	if !c.Type.IsValid() {
		return errors.New("invalid salary type")
	}
	for _, v := range []decimal.Decimal{c.WholeAmount, c.Day15Amount, c.Day30Amount, c.ExtraIncomeTarget} {
		if v.IsNegative() {
			return ErrInvalidAmount
		}
	}
	return nil
}

func (ri RecurringIncome) Validate() error {
	if strings.TrimSpace(ri.Name) == "" {
		return errors.New("empty name")
	}
	if !ri.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if ri.DayOfMonth < 1 || ri.DayOfMonth > 31 {
		return ErrInvalidDay
	}
	return nil
}

func (fc FixedCost) Validate() error {
	if strings.TrimSpace(fc.Description) == "" {
		return ErrEmptyDescription
	}
	if !fc.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	switch fc.Type {
	case FixedRecurring:
		if fc.DueDay < 1 || fc.DueDay > 31 {
			return ErrInvalidDay
		}
	case FixedInstallment:
		if fc.EndDate.IsZero() {
			return errors.New("installment requires an end date")
		}
	default:
		return errors.New("invalid fixed cost type")
	}
	return nil
}

// ActiveIn reports whether the charge applies to the given month. Recurring
// charges always do; installments stop after the month of EndDate.
func (fc FixedCost) ActiveIn(ym YearMonth) bool {
	if fc.Type != FixedInstallment {
		return true
	}
	end := fc.EndDate.YearMonth()
	if ym.Year != end.Year {
		return ym.Year < end.Year
	}
	return ym.Month <= end.Month
}

// DueDateIn returns the day the charge falls due in the given month. Due
// days past the end of a short month are clamped to its last day.
func (fc FixedCost) DueDateIn(ym YearMonth) (Date, bool) {
	if !fc.ActiveIn(ym) {
		return Date{}, false
	}
	target := fc.DueDay
	if fc.Type == FixedInstallment {
		target = fc.EndDate.Day()
	}
	if last := ym.Days(); target > last {
		target = last
	}
	return NewDate(ym.Year, int(ym.Month), target), true
}

// SplitByKind separates expenses from incomes, preserving input order.
func SplitByKind(txs []Transaction) (expenses, incomes []Transaction) {
	for _, t := range txs {
		switch t.Kind {
		case Expense:
			expenses = append(expenses, t)
		case Income:
			incomes = append(incomes, t)
		}
	}
	return expenses, incomes
}
