// Package services provides orchestration on top of the core computations.
//
// This file implements the Strategy Pattern for fixed charge due dates.
// Each fixed cost type has its own checker that decides when the charge
// falls due next.

package services

import (
	"cmp"
	"fmt"
	"slices"

	"autofin/internal/core"
)

// DueChecker is the strategy interface for fixed charge due dates.
type DueChecker interface {
	// NextDue returns the first due date on or after from. ok is false when
	// the charge will not fall due again.
	NextDue(fc core.FixedCost, from core.Date) (due core.Date, ok bool)
}

// RecurringChecker handles charges due on the same day every month.
type RecurringChecker struct{}

// NextDue returns this month's due date, or next month's once it has passed.
func (RecurringChecker) NextDue(fc core.FixedCost, from core.Date) (core.Date, bool) {
	return nextDue(fc, from)
}

// InstallmentChecker handles installment plans. They fall due on the day of
// their end date every month up to and including the end month.
type InstallmentChecker struct{}

func (InstallmentChecker) NextDue(fc core.FixedCost, from core.Date) (core.Date, bool) {
	if fc.EndDate.IsZero() {
		return core.Date{}, false
	}
	return nextDue(fc, from)
}

func nextDue(fc core.FixedCost, from core.Date) (core.Date, bool) {
	if due, ok := fc.DueDateIn(from.YearMonth()); ok && due.OnOrAfter(from) {
		return due, true
	}
	next := from.LastOfMonth().AddDays(1).YearMonth()
	return fc.DueDateIn(next)
}

// dueStrategies maps fixed cost types to their checkers.
var dueStrategies = map[core.FixedCostType]DueChecker{
	core.FixedRecurring:   RecurringChecker{},
	core.FixedInstallment: InstallmentChecker{},
}

// GetDueChecker returns the checker for a fixed cost type.
func GetDueChecker(t core.FixedCostType) (DueChecker, error) {
	checker, ok := dueStrategies[t]
	if !ok {
		return nil, fmt.Errorf("unknown fixed cost type: %s", t)
	}
	return checker, nil
}

// RegisterDueChecker registers a checker for a new fixed cost type.
func RegisterDueChecker(t core.FixedCostType, checker DueChecker) {
	dueStrategies[t] = checker
}

// Charge is a fixed cost with its next due date.
type Charge struct {
	Cost core.FixedCost
	Due  core.Date
}

// UpcomingCharges lists the fixed costs falling due in [today, today+days-1],
// earliest first. Costs of unknown type are skipped.
func UpcomingCharges(costs []core.FixedCost, today core.Date, days int) []Charge {
	out := []Charge{}
	if days <= 0 {
		return out
	}
	last := today.AddDays(days - 1)
	for _, fc := range costs {
		checker, err := GetDueChecker(fc.Type)
		if err != nil {
			continue
		}
		due, ok := checker.NextDue(fc, today)
		if !ok || !due.OnOrBefore(last) {
			continue
		}
		out = append(out, Charge{Cost: fc, Due: due})
	}
	slices.SortStableFunc(out, func(a, b Charge) int {
		if c := a.Due.Compare(b.Due); c != 0 {
			return c
		}
		return cmp.Compare(a.Cost.Description, b.Cost.Description)
	})
	return out
}
