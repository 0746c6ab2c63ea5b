package aggregate

import (
	"testing"

	"github.com/shopspring/decimal"

	"autofin/internal/core"
)

func TestDailyReport(t *testing.T) {
	groups, err := DailyReport(sample(), march())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(groups) != 3 {
		t.Fatalf("expected 3 days, got %d", len(groups))
	}
	wantDays := []string{"2025-03-31", "2025-03-15", "2025-03-01"}
	for i, d := range wantDays {
		if groups[i].Date.String() != d {
			t.Fatalf("group %d expected %s, got %s", i, d, groups[i].Date)
		}
	}
	first := groups[2]
	if len(first.Transactions) != 2 || first.Transactions[0].ID != "a" || !first.Total.Equal(dec("60")) {
		t.Fatalf("unexpected first day %+v", first)
	}
	// Incomes never show up in the expense report.
	if len(groups[1].Transactions) != 1 || groups[1].Transactions[0].ID != "c" {
		t.Fatalf("unexpected mid month day %+v", groups[1])
	}
}

func TestRemoveFromReport(t *testing.T) {
	groups, err := DailyReport(sample(), march())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	after := RemoveFromReport(groups, "a")
	if len(after) != 3 || !after[2].Total.Equal(dec("10")) || len(after[2].Transactions) != 1 {
		t.Fatalf("unexpected report after removal %+v", after[2])
	}
	if len(groups[2].Transactions) != 2 || !groups[2].Total.Equal(dec("60")) {
		t.Fatalf("original report was modified")
	}

	after = RemoveFromReport(after, "c")
	if len(after) != 2 || after[1].Date.String() != "2025-03-01" {
		t.Fatalf("expected emptied day to be dropped, got %+v", after)
	}

	same := RemoveFromReport(groups, "missing")
	if len(same) != len(groups) {
		t.Fatalf("unknown id should leave report untouched")
	}
}

func TestSumRecurringIncome(t *testing.T) {
	list := []core.RecurringIncome{
		{Name: "aluguel", Amount: dec("800"), DayOfMonth: 5},
		{Name: "freela", Amount: dec("450.50"), DayOfMonth: 20},
	}
	if got := SumRecurringIncome(list); !got.Equal(dec("1250.50")) {
		t.Fatalf("expected 1250.50, got %s", got)
	}
	if !SumRecurringIncome(nil).IsZero() {
		t.Fatalf("expected zero for empty list")
	}
}

func TestCommittedInMonth(t *testing.T) {
	costs := []core.FixedCost{
		{Description: "internet", Amount: dec("100"), Type: core.FixedRecurring, DueDay: 10},
		{Description: "tv", Amount: dec("250"), Type: core.FixedInstallment, EndDate: core.NewDate(2025, 5, 20)},
	}
	may := core.YearMonth{Year: 2025, Month: 5}
	june := core.YearMonth{Year: 2025, Month: 6}
	if got := CommittedInMonth(costs, may); !got.Equal(dec("350")) {
		t.Fatalf("expected 350, got %s", got)
	}
	if got := CommittedInMonth(costs, june); !got.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("expected 100, got %s", got)
	}
}
