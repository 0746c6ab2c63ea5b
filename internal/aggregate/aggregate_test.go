package aggregate

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"autofin/internal/core"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func tx(id, date, category, amount string, kind core.Kind) core.Transaction {
	d, err := core.ParseDate(date)
	if err != nil {
		panic(err)
	}
	return core.Transaction{ID: id, Date: d, Category: category, Description: id, Amount: dec(amount), Kind: kind}
}

func march() core.DateRange {
	return core.DateRange{Start: core.NewDate(2025, 3, 1), End: core.NewDate(2025, 3, 31)}
}

func sample() []core.Transaction {
	return []core.Transaction{
		tx("a", "2025-03-01", "Mercado", "50.00", core.Expense),
		tx("b", "2025-03-01", "mercado", "10.00", core.Expense),
		tx("c", "2025-03-15", "Lazer", "30.00", core.Expense),
		tx("d", "2025-03-15", core.IncomeCategory, "200.00", core.Income),
		tx("e", "2025-04-01", "Mercado", "999.00", core.Expense),
		tx("f", "2025-03-31", "Mercado", "5.25", core.Expense),
	}
}

func TestByCategory(t *testing.T) {
	got, err := ByCategory(sample(), march())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := map[string]string{"Mercado": "55.25", "mercado": "10", "Lazer": "30"}
	if len(got) != len(want) {
		t.Fatalf("expected %d categories, got %v", len(want), got)
	}
	for c, amount := range want {
		if !got[c].Equal(dec(amount)) {
			t.Fatalf("%s expected %s, got %s", c, amount, got[c])
		}
	}
}

func TestByCategorySumMatchesExpenses(t *testing.T) {
	ranges := []core.DateRange{
		march(),
		{Start: core.NewDate(2025, 3, 1), End: core.NewDate(2025, 3, 1)},
		{Start: core.NewDate(2025, 3, 10), End: core.NewDate(2025, 4, 30)},
		{Start: core.NewDate(2024, 1, 1), End: core.NewDate(2024, 1, 31)},
	}
	for _, r := range ranges {
		totals, err := ByCategory(sample(), r)
		if err != nil {
			t.Fatalf("%s: %v", r, err)
		}
		sum := decimal.Zero
		for _, v := range totals {
			sum = sum.Add(v)
		}
		if want := Total(sample(), r, core.Expense); !sum.Equal(want) {
			t.Fatalf("%s: category sum %s != expense sum %s", r, sum, want)
		}
	}
}

func TestSortedCategories(t *testing.T) {
	got := SortedCategories(map[string]decimal.Decimal{
		"b": dec("10"),
		"a": dec("10"),
		"c": dec("30"),
	})
	order := []string{"c", "a", "b"}
	for i, c := range order {
		if got[i].Category != c {
			t.Fatalf("position %d expected %s, got %+v", i, c, got)
		}
	}
}

func TestByDayLength(t *testing.T) {
	cases := []struct {
		r    core.DateRange
		days int
	}{
		{march(), 31},
		{core.DateRange{Start: core.NewDate(2024, 2, 1), End: core.NewDate(2024, 2, 29)}, 29},
		{core.DateRange{Start: core.NewDate(2025, 2, 1), End: core.NewDate(2025, 2, 28)}, 28},
		{core.DateRange{Start: core.NewDate(2025, 4, 10), End: core.NewDate(2025, 4, 10)}, 30},
	}
	for _, tc := range cases {
		for _, txs := range [][]core.Transaction{nil, sample()} {
			got, err := ByDay(txs, tc.r)
			if err != nil {
				t.Fatalf("%s: %v", tc.r, err)
			}
			if len(got) != tc.days {
				t.Fatalf("%s: expected %d buckets, got %d", tc.r, tc.days, len(got))
			}
		}
	}
}

func TestByDayBuckets(t *testing.T) {
	got, err := ByDay(sample(), march())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got[0].Equal(dec("60")) || !got[14].Equal(dec("30")) || !got[30].Equal(dec("5.25")) {
		t.Fatalf("unexpected buckets: day1=%s day15=%s day31=%s", got[0], got[14], got[30])
	}
	if !got[1].IsZero() {
		t.Fatalf("expected empty day 2, got %s", got[1])
	}

	incomes, err := IncomeByDay(sample(), march())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !incomes[14].Equal(dec("200")) {
		t.Fatalf("expected income on day 15, got %s", incomes[14])
	}
}

func TestByDaySkipsDaysMissingFromReference(t *testing.T) {
	r := core.DateRange{Start: core.NewDate(2025, 2, 1), End: core.NewDate(2025, 3, 31)}
	txs := []core.Transaction{
		tx("x", "2025-03-31", "Mercado", "10", core.Expense),
		tx("y", "2025-03-28", "Mercado", "7", core.Expense),
	}
	got, err := ByDay(txs, r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 28 || !got[27].Equal(dec("7")) {
		t.Fatalf("unexpected buckets %v", got)
	}
}

func TestEmptyRangeRejected(t *testing.T) {
	r := core.DateRange{Start: core.NewDate(2025, 3, 2), End: core.NewDate(2025, 3, 1)}
	if _, err := ByCategory(sample(), r); !errors.Is(err, core.ErrEmptyRange) {
		t.Fatalf("ByCategory expected ErrEmptyRange, got %v", err)
	}
	if _, err := ByDay(sample(), r); !errors.Is(err, core.ErrEmptyRange) {
		t.Fatalf("ByDay expected ErrEmptyRange, got %v", err)
	}
	if _, err := DailyReport(sample(), r); !errors.Is(err, core.ErrEmptyRange) {
		t.Fatalf("DailyReport expected ErrEmptyRange, got %v", err)
	}
	var ere *core.EmptyRangeError
	if _, err := IncomeByDay(nil, r); !errors.As(err, &ere) {
		t.Fatalf("expected *EmptyRangeError, got %v", err)
	}
}

func TestTopN(t *testing.T) {
	txs := []core.Transaction{
		tx("1", "2025-03-01", "A", "10", core.Expense),
		tx("2", "2025-03-02", "A", "30", core.Expense),
		tx("3", "2025-03-03", "A", "10", core.Expense),
		tx("4", "2025-03-04", "A", "30", core.Expense),
		tx("5", "2025-03-05", "A", "20", core.Expense),
	}
	got := TopN(txs, 4)
	ids := ""
	for _, tr := range got {
		ids += tr.ID
	}
	if ids != "2451" {
		t.Fatalf("expected stable order 2451, got %s", ids)
	}
	if txs[0].ID != "1" || txs[1].ID != "2" {
		t.Fatalf("input was mutated")
	}
	if len(TopN(txs, 10)) != 5 {
		t.Fatalf("expected all transactions when n exceeds input")
	}
	if got := TopN(txs, 0); got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice, got %v", got)
	}
}

func TestTopExpenses(t *testing.T) {
	got := TopExpenses(nil, 3)
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice, got %v", got)
	}
	got = TopExpenses(sample(), 3)
	if len(got) != 3 || got[0].ID != "e" || got[1].ID != "a" || got[2].ID != "c" {
		t.Fatalf("unexpected top expenses %+v", got)
	}
}

func TestLastDays(t *testing.T) {
	today := core.NewDate(2025, 3, 10)
	txs := []core.Transaction{
		tx("old", "2025-03-03", "A", "1", core.Expense),
		tx("edge", "2025-03-04", "A", "1", core.Expense),
		tx("today", "2025-03-10", "A", "1", core.Expense),
		tx("future", "2025-03-11", "A", "1", core.Expense),
	}
	got := LastDays(txs, today, 7)
	if len(got) != 2 || got[0].ID != "edge" || got[1].ID != "today" {
		t.Fatalf("unexpected window %+v", got)
	}
	if got := LastDays(txs, today, 0); len(got) != 0 {
		t.Fatalf("expected empty window")
	}
}
