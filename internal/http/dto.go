package http

import (
	"time"

	"github.com/shopspring/decimal"

	"autofin/internal/aggregate"
	"autofin/internal/core"
	"autofin/internal/cycle"
	"autofin/internal/dashboard"
	"autofin/internal/services"
)

// Amounts leave the service as fixed two-decimal strings so clients never
// see binary floating point.

type transactionJSON struct {
	ID          string `json:"id"`
	Date        string `json:"date"`
	Category    string `json:"category"`
	Description string `json:"description"`
	Amount      string `json:"amount"`
	Display     string `json:"display"`
	Kind        string `json:"kind"`
}

type cycleJSON struct {
	Start  string `json:"start"`
	Income string `json:"income"`
	Extra  string `json:"extra"`
	Total  string `json:"total"`
}

type balanceJSON struct {
	Mode         string     `json:"mode"`
	Amount       string     `json:"amount"`
	IncomeTotal  string     `json:"incomeTotal"`
	ExpenseTotal string     `json:"expenseTotal"`
	Cycle        *cycleJSON `json:"cycle"`
}

type categoryJSON struct {
	Category string `json:"category"`
	Amount   string `json:"amount"`
}

type displayJSON struct {
	Balance         string `json:"balance"`
	Incomes         string `json:"incomes"`
	Expenses        string `json:"expenses"`
	RecurringIncome string `json:"recurringIncome"`
}

type dashboardJSON struct {
	Start           string            `json:"start"`
	End             string            `json:"end"`
	Today           string            `json:"today"`
	Balance         balanceJSON       `json:"balance"`
	Sparkline       []string          `json:"sparkline"`
	Categories      []categoryJSON    `json:"categories"`
	DailyExpenses   []string          `json:"dailyExpenses"`
	TopWeek         []transactionJSON `json:"topWeek"`
	TopPeriod       []transactionJSON `json:"topPeriod"`
	RecurringIncome string            `json:"recurringIncome"`
	Display         displayJSON       `json:"display"`
}

// dashboardStateJSON reports the latest load. Dashboard is set when ready,
// Error and ErrorCode when failed.
type dashboardStateJSON struct {
	Status    string         `json:"status"`
	Dashboard *dashboardJSON `json:"dashboard,omitempty"`
	Error     string         `json:"error,omitempty"`
	ErrorCode int            `json:"errorCode,omitempty"`
}

type dayGroupJSON struct {
	Date         string            `json:"date"`
	Total        string            `json:"total"`
	Display      string            `json:"display"`
	Transactions []transactionJSON `json:"transactions"`
}

type reportJSON struct {
	Start string         `json:"start"`
	End   string         `json:"end"`
	Days  []dayGroupJSON `json:"days"`
}

type chargeJSON struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Type        string `json:"type"`
	Amount      string `json:"amount"`
	Display     string `json:"display"`
	Due         string `json:"due"`
}

type upcomingJSON struct {
	Today   string       `json:"today"`
	Days    int          `json:"days"`
	Total   string       `json:"total"`
	Charges []chargeJSON `json:"charges"`
}

type exportJSON struct {
	ID          string    `json:"id"`
	Status      string    `json:"status"`
	Start       string    `json:"start"`
	End         string    `json:"end"`
	Rows        int       `json:"rows"`
	SheetsRef   string    `json:"sheetsRef,omitempty"`
	Error       string    `json:"error,omitempty"`
	RequestedAt time.Time `json:"requestedAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type createdJSON struct {
	ID string `json:"id"`
}

type categoryHistoryJSON struct {
	Category     string            `json:"category"`
	Total        string            `json:"total"`
	Display      string            `json:"display"`
	Transactions []transactionJSON `json:"transactions"`
}

type categoriesJSON struct {
	Categories []string `json:"categories"`
}

type recurringIncomeJSON struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Amount     string `json:"amount"`
	DayOfMonth int    `json:"dayOfMonth"`
}

type fixedCostJSON struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Type        string `json:"type"`
	Amount      string `json:"amount"`
	Display     string `json:"display"`
	DueDay      int    `json:"dueDay,omitempty"`
	EndDate     string `json:"endDate,omitempty"`
}

// fixedCostsJSON lists the charges active in Month; Committed is their sum.
type fixedCostsJSON struct {
	Month     string          `json:"month"`
	Committed string          `json:"committed"`
	Display   string          `json:"display"`
	Costs     []fixedCostJSON `json:"costs"`
}

func fixed(d decimal.Decimal) string { return d.StringFixed(2) }

func fixedAll(ds []decimal.Decimal) []string {
	out := make([]string, len(ds))
	for i, d := range ds {
		out[i] = fixed(d)
	}
	return out
}

func toTransactionJSON(t core.Transaction) transactionJSON {
	return transactionJSON{
		ID:          t.ID,
		Date:        t.Date.String(),
		Category:    t.Category,
		Description: t.Description,
		Amount:      fixed(t.Amount),
		Display:     core.FormatAmountForDisplay(t.Amount),
		Kind:        string(t.Kind),
	}
}

func toTransactionsJSON(txs []core.Transaction) []transactionJSON {
	out := make([]transactionJSON, len(txs))
	for i, t := range txs {
		out[i] = toTransactionJSON(t)
	}
	return out
}

func toCycleJSON(c *cycle.PaycheckCycle) *cycleJSON {
	if c == nil {
		return nil
	}
	return &cycleJSON{
		Start:  c.Start.String(),
		Income: fixed(c.Income),
		Extra:  fixed(c.Extra),
		Total:  fixed(c.Total),
	}
}

func toCategoriesJSON(cats []aggregate.CategoryTotal) []categoryJSON {
	out := make([]categoryJSON, len(cats))
	for i, c := range cats {
		out[i] = categoryJSON{Category: c.Category, Amount: fixed(c.Amount)}
	}
	return out
}

func toDashboardJSON(v dashboard.View) dashboardJSON {
	return dashboardJSON{
		Start: v.Range.Start.String(),
		End:   v.Range.End.String(),
		Today: v.Today.String(),
		Balance: balanceJSON{
			Mode:         string(v.Balance.Mode),
			Amount:       fixed(v.Balance.Balance),
			IncomeTotal:  fixed(v.Balance.IncomeTotal),
			ExpenseTotal: fixed(v.Balance.ExpenseTotal),
			Cycle:        toCycleJSON(v.Balance.Cycle),
		},
		Sparkline:       fixedAll(v.Sparkline),
		Categories:      toCategoriesJSON(v.Categories),
		DailyExpenses:   fixedAll(v.DailyExpenses),
		TopWeek:         toTransactionsJSON(v.TopWeek),
		TopPeriod:       toTransactionsJSON(v.TopPeriod),
		RecurringIncome: fixed(v.RecurringIncome),
		Display: displayJSON{
			Balance:         v.Display.Balance,
			Incomes:         v.Display.Incomes,
			Expenses:        v.Display.Expenses,
			RecurringIncome: v.Display.RecurringIncome,
		},
	}
}

func toReportJSON(r core.DateRange, groups []aggregate.DayGroup) reportJSON {
	days := make([]dayGroupJSON, len(groups))
	for i, g := range groups {
		days[i] = dayGroupJSON{
			Date:         g.Date.String(),
			Total:        fixed(g.Total),
			Display:      core.FormatAmountForDisplay(g.Total),
			Transactions: toTransactionsJSON(g.Transactions),
		}
	}
	return reportJSON{Start: r.Start.String(), End: r.End.String(), Days: days}
}

func toExportJSON(rec core.ExportRecord) exportJSON {
	return exportJSON{
		ID:          rec.ID,
		Status:      string(rec.Status),
		Start:       rec.Range.Start.String(),
		End:         rec.Range.End.String(),
		Rows:        rec.Rows,
		SheetsRef:   rec.SheetsRef,
		Error:       rec.Error,
		RequestedAt: rec.RequestedAt,
		UpdatedAt:   rec.UpdatedAt,
	}
}

func toUpcomingJSON(today core.Date, days int, charges []services.Charge) upcomingJSON {
	out := upcomingJSON{Today: today.String(), Days: days, Charges: make([]chargeJSON, len(charges))}
	total := decimal.Zero
	for i, c := range charges {
		total = total.Add(c.Cost.Amount)
		out.Charges[i] = chargeJSON{
			ID:          c.Cost.ID,
			Description: c.Cost.Description,
			Category:    c.Cost.Category,
			Type:        string(c.Cost.Type),
			Amount:      fixed(c.Cost.Amount),
			Display:     core.FormatAmountForDisplay(c.Cost.Amount),
			Due:         c.Due.String(),
		}
	}
	out.Total = fixed(total)
	return out
}

func toCategoryHistoryJSON(category string, txs []core.Transaction) categoryHistoryJSON {
	total := decimal.Zero
	for _, t := range txs {
		total = total.Add(t.Amount)
	}
	return categoryHistoryJSON{
		Category:     category,
		Total:        fixed(total),
		Display:      core.FormatAmountForDisplay(total),
		Transactions: toTransactionsJSON(txs),
	}
}

func toRecurringIncomeJSON(ri core.RecurringIncome) recurringIncomeJSON {
	return recurringIncomeJSON{ID: ri.ID, Name: ri.Name, Amount: fixed(ri.Amount), DayOfMonth: ri.DayOfMonth}
}

func toFixedCostJSON(fc core.FixedCost) fixedCostJSON {
	out := fixedCostJSON{
		ID:          fc.ID,
		Description: fc.Description,
		Category:    fc.Category,
		Type:        string(fc.Type),
		Amount:      fixed(fc.Amount),
		Display:     core.FormatAmountForDisplay(fc.Amount),
		DueDay:      fc.DueDay,
	}
	if !fc.EndDate.IsZero() {
		out.EndDate = fc.EndDate.String()
	}
	return out
}

func toFixedCostsJSON(ym core.YearMonth, costs []core.FixedCost) fixedCostsJSON {
	committed := aggregate.CommittedInMonth(costs, ym)
	out := fixedCostsJSON{
		Month:     ym.String(),
		Committed: fixed(committed),
		Display:   core.FormatAmountForDisplay(committed),
		Costs:     []fixedCostJSON{},
	}
	for _, fc := range costs {
		if fc.ActiveIn(ym) {
			out.Costs = append(out.Costs, toFixedCostJSON(fc))
		}
	}
	return out
}
