package sheets

import (
	"context"

	"github.com/shopspring/decimal"

	"autofin/internal/aggregate"
	"autofin/internal/core"
)

// ReportWriter persists an exported daily report and returns a reference
// to where it landed.
type ReportWriter interface {
	WriteReport(ctx context.Context, r Report) (ref string, err error)
}

// Report is one export: the daily expense groups of a user's range.
type Report struct {
	ExportID string
	UserID   string
	Range    core.DateRange
	Days     []aggregate.DayGroup
}

// Line is one output row. Day totals are lines with Total set and no
// description.
type Line struct {
	Date        core.Date
	Category    string
	Description string
	Amount      decimal.Decimal
	Total       bool
}

// Lines flattens the report: each day's transactions followed by its total.
func (r Report) Lines() []Line {
	var out []Line
	for _, day := range r.Days {
		for _, t := range day.Transactions {
			out = append(out, Line{
				Date:        t.Date,
				Category:    t.Category,
				Description: t.Description,
				Amount:      t.Amount,
			})
		}
		out = append(out, Line{Date: day.Date, Amount: day.Total, Total: true})
	}
	return out
}
