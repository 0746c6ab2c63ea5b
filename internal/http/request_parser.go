// Package http exposes the computed dashboard, the daily report and report
// exports as a small JSON API.
//
// This file holds the request parsing helpers shared by the handlers.

package http

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"autofin/internal/core"
)

const (
	// maxBodyBytes bounds JSON request bodies.
	maxBodyBytes = 4 << 10

	defaultUpcomingDays = 7
	maxUpcomingDays     = 62
)

// rangeRequest is the body of POST /api/exports.
type rangeRequest struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type transactionRequest struct {
	Date        string          `json:"date"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Kind        string          `json:"kind"`
}

type salaryConfigRequest struct {
	Type              string          `json:"type"`
	WholeAmount       decimal.Decimal `json:"wholeAmount"`
	Day15Amount       decimal.Decimal `json:"day15Amount"`
	Day30Amount       decimal.Decimal `json:"day30Amount"`
	ExtraIncomeTarget decimal.Decimal `json:"extraIncomeTarget"`
}

type recurringIncomeRequest struct {
	Name       string          `json:"name"`
	Amount     decimal.Decimal `json:"amount"`
	DayOfMonth int             `json:"dayOfMonth"`
}

type fixedCostRequest struct {
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category"`
	Type        string          `json:"type"`
	DueDay      int             `json:"dueDay"`
	EndDate     string          `json:"endDate"`
}

type categoryRequest struct {
	Name string `json:"name"`
}

// ParseRange reads start and end from the query. When both are absent the
// range defaults to today's month; a single missing end is invalid.
func ParseRange(query url.Values, today core.Date) (core.DateRange, error) {
	return parseRangeValues(query.Get("start"), query.Get("end"), today)
}

func parseRangeValues(start, end string, today core.Date) (core.DateRange, error) {
	start = strings.TrimSpace(start)
	end = strings.TrimSpace(end)
	if start == "" && end == "" {
		return core.MonthOf(today), nil
	}
	r, err := core.NewDateRange(start, end)
	if err != nil {
		return core.DateRange{}, err
	}
	if err := r.Validate(); err != nil {
		return core.DateRange{}, err
	}
	return r, nil
}

// ParseRangeBody decodes a {start, end} JSON body. An empty body means
// today's month.
func ParseRangeBody(r *http.Request, today core.Date) (core.DateRange, error) {
	var req rangeRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil && err != io.EOF {
		return core.DateRange{}, fmt.Errorf("%w: %v", errMalformedBody, err)
	}
	return parseRangeValues(req.Start, req.End, today)
}

// ParseDays reads the days query parameter for the upcoming charges window.
func ParseDays(query url.Values) (int, error) {
	v := strings.TrimSpace(query.Get("days"))
	if v == "" {
		return defaultUpcomingDays, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 || n > maxUpcomingDays {
		return 0, fmt.Errorf("%w: days must be between 1 and %d", errInvalidParam, maxUpcomingDays)
	}
	return n, nil
}

// ParseMonth reads month=YYYY-MM from the query, defaulting to today's.
func ParseMonth(query url.Values, today core.Date) (core.YearMonth, error) {
	v := strings.TrimSpace(query.Get("month"))
	if v == "" {
		return today.YearMonth(), nil
	}
	t, err := time.Parse("2006-01", v)
	if err != nil {
		return core.YearMonth{}, fmt.Errorf("%w: month must be YYYY-MM", errInvalidParam)
	}
	return core.YearMonth{Year: t.Year(), Month: t.Month()}, nil
}

// decodeBody decodes a required JSON body into T.
func decodeBody[T any](r *http.Request) (T, error) {
	var v T
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&v); err != nil {
		return v, fmt.Errorf("%w: %v", errMalformedBody, err)
	}
	return v, nil
}

func invalid(err error) error {
	return fmt.Errorf("%w: %w", errInvalidParam, err)
}

// ParseTransaction decodes a new transaction. A missing kind means an
// expense.
func ParseTransaction(r *http.Request) (core.Transaction, error) {
	req, err := decodeBody[transactionRequest](r)
	if err != nil {
		return core.Transaction{}, err
	}
	date, err := core.ParseDate(strings.TrimSpace(req.Date))
	if err != nil {
		return core.Transaction{}, err
	}
	kind := core.Kind(strings.TrimSpace(req.Kind))
	if kind == "" {
		kind = core.Expense
	}
	t := core.Transaction{
		Date:        date,
		Category:    strings.TrimSpace(req.Category),
		Description: strings.TrimSpace(req.Description),
		Amount:      req.Amount,
		Kind:        kind,
	}
	if err := t.Validate(); err != nil {
		return core.Transaction{}, invalid(err)
	}
	return t, nil
}

func ParseSalaryConfig(r *http.Request) (core.SalaryConfig, error) {
	req, err := decodeBody[salaryConfigRequest](r)
	if err != nil {
		return core.SalaryConfig{}, err
	}
	cfg := core.SalaryConfig{
		Type:              core.SalaryType(strings.TrimSpace(req.Type)),
		WholeAmount:       req.WholeAmount,
		Day15Amount:       req.Day15Amount,
		Day30Amount:       req.Day30Amount,
		ExtraIncomeTarget: req.ExtraIncomeTarget,
	}
	if err := cfg.Validate(); err != nil {
		return core.SalaryConfig{}, invalid(err)
	}
	return cfg, nil
}

func ParseRecurringIncome(r *http.Request) (core.RecurringIncome, error) {
	req, err := decodeBody[recurringIncomeRequest](r)
	if err != nil {
		return core.RecurringIncome{}, err
	}
	ri := core.RecurringIncome{Name: strings.TrimSpace(req.Name), Amount: req.Amount, DayOfMonth: req.DayOfMonth}
	if err := ri.Validate(); err != nil {
		return core.RecurringIncome{}, invalid(err)
	}
	return ri, nil
}

// ParseFixedCost decodes a fixed charge. endDate is only read for
// installments.
func ParseFixedCost(r *http.Request) (core.FixedCost, error) {
	req, err := decodeBody[fixedCostRequest](r)
	if err != nil {
		return core.FixedCost{}, err
	}
	fc := core.FixedCost{
		Description: strings.TrimSpace(req.Description),
		Amount:      req.Amount,
		Category:    strings.TrimSpace(req.Category),
		Type:        core.FixedCostType(strings.TrimSpace(req.Type)),
		DueDay:      req.DueDay,
	}
	if fc.Type == core.FixedInstallment && strings.TrimSpace(req.EndDate) != "" {
		if fc.EndDate, err = core.ParseDate(strings.TrimSpace(req.EndDate)); err != nil {
			return core.FixedCost{}, err
		}
	}
	if err := fc.Validate(); err != nil {
		return core.FixedCost{}, invalid(err)
	}
	return fc, nil
}

func ParseCategoryName(r *http.Request) (string, error) {
	req, err := decodeBody[categoryRequest](r)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(req.Name), nil
}
