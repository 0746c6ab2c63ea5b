package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"autofin/internal/api"
	"autofin/internal/balance"
	"autofin/internal/core"
	"autofin/internal/cycle"
	"autofin/internal/dashboard"
	"autofin/internal/log"
	"autofin/internal/services"
	"autofin/internal/session"
	"autofin/internal/state"
	"autofin/internal/storage"
)

type fakeLoader struct {
	got   core.DateRange
	view  dashboard.View
	err   error
	state state.Loadable[dashboard.View]
}

func (f *fakeLoader) State() state.Loadable[dashboard.View] { return f.state }

func (f *fakeLoader) Load(_ context.Context, _ string, r core.DateRange) (dashboard.View, error) {
	f.got = r
	f.view.Range = r
	return f.view, f.err
}

type fakeLister struct {
	txs []core.Transaction
	err error
}

func (f fakeLister) ListTransactions(context.Context, string, core.DateRange) ([]core.Transaction, error) {
	return f.txs, f.err
}

type fakeSessions struct{ userID string }

func (f fakeSessions) Current(context.Context) (session.Session, error) {
	if f.userID == "" {
		return session.Session{}, session.ErrNoSession
	}
	return session.Session{UserID: f.userID}, nil
}

type fakeExports struct {
	recs map[string]core.ExportRecord
	err  error
}

func (f *fakeExports) Request(_ context.Context, userID string, r core.DateRange) (core.ExportRecord, error) {
	if f.err != nil {
		return core.ExportRecord{}, f.err
	}
	rec := core.ExportRecord{ID: fmt.Sprintf("exp-%d", len(f.recs)+1), UserID: userID, Range: r, Status: core.ExportPending}
	f.recs[rec.ID] = rec
	return rec, nil
}

func (f *fakeExports) Get(_ context.Context, id string) (core.ExportRecord, error) {
	rec, ok := f.recs[id]
	if !ok {
		return core.ExportRecord{}, fmt.Errorf("%w: %s", storage.ErrExportNotFound, id)
	}
	return rec, nil
}

type fakeFixedCosts []core.FixedCost

func (f fakeFixedCosts) FixedCosts(context.Context, string) ([]core.FixedCost, error) {
	return f, nil
}

func fixedNow() time.Time { return time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC) }

func quietLogger() *log.Logger {
	return log.New(log.Config{Component: "test", Handler: slog.NewTextHandler(&bytes.Buffer{}, nil)})
}

func newTestServer(t *testing.T, deps Deps) *Server {
	t.Helper()
	if deps.Sessions == nil {
		deps.Sessions = fakeSessions{userID: "u1"}
	}
	deps.Logger = quietLogger()
	deps.Now = fixedNow
	srv := NewServer(":0", 1000, deps)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv
}

func do(t *testing.T, srv *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, httptest.NewRequest(method, target, strings.NewReader(body)))
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
	return v
}

func TestHealthAndReady(t *testing.T) {
	srv := newTestServer(t, Deps{Checks: []ReadinessCheck{
		{Name: "sqlite", Check: func(context.Context) error { return nil }},
	}})
	for _, path := range []string{"/healthz", "/readyz"} {
		rr := do(t, srv, http.MethodGet, path, "")
		if rr.Code != http.StatusOK {
			t.Fatalf("%s status=%d", path, rr.Code)
		}
	}

	srv = newTestServer(t, Deps{Checks: []ReadinessCheck{
		{Name: "amqp", Check: func(context.Context) error { return errors.New("down") }},
	}})
	rr := do(t, srv, http.MethodGet, "/readyz", "")
	if rr.Code != http.StatusServiceUnavailable || !strings.Contains(rr.Body.String(), "amqp") {
		t.Fatalf("expected 503 naming amqp, got %d %s", rr.Code, rr.Body.String())
	}
}

func TestResponsesCarrySecurityHeadersAndRequestID(t *testing.T) {
	srv := newTestServer(t, Deps{})
	rr := do(t, srv, http.MethodGet, "/healthz", "")
	if rr.Header().Get("X-Request-ID") == "" {
		t.Fatal("missing request id")
	}
	if rr.Header().Get("X-Content-Type-Options") != "nosniff" || rr.Header().Get("Cache-Control") != "no-store" {
		t.Fatalf("missing security headers: %v", rr.Header())
	}
}

func TestDashboard(t *testing.T) {
	c := cycle.PaycheckCycle{
		Start:  core.NewDate(2025, 2, 28),
		Income: decimal.NewFromInt(3000),
		Total:  decimal.NewFromInt(3000),
	}
	loader := &fakeLoader{view: dashboard.View{
		Today: core.NewDate(2025, 3, 10),
		Balance: balance.Result{
			Mode:         balance.ModeRestante,
			Balance:      decimal.NewFromInt(2905),
			Cycle:        &c,
			IncomeTotal:  decimal.Zero,
			ExpenseTotal: decimal.NewFromInt(95),
		},
		Sparkline: []decimal.Decimal{decimal.NewFromInt(3000), decimal.RequireFromString("2950.5")},
		Display:   dashboard.Display{Balance: "R$\u00a02.905,00"},
	}}
	srv := newTestServer(t, Deps{Dashboard: loader})

	rr := do(t, srv, http.MethodGet, "/api/dashboard", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
	if loader.got.String() != "2025-03-01..2025-03-31" {
		t.Fatalf("expected current month by default, got %s", loader.got)
	}
	got := decode[dashboardJSON](t, rr)
	if got.Balance.Mode != "restante" || got.Balance.Amount != "2905.00" || got.Balance.Cycle == nil || got.Balance.Cycle.Start != "2025-02-28" {
		t.Fatalf("unexpected balance %+v", got.Balance)
	}
	if len(got.Sparkline) != 2 || got.Sparkline[1] != "2950.50" {
		t.Fatalf("unexpected sparkline %v", got.Sparkline)
	}
	if got.Display.Balance != "R$\u00a02.905,00" {
		t.Fatalf("unexpected display %q", got.Display.Balance)
	}

	rr = do(t, srv, http.MethodGet, "/api/dashboard?start=2025-01-01&end=2025-01-31", "")
	if rr.Code != http.StatusOK || loader.got.String() != "2025-01-01..2025-01-31" {
		t.Fatalf("custom range not forwarded: %d %s", rr.Code, loader.got)
	}
}

func TestDashboardErrors(t *testing.T) {
	tests := []struct {
		name     string
		target   string
		loadErr  error
		userID   string
		wantCode int
	}{
		{"missing end", "/api/dashboard?start=2025-03-01", nil, "u1", http.StatusUnprocessableEntity},
		{"invalid date", "/api/dashboard?start=2025-02-30&end=2025-03-31", nil, "u1", http.StatusUnprocessableEntity},
		{"inverted range", "/api/dashboard?start=2025-03-31&end=2025-03-01", nil, "u1", http.StatusUnprocessableEntity},
		{"no session", "/api/dashboard", nil, "", http.StatusUnauthorized},
		{"config not ready", "/api/dashboard", fmt.Errorf("fetch salary config: %w", core.ErrConfigNotReady), "u1", http.StatusServiceUnavailable},
		{"superseded", "/api/dashboard", dashboard.ErrSuperseded, "u1", http.StatusConflict},
		{"backend failure", "/api/dashboard", fmt.Errorf("fetch transactions: %w", &api.StatusError{Op: "list", Code: 500}), "u1", http.StatusBadGateway},
		{"unexpected", "/api/dashboard", errors.New("boom"), "u1", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, Deps{Dashboard: &fakeLoader{err: tt.loadErr}, Sessions: sessionsFor(tt.userID)})
			rr := do(t, srv, http.MethodGet, tt.target, "")
			if rr.Code != tt.wantCode {
				t.Fatalf("expected %d, got %d (%s)", tt.wantCode, rr.Code, rr.Body.String())
			}
			if decode[errorResponse](t, rr).Error == "" {
				t.Fatal("expected error message")
			}
		})
	}
}

func TestDashboardState(t *testing.T) {
	ready := dashboard.View{
		Range:   core.MonthOf(core.NewDate(2025, 3, 10)),
		Today:   core.NewDate(2025, 3, 10),
		Balance: balance.Result{Mode: balance.ModePeriod, Balance: decimal.NewFromInt(42)},
	}
	tests := []struct {
		name       string
		state      state.Loadable[dashboard.View]
		wantStatus string
		wantCode   int
	}{
		{"not loaded", state.NewNotLoaded[dashboard.View](), "not_loaded", 0},
		{"loading", state.NewLoading[dashboard.View](), "loading", 0},
		{"ready", state.NewReady(ready), "ready", 0},
		{"failed on config", state.NewFailed[dashboard.View](fmt.Errorf("fetch salary config: %w", core.ErrConfigNotReady)), "failed", http.StatusServiceUnavailable},
		{"failed on backend", state.NewFailed[dashboard.View](&api.StatusError{Op: "list", Code: 500, Message: "secret"}), "failed", http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, Deps{Dashboard: &fakeLoader{state: tt.state}})
			rr := do(t, srv, http.MethodGet, "/api/dashboard/state", "")
			if rr.Code != http.StatusOK {
				t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
			}
			got := decode[dashboardStateJSON](t, rr)
			if got.Status != tt.wantStatus || got.ErrorCode != tt.wantCode {
				t.Fatalf("unexpected state %+v", got)
			}
			switch tt.wantStatus {
			case "ready":
				if got.Dashboard == nil || got.Dashboard.Balance.Amount != "42.00" || got.Dashboard.Start != "2025-03-01" {
					t.Fatalf("expected the ready dashboard, got %+v", got.Dashboard)
				}
			case "failed":
				if got.Error == "" || got.Dashboard != nil {
					t.Fatalf("expected an error only, got %+v", got)
				}
				if strings.Contains(got.Error, "secret") {
					t.Fatalf("backend detail leaked: %q", got.Error)
				}
			default:
				if got.Dashboard != nil || got.Error != "" {
					t.Fatalf("expected a bare status, got %+v", got)
				}
			}
		})
	}

	srv := newTestServer(t, Deps{Dashboard: &fakeLoader{}, Sessions: sessionsFor("")})
	if rr := do(t, srv, http.MethodGet, "/api/dashboard/state", ""); rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without session, got %d", rr.Code)
	}
}

func sessionsFor(userID string) SessionProvider {
	return fakeSessions{userID: userID}
}

func TestReport(t *testing.T) {
	mk := func(id, date, amount string, kind core.Kind) core.Transaction {
		d, _ := core.ParseDate(date)
		return core.Transaction{ID: id, Date: d, Category: "Mercado", Description: id, Amount: decimal.RequireFromString(amount), Kind: kind}
	}
	srv := newTestServer(t, Deps{Transactions: fakeLister{txs: []core.Transaction{
		mk("a", "2025-03-02", "10", core.Expense),
		mk("b", "2025-03-07", "4.5", core.Expense),
		mk("c", "2025-03-07", "1.25", core.Expense),
		mk("d", "2025-03-07", "500", core.Income),
	}}})

	rr := do(t, srv, http.MethodGet, "/api/report?start=2025-03-01&end=2025-03-31", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
	got := decode[reportJSON](t, rr)
	if len(got.Days) != 2 {
		t.Fatalf("expected 2 days, got %+v", got.Days)
	}
	if got.Days[0].Date != "2025-03-07" || got.Days[0].Total != "5.75" || len(got.Days[0].Transactions) != 2 {
		t.Fatalf("unexpected first day %+v", got.Days[0])
	}
	if got.Days[1].Display != "R$\u00a010,00" {
		t.Fatalf("unexpected display %q", got.Days[1].Display)
	}
}

func TestExports(t *testing.T) {
	exports := &fakeExports{recs: map[string]core.ExportRecord{}}
	srv := newTestServer(t, Deps{Exports: exports})

	rr := do(t, srv, http.MethodPost, "/api/exports", `{"start":"2025-03-01","end":"2025-03-15"}`)
	if rr.Code != http.StatusAccepted {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
	created := decode[exportJSON](t, rr)
	if created.Status != "pending" || created.Start != "2025-03-01" || created.End != "2025-03-15" {
		t.Fatalf("unexpected export %+v", created)
	}
	if rr.Header().Get("Location") != "/api/exports/"+created.ID {
		t.Fatalf("unexpected location %q", rr.Header().Get("Location"))
	}

	rr = do(t, srv, http.MethodGet, "/api/exports/"+created.ID, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("lookup status=%d", rr.Code)
	}

	// empty body defaults to the current month
	rr = do(t, srv, http.MethodPost, "/api/exports", "")
	if rr.Code != http.StatusAccepted || decode[exportJSON](t, rr).End != "2025-03-31" {
		t.Fatalf("unexpected default export %d %s", rr.Code, rr.Body.String())
	}

	if rr := do(t, srv, http.MethodPost, "/api/exports", `{"start":`); rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed body, got %d", rr.Code)
	}
	if rr := do(t, srv, http.MethodGet, "/api/exports/nope", ""); rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}

	exports.recs["theirs"] = core.ExportRecord{ID: "theirs", UserID: "u2"}
	if rr := do(t, srv, http.MethodGet, "/api/exports/theirs", ""); rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for another user's export, got %d", rr.Code)
	}
}

func TestExportsUnavailable(t *testing.T) {
	srv := newTestServer(t, Deps{Exports: &fakeExports{err: services.ErrExportUnavailable}})
	if rr := do(t, srv, http.MethodPost, "/api/exports", ""); rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}

	srv = newTestServer(t, Deps{})
	if rr := do(t, srv, http.MethodPost, "/api/exports", ""); rr.Code == http.StatusAccepted {
		t.Fatal("export routes must not exist without an export service")
	}
}

func TestUpcomingCharges(t *testing.T) {
	srv := newTestServer(t, Deps{FixedCosts: fakeFixedCosts{
		{ID: "1", Description: "aluguel", Amount: decimal.NewFromInt(1200), Type: core.FixedRecurring, DueDay: 12},
		{ID: "2", Description: "academia", Amount: decimal.NewFromInt(90), Type: core.FixedRecurring, DueDay: 25},
	}})

	rr := do(t, srv, http.MethodGet, "/api/fixed-costs/upcoming", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
	got := decode[upcomingJSON](t, rr)
	if got.Days != 7 || len(got.Charges) != 1 || got.Charges[0].Due != "2025-03-12" || got.Total != "1200.00" {
		t.Fatalf("unexpected upcoming %+v", got)
	}

	if rr := do(t, srv, http.MethodGet, "/api/fixed-costs/upcoming?days=abc", ""); rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rr.Code)
	}
}

func TestRateLimit(t *testing.T) {
	deps := Deps{Sessions: fakeSessions{userID: "u1"}, Logger: quietLogger(), Now: fixedNow}
	srv := NewServer(":0", 1, deps)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })

	if rr := do(t, srv, http.MethodGet, "/healthz", ""); rr.Code != http.StatusOK {
		t.Fatalf("first request status=%d", rr.Code)
	}
	rr := do(t, srv, http.MethodGet, "/healthz", "")
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rr.Code)
	}
	if decode[errorResponse](t, rr).Error != "rate limit exceeded" {
		t.Fatalf("unexpected body %s", rr.Body.String())
	}
}
