package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"autofin/internal/core"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/", srv.Client(), time.Second)
}

func TestListTransactions(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/gasto/all" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("startDate"); got != "2025-03-01" {
			t.Errorf("unexpected startDate %q", got)
		}
		if got := r.URL.Query().Get("endDate"); got != "2025-03-31" {
			t.Errorf("unexpected endDate %q", got)
		}
		if got := r.Header.Get(UserHeader); got != "u1" {
			t.Errorf("unexpected user header %q", got)
		}
		_, _ = io.WriteString(w, `[
			{"_id":"a","categoria":"Mercado","descricao":"feira","valor":50.5,"data":"2025-03-02","tipo":"expense"},
			{"_id":"b","categoria":"Receita","descricao":"pix","valor":"200","data":"2025-03-05","tipo":"income"}
		]`)
	})

	r := core.DateRange{Start: core.NewDate(2025, 3, 1), End: core.NewDate(2025, 3, 31)}
	txs, err := c.ListTransactions(context.Background(), "u1", r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(txs) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(txs))
	}
	if txs[0].ID != "a" || !txs[0].Amount.Equal(decimal.RequireFromString("50.5")) || txs[0].Date.String() != "2025-03-02" || !txs[0].IsExpense() {
		t.Fatalf("unexpected first transaction %+v", txs[0])
	}
	if !txs[1].IsIncome() || !txs[1].Amount.Equal(decimal.NewFromInt(200)) {
		t.Fatalf("unexpected second transaction %+v", txs[1])
	}
}

func TestListTransactionsDefaultsToExpense(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[
			{"_id":"x","categoria":"Mercado","valor":50,"data":"2025-05-10"},
			{"_id":"y","categoria":"Lazer","valor":20,"data":"2025-05-11","tipo":"gasto"},
			{"_id":"z","categoria":"Receita","valor":70,"data":"2025-05-12","tipo":"income"}
		]`)
	})

	r := core.MonthOf(core.NewDate(2025, 5, 1))
	txs, err := c.ListTransactions(context.Background(), "u1", r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(txs) != 3 {
		t.Fatalf("expected 3 transactions, got %d", len(txs))
	}
	if !txs[0].IsExpense() || !txs[1].IsExpense() {
		t.Fatalf("records without an income tipo must be expenses: %+v", txs[:2])
	}
	if !txs[2].IsIncome() {
		t.Fatalf("expected income, got %+v", txs[2])
	}
}

func TestStatusError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, `{"message":"banco fora do ar"}`)
	})

	_, err := c.RecurringIncomes(context.Background(), "u1")
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if se.Code != http.StatusInternalServerError || se.Message != "banco fora do ar" {
		t.Fatalf("unexpected status error %+v", se)
	}
}

func TestSalaryConfigMapping(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/user/u1/config" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_, _ = io.WriteString(w, `{"salarioTipo":"dividido","salarioInteiro":0,"salarioDia15":1500,"salarioDia30":"1700.50","metaRecebimento":null}`)
	})

	cfg, err := c.SalaryConfig(context.Background(), "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Type != core.SalarySplit {
		t.Fatalf("expected split, got %q", cfg.Type)
	}
	if !cfg.Day30Amount.Equal(decimal.RequireFromString("1700.50")) || !cfg.ExtraIncomeTarget.IsZero() {
		t.Fatalf("unexpected config %+v", cfg)
	}

	if _, err := c.SalaryConfig(context.Background(), ""); !errors.Is(err, ErrMissingUser) {
		t.Fatalf("expected ErrMissingUser, got %v", err)
	}
}

func TestSaveSalaryConfigSendsNumbers(t *testing.T) {
	var body map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/user/config" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		_, _ = io.WriteString(w, `{"success":true}`)
	})

	cfg := core.SalaryConfig{Type: core.SalaryWhole, WholeAmount: decimal.RequireFromString("3000.25")}
	if err := c.SaveSalaryConfig(context.Background(), "u1", cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if body["salarioTipo"] != "inteiro" || body["userId"] != "u1" {
		t.Fatalf("unexpected body %v", body)
	}
	if v, ok := body["salarioInteiro"].(float64); !ok || v != 3000.25 {
		t.Fatalf("expected numeric salarioInteiro, got %#v", body["salarioInteiro"])
	}
}

func TestCreateTransactionFilesIncomeUnderReceita(t *testing.T) {
	var got transactionDTO
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = io.WriteString(w, `{"success":true,"gasto":{"_id":"new-1"}}`)
	})

	tx := core.Transaction{
		Date:        core.NewDate(2025, 3, 9),
		Category:    "ignored",
		Description: "bonus",
		Amount:      decimal.NewFromInt(10),
		Kind:        core.Income,
	}
	id, err := c.CreateTransaction(context.Background(), "u1", tx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "new-1" || got.Category != core.IncomeCategory || got.Kind != "income" {
		t.Fatalf("unexpected result id=%s body=%+v", id, got)
	}

	tx.Amount = decimal.Zero
	if _, err := c.CreateTransaction(context.Background(), "u1", tx); !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestLogin(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Email string `json:"email"`
			Senha string `json:"senha"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.Senha != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, `{"success":false,"message":"Email ou senha incorretos."}`)
			return
		}
		_, _ = io.WriteString(w, `{"success":true,"user":{"_id":"u1","nome":"Ana","email":"ana@example.com"}}`)
	})

	u, err := c.Login(context.Background(), "ana@example.com", "secret")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.ID != "u1" || u.Name != "Ana" {
		t.Fatalf("unexpected user %+v", u)
	}
	if _, err := c.Login(context.Background(), "ana@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestCategoriesCacheAndDuplicates(t *testing.T) {
	var gets, posts atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			gets.Add(1)
			_, _ = io.WriteString(w, `["Mercado","Lazer"]`)
		case http.MethodPost:
			posts.Add(1)
			var body struct {
				NewCategory string `json:"newCategory"`
			}
			_ = json.NewDecoder(r.Body).Decode(&body)
			_, _ = io.WriteString(w, `{"categories":["Mercado","Lazer","`+body.NewCategory+`"]}`)
		}
	})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		list, err := c.Categories(ctx, "u1")
		if err != nil || len(list) != 2 {
			t.Fatalf("unexpected categories %v err=%v", list, err)
		}
	}
	if gets.Load() != 1 {
		t.Fatalf("expected a single backend call, got %d", gets.Load())
	}

	if _, err := c.AddCategory(ctx, "u1", "  mercado "); !errors.Is(err, ErrDuplicateCategory) {
		t.Fatalf("expected ErrDuplicateCategory, got %v", err)
	}
	if posts.Load() != 0 {
		t.Fatalf("duplicate must not reach the backend")
	}

	list, err := c.AddCategory(ctx, "u1", "Saúde")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(list) != 3 || list[2] != "Saúde" {
		t.Fatalf("unexpected list %v", list)
	}
	cached, _ := c.Categories(ctx, "u1")
	if len(cached) != 3 || gets.Load() != 1 {
		t.Fatalf("expected cache refreshed from POST response, got %v after %d gets", cached, gets.Load())
	}

	if _, err := c.AddCategory(ctx, "u1", "   "); !errors.Is(err, core.ErrEmptyCategory) {
		t.Fatalf("expected ErrEmptyCategory, got %v", err)
	}
}

func TestFixedCostMapping(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodDelete {
			if !strings.HasPrefix(r.URL.Path, "/gasto-fixo/") {
				t.Errorf("unexpected delete path %s", r.URL.Path)
			}
			w.WriteHeader(http.StatusNoContent)
			return
		}
		_, _ = io.WriteString(w, `[
			{"_id":"f1","descricao":"internet","valor":100,"categoria":"Casa","tipo":"recorrente","diaVencimento":10},
			{"_id":"f2","descricao":"tv","valor":250,"categoria":"Casa","tipo":"parcelado","dataFim":"2025-12-10"}
		]`)
	})

	costs, err := c.FixedCosts(context.Background(), "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if costs[0].Type != core.FixedRecurring || costs[0].DueDay != 10 {
		t.Fatalf("unexpected recurring cost %+v", costs[0])
	}
	if costs[1].Type != core.FixedInstallment || costs[1].EndDate.String() != "2025-12-10" {
		t.Fatalf("unexpected installment %+v", costs[1])
	}
	if err := c.DeleteFixedCost(context.Background(), "u1", "f1"); err != nil {
		t.Fatalf("unexpected delete error: %v", err)
	}
}

func TestSalaryConfigMissingIsNotReady(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := c.SalaryConfig(context.Background(), "u1")
	if !errors.Is(err, core.ErrConfigNotReady) {
		t.Fatalf("expected ErrConfigNotReady, got %v", err)
	}
	var se *StatusError
	if !errors.As(err, &se) || se.Code != http.StatusNotFound {
		t.Fatalf("expected wrapped 404 StatusError, got %v", err)
	}
}
