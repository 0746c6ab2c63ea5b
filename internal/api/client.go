// Package api provides an HTTP client for the finance backend REST API.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"autofin/internal/cache"
	"autofin/internal/core"
	"autofin/internal/log"
)

// UserHeader carries the backend user id on every authenticated call.
const UserHeader = "X-User-ID"

var (
	// ErrDuplicateCategory is returned by AddCategory when the user already
	// has a category with the same name, ignoring case.
	ErrDuplicateCategory = errors.New("category already exists")
	// ErrInvalidCredentials is returned by Login when the backend rejects
	// the email and password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrMissingUser        = errors.New("missing user id")
)

// StatusError is returned for every non-2xx backend response.
type StatusError struct {
	Op      string
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: backend returned %d: %s", e.Op, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: backend returned %d", e.Op, e.Code)
}

// Client talks to the finance backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	categories cache.Cache[[]string]
}

// Option configures a Client.
type Option func(*Client)

// WithCategoryCache replaces the default per-user category cache.
func WithCategoryCache(c cache.Cache[[]string]) Option {
	return func(cl *Client) { cl.categories = c }
}

// NewClient creates a backend client. A nil httpClient gets a default one
// with timeout.
func NewClient(baseURL string, httpClient *http.Client, timeout time.Duration, opts ...Option) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		categories: cache.NewLRU[[]string](256, 5*time.Minute),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Login authenticates against the backend.
func (c *Client) Login(ctx context.Context, email, password string) (User, error) {
	body := struct {
		Email    string `json:"email"`
		Password string `json:"senha"`
	}{Email: email, Password: password}

	var result struct {
		Success bool   `json:"success"`
		User    User   `json:"user"`
		Message string `json:"message"`
	}
	err := c.do(ctx, "login", http.MethodPost, "/login", "", body, &result)
	var se *StatusError
	if errors.As(err, &se) && (se.Code == http.StatusUnauthorized || se.Code == http.StatusBadRequest) {
		return User{}, fmt.Errorf("%w: %s", ErrInvalidCredentials, se.Message)
	}
	if err != nil {
		return User{}, err
	}
	if !result.Success || result.User.ID == "" {
		return User{}, fmt.Errorf("%w: %s", ErrInvalidCredentials, result.Message)
	}
	return result.User, nil
}

// ListTransactions fetches expenses and incomes dated inside r.
func (c *Client) ListTransactions(ctx context.Context, userID string, r core.DateRange) ([]core.Transaction, error) {
	q := url.Values{}
	q.Set("startDate", r.Start.String())
	q.Set("endDate", r.End.String())

	var dtos []transactionDTO
	if err := c.do(ctx, "listing transactions", http.MethodGet, "/gasto/all?"+q.Encode(), userID, nil, &dtos); err != nil {
		return nil, err
	}
	return mapSlice(dtos, transactionDTO.toCore), nil
}

// ListByCategory fetches the expense history of a single category.
func (c *Client) ListByCategory(ctx context.Context, userID, category string) ([]core.Transaction, error) {
	q := url.Values{}
	q.Set("categoria", category)

	var dtos []transactionDTO
	if err := c.do(ctx, "listing category history", http.MethodGet, "/gasto/filtrar?"+q.Encode(), userID, nil, &dtos); err != nil {
		return nil, err
	}
	return mapSlice(dtos, transactionDTO.toCore), nil
}

// CreateTransaction records t and returns the id assigned by the backend.
// Incomes are always filed under core.IncomeCategory.
func (c *Client) CreateTransaction(ctx context.Context, userID string, t core.Transaction) (string, error) {
	if err := t.Validate(); err != nil {
		return "", fmt.Errorf("creating transaction: %w", err)
	}
	var result struct {
		Success bool           `json:"success"`
		Gasto   transactionDTO `json:"gasto"`
		Message string         `json:"message"`
	}
	if err := c.do(ctx, "creating transaction", http.MethodPost, "/gasto", userID, transactionFromCore(userID, t), &result); err != nil {
		return "", err
	}
	if !result.Success {
		return "", &StatusError{Op: "creating transaction", Code: http.StatusOK, Message: result.Message}
	}
	return result.Gasto.ID, nil
}

func (c *Client) DeleteTransaction(ctx context.Context, userID, id string) error {
	return c.do(ctx, "deleting transaction", http.MethodDelete, "/gasto/"+url.PathEscape(id), userID, nil, nil)
}

// SalaryConfig fetches the user's salary configuration.
func (c *Client) SalaryConfig(ctx context.Context, userID string) (core.SalaryConfig, error) {
	if userID == "" {
		return core.SalaryConfig{}, ErrMissingUser
	}
	var dto salaryConfigDTO
	if err := c.do(ctx, "fetching salary config", http.MethodGet, "/user/"+url.PathEscape(userID)+"/config", userID, nil, &dto); err != nil {
		// A user who never saved a configuration gets a 404.
		var se *StatusError
		if errors.As(err, &se) && se.Code == http.StatusNotFound {
			return core.SalaryConfig{}, fmt.Errorf("%w: %w", core.ErrConfigNotReady, err)
		}
		return core.SalaryConfig{}, err
	}
	return dto.toCore(), nil
}

func (c *Client) SaveSalaryConfig(ctx context.Context, userID string, cfg core.SalaryConfig) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("saving salary config: %w", err)
	}
	return c.do(ctx, "saving salary config", http.MethodPost, "/user/config", userID, salaryConfigFromCore(userID, cfg), nil)
}

func (c *Client) RecurringIncomes(ctx context.Context, userID string) ([]core.RecurringIncome, error) {
	var dtos []recurringIncomeDTO
	if err := c.do(ctx, "listing recurring incomes", http.MethodGet, "/renda-fixa", userID, nil, &dtos); err != nil {
		return nil, err
	}
	return mapSlice(dtos, recurringIncomeDTO.toCore), nil
}

func (c *Client) CreateRecurringIncome(ctx context.Context, userID string, ri core.RecurringIncome) (core.RecurringIncome, error) {
	if err := ri.Validate(); err != nil {
		return core.RecurringIncome{}, fmt.Errorf("creating recurring income: %w", err)
	}
	var result struct {
		RendaFixa recurringIncomeDTO `json:"rendaFixa"`
	}
	if err := c.do(ctx, "creating recurring income", http.MethodPost, "/renda-fixa", userID, recurringIncomeFromCore(userID, ri), &result); err != nil {
		return core.RecurringIncome{}, err
	}
	return result.RendaFixa.toCore(), nil
}

func (c *Client) DeleteRecurringIncome(ctx context.Context, userID, id string) error {
	return c.do(ctx, "deleting recurring income", http.MethodDelete, "/renda-fixa/"+url.PathEscape(id), userID, nil, nil)
}

func (c *Client) FixedCosts(ctx context.Context, userID string) ([]core.FixedCost, error) {
	var dtos []fixedCostDTO
	if err := c.do(ctx, "listing fixed costs", http.MethodGet, "/gasto-fixo", userID, nil, &dtos); err != nil {
		return nil, err
	}
	return mapSlice(dtos, fixedCostDTO.toCore), nil
}

func (c *Client) CreateFixedCost(ctx context.Context, userID string, fc core.FixedCost) (core.FixedCost, error) {
	if err := fc.Validate(); err != nil {
		return core.FixedCost{}, fmt.Errorf("creating fixed cost: %w", err)
	}
	var result struct {
		GastoFixo fixedCostDTO `json:"gastoFixo"`
	}
	if err := c.do(ctx, "creating fixed cost", http.MethodPost, "/gasto-fixo", userID, fixedCostFromCore(fc), &result); err != nil {
		return core.FixedCost{}, err
	}
	return result.GastoFixo.toCore(), nil
}

func (c *Client) DeleteFixedCost(ctx context.Context, userID, id string) error {
	return c.do(ctx, "deleting fixed cost", http.MethodDelete, "/gasto-fixo/"+url.PathEscape(id), userID, nil, nil)
}

// Categories returns the user's category labels, served from cache when
// possible.
func (c *Client) Categories(ctx context.Context, userID string) ([]string, error) {
	if cached, ok := c.categories.Get(userID); ok {
		return slices.Clone(cached), nil
	}
	var list []string
	if err := c.do(ctx, "listing categories", http.MethodGet, "/user/categories", userID, nil, &list); err != nil {
		return nil, err
	}
	if list == nil {
		list = []string{}
	}
	c.categories.Set(userID, list)
	return slices.Clone(list), nil
}

// AddCategory creates a category and returns the updated list. Names are
// trimmed; a name already present in any casing is rejected with
// ErrDuplicateCategory without calling the backend.
func (c *Client) AddCategory(ctx context.Context, userID, name string) ([]string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, core.ErrEmptyCategory
	}
	existing, err := c.Categories(ctx, userID)
	if err != nil {
		return nil, err
	}
	if slices.ContainsFunc(existing, func(s string) bool { return strings.EqualFold(s, name) }) {
		return nil, fmt.Errorf("%w: %q", ErrDuplicateCategory, name)
	}

	body := struct {
		NewCategory string `json:"newCategory"`
	}{NewCategory: name}
	var result struct {
		Categories []string `json:"categories"`
	}
	c.categories.Delete(userID)
	if err := c.do(ctx, "adding category", http.MethodPost, "/user/categories", userID, body, &result); err != nil {
		return nil, err
	}
	c.categories.Set(userID, result.Categories)
	return slices.Clone(result.Categories), nil
}

func (c *Client) do(ctx context.Context, op, method, path, userID string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: marshaling request: %w", op, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("%s: creating request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != "" {
		req.Header.Set(UserHeader, userID)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = resp.Body.Close() }()

	slog.DebugContext(ctx, "Backend call",
		log.FieldComponent, log.ComponentAPI,
		"operation", op,
		"method", method,
		"status_code", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds())

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Op: op, Code: resp.StatusCode, Message: readMessage(resp.Body)}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decoding response: %w", op, err)
	}
	return nil
}

// readMessage extracts {"message": "..."} from an error body, falling back
// to the raw text.
func readMessage(r io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(r, 4<<10))
	if err != nil || len(raw) == 0 {
		return ""
	}
	var payload struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(raw, &payload) == nil && payload.Message != "" {
		return payload.Message
	}
	return strings.TrimSpace(string(raw))
}
