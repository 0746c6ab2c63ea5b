package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"autofin/internal/core"
	"autofin/internal/dashboard"
	"autofin/internal/log"
	"autofin/internal/middleware/ratelimit"
	"autofin/internal/middleware/security"
	"autofin/internal/middleware/trace"
	"autofin/internal/session"
	"autofin/internal/state"
)

// DashboardLoader computes the dashboard view for a user and range and
// reports the outcome of its latest load.
type DashboardLoader interface {
	Load(ctx context.Context, userID string, r core.DateRange) (dashboard.View, error)
	State() state.Loadable[dashboard.View]
}

// TransactionLister fetches the raw transactions of a range.
type TransactionLister interface {
	ListTransactions(ctx context.Context, userID string, r core.DateRange) ([]core.Transaction, error)
}

// SessionProvider yields the logged-in user or session.ErrNoSession.
type SessionProvider interface {
	Current(ctx context.Context) (session.Session, error)
}

// ExportRequester queues report exports and looks them up.
type ExportRequester interface {
	Request(ctx context.Context, userID string, r core.DateRange) (core.ExportRecord, error)
	Get(ctx context.Context, id string) (core.ExportRecord, error)
}

// FixedCostLister fetches the user's fixed charges.
type FixedCostLister interface {
	FixedCosts(ctx context.Context, userID string) ([]core.FixedCost, error)
}

// Ledger changes the user's records on the backend and reads the history of
// single categories.
type Ledger interface {
	ListByCategory(ctx context.Context, userID, category string) ([]core.Transaction, error)
	CreateTransaction(ctx context.Context, userID string, t core.Transaction) (string, error)
	DeleteTransaction(ctx context.Context, userID, id string) error
	SaveSalaryConfig(ctx context.Context, userID string, cfg core.SalaryConfig) error
	CreateRecurringIncome(ctx context.Context, userID string, ri core.RecurringIncome) (core.RecurringIncome, error)
	DeleteRecurringIncome(ctx context.Context, userID, id string) error
	CreateFixedCost(ctx context.Context, userID string, fc core.FixedCost) (core.FixedCost, error)
	DeleteFixedCost(ctx context.Context, userID, id string) error
	AddCategory(ctx context.Context, userID, name string) ([]string, error)
}

// ReadinessCheck is one dependency probed by /readyz.
type ReadinessCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// Deps are the collaborators the handlers use.
type Deps struct {
	Dashboard    DashboardLoader
	Transactions TransactionLister
	Sessions     SessionProvider
	Exports      ExportRequester
	FixedCosts   FixedCostLister
	Ledger       Ledger
	Checks       []ReadinessCheck
	Logger       *log.Logger
	// Now defaults to time.Now.
	Now func() time.Time
}

// Server is the JSON API around the dashboard computations.
type Server struct {
	http.Server

	dashboard    DashboardLoader
	transactions TransactionLister
	sessions     SessionProvider
	exports      ExportRequester
	fixedCosts   FixedCostLister
	ledger       Ledger
	checks       []ReadinessCheck
	now          func() time.Time

	logger      *log.Logger
	structured  *log.StructuredLogger
	tracer      *trace.Middleware
	rateLimiter *ratelimit.Limiter

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// server. rateLimitPerMinute applies per client IP.
func NewServer(addr string, rateLimitPerMinute int, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}

	detector := security.NewDetector(logger)
	s := &Server{
		dashboard:    deps.Dashboard,
		transactions: deps.Transactions,
		sessions:     deps.Sessions,
		exports:      deps.Exports,
		fixedCosts:   deps.FixedCosts,
		ledger:       deps.Ledger,
		checks:       deps.Checks,
		now:          now,
		logger:       logger.WithComponent(log.ComponentHTTP),
		tracer:       trace.NewMiddleware(logger, detector.ExtractClientIP),
		rateLimiter:  ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: rateLimitPerMinute}),
	}
	s.structured = log.NewStructuredLogger(s.logger)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /api/dashboard", s.handleDashboard)
	mux.HandleFunc("GET /api/dashboard/state", s.handleDashboardState)
	mux.HandleFunc("GET /api/report", s.handleReport)
	if s.fixedCosts != nil {
		mux.HandleFunc("GET /api/fixed-costs", s.handleFixedCosts)
		mux.HandleFunc("GET /api/fixed-costs/upcoming", s.handleUpcomingCharges)
	}
	if s.ledger != nil {
		mux.HandleFunc("POST /api/transactions", s.handleCreateTransaction)
		mux.HandleFunc("DELETE /api/transactions/{id}", s.handleDeleteTransaction)
		mux.HandleFunc("GET /api/categories/{name}/history", s.handleCategoryHistory)
		mux.HandleFunc("POST /api/categories", s.handleAddCategory)
		mux.HandleFunc("PUT /api/salary-config", s.handleSaveSalaryConfig)
		mux.HandleFunc("POST /api/recurring-incomes", s.handleCreateRecurringIncome)
		mux.HandleFunc("DELETE /api/recurring-incomes/{id}", s.handleDeleteRecurringIncome)
		mux.HandleFunc("POST /api/fixed-costs", s.handleCreateFixedCost)
		mux.HandleFunc("DELETE /api/fixed-costs/{id}", s.handleDeleteFixedCost)
	}
	if s.exports != nil {
		mux.HandleFunc("POST /api/exports", s.handleCreateExport)
		mux.HandleFunc("GET /api/exports/{id}", s.handleGetExport)
	}

	limited := s.rateLimiter.Middleware(detector.ExtractClientIP, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "rate limit exceeded"})
	})(mux)
	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())

	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.tracer.Middleware(headers.Middleware(detector.Middleware(limited))),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Shutdown stops the rate limiter and gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
