// Package dashboard loads the inputs of the dashboard from the backend and
// turns them into a View.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"autofin/internal/balance"
	"autofin/internal/core"
	"autofin/internal/log"
	"autofin/internal/state"
)

// ErrSuperseded is returned by Load when a newer load started before this
// one finished. Its result is discarded.
var ErrSuperseded = errors.New("load superseded by a newer request")

// Fetcher is the part of the backend client the loader needs.
type Fetcher interface {
	ListTransactions(ctx context.Context, userID string, r core.DateRange) ([]core.Transaction, error)
	SalaryConfig(ctx context.Context, userID string) (core.SalaryConfig, error)
	RecurringIncomes(ctx context.Context, userID string) ([]core.RecurringIncome, error)
}

// Loader fetches dashboard inputs in parallel and keeps the latest View.
// Only the most recently started load may publish its outcome.
type Loader struct {
	fetch  Fetcher
	now    func() time.Time
	logger *log.StructuredLogger

	mu         sync.Mutex
	generation uint64
	current    state.Loadable[View]
}

func NewLoader(fetch Fetcher, logger *log.Logger) *Loader {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Loader{
		fetch:   fetch,
		now:     time.Now,
		logger:  log.NewStructuredLogger(logger.WithComponent(log.ComponentDashboard)),
		current: state.NewNotLoaded[View](),
	}
}

// WithClock replaces the time source used to determine "today".
func (l *Loader) WithClock(now func() time.Time) *Loader {
	l.now = now
	return l
}

// State returns the outcome of the latest load.
func (l *Loader) State() state.Loadable[View] {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.current
}

// Load fetches transactions for r, the salary configuration and the
// recurring incomes concurrently, then builds the view. If any fetch fails
// nothing is computed.
func (l *Loader) Load(ctx context.Context, userID string, r core.DateRange) (View, error) {
	if err := r.Validate(); err != nil {
		return View{}, err
	}
	today := core.DateOf(l.now())
	fetchRange := FetchRange(r, today)
	gen := l.begin()

	var (
		txs       []core.Transaction
		cfg       core.SalaryConfig
		recurring []core.RecurringIncome
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		txs, err = l.fetch.ListTransactions(gctx, userID, fetchRange)
		if err != nil {
			return fmt.Errorf("fetch transactions: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		cfg, err = l.fetch.SalaryConfig(gctx, userID)
		if err != nil {
			return fmt.Errorf("fetch salary config: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		recurring, err = l.fetch.RecurringIncomes(gctx, userID)
		if err != nil {
			return fmt.Errorf("fetch recurring incomes: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		if !l.publish(gen, state.NewFailed[View](err)) {
			return View{}, ErrSuperseded
		}
		l.logger.LogError(ctx, "Dashboard load failed", err, log.ComponentDashboard, log.OpRead,
			log.NewFields().WithUser(userID).WithRange(r.Start.String(), r.End.String()))
		return View{}, err
	}

	view, err := Build(Inputs{Transactions: txs, Config: &cfg, Recurring: recurring}, r, today)
	if err != nil {
		if !l.publish(gen, state.NewFailed[View](err)) {
			return View{}, ErrSuperseded
		}
		return View{}, err
	}
	if !l.publish(gen, state.NewReady(view)) {
		return View{}, ErrSuperseded
	}

	l.logger.LogBalanceComputed(ctx, userID, r.Start.String(), r.End.String(),
		string(view.Balance.Mode), core.Cents(view.Balance.Balance))
	return view, nil
}

// FetchRange widens the current month back to day 30 of the previous month,
// the earliest day a paycheck cycle can start, so the restante balance sees
// every transaction of the cycle. Other ranges are fetched as they are.
func FetchRange(r core.DateRange, today core.Date) core.DateRange {
	if !balance.IsDefaultRange(r, today) {
		return r
	}
	earliest := core.NewDate(today.Year(), today.Month()-1, 30)
	if earliest.Compare(r.Start) < 0 {
		return core.DateRange{Start: earliest, End: r.End}
	}
	return r
}

func (l *Loader) begin() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.generation++
	l.current = state.NewLoading[View]()
	return l.generation
}

// publish stores s if gen is still the latest load.
func (l *Loader) publish(gen uint64, s state.Loadable[View]) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if gen != l.generation {
		return false
	}
	l.current = s
	return true
}
