package http

import (
	"context"
	"net/http"

	"autofin/internal/aggregate"
	"autofin/internal/log"
)

// handleCreateTransaction serves POST /api/transactions.
func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	t, err := ParseTransaction(r)
	if err != nil {
		s.fail(ctx, w, "Invalid transaction", err, log.OpValidate)
		return
	}
	sess, err := s.sessions.Current(ctx)
	if err != nil {
		s.fail(ctx, w, "No session for transaction", err, log.OpCreate)
		return
	}
	id, err := s.ledger.CreateTransaction(ctx, sess.UserID, t)
	if err != nil {
		s.fail(ctx, w, "Transaction create failed", err, log.OpCreate)
		return
	}
	writeJSON(w, http.StatusCreated, createdJSON{ID: id})
}

// handleDeleteTransaction serves DELETE /api/transactions/{id}?start&end and
// answers with the report of the range as it stands without the deleted
// transaction.
func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	rng, err := ParseRange(r.URL.Query(), s.today())
	if err != nil {
		s.fail(ctx, w, "Invalid report range", err, log.OpValidate)
		return
	}
	sess, err := s.sessions.Current(ctx)
	if err != nil {
		s.fail(ctx, w, "No session for transaction delete", err, log.OpDelete)
		return
	}

	txs, err := s.transactions.ListTransactions(ctx, sess.UserID, rng)
	if err != nil {
		s.fail(ctx, w, "Report fetch failed", err, log.OpList)
		return
	}
	groups, err := aggregate.DailyReport(txs, rng)
	if err != nil {
		s.fail(ctx, w, "Report aggregation failed", err, log.OpCompute)
		return
	}

	id := r.PathValue("id")
	if err := s.ledger.DeleteTransaction(ctx, sess.UserID, id); err != nil {
		s.fail(ctx, w, "Transaction delete failed", err, log.OpDelete)
		return
	}
	writeJSON(w, http.StatusOK, toReportJSON(rng, aggregate.RemoveFromReport(groups, id)))
}

// handleCategoryHistory serves GET /api/categories/{name}/history.
func (s *Server) handleCategoryHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess, err := s.sessions.Current(ctx)
	if err != nil {
		s.fail(ctx, w, "No session for category history", err, log.OpRead)
		return
	}
	name := r.PathValue("name")
	txs, err := s.ledger.ListByCategory(ctx, sess.UserID, name)
	if err != nil {
		s.fail(ctx, w, "Category history fetch failed", err, log.OpList)
		return
	}
	writeJSON(w, http.StatusOK, toCategoryHistoryJSON(name, txs))
}

// handleAddCategory serves POST /api/categories. Duplicates get a 409.
func (s *Server) handleAddCategory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	name, err := ParseCategoryName(r)
	if err != nil {
		s.fail(ctx, w, "Invalid category", err, log.OpValidate)
		return
	}
	sess, err := s.sessions.Current(ctx)
	if err != nil {
		s.fail(ctx, w, "No session for category", err, log.OpCreate)
		return
	}
	list, err := s.ledger.AddCategory(ctx, sess.UserID, name)
	if err != nil {
		s.fail(ctx, w, "Category create failed", err, log.OpCreate)
		return
	}
	writeJSON(w, http.StatusCreated, categoriesJSON{Categories: list})
}

// handleSaveSalaryConfig serves PUT /api/salary-config.
func (s *Server) handleSaveSalaryConfig(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	cfg, err := ParseSalaryConfig(r)
	if err != nil {
		s.fail(ctx, w, "Invalid salary config", err, log.OpValidate)
		return
	}
	sess, err := s.sessions.Current(ctx)
	if err != nil {
		s.fail(ctx, w, "No session for salary config", err, log.OpCreate)
		return
	}
	if err := s.ledger.SaveSalaryConfig(ctx, sess.UserID, cfg); err != nil {
		s.fail(ctx, w, "Salary config save failed", err, log.OpCreate)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCreateRecurringIncome(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ri, err := ParseRecurringIncome(r)
	if err != nil {
		s.fail(ctx, w, "Invalid recurring income", err, log.OpValidate)
		return
	}
	sess, err := s.sessions.Current(ctx)
	if err != nil {
		s.fail(ctx, w, "No session for recurring income", err, log.OpCreate)
		return
	}
	created, err := s.ledger.CreateRecurringIncome(ctx, sess.UserID, ri)
	if err != nil {
		s.fail(ctx, w, "Recurring income create failed", err, log.OpCreate)
		return
	}
	writeJSON(w, http.StatusCreated, toRecurringIncomeJSON(created))
}

func (s *Server) handleDeleteRecurringIncome(w http.ResponseWriter, r *http.Request) {
	s.handleDelete(w, r, "recurring income", s.ledger.DeleteRecurringIncome)
}

// handleFixedCosts serves GET /api/fixed-costs?month=YYYY-MM: the charges
// active that month and the amount they commit.
func (s *Server) handleFixedCosts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ym, err := ParseMonth(r.URL.Query(), s.today())
	if err != nil {
		s.fail(ctx, w, "Invalid month", err, log.OpValidate)
		return
	}
	sess, err := s.sessions.Current(ctx)
	if err != nil {
		s.fail(ctx, w, "No session for fixed costs", err, log.OpRead)
		return
	}
	costs, err := s.fixedCosts.FixedCosts(ctx, sess.UserID)
	if err != nil {
		s.fail(ctx, w, "Fixed cost fetch failed", err, log.OpList)
		return
	}
	writeJSON(w, http.StatusOK, toFixedCostsJSON(ym, costs))
}

func (s *Server) handleCreateFixedCost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	fc, err := ParseFixedCost(r)
	if err != nil {
		s.fail(ctx, w, "Invalid fixed cost", err, log.OpValidate)
		return
	}
	sess, err := s.sessions.Current(ctx)
	if err != nil {
		s.fail(ctx, w, "No session for fixed cost", err, log.OpCreate)
		return
	}
	created, err := s.ledger.CreateFixedCost(ctx, sess.UserID, fc)
	if err != nil {
		s.fail(ctx, w, "Fixed cost create failed", err, log.OpCreate)
		return
	}
	writeJSON(w, http.StatusCreated, toFixedCostJSON(created))
}

func (s *Server) handleDeleteFixedCost(w http.ResponseWriter, r *http.Request) {
	s.handleDelete(w, r, "fixed cost", s.ledger.DeleteFixedCost)
}

// handleDelete removes the record named by the id path value and answers 204.
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request, what string,
	del func(ctx context.Context, userID, id string) error) {
	ctx := r.Context()
	sess, err := s.sessions.Current(ctx)
	if err != nil {
		s.fail(ctx, w, "No session for "+what+" delete", err, log.OpDelete)
		return
	}
	if err := del(ctx, sess.UserID, r.PathValue("id")); err != nil {
		s.fail(ctx, w, "Delete "+what+" failed", err, log.OpDelete)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
