package http

import (
	"context"
	"net/http"
	"time"

	"autofin/internal/aggregate"
	"autofin/internal/core"
	"autofin/internal/dashboard"
	"autofin/internal/log"
	"autofin/internal/services"
	"autofin/internal/state"
)

func (s *Server) today() core.Date {
	return core.DateOf(s.now())
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"requests": s.tracer.TotalRequests(),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	var failed []string
	for _, c := range s.checks {
		if err := c.Check(ctx); err != nil {
			s.logger.Warn("Readiness check failed", "check", c.Name, log.FieldError, err.Error())
			failed = append(failed, c.Name)
		}
	}
	if len(failed) > 0 {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "not ready", "failed": failed})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// handleDashboard serves GET /api/dashboard?start&end.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	rng, err := ParseRange(r.URL.Query(), s.today())
	if err != nil {
		s.fail(ctx, w, "Invalid dashboard range", err, log.OpValidate)
		return
	}
	sess, err := s.sessions.Current(ctx)
	if err != nil {
		s.fail(ctx, w, "No session for dashboard", err, log.OpRead)
		return
	}

	view, err := s.dashboard.Load(ctx, sess.UserID, rng)
	if err != nil {
		s.fail(ctx, w, "Dashboard load failed", err, log.OpCompute)
		return
	}
	writeJSON(w, http.StatusOK, toDashboardJSON(view))
}

// handleDashboardState serves GET /api/dashboard/state: the outcome of the
// latest dashboard load, whichever range it was for.
func (s *Server) handleDashboardState(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if _, err := s.sessions.Current(ctx); err != nil {
		s.fail(ctx, w, "No session for dashboard state", err, log.OpRead)
		return
	}

	body := state.Match(s.dashboard.State(), state.Cases[dashboard.View, dashboardStateJSON]{
		NotLoaded: func() dashboardStateJSON {
			return dashboardStateJSON{Status: state.NotLoaded.String()}
		},
		Loading: func() dashboardStateJSON {
			return dashboardStateJSON{Status: state.Loading.String()}
		},
		Ready: func(v dashboard.View) dashboardStateJSON {
			d := toDashboardJSON(v)
			return dashboardStateJSON{Status: state.Ready.String(), Dashboard: &d}
		},
		Failed: func(err error) dashboardStateJSON {
			code := statusFor(err)
			return dashboardStateJSON{Status: state.Failed.String(), Error: publicMessage(err, code), ErrorCode: code}
		},
	})
	writeJSON(w, http.StatusOK, body)
}

// handleReport serves GET /api/report?start&end: expenses grouped per day.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	rng, err := ParseRange(r.URL.Query(), s.today())
	if err != nil {
		s.fail(ctx, w, "Invalid report range", err, log.OpValidate)
		return
	}
	sess, err := s.sessions.Current(ctx)
	if err != nil {
		s.fail(ctx, w, "No session for report", err, log.OpRead)
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
	writeJSON(w, http.StatusOK, toReportJSON(rng, groups))
}

// handleUpcomingCharges serves GET /api/fixed-costs/upcoming?days=N.
func (s *Server) handleUpcomingCharges(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	days, err := ParseDays(r.URL.Query())
	if err != nil {
		s.fail(ctx, w, "Invalid upcoming window", err, log.OpValidate)
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
	today := s.today()
	writeJSON(w, http.StatusOK, toUpcomingJSON(today, days, services.UpcomingCharges(costs, today, days)))
}

// handleCreateExport serves POST /api/exports.
func (s *Server) handleCreateExport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	rng, err := ParseRangeBody(r, s.today())
	if err != nil {
		s.fail(ctx, w, "Invalid export request", err, log.OpValidate)
		return
	}
	sess, err := s.sessions.Current(ctx)
	if err != nil {
		s.fail(ctx, w, "No session for export", err, log.OpExport)
		return
	}

	rec, err := s.exports.Request(ctx, sess.UserID, rng)
	if err != nil {
		s.fail(ctx, w, "Export request failed", err, log.OpExport)
		return
	}
	w.Header().Set("Location", "/api/exports/"+rec.ID)
	writeJSON(w, http.StatusAccepted, toExportJSON(rec))
}

// handleGetExport serves GET /api/exports/{id}. Exports of other users look
// like missing ones.
func (s *Server) handleGetExport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess, err := s.sessions.Current(ctx)
	if err != nil {
		s.fail(ctx, w, "No session for export lookup", err, log.OpRead)
		return
	}
	rec, err := s.exports.Get(ctx, r.PathValue("id"))
	if err == nil && rec.UserID != sess.UserID {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "export not found"})
		return
	}
	if err != nil {
		s.fail(ctx, w, "Export lookup failed", err, log.OpRead)
		return
	}
	writeJSON(w, http.StatusOK, toExportJSON(rec))
}

// fail logs err and writes the mapped error response. Client errors are
// logged at warn, everything else as an error.
func (s *Server) fail(ctx context.Context, w http.ResponseWriter, msg string, err error, op string) {
	status := writeError(w, err)
	if status < http.StatusInternalServerError {
		s.structured.For(ctx).WarnContext(ctx, msg, log.FieldOperation, op, log.FieldStatusCode, status, log.FieldError, err.Error())
		return
	}
	s.structured.LogError(ctx, msg, err, log.ComponentHTTP, op, log.NewFields())
}
