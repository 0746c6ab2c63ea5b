package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"autofin/internal/aggregate"
	"autofin/internal/amqp"
	"autofin/internal/api"
	"autofin/internal/core"
	"autofin/internal/log"
	"autofin/internal/sheets"
	"autofin/internal/storage"
)

// TransactionFetcher reads the transactions of a range from the backend.
type TransactionFetcher interface {
	ListTransactions(ctx context.Context, userID string, r core.DateRange) ([]core.Transaction, error)
}

// ExportStore reads export records and records their outcomes.
type ExportStore interface {
	GetExport(ctx context.Context, id string) (core.ExportRecord, error)
	CompleteExport(ctx context.Context, id string, rows int, ref string) error
	FailExport(ctx context.Context, id, reason string) error
}

// ExportWorker turns export requests into spreadsheet rows.
type ExportWorker struct {
	fetch  TransactionFetcher
	writer sheets.ReportWriter
	store  ExportStore
}

func NewExportWorker(fetch TransactionFetcher, writer sheets.ReportWriter, store ExportStore) *ExportWorker {
	return &ExportWorker{fetch: fetch, writer: writer, store: store}
}

// HandleExportRequest processes one request. Errors worth retrying are
// returned so the message is requeued; requests the backend rejects are
// recorded as failed and acknowledged. Exports that already finished are
// acknowledged without writing again, and once rows have been written the
// message is never requeued.
func (w *ExportWorker) HandleExportRequest(ctx context.Context, msg *amqp.ExportRequestMessage) error {
	slog.InfoContext(ctx, "Processing export request",
		log.FieldComponent, log.ComponentWorker,
		log.FieldExportID, msg.ID,
		log.FieldUserID, msg.UserID,
		log.FieldRangeStart, msg.Start.String(),
		log.FieldRangeEnd, msg.End.String())

	rec, err := w.store.GetExport(ctx, msg.ID)
	if errors.Is(err, storage.ErrExportNotFound) {
		slog.WarnContext(ctx, "Dropping request for unknown export",
			log.FieldComponent, log.ComponentWorker, log.FieldExportID, msg.ID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("read export: %w", err)
	}
	if rec.Status != core.ExportPending {
		slog.InfoContext(ctx, "Export already finished, skipping",
			log.FieldComponent, log.ComponentWorker, log.FieldExportID, msg.ID, "status", string(rec.Status))
		return nil
	}

	r := msg.Range()
	txs, err := w.fetch.ListTransactions(ctx, msg.UserID, r)
	if err != nil {
		if permanent(err) {
			return w.fail(ctx, msg.ID, err)
		}
		return fmt.Errorf("fetch transactions: %w", err)
	}

	days, err := aggregate.DailyReport(txs, r)
	if err != nil {
		return w.fail(ctx, msg.ID, err)
	}
	report := sheets.Report{ExportID: msg.ID, UserID: msg.UserID, Range: r, Days: days}

	ref, err := w.writer.WriteReport(ctx, report)
	if err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	rows := len(report.Lines())
	if err := w.store.CompleteExport(ctx, msg.ID, rows, ref); err != nil {
		// The rows are in the sheet; a redelivery would append them twice.
		slog.ErrorContext(ctx, "Export written but not recorded",
			log.FieldComponent, log.ComponentWorker,
			log.FieldExportID, msg.ID,
			log.FieldSheetsRef, ref,
			log.FieldError, err.Error())
		reason := fmt.Sprintf("report written to %s but completion was not recorded: %v", ref, err)
		if ferr := w.store.FailExport(ctx, msg.ID, reason); ferr != nil {
			slog.ErrorContext(ctx, "Recording export failure failed",
				log.FieldComponent, log.ComponentWorker, log.FieldExportID, msg.ID, log.FieldError, ferr.Error())
		}
		return nil
	}

	slog.InfoContext(ctx, "Export completed",
		log.FieldComponent, log.ComponentWorker,
		log.FieldExportID, msg.ID,
		"rows", rows,
		log.FieldSheetsRef, ref)
	return nil
}

func (w *ExportWorker) fail(ctx context.Context, id string, cause error) error {
	slog.WarnContext(ctx, "Export failed permanently",
		log.FieldComponent, log.ComponentWorker, log.FieldExportID, id, log.FieldError, cause.Error())
	if err := w.store.FailExport(ctx, id, cause.Error()); err != nil {
		return fmt.Errorf("record export failure: %w", err)
	}
	return nil
}

// permanent reports errors a retry cannot fix: the backend rejected the
// request itself.
func permanent(err error) bool {
	var se *api.StatusError
	if errors.As(err, &se) {
		return se.Code >= http.StatusBadRequest && se.Code < http.StatusInternalServerError &&
			se.Code != http.StatusTooManyRequests
	}
	return errors.Is(err, api.ErrMissingUser)
}
