package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"autofin/internal/amqp"
	"autofin/internal/core"
	"autofin/internal/log"
)

// ErrExportUnavailable is returned when no broker is configured or the
// request could not be published.
var ErrExportUnavailable = errors.New("report export unavailable")

// ExportPublisher hands export requests to the worker.
type ExportPublisher interface {
	PublishExportRequest(ctx context.Context, msg *amqp.ExportRequestMessage) error
}

// ExportLog records export requests and their outcome.
type ExportLog interface {
	CreateExport(ctx context.Context, rec core.ExportRecord) error
	FailExport(ctx context.Context, id, reason string) error
	GetExport(ctx context.Context, id string) (core.ExportRecord, error)
}

// ExportService records export requests locally and queues them for the
// worker.
type ExportService struct {
	log       ExportLog
	publisher ExportPublisher
	now       func() time.Time
}

// NewExportService creates the service. A nil publisher disables exports.
func NewExportService(log ExportLog, publisher ExportPublisher) *ExportService {
	return &ExportService{log: log, publisher: publisher, now: time.Now}
}

// Request validates r, records a pending export and publishes it. When the
// publish fails the record is marked failed.
func (s *ExportService) Request(ctx context.Context, userID string, r core.DateRange) (core.ExportRecord, error) {
	if err := r.Validate(); err != nil {
		return core.ExportRecord{}, err
	}
	if s.publisher == nil {
		return core.ExportRecord{}, ErrExportUnavailable
	}

	now := s.now().UTC()
	rec := core.ExportRecord{
		ID:          uuid.NewString(),
		UserID:      userID,
		Range:       r,
		Status:      core.ExportPending,
		RequestedAt: now,
		UpdatedAt:   now,
	}
	if err := s.log.CreateExport(ctx, rec); err != nil {
		return core.ExportRecord{}, fmt.Errorf("record export: %w", err)
	}

	if err := s.publisher.PublishExportRequest(ctx, amqp.NewExportRequestMessage(rec)); err != nil {
		slog.ErrorContext(ctx, "Failed to publish export request",
			log.FieldComponent, log.ComponentAMQP, log.FieldExportID, rec.ID, log.FieldError, err)
		if ferr := s.log.FailExport(context.WithoutCancel(ctx), rec.ID, err.Error()); ferr != nil {
			slog.ErrorContext(ctx, "Failed to mark export as failed", log.FieldExportID, rec.ID, log.FieldError, ferr)
		}
		return core.ExportRecord{}, fmt.Errorf("%w: %w", ErrExportUnavailable, err)
	}

	slog.InfoContext(ctx, "Export requested",
		log.FieldComponent, log.ComponentWorker,
		log.FieldExportID, rec.ID,
		log.FieldUserID, userID,
		"range_start", r.Start.String(),
		"range_end", r.End.String())
	return rec, nil
}

// Get returns an export record by id.
func (s *ExportService) Get(ctx context.Context, id string) (core.ExportRecord, error) {
	return s.log.GetExport(ctx, id)
}
