package core

import "time"

type ExportStatus string

const (
	ExportPending ExportStatus = "pending"
	ExportDone    ExportStatus = "done"
	ExportFailed  ExportStatus = "failed"
)

// ExportRecord tracks one report export from request to completion.
type ExportRecord struct {
	ID          string
	UserID      string
	Range       DateRange
	Status      ExportStatus
	Rows        int
	SheetsRef   string
	Error       string
	RequestedAt time.Time
	UpdatedAt   time.Time
}
