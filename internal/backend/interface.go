package backend

import (
	"context"

	"autofin/internal/core"
	"autofin/internal/session"
	"autofin/internal/sheets"
)

// ExportLog records report exports from request to completion.
type ExportLog interface {
	CreateExport(ctx context.Context, rec core.ExportRecord) error
	CompleteExport(ctx context.Context, id string, rows int, ref string) error
	FailExport(ctx context.Context, id, reason string) error
	GetExport(ctx context.Context, id string) (core.ExportRecord, error)
	ListExports(ctx context.Context, userID string, limit int) ([]core.ExportRecord, error)
}

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult holds the stores chosen by configuration. Ping is nil when
// no store needs a readiness probe.
type BackendResult struct {
	Sessions session.Store
	Exports  ExportLog
	Reports  sheets.ReportWriter
	Ping     func(ctx context.Context) error
	Cleanup  CleanupFunc
}

// Close runs Cleanup if there is one.
func (r *BackendResult) Close() error {
	if r == nil || r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Sessions BackendType
	Reports  BackendType

	// SQLite specific
	SQLiteDBPath string

	// Google Sheets specific
	GoogleSpreadsheetID   string
	GoogleSheetName       string
	GoogleCredentialsFile string
	GoogleCredentialsJSON string
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	SheetsBackend BackendType = "sheets"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, SheetsBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
