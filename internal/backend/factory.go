package backend

import (
	"context"
	"fmt"
	"log/slog"

	"autofin/internal/session"
	gsheet "autofin/internal/sheets/google"
	"autofin/internal/sheets/memory"
	"autofin/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
	}
}

// CreateBackend implements Factory.CreateBackend. Sessions and export
// records share a store: the SQLite file when configured, process memory
// otherwise.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	result := &BackendResult{}
	switch config.Sessions {
	case SQLiteBackend:
		repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		result.Sessions = repo
		result.Exports = repo
		result.Ping = repo.Ping
		result.Cleanup = repo.Close
		version, err := storage.SchemaVersion(config.SQLiteDBPath)
		if err != nil {
			_ = repo.Close()
			return nil, fmt.Errorf("check schema: %w", err)
		}
		f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath, "schema_version", version)
	default:
		result.Sessions = session.NewMemoryStore()
		result.Exports = storage.NewMemoryExportLog()
		f.logger.Info("Initialized memory backend")
	}

	switch config.Reports {
	case SheetsBackend:
		cli, err := gsheet.New(ctx, gsheet.Config{
			SpreadsheetID:   config.GoogleSpreadsheetID,
			SheetName:       config.GoogleSheetName,
			CredentialsFile: config.GoogleCredentialsFile,
			CredentialsJSON: config.GoogleCredentialsJSON,
		})
		if err != nil {
			_ = result.Close()
			return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
		}
		result.Reports = cli
		f.logger.Info("Initialized Google Sheets report writer", "sheet", config.GoogleSheetName)
	default:
		result.Reports = memory.New()
		f.logger.Info("Initialized memory report writer")
	}

	return result, nil
}
