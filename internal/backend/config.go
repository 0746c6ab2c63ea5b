package backend

import (
	"fmt"
	"slices"

	"autofin/internal/config"
)

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	cfg := Config{
		Sessions: BackendType(appConfig.SessionBackend),
		Reports:  BackendType(appConfig.ExportBackend),

		SQLiteDBPath: appConfig.SQLiteDBPath,

		GoogleSpreadsheetID:   appConfig.GoogleSpreadsheetID,
		GoogleSheetName:       appConfig.GoogleReportSheetName,
		GoogleCredentialsFile: appConfig.GoogleServiceAccountFile,
		GoogleCredentialsJSON: appConfig.GoogleServiceAccountJSON,
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !slices.Contains(SessionBackendTypes(), c.Sessions) {
		return fmt.Errorf("invalid session backend: %s", c.Sessions)
	}
	if !slices.Contains(ReportBackendTypes(), c.Reports) {
		return fmt.Errorf("invalid report backend: %s", c.Reports)
	}

	if c.Sessions == SQLiteBackend && c.SQLiteDBPath == "" {
		return fmt.Errorf("SQLite database path is required for sqlite backend")
	}

	if c.Reports == SheetsBackend {
		if c.GoogleSpreadsheetID == "" {
			return fmt.Errorf("Google Spreadsheet ID is required for sheets backend")
		}
		if c.GoogleCredentialsFile == "" && c.GoogleCredentialsJSON == "" {
			return fmt.Errorf("either GoogleCredentialsFile or GoogleCredentialsJSON must be provided for sheets backend")
		}
	}

	return nil
}

// SessionBackendTypes lists where sessions and export records can live.
func SessionBackendTypes() []BackendType {
	return []BackendType{MemoryBackend, SQLiteBackend}
}

// ReportBackendTypes lists where exported reports can be written.
func ReportBackendTypes() []BackendType {
	return []BackendType{MemoryBackend, SheetsBackend}
}
