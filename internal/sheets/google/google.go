package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"autofin/internal/log"
	ports "autofin/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// totalLabel marks day total rows in the category column.
const totalLabel = "Total do dia"

// Config selects the spreadsheet and the credentials used to reach it.
type Config struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsJSON string
	CredentialsFile string
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

var _ ports.ReportWriter = (*Client)(nil)

// New creates a Sheets client authenticated with a service account. Extra
// options are appended after the credentials; tests use them to point the
// client at a fake endpoint.
func New(ctx context.Context, cfg Config, extra ...goption.ClientOption) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	if cfg.SheetName == "" {
		cfg.SheetName = "Relatorio"
	}

	opts, err := credentialOptions(ctx, cfg, len(extra) > 0)
	if err != nil {
		return nil, err
	}
	svc, err := gsheet.NewService(ctx, append(opts, extra...)...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return &Client{svc: svc, spreadsheetID: cfg.SpreadsheetID, sheetName: cfg.SheetName}, nil
}

// credentialOptions prefers inline JSON over a file. Credentials may only be
// absent when the caller supplies its own transport options.
func credentialOptions(ctx context.Context, cfg Config, haveExtra bool) ([]goption.ClientOption, error) {
	var credentialsJSON []byte
	switch {
	case strings.TrimSpace(cfg.CredentialsJSON) != "":
		slog.InfoContext(ctx, "Using inline JSON credentials", log.FieldComponent, log.ComponentSheets)
		credentialsJSON = []byte(cfg.CredentialsJSON)
	case strings.TrimSpace(cfg.CredentialsFile) != "":
		slog.InfoContext(ctx, "Reading credentials from file", log.FieldComponent, log.ComponentSheets, "path", cfg.CredentialsFile)
		b, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = b
	case haveExtra:
		return nil, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE)")
	}
	return []goption.ClientOption{
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope),
	}, nil
}

// WriteReport appends one row per report line below the existing data.
// Every row starts with the export id so several exports can share a sheet.
func (c *Client) WriteReport(ctx context.Context, r ports.Report) (string, error) {
	if r.ExportID == "" {
		return "", errors.New("missing export id")
	}
	lines := r.Lines()
	if len(lines) == 0 {
		return "", nil
	}

	values := make([][]any, 0, len(lines))
	for _, l := range lines {
		category, description := l.Category, l.Description
		if l.Total {
			category, description = totalLabel, ""
		}
		values = append(values, []any{
			r.ExportID,
			l.Date.String(),
			category,
			description,
			l.Amount.Round(2).InexactFloat64(),
		})
	}

	rng := fmt.Sprintf("%s!A:E", c.sheetName)
	resp, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, &gsheet.ValueRange{Values: values}).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("append report to sheet %s: %w", c.sheetName, err)
	}

	ref := rng
	if resp.Updates != nil && resp.Updates.UpdatedRange != "" {
		ref = resp.Updates.UpdatedRange
	}
	slog.InfoContext(ctx, "Report written to sheet",
		log.FieldComponent, log.ComponentSheets,
		log.FieldExportID, r.ExportID,
		"rows", len(values),
		"sheets_ref", ref)
	return ref, nil
}
