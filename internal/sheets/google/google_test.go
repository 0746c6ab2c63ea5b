package google

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"autofin/internal/aggregate"
	"autofin/internal/core"
	ports "autofin/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

func TestNewRequiresSpreadsheetAndCredentials(t *testing.T) {
	if _, err := New(context.Background(), Config{}); err == nil || err.Error() != "missing GOOGLE_SPREADSHEET_ID" {
		t.Fatalf("expected missing id error, got %v", err)
	}
	_, err := New(context.Background(), Config{SpreadsheetID: "id"})
	if err == nil || !strings.Contains(err.Error(), "missing service account credentials") {
		t.Fatalf("expected credentials error, got %v", err)
	}
	_, err = New(context.Background(), Config{SpreadsheetID: "id", CredentialsFile: t.TempDir() + "/missing.json"})
	if err == nil || !strings.Contains(err.Error(), "read service account file") {
		t.Fatalf("expected file error, got %v", err)
	}
}

func TestWriteReportAppendsRows(t *testing.T) {
	var (
		gotPath  string
		gotQuery string
		gotBody  gsheet.ValueRange
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"spreadsheetId":"sheet-id","updates":{"updatedRange":"Relatorio!A2:E4","updatedRows":3}}`))
	}))
	t.Cleanup(srv.Close)

	c, err := New(context.Background(),
		Config{SpreadsheetID: "sheet-id", SheetName: "Relatorio"},
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithHTTPClient(srv.Client()),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	day := core.NewDate(2025, 3, 2)
	report := ports.Report{
		ExportID: "exp-1",
		UserID:   "u1",
		Range:    core.DateRange{Start: core.NewDate(2025, 3, 1), End: core.NewDate(2025, 3, 31)},
		Days: []aggregate.DayGroup{{
			Date: day,
			Transactions: []core.Transaction{
				{ID: "a", Date: day, Category: "Mercado", Description: "feira", Amount: decimal.RequireFromString("50.5"), Kind: core.Expense},
				{ID: "b", Date: day, Category: "Lazer", Description: "cinema", Amount: decimal.NewFromInt(30), Kind: core.Expense},
			},
			Total: decimal.RequireFromString("80.5"),
		}},
	}

	ref, err := c.WriteReport(context.Background(), report)
	if err != nil {
		t.Fatalf("WriteReport: %v", err)
	}
	if ref != "Relatorio!A2:E4" {
		t.Fatalf("unexpected ref %q", ref)
	}
	if !strings.HasPrefix(gotPath, "/v4/spreadsheets/sheet-id/values/") || !strings.HasSuffix(gotPath, ":append") {
		t.Fatalf("unexpected path %q", gotPath)
	}
	if !strings.Contains(gotQuery, "valueInputOption=RAW") || !strings.Contains(gotQuery, "insertDataOption=INSERT_ROWS") {
		t.Fatalf("unexpected query %q", gotQuery)
	}
	if len(gotBody.Values) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(gotBody.Values))
	}
	first := gotBody.Values[0]
	if first[0] != "exp-1" || first[1] != "2025-03-02" || first[2] != "Mercado" || first[4] != 50.5 {
		t.Fatalf("unexpected first row %v", first)
	}
	total := gotBody.Values[2]
	if total[2] != totalLabel || total[4] != 80.5 {
		t.Fatalf("unexpected total row %v", total)
	}
}

func TestWriteReportEmptySkipsCall(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request %s", r.URL.Path)
	}))
	t.Cleanup(srv.Close)

	c, err := New(context.Background(), Config{SpreadsheetID: "sheet-id"},
		goption.WithEndpoint(srv.URL+"/"), goption.WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatal(err)
	}
	ref, err := c.WriteReport(context.Background(), ports.Report{ExportID: "exp-1"})
	if err != nil || ref != "" {
		t.Fatalf("expected empty ref and no error, got %q, %v", ref, err)
	}
	if _, err := c.WriteReport(context.Background(), ports.Report{}); err == nil {
		t.Fatal("expected error for missing export id")
	}
}
