package memory

import (
	"context"
	"testing"

	"autofin/internal/sheets"
)

func TestWriteReport(t *testing.T) {
	s := New()
	ref, err := s.WriteReport(context.Background(), sheets.Report{ExportID: "e1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ref != "mem:1" {
		t.Fatalf("unexpected ref %q", ref)
	}
	if _, err := s.WriteReport(context.Background(), sheets.Report{}); err == nil {
		t.Fatal("expected error for missing export id")
	}
	if got := s.Reports(); len(got) != 1 || got[0].ExportID != "e1" {
		t.Fatalf("unexpected reports %+v", got)
	}
}
