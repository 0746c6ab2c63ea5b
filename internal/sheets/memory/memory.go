// Package memory keeps exported reports in process memory.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"autofin/internal/sheets"
)

type Store struct {
	mu      sync.Mutex
	reports []sheets.Report
}

var _ sheets.ReportWriter = (*Store)(nil)

func New() *Store {
	return &Store{}
}

// WriteReport stores the report and returns a synthetic reference.
func (s *Store) WriteReport(_ context.Context, r sheets.Report) (string, error) {
	if r.ExportID == "" {
		return "", errors.New("missing export id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports = append(s.reports, r)
	return fmt.Sprintf("mem:%d", len(s.reports)), nil
}

// Reports returns the stored reports in write order.
func (s *Store) Reports() []sheets.Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]sheets.Report(nil), s.reports...)
}
