package storage

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"autofin/internal/core"
)

// MemoryExportLog is the in-process export log used with the memory session
// backend and in tests.
type MemoryExportLog struct {
	mu      sync.Mutex
	records map[string]core.ExportRecord
	now     func() time.Time
}

func NewMemoryExportLog() *MemoryExportLog {
	return &MemoryExportLog{records: make(map[string]core.ExportRecord), now: time.Now}
}

func (m *MemoryExportLog) CreateExport(_ context.Context, rec core.ExportRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[rec.ID]; ok {
		return fmt.Errorf("insert export: duplicate id %s", rec.ID)
	}
	rec.Status = core.ExportPending
	rec.UpdatedAt = m.now().UTC()
	m.records[rec.ID] = rec
	return nil
}

func (m *MemoryExportLog) CompleteExport(_ context.Context, id string, rows int, ref string) error {
	return m.update(id, func(rec *core.ExportRecord) {
		rec.Status = core.ExportDone
		rec.Rows = rows
		rec.SheetsRef = ref
		rec.Error = ""
	})
}

func (m *MemoryExportLog) FailExport(_ context.Context, id, reason string) error {
	return m.update(id, func(rec *core.ExportRecord) {
		rec.Status = core.ExportFailed
		rec.Error = reason
	})
}

func (m *MemoryExportLog) update(id string, f func(*core.ExportRecord)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrExportNotFound, id)
	}
	f(&rec)
	rec.UpdatedAt = m.now().UTC()
	m.records[id] = rec
	return nil
}

func (m *MemoryExportLog) GetExport(_ context.Context, id string) (core.ExportRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[id]
	if !ok {
		return core.ExportRecord{}, fmt.Errorf("%w: %s", ErrExportNotFound, id)
	}
	return rec, nil
}

func (m *MemoryExportLog) ListExports(_ context.Context, userID string, limit int) ([]core.ExportRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []core.ExportRecord{}
	for _, rec := range m.records {
		if rec.UserID == userID {
			out = append(out, rec)
		}
	}
	slices.SortFunc(out, func(a, b core.ExportRecord) int {
		return cmp.Compare(b.RequestedAt.UnixNano(), a.RequestedAt.UnixNano())
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
