package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"autofin/internal/core"
	"autofin/internal/log"
	"autofin/internal/session"

	_ "modernc.org/sqlite"
)

// ErrExportNotFound is returned for unknown export ids.
var ErrExportNotFound = errors.New("export not found")

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteRepository stores the local session and the export log.
type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

var _ session.Store = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One writer at a time; SQLite serializes writes anyway.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, now: time.Now}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Load implements session.Store.
func (r *SQLiteRepository) Load(ctx context.Context) (session.Session, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, name, email, created_at FROM sessions ORDER BY created_at DESC LIMIT 1`)

	var s session.Session
	var created string
	if err := row.Scan(&s.ID, &s.UserID, &s.Name, &s.Email, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return session.Session{}, session.ErrNoSession
		}
		return session.Session{}, fmt.Errorf("load session: %w", err)
	}
	t, err := time.Parse(timeLayout, created)
	if err != nil {
		return session.Session{}, fmt.Errorf("parse session time: %w", err)
	}
	s.CreatedAt = t
	return s, nil
}

// Save implements session.Store. Any previous session is replaced.
func (r *SQLiteRepository) Save(ctx context.Context, s session.Session) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM sessions`); err != nil {
		return fmt.Errorf("clear sessions: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO sessions (id, user_id, name, email, created_at) VALUES (?, ?, ?, ?, ?)`,
		s.ID, s.UserID, s.Name, s.Email, s.CreatedAt.UTC().Format(timeLayout)); err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	slog.DebugContext(ctx, "Session saved to SQLite", log.FieldComponent, log.ComponentStorage, "session_id", s.ID)
	return nil
}

// Clear implements session.Store.
func (r *SQLiteRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sessions`); err != nil {
		return fmt.Errorf("clear sessions: %w", err)
	}
	return nil
}

// CreateExport records a pending export.
func (r *SQLiteRepository) CreateExport(ctx context.Context, rec core.ExportRecord) error {
	now := r.now().UTC().Format(timeLayout)
	requested := rec.RequestedAt.UTC().Format(timeLayout)
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO exports (id, user_id, range_start, range_end, status, requested_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.UserID, rec.Range.Start.String(), rec.Range.End.String(), string(core.ExportPending), requested, now)
	if err != nil {
		return fmt.Errorf("insert export: %w", err)
	}
	return nil
}

// CompleteExport marks an export done.
func (r *SQLiteRepository) CompleteExport(ctx context.Context, id string, rows int, ref string) error {
	return r.updateExport(ctx, id,
		`UPDATE exports SET status = ?, rows_written = ?, sheets_ref = ?, error = '', updated_at = ? WHERE id = ?`,
		string(core.ExportDone), rows, ref, r.now().UTC().Format(timeLayout), id)
}

// FailExport marks an export failed with reason.
func (r *SQLiteRepository) FailExport(ctx context.Context, id, reason string) error {
	return r.updateExport(ctx, id,
		`UPDATE exports SET status = ?, error = ?, updated_at = ? WHERE id = ?`,
		string(core.ExportFailed), reason, r.now().UTC().Format(timeLayout), id)
}

func (r *SQLiteRepository) updateExport(ctx context.Context, id, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update export %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrExportNotFound, id)
	}
	return nil
}

// GetExport returns a single export.
func (r *SQLiteRepository) GetExport(ctx context.Context, id string) (core.ExportRecord, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+exportColumns+` FROM exports WHERE id = ?`, id)
	rec, err := scanExport(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.ExportRecord{}, fmt.Errorf("%w: %s", ErrExportNotFound, id)
	}
	return rec, err
}

// ListExports returns the most recent exports of a user, newest first.
func (r *SQLiteRepository) ListExports(ctx context.Context, userID string, limit int) ([]core.ExportRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+exportColumns+` FROM exports WHERE user_id = ? ORDER BY requested_at DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list exports: %w", err)
	}
	defer rows.Close()

	out := []core.ExportRecord{}
	for rows.Next() {
		rec, err := scanExport(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

const exportColumns = `id, user_id, range_start, range_end, status, rows_written, sheets_ref, error, requested_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanExport(s scanner) (core.ExportRecord, error) {
	var (
		rec                  core.ExportRecord
		start, end, status   string
		requested, updatedAt string
	)
	if err := s.Scan(&rec.ID, &rec.UserID, &start, &end, &status, &rec.Rows, &rec.SheetsRef, &rec.Error, &requested, &updatedAt); err != nil {
		return core.ExportRecord{}, err
	}
	rng, err := core.NewDateRange(start, end)
	if err != nil {
		return core.ExportRecord{}, fmt.Errorf("export %s: %w", rec.ID, err)
	}
	rec.Range = rng
	rec.Status = core.ExportStatus(status)
	if rec.RequestedAt, err = time.Parse(timeLayout, requested); err != nil {
		return core.ExportRecord{}, fmt.Errorf("export %s: %w", rec.ID, err)
	}
	if rec.UpdatedAt, err = time.Parse(timeLayout, updatedAt); err != nil {
		return core.ExportRecord{}, fmt.Errorf("export %s: %w", rec.ID, err)
	}
	return rec, nil
}
