package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	_ "modernc.org/sqlite"
)

// ErrRunNotFound is returned by GetRun for unknown ids.
var ErrRunNotFound = errors.New("run not found")

// SQLiteRepository keeps the local holiday cache and the run log.
type SQLiteRepository struct {
	db *sql.DB
}

// Run is one recorded pipeline invocation.
type Run struct {
	ID            string
	SpreadsheetID string
	CreatedBy     string
	StartedAt     time.Time
	FinishedAt    *time.Time
	OK            bool
	ResultJSON    string
	Error         string
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// A single connection serializes writers and avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// LoadHolidays implements calendar.LocalStore
func (r *SQLiteRepository) LoadHolidays(ctx context.Context, year int) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT date FROM holidays WHERE year = ? ORDER BY date`, year)
	if err != nil {
		return nil, fmt.Errorf("query holidays %d: %w", year, err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("scan holiday: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// SaveHolidays implements calendar.LocalStore. The stored set for year is replaced.
func (r *SQLiteRepository) SaveHolidays(ctx context.Context, year int, dates []string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM holidays WHERE year = ?`, year); err != nil {
		return fmt.Errorf("clear holidays %d: %w", year, err)
	}

	sorted := append([]string(nil), dates...)
	sort.Strings(sorted)
	now := time.Now().UTC().Format(time.RFC3339)
	for _, d := range sorted {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO holidays (year, date, fetched_at) VALUES (?, ?, ?)`, year, d, now); err != nil {
			return fmt.Errorf("insert holiday %s: %w", d, err)
		}
	}
	return tx.Commit()
}

// CreateRun records the start of a run. A run recorded earlier under the
// same id, such as the pending record of an enqueued run, is kept.
func (r *SQLiteRepository) CreateRun(ctx context.Context, run Run) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO runs (id, spreadsheet_id, created_by, started_at) VALUES (?, ?, ?, ?)`,
		run.ID, run.SpreadsheetID, run.CreatedBy, run.StartedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("create run %s: %w", run.ID, err)
	}
	return nil
}

// FinishRun stores the outcome of a run.
func (r *SQLiteRepository) FinishRun(ctx context.Context, id string, ok bool, resultJSON, errText string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE runs SET finished_at = ?, ok = ?, result_json = ?, error = ? WHERE id = ?`,
		time.Now().UTC().Format(time.RFC3339Nano), ok, resultJSON, errText, id)
	if err != nil {
		return fmt.Errorf("finish run %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return nil
}

func (r *SQLiteRepository) GetRun(ctx context.Context, id string) (*Run, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, spreadsheet_id, created_by, started_at, finished_at, ok, result_json, error FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return run, err
}

// ListRecentRuns returns the latest runs, newest first.
func (r *SQLiteRepository) ListRecentRuns(ctx context.Context, limit int) ([]Run, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, spreadsheet_id, created_by, started_at, finished_at, ok, result_json, error
		 FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *run)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (*Run, error) {
	var (
		run      Run
		started  string
		finished sql.NullString
	)
	if err := s.Scan(&run.ID, &run.SpreadsheetID, &run.CreatedBy, &started, &finished, &run.OK, &run.ResultJSON, &run.Error); err != nil {
		return nil, err
	}
	t, err := time.Parse(time.RFC3339Nano, started)
	if err != nil {
		return nil, fmt.Errorf("parse started_at %q: %w", started, err)
	}
	run.StartedAt = t
	if finished.Valid {
		ft, err := time.Parse(time.RFC3339Nano, finished.String)
		if err != nil {
			return nil, fmt.Errorf("parse finished_at %q: %w", finished.String, err)
		}
		run.FinishedAt = &ft
	}
	return &run, nil
}
