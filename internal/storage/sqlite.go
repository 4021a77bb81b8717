package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tazhate/lunchcal/internal/domain"

	_ "github.com/mattn/go-sqlite3"
)

type Storage struct {
	db *sql.DB
}

func New(dbPath string) (*Storage, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	s := &Storage{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

func (s *Storage) Close() error {
	return s.db.Close()
}

func (s *Storage) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS sync_runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			started_at DATETIME NOT NULL,
			finished_at DATETIME NOT NULL,
			week_start TEXT NOT NULL,
			week_end TEXT NOT NULL,
			serving_line TEXT DEFAULT '',
			dry_run INTEGER DEFAULT 0,
			skipped INTEGER DEFAULT 0,
			updated INTEGER DEFAULT 0,
			created INTEGER DEFAULT 0,
			error TEXT DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sync_runs_started ON sync_runs(started_at)`,
		`CREATE TABLE IF NOT EXISTS sync_days (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id INTEGER NOT NULL,
			date TEXT NOT NULL,
			state TEXT NOT NULL,
			event_id TEXT DEFAULT '',
			title TEXT DEFAULT '',
			FOREIGN KEY (run_id) REFERENCES sync_runs(id) ON DELETE CASCADE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sync_days_run ON sync_days(run_id)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("exec migration: %w", err)
		}
	}
	return nil
}

// === Runs ===

// RecordRun stores a run and its per-day outcomes in one transaction
func (s *Storage) RecordRun(r *domain.RunRecord) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(
		`INSERT INTO sync_runs (started_at, finished_at, week_start, week_end, serving_line, dry_run, skipped, updated, created, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.StartedAt, r.FinishedAt, r.WeekStart, r.WeekEnd, r.ServingLine, r.DryRun, r.Skipped, r.Updated, r.Created, r.Error,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("run id: %w", err)
	}

	for _, d := range r.Days {
		if _, err := tx.Exec(
			`INSERT INTO sync_days (run_id, date, state, event_id, title) VALUES (?, ?, ?, ?, ?)`,
			id, d.Date, string(d.State), d.EventID, d.Title,
		); err != nil {
			return fmt.Errorf("insert day %s: %w", d.Date, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	r.ID = id
	return nil
}

// ListRuns returns the most recent runs first, without their days
func (s *Storage) ListRuns(limit int) ([]*domain.RunRecord, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.Query(
		`SELECT id, started_at, finished_at, week_start, week_end, serving_line, dry_run, skipped, updated, created, error
		 FROM sync_runs ORDER BY started_at DESC, id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*domain.RunRecord
	for rows.Next() {
		r := &domain.RunRecord{}
		if err := rows.Scan(&r.ID, &r.StartedAt, &r.FinishedAt, &r.WeekStart, &r.WeekEnd, &r.ServingLine, &r.DryRun, &r.Skipped, &r.Updated, &r.Created, &r.Error); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// ListRunDays returns the per-day outcomes of a run in date order
func (s *Storage) ListRunDays(runID int64) ([]domain.DayOutcome, error) {
	rows, err := s.db.Query(
		`SELECT date, state, event_id, title FROM sync_days WHERE run_id = ? ORDER BY date ASC, id ASC`,
		runID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var days []domain.DayOutcome
	for rows.Next() {
		var d domain.DayOutcome
		var state string
		if err := rows.Scan(&d.Date, &state, &d.EventID, &d.Title); err != nil {
			return nil, err
		}
		d.State = domain.ReconcileState(state)
		days = append(days, d)
	}
	return days, rows.Err()
}
