// Package storage records run history in SQLite. The history is purely
// observational (API and reporting): matching never reads it back, so the
// linker core stays stateless between runs.
package storage

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Storage provides SQLite database access for run history. It implements
// the Repository interface.
type Storage struct {
	db *sql.DB
}

// Compile-time check that Storage implements Repository
var _ Repository = (*Storage)(nil)

// NewStorage creates a new storage instance with a SQLite database at the
// given path.
func NewStorage(dbPath string) (*Storage, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	// Enable foreign key constraints (SQLite-specific)
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s := &Storage{db: db}
	if err := s.runMigrations(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database connection.
func (s *Storage) Close() error {
	return s.db.Close()
}

// StartRun records the start of a run.
func (s *Storage) StartRun(run *Run) error {
	_, err := s.db.Exec(`
	INSERT INTO runs (id, mode, started_at, dry_run, lookback_days, window_hours, min_score, status)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Mode, run.StartedAt, run.DryRun,
		run.LookbackDays, run.WindowHours, run.MinScore, StatusRunning,
	)
	return err
}

// CompleteRun records the closing counters and status of a run.
func (s *Storage) CompleteRun(id string, counts RunCounts, status string) error {
	_, err := s.db.Exec(`
	UPDATE runs
	SET completed_at = CURRENT_TIMESTAMP,
	    matched = ?, ambiguous = ?, below_score = ?, no_candidate = ?, failures = ?,
	    status = ?
	WHERE id = ?`,
		counts.Matched, counts.Ambiguous, counts.BelowScore, counts.NoCandidate, counts.Failures,
		status, id,
	)
	return err
}

// SaveLinkRecord saves one applied or previewed link.
func (s *Storage) SaveLinkRecord(rec *LinkRecord) error {
	res, err := s.db.Exec(`
	INSERT INTO link_records
	(run_id, kept_id, dropped_id, src_account, dst_account, amount, score, same_day, action)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.RunID, rec.KeptID, rec.DroppedID, rec.SrcAccount, rec.DstAccount,
		rec.Amount, rec.Score, rec.SameDay, rec.Action,
	)
	if err != nil {
		return err
	}
	rec.ID, _ = res.LastInsertId()
	return nil
}

const runColumns = `id, mode, started_at, COALESCE(completed_at, ''), dry_run,
	lookback_days, window_hours, min_score, matched, ambiguous, below_score,
	no_candidate, failures, status`

func scanRun(row interface{ Scan(...any) error }) (*Run, error) {
	run := &Run{}
	err := row.Scan(
		&run.ID, &run.Mode, &run.StartedAt, &run.CompletedAt, &run.DryRun,
		&run.LookbackDays, &run.WindowHours, &run.MinScore, &run.Matched,
		&run.Ambiguous, &run.BelowScore, &run.NoCandidate, &run.Failures,
		&run.Status,
	)
	if err != nil {
		return nil, err
	}
	return run, nil
}

// ListRuns returns recent runs, newest first.
func (s *Storage) ListRuns(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(
		`SELECT `+runColumns+` FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// GetRun retrieves a run by id, or nil when unknown.
func (s *Storage) GetRun(id string) (*Run, error) {
	run, err := scanRun(s.db.QueryRow(
		`SELECT `+runColumns+` FROM runs WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return run, nil
}

// ListLinkRecords returns the link records of one run.
func (s *Storage) ListLinkRecords(runID string) ([]LinkRecord, error) {
	rows, err := s.db.Query(`
	SELECT id, run_id, kept_id, dropped_id, src_account, dst_account,
	       amount, score, same_day, action, COALESCE(created_at, '')
	FROM link_records WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var records []LinkRecord
	for rows.Next() {
		var rec LinkRecord
		if err := rows.Scan(
			&rec.ID, &rec.RunID, &rec.KeptID, &rec.DroppedID,
			&rec.SrcAccount, &rec.DstAccount, &rec.Amount, &rec.Score,
			&rec.SameDay, &rec.Action, &rec.CreatedAt,
		); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// GetStats returns aggregate statistics over the history.
func (s *Storage) GetStats() (*Stats, error) {
	stats := &Stats{}
	err := s.db.QueryRow(`
	SELECT COUNT(*),
	       COALESCE(SUM(CASE WHEN mode = 'link' THEN matched ELSE 0 END), 0),
	       COALESCE(SUM(CASE WHEN mode = 'repair' THEN matched ELSE 0 END), 0),
	       COALESCE(SUM(failures), 0),
	       COALESCE(MAX(started_at), '')
	FROM runs`).Scan(
		&stats.TotalRuns, &stats.TotalLinked, &stats.TotalRepaired,
		&stats.TotalFailures, &stats.LastRunAt,
	)
	if err != nil {
		return nil, err
	}
	return stats, nil
}
