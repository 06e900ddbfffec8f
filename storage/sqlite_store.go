package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"togimport/internal/timeutil"
	"togimport/pipeline"
)

type SQLiteStore struct {
	db *sql.DB
}

var ErrRunNotFound = errors.New("run not found")

// RunRecord is one persisted pipeline run.
type RunRecord struct {
	ID         int64
	UID        string
	StartedAt  time.Time
	FinishedAt time.Time
	From       time.Time
	To         time.Time
	DryRun     bool
	Fetched    int
	Imported   int
	Duplicates int
	Unresolved int
	Failed     int
}

// OutcomeRecord is one persisted entry outcome belonging to a run.
type OutcomeRecord struct {
	ID              int64
	RunID           int64
	SourceID        int64
	Description     string
	StartedAt       time.Time
	DurationSeconds int64
	Kind            string
	Reason          string
	WorkPackageID   int64
	RecordID        int64
	Detail          string
}

func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.ensureSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) ensureSchema() error {
	const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_uid TEXT NOT NULL UNIQUE,
	started_at TEXT NOT NULL,
	finished_at TEXT NOT NULL,
	from_day TEXT NOT NULL,
	to_day TEXT NOT NULL,
	dry_run INTEGER NOT NULL DEFAULT 0,
	fetched INTEGER NOT NULL DEFAULT 0,
	imported INTEGER NOT NULL DEFAULT 0,
	duplicates INTEGER NOT NULL DEFAULT 0,
	unresolved INTEGER NOT NULL DEFAULT 0,
	failed INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS outcomes (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id INTEGER NOT NULL REFERENCES runs(id),
	source_id INTEGER NOT NULL,
	description TEXT NOT NULL,
	started_at TEXT NOT NULL,
	duration_seconds INTEGER NOT NULL,
	kind TEXT NOT NULL,
	reason TEXT NOT NULL DEFAULT '',
	work_package_id INTEGER NOT NULL DEFAULT 0,
	record_id INTEGER NOT NULL DEFAULT 0,
	detail TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_outcomes_run ON outcomes(run_id);
`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	return nil
}

// SaveReport persists one run with all its outcomes and returns the
// stored run record.
func (s *SQLiteStore) SaveReport(report pipeline.Report, startedAt, finishedAt time.Time) (RunRecord, error) {
	counts := report.Counts()
	record := RunRecord{
		UID:        uuid.NewString(),
		StartedAt:  startedAt,
		FinishedAt: finishedAt,
		From:       report.From,
		To:         report.To,
		DryRun:     report.DryRun,
		Fetched:    counts.Fetched,
		Imported:   counts.Imported,
		Duplicates: counts.Duplicates,
		Unresolved: counts.Unresolved,
		Failed:     counts.Failed,
	}

	tx, err := s.db.Begin()
	if err != nil {
		return RunRecord{}, fmt.Errorf("begin transaction: %w", err)
	}

	const insertRun = `
INSERT INTO runs (
	run_uid,
	started_at,
	finished_at,
	from_day,
	to_day,
	dry_run,
	fetched,
	imported,
	duplicates,
	unresolved,
	failed
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`

	res, err := tx.Exec(
		insertRun,
		record.UID,
		record.StartedAt.Format(time.RFC3339),
		record.FinishedAt.Format(time.RFC3339),
		timeutil.FormatDay(record.From),
		timeutil.FormatDay(record.To),
		record.DryRun,
		record.Fetched,
		record.Imported,
		record.Duplicates,
		record.Unresolved,
		record.Failed,
	)
	if err != nil {
		_ = tx.Rollback()
		return RunRecord{}, fmt.Errorf("insert run: %w", err)
	}
	record.ID, err = res.LastInsertId()
	if err != nil {
		_ = tx.Rollback()
		return RunRecord{}, fmt.Errorf("read inserted run id: %w", err)
	}

	const insertOutcome = `
INSERT INTO outcomes (
	run_id,
	source_id,
	description,
	started_at,
	duration_seconds,
	kind,
	reason,
	work_package_id,
	record_id,
	detail
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`

	stmt, err := tx.Prepare(insertOutcome)
	if err != nil {
		_ = tx.Rollback()
		return RunRecord{}, fmt.Errorf("prepare outcome statement: %w", err)
	}
	defer stmt.Close()

	for _, outcome := range report.Outcomes {
		if _, err := stmt.Exec(
			record.ID,
			outcome.Entry.ID,
			outcome.Entry.Description,
			outcome.Entry.Start.Format(time.RFC3339),
			outcome.Entry.Duration,
			outcome.Kind.String(),
			string(outcome.Reason),
			outcome.Reference.ID,
			outcome.RecordID,
			outcome.Detail,
		); err != nil {
			_ = tx.Rollback()
			return RunRecord{}, fmt.Errorf("insert outcome for entry %d: %w", outcome.Entry.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return RunRecord{}, fmt.Errorf("commit transaction: %w", err)
	}

	return record, nil
}

// ListRuns returns the most recent runs, newest first.
func (s *SQLiteStore) ListRuns(limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	const query = `
SELECT
	id,
	run_uid,
	started_at,
	finished_at,
	from_day,
	to_day,
	dry_run,
	fetched,
	imported,
	duplicates,
	unresolved,
	failed
FROM runs
ORDER BY started_at DESC, id DESC
LIMIT ?;
`

	rows, err := s.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	records := make([]RunRecord, 0, limit)
	for rows.Next() {
		record, err := scanRun(rows.Scan)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}

	return records, nil
}

// GetRun returns one run by ID.
func (s *SQLiteStore) GetRun(id int64) (RunRecord, error) {
	if id <= 0 {
		return RunRecord{}, fmt.Errorf("run id must be > 0")
	}

	const query = `
SELECT
	id,
	run_uid,
	started_at,
	finished_at,
	from_day,
	to_day,
	dry_run,
	fetched,
	imported,
	duplicates,
	unresolved,
	failed
FROM runs
WHERE id = ?;
`

	record, err := scanRun(s.db.QueryRow(query, id).Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return RunRecord{}, ErrRunNotFound
		}
		return RunRecord{}, err
	}
	return record, nil
}

// ListOutcomes returns the outcomes of one run in entry order.
func (s *SQLiteStore) ListOutcomes(runID int64) ([]OutcomeRecord, error) {
	if runID <= 0 {
		return nil, fmt.Errorf("run id must be > 0")
	}

	const query = `
SELECT
	id,
	run_id,
	source_id,
	description,
	started_at,
	duration_seconds,
	kind,
	reason,
	work_package_id,
	record_id,
	detail
FROM outcomes
WHERE run_id = ?
ORDER BY started_at, source_id;
`

	rows, err := s.db.Query(query, runID)
	if err != nil {
		return nil, fmt.Errorf("query outcomes: %w", err)
	}
	defer rows.Close()

	records := make([]OutcomeRecord, 0, 64)
	for rows.Next() {
		var (
			record     OutcomeRecord
			startedRaw string
		)
		if err := rows.Scan(
			&record.ID,
			&record.RunID,
			&record.SourceID,
			&record.Description,
			&startedRaw,
			&record.DurationSeconds,
			&record.Kind,
			&record.Reason,
			&record.WorkPackageID,
			&record.RecordID,
			&record.Detail,
		); err != nil {
			return nil, fmt.Errorf("scan outcome: %w", err)
		}
		record.StartedAt, err = time.Parse(time.RFC3339, startedRaw)
		if err != nil {
			return nil, fmt.Errorf("parse outcome start %q: %w", startedRaw, err)
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outcomes: %w", err)
	}

	return records, nil
}

func scanRun(scan func(dest ...any) error) (RunRecord, error) {
	var (
		record      RunRecord
		startedRaw  string
		finishedRaw string
		fromRaw     string
		toRaw       string
	)

	if err := scan(
		&record.ID,
		&record.UID,
		&startedRaw,
		&finishedRaw,
		&fromRaw,
		&toRaw,
		&record.DryRun,
		&record.Fetched,
		&record.Imported,
		&record.Duplicates,
		&record.Unresolved,
		&record.Failed,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return RunRecord{}, err
		}
		return RunRecord{}, fmt.Errorf("scan run: %w", err)
	}

	var err error
	record.StartedAt, err = time.Parse(time.RFC3339, startedRaw)
	if err != nil {
		return RunRecord{}, fmt.Errorf("parse run start %q: %w", startedRaw, err)
	}
	record.FinishedAt, err = time.Parse(time.RFC3339, finishedRaw)
	if err != nil {
		return RunRecord{}, fmt.Errorf("parse run finish %q: %w", finishedRaw, err)
	}
	record.From, err = timeutil.ParseDay(fromRaw)
	if err != nil {
		return RunRecord{}, fmt.Errorf("parse run from day: %w", err)
	}
	record.To, err = timeutil.ParseDay(toRaw)
	if err != nil {
		return RunRecord{}, fmt.Errorf("parse run to day: %w", err)
	}

	return record, nil
}
