// Package store persists the run ledger: one row per harvest run with
// its counters, plus the records each run dropped for incompleteness.
package store

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/carolinaborgesoficial/assessorai-crawler/internal/pipeline"
)

// RunStatus is the lifecycle state of a harvest run.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// Run is one ledger row.
type Run struct {
	ID             string
	Source         string
	Status         RunStatus
	Collected      int
	Dropped        int
	Written        int
	DocumentsSaved int
	TextsSaved     int
	FetchFailures  int
	Error          string
	StartedAt      time.Time
	FinishedAt     *time.Time
}

// Ledger implements the run ledger using modernc.org/sqlite.
type Ledger struct {
	db *sql.DB
}

// NewLedger opens the ledger database and configures WAL mode.
func NewLedger(dsn string) (*Ledger, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "store: open ledger")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "store: exec %s", pragma)
		}
	}
	return &Ledger{db: db}, nil
}

const ledgerMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id              TEXT PRIMARY KEY,
	source          TEXT NOT NULL,
	status          TEXT NOT NULL DEFAULT 'running',
	collected       INTEGER NOT NULL DEFAULT 0,
	dropped         INTEGER NOT NULL DEFAULT 0,
	written         INTEGER NOT NULL DEFAULT 0,
	documents_saved INTEGER NOT NULL DEFAULT 0,
	texts_saved     INTEGER NOT NULL DEFAULT 0,
	fetch_failures  INTEGER NOT NULL DEFAULT 0,
	error           TEXT NOT NULL DEFAULT '',
	started_at      DATETIME NOT NULL,
	finished_at     DATETIME
);

CREATE TABLE IF NOT EXISTS dropped_records (
	id             TEXT PRIMARY KEY,
	run_id         TEXT NOT NULL REFERENCES runs(id),
	natural_key    TEXT NOT NULL,
	missing_fields TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_source ON runs(source);
CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_dropped_records_run_id ON dropped_records(run_id);
`

// Migrate creates the ledger schema.
func (l *Ledger) Migrate(ctx context.Context) error {
	_, err := l.db.ExecContext(ctx, ledgerMigration)
	return eris.Wrap(err, "store: migrate ledger")
}

// Close closes the database.
func (l *Ledger) Close() error {
	return l.db.Close()
}

// StartRun opens a ledger row for one source's harvest.
func (l *Ledger) StartRun(ctx context.Context, source string) (*Run, error) {
	run := &Run{
		ID:        uuid.New().String(),
		Source:    source,
		Status:    RunStatusRunning,
		StartedAt: time.Now().UTC(),
	}
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO runs (id, source, status, started_at) VALUES (?, ?, ?, ?)`,
		run.ID, run.Source, string(run.Status), run.StartedAt,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "store: insert run for %s", source)
	}
	return run, nil
}

// FinishRun closes a run with its final counters and writes one row per
// dropped record.
func (l *Ledger) FinishRun(ctx context.Context, runID string, status RunStatus, summary pipeline.Summary, runErr error) error {
	errText := ""
	if runErr != nil {
		errText = runErr.Error()
	}

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "store: begin finish run")
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE runs
		 SET status = ?, collected = ?, dropped = ?, written = ?,
		     documents_saved = ?, texts_saved = ?, fetch_failures = ?,
		     error = ?, finished_at = ?
		 WHERE id = ?`,
		string(status), summary.Collected, summary.Dropped, summary.Written,
		summary.DocumentsSaved, summary.TextsSaved, summary.FetchFailures,
		errText, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "store: update run %s", runID)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "store: rows affected")
	}
	if affected == 0 {
		return eris.Errorf("store: run %s not found", runID)
	}

	for _, drop := range summary.Drops {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO dropped_records (id, run_id, natural_key, missing_fields) VALUES (?, ?, ?, ?)`,
			uuid.New().String(), runID, drop.NaturalKey, strings.Join(drop.Missing, ","),
		)
		if err != nil {
			return eris.Wrapf(err, "store: insert dropped record for run %s", runID)
		}
	}

	return eris.Wrap(tx.Commit(), "store: commit finish run")
}

// GetRun loads one ledger row.
func (l *Ledger) GetRun(ctx context.Context, runID string) (*Run, error) {
	row := l.db.QueryRowContext(ctx,
		`SELECT id, source, status, collected, dropped, written,
		        documents_saved, texts_saved, fetch_failures, error,
		        started_at, finished_at
		 FROM runs WHERE id = ?`, runID)
	return scanRun(row)
}

// ListRuns returns the most recent runs, optionally filtered by source.
func (l *Ledger) ListRuns(ctx context.Context, source string, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT id, source, status, collected, dropped, written,
	                 documents_saved, texts_saved, fetch_failures, error,
	                 started_at, finished_at
	          FROM runs`
	args := []interface{}{}
	if source != "" {
		query += ` WHERE source = ?`
		args = append(args, source)
	}
	query += ` ORDER BY started_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "store: list runs")
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, eris.Wrap(rows.Err(), "store: iterate runs")
}

// DroppedRecords returns the natural keys and missing fields a run
// discarded.
func (l *Ledger) DroppedRecords(ctx context.Context, runID string) ([]pipeline.Drop, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT natural_key, missing_fields FROM dropped_records WHERE run_id = ?`, runID)
	if err != nil {
		return nil, eris.Wrapf(err, "store: dropped records for run %s", runID)
	}
	defer rows.Close()

	var drops []pipeline.Drop
	for rows.Next() {
		var drop pipeline.Drop
		var missing string
		if err := rows.Scan(&drop.NaturalKey, &missing); err != nil {
			return nil, eris.Wrap(err, "store: scan dropped record")
		}
		if missing != "" {
			drop.Missing = strings.Split(missing, ",")
		}
		drops = append(drops, drop)
	}
	return drops, eris.Wrap(rows.Err(), "store: iterate dropped records")
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row rowScanner) (*Run, error) {
	var run Run
	var status string
	var finishedAt sql.NullTime
	err := row.Scan(&run.ID, &run.Source, &status, &run.Collected, &run.Dropped,
		&run.Written, &run.DocumentsSaved, &run.TextsSaved, &run.FetchFailures,
		&run.Error, &run.StartedAt, &finishedAt)
	if err == sql.ErrNoRows {
		return nil, eris.Wrap(err, "store: run not found")
	}
	if err != nil {
		return nil, eris.Wrap(err, "store: scan run")
	}
	run.Status = RunStatus(status)
	if finishedAt.Valid {
		run.FinishedAt = &finishedAt.Time
	}
	return &run, nil
}
