// Package history persists pipeline runs and their per-file outcomes in a
// SQLite database. It is append-only bookkeeping: the pipeline never reads
// it back to make decisions.
package history

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/alisio/boleto-extract/constants"
	"github.com/alisio/boleto-extract/internal/pipeline"
)

// Run is one pipeline invocation.
type Run struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	Directory  string
	Catalog    string
	Model      string
	DryRun     bool
	Succeeded  int
	Failed     int
}

type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (creating if needed) the history database at path with WAL
// mode enabled and the schema initialized.
func Open(ctx context.Context, path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, err
	}
	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db, logger: logger}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	started_at TEXT NOT NULL,
	finished_at TEXT NOT NULL,
	directory TEXT NOT NULL,
	catalog TEXT NOT NULL,
	model TEXT NOT NULL,
	dry_run INTEGER NOT NULL DEFAULT 0,
	succeeded INTEGER NOT NULL DEFAULT 0,
	failed INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS outcomes (
	run_id TEXT NOT NULL,
	filename TEXT NOT NULL,
	status TEXT NOT NULL,
	label TEXT,
	payment_date TEXT,
	amount TEXT,
	renamed_to TEXT,
	collisions INTEGER NOT NULL DEFAULT 0,
	failure_kind TEXT,
	reason TEXT,
	FOREIGN KEY(run_id) REFERENCES runs(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_outcomes_run ON outcomes(run_id);
`
	_, err := db.ExecContext(ctx, schema)
	return err
}

// RecordRun writes the run row and its outcomes in one transaction and
// returns the run ID (generated when run.ID is blank).
func (s *Store) RecordRun(ctx context.Context, run Run, outcomes []pipeline.FileOutcome) (string, error) {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
INSERT INTO runs (id, started_at, finished_at, directory, catalog, model, dry_run, succeeded, failed)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?);
`,
		run.ID,
		run.StartedAt.UTC().Format(time.RFC3339),
		run.FinishedAt.UTC().Format(time.RFC3339),
		run.Directory,
		run.Catalog,
		run.Model,
		boolToInt(run.DryRun),
		run.Succeeded,
		run.Failed,
	)
	if err != nil {
		return "", err
	}

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO outcomes (run_id, filename, status, label, payment_date, amount, renamed_to, collisions, failure_kind, reason)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
`)
	if err != nil {
		return "", err
	}
	defer stmt.Close()

	for _, out := range outcomes {
		_, err := stmt.ExecContext(ctx,
			run.ID,
			out.Filename,
			string(out.Status),
			out.Label,
			out.Date,
			out.Amount,
			out.RenamedTo,
			out.Collisions,
			string(out.FailKind),
			out.Reason,
		)
		if err != nil {
			return "", err
		}
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	s.logger.Info("run recorded", "run_id", run.ID, "outcomes", len(outcomes))
	return run.ID, nil
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT id, started_at, finished_at, directory, catalog, model, dry_run, succeeded, failed
FROM runs
ORDER BY started_at DESC, id DESC
LIMIT ?;
`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r        Run
			started  string
			finished string
			dry      int
		)
		if err := rows.Scan(&r.ID, &started, &finished, &r.Directory, &r.Catalog, &r.Model, &dry, &r.Succeeded, &r.Failed); err != nil {
			return nil, err
		}
		r.StartedAt, _ = time.Parse(time.RFC3339, started)
		r.FinishedAt, _ = time.Parse(time.RFC3339, finished)
		r.DryRun = dry != 0
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// ListOutcomes returns the outcomes recorded for one run, in insertion order.
func (s *Store) ListOutcomes(ctx context.Context, runID string) ([]pipeline.FileOutcome, error) {
	return s.queryOutcomes(ctx, `
SELECT filename, status, label, payment_date, amount, renamed_to, collisions, failure_kind, reason
FROM outcomes
WHERE run_id = ?
ORDER BY rowid;
`, runID)
}

// ListOutcomesBetween returns outcomes of every run started in [from, to).
func (s *Store) ListOutcomesBetween(ctx context.Context, from, to time.Time) ([]pipeline.FileOutcome, error) {
	return s.queryOutcomes(ctx, `
SELECT o.filename, o.status, o.label, o.payment_date, o.amount, o.renamed_to, o.collisions, o.failure_kind, o.reason
FROM outcomes o
JOIN runs r ON r.id = o.run_id
WHERE r.started_at >= ? AND r.started_at < ?
ORDER BY r.started_at, o.rowid;
`, from.UTC().Format(time.RFC3339), to.UTC().Format(time.RFC3339))
}

func (s *Store) queryOutcomes(ctx context.Context, query string, args ...any) ([]pipeline.FileOutcome, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var outcomes []pipeline.FileOutcome
	for rows.Next() {
		var (
			out    pipeline.FileOutcome
			status string
			kind   string
		)
		if err := rows.Scan(&out.Filename, &status, &out.Label, &out.Date, &out.Amount, &out.RenamedTo, &out.Collisions, &kind, &out.Reason); err != nil {
			return nil, err
		}
		out.Status = constants.OutcomeStatus(status)
		out.FailKind = pipeline.FailureKind(kind)
		outcomes = append(outcomes, out)
	}
	return outcomes, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
