// Package ledger records extraction runs in a local SQLite database.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Run statuses.
const (
	StatusRunning = "RUNNING"
	StatusOK      = "OK"
	StatusFailed  = "FAILED"
)

// Run is one recorded extraction request.
type Run struct {
	ID         uuid.UUID  `json:"id"`
	BatchID    *uuid.UUID `json:"batch_id,omitempty"`
	Source     string     `json:"source"`
	Mode       string     `json:"mode"`
	Output     string     `json:"output,omitempty"`
	Format     string     `json:"format,omitempty"`
	Records    int        `json:"records"`
	Status     string     `json:"status"`
	Error      string     `json:"error,omitempty"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// Ledger stores runs. Discard returns an implementation that stores nothing.
type Ledger interface {
	Start(ctx context.Context, batchID *uuid.UUID, source, mode, output, format string) (uuid.UUID, error)
	Finish(ctx context.Context, id uuid.UUID, records int) error
	Fail(ctx context.Context, id uuid.UUID, message string) error
	Recent(ctx context.Context, limit int) ([]Run, error)
	Close() error
}

var migrations = []string{`
CREATE TABLE IF NOT EXISTS extraction_runs (
	id          TEXT PRIMARY KEY,
	batch_id    TEXT,
	source      TEXT NOT NULL,
	mode        TEXT NOT NULL,
	output      TEXT NOT NULL DEFAULT '',
	format      TEXT NOT NULL DEFAULT '',
	records     INTEGER NOT NULL DEFAULT 0,
	status      TEXT NOT NULL,
	error       TEXT NOT NULL DEFAULT '',
	started_at  INTEGER NOT NULL,
	finished_at INTEGER
)`,
	`CREATE INDEX IF NOT EXISTS extraction_runs_started ON extraction_runs (started_at DESC)`,
}

// SQLiteLedger is a Ledger backed by modernc.org/sqlite.
type SQLiteLedger struct {
	db  *sql.DB
	log *slog.Logger
	now func() time.Time
}

// Open opens (creating if needed) the ledger database at path.
func Open(ctx context.Context, path string, log *slog.Logger) (*SQLiteLedger, error) {
	if log == nil {
		log = slog.Default()
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	// one writer; sqlite serialises anyway
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout = 5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("configure ledger: %w", err)
	}
	for _, m := range migrations {
		if _, err := db.ExecContext(ctx, m); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("migrate ledger: %w", err)
		}
	}
	log.Info("ledger.opened", "path", path)
	return &SQLiteLedger{db: db, log: log, now: time.Now}, nil
}

func (l *SQLiteLedger) Start(ctx context.Context, batchID *uuid.UUID, source, mode, output, format string) (uuid.UUID, error) {
	id := uuid.New()
	var batch sql.NullString
	if batchID != nil {
		batch = sql.NullString{String: batchID.String(), Valid: true}
	}
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO extraction_runs (id, batch_id, source, mode, output, format, status, started_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id.String(), batch, source, mode, output, format, StatusRunning, l.now().UnixMilli())
	if err != nil {
		l.log.Error("ledger.run.start_failed", "source", source, "err", err)
		return uuid.Nil, fmt.Errorf("ledger start: %w", err)
	}
	l.log.Debug("ledger.run.started", "run_id", id, "source", source, "mode", mode)
	return id, nil
}

func (l *SQLiteLedger) Finish(ctx context.Context, id uuid.UUID, records int) error {
	return l.finish(ctx, id, StatusOK, records, "")
}

func (l *SQLiteLedger) Fail(ctx context.Context, id uuid.UUID, message string) error {
	return l.finish(ctx, id, StatusFailed, 0, message)
}

func (l *SQLiteLedger) finish(ctx context.Context, id uuid.UUID, status string, records int, message string) error {
	res, err := l.db.ExecContext(ctx,
		`UPDATE extraction_runs SET status = ?, records = ?, error = ?, finished_at = ? WHERE id = ?`,
		status, records, message, l.now().UnixMilli(), id.String())
	if err != nil {
		l.log.Error("ledger.run.finish_failed", "run_id", id, "err", err)
		return fmt.Errorf("ledger finish: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("ledger finish: run %s not found", id)
	}
	l.log.Debug("ledger.run.finished", "run_id", id, "status", status, "records", records)
	return nil
}

// Recent returns up to limit runs, newest first.
func (l *SQLiteLedger) Recent(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := l.db.QueryContext(ctx,
		`SELECT id, batch_id, source, mode, output, format, records, status, error, started_at, finished_at
		 FROM extraction_runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("ledger query: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r        Run
			id       string
			batch    sql.NullString
			started  int64
			finished sql.NullInt64
		)
		if err := rows.Scan(&id, &batch, &r.Source, &r.Mode, &r.Output, &r.Format, &r.Records,
			&r.Status, &r.Error, &started, &finished); err != nil {
			return nil, fmt.Errorf("ledger scan: %w", err)
		}
		if r.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("ledger scan: %w", err)
		}
		if batch.Valid {
			b, err := uuid.Parse(batch.String)
			if err == nil {
				r.BatchID = &b
			}
		}
		r.StartedAt = time.UnixMilli(started)
		if finished.Valid {
			t := time.UnixMilli(finished.Int64)
			r.FinishedAt = &t
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

func (l *SQLiteLedger) Close() error {
	if l == nil || l.db == nil {
		return nil
	}
	return l.db.Close()
}

// ErrDisabled is returned by the no-op ledger when history is requested.
var ErrDisabled = errors.New("run ledger is disabled (set --ledger to enable)")

type discard struct{}

// Discard returns a Ledger that records nothing. Its runs have the nil id.
func Discard() Ledger { return discard{} }

func (discard) Start(context.Context, *uuid.UUID, string, string, string, string) (uuid.UUID, error) {
	return uuid.Nil, nil
}

func (discard) Finish(context.Context, uuid.UUID, int) error { return nil }

func (discard) Fail(context.Context, uuid.UUID, string) error { return nil }

func (discard) Recent(context.Context, int) ([]Run, error) { return nil, ErrDisabled }

func (discard) Close() error { return nil }
