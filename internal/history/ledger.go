// Package history keeps a local ledger of promotion runs in SQLite.
// Recording is best effort: the ledger never gates a promotion, and a ledger
// failure is reported as a warning-grade classified error the caller logs
// and moves past.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"git.home.luguber.info/inful/promoter/internal/errors"
)

// DefaultLimit bounds queries that did not ask for an explicit row count.
const DefaultLimit = 20

// Record is one promotion run as remembered by the ledger.
type Record struct {
	ID          int64
	RunID       string
	Timestamp   time.Time
	Environment string
	Service     string
	Slug        string
	Ref         string
	CommitSHA   string
	Outcome     string
	Attempts    int
	Message     string
}

// Ledger stores promotion records in a SQLite database.
type Ledger struct {
	db *sql.DB
	mu sync.RWMutex
}

// Open opens the ledger at dbPath, creating the schema when missing. Use
// ":memory:" for an ephemeral ledger in tests.
func Open(dbPath string) (*Ledger, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, errors.HistoryError("failed to open promotion ledger", err).
			WithContext("path", dbPath)
	}

	ledger := &Ledger{db: db}
	if err := ledger.initialize(); err != nil {
		_ = db.Close()
		return nil, errors.HistoryError("failed to initialize promotion ledger", err).
			WithContext("path", dbPath)
	}
	return ledger, nil
}

func (l *Ledger) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS promotions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		timestamp INTEGER NOT NULL,
		environment TEXT NOT NULL,
		service TEXT NOT NULL,
		slug TEXT NOT NULL DEFAULT '',
		ref TEXT NOT NULL,
		commit_sha TEXT NOT NULL DEFAULT '',
		outcome TEXT NOT NULL,
		attempts INTEGER NOT NULL,
		message TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_promotions_service ON promotions(service);
	CREATE INDEX IF NOT EXISTS idx_promotions_timestamp ON promotions(timestamp);
	`
	_, err := l.db.Exec(schema)
	return err
}

// Append records one finished promotion run.
func (l *Ledger) Append(ctx context.Context, rec Record) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	_, err := l.db.ExecContext(ctx, `
		INSERT INTO promotions (run_id, timestamp, environment, service, slug, ref, commit_sha, outcome, attempts, message)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.RunID, rec.Timestamp.Unix(), rec.Environment, rec.Service, rec.Slug,
		rec.Ref, rec.CommitSHA, rec.Outcome, rec.Attempts, rec.Message)
	if err != nil {
		return errors.HistoryError("failed to record promotion", err).
			WithContext("service", rec.Service)
	}
	return nil
}

const selectColumns = `
	SELECT id, run_id, timestamp, environment, service, slug, ref, commit_sha, outcome, attempts, message
	FROM promotions`

// Recent returns the latest promotion runs, newest first.
func (l *Ledger) Recent(ctx context.Context, limit int) ([]Record, error) {
	return l.query(ctx, selectColumns+` ORDER BY id DESC LIMIT ?`, normalizeLimit(limit))
}

// ByService returns the latest promotion runs of one service, newest first.
func (l *Ledger) ByService(ctx context.Context, service string, limit int) ([]Record, error) {
	return l.query(ctx, selectColumns+` WHERE service = ? ORDER BY id DESC LIMIT ?`,
		service, normalizeLimit(limit))
}

// Close closes the underlying database.
func (l *Ledger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.db.Close()
}

func (l *Ledger) query(ctx context.Context, q string, args ...any) ([]Record, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	rows, err := l.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, errors.HistoryError("failed to query promotion ledger", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var records []Record
	for rows.Next() {
		var rec Record
		var ts int64
		if err := rows.Scan(&rec.ID, &rec.RunID, &ts, &rec.Environment, &rec.Service,
			&rec.Slug, &rec.Ref, &rec.CommitSHA, &rec.Outcome, &rec.Attempts, &rec.Message); err != nil {
			return nil, errors.HistoryError("failed to scan promotion record", err)
		}
		rec.Timestamp = time.Unix(ts, 0).UTC()
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.HistoryError(fmt.Sprintf("failed reading promotion records (%d so far)", len(records)), err)
	}
	return records, nil
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	return limit
}
