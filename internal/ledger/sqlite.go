package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS attendance (
	id   INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	date TEXT NOT NULL,
	time TEXT NOT NULL,
	UNIQUE (name, date)
)`

var sqlitePragmas = []string{
	"PRAGMA journal_mode = WAL",
	"PRAGMA busy_timeout = 10000",
	"PRAGMA synchronous = NORMAL",
}

// SQLiteLedger stores the ledger in an SQLite database. The (name, date)
// unique constraint enforces the one-entry-per-day rule inside the store.
type SQLiteLedger struct {
	db   *sql.DB
	path string
	opts options
}

// OpenSQLite opens or creates the database at path. ":memory:" is accepted for tests.
func OpenSQLite(path string, opts ...Option) (*SQLiteLedger, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, &LedgerError{Op: "open", Path: path, Err: err}
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, &LedgerError{Op: "open", Path: path, Err: err}
	}
	// One connection keeps ":memory:" databases shared and writes serialized.
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for _, pragma := range sqlitePragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, &LedgerError{Op: "open", Path: path, Err: fmt.Errorf("%s: %w", pragma, err)}
		}
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, &LedgerError{Op: "migrate", Path: path, Err: err}
	}

	return &SQLiteLedger{db: db, path: path, opts: buildOptions(opts)}, nil
}

// Record implements Ledger.
func (l *SQLiteLedger) Record(ctx context.Context, name string, ts time.Time) (Outcome, error) {
	if name == "" {
		return "", &LedgerError{Op: "record", Path: l.path, Err: errors.New("empty name")}
	}
	rec := NewRecord(name, ts, l.opts.location)

	res, err := l.db.ExecContext(ctx,
		`INSERT INTO attendance (name, date, time) VALUES (?, ?, ?) ON CONFLICT (name, date) DO NOTHING`,
		rec.Name, rec.Date, rec.Time)
	if err != nil {
		return "", &LedgerError{Op: "write", Path: l.path, Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return "", &LedgerError{Op: "write", Path: l.path, Err: err}
	}
	if n == 0 {
		return AlreadyExists, nil
	}
	return Created, nil
}

// Snapshot implements Ledger. Records are returned in insertion order.
func (l *SQLiteLedger) Snapshot(ctx context.Context) ([]Record, error) {
	rows, err := l.db.QueryContext(ctx, `SELECT name, date, time FROM attendance ORDER BY id`)
	if err != nil {
		return nil, &LedgerError{Op: "read", Path: l.path, Err: err}
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.Name, &r.Date, &r.Time); err != nil {
			return nil, &LedgerError{Op: "read", Path: l.path, Err: err}
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, &LedgerError{Op: "read", Path: l.path, Err: err}
	}
	return records, nil
}

// Close closes the database.
func (l *SQLiteLedger) Close() error {
	if err := l.db.Close(); err != nil {
		return &LedgerError{Op: "close", Path: l.path, Err: err}
	}
	return nil
}
