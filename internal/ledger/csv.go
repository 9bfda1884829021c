package ledger

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/renameio"
)

// CSVLedger keeps the ledger in a CSV file. Every write rewrites the whole file
// through a temp file and rename, so readers never observe a partial record.
// A sibling .lock file serializes writers across processes.
type CSVLedger struct {
	path string
	opts options
	mu   sync.Mutex
	lock *flock.Flock
}

// OpenCSV opens the ledger at path, creating it with only the header row if it
// does not exist. An existing file is never rewritten here, even if it is
// malformed; that is reported by Record and Snapshot.
func OpenCSV(path string, opts ...Option) (*CSVLedger, error) {
	l := &CSVLedger{
		path: path,
		opts: buildOptions(opts),
		lock: flock.New(path + ".lock"),
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, &LedgerError{Op: "open", Path: path, Err: err}
		}
	}

	unlock, err := l.acquire(context.Background())
	if err != nil {
		return nil, err
	}
	defer unlock()

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := l.write(nil); err != nil {
			return nil, &LedgerError{Op: "create", Path: path, Err: err}
		}
	} else if err != nil {
		return nil, &LedgerError{Op: "open", Path: path, Err: err}
	}
	return l, nil
}

// Path returns the ledger file path.
func (l *CSVLedger) Path() string {
	return l.path
}

// Record implements Ledger.
func (l *CSVLedger) Record(ctx context.Context, name string, ts time.Time) (Outcome, error) {
	if name == "" {
		return "", &LedgerError{Op: "record", Path: l.path, Err: errors.New("empty name")}
	}
	rec := NewRecord(name, ts, l.opts.location)

	l.mu.Lock()
	defer l.mu.Unlock()

	unlock, err := l.acquire(ctx)
	if err != nil {
		return "", err
	}
	defer unlock()

	records, err := l.read()
	if err != nil {
		return "", &LedgerError{Op: "read", Path: l.path, Err: err}
	}
	for _, r := range records {
		if r.Name == rec.Name && r.Date == rec.Date {
			return AlreadyExists, nil
		}
	}

	if err := ctx.Err(); err != nil {
		return "", &LedgerError{Op: "record", Path: l.path, Err: err}
	}
	if err := l.write(append(records, rec)); err != nil {
		return "", &LedgerError{Op: "write", Path: l.path, Err: err}
	}
	return Created, nil
}

// Snapshot implements Ledger.
func (l *CSVLedger) Snapshot(ctx context.Context) ([]Record, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	unlock, err := l.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	records, err := l.read()
	if err != nil {
		return nil, &LedgerError{Op: "read", Path: l.path, Err: err}
	}
	return records, nil
}

// Close releases the lock file handle.
func (l *CSVLedger) Close() error {
	if err := l.lock.Close(); err != nil {
		return &LedgerError{Op: "close", Path: l.path, Err: err}
	}
	return nil
}

func (l *CSVLedger) acquire(ctx context.Context) (func(), error) {
	ok, err := l.lock.TryLockContext(ctx, l.opts.lockWait)
	if err != nil {
		return nil, &LedgerError{Op: "lock", Path: l.path, Err: err}
	}
	if !ok {
		return nil, &LedgerError{Op: "lock", Path: l.path, Err: errors.New("lock not acquired")}
	}
	return func() { _ = l.lock.Unlock() }, nil
}

// read returns the persisted records. A file removed since open reads as empty
// and is recreated by the next write.
func (l *CSVLedger) read() ([]Record, error) {
	data, err := os.ReadFile(l.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return ReadCSV(bytes.NewReader(data))
}

func (l *CSVLedger) write(records []Record) error {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, records); err != nil {
		return err
	}
	if err := renameio.WriteFile(l.path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("replace file: %w", err)
	}
	return nil
}
