// Package ledger stores attendance records with at most one entry per person
// per calendar day.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Date and time-of-day layouts used in persisted records.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04:05"
)

// Column names of the persisted ledger, in order.
var Header = []string{"Name", "Date", "Time"}

// Record is one attendance entry.
type Record struct {
	Name string `json:"name"`
	Date string `json:"date"`
	Time string `json:"time"`
}

// Outcome is the result of a Record call.
type Outcome string

const (
	Created       Outcome = "created"
	AlreadyExists Outcome = "already_exists"
)

// Ledger is the write path for attendance. Implementations must guarantee that
// Record is idempotent per (name, date) and that a failed write leaves the
// previously persisted state intact.
type Ledger interface {
	Record(ctx context.Context, name string, ts time.Time) (Outcome, error)
	Snapshot(ctx context.Context) ([]Record, error)
	Close() error
}

// LedgerError wraps any failure to read or persist the ledger.
type LedgerError struct {
	Op   string
	Path string
	Err  error
}

func (e *LedgerError) Error() string {
	return fmt.Sprintf("ledger %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *LedgerError) Unwrap() error {
	return e.Err
}

// ErrMalformed marks a ledger file that exists but is not in the expected format.
var ErrMalformed = errors.New("malformed ledger")

// NewRecord derives the record for name at ts in loc.
func NewRecord(name string, ts time.Time, loc *time.Location) Record {
	if loc != nil {
		ts = ts.In(loc)
	}
	return Record{
		Name: name,
		Date: ts.Format(DateLayout),
		Time: ts.Format(TimeLayout),
	}
}

// FilterByDate returns the records for one date, preserving order.
// An empty date returns all records.
func FilterByDate(records []Record, date string) []Record {
	if date == "" {
		return records
	}
	var out []Record
	for _, r := range records {
		if r.Date == date {
			out = append(out, r)
		}
	}
	return out
}

type options struct {
	location *time.Location
	lockWait time.Duration
}

// Option configures a ledger backend.
type Option func(*options)

// WithLocation sets the time zone used to derive dates. Default is time.Local.
func WithLocation(loc *time.Location) Option {
	return func(o *options) {
		if loc != nil {
			o.location = loc
		}
	}
}

// WithLockRetry sets how often a blocked file lock is retried.
func WithLockRetry(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.lockWait = d
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{
		location: time.Local,
		lockWait: 25 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
