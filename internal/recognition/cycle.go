// Package recognition runs one pass of the recognition-to-record pipeline:
// match each probe, debounce accepted matches and write new events to the ledger.
package recognition

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/kozaktomas/face-attendance/internal/announce"
	"github.com/kozaktomas/face-attendance/internal/catalog"
	"github.com/kozaktomas/face-attendance/internal/debounce"
	"github.com/kozaktomas/face-attendance/internal/facematch"
	"github.com/kozaktomas/face-attendance/internal/ledger"
)

// Recorder receives pipeline measurements. *metrics.Manager implements it.
type Recorder interface {
	ObserveProbe(state string)
	ObserveDistance(d float64)
	ObserveLedgerWrite(outcome string)
	ObserveLedgerError()
	ObserveAnnounceError()
	ObserveCycle(d time.Duration)
}

// StatusSink receives the statuses of every completed cycle (e.g. a display).
type StatusSink interface {
	PublishStatuses(ctx context.Context, statuses []Status)
}

// StatusSinkFunc adapts a function to StatusSink.
type StatusSinkFunc func(ctx context.Context, statuses []Status)

// PublishStatuses implements StatusSink.
func (f StatusSinkFunc) PublishStatuses(ctx context.Context, statuses []Status) {
	f(ctx, statuses)
}

// Cycle wires matcher, gate and ledger together. Calls to Process on one Cycle
// never overlap.
type Cycle struct {
	mu sync.Mutex

	catalog   *catalog.Catalog
	matcher   *facematch.Matcher
	gate      *debounce.Gate
	ledger    ledger.Ledger
	announcer announce.Announcer
	sink      StatusSink
	recorder  Recorder
	logger    *slog.Logger
	now       func() time.Time
}

// Option configures a Cycle.
type Option func(*Cycle)

// WithAnnouncer sets the collaborator notified once per created record.
func WithAnnouncer(a announce.Announcer) Option {
	return func(c *Cycle) { c.announcer = a }
}

// WithStatusSink sets the collaborator receiving per-cycle statuses.
func WithStatusSink(s StatusSink) Option {
	return func(c *Cycle) { c.sink = s }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(c *Cycle) { c.recorder = r }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Cycle) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithClock sets the clock used for probes without a timestamp.
func WithClock(now func() time.Time) Option {
	return func(c *Cycle) {
		if now != nil {
			c.now = now
		}
	}
}

// NewCycle creates a cycle over the given components.
func NewCycle(cat *catalog.Catalog, m *facematch.Matcher, g *debounce.Gate, l ledger.Ledger, opts ...Option) (*Cycle, error) {
	if cat == nil || m == nil || g == nil || l == nil {
		return nil, errors.New("recognition cycle requires catalog, matcher, gate and ledger")
	}
	c := &Cycle{
		catalog: cat,
		matcher: m,
		gate:    g,
		ledger:  l,
		logger:  slog.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Catalog returns the catalog the cycle matches against.
func (c *Cycle) Catalog() *catalog.Catalog {
	return c.catalog
}

// Process runs every probe of one frame through the pipeline and returns one
// Status per probe, or a single Unrecognized status for an empty frame.
//
// The returned error is reserved for configuration faults (probe
// dimensionality that does not match the catalog); it is checked for all
// probes before any state changes. Ledger failures are reported in the
// affected probe's Status and do not stop the remaining probes.
func (c *Cycle) Process(ctx context.Context, probes []facematch.Probe) ([]Status, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	start := time.Now()
	defer func() {
		if c.recorder != nil {
			c.recorder.ObserveCycle(time.Since(start))
		}
	}()

	if len(probes) == 0 {
		statuses := []Status{{State: Unrecognized}}
		c.observe(statuses)
		c.publish(ctx, statuses)
		return statuses, nil
	}

	results := make([]facematch.MatchResult, len(probes))
	for i, p := range probes {
		r, err := c.matcher.Match(p, c.catalog)
		if err != nil {
			return nil, fmt.Errorf("probe %d: %w", i, err)
		}
		results[i] = r
	}

	statuses := make([]Status, len(probes))
	for i, p := range probes {
		statuses[i] = c.processOne(ctx, p, results[i])
	}

	c.observe(statuses)
	c.publish(ctx, statuses)
	return statuses, nil
}

func (c *Cycle) processOne(ctx context.Context, p facematch.Probe, r facematch.MatchResult) Status {
	if c.recorder != nil && c.catalog.Len() > 0 {
		c.recorder.ObserveDistance(r.Distance)
	}
	if !r.Known {
		return Status{Label: facematch.Unknown, State: Unrecognized, Distance: r.Distance}
	}

	ts := p.Timestamp
	if ts.IsZero() {
		ts = c.now()
	}

	st := Status{Label: r.Label, Distance: r.Distance}
	if c.gate.Observe(r.Label, ts) == debounce.Suppressed {
		st.State = Waiting
		return st
	}
	st.State = Recognized

	outcome, err := c.ledger.Record(ctx, r.Label, ts)
	if err != nil {
		c.logger.ErrorContext(ctx, "failed to record attendance", "name", r.Label, "error", err)
		if c.recorder != nil {
			c.recorder.ObserveLedgerError()
		}
		st.Err = err
		return st
	}
	st.Outcome = outcome
	if c.recorder != nil {
		c.recorder.ObserveLedgerWrite(string(outcome))
	}

	switch outcome {
	case ledger.Created:
		c.logger.InfoContext(ctx, "attendance marked", "name", r.Label, "time", ts.Format(time.TimeOnly), "distance", r.Distance)
		if c.announcer != nil {
			if err := c.announcer.Announce(ctx, r.Label); err != nil {
				c.logger.WarnContext(ctx, "announcement failed", "name", r.Label, "error", err)
				if c.recorder != nil {
					c.recorder.ObserveAnnounceError()
				}
			}
		}
	case ledger.AlreadyExists:
		c.logger.DebugContext(ctx, "already marked today", "name", r.Label)
	}
	return st
}

func (c *Cycle) observe(statuses []Status) {
	if c.recorder == nil {
		return
	}
	for _, st := range statuses {
		c.recorder.ObserveProbe(string(st.State))
	}
}

func (c *Cycle) publish(ctx context.Context, statuses []Status) {
	if c.sink != nil {
		c.sink.PublishStatuses(ctx, statuses)
	}
}
