package recognition

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/kozaktomas/face-attendance/internal/announce"
	"github.com/kozaktomas/face-attendance/internal/catalog"
	"github.com/kozaktomas/face-attendance/internal/debounce"
	"github.com/kozaktomas/face-attendance/internal/facematch"
	"github.com/kozaktomas/face-attendance/internal/ledger"
)

// memLedger is an in-memory ledger that can fail selected calls.
type memLedger struct {
	mu      sync.Mutex
	records []ledger.Record
	calls   int
	failOn  map[int]error
}

func (l *memLedger) Record(_ context.Context, name string, ts time.Time) (ledger.Outcome, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls++
	if err, ok := l.failOn[l.calls]; ok {
		return "", err
	}
	rec := ledger.NewRecord(name, ts, time.UTC)
	for _, r := range l.records {
		if r.Name == rec.Name && r.Date == rec.Date {
			return ledger.AlreadyExists, nil
		}
	}
	l.records = append(l.records, rec)
	return ledger.Created, nil
}

func (l *memLedger) Snapshot(context.Context) ([]ledger.Record, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]ledger.Record(nil), l.records...), nil
}

func (l *memLedger) Close() error { return nil }

type recordingAnnouncer struct {
	names []string
}

func (a *recordingAnnouncer) Announce(_ context.Context, name string) error {
	a.names = append(a.names, name)
	return nil
}

var t0 = time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.New([]catalog.Identity{
		{Label: "Alice", Embedding: []float32{0, 0}},
		{Label: "Bob", Embedding: []float32{10, 10}},
	})
	if err != nil {
		t.Fatalf("catalog.New() error: %v", err)
	}
	return c
}

func newTestCycle(t *testing.T, l ledger.Ledger, opts ...Option) *Cycle {
	t.Helper()
	m, err := facematch.NewMatcher(facematch.MetricEuclidean, facematch.DefaultThreshold)
	if err != nil {
		t.Fatalf("NewMatcher() error: %v", err)
	}
	opts = append([]Option{WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))}, opts...)
	c, err := NewCycle(testCatalog(t), m, debounce.NewGate(2*time.Second), l, opts...)
	if err != nil {
		t.Fatalf("NewCycle() error: %v", err)
	}
	return c
}

func probeAt(emb []float32, sec int) facematch.Probe {
	return facematch.Probe{Embedding: emb, Timestamp: t0.Add(time.Duration(sec) * time.Second)}
}

func TestCycle_EmptyFrame(t *testing.T) {
	c := newTestCycle(t, &memLedger{})

	statuses, err := c.Process(context.Background(), nil)
	if err != nil {
		t.Fatalf("Process() error: %v", err)
	}
	if len(statuses) != 1 || statuses[0].State != Unrecognized {
		t.Fatalf("statuses = %+v, want single Unrecognized", statuses)
	}
	if got := statuses[0].DisplayText(); got != "No face recognized" {
		t.Errorf("DisplayText() = %q", got)
	}
}

func TestCycle_DebounceAndIdempotency(t *testing.T) {
	l := &memLedger{}
	ann := &recordingAnnouncer{}
	c := newTestCycle(t, l, WithAnnouncer(ann))
	alice := []float32{0.1, 0}

	tests := []struct {
		sec     int
		state   State
		outcome ledger.Outcome
	}{
		{0, Recognized, ledger.Created},
		{1, Waiting, ""},
		{3, Recognized, ledger.AlreadyExists},
	}
	for _, tt := range tests {
		statuses, err := c.Process(context.Background(), []facematch.Probe{probeAt(alice, tt.sec)})
		if err != nil {
			t.Fatalf("t=%d: Process() error: %v", tt.sec, err)
		}
		st := statuses[0]
		if st.Label != "Alice" || st.State != tt.state || st.Outcome != tt.outcome {
			t.Errorf("t=%d: status = %+v, want state %s outcome %q", tt.sec, st, tt.state, tt.outcome)
		}
	}

	if l.calls != 2 {
		t.Errorf("ledger calls = %d, want 2", l.calls)
	}
	if len(l.records) != 1 {
		t.Errorf("records = %d, want 1", len(l.records))
	}
	if len(ann.names) != 1 || ann.names[0] != "Alice" {
		t.Errorf("announcements = %v, want [Alice]", ann.names)
	}
}

func TestCycle_UnknownNeverRecorded(t *testing.T) {
	l := &memLedger{}
	c := newTestCycle(t, l)

	statuses, err := c.Process(context.Background(), []facematch.Probe{probeAt([]float32{5, 5}, 0)})
	if err != nil {
		t.Fatalf("Process() error: %v", err)
	}
	if statuses[0].State != Unrecognized || statuses[0].Label != facematch.Unknown {
		t.Errorf("status = %+v, want unknown", statuses[0])
	}
	if l.calls != 0 {
		t.Errorf("ledger calls = %d, want 0", l.calls)
	}
}

func TestCycle_PartialFailureIsolation(t *testing.T) {
	boom := errors.New("disk full")
	l := &memLedger{failOn: map[int]error{1: boom}}
	ann := &recordingAnnouncer{}
	c := newTestCycle(t, l, WithAnnouncer(ann))

	statuses, err := c.Process(context.Background(), []facematch.Probe{
		probeAt([]float32{0, 0}, 0),
		probeAt([]float32{10, 10}, 0),
	})
	if err != nil {
		t.Fatalf("Process() error: %v", err)
	}
	if len(statuses) != 2 {
		t.Fatalf("got %d statuses, want 2", len(statuses))
	}
	if !errors.Is(statuses[0].Err, boom) {
		t.Errorf("statuses[0].Err = %v, want %v", statuses[0].Err, boom)
	}
	if statuses[0].Announced() {
		t.Error("failed write must not be announced")
	}
	if statuses[1].Err != nil || statuses[1].Outcome != ledger.Created {
		t.Errorf("statuses[1] = %+v, want Bob created", statuses[1])
	}
	if len(ann.names) != 1 || ann.names[0] != "Bob" {
		t.Errorf("announcements = %v, want [Bob]", ann.names)
	}
}

func TestCycle_DimensionMismatchAborts(t *testing.T) {
	l := &memLedger{}
	c := newTestCycle(t, l)

	_, err := c.Process(context.Background(), []facematch.Probe{
		probeAt([]float32{0, 0}, 0),
		probeAt([]float32{0, 0, 0}, 0),
	})
	if !errors.Is(err, facematch.ErrDimensionMismatch) {
		t.Fatalf("Process() error = %v, want ErrDimensionMismatch", err)
	}
	if l.calls != 0 {
		t.Errorf("ledger calls = %d, want 0 after aborted cycle", l.calls)
	}
}

func TestCycle_ZeroTimestampUsesClock(t *testing.T) {
	l := &memLedger{}
	c := newTestCycle(t, l, WithClock(func() time.Time { return t0 }))

	if _, err := c.Process(context.Background(), []facematch.Probe{{Embedding: []float32{0, 0}}}); err != nil {
		t.Fatalf("Process() error: %v", err)
	}
	if len(l.records) != 1 || l.records[0].Time != "09:00:00" {
		t.Errorf("records = %+v, want one at 09:00:00", l.records)
	}
}

func TestCycle_StatusSink(t *testing.T) {
	var got []Status
	sink := StatusSinkFunc(func(_ context.Context, s []Status) { got = s })
	c := newTestCycle(t, &memLedger{}, WithStatusSink(sink))

	if _, err := c.Process(context.Background(), []facematch.Probe{probeAt([]float32{10, 10}, 0)}); err != nil {
		t.Fatalf("Process() error: %v", err)
	}
	if len(got) != 1 || got[0].DisplayText() != "Bob" {
		t.Errorf("sink got %+v", got)
	}
}

func TestCycle_AnnouncerError(t *testing.T) {
	l := &memLedger{}
	failing := announce.Func(func(context.Context, string) error { return errors.New("speaker offline") })
	c := newTestCycle(t, l, WithAnnouncer(failing))

	statuses, err := c.Process(context.Background(), []facematch.Probe{probeAt([]float32{0, 0}, 0)})
	if err != nil {
		t.Fatalf("Process() error: %v", err)
	}
	if statuses[0].Err != nil || statuses[0].Outcome != ledger.Created {
		t.Errorf("status = %+v, announcement failure must not affect the record", statuses[0])
	}
}

func TestFrame_Probes(t *testing.T) {
	f := Frame{Faces: []Face{{Embedding: []float32{1}}, {Embedding: []float32{2}}}}
	probes := f.Probes(t0)
	if len(probes) != 2 {
		t.Fatalf("got %d probes, want 2", len(probes))
	}
	for _, p := range probes {
		if !p.Timestamp.Equal(t0) {
			t.Errorf("timestamp = %v, want %v", p.Timestamp, t0)
		}
	}
}

func TestStatus_DisplayText(t *testing.T) {
	tests := []struct {
		status Status
		want   string
	}{
		{Status{Label: "Alice", State: Recognized}, "Alice"},
		{Status{Label: "Alice", State: Waiting}, "Alice (waiting...)"},
		{Status{Label: facematch.Unknown, State: Unrecognized}, "No face recognized"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.status.DisplayText(); got != tt.want {
				t.Errorf("DisplayText() = %q, want %q", got, tt.want)
			}
		})
	}
}
