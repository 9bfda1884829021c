package web

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/kozaktomas/face-attendance/internal/announce"
	"github.com/kozaktomas/face-attendance/internal/catalog"
	"github.com/kozaktomas/face-attendance/internal/config"
	"github.com/kozaktomas/face-attendance/internal/debounce"
	"github.com/kozaktomas/face-attendance/internal/facematch"
	"github.com/kozaktomas/face-attendance/internal/ledger"
	"github.com/kozaktomas/face-attendance/internal/metrics"
	"github.com/kozaktomas/face-attendance/internal/recognition"
	"github.com/kozaktomas/face-attendance/internal/web/handlers"
)

func newTestServer(t *testing.T) (*Server, *announce.Broadcaster) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	cat, err := catalog.New([]catalog.Identity{
		{Label: "Alice", Embedding: []float32{0, 0}},
		{Label: "Bob", Embedding: []float32{5, 5}},
	})
	if err != nil {
		t.Fatalf("catalog.New() error: %v", err)
	}
	matcher, err := facematch.NewMatcher(facematch.MetricEuclidean, facematch.DefaultThreshold)
	if err != nil {
		t.Fatalf("NewMatcher() error: %v", err)
	}
	l, err := ledger.OpenCSV(filepath.Join(t.TempDir(), "Attendance.csv"), ledger.WithLocation(time.UTC))
	if err != nil {
		t.Fatalf("OpenCSV() error: %v", err)
	}
	t.Cleanup(func() { l.Close() })

	b := announce.NewBroadcaster()
	m := metrics.NewManager()
	cycle, err := recognition.NewCycle(cat, matcher, debounce.NewGate(2*time.Second), l,
		recognition.WithAnnouncer(b),
		recognition.WithStatusSink(handlers.BroadcastStatuses(b)),
		recognition.WithRecorder(m),
		recognition.WithLogger(logger),
	)
	if err != nil {
		t.Fatalf("NewCycle() error: %v", err)
	}

	s := NewServer(config.WebConfig{Host: "127.0.0.1", Port: 0}, Deps{
		Catalog:     cat,
		Processor:   cycle,
		Ledger:      l,
		Broadcaster: b,
		Metrics:     m.Handler(),
	}, logger)
	return s, b
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, r))
	return rec
}

func TestServer_FrameToReport(t *testing.T) {
	s, b := newTestServer(t)
	router := s.Router()

	events := b.AddListener()
	defer b.RemoveListener(events)

	frame := `{"timestamp":"2024-03-04T09:00:00Z","faces":[{"embedding":[0.1,0]},{"embedding":[9,9]}]}`
	rec := do(t, router, http.MethodPost, "/api/v1/frames", frame)
	if rec.Code != http.StatusOK {
		t.Fatalf("POST frames status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var frameResp handlers.FramesResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &frameResp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if len(frameResp.Statuses) != 2 {
		t.Fatalf("got %d statuses, want 2", len(frameResp.Statuses))
	}
	if frameResp.Statuses[0].Label != "Alice" || frameResp.Statuses[0].Outcome != "created" {
		t.Errorf("statuses[0] = %+v", frameResp.Statuses[0])
	}
	if frameResp.Statuses[1].State != "unrecognized" {
		t.Errorf("statuses[1] = %+v", frameResp.Statuses[1])
	}

	// the same face one second later is debounced
	rec = do(t, router, http.MethodPost, "/api/v1/frames",
		`{"timestamp":"2024-03-04T09:00:01Z","faces":[{"embedding":[0.1,0]}]}`)
	if !strings.Contains(rec.Body.String(), `"state":"waiting"`) {
		t.Errorf("second frame = %s, want waiting", rec.Body.String())
	}

	rec = do(t, router, http.MethodGet, "/api/v1/attendance?date=2024-03-04", "")
	var report handlers.AttendanceResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
		t.Fatalf("failed to unmarshal report: %v", err)
	}
	if report.Count != 1 || report.Records[0].Name != "Alice" || report.Records[0].Time != "09:00:00" {
		t.Errorf("report = %+v", report)
	}

	var types []string
	for len(events) > 0 {
		types = append(types, (<-events).Type)
	}
	want := []string{announce.EventAnnounce, announce.EventStatus, announce.EventStatus}
	if strings.Join(types, ",") != strings.Join(want, ",") {
		t.Errorf("events = %v, want %v", types, want)
	}
}

func TestServer_DimensionMismatch(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s.Router(), http.MethodPost, "/api/v1/frames", `{"faces":[{"embedding":[1,2,3]}]}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", rec.Code)
	}
}

func TestServer_AuxiliaryRoutes(t *testing.T) {
	s, _ := newTestServer(t)
	router := s.Router()

	tests := []struct {
		path string
		want string
	}{
		{"/api/v1/health", `"identities":2`},
		{"/api/v1/identities", `"label":"Bob"`},
		{"/metrics", "attendance_catalog_identities"},
		{"/", "<title>Attendance</title>"},
	}
	for _, tc := range tests {
		t.Run(tc.path, func(t *testing.T) {
			rec := do(t, router, http.MethodGet, tc.path, "")
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d", rec.Code)
			}
			if !strings.Contains(rec.Body.String(), tc.want) {
				t.Errorf("body missing %q", tc.want)
			}
		})
	}
}

func TestServer_Addr(t *testing.T) {
	s := NewServer(config.WebConfig{Host: "127.0.0.1", Port: 9000}, Deps{}, nil)
	if s.Addr() != "127.0.0.1:9000" {
		t.Errorf("Addr() = %q", s.Addr())
	}
}
