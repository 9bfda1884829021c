package facematch

import (
	"errors"
	"math"
	"testing"

	"github.com/kozaktomas/face-attendance/internal/catalog"
)

func mustCatalog(t *testing.T, ids ...catalog.Identity) *catalog.Catalog {
	t.Helper()
	c, err := catalog.New(ids)
	if err != nil {
		t.Fatalf("catalog.New() error = %v", err)
	}
	return c
}

func mustMatcher(t *testing.T, metric Metric, threshold float64) *Matcher {
	t.Helper()
	m, err := NewMatcher(metric, threshold)
	if err != nil {
		t.Fatalf("NewMatcher() error = %v", err)
	}
	return m
}

func TestMatch(t *testing.T) {
	c := mustCatalog(t,
		catalog.Identity{Label: "Alice", Embedding: []float32{0, 0}},
		catalog.Identity{Label: "Bob", Embedding: []float32{1, 0}},
	)
	m := mustMatcher(t, MetricEuclidean, 0.5)

	tests := []struct {
		name      string
		probe     []float32
		wantLabel string
		wantKnown bool
		wantDist  float64
	}{
		{"exact alice", []float32{0, 0}, "Alice", true, 0},
		{"near bob", []float32{0.9, 0}, "Bob", true, 0.1},
		{"at threshold is accepted", []float32{0, 0.5}, "Alice", true, 0.5},
		{"beyond threshold", []float32{0, 3}, Unknown, false, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := m.Match(Probe{Embedding: tt.probe}, c)
			if err != nil {
				t.Fatalf("Match() error = %v", err)
			}
			if got.Label != tt.wantLabel || got.Known != tt.wantKnown {
				t.Errorf("Match() = %+v, want label %q known %v", got, tt.wantLabel, tt.wantKnown)
			}
			if math.Abs(got.Distance-tt.wantDist) > 1e-6 {
				t.Errorf("Distance = %v, want %v", got.Distance, tt.wantDist)
			}
		})
	}
}

func TestMatch_TieBreakPrefersFirstLoaded(t *testing.T) {
	c := mustCatalog(t,
		catalog.Identity{Label: "First", Embedding: []float32{1, 0}},
		catalog.Identity{Label: "Second", Embedding: []float32{-1, 0}},
	)
	m := mustMatcher(t, MetricEuclidean, 2)

	for i := 0; i < 100; i++ {
		got, err := m.Match(Probe{Embedding: []float32{0, 0}}, c)
		if err != nil {
			t.Fatalf("Match() error = %v", err)
		}
		if got.Label != "First" {
			t.Fatalf("tie resolved to %q, want First", got.Label)
		}
	}
}

func TestMatch_EmptyCatalog(t *testing.T) {
	m := mustMatcher(t, MetricCosine, 0.5)

	got, err := m.Match(Probe{Embedding: []float32{1, 2, 3}}, mustCatalog(t))
	if err != nil {
		t.Fatalf("Match() error = %v", err)
	}
	if got.Known || got.Label != Unknown {
		t.Errorf("Match() = %+v, want unknown", got)
	}

	got, err = m.Match(Probe{Embedding: []float32{1}}, nil)
	if err != nil || got.Known {
		t.Errorf("nil catalog: Match() = %+v, %v", got, err)
	}
}

func TestMatch_DimensionMismatch(t *testing.T) {
	c := mustCatalog(t, catalog.Identity{Label: "Alice", Embedding: []float32{0, 0, 0}})
	m := mustMatcher(t, MetricEuclidean, DefaultThreshold)

	_, err := m.Match(Probe{Embedding: []float32{0, 0}}, c)
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Fatalf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestMatch_NaNProbeIsUnknown(t *testing.T) {
	c := mustCatalog(t, catalog.Identity{Label: "Alice", Embedding: []float32{0}})
	m := mustMatcher(t, MetricEuclidean, DefaultThreshold)

	got, err := m.Match(Probe{Embedding: []float32{float32(math.NaN())}}, c)
	if err != nil {
		t.Fatalf("Match() error = %v", err)
	}
	if got.Known {
		t.Errorf("NaN probe matched %q", got.Label)
	}
}

func TestMatch_Cosine(t *testing.T) {
	c := mustCatalog(t,
		catalog.Identity{Label: "East", Embedding: []float32{1, 0}},
		catalog.Identity{Label: "North", Embedding: []float32{0, 1}},
	)
	m := mustMatcher(t, MetricCosine, 0.1)

	got, err := m.Match(Probe{Embedding: []float32{5, 0.1}}, c)
	if err != nil {
		t.Fatalf("Match() error = %v", err)
	}
	if got.Label != "East" {
		t.Errorf("Label = %q, want East", got.Label)
	}
}

func TestNewMatcher(t *testing.T) {
	tests := []struct {
		name      string
		metric    Metric
		threshold float64
		wantErr   bool
	}{
		{"default metric", "", 0.6, false},
		{"cosine", MetricCosine, 0.4, false},
		{"unknown metric", "manhattan", 0.6, true},
		{"negative threshold", MetricEuclidean, -0.1, true},
		{"NaN threshold", MetricEuclidean, math.NaN(), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := NewMatcher(tt.metric, tt.threshold)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewMatcher() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && m.Threshold() != tt.threshold {
				t.Errorf("Threshold() = %v, want %v", m.Threshold(), tt.threshold)
			}
		})
	}
}
