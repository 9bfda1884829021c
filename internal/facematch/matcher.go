package facematch

import (
	"errors"
	"fmt"
	"math"

	"github.com/kozaktomas/face-attendance/internal/catalog"
)

// DefaultThreshold is the default acceptance threshold for the euclidean metric.
const DefaultThreshold = 0.6

// ErrDimensionMismatch means the probe and catalog embeddings have different
// lengths. It is a configuration error (wrong extractor or catalog), not a
// per-probe condition.
var ErrDimensionMismatch = errors.New("embedding dimension mismatch")

// Matcher finds the nearest catalog identity within an acceptance threshold.
// It holds no mutable state and is safe for concurrent use.
type Matcher struct {
	metric    Metric
	threshold float64
	distance  func(a, b []float32) float64
}

// NewMatcher creates a matcher. threshold is the maximum distance accepted as a
// positive match.
func NewMatcher(metric Metric, threshold float64) (*Matcher, error) {
	if metric == "" {
		metric = MetricEuclidean
	}
	if _, err := ParseMetric(string(metric)); err != nil {
		return nil, err
	}
	if threshold < 0 || math.IsNaN(threshold) {
		return nil, fmt.Errorf("acceptance threshold must be a non-negative number, got %v", threshold)
	}
	return &Matcher{metric: metric, threshold: threshold, distance: metric.distanceFunc()}, nil
}

// Metric returns the configured metric.
func (m *Matcher) Metric() Metric { return m.metric }

// Threshold returns the acceptance threshold.
func (m *Matcher) Threshold() float64 { return m.threshold }

// Match compares probe against every identity and returns the closest one if
// it is within the threshold. Equal distances resolve to the identity loaded
// first. An empty catalog always yields Unknown.
func (m *Matcher) Match(probe Probe, c *catalog.Catalog) (MatchResult, error) {
	if c.Len() == 0 {
		return MatchResult{Label: Unknown}, nil
	}
	if len(probe.Embedding) != c.Dim() {
		return MatchResult{}, fmt.Errorf("%w: probe has %d values, catalog has %d",
			ErrDimensionMismatch, len(probe.Embedding), c.Dim())
	}

	best := -1
	bestDistance := math.Inf(1)
	for i := 0; i < c.Len(); i++ {
		// strict < keeps the earliest identity on ties
		if d := m.distance(probe.Embedding, c.At(i).Embedding); d < bestDistance {
			best, bestDistance = i, d
		}
	}

	if best < 0 {
		// every distance was NaN
		return MatchResult{Label: Unknown}, nil
	}
	if bestDistance > m.threshold {
		return MatchResult{Label: Unknown, Distance: bestDistance}, nil
	}
	return MatchResult{Label: c.At(best).Label, Distance: bestDistance, Known: true}, nil
}
