// Package facematch resolves a probe embedding to the closest catalog identity.
package facematch

import "time"

// Unknown is the label reported for probes that match no identity.
const Unknown = "unknown"

// Probe is one detected face in one frame.
type Probe struct {
	Embedding []float32
	Timestamp time.Time
}

// MatchResult is the matcher's verdict for a single probe.
// Distance is the best distance found, or 0 when the catalog is empty.
type MatchResult struct {
	Label    string
	Distance float64
	Known    bool
}
