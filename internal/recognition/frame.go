package recognition

import (
	"time"

	"github.com/kozaktomas/face-attendance/internal/facematch"
)

// Frame is the wire form of one video frame's detections, as posted by the
// embedding extractor or stored in replay files (one JSON object per line).
type Frame struct {
	Timestamp time.Time `json:"timestamp"`
	Faces     []Face    `json:"faces"`
}

// Face is one detected face in a Frame.
type Face struct {
	Embedding []float32 `json:"embedding"`
	BBox      []float64 `json:"bbox,omitempty"`
}

// Probes converts the frame to matcher probes. A zero frame timestamp is
// replaced by now.
func (f Frame) Probes(now time.Time) []facematch.Probe {
	ts := f.Timestamp
	if ts.IsZero() {
		ts = now
	}
	probes := make([]facematch.Probe, 0, len(f.Faces))
	for _, face := range f.Faces {
		probes = append(probes, facematch.Probe{Embedding: face.Embedding, Timestamp: ts})
	}
	return probes
}
