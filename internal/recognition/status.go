package recognition

import (
	"github.com/kozaktomas/face-attendance/internal/ledger"
)

// State is what a display collaborator shows for one probe.
type State string

const (
	Recognized   State = "recognized"
	Waiting      State = "waiting"
	Unrecognized State = "unrecognized"
)

// Status is the per-probe result of a cycle.
//
// Outcome is set only when the ledger was written. Err is set when the ledger
// write failed; the state stays Recognized because the match itself succeeded.
type Status struct {
	Label    string
	State    State
	Distance float64
	Outcome  ledger.Outcome
	Err      error
}

// DisplayText is the label text a display shows for this status.
func (s Status) DisplayText() string {
	switch s.State {
	case Recognized:
		return s.Label
	case Waiting:
		return s.Label + " (waiting...)"
	default:
		return "No face recognized"
	}
}

// Announced reports whether this status produced a new ledger record.
func (s Status) Announced() bool {
	return s.Err == nil && s.Outcome == ledger.Created
}
