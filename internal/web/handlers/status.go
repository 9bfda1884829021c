package handlers

import (
	"context"

	"github.com/kozaktomas/face-attendance/internal/announce"
	"github.com/kozaktomas/face-attendance/internal/recognition"
)

// StatusResponse is the JSON form of recognition.Status.
type StatusResponse struct {
	Label    string  `json:"label"`
	State    string  `json:"state"`
	Display  string  `json:"display"`
	Distance float64 `json:"distance"`
	Outcome  string  `json:"outcome,omitempty"`
	Error    string  `json:"error,omitempty"`
}

func toStatusResponses(statuses []recognition.Status) []StatusResponse {
	out := make([]StatusResponse, 0, len(statuses))
	for _, s := range statuses {
		r := StatusResponse{
			Label:    s.Label,
			State:    string(s.State),
			Display:  s.DisplayText(),
			Distance: s.Distance,
			Outcome:  string(s.Outcome),
		}
		if s.Err != nil {
			r.Error = s.Err.Error()
		}
		out = append(out, r)
	}
	return out
}

// BroadcastStatuses returns a status sink that publishes every cycle's
// statuses as one "status" event.
func BroadcastStatuses(b *announce.Broadcaster) recognition.StatusSink {
	return recognition.StatusSinkFunc(func(_ context.Context, statuses []recognition.Status) {
		b.Publish(announce.EventStatus, toStatusResponses(statuses))
	})
}
