// Package debounce suppresses repeat detections of the same identity within a
// short window.
//
// Each label moves through three states:
//
//	Unseen  --accept-->  Cooling
//	Cooling --(elapsed <= window)--> Cooling (suppressed)
//	Cooling --(elapsed >  window)--> Ready
//	Ready   --accept-->  Cooling
//
// Ready behaves exactly like Unseen; the distinction only tells "first sighting
// this session" apart from "seen before, cooled down".
package debounce

import (
	"sync"
	"time"
)

// DefaultWindow is the default minimum time between two accepts for one label.
const DefaultWindow = 2 * time.Second

// State is the per-label debounce state.
type State int

const (
	Unseen State = iota
	Cooling
	Ready
)

func (s State) String() string {
	switch s {
	case Unseen:
		return "unseen"
	case Cooling:
		return "cooling"
	case Ready:
		return "ready"
	default:
		return "invalid"
	}
}

// Decision is the gate's verdict for one accepted match.
type Decision int

const (
	// Accept means the match is a new attendance event and should go to the ledger.
	Accept Decision = iota + 1
	// Suppressed means the label was accepted too recently.
	Suppressed
)

func (d Decision) String() string {
	switch d {
	case Accept:
		return "accept"
	case Suppressed:
		return "suppressed"
	default:
		return "invalid"
	}
}

type entry struct {
	state        State
	lastAccepted time.Time
}

// Gate tracks the last accepted timestamp per label. Only matched labels are
// ever observed; entries live for the lifetime of the gate.
type Gate struct {
	mu      sync.Mutex
	window  time.Duration
	entries map[string]*entry
}

// NewGate creates a gate. A negative window selects DefaultWindow.
func NewGate(window time.Duration) *Gate {
	if window < 0 {
		window = DefaultWindow
	}
	return &Gate{
		window:  window,
		entries: make(map[string]*entry),
	}
}

// Window returns the debounce window.
func (g *Gate) Window() time.Duration {
	return g.window
}

// Observe records an accepted match for label at now and reports whether it
// is a new event.
func (g *Gate) Observe(label string, now time.Time) Decision {
	g.mu.Lock()
	defer g.mu.Unlock()

	e, ok := g.entries[label]
	if !ok {
		e = &entry{state: Unseen}
		g.entries[label] = e
	}

	if e.state == Cooling && now.Sub(e.lastAccepted) > g.window {
		e.state = Ready
	}
	if e.state == Cooling {
		return Suppressed
	}

	e.state = Cooling
	e.lastAccepted = now
	return Accept
}

// State reports the state label would be in at now, without changing it.
func (g *Gate) State(label string, now time.Time) State {
	g.mu.Lock()
	defer g.mu.Unlock()

	e, ok := g.entries[label]
	if !ok {
		return Unseen
	}
	if e.state == Cooling && now.Sub(e.lastAccepted) > g.window {
		return Ready
	}
	return e.state
}

// LastAccepted returns the last accepted timestamp for label.
func (g *Gate) LastAccepted(label string) (time.Time, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	e, ok := g.entries[label]
	if !ok {
		return time.Time{}, false
	}
	return e.lastAccepted, true
}

// Len returns the number of labels the gate has seen.
func (g *Gate) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.entries)
}
