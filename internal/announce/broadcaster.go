package announce

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event types published by the Broadcaster.
const (
	EventStatus   = "status"
	EventAnnounce = "announce"
)

// listenerBuffer is the per-listener channel capacity; slow listeners drop events.
const listenerBuffer = 64

// Event is one message delivered to listeners.
type Event struct {
	ID   string    `json:"id"`
	Type string    `json:"type"`
	Time time.Time `json:"time"`
	Data any       `json:"data,omitempty"`
}

// AnnounceData is the payload of an announce event.
type AnnounceData struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}

// Broadcaster fans events out to any number of listeners (e.g. SSE clients).
// It implements Announcer.
type Broadcaster struct {
	listeners []chan Event
	mu        sync.RWMutex
	now       func() time.Time
}

// NewBroadcaster creates an empty broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{now: time.Now}
}

// AddListener adds an event listener.
func (b *Broadcaster) AddListener() chan Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan Event, listenerBuffer)
	b.listeners = append(b.listeners, ch)
	return ch
}

// RemoveListener removes an event listener and closes its channel.
func (b *Broadcaster) RemoveListener(ch chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, listener := range b.listeners {
		if listener == ch {
			b.listeners = append(b.listeners[:i], b.listeners[i+1:]...)
			close(ch)
			return
		}
	}
}

// ListenerCount returns the number of attached listeners.
func (b *Broadcaster) ListenerCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.listeners)
}

// Publish sends an event to all listeners without blocking.
func (b *Broadcaster) Publish(eventType string, data any) Event {
	event := Event{
		ID:   uuid.NewString(),
		Type: eventType,
		Time: b.now(),
		Data: data,
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, listener := range b.listeners {
		select {
		case listener <- event:
		default:
			// Listener buffer full, skip.
		}
	}
	return event
}

// Announce implements Announcer.
func (b *Broadcaster) Announce(_ context.Context, name string) error {
	b.Publish(EventAnnounce, AnnounceData{Name: name, Message: Message(name)})
	return nil
}
