package announce

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestMessage(t *testing.T) {
	if got := Message("Alice"); got != "Attendance marked for Alice" {
		t.Errorf("Message() = %q", got)
	}
}

func TestLogAnnouncer(t *testing.T) {
	var buf bytes.Buffer
	a := &LogAnnouncer{Logger: slog.New(slog.NewTextHandler(&buf, nil))}

	if err := a.Announce(context.Background(), "Alice"); err != nil {
		t.Fatalf("Announce() error = %v", err)
	}
	if !strings.Contains(buf.String(), "Attendance marked for Alice") {
		t.Errorf("log output = %q", buf.String())
	}
}

func TestMulti_CallsAllAndJoinsErrors(t *testing.T) {
	var calls []string
	failing := Func(func(_ context.Context, name string) error {
		calls = append(calls, "failing:"+name)
		return errors.New("speaker offline")
	})
	ok := Func(func(_ context.Context, name string) error {
		calls = append(calls, "ok:"+name)
		return nil
	})

	err := Multi{failing, nil, ok}.Announce(context.Background(), "Bob")

	if err == nil || !strings.Contains(err.Error(), "speaker offline") {
		t.Errorf("expected joined error, got %v", err)
	}
	if len(calls) != 2 || calls[1] != "ok:Bob" {
		t.Errorf("calls = %v", calls)
	}
}

func TestBroadcaster_PublishToListeners(t *testing.T) {
	b := NewBroadcaster()
	first := b.AddListener()
	second := b.AddListener()

	if err := b.Announce(context.Background(), "Alice"); err != nil {
		t.Fatalf("Announce() error = %v", err)
	}

	for _, ch := range []chan Event{first, second} {
		event := <-ch
		if event.Type != EventAnnounce {
			t.Errorf("Type = %q, want announce", event.Type)
		}
		if event.ID == "" {
			t.Error("expected event ID")
		}
		data, ok := event.Data.(AnnounceData)
		if !ok || data.Name != "Alice" {
			t.Errorf("Data = %#v", event.Data)
		}
	}
}

func TestBroadcaster_RemoveListenerClosesChannel(t *testing.T) {
	b := NewBroadcaster()
	ch := b.AddListener()

	b.RemoveListener(ch)

	if _, ok := <-ch; ok {
		t.Error("expected closed channel")
	}
	if b.ListenerCount() != 0 {
		t.Errorf("ListenerCount() = %d, want 0", b.ListenerCount())
	}
	b.RemoveListener(ch) // second remove is a no-op
}

func TestBroadcaster_SlowListenerDoesNotBlock(t *testing.T) {
	b := NewBroadcaster()
	ch := b.AddListener()

	for i := 0; i < listenerBuffer+10; i++ {
		b.Publish(EventStatus, nil)
	}

	if len(ch) != listenerBuffer {
		t.Errorf("buffered events = %d, want %d", len(ch), listenerBuffer)
	}
}
