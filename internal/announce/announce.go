// Package announce delivers "attendance marked" notifications and live status
// events to display and speech collaborators.
package announce

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// Announcer is notified exactly once per newly created attendance record.
type Announcer interface {
	Announce(ctx context.Context, name string) error
}

// Message is the spoken/displayed text for a new attendance record.
func Message(name string) string {
	return fmt.Sprintf("Attendance marked for %s", name)
}

// LogAnnouncer writes announcements to a structured logger.
type LogAnnouncer struct {
	Logger *slog.Logger
}

// Announce implements Announcer.
func (a *LogAnnouncer) Announce(ctx context.Context, name string) error {
	logger := a.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, Message(name), "name", name)
	return nil
}

// Multi fans an announcement out to several announcers. All announcers are
// called even if some fail; their errors are joined.
type Multi []Announcer

// Announce implements Announcer.
func (m Multi) Announce(ctx context.Context, name string) error {
	var errs []error
	for _, a := range m {
		if a == nil {
			continue
		}
		if err := a.Announce(ctx, name); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Func adapts a function to Announcer.
type Func func(ctx context.Context, name string) error

// Announce implements Announcer.
func (f Func) Announce(ctx context.Context, name string) error {
	return f(ctx, name)
}
