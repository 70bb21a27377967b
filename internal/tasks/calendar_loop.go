package tasks

import (
	"context"
	"fmt"
	"time"

	"remindbot/internal/events"
	"remindbot/internal/logging"
	"remindbot/internal/store"
)

// CalendarLoop announces due calendar events. It routes through the
// event bus rather than the chat client so announcements share the
// worker's delivery path.
type CalendarLoop struct {
	store    *store.Store
	bus      *events.Bus
	interval time.Duration
}

// NewCalendarLoop builds the loop with the given scan interval.
func NewCalendarLoop(s *store.Store, bus *events.Bus, interval time.Duration) *CalendarLoop {
	return &CalendarLoop{store: s, bus: bus, interval: interval}
}

func (l *CalendarLoop) Name() string { return "calendar" }

func (l *CalendarLoop) NextRun(now time.Time) time.Time {
	return now.Add(l.interval)
}

func (l *CalendarLoop) Tick(ctx context.Context) error {
	due, err := l.store.ListDueCalendarEvents(ctx, time.Now())
	if err != nil {
		return err
	}

	for _, ev := range due {
		content := fmt.Sprintf("Event starting now: %s", ev.Title)
		if ev.Description != "" {
			content += "\n" + ev.Description
		}
		if err := l.bus.Publish(events.DeliveryDue{ChannelID: ev.ChannelID, Content: content}); err != nil {
			// Backpressure or shutdown; leave the event unannounced
			// and retry next tick.
			logging.Info("tasks", "Failed to publish calendar event %s: %v", ev.ID, err)
			continue
		}
		if err := l.store.MarkCalendarEventNotified(ctx, ev.ID); err != nil {
			logging.Info("tasks", "Failed to mark calendar event %s: %v", ev.ID, err)
		}
	}
	return nil
}
