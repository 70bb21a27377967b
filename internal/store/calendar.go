package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// CalendarEvent is a scheduled event announced in a channel when it
// comes due.
type CalendarEvent struct {
	ID          string    `db:"id"`
	Title       string    `db:"title"`
	Description string    `db:"description"`
	ChannelID   string    `db:"channel_id"`
	StartsAt    time.Time `db:"starts_at"`
	Notified    bool      `db:"notified"`
}

// CreateCalendarEvent inserts an event.
func (s *Store) CreateCalendarEvent(ctx context.Context, ev CalendarEvent) (string, error) {
	if ev.ID == "" {
		ev.ID = uuid.New().String()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO calendar_events (id, title, description, channel_id, starts_at, notified)
		VALUES (?, ?, ?, ?, ?, 0)`,
		ev.ID, ev.Title, ev.Description, ev.ChannelID, ev.StartsAt.UTC(),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create calendar event: %w", err)
	}
	return ev.ID, nil
}

// ListDueCalendarEvents returns unannounced events starting at or
// before the given time.
func (s *Store) ListDueCalendarEvents(ctx context.Context, before time.Time) ([]CalendarEvent, error) {
	var events []CalendarEvent
	err := s.db.SelectContext(ctx, &events, `
		SELECT * FROM calendar_events
		WHERE notified = 0 AND starts_at <= ?
		ORDER BY starts_at`,
		before.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list due calendar events: %w", err)
	}
	return events, nil
}

// MarkCalendarEventNotified flags an event as announced.
func (s *Store) MarkCalendarEventNotified(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE calendar_events SET notified = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to mark calendar event %s: %w", id, err)
	}
	return nil
}
