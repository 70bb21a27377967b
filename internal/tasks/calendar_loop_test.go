package tasks

import (
	"context"
	"strings"
	"testing"
	"time"

	"remindbot/internal/events"
	"remindbot/internal/store"
)

func TestCalendarLoopAnnouncesOnce(t *testing.T) {
	s := openTaskStore(t)
	ctx := context.Background()

	if _, err := s.CreateCalendarEvent(ctx, store.CalendarEvent{
		Title:       "standup",
		Description: "daily sync",
		ChannelID:   "C1",
		StartsAt:    time.Now().Add(-time.Minute),
	}); err != nil {
		t.Fatalf("CreateCalendarEvent failed: %v", err)
	}

	bus := events.NewBus(4)
	loop := NewCalendarLoop(s, bus, time.Second)
	if err := loop.Tick(ctx); err != nil {
		t.Fatalf("Tick failed: %v", err)
	}

	ev, ok := bus.Next()
	if !ok {
		t.Fatal("expected a published announcement")
	}
	due, ok := ev.(events.DeliveryDue)
	if !ok {
		t.Fatalf("expected DeliveryDue, got %T", ev)
	}
	if due.ChannelID != "C1" {
		t.Errorf("unexpected channel: %q", due.ChannelID)
	}
	if !strings.Contains(due.Content, "standup") || !strings.Contains(due.Content, "daily sync") {
		t.Errorf("unexpected announcement: %q", due.Content)
	}

	// The event is marked and not re-announced.
	if err := loop.Tick(ctx); err != nil {
		t.Fatalf("second Tick failed: %v", err)
	}
	bus.Close()
	if _, ok := bus.Next(); ok {
		t.Error("expected no second announcement")
	}
}

func TestCalendarLoopKeepsEventOnPublishFailure(t *testing.T) {
	s := openTaskStore(t)
	ctx := context.Background()

	if _, err := s.CreateCalendarEvent(ctx, store.CalendarEvent{
		Title:     "standup",
		ChannelID: "C1",
		StartsAt:  time.Now().Add(-time.Minute),
	}); err != nil {
		t.Fatalf("CreateCalendarEvent failed: %v", err)
	}

	bus := events.NewBus(4)
	bus.Close()
	loop := NewCalendarLoop(s, bus, time.Second)
	if err := loop.Tick(ctx); err != nil {
		t.Fatalf("Tick should absorb publish failures, got %v", err)
	}

	// Still unannounced, so the next tick can retry.
	due, err := s.ListDueCalendarEvents(ctx, time.Now())
	if err != nil {
		t.Fatalf("ListDueCalendarEvents failed: %v", err)
	}
	if len(due) != 1 {
		t.Errorf("expected event kept for retry, got %d due", len(due))
	}
}
