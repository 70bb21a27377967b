package tasks

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"remindbot/internal/store"
)

type fakeLLM struct {
	body string
	err  error
}

func (f *fakeLLM) GeneratePrompt(_ context.Context, _, _ string) (string, error) {
	return f.body, f.err
}

type fakeSender struct {
	messages map[string][]string
	err      error
}

func newFakeSender() *fakeSender {
	return &fakeSender{messages: make(map[string][]string)}
}

func (f *fakeSender) SendMessage(channelID, content string) error {
	if f.err != nil {
		return f.err
	}
	f.messages[channelID] = append(f.messages[channelID], content)
	return nil
}

func openTaskStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestNotificationLoopDeliversAndMarks(t *testing.T) {
	s := openTaskStore(t)
	ctx := context.Background()

	// A past event has no future lead slots; its single slot is the
	// event time itself, already due.
	if _, err := s.CreateNotification(ctx, "file taxes", "U1", time.Now().Add(-time.Minute), "C1"); err != nil {
		t.Fatalf("CreateNotification failed: %v", err)
	}

	sender := newFakeSender()
	loop := NewNotificationLoop(s, &fakeLLM{err: errors.New("degraded")}, sender, time.Second)
	if err := loop.Tick(ctx); err != nil {
		t.Fatalf("Tick failed: %v", err)
	}

	sent := sender.messages["C1"]
	if len(sent) != 1 {
		t.Fatalf("expected 1 delivery, got %d", len(sent))
	}
	if !strings.Contains(sent[0], "file taxes") || !strings.Contains(sent[0], "<@U1>") {
		t.Errorf("unexpected delivery body: %q", sent[0])
	}

	due, err := s.ListDueNotifications(ctx, time.Now())
	if err != nil {
		t.Fatalf("ListDueNotifications failed: %v", err)
	}
	if len(due) != 0 {
		t.Errorf("expected delivered slot marked, still due: %+v", due)
	}
}

func TestNotificationLoopRetriesFailedSend(t *testing.T) {
	s := openTaskStore(t)
	ctx := context.Background()

	if _, err := s.CreateNotification(ctx, "file taxes", "U1", time.Now().Add(-time.Minute), "C1"); err != nil {
		t.Fatalf("CreateNotification failed: %v", err)
	}

	sender := newFakeSender()
	sender.err = errors.New("channel unavailable")
	loop := NewNotificationLoop(s, &fakeLLM{err: errors.New("degraded")}, sender, time.Second)
	if err := loop.Tick(ctx); err != nil {
		t.Fatalf("Tick should absorb send failures, got %v", err)
	}

	// The slot survives for the next tick.
	due, err := s.ListDueNotifications(ctx, time.Now())
	if err != nil {
		t.Fatalf("ListDueNotifications failed: %v", err)
	}
	if len(due) != 1 {
		t.Errorf("expected undelivered slot kept, got %d due", len(due))
	}
}

func TestBuildMessageUsesFormatter(t *testing.T) {
	s := openTaskStore(t)
	loop := NewNotificationLoop(s, &fakeLLM{body: "Heads up, taxes are due soon!"}, newFakeSender(), time.Second)

	d := store.DueNotification{
		Notification: store.Notification{
			Content:   "file taxes",
			UserID:    "U1",
			EventTime: time.Now().Add(3 * time.Hour),
		},
	}
	body := loop.buildMessage(context.Background(), d)
	if want := "<@U1>\nHeads up, taxes are due soon!"; body != want {
		t.Errorf("got %q, want %q", body, want)
	}
}

func TestBuildMessageFallsBack(t *testing.T) {
	s := openTaskStore(t)

	d := store.DueNotification{
		Notification: store.Notification{
			Content:   "file taxes",
			UserID:    "U1",
			EventTime: time.Now().Add(3 * time.Hour),
		},
	}

	// Both a failed call and a blank body fall through to the template.
	for _, client := range []*fakeLLM{{err: errors.New("down")}, {body: "   "}} {
		loop := NewNotificationLoop(s, client, newFakeSender(), time.Second)
		body := loop.buildMessage(context.Background(), d)
		if !strings.Contains(body, "file taxes") || !strings.Contains(body, "Hours remaining:") {
			t.Errorf("unexpected fallback body: %q", body)
		}
	}
}
