package tasks

import (
	"context"
	"strings"
	"testing"
	"time"
)

type fakeDMSender struct {
	dms map[string][]string
}

func (f *fakeDMSender) SendDM(userID, content string) error {
	if f.dms == nil {
		f.dms = make(map[string][]string)
	}
	f.dms[userID] = append(f.dms[userID], content)
	return nil
}

func TestTodoLoopNextRun(t *testing.T) {
	loop := NewTodoLoop(nil, &fakeDMSender{}, time.UTC)

	tests := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{
			"before 7am runs today",
			time.Date(2026, 3, 10, 6, 30, 0, 0, time.UTC),
			time.Date(2026, 3, 10, 7, 0, 0, 0, time.UTC),
		},
		{
			"after 7am runs tomorrow",
			time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC),
			time.Date(2026, 3, 11, 7, 0, 0, 0, time.UTC),
		},
		{
			"exactly 7am runs tomorrow",
			time.Date(2026, 3, 10, 7, 0, 0, 0, time.UTC),
			time.Date(2026, 3, 11, 7, 0, 0, 0, time.UTC),
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := loop.NextRun(tc.now); !got.Equal(tc.want) {
				t.Errorf("NextRun(%s) = %s, want %s", tc.now, got, tc.want)
			}
		})
	}
}

func TestTodoLoopGroupsByUser(t *testing.T) {
	s := openTaskStore(t)
	ctx := context.Background()

	for _, todo := range []struct{ user, content string }{
		{"U1", "file taxes"},
		{"U1", "walk the dog"},
		{"U2", "water plants"},
	} {
		if _, err := s.CreateTodo(ctx, todo.user, todo.content); err != nil {
			t.Fatalf("CreateTodo failed: %v", err)
		}
	}

	sender := &fakeDMSender{}
	loop := NewTodoLoop(s, sender, time.UTC)
	if err := loop.Tick(ctx); err != nil {
		t.Fatalf("Tick failed: %v", err)
	}

	if len(sender.dms) != 2 {
		t.Fatalf("expected summaries for 2 users, got %d", len(sender.dms))
	}

	u1 := sender.dms["U1"]
	if len(u1) != 1 {
		t.Fatalf("expected one summary for U1, got %d", len(u1))
	}
	if !strings.HasPrefix(u1[0], "Good morning!") {
		t.Errorf("unexpected greeting: %q", u1[0])
	}
	// Oldest first, numbered.
	if !strings.Contains(u1[0], "1) file taxes") || !strings.Contains(u1[0], "2) walk the dog") {
		t.Errorf("unexpected summary order: %q", u1[0])
	}

	u2 := sender.dms["U2"]
	if len(u2) != 1 || !strings.Contains(u2[0], "1) water plants") {
		t.Errorf("unexpected U2 summary: %v", u2)
	}
}

func TestTodoLoopSkipsUsersWithNothingOpen(t *testing.T) {
	s := openTaskStore(t)
	ctx := context.Background()

	id, err := s.CreateTodo(ctx, "U1", "file taxes")
	if err != nil {
		t.Fatalf("CreateTodo failed: %v", err)
	}
	if err := s.CompleteTodo(ctx, id); err != nil {
		t.Fatalf("CompleteTodo failed: %v", err)
	}

	sender := &fakeDMSender{}
	loop := NewTodoLoop(s, sender, time.UTC)
	if err := loop.Tick(ctx); err != nil {
		t.Fatalf("Tick failed: %v", err)
	}
	if len(sender.dms) != 0 {
		t.Errorf("expected no summaries, got %v", sender.dms)
	}
}
