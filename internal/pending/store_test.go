package pending

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

func newEntry(id string) Notification {
	return Notification{
		RequestID:   id,
		UserID:      "U1",
		ChannelID:   "C1",
		Content:     "file taxes",
		ScheduledAt: time.Now().Add(48 * time.Hour),
		CreatedAt:   time.Now(),
		State:       StatePending,
	}
}

func TestPutConflict(t *testing.T) {
	s := NewStore()

	if err := s.Put(newEntry("r1")); err != nil {
		t.Fatalf("first Put failed: %v", err)
	}
	err := s.Put(newEntry("r1"))
	if !errors.Is(err, ErrConflict) {
		t.Errorf("expected ErrConflict, got %v", err)
	}
	if s.Len() != 1 {
		t.Errorf("expected 1 entry, got %d", s.Len())
	}
}

func TestRemoveIsIdempotent(t *testing.T) {
	s := NewStore()
	s.Put(newEntry("r1"))

	s.Remove("r1")
	s.Remove("r1") // absent id is not an error
	s.Remove("never-existed")

	if _, ok := s.Get("r1"); ok {
		t.Error("expected entry gone after Remove")
	}
}

func TestConfirmOnlyOnce(t *testing.T) {
	s := NewStore()
	s.Put(newEntry("r1"))

	first, ok := s.Confirm("r1")
	if !ok {
		t.Fatal("first confirm should succeed")
	}
	if first.State != StateConfirmed {
		t.Errorf("expected StateConfirmed, got %s", first.State)
	}
	if _, ok := s.Get("r1"); ok {
		t.Error("confirmed entry should be removed from the store")
	}

	if _, ok := s.Confirm("r1"); ok {
		t.Error("second confirm should be a no-op")
	}
	if _, ok := s.Cancel("r1"); ok {
		t.Error("cancel after confirm should be a no-op")
	}
}

func TestConcurrentConfirmFirstWins(t *testing.T) {
	s := NewStore()
	s.Put(newEntry("r1"))

	const attempts = 16
	var wg sync.WaitGroup
	results := make(chan bool, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, ok := s.Confirm("r1")
			results <- ok
		}()
	}
	wg.Wait()
	close(results)

	wins := 0
	for ok := range results {
		if ok {
			wins++
		}
	}
	if wins != 1 {
		t.Errorf("expected exactly one winning confirm, got %d", wins)
	}
}

func TestUpdateOnlyWhilePending(t *testing.T) {
	s := NewStore()
	s.Put(newEntry("r1"))

	if ok := s.Update("r1", func(n *Notification) { n.ExtraContext = "actually saturday" }); !ok {
		t.Fatal("update of a pending entry should succeed")
	}
	entry, _ := s.Get("r1")
	if entry.ExtraContext != "actually saturday" {
		t.Errorf("expected update applied, got %q", entry.ExtraContext)
	}

	s.Confirm("r1")
	if ok := s.Update("r1", func(n *Notification) { n.Content = "changed" }); ok {
		t.Error("update after a terminal transition should be a no-op")
	}
}

func TestSweepExpired(t *testing.T) {
	s := NewStore()

	old := newEntry("old")
	old.CreatedAt = time.Now().Add(-10 * time.Minute)
	s.Put(old)
	s.Put(newEntry("fresh"))

	removed := s.SweepExpired(time.Now(), 5*time.Minute)
	if len(removed) != 1 {
		t.Fatalf("expected 1 removed entry, got %d", len(removed))
	}
	if removed[0].RequestID != "old" || removed[0].State != StateExpired {
		t.Errorf("unexpected removed entry: %+v", removed[0])
	}

	if _, ok := s.Get("old"); ok {
		t.Error("expired entry should be absent from the store")
	}
	if _, ok := s.Get("fresh"); !ok {
		t.Error("fresh entry should survive the sweep")
	}
}

func TestSweepAtExactTTL(t *testing.T) {
	s := NewStore()
	now := time.Now()

	entry := newEntry("r1")
	entry.CreatedAt = now.Add(-5 * time.Minute)
	s.Put(entry)

	// An entry of age exactly TTL is expired.
	removed := s.SweepExpired(now, 5*time.Minute)
	if len(removed) != 1 {
		t.Errorf("expected entry at exact TTL to expire, got %d removed", len(removed))
	}
}

func TestPromptBodyIncludesContext(t *testing.T) {
	entry := newEntry("r1")
	body := entry.PromptBody()
	if want := "file taxes"; !strings.Contains(body, want) {
		t.Errorf("expected body to contain %q, got %q", want, body)
	}
	if strings.Contains(body, "Additional context") {
		t.Error("body should not mention context when none is set")
	}

	entry.ExtraContext = "actually saturday"
	body = entry.PromptBody()
	if !strings.Contains(body, "Additional context: actually saturday") {
		t.Errorf("expected context line, got %q", body)
	}
}
