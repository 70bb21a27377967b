// Package pending is the in-memory registry of notifications awaiting
// user confirmation. Entries are keyed by request id; the first
// transition out of StatePending wins and later attempts observe the
// terminal state as a no-op, so duplicate button presses never
// double-deliver.
package pending

import (
	"errors"
	"sync"
	"time"
)

// State of a pending notification. The machine is strictly forward:
// a terminal state is never left.
type State string

const (
	StatePending   State = "pending"
	StateConfirmed State = "confirmed"
	StateCancelled State = "cancelled"
	StateExpired   State = "expired"
)

// ErrConflict is returned by Put when the request id is already
// present. Overwriting a pending action is a programming error.
var ErrConflict = errors.New("pending: request id already exists")

// Notification is a confirmable notification draft.
type Notification struct {
	RequestID    string
	UserID       string
	ChannelID    string
	Content      string
	ScheduledAt  time.Time // zero for immediate notifications
	OriginalText string
	ExtraContext string
	MessageID    string // confirmation prompt message, set after render
	CreatedAt    time.Time
	State        State
}

// Store is the only mutable state shared across concurrent actors; all
// access goes through its lock.
type Store struct {
	mu      sync.Mutex
	entries map[string]*Notification
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{entries: make(map[string]*Notification)}
}

// Put registers a new pending notification. Fails with ErrConflict if
// the request id is already present.
func (s *Store) Put(n Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[n.RequestID]; exists {
		return ErrConflict
	}
	if n.State == "" {
		n.State = StatePending
	}
	copied := n
	s.entries[n.RequestID] = &copied
	return nil
}

// Get returns a snapshot of the entry, if present.
func (s *Store) Get(id string) (Notification, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[id]
	if !ok {
		return Notification{}, false
	}
	return *entry, true
}

// Remove deletes an entry. Removing an absent id is not an error.
func (s *Store) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, id)
}

// Confirm atomically transitions the entry to StateConfirmed and
// removes it. Returns the confirmed snapshot and true exactly once;
// any later or concurrent attempt gets false.
func (s *Store) Confirm(id string) (Notification, bool) {
	return s.transition(id, StateConfirmed)
}

// Cancel atomically transitions the entry to StateCancelled and
// removes it, with the same first-wins semantics as Confirm.
func (s *Store) Cancel(id string) (Notification, bool) {
	return s.transition(id, StateCancelled)
}

func (s *Store) transition(id string, terminal State) (Notification, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[id]
	if !ok || entry.State != StatePending {
		return Notification{}, false
	}
	entry.State = terminal
	snapshot := *entry
	delete(s.entries, id)
	return snapshot, true
}

// Update applies fn to the entry while it is still pending. Used for
// context corrections; terminal entries are left alone.
func (s *Store) Update(id string, fn func(*Notification)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[id]
	if !ok || entry.State != StatePending {
		return false
	}
	fn(entry)
	return true
}

// SweepExpired transitions every pending entry older than ttl to
// StateExpired, removes it, and returns the removed snapshots so the
// caller can notify the requesting users.
func (s *Store) SweepExpired(now time.Time, ttl time.Duration) []Notification {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed []Notification
	for id, entry := range s.entries {
		if entry.State != StatePending {
			continue
		}
		if now.Sub(entry.CreatedAt) < ttl {
			continue
		}
		entry.State = StateExpired
		removed = append(removed, *entry)
		delete(s.entries, id)
	}
	return removed
}

// Len reports the number of in-flight entries.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
