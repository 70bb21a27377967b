// Package events carries domain events from the interaction surface to
// the processing worker. The bus is an ordered bounded buffer with a
// single logical consumer; producers get backpressure instead of
// silent drops.
package events

import (
	"errors"
	"sync"
	"time"
)

// Event is a closed set of domain event kinds. The worker dispatches
// on the concrete type; adding a variant means updating its switch.
type Event interface {
	eventKind() string
}

// NotifyRequested is a /notify slash command waiting to be routed.
type NotifyRequested struct {
	Text      string
	UserID    string
	ChannelID string
}

// PendingConfirmed is a press of the confirm button.
type PendingConfirmed struct {
	RequestID string
	UserID    string
}

// PendingCancelled is a press of the cancel button.
type PendingCancelled struct {
	RequestID string
	UserID    string
}

// ContextSubmitted carries a correction note from the context modal.
type ContextSubmitted struct {
	RequestID string
	UserID    string
	Context   string
}

// DeliveryDue asks the worker to deliver an already-rendered message.
// Emitted by reconciliation loops.
type DeliveryDue struct {
	ChannelID string
	Content   string
}

func (NotifyRequested) eventKind() string  { return "notify_requested" }
func (PendingConfirmed) eventKind() string { return "pending_confirmed" }
func (PendingCancelled) eventKind() string { return "pending_cancelled" }
func (ContextSubmitted) eventKind() string { return "context_submitted" }
func (DeliveryDue) eventKind() string      { return "delivery_due" }

// Kind names the event for logs.
func Kind(ev Event) string { return ev.eventKind() }

var (
	// ErrBusFull is returned when the buffer stays full past the
	// publish timeout. Callers surface it as "try again shortly".
	ErrBusFull = errors.New("events: bus is full")
	// ErrBusClosed is returned to publishers after shutdown.
	ErrBusClosed = errors.New("events: bus is closed")
)

const defaultPublishTimeout = 2 * time.Second

// Bus is a bounded multi-producer / single-consumer event transport.
// Events from one producer are delivered in publish order.
type Bus struct {
	ch             chan Event
	done           chan struct{}
	closeOnce      sync.Once
	publishTimeout time.Duration
}

// NewBus creates a bus with the given buffer capacity.
func NewBus(capacity int) *Bus {
	return &Bus{
		ch:             make(chan Event, capacity),
		done:           make(chan struct{}),
		publishTimeout: defaultPublishTimeout,
	}
}

// Publish enqueues an event. It blocks up to the publish timeout when
// the buffer is full, then returns ErrBusFull; after Close it returns
// ErrBusClosed.
func (b *Bus) Publish(ev Event) error {
	// Closed bus wins over a free slot.
	select {
	case <-b.done:
		return ErrBusClosed
	default:
	}

	timer := time.NewTimer(b.publishTimeout)
	defer timer.Stop()

	select {
	case b.ch <- ev:
		return nil
	case <-b.done:
		return ErrBusClosed
	case <-timer.C:
		return ErrBusFull
	}
}

// Next blocks until an event is available. After Close it keeps
// returning buffered events until the buffer is empty, then reports
// ok=false so the worker can exit cleanly.
func (b *Bus) Next() (Event, bool) {
	select {
	case ev := <-b.ch:
		return ev, true
	case <-b.done:
		// Drain whatever made it in before shutdown.
		select {
		case ev := <-b.ch:
			return ev, true
		default:
			return nil, false
		}
	}
}

// Close signals shutdown. In-flight Publish calls fail with
// ErrBusClosed; buffered events remain consumable via Next.
func (b *Bus) Close() {
	b.closeOnce.Do(func() { close(b.done) })
}
