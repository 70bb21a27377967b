package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"remindbot/internal/flow"
	"remindbot/internal/llm"
	"remindbot/internal/logging"
	"remindbot/internal/pending"
)

// Messenger is the outbound chat surface the worker renders through.
// Implemented by the Discord gateway; tests substitute a fake.
type Messenger interface {
	// SendMessage posts plain text to a channel.
	SendMessage(channelID, content string) error
	// SendPrompt posts a confirmation prompt whose buttons carry the
	// request id, returning the created message id.
	SendPrompt(channelID, content, requestID string) (string, error)
	// UpdatePrompt rewrites an existing prompt, keeping its buttons.
	UpdatePrompt(channelID, messageID, content, requestID string) error
	// ResolvePrompt rewrites a prompt with final text and removes its
	// buttons.
	ResolvePrompt(channelID, messageID, content string) error
}

// Storage is the slice of durable storage the worker commits to.
type Storage interface {
	CreateNotification(ctx context.Context, content, userID string, eventTime time.Time, channelID string) (string, error)
	CreateTodo(ctx context.Context, userID, content string) (string, error)
}

// Worker drains the bus and dispatches each event. Processing is
// sequential per worker instance, which keeps pending-state
// transitions free of intra-request races.
type Worker struct {
	bus       *Bus
	router    *flow.Router
	llm       llm.Client
	pending   *pending.Store
	storage   Storage
	messenger Messenger
}

// NewWorker wires a worker to its collaborators.
func NewWorker(bus *Bus, router *flow.Router, client llm.Client, store *pending.Store, storage Storage, messenger Messenger) *Worker {
	return &Worker{
		bus:       bus,
		router:    router,
		llm:       client,
		pending:   store,
		storage:   storage,
		messenger: messenger,
	}
}

// Run processes events until the bus shuts down. A failure handling
// one event is reported to the originating user and never stops the
// loop.
func (w *Worker) Run(ctx context.Context) {
	logging.Info("worker", "Event worker started")
	for {
		ev, ok := w.bus.Next()
		if !ok {
			logging.Info("worker", "Bus closed, event worker exiting")
			return
		}
		w.dispatch(ctx, ev)
	}
}

func (w *Worker) dispatch(ctx context.Context, ev Event) {
	logging.Debug("worker", "Handling %s", Kind(ev))
	switch e := ev.(type) {
	case NotifyRequested:
		w.handleNotifyRequested(ctx, e)
	case PendingConfirmed:
		w.handleConfirmed(ctx, e)
	case PendingCancelled:
		w.handleCancelled(e)
	case ContextSubmitted:
		w.handleContext(ctx, e)
	case DeliveryDue:
		if err := w.messenger.SendMessage(e.ChannelID, e.Content); err != nil {
			logging.Info("worker", "Failed to deliver due message: %v", err)
		}
	default:
		logging.Info("worker", "Unhandled event kind %s", Kind(ev))
	}
}

func (w *Worker) handleNotifyRequested(ctx context.Context, ev NotifyRequested) {
	key := flow.Key{UserID: ev.UserID, ChannelID: ev.ChannelID}
	decision, text := w.router.Route(ctx, key, ev.Text, time.Now())

	switch decision {
	case flow.DecisionTodo:
		if _, err := w.storage.CreateTodo(ctx, ev.UserID, text); err != nil {
			w.reportError(ev.ChannelID, ev.UserID, "Failed to save your todo, please try again.", err)
			return
		}
		w.reply(ev.ChannelID, ev.UserID, fmt.Sprintf("Added to your todo list: %s", text))

	case flow.DecisionClarify:
		w.reply(ev.ChannelID, ev.UserID,
			"I couldn't tell when you want to be notified. Could you add a date or time?")

	case flow.DecisionNotify:
		w.createPending(ctx, ev, text)
	}
}

func (w *Worker) createPending(ctx context.Context, ev NotifyRequested, text string) {
	draft, err := llm.ExtractNotification(ctx, w.llm, text, llm.PromptNotification)
	if err != nil {
		w.reportError(ev.ChannelID, ev.UserID, "Failed to build that notification, please try again.", err)
		return
	}

	entry := pending.Notification{
		RequestID:    uuid.New().String(),
		UserID:       ev.UserID,
		ChannelID:    ev.ChannelID,
		Content:      draft.Content,
		ScheduledAt:  draft.Time,
		OriginalText: ev.Text,
		CreatedAt:    time.Now(),
		State:        pending.StatePending,
	}
	if err := w.pending.Put(entry); err != nil {
		if errors.Is(err, pending.ErrConflict) {
			w.reportError(ev.ChannelID, ev.UserID, "That request collided with another one, please resend.", err)
			return
		}
		w.reportError(ev.ChannelID, ev.UserID, "Failed to stage that notification, please try again.", err)
		return
	}

	messageID, err := w.messenger.SendPrompt(ev.ChannelID, entry.PromptBody(), entry.RequestID)
	if err != nil {
		w.pending.Remove(entry.RequestID)
		w.reportError(ev.ChannelID, ev.UserID, "Failed to send the confirmation prompt, please try again.", err)
		return
	}
	w.pending.Update(entry.RequestID, func(n *pending.Notification) {
		n.MessageID = messageID
	})
	logging.Info("worker", "Staged pending notification %s for %s", entry.RequestID, ev.UserID)
}

func (w *Worker) handleConfirmed(ctx context.Context, ev PendingConfirmed) {
	entry, ok := w.pending.Get(ev.RequestID)
	if !ok {
		// Already resolved or expired; duplicate presses are no-ops.
		return
	}
	if entry.UserID != ev.UserID {
		return
	}

	confirmed, ok := w.pending.Confirm(ev.RequestID)
	if !ok {
		return
	}

	if _, err := w.storage.CreateNotification(ctx, confirmed.Content, confirmed.UserID,
		confirmed.ScheduledAt, confirmed.ChannelID); err != nil {
		w.reportError(confirmed.ChannelID, confirmed.UserID, "Failed to persist the notification.", err)
		return
	}

	w.router.Forget(flow.Key{UserID: confirmed.UserID, ChannelID: confirmed.ChannelID})
	w.resolve(confirmed, fmt.Sprintf("Confirmed! I'll notify you: %q at %s",
		confirmed.Content, confirmed.ScheduledAt.Format(time.RFC1123)))
	logging.Info("worker", "Confirmed notification %s", confirmed.RequestID)
}

func (w *Worker) handleCancelled(ev PendingCancelled) {
	entry, ok := w.pending.Get(ev.RequestID)
	if !ok || entry.UserID != ev.UserID {
		return
	}

	cancelled, ok := w.pending.Cancel(ev.RequestID)
	if !ok {
		return
	}

	w.router.Forget(flow.Key{UserID: cancelled.UserID, ChannelID: cancelled.ChannelID})
	w.resolve(cancelled, "Canceled notification request.")
	logging.Info("worker", "Cancelled notification %s", cancelled.RequestID)
}

func (w *Worker) handleContext(ctx context.Context, ev ContextSubmitted) {
	entry, ok := w.pending.Get(ev.RequestID)
	if !ok || entry.UserID != ev.UserID {
		return
	}

	combined := entry.OriginalText
	if note := ev.Context; note != "" {
		combined = fmt.Sprintf("Original request: %s\nCorrection note: %s", entry.OriginalText, note)
	}

	draft, err := llm.ExtractNotification(ctx, w.llm, combined, llm.PromptCorrection)
	updated := w.pending.Update(ev.RequestID, func(n *pending.Notification) {
		if ev.Context != "" {
			n.ExtraContext = ev.Context
		}
		if err == nil {
			n.Content = draft.Content
			n.ScheduledAt = draft.Time
		}
	})
	if err != nil {
		logging.Info("worker", "Correction call failed for %s, keeping draft: %v", ev.RequestID, err)
	}
	if !updated {
		return
	}

	refreshed, ok := w.pending.Get(ev.RequestID)
	if !ok || refreshed.MessageID == "" {
		return
	}
	if err := w.messenger.UpdatePrompt(refreshed.ChannelID, refreshed.MessageID,
		refreshed.PromptBody(), refreshed.RequestID); err != nil {
		logging.Info("worker", "Failed to refresh prompt %s: %v", refreshed.RequestID, err)
	}
}

// resolve finalizes the confirmation prompt, falling back to a plain
// channel message when the prompt message is gone.
func (w *Worker) resolve(entry pending.Notification, content string) {
	if entry.MessageID != "" {
		if err := w.messenger.ResolvePrompt(entry.ChannelID, entry.MessageID, content); err == nil {
			return
		}
	}
	w.reply(entry.ChannelID, entry.UserID, content)
}

func (w *Worker) reply(channelID, userID, message string) {
	if err := w.messenger.SendMessage(channelID, mention(userID)+" "+message); err != nil {
		logging.Info("worker", "Failed to send reply to %s: %v", channelID, err)
	}
}

func (w *Worker) reportError(channelID, userID, message string, err error) {
	logging.Info("worker", "%s: %v", message, err)
	w.reply(channelID, userID, message)
}

func mention(userID string) string {
	return "<@" + userID + ">"
}
