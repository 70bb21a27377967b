package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"remindbot/internal/llm"
	"remindbot/internal/logging"
	"remindbot/internal/store"
)

// ChannelSender posts plain text to a channel.
type ChannelSender interface {
	SendMessage(channelID, content string) error
}

// NotificationLoop scans durable storage for due notification slots
// and delivers them. A slot is only marked delivered after the send
// succeeds, so a failed send is retried next tick.
type NotificationLoop struct {
	store    *store.Store
	llm      llm.Client
	sender   ChannelSender
	interval time.Duration
}

// NewNotificationLoop builds the loop with the given scan interval.
func NewNotificationLoop(s *store.Store, client llm.Client, sender ChannelSender, interval time.Duration) *NotificationLoop {
	return &NotificationLoop{store: s, llm: client, sender: sender, interval: interval}
}

func (l *NotificationLoop) Name() string { return "notification" }

func (l *NotificationLoop) NextRun(now time.Time) time.Time {
	return now.Add(l.interval)
}

func (l *NotificationLoop) Tick(ctx context.Context) error {
	due, err := l.store.ListDueNotifications(ctx, time.Now())
	if err != nil {
		return err
	}

	for _, d := range due {
		body := l.buildMessage(ctx, d)
		if err := l.sender.SendMessage(d.ChannelID, body); err != nil {
			logging.Info("tasks", "Failed to deliver notification %s, will retry: %v", d.ID, err)
			continue
		}
		remaining, err := l.store.MarkDelivered(ctx, d.ID, d.FireAt)
		if err != nil {
			logging.Info("tasks", "Failed to mark notification %s delivered: %v", d.ID, err)
			continue
		}
		if remaining == 0 {
			logging.Debug("tasks", "Notification %s schedule exhausted, expired", d.ID)
		}
	}
	return nil
}

// messageContext is the structured input for the LLM formatter.
type messageContext struct {
	Content        string     `json:"content"`
	EventTime      time.Time  `json:"event_time"`
	NextTime       *time.Time `json:"next_notification_time,omitempty"`
	HoursRemaining int64      `json:"hours_remaining"`
}

// buildMessage renders the delivery body via the completion service,
// with a deterministic fallback so a degraded LLM never blocks
// delivery.
func (l *NotificationLoop) buildMessage(ctx context.Context, d store.DueNotification) string {
	hours := int64(time.Until(d.EventTime).Hours())
	fallback := fmt.Sprintf("%s\nYou have an upcoming event at %s\n%s\nHours remaining: %d",
		mention(d.UserID), d.EventTime.Format(time.RFC1123), d.Content, hours)

	structured, err := json.Marshal(messageContext{
		Content:        d.Content,
		EventTime:      d.EventTime,
		HoursRemaining: hours,
	})
	if err != nil {
		return fallback
	}

	body, err := l.llm.GeneratePrompt(ctx, string(structured), llm.PromptMessage)
	if err != nil || strings.TrimSpace(body) == "" {
		if err != nil {
			logging.Debug("tasks", "Message formatting failed, using fallback: %v", err)
		}
		return fallback
	}
	return mention(d.UserID) + "\n" + strings.TrimSpace(body)
}

func mention(userID string) string {
	return "<@" + userID + ">"
}
