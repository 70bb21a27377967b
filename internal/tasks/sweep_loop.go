package tasks

import (
	"context"
	"time"

	"remindbot/internal/logging"
	"remindbot/internal/pending"
)

// PromptResolver finalizes or replaces confirmation prompts.
type PromptResolver interface {
	ChannelSender
	ResolvePrompt(channelID, messageID, content string) error
}

// SweepLoop expires pending notifications that were never confirmed
// and tells the requesting user their request timed out.
type SweepLoop struct {
	pending  *pending.Store
	sender   PromptResolver
	ttl      time.Duration
	interval time.Duration
}

// NewSweepLoop builds the loop.
func NewSweepLoop(store *pending.Store, sender PromptResolver, ttl, interval time.Duration) *SweepLoop {
	return &SweepLoop{pending: store, sender: sender, ttl: ttl, interval: interval}
}

func (l *SweepLoop) Name() string { return "sweep" }

func (l *SweepLoop) NextRun(now time.Time) time.Time {
	return now.Add(l.interval)
}

func (l *SweepLoop) Tick(_ context.Context) error {
	expired := l.pending.SweepExpired(time.Now(), l.ttl)
	for _, entry := range expired {
		logging.Info("tasks", "Expired pending notification %s", entry.RequestID)
		const notice = "This request timed out, please resend."
		if entry.MessageID != "" {
			if err := l.sender.ResolvePrompt(entry.ChannelID, entry.MessageID, notice); err == nil {
				continue
			}
		}
		if err := l.sender.SendMessage(entry.ChannelID, mention(entry.UserID)+" "+notice); err != nil {
			logging.Info("tasks", "Failed to send expiry notice for %s: %v", entry.RequestID, err)
		}
	}
	return nil
}
