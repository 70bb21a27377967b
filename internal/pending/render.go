package pending

import (
	"fmt"
	"strings"
	"time"
)

// PromptBody renders the confirmation prompt text for this draft.
func (n Notification) PromptBody() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Please confirm your notification:\nContent: %s\nTime: %s",
		n.Content, n.ScheduledAt.Format(time.RFC1123))
	if ctx := strings.TrimSpace(n.ExtraContext); ctx != "" {
		fmt.Fprintf(&b, "\nAdditional context: %s", ctx)
	}
	return b.String()
}
