package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Draft is the structured result of a notification extraction call.
type Draft struct {
	Content string    `json:"content"`
	Time    time.Time `json:"time"`
}

// ExtractNotification runs free text through the extraction prompt and
// parses the JSON payload. promptType is PromptNotification or
// PromptCorrection.
func ExtractNotification(ctx context.Context, c Client, text, promptType string) (Draft, error) {
	payload, err := c.GeneratePrompt(ctx, text, promptType)
	if err != nil {
		return Draft{}, fmt.Errorf("failed to call completion service: %w", err)
	}

	var draft Draft
	if err := json.Unmarshal([]byte(stripFences(payload)), &draft); err != nil {
		return Draft{}, fmt.Errorf("failed to parse notification JSON: %w", err)
	}
	if strings.TrimSpace(draft.Content) == "" {
		return Draft{}, fmt.Errorf("notification payload has empty content")
	}
	return draft, nil
}

// stripFences removes a markdown code fence if the model ignored the
// raw-JSON instruction.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
