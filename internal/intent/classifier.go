package intent

import (
	"context"
	"encoding/json"
	"strings"

	"remindbot/internal/llm"
	"remindbot/internal/logging"
)

// Classifier resolves free text to an intent. Implementations never
// return an error; the worst case is Unknown.
type Classifier interface {
	Classify(ctx context.Context, text string) Result
}

// HeuristicClassifier is the pure keyword classifier, used standalone
// in tests and as the fallback stage of RouterClassifier.
type HeuristicClassifier struct {
	Rules       *Rules
	TodoEnabled bool
}

func (h *HeuristicClassifier) Classify(_ context.Context, text string) Result {
	return h.Rules.Classify(text, h.TodoEnabled)
}

// RouterClassifier asks the completion service first and falls back to
// the heuristic when the call fails or the payload is malformed.
type RouterClassifier struct {
	client      llm.Client
	rules       *Rules
	todoEnabled bool
}

// NewRouterClassifier builds the two-stage classifier.
func NewRouterClassifier(client llm.Client, rules *Rules, todoEnabled bool) *RouterClassifier {
	if rules == nil {
		rules = DefaultRules()
	}
	return &RouterClassifier{client: client, rules: rules, todoEnabled: todoEnabled}
}

type routerPayload struct {
	Intent         string `json:"intent"`
	NormalizedText string `json:"normalized_text"`
}

func (r *RouterClassifier) Classify(ctx context.Context, text string) Result {
	payload, err := r.client.GeneratePrompt(ctx, text, llm.PromptIntentRouter)
	if err != nil {
		logging.Debug("intent", "Router call failed, using heuristic: %v", err)
		return r.rules.Classify(text, r.todoEnabled)
	}

	result, ok := r.parsePayload(payload)
	if !ok {
		logging.Debug("intent", "Malformed router payload %q, using heuristic",
			logging.Truncate(payload, 80))
		return r.rules.Classify(text, r.todoEnabled)
	}
	return result
}

func (r *RouterClassifier) parsePayload(payload string) (Result, bool) {
	var parsed routerPayload
	if err := json.Unmarshal([]byte(payload), &parsed); err != nil {
		return Result{}, false
	}

	normalized := strings.TrimSpace(parsed.NormalizedText)
	switch parsed.Intent {
	case "notification":
		return Result{Intent: Notification, NormalizedText: normalized}, true
	case "todolist":
		if !r.todoEnabled {
			return Result{Intent: Unknown, NormalizedText: normalized}, true
		}
		return Result{Intent: Todo, NormalizedText: normalized}, true
	case "unknown":
		return Result{Intent: Unknown, NormalizedText: normalized}, true
	}
	// Anything outside the known vocabulary is unknown, per contract.
	return Result{Intent: Unknown, NormalizedText: normalized}, true
}
