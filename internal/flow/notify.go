// Package flow holds the per-conversation routing state for /notify
// requests. A request that routes to Unknown leaves a short-lived
// session behind; a follow-up from the same user and channel inside
// the window is combined with the earlier text before reclassifying,
// so "remind me about the dentist" followed by "tomorrow at 9" works.
package flow

import (
	"context"
	"sync"
	"time"

	"remindbot/internal/intent"
)

// SessionState tracks where a conversation stands after routing.
type sessionState int

const (
	stateUnknown sessionState = iota
	statePendingNotification
)

type session struct {
	state        sessionState
	originalText string
	lastPromptAt time.Time
}

// Key identifies a conversation: one user in one channel.
type Key struct {
	UserID    string
	ChannelID string
}

// Decision is the outcome of routing one /notify request.
type Decision int

const (
	DecisionClarify Decision = iota
	DecisionNotify
	DecisionTodo
)

// Router routes /notify text through the classifier while maintaining
// clarification sessions.
type Router struct {
	classifier intent.Classifier
	window     time.Duration

	mu       sync.Mutex
	sessions map[Key]session
}

// NewRouter creates a router with the given clarification window.
func NewRouter(classifier intent.Classifier, window time.Duration) *Router {
	return &Router{
		classifier: classifier,
		window:     window,
		sessions:   make(map[Key]session),
	}
}

// Route classifies text for the conversation and returns the decision
// plus the text to act on (combined with any prior unknown request).
func (r *Router) Route(ctx context.Context, key Key, text string, now time.Time) (Decision, string) {
	combined := r.combineWithSession(key, text, now)

	result := r.classifier.Classify(ctx, combined)

	r.mu.Lock()
	defer r.mu.Unlock()
	switch result.Intent {
	case intent.Notification:
		r.sessions[key] = session{
			state:        statePendingNotification,
			originalText: combined,
			lastPromptAt: now,
		}
		return DecisionNotify, result.NormalizedText
	case intent.Todo:
		delete(r.sessions, key)
		return DecisionTodo, result.NormalizedText
	default:
		r.sessions[key] = session{
			state:        stateUnknown,
			originalText: combined,
			lastPromptAt: now,
		}
		return DecisionClarify, result.NormalizedText
	}
}

// combineWithSession folds a prior unknown request into the new text
// when still inside the window, and drops stale sessions.
func (r *Router) combineWithSession(key Key, text string, now time.Time) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	sess, ok := r.sessions[key]
	if !ok {
		return text
	}
	if now.Sub(sess.lastPromptAt) > r.window {
		delete(r.sessions, key)
		return text
	}
	if sess.state == stateUnknown {
		return sess.originalText + " " + text
	}
	return text
}

// Forget drops the session for a conversation. Called once a request
// reaches a terminal state so a fresh /notify starts a new cycle.
func (r *Router) Forget(key Key) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, key)
}
