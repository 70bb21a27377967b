// Package intent classifies free-text user requests into a handling
// category. The primary path asks the completion service; a
// deterministic keyword heuristic takes over whenever the remote call
// fails, times out, or returns something outside the known vocabulary.
// Classification never fails the caller.
package intent

// Intent is the handling category for a user request.
type Intent int

const (
	Unknown Intent = iota
	Notification
	Todo
)

func (i Intent) String() string {
	switch i {
	case Notification:
		return "notification"
	case Todo:
		return "todolist"
	default:
		return "unknown"
	}
}

// Result carries the classified intent plus the cleaned-up request text.
type Result struct {
	Intent         Intent
	NormalizedText string
}
