package intent

import (
	"fmt"
	"os"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"
)

// Rules holds the keyword vocabulary the heuristic classifier matches
// against. The zero value is unusable; start from DefaultRules and
// optionally override from a YAML file.
type Rules struct {
	TimeTokens []string `yaml:"time_tokens"`
	Weekdays   []string `yaml:"weekdays"`
	Months     []string `yaml:"months"`
	TodoVerbs  []string `yaml:"todo_verbs"`
}

// DefaultRules returns the built-in vocabulary.
func DefaultRules() *Rules {
	return &Rules{
		TimeTokens: []string{
			"today", "tomorrow", "tonight", "morning", "afternoon",
			"evening", "next ", "this ", "at ", "in ", "on ",
		},
		Weekdays: []string{
			"monday", "tuesday", "wednesday", "thursday",
			"friday", "saturday", "sunday",
		},
		Months: []string{
			"january", "february", "march", "april", "may", "june",
			"july", "august", "september", "october", "november", "december",
		},
		TodoVerbs: []string{"do ", "finish", "check", "complete", "todo"},
	}
}

// LoadRules reads a YAML rules file. Lists present in the file replace
// the corresponding defaults; absent lists keep them.
func LoadRules(path string) (*Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}

	var overrides Rules
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return nil, fmt.Errorf("failed to parse rules file: %w", err)
	}

	rules := DefaultRules()
	if len(overrides.TimeTokens) > 0 {
		rules.TimeTokens = overrides.TimeTokens
	}
	if len(overrides.Weekdays) > 0 {
		rules.Weekdays = overrides.Weekdays
	}
	if len(overrides.Months) > 0 {
		rules.Months = overrides.Months
	}
	if len(overrides.TodoVerbs) > 0 {
		rules.TodoVerbs = overrides.TodoVerbs
	}
	return rules, nil
}

// Classify applies the keyword heuristic. todoEnabled gates the
// optional third branch; when false, todo-like requests fall through
// to Unknown.
func (r *Rules) Classify(text string, todoEnabled bool) Result {
	normalized := strings.TrimSpace(text)
	if normalized == "" {
		return Result{Intent: Unknown, NormalizedText: normalized}
	}

	if r.hasTimeTokens(normalized) {
		return Result{Intent: Notification, NormalizedText: normalized}
	}

	if todoEnabled {
		lower := strings.ToLower(normalized)
		for _, verb := range r.TodoVerbs {
			if strings.Contains(lower, verb) {
				return Result{Intent: Todo, NormalizedText: normalized}
			}
		}
	}

	return Result{Intent: Unknown, NormalizedText: normalized}
}

func (r *Rules) hasTimeTokens(text string) bool {
	lower := strings.ToLower(text)

	for _, tok := range r.TimeTokens {
		if strings.Contains(lower, tok) {
			return true
		}
	}
	for _, day := range r.Weekdays {
		if strings.Contains(lower, day) {
			return true
		}
	}
	for _, month := range r.Months {
		if strings.Contains(lower, month) {
			return true
		}
	}

	// Date or clock punctuation only counts with a digit nearby.
	if strings.ContainsAny(lower, "/:") {
		return strings.ContainsFunc(lower, unicode.IsDigit)
	}

	return hasAmPm(lower)
}

// hasAmPm reports whether "am" or "pm" appears as a standalone token
// ("5pm", "at 7 am"), not inside a word like "camp".
func hasAmPm(lower string) bool {
	for i := 0; i+1 < len(lower); i++ {
		first, second := lower[i], lower[i+1]
		if (first != 'a' && first != 'p') || second != 'm' {
			continue
		}
		boundaryBefore := i == 0 || !isASCIILetter(lower[i-1])
		boundaryAfter := i+2 >= len(lower) || !isASCIILetter(lower[i+2])
		if boundaryBefore && boundaryAfter {
			return true
		}
	}
	return false
}

func isASCIILetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}
