package intent

import (
	"os"
	"path/filepath"
	"testing"
)

func TestHeuristicIntents(t *testing.T) {
	rules := DefaultRules()

	tests := []struct {
		name string
		text string
		todo bool
		want Intent
	}{
		{"empty", "", true, Unknown},
		{"whitespace only", "   ", true, Unknown},
		{"tomorrow", "buy eggs tomorrow", false, Notification},
		{"weekday", "dentist on saturday", false, Notification},
		{"month", "taxes due in april", false, Notification},
		{"clock time", "call mom at 5pm", false, Notification},
		{"am token", "standup 9am", false, Notification},
		{"am inside word is not a time", "go camping", false, Unknown},
		{"slash date", "party 12/31", false, Notification},
		{"slash without digits", "either/or", false, Unknown},
		{"colon time", "meeting 14:30", false, Notification},
		{"todo verb enabled", "finish the report", true, Todo},
		{"todo verb disabled", "finish the report", false, Unknown},
		{"no signal", "blah", true, Unknown},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := rules.Classify(tc.text, tc.todo)
			if got.Intent != tc.want {
				t.Errorf("Classify(%q) = %v, want %v", tc.text, got.Intent, tc.want)
			}
		})
	}
}

func TestHeuristicNormalizesText(t *testing.T) {
	rules := DefaultRules()
	got := rules.Classify("  buy eggs tomorrow  ", false)
	if got.NormalizedText != "buy eggs tomorrow" {
		t.Errorf("expected trimmed text, got %q", got.NormalizedText)
	}
}

func TestLoadRulesOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	content := "todo_verbs:\n  - \"grocery\"\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write rules file: %v", err)
	}

	rules, err := LoadRules(path)
	if err != nil {
		t.Fatalf("LoadRules failed: %v", err)
	}

	// Overridden list replaces the default verbs.
	if got := rules.Classify("finish the report", true); got.Intent != Unknown {
		t.Errorf("expected default todo verbs replaced, got %v", got.Intent)
	}
	if got := rules.Classify("grocery run", true); got.Intent != Todo {
		t.Errorf("expected custom todo verb to match, got %v", got.Intent)
	}
	// Untouched lists keep their defaults.
	if got := rules.Classify("buy eggs tomorrow", false); got.Intent != Notification {
		t.Errorf("expected default time tokens preserved, got %v", got.Intent)
	}
}

func TestLoadRulesMissingFile(t *testing.T) {
	if _, err := LoadRules(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing rules file")
	}
}
