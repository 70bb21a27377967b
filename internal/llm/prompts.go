package llm

import (
	"fmt"
	"time"
)

// Prompt types understood by GeneratePrompt.
const (
	PromptNotification  = "notification"            // free text -> {"content","time"}
	PromptCorrection    = "notification_correction" // original + correction note -> {"content","time"}
	PromptMessage       = "notification_message"    // structured info -> natural language body
	PromptIntentRouter  = "intent_router"           // free text -> {"intent","normalized_text"}
	notificationJSONDoc = `{"content":"<string>","time":"<RFC3339 datetime>"}`
)

func buildPrompt(promptType, prompt string, now time.Time) (string, error) {
	switch promptType {
	case PromptNotification:
		return fmt.Sprintf(
			"You are a notification extraction engine.\n"+
				"Current date and time (UTC): %s\n"+
				"Task: From the user message below, extract:\n"+
				"- \"content\": the core notification text with extraneous scheduling words removed. For example:\n"+
				"  - \"buy eggs tomorrow\" -> \"buy eggs\"\n"+
				"  - \"notify me to call mom at 5\" -> \"call mom\"\n"+
				"- \"time\": an RFC3339 datetime string.\n"+
				"Rules:\n"+
				"- If the user gives an explicit date like \"December 6th\", use that exact month and day at noon; do NOT change them.\n"+
				"- If the year is omitted, assume the next occurrence of that date on or after the current date.\n"+
				"- If the user gives a relative time (e.g. \"in two weeks\", \"tomorrow at 3pm\"), compute the concrete datetime from the current date/time.\n"+
				"- \"next Saturday\" means the occurrence in the following week, not the immediate upcoming one.\n"+
				"- If the time expression is unclear or missing (e.g. \"soon\", \"later\"), set the time to exactly 24 hours after the current datetime.\n"+
				"- If the message contains corrections or an \"Additional context\" section, treat them as time corrections only and never copy them into \"content\".\n"+
				"- Output ONLY raw JSON, no prose, markdown, or code fences.\n"+
				"- The JSON shape must be exactly:\n%s\n"+
				"User message: %q",
			now.Format(time.RFC3339), notificationJSONDoc, prompt), nil

	case PromptCorrection:
		return fmt.Sprintf(
			"You are a notification correction engine.\n"+
				"Current date and time (UTC): %s\n"+
				"Task: Given the original notification request and a user-provided correction note, output a corrected notification.\n"+
				"Rules:\n"+
				"- The correction note is NOT notification content. It only fixes the date/time or clarifies intent.\n"+
				"- Preserve the original notification content unless the correction explicitly changes it.\n"+
				"- Output ONLY raw JSON, no prose, markdown, or code fences.\n"+
				"- The JSON shape must be exactly:\n%s\n"+
				"Original request: %q",
			now.Format(time.RFC3339), notificationJSONDoc, prompt), nil

	case PromptMessage:
		return fmt.Sprintf(
			"You are a notification message formatter.\n"+
				"Current date and time (UTC): %s\n"+
				"Task: Given the structured notification info below, write a short, natural English notification message.\n"+
				"Rules:\n"+
				"- Address the user in second person.\n"+
				"- Mention the event time explicitly.\n"+
				"- If hours remaining is provided, include it in a friendly way.\n"+
				"- Keep it to 1-2 sentences, no markdown, no lists, no JSON.\n"+
				"Structured input:\n%s",
			now.Format(time.RFC3339), prompt), nil

	case PromptIntentRouter:
		return fmt.Sprintf(
			"You are an intent router for a notification bot.\n"+
				"Current date and time (UTC): %s\n"+
				"Task: Classify the user's message into one of these intents:\n"+
				"- notification: requests that include a time/date for a notification\n"+
				"- todolist: requests to create or update a todo list without a time\n"+
				"- unknown: unclear or missing time/action\n"+
				"Rules:\n"+
				"- If the message contains any explicit or implicit time/date (e.g. \"tomorrow\", weekdays, months, \"at 5pm\"), choose notification.\n"+
				"- If the message asks to do, finish, or check something with no time, choose todolist.\n"+
				"Output ONLY raw JSON, no prose, markdown, or code fences.\n"+
				"The JSON shape must be exactly:\n"+
				"{\"intent\":\"notification|todolist|unknown\",\"normalized_text\":\"<cleaned user text>\"}\n"+
				"User message: %q",
			now.Format(time.RFC3339), prompt), nil
	}

	return "", fmt.Errorf("unknown prompt type %q", promptType)
}

func systemMessage(promptType string) string {
	switch promptType {
	case PromptNotification, PromptCorrection:
		return "You are a strict JSON notification extraction engine. Reply ONLY with a single JSON object, with no markdown, no backticks, and no extra text. If the user gives an explicit date, preserve that exact month and day and only fill in missing year/time."
	case PromptIntentRouter:
		return "You are a strict JSON intent router. Reply ONLY with a single JSON object, with no markdown, no backticks, and no extra text."
	case PromptMessage:
		return "You are a notification message formatter. Reply with plain text only (no JSON, no markdown, no quotes)."
	}
	return "You are a helpful assistant."
}
