// Package llm wraps the OpenAI chat-completions API behind a small
// prompt-typed interface. Every call carries a bounded timeout; callers
// are expected to have their own fallback when a call fails.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"
	defaultModel   = "gpt-4o-mini"
	defaultTimeout = 15 * time.Second
)

// Client generates a completion for a prompt of a known type. The
// prompt type selects the instruction template (see prompts.go).
type Client interface {
	GeneratePrompt(ctx context.Context, prompt, promptType string) (string, error)
}

// OpenAI is the production Client backed by the chat-completions API.
type OpenAI struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewOpenAI creates a client with the default model and timeout.
func NewOpenAI(apiKey string) *OpenAI {
	return &OpenAI{
		baseURL: defaultBaseURL,
		apiKey:  apiKey,
		model:   defaultModel,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}
}

// NewOpenAIWithBaseURL is used by tests to point the client at a stub server.
func NewOpenAIWithBaseURL(apiKey, baseURL string) *OpenAI {
	c := NewOpenAI(apiKey)
	c.baseURL = strings.TrimRight(baseURL, "/")
	return c
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float32       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// GeneratePrompt renders the instruction template for promptType around
// the user prompt and returns the raw completion text.
func (c *OpenAI) GeneratePrompt(ctx context.Context, prompt, promptType string) (string, error) {
	fullPrompt, err := buildPrompt(promptType, prompt, time.Now().UTC())
	if err != nil {
		return "", err
	}

	reqBody := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemMessage(promptType)},
			{Role: "user", Content: fullPrompt},
		},
		MaxTokens:   1500,
		Temperature: 0.2,
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("completion request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("completion request failed with status %d: %s",
			resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("failed to parse completion response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("no choices in completion response")
	}
	return parsed.Choices[0].Message.Content, nil
}
