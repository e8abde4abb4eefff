package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/ayush/gyancoder/backend/internal/config"
)

// Message is one entry of the outbound conversation context.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Completer produces a single assistant reply for a running message list.
type Completer interface {
	Complete(ctx context.Context, messages []Message) (string, error)
}

// LLMClient calls a Groq/OpenAI-style chat-completions API over HTTP.
type LLMClient struct {
	baseURL     string
	apiKey      string
	model       string
	temperature float64
	maxTokens   int
	httpClient  *http.Client
}

func NewLLMClient(cfg config.LLMConfig) *LLMClient {
	return &LLMClient{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		httpClient:  &http.Client{},
	}
}

// Complete calls POST /chat/completions and returns the trimmed reply text.
func (c *LLMClient) Complete(ctx context.Context, messages []Message) (string, error) {
	body, _ := json.Marshal(map[string]any{
		"model":       c.model,
		"messages":    messages,
		"temperature": c.temperature,
		"max_tokens":  c.maxTokens,
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("llm request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("llm /chat/completions: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("llm /chat/completions returned %d: %s", resp.StatusCode, string(detail))
	}

	var result struct {
		Choices []struct {
			Message Message `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("llm /chat/completions: decode: %w", err)
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("llm /chat/completions: empty choices")
	}
	return strings.TrimSpace(result.Choices[0].Message.Content), nil
}
