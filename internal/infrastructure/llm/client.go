package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// ChatClient talks to an OpenAI-compatible chat-completions endpoint and
// returns the assistant message for the caller to interpret.
type ChatClient struct {
	endpoint   string
	model      string
	apiKey     string
	httpClient *http.Client
}

// NewChatClient builds a client; the key is validated by the callers that
// wrap it, not here.
func NewChatClient(endpoint, model, apiKey string, httpClient *http.Client) *ChatClient {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &ChatClient{
		endpoint:   endpoint,
		model:      model,
		apiKey:     apiKey,
		httpClient: httpClient,
	}
}

// Complete sends a single-user-message completion request and returns the
// assistant reply text. The context bounds the whole call.
func (c *ChatClient) Complete(ctx context.Context, prompt string, temperature float64) (string, error) {
	if c == nil {
		return "", fmt.Errorf("chat client is nil")
	}
	if c.apiKey == "" || c.endpoint == "" || c.model == "" {
		return "", fmt.Errorf("chat client misconfigured")
	}

	body, err := json.Marshal(map[string]any{
		"model":       c.model,
		"temperature": temperature,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal chat payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("chat error %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	var decoded struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("decode chat response: %w", err)
	}
	if len(decoded.Choices) == 0 {
		return "", fmt.Errorf("chat response has no choices")
	}

	return decoded.Choices[0].Message.Content, nil
}
