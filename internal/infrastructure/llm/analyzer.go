package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"chemradar/internal/config"
	"chemradar/internal/domain"
	"chemradar/internal/ports"
)

// RetryPolicy bounds repeated attempts against a flaky collaborator.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     time.Duration
}

// Do runs fn until it succeeds, attempts are exhausted, or the context is
// cancelled. The backoff delay separates attempts.
func (p RetryPolicy) Do(ctx context.Context, fn func() error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if lastErr = fn(); lastErr == nil {
			return nil
		}
		if attempt == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.Backoff):
		}
	}
	return lastErr
}

// Analyzer is the Layer-2 deep classifier: a reasoning model asked for
// strict JSON with category, Chinese translations, and a recommendation.
type Analyzer struct {
	client  *ChatClient
	timeout time.Duration
	retry   RetryPolicy
}

var _ ports.Analyzer = (*Analyzer)(nil)

// NewAnalyzer builds the deep analyzer from configuration. A missing API
// key is reported to the caller so the whole selection stage can degrade
// to a no-op instead of crashing.
func NewAnalyzer(cfg config.AnalysisConfig) (*Analyzer, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("analysis api key is not set")
	}

	timeout := cfg.Timeout()
	client := NewChatClient(cfg.Endpoint, cfg.Model, strings.TrimSpace(cfg.APIKey), &http.Client{Timeout: timeout})

	return &Analyzer{
		client:  client,
		timeout: timeout,
		retry:   RetryPolicy{MaxAttempts: cfg.MaxAttempts, Backoff: cfg.Backoff()},
	}, nil
}

// Analyze classifies and translates one article, retrying transient
// failures per the configured policy. A result categorized "none" means
// not relevant and maps to (nil, nil).
func (a *Analyzer) Analyze(ctx context.Context, article domain.Article) (*domain.Classification, error) {
	var result *domain.Classification

	err := a.retry.Do(ctx, func() error {
		callCtx, cancel := context.WithTimeout(ctx, a.timeout)
		defer cancel()

		reply, err := a.client.Complete(callCtx, analyzePrompt(article), 1)
		if err != nil {
			return err
		}

		parsed, err := parseClassification(reply)
		if err != nil {
			return err
		}
		result = parsed
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Category == domain.CategoryNone || result.Category == "" {
		return nil, nil
	}
	return result, nil
}

func analyzePrompt(article domain.Article) string {
	return "You are a PhD in Organic Chemistry. Analyze this paper's innovation.\n" +
		"Focus: Carbene transfer, reactive intermediates ($Metal-Carbene$), and catalytic cycles.\n" +
		"Task: Output STRICT JSON with keys: category, title_zh, abstract_zh, recommendation.\n" +
		"Category must be 'carbene' or 'methodology'.\n\n" +
		"Title: " + article.Title + "\n" +
		"Abstract: " + article.Abstract + "\n"
}

// parseClassification decodes the model reply. Reasoning models sometimes
// wrap the JSON in a markdown fence after their thinking text, so the fence
// body is extracted first.
func parseClassification(reply string) (*domain.Classification, error) {
	content := extractJSON(strings.TrimSpace(reply))

	var parsed struct {
		Category       string `json:"category"`
		TitleZH        string `json:"title_zh"`
		AbstractZH     string `json:"abstract_zh"`
		Recommendation string `json:"recommendation"`
	}
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return nil, fmt.Errorf("decode classification: %w", err)
	}

	return &domain.Classification{
		Category:       strings.ToLower(strings.TrimSpace(parsed.Category)),
		TitleZH:        strings.TrimSpace(parsed.TitleZH),
		AbstractZH:     strings.TrimSpace(parsed.AbstractZH),
		Recommendation: strings.TrimSpace(parsed.Recommendation),
	}, nil
}

func extractJSON(content string) string {
	if idx := strings.Index(content, "```json"); idx >= 0 {
		content = content[idx+len("```json"):]
		if end := strings.Index(content, "```"); end >= 0 {
			content = content[:end]
		}
	}
	return strings.TrimSpace(content)
}
