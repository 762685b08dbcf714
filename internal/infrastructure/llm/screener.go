package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"chemradar/internal/config"
	"chemradar/internal/domain"
	"chemradar/internal/ports"
)

const screenAbstractLimit = 500

// Screener is the Layer-1 relevance gate: a fast, cheap model asked for a
// bare YES/NO. Its verdicts bound how many articles reach the expensive
// analyzer.
type Screener struct {
	client  *ChatClient
	timeout time.Duration
}

var _ ports.Screener = (*Screener)(nil)

// NewScreener builds the fast screen from configuration. A missing API key
// is a component-unavailable condition reported to the caller; the app
// degrades by wiring no screener at all.
func NewScreener(cfg config.ScreeningConfig) (*Screener, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("screening api key is not set")
	}

	timeout := cfg.Timeout()
	client := NewChatClient(cfg.Endpoint, cfg.Model, strings.TrimSpace(cfg.APIKey), &http.Client{Timeout: timeout})

	return &Screener{client: client, timeout: timeout}, nil
}

// FastScreen asks whether the paper is worth deep analysis. Any answer
// containing YES passes; errors are surfaced so the selection engine can
// apply its configured fail-open policy.
func (s *Screener) FastScreen(ctx context.Context, article domain.Article) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	reply, err := s.client.Complete(ctx, screenPrompt(article), 0)
	if err != nil {
		return false, err
	}

	return strings.Contains(strings.ToUpper(reply), "YES"), nil
}

func screenPrompt(article domain.Article) string {
	abstract := article.Abstract
	if len(abstract) > screenAbstractLimit {
		abstract = abstract[:screenAbstractLimit]
	}

	return "Task: Decide if this chemistry paper is relevant (YES/NO).\n" +
		"Criteria:\n" +
		"1. Carbene Chemistry: Diazo, Sulfonylhydrazone, Ylides, NHCs, Cyclopropanation, Insertion, etc.\n" +
		"2. Advanced Synthesis: New ligands, catalysis, C-H activation, or methodology.\n" +
		"Exclude: Polymers, materials, bio-testing, or routine total synthesis.\n\n" +
		"Title: " + article.Title + "\n" +
		"Abstract: " + abstract + "\n" +
		"Output ONLY 'YES' or 'NO'."
}
