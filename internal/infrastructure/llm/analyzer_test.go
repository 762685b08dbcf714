package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"chemradar/internal/config"
	"chemradar/internal/domain"
)

func chatServer(t *testing.T, handler func(call int) (int, string)) (*httptest.Server, *int) {
	t.Helper()

	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		status, content := handler(calls)
		if status != http.StatusOK {
			http.Error(w, "upstream error", status)
			return
		}
		resp := map[string]any{
			"choices": []any{
				map[string]any{"message": map[string]any{"content": content}},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(server.Close)
	return server, &calls
}

func testAnalyzer(server *httptest.Server) *Analyzer {
	return &Analyzer{
		client:  NewChatClient(server.URL, "deepseek-reasoner", "test-key", server.Client()),
		timeout: 5 * time.Second,
		retry:   RetryPolicy{MaxAttempts: 2, Backoff: 5 * time.Millisecond},
	}
}

func TestAnalyzeParsesFencedJSON(t *testing.T) {
	t.Parallel()

	content := "Reasoning first.\n```json\n" +
		`{"category": "Carbene", "title_zh": "卡宾研究", "abstract_zh": "摘要", "recommendation": "值得关注"}` +
		"\n```"

	server, _ := chatServer(t, func(int) (int, string) { return http.StatusOK, content })
	analyzer := testAnalyzer(server)

	result, err := analyzer.Analyze(context.Background(), domain.Article{Title: "T", Abstract: "A"})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if result == nil {
		t.Fatal("expected a classification")
	}
	if result.Category != domain.CategoryCarbene {
		t.Fatalf("unexpected category: %q", result.Category)
	}
	if result.TitleZH != "卡宾研究" {
		t.Fatalf("unexpected title_zh: %q", result.TitleZH)
	}
}

func TestAnalyzeNotRelevant(t *testing.T) {
	t.Parallel()

	server, _ := chatServer(t, func(int) (int, string) {
		return http.StatusOK, `{"category": "none"}`
	})
	analyzer := testAnalyzer(server)

	result, err := analyzer.Analyze(context.Background(), domain.Article{Title: "T", Abstract: "A"})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if result != nil {
		t.Fatalf("expected nil for not-relevant, got %+v", result)
	}
}

func TestAnalyzeRetriesTransientFailure(t *testing.T) {
	t.Parallel()

	server, calls := chatServer(t, func(call int) (int, string) {
		if call == 1 {
			return http.StatusServiceUnavailable, ""
		}
		return http.StatusOK, `{"category": "methodology"}`
	})
	analyzer := testAnalyzer(server)

	result, err := analyzer.Analyze(context.Background(), domain.Article{Title: "T", Abstract: "A"})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if result == nil || result.Category != domain.CategoryMethodology {
		t.Fatalf("unexpected result: %+v", result)
	}
	if *calls != 2 {
		t.Fatalf("expected 2 attempts, got %d", *calls)
	}
}

func TestAnalyzeGivesUpAfterMaxAttempts(t *testing.T) {
	t.Parallel()

	server, calls := chatServer(t, func(int) (int, string) {
		return http.StatusServiceUnavailable, ""
	})
	analyzer := testAnalyzer(server)

	if _, err := analyzer.Analyze(context.Background(), domain.Article{Title: "T", Abstract: "A"}); err == nil {
		t.Fatal("expected error after exhausted attempts")
	}
	if *calls != 2 {
		t.Fatalf("expected exactly 2 attempts, got %d", *calls)
	}
}

func TestParseClassificationBareJSON(t *testing.T) {
	t.Parallel()

	parsed, err := parseClassification(`{"category":"carbene","recommendation":" keep "}`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if parsed.Category != "carbene" || parsed.Recommendation != "keep" {
		t.Fatalf("unexpected parse result: %+v", parsed)
	}
}

func TestParseClassificationGarbage(t *testing.T) {
	t.Parallel()

	if _, err := parseClassification("I could not find the JSON, sorry."); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestNewAnalyzerRequiresKey(t *testing.T) {
	t.Parallel()

	if _, err := NewAnalyzer(config.AnalysisConfig{Endpoint: "https://api.deepseek.com"}); err == nil {
		t.Fatal("expected error without api key")
	}
}
