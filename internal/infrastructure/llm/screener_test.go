package llm

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"chemradar/internal/config"
	"chemradar/internal/domain"
)

func TestFastScreenVerdicts(t *testing.T) {
	t.Parallel()

	cases := map[string]bool{
		"YES":                    true,
		"yes, clearly relevant":  true,
		"NO":                     false,
		"Not a chemistry paper.": false,
	}

	for reply, want := range cases {
		server, _ := chatServer(t, func(int) (int, string) { return http.StatusOK, reply })

		screener, err := NewScreener(config.ScreeningConfig{
			Endpoint:       server.URL,
			Model:          "gemini-3.0-flash",
			APIKey:         "test-key",
			TimeoutSeconds: 5,
		})
		if err != nil {
			t.Fatalf("new screener: %v", err)
		}

		got, err := screener.FastScreen(context.Background(), domain.Article{Title: "T", Abstract: "A"})
		if err != nil {
			t.Fatalf("reply %q: %v", reply, err)
		}
		if got != want {
			t.Fatalf("reply %q: got %v, want %v", reply, got, want)
		}
	}
}

func TestFastScreenSurfacesErrors(t *testing.T) {
	t.Parallel()

	server, _ := chatServer(t, func(int) (int, string) {
		return http.StatusTooManyRequests, ""
	})

	screener, err := NewScreener(config.ScreeningConfig{
		Endpoint:       server.URL,
		Model:          "gemini-3.0-flash",
		APIKey:         "test-key",
		TimeoutSeconds: 5,
	})
	if err != nil {
		t.Fatalf("new screener: %v", err)
	}

	if _, err := screener.FastScreen(context.Background(), domain.Article{Title: "T", Abstract: "A"}); err == nil {
		t.Fatal("expected error to surface for the engine's fail-open policy")
	}
}

func TestScreenPromptTruncatesAbstract(t *testing.T) {
	t.Parallel()

	article := domain.Article{
		Title:    "Long One",
		Abstract: strings.Repeat("x", 2000),
	}

	prompt := screenPrompt(article)
	if len(prompt) > 1200 {
		t.Fatalf("prompt not bounded, %d bytes", len(prompt))
	}
	if !strings.Contains(prompt, "Long One") {
		t.Fatal("title missing from prompt")
	}
}

func TestNewScreenerRequiresKey(t *testing.T) {
	t.Parallel()

	if _, err := NewScreener(config.ScreeningConfig{Endpoint: "https://example.org"}); err == nil {
		t.Fatal("expected error without api key")
	}
}
