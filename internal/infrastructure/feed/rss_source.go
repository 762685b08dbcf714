package feed

import (
	"context"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"chemradar/internal/config"
	"chemradar/internal/domain"
	"chemradar/internal/ports"
)

var doiExpr = regexp.MustCompile(`10\.\d{4,9}/[-._;()/:A-Za-z0-9]+`)

// allowedTypes marks entry kinds worth classifying; editorials, news items
// and graphical abstracts are skipped.
var allowedTypes = []string{"article", "research article", "communication"}

// RSSSource pulls recent candidates from the configured journal feeds.
type RSSSource struct {
	parser   *gofeed.Parser
	journals []config.JournalConfig
	window   time.Duration
	now      func() time.Time
	logger   *slog.Logger
}

var _ ports.ArticleSource = (*RSSSource)(nil)

// NewRSSSource wires a gofeed parser over the journal table. A nil client
// gets a default with the configured timeout.
func NewRSSSource(client *http.Client, cfg config.FeedConfig, logger *slog.Logger) *RSSSource {
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout()}
	}
	if logger == nil {
		logger = slog.Default()
	}

	parser := gofeed.NewParser()
	parser.Client = client
	parser.UserAgent = "chemradar/1.0"

	return &RSSSource{
		parser:   parser,
		journals: cfg.Journals,
		window:   cfg.Window(),
		now:      time.Now,
		logger:   logger,
	}
}

// FetchRecent walks every configured journal and returns the normalized
// candidates published inside the recency window. Best-effort: a journal
// that fails to fetch or parse is logged and skipped, never aborting the
// batch.
func (s *RSSSource) FetchRecent(ctx context.Context) []domain.Article {
	var all []domain.Article

	for _, journal := range s.journals {
		s.logger.Debug("fetching feed", "journal", journal.Name)

		parsed, err := s.parser.ParseURLWithContext(journal.URL, ctx)
		if err != nil {
			s.logger.Warn("feed fetch failed", "journal", journal.Name, "error", err)
			continue
		}

		count := 0
		for _, item := range parsed.Items {
			article, ok := s.normalizeItem(journal.Name, item)
			if !ok {
				continue
			}
			all = append(all, article)
			count++
		}
		s.logger.Debug("feed processed", "journal", journal.Name, "accepted", count, "entries", len(parsed.Items))
	}

	return all
}

func (s *RSSSource) normalizeItem(journal string, item *gofeed.Item) (domain.Article, bool) {
	published := publishedAt(item)
	if published.IsZero() || !s.withinWindow(published) {
		return domain.Article{}, false
	}

	if !isAllowedType(item) {
		return domain.Article{}, false
	}

	title := strings.TrimSpace(item.Title)
	if title == "" {
		return domain.Article{}, false
	}

	abstract := item.Description
	if abstract == "" {
		abstract = item.Content
	}

	return domain.Article{
		Journal:     journal,
		Title:       title,
		Abstract:    stripHTML(abstract),
		DOI:         extractDOI(item),
		Link:        strings.TrimSpace(item.Link),
		PublishedAt: published.UTC(),
	}, true
}

func (s *RSSSource) withinWindow(published time.Time) bool {
	now := s.now().UTC()
	published = published.UTC()
	return !published.Before(now.Add(-s.window)) && !published.After(now)
}

func publishedAt(item *gofeed.Item) time.Time {
	if item.PublishedParsed != nil {
		return *item.PublishedParsed
	}
	if item.UpdatedParsed != nil {
		return *item.UpdatedParsed
	}
	return time.Time{}
}

// isAllowedType matches categories and title against the allowed article
// kinds. Feeds disagree on where they put the type, so the fields are
// pooled before matching.
func isAllowedType(item *gofeed.Item) bool {
	pool := make([]string, 0, len(item.Categories)+1)
	pool = append(pool, item.Categories...)
	pool = append(pool, item.Title)
	merged := strings.ToLower(strings.Join(pool, " | "))

	for _, kind := range allowedTypes {
		if strings.Contains(merged, kind) {
			return true
		}
	}
	return false
}

// extractDOI scans the entry's identifier, link, title, summary, and link
// list for the first DOI-shaped token.
func extractDOI(item *gofeed.Item) string {
	pool := []string{item.GUID, item.Link, item.Title, item.Description}
	pool = append(pool, item.Links...)

	for _, text := range pool {
		if match := doiExpr.FindString(text); match != "" {
			return match
		}
	}
	return ""
}

// stripHTML flattens feed summaries to plain text; publisher feeds wrap
// abstracts in markup and entity noise.
func stripHTML(fragment string) string {
	fragment = strings.TrimSpace(fragment)
	if fragment == "" {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return fragment
	}

	return strings.Join(strings.Fields(doc.Text()), " ")
}
