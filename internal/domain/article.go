package domain

import (
	"strings"
	"time"
)

// Article is a raw candidate normalized from a journal feed.
type Article struct {
	Journal     string
	Title       string
	Abstract    string
	DOI         string
	Link        string
	PublishedAt time.Time
}

// Identifier derives the canonical key used for deduplication and cross-run
// suppression: the DOI (trimmed, lower-cased) when present, otherwise a
// title-based fallback. Two candidates with the same DOI always share a key
// regardless of case or surrounding whitespace. Returns "" only when the
// candidate has neither DOI nor title.
func Identifier(a Article) string {
	if doi := strings.ToLower(strings.TrimSpace(a.DOI)); doi != "" {
		return doi
	}
	title := strings.ToLower(strings.TrimSpace(a.Title))
	if title == "" {
		return ""
	}
	return "title::" + title
}

// Categories assigned by the deep analyzer.
const (
	CategoryCarbene     = "carbene"
	CategoryMethodology = "methodology"
	CategoryNone        = "none"
)

// Classification is the structured output of the deep analyzer for one
// relevant article.
type Classification struct {
	Category       string
	TitleZH        string
	AbstractZH     string
	Recommendation string
}

// EnrichedArticle is a candidate merged with its classification. Created
// only for candidates the analyzer judged relevant.
type EnrichedArticle struct {
	Article
	Classification
}

// Enrich merges a candidate with a classification result. The merge fails
// when the result carries no usable category, so malformed analyzer output
// is skipped instead of producing half-filled digest entries.
func Enrich(a Article, c Classification) (EnrichedArticle, bool) {
	c.Category = strings.ToLower(strings.TrimSpace(c.Category))
	if c.Category == "" || c.Category == CategoryNone {
		return EnrichedArticle{}, false
	}
	c.TitleZH = strings.TrimSpace(c.TitleZH)
	c.AbstractZH = strings.TrimSpace(c.AbstractZH)
	c.Recommendation = strings.TrimSpace(c.Recommendation)
	return EnrichedArticle{Article: a, Classification: c}, true
}
