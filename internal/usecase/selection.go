package usecase

import (
	"context"
	"log/slog"
	"strings"

	"chemradar/internal/domain"
	"chemradar/internal/ports"
	"chemradar/internal/store"
)

// SelectionPolicy configures per-category quotas, the order categories are
// concatenated into the final digest, and how a fast-screen failure is
// treated.
type SelectionPolicy struct {
	// Quotas caps how many articles each category bucket accepts during one
	// run. Categories absent from the map are discarded.
	Quotas map[string]int
	// Priority lists categories highest-priority first; the final selection
	// concatenates buckets in this order, each truncated to its quota.
	Priority []string
	// FailOpen passes an article through to the analyzer when the fast
	// screen errors. Trades cost for recall; set explicitly in config.
	FailOpen bool
}

// Buckets holds classified articles grouped by category, each bucket in
// candidate order.
type Buckets map[string][]domain.EnrichedArticle

// Selector consumes deduplicated candidates through the two screening
// layers and buckets the relevant ones by category.
type Selector struct {
	screener ports.Screener
	analyzer ports.Analyzer
	policy   SelectionPolicy
	logger   *slog.Logger
}

// NewSelector wires the screening collaborators. A nil screener disables
// the fast layer; a nil analyzer degrades selection to "nothing selected".
func NewSelector(screener ports.Screener, analyzer ports.Analyzer, policy SelectionPolicy, logger *slog.Logger) *Selector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Selector{
		screener: screener,
		analyzer: analyzer,
		policy:   policy,
		logger:   logger,
	}
}

// Select iterates candidates in input order, skipping already-pushed and
// incomplete ones, and classifies the rest. Iteration stops early once
// every configured bucket has reached its quota, bounding calls to the
// costly analyzer.
func (s *Selector) Select(ctx context.Context, candidates []domain.Article, pushed *store.PushedSet) Buckets {
	buckets := Buckets{}

	if s.analyzer == nil {
		s.logger.Warn("analyzer unavailable, selection skipped")
		return buckets
	}

	for _, candidate := range candidates {
		if id := domain.Identifier(candidate); id != "" && pushed.Contains(id) {
			continue
		}
		if strings.TrimSpace(candidate.Title) == "" || strings.TrimSpace(candidate.Abstract) == "" {
			continue
		}

		if !s.fastScreen(ctx, candidate) {
			continue
		}

		result, err := s.analyzer.Analyze(ctx, candidate)
		if err != nil {
			s.logger.Warn("analysis failed", "title", candidate.Title, "error", err)
			continue
		}
		if result == nil {
			continue
		}

		enriched, ok := domain.Enrich(candidate, *result)
		if !ok {
			s.logger.Warn("analysis result missing category", "title", candidate.Title)
			continue
		}
		if _, configured := s.policy.Quotas[enriched.Category]; !configured {
			continue
		}

		buckets[enriched.Category] = append(buckets[enriched.Category], enriched)

		if s.quotasMet(buckets) {
			s.logger.Info("all quotas reached, ending screening early")
			break
		}
	}

	return buckets
}

// Assemble concatenates buckets in priority order, truncating each to its
// quota, producing the final ordered delivery list.
func (s *Selector) Assemble(buckets Buckets) []domain.EnrichedArticle {
	var final []domain.EnrichedArticle
	for _, category := range s.policy.Priority {
		bucket := buckets[category]
		if max, ok := s.policy.Quotas[category]; ok && len(bucket) > max {
			bucket = bucket[:max]
		}
		final = append(final, bucket...)
	}
	return final
}

func (s *Selector) fastScreen(ctx context.Context, candidate domain.Article) bool {
	if s.screener == nil {
		return true
	}

	pass, err := s.screener.FastScreen(ctx, candidate)
	if err != nil {
		s.logger.Warn("fast screen failed", "title", candidate.Title, "error", err, "failOpen", s.policy.FailOpen)
		return s.policy.FailOpen
	}
	return pass
}

func (s *Selector) quotasMet(buckets Buckets) bool {
	if len(s.policy.Quotas) == 0 {
		return false
	}
	for category, max := range s.policy.Quotas {
		if len(buckets[category]) < max {
			return false
		}
	}
	return true
}
