package usecase

import (
	"context"

	"chemradar/internal/domain"
)

type stubSource struct {
	articles []domain.Article
}

func (s *stubSource) FetchRecent(ctx context.Context) []domain.Article {
	return s.articles
}

type stubScreener struct {
	calls   int
	verdict func(domain.Article) (bool, error)
}

func (s *stubScreener) FastScreen(ctx context.Context, article domain.Article) (bool, error) {
	s.calls++
	if s.verdict == nil {
		return true, nil
	}
	return s.verdict(article)
}

type stubAnalyzer struct {
	calls    int
	classify func(domain.Article) (*domain.Classification, error)
}

func (s *stubAnalyzer) Analyze(ctx context.Context, article domain.Article) (*domain.Classification, error) {
	s.calls++
	if s.classify == nil {
		return nil, nil
	}
	return s.classify(article)
}

type stubNotifier struct {
	calls int
	ack   bool
	err   error
	sent  []domain.EnrichedArticle
}

func (s *stubNotifier) PublishDigest(ctx context.Context, selection []domain.EnrichedArticle) (bool, error) {
	s.calls++
	s.sent = append([]domain.EnrichedArticle(nil), selection...)
	return s.ack, s.err
}

type stubArchive struct {
	saved []domain.EnrichedArticle
	err   error
}

func (s *stubArchive) SaveDelivered(ctx context.Context, article domain.EnrichedArticle) error {
	s.saved = append(s.saved, article)
	return s.err
}
