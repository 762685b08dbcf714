package ports

import (
	"context"
	"time"

	"chemradar/internal/domain"
)

// ArticleSource pulls recent candidates from the monitored journals.
// Implementations are best-effort: a failing journal is logged and skipped,
// the remaining journals still contribute.
type ArticleSource interface {
	FetchRecent(ctx context.Context) []domain.Article
}

// Screener is the cheap first-layer relevance gate run before the expensive
// analyzer.
type Screener interface {
	FastScreen(ctx context.Context, article domain.Article) (bool, error)
}

// Analyzer is the expensive second-layer classifier and translator.
// A nil result with a nil error means "not relevant".
type Analyzer interface {
	Analyze(ctx context.Context, article domain.Article) (*domain.Classification, error)
}

// Notifier renders a selection and posts it to the chat webhook. The bool
// reports a remote acknowledgement, not merely that the request completed.
type Notifier interface {
	PublishDigest(ctx context.Context, selection []domain.EnrichedArticle) (bool, error)
}

// DeliveryArchive records delivered articles for audit and history queries.
type DeliveryArchive interface {
	SaveDelivered(ctx context.Context, article domain.EnrichedArticle) error
}

// Scheduler controls when pipeline runs execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
