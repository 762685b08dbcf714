package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"chemradar/internal/domain"
	"chemradar/internal/ports"
	"chemradar/internal/store"
)

// Committer performs the delivery step and, only on a confirmed
// acknowledgement, records the delivered identifiers into the pushed set.
type Committer struct {
	notifier ports.Notifier
	archive  ports.DeliveryArchive
	logger   *slog.Logger
}

// NewCommitter wires the delivery collaborators. The archive is optional.
func NewCommitter(notifier ports.Notifier, archive ports.DeliveryArchive, logger *slog.Logger) *Committer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Committer{notifier: notifier, archive: archive, logger: logger}
}

// Commit sends the selection and merges its identifiers into the pushed set
// on success. A failed or unacknowledged delivery leaves the store exactly
// as loaded, so the same candidates are retried on the next run instead of
// being silently lost. An empty selection is a no-op and never touches the
// notifier.
func (c *Committer) Commit(ctx context.Context, selection []domain.EnrichedArticle, pushed *store.PushedSet, storePath string) error {
	if len(selection) == 0 {
		return nil
	}

	if c.notifier == nil {
		c.logger.Warn("notifier not configured, delivery skipped")
		return nil
	}

	ok, err := c.notifier.PublishDigest(ctx, selection)
	if err != nil {
		return fmt.Errorf("publish digest: %w", err)
	}
	if !ok {
		return fmt.Errorf("digest delivery not acknowledged")
	}

	c.logger.Info("digest delivered", "articles", len(selection))

	for _, item := range selection {
		pushed.Add(domain.Identifier(item.Article))
	}
	if err := pushed.Persist(storePath); err != nil {
		return fmt.Errorf("persist pushed set: %w", err)
	}

	if c.archive != nil {
		for _, item := range selection {
			if err := c.archive.SaveDelivered(ctx, item); err != nil {
				c.logger.Warn("archive write failed", "title", item.Title, "error", err)
			}
		}
	}

	return nil
}
