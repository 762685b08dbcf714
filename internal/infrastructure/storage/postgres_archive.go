package storage

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"

	"chemradar/internal/domain"
	"chemradar/internal/ports"
)

// PostgresArchive keeps an audit trail of delivered articles. The pushed
// set remains the source of truth for suppression; the archive only serves
// history queries and is written best-effort after a confirmed delivery.
type PostgresArchive struct {
	db      *sql.DB
	builder sq.StatementBuilderType
}

var _ ports.DeliveryArchive = (*PostgresArchive)(nil)

// Open connects to Postgres and wraps it in an archive.
func Open(dsn string) (*PostgresArchive, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return NewPostgresArchive(db), nil
}

// NewPostgresArchive wires a sql.DB implementation.
func NewPostgresArchive(db *sql.DB) *PostgresArchive {
	return &PostgresArchive{
		db:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// Close releases the underlying connection pool.
func (r *PostgresArchive) Close() error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}

// SaveDelivered upserts one delivered-article row keyed on identifier.
func (r *PostgresArchive) SaveDelivered(ctx context.Context, article domain.EnrichedArticle) error {
	if r.db == nil {
		return nil
	}

	query, args, err := r.builder.
		Insert("delivered_articles").
		Columns("identifier", "journal", "title", "doi", "link", "category", "title_zh", "recommendation").
		Values(
			domain.Identifier(article.Article),
			article.Journal,
			article.Title,
			article.DOI,
			article.Link,
			article.Category,
			article.TitleZH,
			article.Recommendation,
		).
		Suffix(`ON CONFLICT (identifier) DO UPDATE
                SET category = EXCLUDED.category,
                    title_zh = EXCLUDED.title_zh,
                    recommendation = EXCLUDED.recommendation,
                    delivered_at = NOW()`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert delivered: %w", err)
	}

	return nil
}
