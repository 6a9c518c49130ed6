package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"prospector/internal/domain"
	"prospector/internal/ports"
)

// PostgresRepository persists scored prospects into Postgres. The pipeline
// only needs the seen-before check and the upsert; everything else about
// storage is out of its hands.
type PostgresRepository struct {
	db      *sql.DB
	builder sq.StatementBuilderType
}

var _ ports.ProspectRepository = (*PostgresRepository)(nil)

// NewPostgresRepository wires a sql.DB implementation.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{
		db:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// SeenURLs returns a map with the normalized URLs that already exist in
// storage.
func (r *PostgresRepository) SeenURLs(ctx context.Context, urls []string) (map[string]bool, error) {
	if r.db == nil || len(urls) == 0 {
		return map[string]bool{}, nil
	}

	query, args, err := r.builder.
		Select("url").
		From("prospects").
		Where("url = ANY(?)", pq.StringArray(urls)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build seen query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query seen urls: %w", err)
	}

	result := make(map[string]bool)
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan url: %w", err)
		}
		result[u] = true
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("rows iteration: %w", rowsErr)
	}

	if closeErr := rows.Close(); closeErr != nil {
		return nil, fmt.Errorf("close rows: %w", closeErr)
	}

	return result, nil
}

// Upsert stores or refreshes the prospect snapshot keyed by its stable ID.
func (r *PostgresRepository) Upsert(ctx context.Context, prospect domain.Prospect) error {
	if r.db == nil {
		return nil
	}

	breakdown, err := json.Marshal(prospect.Breakdown)
	if err != nil {
		return fmt.Errorf("marshal breakdown: %w", err)
	}
	sentiments, err := json.Marshal(prospect.Sentiment)
	if err != nil {
		return fmt.Errorf("marshal sentiment: %w", err)
	}

	// The url column holds the normalized form: SeenURLs queries with
	// normalized URLs, so storing the raw URL would break the cross-run
	// seen-before check.
	query, args, err := r.builder.
		Insert("prospects").
		Columns("id", "url", "title", "publication", "author_name", "contact_method",
			"total_score", "priority", "breakdown", "sentiment", "discovered_from", "scored_at").
		Values(prospect.ID, prospect.NormalizedURL, prospect.Article.Title,
			prospect.Article.PublicationName, prospect.Author.Name,
			string(prospect.Author.BestContactMethod()), prospect.TotalScore,
			string(prospect.Priority), breakdown, sentiments,
			prospect.DiscoveredFrom, prospect.ScoredAt).
		Suffix(`ON CONFLICT (id) DO UPDATE
			SET total_score = EXCLUDED.total_score,
			    priority = EXCLUDED.priority,
			    breakdown = EXCLUDED.breakdown,
			    sentiment = EXCLUDED.sentiment,
			    scored_at = EXCLUDED.scored_at`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert prospect: %w", err)
	}

	return nil
}
