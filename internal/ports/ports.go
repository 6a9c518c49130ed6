package ports

import (
	"context"
	"time"

	"prospector/internal/domain"
)

// Fetcher is the single policy-enforcing read path for outbound HTTP.
// Fetch applies robots rules, per-domain rate limits, caching, and retries.
// FetchPolicyExempt skips the robots check (first-party search APIs) but
// still rate-limits and caches.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
	FetchPolicyExempt(ctx context.Context, url string) ([]byte, error)
}

// Source is one search backend returning normalized results. Unconfigured
// sources (missing credentials) report Configured()==false and are skipped
// with a warning rather than treated as failures.
type Source interface {
	Name() string
	Configured() bool
	Search(ctx context.Context, query string, limit int) ([]domain.SearchResult, error)
}

// PageCache stores fetched bodies by exact URL for a TTL. Writes are
// idempotent; last writer wins since all writers compute the same value.
type PageCache interface {
	Get(ctx context.Context, url string) ([]byte, bool)
	Set(ctx context.Context, url string, body []byte, ttl time.Duration)
}

// ProspectRepository persists scored prospects for deduplication/history.
type ProspectRepository interface {
	SeenURLs(ctx context.Context, urls []string) (map[string]bool, error)
	Upsert(ctx context.Context, prospect domain.Prospect) error
}

// Reporter receives the finished, sorted prospect list plus run metadata.
// Output format is entirely its concern.
type Reporter interface {
	Report(ctx context.Context, prospects []domain.Prospect, summary domain.RunSummary) error
}
