package usecase

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"prospector/internal/config"
	"prospector/internal/domain"
	"prospector/internal/ports"
	"prospector/internal/source"
)

const defaultSourceTimeout = 30 * time.Second

// Aggregator fans a query out to the configured search sources, merges
// their results, and deduplicates by normalized URL. Any single source's
// failure contributes zero results; it never aborts the search.
type Aggregator struct {
	registry *source.Registry
	timeout  time.Duration
	logger   *slog.Logger
}

// NewAggregator wires the source registry.
func NewAggregator(registry *source.Registry, logger *slog.Logger) *Aggregator {
	return &Aggregator{registry: registry, timeout: defaultSourceTimeout, logger: logger}
}

// Search dispatches the query. When explicit sites are given, each is
// queried directly through a site-restricted source and the merged list is
// returned immediately; otherwise every configured source is queried
// concurrently, each capped at a fair share of the limit. Results keep
// first-seen order; ranking happens downstream.
func (a *Aggregator) Search(ctx context.Context, query string, limit int, engines, sites []string) ([]domain.SearchResult, error) {
	active := a.activeSources(engines)
	if len(active) == 0 {
		a.warn("no configured search sources", "query", query)
		return nil, nil
	}

	if len(sites) > 0 {
		return a.searchSites(ctx, active[0], query, limit, sites), nil
	}

	perSource := limit / len(active)
	if perSource < 1 {
		perSource = 1
	}

	// Indexed slots keep dispatch order deterministic while the sources
	// run concurrently.
	slots := make([][]domain.SearchResult, len(active))
	var wg sync.WaitGroup
	for i, src := range active {
		wg.Add(1)
		go func(i int, src ports.Source) {
			defer wg.Done()
			slots[i] = a.searchOne(ctx, src, query, perSource)
		}(i, src)
	}
	wg.Wait()

	var merged []domain.SearchResult
	for _, slot := range slots {
		merged = append(merged, slot...)
	}
	return truncate(Dedupe(merged), limit), nil
}

// SearchCategory fans a category's canned queries through Search and
// re-deduplicates across all of them.
func (a *Aggregator) SearchCategory(ctx context.Context, category config.Category, limit int) ([]domain.SearchResult, error) {
	var merged []domain.SearchResult
	for _, query := range category.Queries {
		results, err := a.Search(ctx, query, limit, nil, nil)
		if err != nil {
			return nil, err
		}
		merged = append(merged, results...)
	}
	return truncate(Dedupe(merged), limit), nil
}

// SearchAll runs every configured category and merges the lot.
func (a *Aggregator) SearchAll(ctx context.Context, categories []config.Category, limit int) ([]domain.SearchResult, error) {
	var merged []domain.SearchResult
	for _, category := range categories {
		results, err := a.SearchCategory(ctx, category, limit)
		if err != nil {
			return nil, err
		}
		merged = append(merged, results...)
	}
	return truncate(Dedupe(merged), limit), nil
}

func (a *Aggregator) searchSites(ctx context.Context, src ports.Source, query string, limit int, sites []string) []domain.SearchResult {
	perSite := limit / len(sites)
	if perSite < 1 {
		perSite = 1
	}

	var merged []domain.SearchResult
	for _, site := range sites {
		restricted := source.SiteRestricted(src, site)
		merged = append(merged, a.searchOne(ctx, restricted, query, perSite)...)
	}
	return truncate(Dedupe(merged), limit)
}

// searchOne runs a single source under its own timeout; errors and
// timeouts are logged and flattened to zero results.
func (a *Aggregator) searchOne(ctx context.Context, src ports.Source, query string, limit int) []domain.SearchResult {
	if !src.Configured() {
		a.warn("source not configured, skipping", "source", src.Name())
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	results, err := src.Search(ctx, query, limit)
	if err != nil {
		a.warn("source failed", "source", src.Name(), "query", query, "error", err)
		return nil
	}
	a.debug("source returned", "source", src.Name(), "count", len(results))
	return results
}

func (a *Aggregator) activeSources(engines []string) []ports.Source {
	if len(engines) == 0 {
		var active []ports.Source
		for _, src := range a.registry.All() {
			if src.Configured() {
				active = append(active, src)
			}
		}
		return active
	}

	var active []ports.Source
	for _, name := range engines {
		src, err := a.registry.Resolve(name)
		if err != nil {
			a.warn("unknown engine requested", "engine", name)
			continue
		}
		if src.Configured() {
			active = append(active, src)
		}
	}
	return active
}

// Dedupe drops later duplicates of a normalized URL, preserving first-seen
// order even when the duplicate came from a different source.
func Dedupe(results []domain.SearchResult) []domain.SearchResult {
	seen := map[string]struct{}{}
	deduped := make([]domain.SearchResult, 0, len(results))
	for _, result := range results {
		key := NormalizeURL(result.URL)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		deduped = append(deduped, result)
	}
	return deduped
}

// NormalizeURL lower-cases a URL and strips the scheme, an optional www
// prefix, and any trailing slash, so scheme/host-case variants collapse
// to one identity.
func NormalizeURL(raw string) string {
	u := strings.ToLower(strings.TrimSpace(raw))
	u = strings.TrimPrefix(u, "http://")
	u = strings.TrimPrefix(u, "https://")
	u = strings.TrimPrefix(u, "www.")
	return strings.TrimSuffix(u, "/")
}

func truncate(results []domain.SearchResult, limit int) []domain.SearchResult {
	if limit > 0 && len(results) > limit {
		return results[:limit]
	}
	return results
}

func (a *Aggregator) warn(msg string, args ...any) {
	if a.logger != nil {
		a.logger.Warn(msg, args...)
	}
}

func (a *Aggregator) debug(msg string, args ...any) {
	if a.logger != nil {
		a.logger.Debug(msg, args...)
	}
}
