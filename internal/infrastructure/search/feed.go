package search

import (
	"context"
	"log/slog"
	"strings"

	"github.com/mmcdole/gofeed"

	"prospector/internal/config"
	"prospector/internal/domain"
	"prospector/internal/ports"
)

// FeedSource scans configured RSS/Atom feeds and keeps items whose title
// or description overlaps the query. Feeds are a low-volume but high-fit
// complement to the API-backed sources.
type FeedSource struct {
	urls    []string
	fetcher ports.Fetcher
	parser  *gofeed.Parser
	logger  *slog.Logger
}

var _ ports.Source = (*FeedSource)(nil)

// NewFeedSource wires the adapter with the configured feed URLs.
func NewFeedSource(cfg config.FeedSearch, fetcher ports.Fetcher, logger *slog.Logger) *FeedSource {
	return &FeedSource{
		urls:    cfg.URLs,
		fetcher: fetcher,
		parser:  gofeed.NewParser(),
		logger:  logger,
	}
}

func (f *FeedSource) Name() string { return "feeds" }

// Configured requires at least one feed URL.
func (f *FeedSource) Configured() bool {
	return len(f.urls) > 0
}

// Search fetches every feed through the policy fetcher and filters items
// against the query words. A feed that fails to fetch or parse is skipped,
// not fatal.
func (f *FeedSource) Search(ctx context.Context, query string, limit int) ([]domain.SearchResult, error) {
	if !f.Configured() {
		f.warn("feed search skipped: no feed URLs configured")
		return nil, nil
	}

	words := queryWords(query)
	var results []domain.SearchResult

	for _, feedURL := range f.urls {
		body, err := f.fetcher.Fetch(ctx, feedURL)
		if err != nil {
			f.warn("feed fetch failed", "feed", feedURL, "error", err)
			continue
		}

		feed, err := f.parser.ParseString(string(body))
		if err != nil {
			f.warn("feed parse failed", "feed", feedURL, "error", err)
			continue
		}

		for _, item := range feed.Items {
			if item.Link == "" || !matchesQuery(item, words) {
				continue
			}
			results = append(results, domain.SearchResult{
				Title:    item.Title,
				URL:      item.Link,
				Snippet:  strings.TrimSpace(item.Description),
				SourceID: f.Name(),
			})
			if len(results) == limit {
				return results, nil
			}
		}
	}

	return results, nil
}

func queryWords(query string) []string {
	var words []string
	for _, w := range strings.Fields(strings.ToLower(query)) {
		// Skip site: filters and short stop-wordish tokens.
		if strings.HasPrefix(w, "site:") || len(w) < 3 {
			continue
		}
		words = append(words, w)
	}
	return words
}

func matchesQuery(item *gofeed.Item, words []string) bool {
	if len(words) == 0 {
		return true
	}
	haystack := strings.ToLower(item.Title + " " + item.Description)
	for _, w := range words {
		if strings.Contains(haystack, w) {
			return true
		}
	}
	return false
}

func (f *FeedSource) warn(msg string, args ...any) {
	if f.logger != nil {
		f.logger.Warn(msg, args...)
	}
}
