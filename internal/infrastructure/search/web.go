package search

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"

	"prospector/internal/config"
	"prospector/internal/domain"
	"prospector/internal/ports"
)

const webPageSize = 10

// WebSource queries a generic web-search JSON API (Custom Search style,
// key passed as a query parameter) with keyword queries, pagination, and
// an optional freshness restriction.
type WebSource struct {
	endpoint  string
	apiKey    string
	engineID  string
	freshness string
	fetcher   ports.Fetcher
	logger    *slog.Logger
}

var _ ports.Source = (*WebSource)(nil)

// NewWebSource wires the adapter; an empty API key leaves it unconfigured.
func NewWebSource(cfg config.WebSearch, fetcher ports.Fetcher, logger *slog.Logger) *WebSource {
	return &WebSource{
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		engineID: cfg.EngineID,
		fetcher:  fetcher,
		logger:   logger,
	}
}

// WithFreshness restricts results to a recency window accepted by the API
// (e.g. "y1" for the past year).
func (w *WebSource) WithFreshness(freshness string) *WebSource {
	w.freshness = freshness
	return w
}

func (w *WebSource) Name() string { return "web" }

// Configured reports whether credentials are present.
func (w *WebSource) Configured() bool {
	return w.apiKey != "" && w.endpoint != ""
}

type webResponse struct {
	Items []struct {
		Title   string `json:"title"`
		Link    string `json:"link"`
		Snippet string `json:"snippet"`
	} `json:"items"`
}

// Search pages through the API until limit results are collected or a page
// comes back short.
func (w *WebSource) Search(ctx context.Context, query string, limit int) ([]domain.SearchResult, error) {
	if !w.Configured() {
		w.warn("web search skipped: no API key configured")
		return nil, nil
	}

	var results []domain.SearchResult
	for start := 1; len(results) < limit; start += webPageSize {
		page, err := w.fetchPage(ctx, query, start)
		if err != nil {
			return nil, err
		}
		results = append(results, page...)
		if len(page) < webPageSize {
			break
		}
	}

	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func (w *WebSource) fetchPage(ctx context.Context, query string, start int) ([]domain.SearchResult, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("num", strconv.Itoa(webPageSize))
	params.Set("key", w.apiKey)
	if w.engineID != "" {
		params.Set("cx", w.engineID)
	}
	if start > 1 {
		params.Set("start", strconv.Itoa(start))
	}
	if w.freshness != "" {
		params.Set("dateRestrict", w.freshness)
	}

	body, err := w.fetcher.FetchPolicyExempt(ctx, w.endpoint+"?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("web search request: %w", err)
	}

	var decoded webResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("decode web search response: %w", err)
	}

	results := make([]domain.SearchResult, 0, len(decoded.Items))
	for _, item := range decoded.Items {
		if item.Link == "" {
			continue
		}
		results = append(results, domain.SearchResult{
			Title:    item.Title,
			URL:      item.Link,
			Snippet:  item.Snippet,
			SourceID: w.Name(),
		})
	}
	return results, nil
}

func (w *WebSource) warn(msg string, args ...any) {
	if w.logger != nil {
		w.logger.Warn(msg, args...)
	}
}
