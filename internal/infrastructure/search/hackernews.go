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

// DiscussionSource queries an Algolia-style discussion search API
// (Hacker News). It supports relevance-ranked and date-ranked retrieval
// plus a minimum-popularity filter on story points.
type DiscussionSource struct {
	endpoint  string
	minPoints int
	byDate    bool
	fetcher   ports.Fetcher
	logger    *slog.Logger
}

var _ ports.Source = (*DiscussionSource)(nil)

// NewDiscussionSource wires the adapter.
func NewDiscussionSource(cfg config.Discussion, fetcher ports.Fetcher, logger *slog.Logger) *DiscussionSource {
	return &DiscussionSource{
		endpoint:  cfg.Endpoint,
		minPoints: cfg.MinPoints,
		byDate:    cfg.ByDate,
		fetcher:   fetcher,
		logger:    logger,
	}
}

func (d *DiscussionSource) Name() string { return "discussion" }

// Configured requires only an endpoint; the API is keyless.
func (d *DiscussionSource) Configured() bool {
	return d.endpoint != ""
}

type discussionResponse struct {
	Hits []struct {
		Title     string `json:"title"`
		URL       string `json:"url"`
		StoryText string `json:"story_text"`
		Points    int    `json:"points"`
	} `json:"hits"`
}

// Search queries the relevance endpoint, or the chronological one when
// configured, applying the popularity floor server-side.
func (d *DiscussionSource) Search(ctx context.Context, query string, limit int) ([]domain.SearchResult, error) {
	if !d.Configured() {
		d.warn("discussion search skipped: no endpoint configured")
		return nil, nil
	}

	path := "/search"
	if d.byDate {
		path = "/search_by_date"
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("tags", "story")
	params.Set("hitsPerPage", strconv.Itoa(limit))
	if d.minPoints > 0 {
		params.Set("numericFilters", fmt.Sprintf("points>=%d", d.minPoints))
	}

	body, err := d.fetcher.FetchPolicyExempt(ctx, d.endpoint+path+"?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("discussion search request: %w", err)
	}

	var decoded discussionResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("decode discussion response: %w", err)
	}

	results := make([]domain.SearchResult, 0, len(decoded.Hits))
	for _, hit := range decoded.Hits {
		// Self-posts carry no external URL and cannot become prospects.
		if hit.URL == "" {
			continue
		}
		results = append(results, domain.SearchResult{
			Title:    hit.Title,
			URL:      hit.URL,
			Snippet:  hit.StoryText,
			SourceID: d.Name(),
		})
		if len(results) == limit {
			break
		}
	}
	return results, nil
}

func (d *DiscussionSource) warn(msg string, args ...any) {
	if d.logger != nil {
		d.logger.Warn(msg, args...)
	}
}
