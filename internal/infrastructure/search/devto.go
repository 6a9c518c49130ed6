package search

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"prospector/internal/config"
	"prospector/internal/domain"
	"prospector/internal/ports"
)

// TagSource queries a tag-indexed article API (dev.to style). Matching is
// exact on tags; the query string selects which configured tags to use and
// is not sent as free text.
type TagSource struct {
	endpoint string
	tags     []string
	fetcher  ports.Fetcher
	logger   *slog.Logger
}

var _ ports.Source = (*TagSource)(nil)

// NewTagSource wires the adapter against the configured tag list.
func NewTagSource(cfg config.TagSearch, fetcher ports.Fetcher, logger *slog.Logger) *TagSource {
	return &TagSource{
		endpoint: cfg.Endpoint,
		tags:     cfg.Tags,
		fetcher:  fetcher,
		logger:   logger,
	}
}

func (t *TagSource) Name() string { return "tags" }

// Configured requires an endpoint and at least one tag.
func (t *TagSource) Configured() bool {
	return t.endpoint != "" && len(t.tags) > 0
}

type tagArticle struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description"`
	TagList     any    `json:"tag_list"`
}

// Search fetches each configured tag, preferring tags that appear as words
// in the query, and splits the limit evenly across them.
func (t *TagSource) Search(ctx context.Context, query string, limit int) ([]domain.SearchResult, error) {
	if !t.Configured() {
		t.warn("tag search skipped: no endpoint or tags configured")
		return nil, nil
	}

	tags := t.matchingTags(query)
	perTag := limit / len(tags)
	if perTag < 1 {
		perTag = 1
	}

	var results []domain.SearchResult
	for _, tag := range tags {
		params := url.Values{}
		params.Set("tag", tag)
		params.Set("per_page", strconv.Itoa(perTag))

		body, err := t.fetcher.FetchPolicyExempt(ctx, t.endpoint+"?"+params.Encode())
		if err != nil {
			return nil, fmt.Errorf("tag %s: %w", tag, err)
		}

		var articles []tagArticle
		if err := json.Unmarshal(body, &articles); err != nil {
			return nil, fmt.Errorf("decode tag %s response: %w", tag, err)
		}

		for _, a := range articles {
			if a.URL == "" {
				continue
			}
			results = append(results, domain.SearchResult{
				Title:    a.Title,
				URL:      a.URL,
				Snippet:  a.Description,
				SourceID: t.Name(),
			})
		}
	}

	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// matchingTags returns configured tags found as substrings of the query,
// or the full tag list when none match.
func (t *TagSource) matchingTags(query string) []string {
	lower := strings.ToLower(query)
	var matched []string
	for _, tag := range t.tags {
		if strings.Contains(lower, strings.ToLower(tag)) {
			matched = append(matched, tag)
		}
	}
	if len(matched) == 0 {
		return t.tags
	}
	return matched
}

func (t *TagSource) warn(msg string, args ...any) {
	if t.logger != nil {
		t.logger.Warn(msg, args...)
	}
}
