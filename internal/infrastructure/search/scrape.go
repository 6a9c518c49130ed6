package search

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"prospector/internal/config"
	"prospector/internal/domain"
	"prospector/internal/ports"
)

// ScrapedSource parses result cards out of an HTML search-results page.
// Result markup drifts, so several selector strategies are tried in order
// before giving up.
type ScrapedSource struct {
	baseURL string
	fetcher ports.Fetcher
	logger  *slog.Logger
}

var _ ports.Source = (*ScrapedSource)(nil)

// selectorStrategy names one known results-page layout.
type selectorStrategy struct {
	name    string
	card    string
	link    string
	title   string
	snippet string
}

var strategies = []selectorStrategy{
	{name: "result-card", card: ".result", link: "a.result__a", title: "a.result__a", snippet: ".result__snippet"},
	{name: "web-result", card: ".web-result", link: "h2 a", title: "h2 a", snippet: ".result__snippet"},
	{name: "generic-heading", card: "div:has(h2 a)", link: "h2 a", title: "h2 a", snippet: "p"},
}

// NewScrapedSource wires the adapter against a results-page base URL.
func NewScrapedSource(cfg config.ScrapedSearch, fetcher ports.Fetcher, logger *slog.Logger) *ScrapedSource {
	return &ScrapedSource{baseURL: cfg.BaseURL, fetcher: fetcher, logger: logger}
}

func (s *ScrapedSource) Name() string { return "scraped" }

// Configured requires a base URL.
func (s *ScrapedSource) Configured() bool {
	return s.baseURL != ""
}

// Search fetches the results page through the policy fetcher and extracts
// cards with the first selector strategy that yields anything.
func (s *ScrapedSource) Search(ctx context.Context, query string, limit int) ([]domain.SearchResult, error) {
	if !s.Configured() {
		s.warn("scraped search skipped: no base URL configured")
		return nil, nil
	}

	params := url.Values{}
	params.Set("q", query)

	body, err := s.fetcher.Fetch(ctx, s.baseURL+"?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("scraped search request: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse results page: %w", err)
	}

	for _, strategy := range strategies {
		results := s.extract(doc, strategy, limit)
		if len(results) > 0 {
			s.debug("selector strategy matched", "strategy", strategy.name, "results", len(results))
			return results, nil
		}
	}

	return nil, fmt.Errorf("no selector strategy matched results page for %q", query)
}

func (s *ScrapedSource) extract(doc *goquery.Document, strategy selectorStrategy, limit int) []domain.SearchResult {
	var results []domain.SearchResult

	doc.Find(strategy.card).EachWithBreak(func(_ int, card *goquery.Selection) bool {
		href, ok := card.Find(strategy.link).First().Attr("href")
		if !ok {
			return true
		}
		href = cleanRedirect(href)
		if !strings.HasPrefix(href, "http") {
			return true
		}

		results = append(results, domain.SearchResult{
			Title:    strings.TrimSpace(card.Find(strategy.title).First().Text()),
			URL:      href,
			Snippet:  strings.TrimSpace(card.Find(strategy.snippet).First().Text()),
			SourceID: s.Name(),
		})
		return len(results) < limit
	})

	return results
}

// cleanRedirect unwraps tracker-style result links of the form
// /l/?uddg=<encoded target>.
func cleanRedirect(href string) string {
	parsed, err := url.Parse(href)
	if err != nil {
		return href
	}
	if target := parsed.Query().Get("uddg"); target != "" {
		return target
	}
	return href
}

func (s *ScrapedSource) warn(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}

func (s *ScrapedSource) debug(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
