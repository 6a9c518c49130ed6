package usecase

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"prospector/internal/config"
	"prospector/internal/domain"
	"prospector/internal/extract"
	"prospector/internal/ports"
	"prospector/internal/score"
	"prospector/internal/sentiment"
)

// PipelineDeps wires all collaborators into the discovery pipeline.
type PipelineDeps struct {
	Aggregator *Aggregator
	Fetcher    ports.Fetcher
	Extractor  *extract.Extractor
	Scorer     *score.Engine
	Classifier *sentiment.Classifier
	Repository ports.ProspectRepository
	Reporter   ports.Reporter
	Product    config.Product
	Logger     *slog.Logger
}

// Pipeline implements the prospect discovery and scoring workflow:
// query, aggregate, fetch, extract, score, persist, report. Per-URL
// failures degrade to fewer results; they never stop the run.
type Pipeline struct {
	aggregator *Aggregator
	fetcher    ports.Fetcher
	extractor  *extract.Extractor
	scorer     *score.Engine
	classifier *sentiment.Classifier
	repository ports.ProspectRepository
	reporter   ports.Reporter
	product    config.Product
	logger     *slog.Logger
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	return &Pipeline{
		aggregator: deps.Aggregator,
		fetcher:    deps.Fetcher,
		extractor:  deps.Extractor,
		scorer:     deps.Scorer,
		classifier: deps.Classifier,
		repository: deps.Repository,
		reporter:   deps.Reporter,
		product:    deps.Product,
		logger:     deps.Logger,
	}
}

// Run executes one discovery pass for a single query.
func (p *Pipeline) Run(ctx context.Context, query string, limit int) ([]domain.Prospect, error) {
	results, err := p.aggregator.Search(ctx, query, limit, nil, nil)
	if err != nil {
		return nil, err
	}
	return p.process(ctx, results)
}

// RunAll executes a comprehensive pass across every configured category.
func (p *Pipeline) RunAll(ctx context.Context, limit int) ([]domain.Prospect, error) {
	results, err := p.aggregator.SearchAll(ctx, p.product.Categories, limit)
	if err != nil {
		return nil, err
	}
	return p.process(ctx, results)
}

func (p *Pipeline) process(ctx context.Context, results []domain.SearchResult) ([]domain.Prospect, error) {
	started := time.Now()

	seen, err := p.seenURLs(ctx, results)
	if err != nil {
		return nil, err
	}

	var prospects []domain.Prospect
	for _, result := range results {
		normalized := NormalizeURL(result.URL)
		if seen[normalized] {
			p.debug("already processed", "url", result.URL)
			continue
		}

		prospect, ok := p.scoreOne(ctx, result, normalized)
		if !ok {
			continue
		}
		prospects = append(prospects, prospect)

		if p.repository != nil {
			if err := p.repository.Upsert(ctx, prospect); err != nil {
				p.warn("persist failed", "url", result.URL, "error", err)
			}
		}
	}

	sort.SliceStable(prospects, func(i, j int) bool {
		return prospects[i].TotalScore > prospects[j].TotalScore
	})

	summary := summarize(len(results), prospects, started)
	if p.reporter != nil {
		if err := p.reporter.Report(ctx, prospects, summary); err != nil {
			p.warn("report failed", "error", err)
		}
	}

	return prospects, nil
}

// scoreOne fetches, extracts, and scores a single discovered URL. Any
// failure is logged and the URL is dropped from the run.
func (p *Pipeline) scoreOne(ctx context.Context, result domain.SearchResult, normalized string) (domain.Prospect, bool) {
	body, err := p.fetcher.Fetch(ctx, result.URL)
	if err != nil {
		p.warn("fetch failed", "url", result.URL, "error", err)
		return domain.Prospect{}, false
	}

	article, author, err := p.extractor.Extract(result.URL, body)
	if err != nil {
		p.warn("extraction failed", "url", result.URL, "error", err)
		return domain.Prospect{}, false
	}

	breakdown := p.scorer.Score(article, author)
	total := breakdown.Total()

	return domain.Prospect{
		ID:             domain.ProspectID(normalized, p.product.Name),
		NormalizedURL:  normalized,
		Article:        article,
		Author:         author,
		Breakdown:      breakdown,
		TotalScore:     total,
		Priority:       domain.PriorityFor(total),
		Sentiment:      p.classifier.Analyze(article),
		DiscoveredFrom: result.SourceID,
		ScoredAt:       time.Now(),
	}, true
}

func (p *Pipeline) seenURLs(ctx context.Context, results []domain.SearchResult) (map[string]bool, error) {
	if p.repository == nil || len(results) == 0 {
		return map[string]bool{}, nil
	}
	urls := make([]string, len(results))
	for i, result := range results {
		urls[i] = NormalizeURL(result.URL)
	}
	return p.repository.SeenURLs(ctx, urls)
}

func summarize(found int, prospects []domain.Prospect, started time.Time) domain.RunSummary {
	totalScore := 0
	highPriority := 0
	for _, prospect := range prospects {
		totalScore += prospect.TotalScore
		if prospect.Priority == domain.PriorityExcellent || prospect.Priority == domain.PriorityStrong {
			highPriority++
		}
	}

	average := 0.0
	if len(prospects) > 0 {
		average = float64(totalScore) / float64(len(prospects))
	}

	return domain.RunSummary{
		SearchDate:        started,
		TotalFound:        found,
		TotalScored:       len(prospects),
		AverageScore:      average,
		HighPriorityCount: highPriority,
		ElapsedMs:         time.Since(started).Milliseconds(),
	}
}

func (p *Pipeline) warn(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Warn(msg, args...)
	}
}

func (p *Pipeline) debug(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Debug(msg, args...)
	}
}
