package app

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	_ "github.com/lib/pq"

	"prospector/internal/config"
	"prospector/internal/extract"
	"prospector/internal/fetch"
	"prospector/internal/infrastructure/cache"
	"prospector/internal/infrastructure/report"
	"prospector/internal/infrastructure/search"
	"prospector/internal/infrastructure/storage"
	"prospector/internal/logging"
	"prospector/internal/ports"
	"prospector/internal/score"
	"prospector/internal/sentiment"
	"prospector/internal/source"
	"prospector/internal/usecase"
)

// Application wires config to the pipeline and lifecycle orchestration.
type Application struct {
	cfg      config.Config
	pipeline *usecase.Pipeline
	logger   *slog.Logger
}

// New builds a runnable application instance.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	var pageCache ports.PageCache
	if cfg.Cache.RedisAddr != "" {
		pageCache = cache.NewRedis(cfg.Cache.RedisAddr, baseLogger.With("component", "cache.redis"))
	} else {
		pageCache = cache.NewMemory()
	}

	fetcher := fetch.New(pageCache, fetch.Options{
		UserAgent:    cfg.Crawler.UserAgent,
		MinDelay:     cfg.Crawler.MinDelay(),
		HourlyLimit:  cfg.Crawler.HourlyLimit,
		Timeout:      cfg.Crawler.Timeout(),
		CacheTTL:     cacheTTL(cfg),
		Retry:        cfg.Crawler.Retry,
		IgnoreRobots: cfg.Crawler.IgnoreRobots,
	}, baseLogger.With("component", "fetcher"))

	registry := source.NewRegistry()
	if cfg.Sources.Web.Enabled {
		registry.Register(search.NewWebSource(cfg.Sources.Web, fetcher, baseLogger.With("component", "source.web")))
	}
	if cfg.Sources.Tags.Enabled {
		registry.Register(search.NewTagSource(cfg.Sources.Tags, fetcher, baseLogger.With("component", "source.tags")))
	}
	if cfg.Sources.Discussion.Enabled {
		registry.Register(search.NewDiscussionSource(cfg.Sources.Discussion, fetcher, baseLogger.With("component", "source.discussion")))
	}
	if cfg.Sources.Scraped.Enabled {
		registry.Register(search.NewScrapedSource(cfg.Sources.Scraped, fetcher, baseLogger.With("component", "source.scraped")))
	}
	if cfg.Sources.Feeds.Enabled {
		registry.Register(search.NewFeedSource(cfg.Sources.Feeds, fetcher, baseLogger.With("component", "source.feeds")))
	}

	var repository ports.ProspectRepository
	if cfg.Database.DSN != "" {
		db, err := sql.Open("postgres", cfg.Database.DSN)
		if err != nil {
			return nil, err
		}
		repository = storage.NewPostgresRepository(db)
	}

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Aggregator: usecase.NewAggregator(registry, baseLogger.With("component", "aggregator")),
		Fetcher:    fetcher,
		Extractor:  extract.New(cfg.Product),
		Scorer:     score.NewEngine(cfg.Product),
		Classifier: sentiment.New(cfg.Product.Competitors),
		Repository: repository,
		Reporter:   report.NewLogReporter(baseLogger.With("component", "report")),
		Product:    cfg.Product,
		Logger:     baseLogger.With("component", "pipeline"),
	})

	return &Application{cfg: cfg, pipeline: pipeline, logger: baseLogger}, nil
}

// Run performs one comprehensive discovery pass across all categories.
func (a *Application) Run(ctx context.Context, limit int) error {
	if a.pipeline == nil {
		return nil
	}

	prospects, err := a.pipeline.RunAll(ctx, limit)
	if err != nil {
		return err
	}
	a.logger.Info("discovery pass complete", "prospects", len(prospects))
	return nil
}

func cacheTTL(cfg config.Config) time.Duration {
	return time.Duration(cfg.Cache.TTLHours) * time.Hour
}
