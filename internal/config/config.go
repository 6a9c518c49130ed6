package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	configPathEnv    = "PROSPECTOR_CONFIG"
	databaseDSNEnv   = "DATABASE_DSN"
	webSearchKeyEnv  = "WEB_SEARCH_API_KEY"
	redisAddrEnv     = "REDIS_ADDR"
	userAgentEnv     = "PROSPECTOR_USER_AGENT"
	defaultUserAgent = "ProspectorBot/1.0 (+mailto:outreach@example.com)"
)

// Config holds high-level settings required across the application.
type Config struct {
	Database Database `yaml:"database"`
	Cache    Cache    `yaml:"cache"`
	Crawler  Crawler  `yaml:"crawler"`
	Sources  Sources  `yaml:"sources"`
	Product  Product  `yaml:"product"`
	Logging  Logging  `yaml:"logging"`
}

// Database describes Postgres connection details.
type Database struct {
	DSN string `yaml:"dsn"`
}

// Cache selects the page-cache backend. An empty RedisAddr means the
// in-process cache is used.
type Cache struct {
	RedisAddr string `yaml:"redisAddr"`
	TTLHours  int    `yaml:"ttlHours"`
}

// Crawler bundles the outbound-request policy knobs shared by every
// source through the policy fetcher.
type Crawler struct {
	UserAgent    string `yaml:"userAgent"`
	MinDelayMs   int    `yaml:"minDelayMs"`
	HourlyLimit  int    `yaml:"hourlyLimit"`
	TimeoutSec   int    `yaml:"timeoutSec"`
	Retry        Retry  `yaml:"retry"`
	IgnoreRobots bool   `yaml:"ignoreRobots"`
}

// Retry defines transient-failure backoff behavior.
type Retry struct {
	MaxAttempts       int     `yaml:"maxAttempts"`
	InitialDelayMs    int     `yaml:"initialDelayMs"`
	MaxDelayMs        int     `yaml:"maxDelayMs"`
	BackoffMultiplier float64 `yaml:"backoffMultiplier"`
}

// Delay calculates the exponential backoff delay before the given attempt,
// capped at MaxDelayMs.
func (r Retry) Delay(attempt int) time.Duration {
	if attempt <= 1 {
		return 0
	}
	delayMs := float64(r.InitialDelayMs)
	for i := 1; i < attempt-1; i++ {
		delayMs *= r.BackoffMultiplier
	}
	if int(delayMs) > r.MaxDelayMs {
		delayMs = float64(r.MaxDelayMs)
	}
	return time.Duration(int(delayMs)) * time.Millisecond
}

// Timeout returns the per-request deadline.
func (c Crawler) Timeout() time.Duration {
	if c.TimeoutSec <= 0 {
		return 20 * time.Second
	}
	return time.Duration(c.TimeoutSec) * time.Second
}

// MinDelay returns the configured floor between requests to one domain.
func (c Crawler) MinDelay() time.Duration {
	return time.Duration(c.MinDelayMs) * time.Millisecond
}

// Sources groups per-adapter enablement and credentials. Adapters whose
// credentials are absent report themselves unconfigured and contribute
// zero results.
type Sources struct {
	Web        WebSearch     `yaml:"web"`
	Tags       TagSearch     `yaml:"tags"`
	Discussion Discussion    `yaml:"discussion"`
	Scraped    ScrapedSearch `yaml:"scraped"`
	Feeds      FeedSearch    `yaml:"feeds"`
}

// WebSearch configures the Custom Search-style web API adapter.
type WebSearch struct {
	Endpoint string `yaml:"endpoint"`
	APIKey   string `yaml:"apiKey"`
	EngineID string `yaml:"engineId"`
	Enabled  bool   `yaml:"enabled"`
}

// TagSearch configures the tag-indexed article API adapter.
type TagSearch struct {
	Endpoint string   `yaml:"endpoint"`
	Tags     []string `yaml:"tags"`
	Enabled  bool     `yaml:"enabled"`
}

// Discussion configures the chronological/point-scored discussion search.
type Discussion struct {
	Endpoint  string `yaml:"endpoint"`
	MinPoints int    `yaml:"minPoints"`
	ByDate    bool   `yaml:"byDate"`
	Enabled   bool   `yaml:"enabled"`
}

// ScrapedSearch configures the HTML results-page adapter.
type ScrapedSearch struct {
	BaseURL string `yaml:"baseUrl"`
	Enabled bool   `yaml:"enabled"`
}

// FeedSearch configures the RSS/Atom feed adapter.
type FeedSearch struct {
	URLs    []string `yaml:"urls"`
	Enabled bool     `yaml:"enabled"`
}

// Product defines what the pipeline is prospecting for: the product's own
// names, the keyword tiers driving topical relevance, and the competitor
// set with positioning angles keyed by negative aspect.
type Product struct {
	Name        string       `yaml:"name"`
	Aliases     []string     `yaml:"aliases"`
	Keywords    KeywordTiers `yaml:"keywords"`
	Topics      []string     `yaml:"topics"`
	Competitors []Competitor `yaml:"competitors"`
	Categories  []Category   `yaml:"categories"`
}

// KeywordTiers splits relevance keywords by match strength.
type KeywordTiers struct {
	Perfect  []string `yaml:"perfect"`
	Strong   []string `yaml:"strong"`
	Moderate []string `yaml:"moderate"`
}

// Competitor names a rival plus the positioning angles surfaced when a
// given negative aspect shows up in coverage of it.
type Competitor struct {
	Name         string            `yaml:"name"`
	Angles       map[string]string `yaml:"angles"`
	DefaultAngle string            `yaml:"defaultAngle"`
}

// Category bundles canned queries for one discovery theme.
type Category struct {
	Name    string   `yaml:"name"`
	Queries []string `yaml:"queries"`
}

// Logging carries the log level string.
type Logging struct {
	Level string `yaml:"level"`
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()

	if cfg.Product.Name == "" {
		cfg.Product = defaultConfig().Product
	}

	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Database.DSN = v
	}
	if v := os.Getenv(webSearchKeyEnv); v != "" {
		c.Sources.Web.APIKey = v
	}
	if v := os.Getenv(redisAddrEnv); v != "" {
		c.Cache.RedisAddr = v
	}
	if v := os.Getenv(userAgentEnv); v != "" {
		c.Crawler.UserAgent = v
	}
}

func mergeConfig(base, override Config) Config {
	if override.Database.DSN != "" {
		base.Database = override.Database
	}

	if override.Cache.RedisAddr != "" {
		base.Cache.RedisAddr = override.Cache.RedisAddr
	}
	if override.Cache.TTLHours > 0 {
		base.Cache.TTLHours = override.Cache.TTLHours
	}

	if override.Crawler.UserAgent != "" {
		base.Crawler.UserAgent = override.Crawler.UserAgent
	}
	if override.Crawler.MinDelayMs > 0 {
		base.Crawler.MinDelayMs = override.Crawler.MinDelayMs
	}
	if override.Crawler.HourlyLimit > 0 {
		base.Crawler.HourlyLimit = override.Crawler.HourlyLimit
	}
	if override.Crawler.TimeoutSec > 0 {
		base.Crawler.TimeoutSec = override.Crawler.TimeoutSec
	}
	if override.Crawler.Retry.MaxAttempts > 0 {
		base.Crawler.Retry = override.Crawler.Retry
	}
	if override.Crawler.IgnoreRobots {
		base.Crawler.IgnoreRobots = true
	}

	if override.Sources.Web.Endpoint != "" || override.Sources.Web.APIKey != "" ||
		override.Sources.Web.EngineID != "" {
		base.Sources.Web = override.Sources.Web
	}
	if override.Sources.Tags.Endpoint != "" || len(override.Sources.Tags.Tags) > 0 {
		base.Sources.Tags = override.Sources.Tags
	}
	if override.Sources.Discussion.Endpoint != "" {
		base.Sources.Discussion = override.Sources.Discussion
	}
	if override.Sources.Scraped.BaseURL != "" {
		base.Sources.Scraped = override.Sources.Scraped
	}
	if len(override.Sources.Feeds.URLs) > 0 {
		base.Sources.Feeds = override.Sources.Feeds
	}

	if override.Product.Name != "" {
		base.Product = override.Product
	}

	if override.Logging.Level != "" {
		base.Logging = override.Logging
	}

	return base
}

func defaultConfig() Config {
	return Config{
		Database: Database{DSN: ""},
		Cache:    Cache{TTLHours: 24},
		Crawler: Crawler{
			UserAgent:   defaultUserAgent,
			MinDelayMs:  2000,
			HourlyLimit: 100,
			TimeoutSec:  20,
			Retry: Retry{
				MaxAttempts:       3,
				InitialDelayMs:    500,
				MaxDelayMs:        30000,
				BackoffMultiplier: 2.0,
			},
		},
		Sources: Sources{
			Web: WebSearch{
				Endpoint: "https://www.googleapis.com/customsearch/v1",
				Enabled:  true,
			},
			Tags: TagSearch{
				Endpoint: "https://dev.to/api/articles",
				Tags:     []string{"hiring", "recruiting", "hr"},
				Enabled:  true,
			},
			Discussion: Discussion{
				Endpoint:  "https://hn.algolia.com/api/v1",
				MinPoints: 10,
				Enabled:   true,
			},
			Scraped: ScrapedSearch{
				BaseURL: "https://html.duckduckgo.com/html/",
				Enabled: true,
			},
			Feeds: FeedSearch{Enabled: false},
		},
		Product: defaultProduct(),
		Logging: Logging{Level: "info"},
	}
}

func defaultProduct() Product {
	return Product{
		Name:    "Screenloop",
		Aliases: []string{"screenloop"},
		Keywords: KeywordTiers{
			Perfect: []string{
				"async video interview",
				"asynchronous video interview",
				"one-way video interview",
				"video interviewing software",
			},
			Strong: []string{
				"async video",
				"video interview",
				"video screening",
				"candidate screening software",
				"hirevue alternative",
			},
			Moderate: []string{
				"recruiting software",
				"hiring tools",
				"interview process",
				"talent acquisition",
			},
		},
		Topics: []string{
			"remote hiring", "candidate experience", "interview automation",
			"recruiting", "talent screening",
		},
		Competitors: []Competitor{
			{
				Name: "HireVue",
				Angles: map[string]string{
					"cost":       "transparent per-seat pricing with no enterprise minimums",
					"experience": "candidate-first recording flow with unlimited retakes",
					"usability":  "setup in minutes without an implementation team",
					"support":    "same-day human support on every plan",
				},
				DefaultAngle: "a lighter-weight alternative built for small hiring teams",
			},
			{
				Name: "Spark Hire",
				Angles: map[string]string{
					"cost":          "lower entry price for teams under ten seats",
					"effectiveness": "structured scorecards that reduce interviewer bias",
				},
				DefaultAngle: "a modern take on one-way video screening",
			},
			{
				Name:         "VidCruiter",
				Angles:       map[string]string{"usability": "a single streamlined product instead of a module maze"},
				DefaultAngle: "interview software without the enterprise sales cycle",
			},
			{
				Name:         "Willo",
				DefaultAngle: "deeper ATS integrations and structured question banks",
			},
		},
		Categories: []Category{
			{
				Name: "alternatives",
				Queries: []string{
					"best video interview software",
					"hirevue alternatives",
					"one-way video interview tools comparison",
				},
			},
			{
				Name: "guides",
				Queries: []string{
					"how to run async video interviews",
					"remote hiring process guide",
					"candidate screening best practices",
				},
			},
			{
				Name: "industry",
				Queries: []string{
					"recruiting automation trends",
					"improve candidate experience interviews",
				},
			},
		},
	}
}
