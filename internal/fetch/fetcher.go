package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/temoto/robotstxt"
	"golang.org/x/net/publicsuffix"

	"prospector/internal/config"
	"prospector/internal/ports"
)

const maxBodyBytes = 4 << 20

// Fetcher is the single chokepoint for outbound HTTP reads. It enforces
// per-domain rate limits, robots.txt compliance, response caching, and
// retry with backoff. No other component performs network reads directly.
type Fetcher struct {
	client       *http.Client
	cache        ports.PageCache
	logger       *slog.Logger
	userAgent    string
	minDelay     time.Duration
	hourlyLimit  int
	cacheTTL     time.Duration
	retry        config.Retry
	ignoreRobots bool

	mu      sync.Mutex
	domains map[string]*domainState
}

var _ ports.Fetcher = (*Fetcher)(nil)

// domainState is the only shared mutable resource: per-domain counters and
// timestamps, each guarded by its own mutex so unrelated domains never
// serialize on each other.
type domainState struct {
	mu          sync.Mutex
	lastRequest time.Time
	windowStart time.Time
	windowCount int
	totalCount  int
	crawlDelay  time.Duration

	robotsOnce sync.Once
	robots     *robotstxt.Group
}

// Options configures a Fetcher. Timeout bounds each request when no
// custom Client is supplied.
type Options struct {
	UserAgent    string
	MinDelay     time.Duration
	HourlyLimit  int
	Timeout      time.Duration
	CacheTTL     time.Duration
	Retry        config.Retry
	IgnoreRobots bool
	Client       *http.Client
}

// New builds a policy fetcher around the given page cache.
func New(cache ports.PageCache, opts Options, logger *slog.Logger) *Fetcher {
	client := opts.Client
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 20 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	if opts.Retry.MaxAttempts <= 0 {
		opts.Retry = config.Retry{MaxAttempts: 3, InitialDelayMs: 500, MaxDelayMs: 30000, BackoffMultiplier: 2.0}
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 24 * time.Hour
	}
	if opts.HourlyLimit <= 0 {
		opts.HourlyLimit = 100
	}
	return &Fetcher{
		client:       client,
		cache:        cache,
		logger:       logger,
		userAgent:    opts.UserAgent,
		minDelay:     opts.MinDelay,
		hourlyLimit:  opts.HourlyLimit,
		cacheTTL:     opts.CacheTTL,
		retry:        opts.Retry,
		ignoreRobots: opts.IgnoreRobots,
	}
}

// Fetch returns the body at url, honoring robots.txt for the configured
// user agent. Cache hits bypass both the network and the rate limiter.
func (f *Fetcher) Fetch(ctx context.Context, rawurl string) ([]byte, error) {
	return f.fetch(ctx, rawurl, true)
}

// FetchPolicyExempt skips the robots check, for first-party API endpoints
// that explicitly invite programmatic access. Rate limiting and caching
// still apply.
func (f *Fetcher) FetchPolicyExempt(ctx context.Context, rawurl string) ([]byte, error) {
	return f.fetch(ctx, rawurl, false)
}

func (f *Fetcher) fetch(ctx context.Context, rawurl string, checkRobots bool) ([]byte, error) {
	if f.cache != nil {
		if body, ok := f.cache.Get(ctx, rawurl); ok {
			f.debug("cache hit", "url", rawurl)
			return body, nil
		}
	}

	parsed, err := url.Parse(rawurl)
	if err != nil || parsed.Host == "" {
		return nil, fmt.Errorf("invalid url %q: %w", rawurl, err)
	}
	state := f.state(registrableDomain(parsed.Hostname()))

	if checkRobots && !f.ignoreRobots {
		if err := f.checkRobots(ctx, state, parsed); err != nil {
			return nil, err
		}
	}

	body, err := f.doWithRetry(ctx, state, rawurl)
	if err != nil {
		return nil, err
	}

	if f.cache != nil {
		f.cache.Set(ctx, rawurl, body, f.cacheTTL)
	}
	return body, nil
}

// doWithRetry executes the request with the transient-retry budget. Each
// live attempt re-passes the rate limiter so retries also keep the
// per-domain spacing.
func (f *Fetcher) doWithRetry(ctx context.Context, state *domainState, rawurl string) ([]byte, error) {
	var lastErr error

	for attempt := 1; attempt <= f.retry.MaxAttempts; attempt++ {
		if err := f.awaitSlot(ctx, state, rawurl); err != nil {
			return nil, err
		}

		body, status, err := f.doOnce(ctx, rawurl)
		if err != nil {
			if !isTransientNetErr(err) {
				return nil, err
			}
			lastErr = err
			f.debug("transient network error", "url", rawurl, "attempt", attempt, "error", err)
			if attempt < f.retry.MaxAttempts {
				if err := f.sleep(ctx, jitter(f.retry.Delay(attempt+1))); err != nil {
					return nil, err
				}
			}
			continue
		}

		switch {
		case status >= 200 && status < 300:
			return body, nil
		case status == http.StatusTooManyRequests:
			lastErr = fmt.Errorf("http 429: %s", rawurl)
			if attempt < f.retry.MaxAttempts {
				if err := f.sleep(ctx, f.crowdingDelay(state)); err != nil {
					return nil, err
				}
			}
		case status >= 500:
			lastErr = fmt.Errorf("http %d: %s", status, rawurl)
			if attempt < f.retry.MaxAttempts {
				if err := f.sleep(ctx, jitter(f.retry.Delay(attempt+1))); err != nil {
					return nil, err
				}
			}
		default:
			return nil, &TerminalHTTPError{URL: rawurl, Status: status}
		}
	}

	return nil, &TransientError{URL: rawurl, Attempts: f.retry.MaxAttempts, Err: lastErr}
}

func (f *Fetcher) doOnce(ctx context.Context, rawurl string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawurl, http.NoBody)
	if err != nil {
		return nil, 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/json;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	if !isRetryableStatus(resp.StatusCode) && (resp.StatusCode < 200 || resp.StatusCode >= 300) {
		return nil, resp.StatusCode, nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read body: %w", err)
	}
	return body, resp.StatusCode, nil
}

// awaitSlot blocks until the per-domain delay has elapsed, reserving the
// slot under the domain mutex so concurrent callers cannot both pass the
// delay check. The hourly ceiling fails immediately instead of waiting
// past the window boundary.
func (f *Fetcher) awaitSlot(ctx context.Context, state *domainState, rawurl string) error {
	state.mu.Lock()
	now := time.Now()

	if state.windowStart.IsZero() || now.Sub(state.windowStart) >= time.Hour {
		state.windowStart = now
		state.windowCount = 0
	}
	if state.windowCount >= f.hourlyLimit {
		state.mu.Unlock()
		return &PolicyError{URL: rawurl, Reason: "hourly request limit reached"}
	}

	delay := f.minDelay
	if state.crawlDelay > delay {
		delay = state.crawlDelay
	}

	var wait time.Duration
	if !state.lastRequest.IsZero() {
		earliest := state.lastRequest.Add(delay)
		if earliest.After(now) {
			wait = earliest.Sub(now)
		}
	}

	// Reserve the slot before releasing the lock.
	state.lastRequest = now.Add(wait)
	state.windowCount++
	state.totalCount++
	state.mu.Unlock()

	return f.sleep(ctx, wait)
}

// crowdingDelay backs off on 429 in proportion to how much this run has
// already asked of the domain, with a bounded multiplier.
func (f *Fetcher) crowdingDelay(state *domainState) time.Duration {
	state.mu.Lock()
	count := state.totalCount
	state.mu.Unlock()
	if count > 6 {
		count = 6
	}
	return f.retry.Delay(count + 1)
}

func (f *Fetcher) checkRobots(ctx context.Context, state *domainState, target *url.URL) error {
	state.robotsOnce.Do(func() {
		robotsURL := target.Scheme + "://" + target.Host + "/robots.txt"
		group, delay, err := f.loadRobots(ctx, robotsURL)
		if err != nil {
			// Absence of a robots file is not a disallow signal: fail open.
			f.debug("robots unavailable, allowing", "url", robotsURL, "error", err)
			return
		}
		state.mu.Lock()
		state.crawlDelay = delay
		state.mu.Unlock()
		state.robots = group
	})

	if state.robots == nil {
		return nil
	}
	path := target.Path
	if path == "" {
		path = "/"
	}
	if !state.robots.Test(path) {
		return &PolicyError{URL: target.String(), Reason: "disallowed by robots.txt"}
	}
	return nil
}

func (f *Fetcher) loadRobots(ctx context.Context, robotsURL string) (*robotstxt.Group, time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, http.NoBody)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	robots, err := robotstxt.FromResponse(resp)
	if err != nil {
		return nil, 0, err
	}
	group := robots.FindGroup(f.userAgent)
	if group == nil {
		return nil, 0, nil
	}
	return group, group.CrawlDelay, nil
}

func (f *Fetcher) state(domain string) *domainState {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.domains == nil {
		f.domains = map[string]*domainState{}
	}
	if st, ok := f.domains[domain]; ok {
		return st
	}
	st := &domainState{}
	f.domains[domain] = st
	return st
}

func (f *Fetcher) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func jitter(d time.Duration) time.Duration {
	if d <= 0 {
		return d
	}
	return time.Duration(float64(d) * (0.75 + rand.Float64()*0.5))
}

// registrableDomain keys rate-limit state by eTLD+1 so that subdomains of
// one site share a budget.
func registrableDomain(host string) string {
	host = strings.ToLower(host)
	registrable, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return host
	}
	return registrable
}

func (f *Fetcher) debug(msg string, args ...any) {
	if f.logger != nil {
		f.logger.Debug(msg, args...)
	}
}
