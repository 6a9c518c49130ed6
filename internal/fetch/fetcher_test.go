package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"prospector/internal/config"
	"prospector/internal/ports"
)

// mapCache is a minimal in-test page cache.
type mapCache struct {
	mu    sync.Mutex
	pages map[string][]byte
}

func newMapCache() *mapCache {
	return &mapCache{pages: map[string][]byte{}}
}

func (c *mapCache) Get(_ context.Context, url string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	body, ok := c.pages[url]
	return body, ok
}

func (c *mapCache) Set(_ context.Context, url string, body []byte, _ time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pages[url] = body
}

var _ ports.PageCache = (*mapCache)(nil)

func fastRetry() config.Retry {
	return config.Retry{MaxAttempts: 3, InitialDelayMs: 1, MaxDelayMs: 5, BackoffMultiplier: 2.0}
}

func newTestFetcher(cache ports.PageCache, opts Options) *Fetcher {
	if opts.UserAgent == "" {
		opts.UserAgent = "ProspectorTest/1.0"
	}
	if opts.Retry.MaxAttempts == 0 {
		opts.Retry = fastRetry()
	}
	return New(cache, opts, nil)
}

func TestFetchReturnsBodyAndCaches(t *testing.T) {
	t.Parallel()

	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			http.NotFound(w, r)
			return
		}
		requests++
		w.Write([]byte("hello"))
	}))
	defer server.Close()

	fetcher := newTestFetcher(newMapCache(), Options{})

	body, err := fetcher.Fetch(context.Background(), server.URL+"/page")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if string(body) != "hello" {
		t.Fatalf("body = %q, want hello", body)
	}

	// Second fetch of the same URL must come from cache.
	if _, err := fetcher.Fetch(context.Background(), server.URL+"/page"); err != nil {
		t.Fatalf("cached Fetch: %v", err)
	}
	if requests != 1 {
		t.Fatalf("server saw %d page requests, want 1", requests)
	}
}

func TestFetchCacheHitBypassesNetwork(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request to %s", r.URL.Path)
	}))
	defer server.Close()

	cache := newMapCache()
	url := server.URL + "/cached"
	cache.Set(context.Background(), url, []byte("stored"), time.Hour)

	fetcher := newTestFetcher(cache, Options{})
	body, err := fetcher.Fetch(context.Background(), url)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if string(body) != "stored" {
		t.Fatalf("body = %q, want stored", body)
	}
}

func TestFetchRobotsDisallow(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/robots.txt":
			w.Write([]byte("User-agent: *\nDisallow: /private/\n"))
		case "/private/page":
			t.Error("disallowed path was fetched")
		default:
			w.Write([]byte("ok"))
		}
	}))
	defer server.Close()

	fetcher := newTestFetcher(nil, Options{})

	_, err := fetcher.Fetch(context.Background(), server.URL+"/private/page")
	var policyErr *PolicyError
	if !errors.As(err, &policyErr) {
		t.Fatalf("err = %v, want PolicyError", err)
	}

	if _, err := fetcher.Fetch(context.Background(), server.URL+"/public"); err != nil {
		t.Fatalf("allowed path: %v", err)
	}
}

func TestFetchRobotsUnavailableFailsOpen(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	fetcher := newTestFetcher(nil, Options{})
	body, err := fetcher.Fetch(context.Background(), server.URL+"/page")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if string(body) != "ok" {
		t.Fatalf("body = %q, want ok", body)
	}
}

func TestFetchPolicyExemptSkipsRobots(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			t.Error("robots.txt should not be consulted")
			return
		}
		w.Write([]byte("api response"))
	}))
	defer server.Close()

	fetcher := newTestFetcher(nil, Options{})
	body, err := fetcher.FetchPolicyExempt(context.Background(), server.URL+"/api/search")
	if err != nil {
		t.Fatalf("FetchPolicyExempt: %v", err)
	}
	if string(body) != "api response" {
		t.Fatalf("body = %q", body)
	}
}

func TestFetchTerminalStatusNoRetry(t *testing.T) {
	t.Parallel()

	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		http.NotFound(w, r)
	}))
	defer server.Close()

	fetcher := newTestFetcher(nil, Options{IgnoreRobots: true})
	_, err := fetcher.Fetch(context.Background(), server.URL+"/missing")

	var terminal *TerminalHTTPError
	if !errors.As(err, &terminal) {
		t.Fatalf("err = %v, want TerminalHTTPError", err)
	}
	if terminal.Status != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", terminal.Status)
	}
	if requests != 1 {
		t.Fatalf("server saw %d requests, want 1 (no retry on 4xx)", requests)
	}
}

func TestFetchRetriesServerErrors(t *testing.T) {
	t.Parallel()

	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if requests == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte("recovered"))
	}))
	defer server.Close()

	fetcher := newTestFetcher(nil, Options{IgnoreRobots: true})
	body, err := fetcher.Fetch(context.Background(), server.URL+"/flaky")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if string(body) != "recovered" {
		t.Fatalf("body = %q, want recovered", body)
	}
	if requests != 2 {
		t.Fatalf("server saw %d requests, want 2", requests)
	}
}

func TestFetchRetriesTooManyRequests(t *testing.T) {
	t.Parallel()

	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if requests == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	fetcher := newTestFetcher(nil, Options{IgnoreRobots: true})
	if _, err := fetcher.Fetch(context.Background(), server.URL+"/crowded"); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if requests != 2 {
		t.Fatalf("server saw %d requests, want 2", requests)
	}
}

func TestFetchExhaustedRetriesReturnsTransient(t *testing.T) {
	t.Parallel()

	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	fetcher := newTestFetcher(nil, Options{IgnoreRobots: true})
	_, err := fetcher.Fetch(context.Background(), server.URL+"/down")

	var transient *TransientError
	if !errors.As(err, &transient) {
		t.Fatalf("err = %v, want TransientError", err)
	}
	if transient.Attempts != fastRetry().MaxAttempts {
		t.Fatalf("attempts = %d, want %d", transient.Attempts, fastRetry().MaxAttempts)
	}
	if requests != fastRetry().MaxAttempts {
		t.Fatalf("server saw %d requests, want %d", requests, fastRetry().MaxAttempts)
	}
}

func TestFetchMinDelayBetweenRequests(t *testing.T) {
	t.Parallel()

	const minDelay = 60 * time.Millisecond

	var mu sync.Mutex
	var arrivals []time.Time
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		arrivals = append(arrivals, time.Now())
		mu.Unlock()
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	fetcher := newTestFetcher(nil, Options{MinDelay: minDelay, IgnoreRobots: true})

	// Concurrent fetches to one host must still be spaced out.
	var wg sync.WaitGroup
	for _, path := range []string{"/a", "/b", "/c"} {
		wg.Add(1)
		go func(path string) {
			defer wg.Done()
			if _, err := fetcher.Fetch(context.Background(), server.URL+path); err != nil {
				t.Errorf("Fetch %s: %v", path, err)
			}
		}(path)
	}
	wg.Wait()

	if len(arrivals) != 3 {
		t.Fatalf("server saw %d requests, want 3", len(arrivals))
	}
	// Timer scheduling is imprecise; allow a little slack under the floor.
	const tolerance = 20 * time.Millisecond
	for i := 1; i < len(arrivals); i++ {
		if gap := arrivals[i].Sub(arrivals[i-1]); gap < minDelay-tolerance {
			t.Fatalf("gap %d = %v, want >= %v", i, gap, minDelay-tolerance)
		}
	}
}

func TestFetchHourlyLimit(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	fetcher := newTestFetcher(nil, Options{HourlyLimit: 2, IgnoreRobots: true})

	for _, path := range []string{"/1", "/2"} {
		if _, err := fetcher.Fetch(context.Background(), server.URL+path); err != nil {
			t.Fatalf("Fetch %s: %v", path, err)
		}
	}

	_, err := fetcher.Fetch(context.Background(), server.URL+"/3")
	var policyErr *PolicyError
	if !errors.As(err, &policyErr) {
		t.Fatalf("err = %v, want PolicyError after hourly ceiling", err)
	}
}

func TestNewClientTimeout(t *testing.T) {
	t.Parallel()

	if got := New(nil, Options{Timeout: 42 * time.Second}, nil).client.Timeout; got != 42*time.Second {
		t.Errorf("client timeout = %v, want 42s", got)
	}
	if got := New(nil, Options{}, nil).client.Timeout; got != 20*time.Second {
		t.Errorf("default client timeout = %v, want 20s", got)
	}

	custom := &http.Client{Timeout: time.Second}
	if got := New(nil, Options{Client: custom, Timeout: 42 * time.Second}, nil).client; got != custom {
		t.Error("an explicit client must win over the timeout option")
	}
}

func TestFetchInvalidURL(t *testing.T) {
	t.Parallel()

	fetcher := newTestFetcher(nil, Options{})
	if _, err := fetcher.Fetch(context.Background(), "not-a-url"); err == nil {
		t.Fatal("expected error for invalid url")
	}
}

func TestFetchContextCancellation(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	fetcher := newTestFetcher(nil, Options{MinDelay: time.Minute, IgnoreRobots: true})

	if _, err := fetcher.Fetch(context.Background(), server.URL+"/first"); err != nil {
		t.Fatalf("first Fetch: %v", err)
	}

	// The second request would wait a minute for its slot; cancellation
	// must release it immediately.
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := fetcher.Fetch(ctx, server.URL+"/second"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want context.DeadlineExceeded", err)
	}
}
