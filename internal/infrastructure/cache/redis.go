package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"prospector/internal/ports"
)

const redisKeyPrefix = "prospector:page:"

// Redis backs the page cache with a Redis instance so fetched bodies
// survive restarts and are shared across processes. Cache errors degrade
// to misses; they never fail a fetch.
type Redis struct {
	client *redis.Client
	logger *slog.Logger
}

var _ ports.PageCache = (*Redis)(nil)

// NewRedis connects a page cache to the given address.
func NewRedis(addr string, logger *slog.Logger) *Redis {
	return &Redis{
		client: redis.NewClient(&redis.Options{Addr: addr}),
		logger: logger,
	}
}

// Get returns the cached body for a URL, treating any Redis error as a miss.
func (r *Redis) Get(ctx context.Context, url string) ([]byte, bool) {
	body, err := r.client.Get(ctx, redisKeyPrefix+url).Bytes()
	if err != nil {
		if err != redis.Nil && r.logger != nil {
			r.logger.Warn("redis cache get failed", "url", url, "error", err)
		}
		return nil, false
	}
	return body, true
}

// Set stores a body with the given TTL; failures are logged and ignored.
func (r *Redis) Set(ctx context.Context, url string, body []byte, ttl time.Duration) {
	if err := r.client.Set(ctx, redisKeyPrefix+url, body, ttl).Err(); err != nil && r.logger != nil {
		r.logger.Warn("redis cache set failed", "url", url, "error", err)
	}
}
