// Package cache provides a Redis-backed cache for analysis results, so
// repeated analyses of the same input skip re-parsing (and, for URL
// inputs, re-probing).
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/opentalon/agentsmith/internal/schema"
)

const keyPrefix = "agentsmith:analysis:"

// DefaultTTL bounds staleness of cached analyses; an upstream API that
// changes its spec is picked up within this window.
const DefaultTTL = 24 * time.Hour

// AnalysisCache stores ParsedAPI results keyed by a digest of the raw
// analyzer input.
type AnalysisCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// Option configures an AnalysisCache.
type Option func(*AnalysisCache)

// WithTTL overrides the default entry lifetime.
func WithTTL(ttl time.Duration) Option {
	return func(c *AnalysisCache) { c.ttl = ttl }
}

// WithLogger attaches a logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(c *AnalysisCache) { c.logger = l }
}

// New creates a cache on top of an existing Redis client.
func New(client *redis.Client, opts ...Option) *AnalysisCache {
	c := &AnalysisCache{
		client: client,
		ttl:    DefaultTTL,
		logger: zap.NewNop(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Dial connects to Redis and returns a cache over the connection.
func Dial(ctx context.Context, addr, password string, db int, opts ...Option) (*AnalysisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return New(client, opts...), nil
}

// Get returns the cached analysis for input, if any. Transport errors
// and decode errors are treated as misses; the analyzer can always
// recompute.
func (c *AnalysisCache) Get(ctx context.Context, input string) (*schema.ParsedAPI, bool) {
	raw, err := c.client.Get(ctx, cacheKey(input)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("cache get failed", zap.Error(err))
		}
		return nil, false
	}
	var api schema.ParsedAPI
	if err := json.Unmarshal(raw, &api); err != nil {
		c.logger.Warn("cache entry corrupt, discarding", zap.Error(err))
		_ = c.client.Del(ctx, cacheKey(input)).Err()
		return nil, false
	}
	return &api, true
}

// Set stores an analysis result. Failures are logged and swallowed; a
// write miss only costs a future recompute.
func (c *AnalysisCache) Set(ctx context.Context, input string, api *schema.ParsedAPI) {
	raw, err := json.Marshal(api)
	if err != nil {
		c.logger.Warn("cache encode failed", zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, cacheKey(input), raw, c.ttl).Err(); err != nil {
		c.logger.Warn("cache set failed", zap.Error(err))
	}
}

// Close releases the underlying Redis connection.
func (c *AnalysisCache) Close() error {
	return c.client.Close()
}

// cacheKey digests the input so arbitrarily large spec documents map to
// fixed-size keys.
func cacheKey(input string) string {
	sum := sha256.Sum256([]byte(input))
	return keyPrefix + hex.EncodeToString(sum[:])
}
