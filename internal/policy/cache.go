package policy

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cidrfence/cidrfence/internal/observability"
)

// DecisionCache memoizes access decisions keyed by the composite
// (path, address) key. Entries are never evicted or invalidated; this
// is valid only because the registry is immutable after Build.
type DecisionCache interface {
	// Get retrieves a cached decision.
	Get(ctx context.Context, key string) (bool, bool)

	// Set stores a decision in the cache.
	Set(ctx context.Context, key string, decision bool)

	// Close closes the cache.
	Close() error
}

// memoryDecisionCache implements DecisionCache with an unbounded
// in-process map.
type memoryDecisionCache struct {
	mu      sync.RWMutex
	entries map[string]bool
}

// NewMemoryDecisionCache creates a new in-memory decision cache. It is
// the default cache used by Registry.Build.
func NewMemoryDecisionCache() DecisionCache {
	return &memoryDecisionCache{
		entries: make(map[string]bool),
	}
}

// Get retrieves a cached decision.
func (c *memoryDecisionCache) Get(_ context.Context, key string) (bool, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	decision, ok := c.entries[key]
	return decision, ok
}

// Set stores a decision in the cache.
func (c *memoryDecisionCache) Set(_ context.Context, key string, decision bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = decision
}

// Close does nothing for the in-memory cache.
func (c *memoryDecisionCache) Close() error {
	return nil
}

// redisDecisionCache implements DecisionCache on a shared Redis
// instance, letting a fleet of evaluators serving the same frozen rule
// set reuse each other's decisions.
type redisDecisionCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	logger observability.Logger
}

// RedisCacheOption is a functional option for the Redis decision cache.
type RedisCacheOption func(*redisDecisionCache)

// WithRedisCacheLogger sets the logger.
func WithRedisCacheLogger(logger observability.Logger) RedisCacheOption {
	return func(c *redisDecisionCache) {
		c.logger = logger
	}
}

// WithRedisCachePrefix sets the key prefix.
func WithRedisCachePrefix(prefix string) RedisCacheOption {
	return func(c *redisDecisionCache) {
		c.prefix = prefix
	}
}

// WithRedisCacheTTL sets the entry TTL. A TTL of 0 means entries never
// expire, which matches the immutable-registry assumption; a finite TTL
// bounds the keyspace for high-cardinality address populations.
func WithRedisCacheTTL(ttl time.Duration) RedisCacheOption {
	return func(c *redisDecisionCache) {
		c.ttl = ttl
	}
}

// NewRedisDecisionCache creates a decision cache backed by the given
// Redis client.
func NewRedisDecisionCache(client *redis.Client, opts ...RedisCacheOption) DecisionCache {
	c := &redisDecisionCache{
		client: client,
		prefix: "cidrfence:decision:",
		logger: observability.NopLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Get retrieves a cached decision. Transport errors degrade to a cache
// miss so evaluation falls back to resolution.
func (c *redisDecisionCache) Get(ctx context.Context, key string) (bool, bool) {
	value, err := c.client.Get(ctx, c.prefix+key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("failed to get cached decision",
				observability.Error(err),
			)
		}
		return false, false
	}

	return value == "1", true
}

// Set stores a decision in the cache.
func (c *redisDecisionCache) Set(ctx context.Context, key string, decision bool) {
	value := "0"
	if decision {
		value = "1"
	}

	if err := c.client.Set(ctx, c.prefix+key, value, c.ttl).Err(); err != nil {
		c.logger.Warn("failed to cache decision",
			observability.Error(err),
		)
	}
}

// Close closes the underlying Redis client.
func (c *redisDecisionCache) Close() error {
	return c.client.Close()
}

// noopDecisionCache disables memoization; every evaluation re-runs
// resolution.
type noopDecisionCache struct{}

// NewNoopDecisionCache creates a cache that never stores anything.
func NewNoopDecisionCache() DecisionCache {
	return &noopDecisionCache{}
}

// Get always misses.
func (c *noopDecisionCache) Get(_ context.Context, _ string) (bool, bool) {
	return false, false
}

// Set does nothing.
func (c *noopDecisionCache) Set(_ context.Context, _ string, _ bool) {}

// Close does nothing.
func (c *noopDecisionCache) Close() error {
	return nil
}

// Ensure implementations satisfy the interface.
var (
	_ DecisionCache = (*memoryDecisionCache)(nil)
	_ DecisionCache = (*redisDecisionCache)(nil)
	_ DecisionCache = (*noopDecisionCache)(nil)
)
