// Package marketcache decorates a ports.MarketDataClient with a response cache
// kept in Redis when configured, and in process memory otherwise.
package marketcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"cryptoPulseBot/internal/cache"
	"cryptoPulseBot/internal/domain"
	"cryptoPulseBot/internal/ports"

	"github.com/redis/go-redis/v9"
)

// maxLocalEntries caps the in-memory cache. A kline entry can hold up to
// 1000 candles.
const maxLocalEntries = 256

// CachingClient caches klines and tickers. Cache failures never fail a call.
type CachingClient struct {
	inner     ports.MarketDataClient
	rdb       *redis.Client
	local     *cache.TTL[string, []byte]
	ttl       time.Duration
	namespace string
	logger    ports.Logger
}

var _ ports.MarketDataClient = (*CachingClient)(nil)

// NewCachingClient wraps inner. When rdb is nil an in-memory cache is used.
// ttl <= 0 falls back to 30s and an empty namespace to "market".
func NewCachingClient(inner ports.MarketDataClient, rdb *redis.Client, ttl time.Duration, namespace string, logger ports.Logger) (*CachingClient, error) {
	if inner == nil {
		return nil, fmt.Errorf("inner market data client is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for caching client")
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	if namespace == "" {
		namespace = "market"
	}
	c := &CachingClient{
		inner:     inner,
		rdb:       rdb,
		ttl:       ttl,
		namespace: namespace,
		logger:    logger,
	}
	if rdb == nil {
		c.local = cache.NewBoundedTTL[string, []byte](ttl, maxLocalEntries)
	}
	return c, nil
}

// Run prunes the in-memory cache until ctx is canceled. Redis expires its
// own keys, so with Redis it only waits.
func (c *CachingClient) Run(ctx context.Context) error {
	if c.local == nil {
		<-ctx.Done()
		return nil
	}
	c.local.PruneEvery(ctx, c.ttl)
	return nil
}

// GetKlines returns cached klines or fetches and caches them.
func (c *CachingClient) GetKlines(ctx context.Context, symbol, interval string, limit int) ([]*domain.Kline, error) {
	key := c.key("klines", symbol, interval, fmt.Sprint(limit))

	if b, ok := c.get(ctx, key); ok {
		var out []*domain.Kline
		if err := json.Unmarshal(b, &out); err == nil {
			return out, nil
		}
		c.logger.Warn(ctx, "Dropping corrupt cache entry", map[string]interface{}{"key": key})
		c.del(ctx, key)
	}

	out, err := c.inner.GetKlines(ctx, symbol, interval, limit)
	if err != nil {
		return nil, err
	}
	if b, err := json.Marshal(out); err == nil {
		c.set(ctx, key, b)
	}
	return out, nil
}

// Get24hTicker returns a cached ticker or fetches and caches it.
func (c *CachingClient) Get24hTicker(ctx context.Context, symbol string) (*domain.Ticker24h, error) {
	key := c.key("ticker", symbol)

	if b, ok := c.get(ctx, key); ok {
		var out domain.Ticker24h
		if err := json.Unmarshal(b, &out); err == nil {
			return &out, nil
		}
		c.logger.Warn(ctx, "Dropping corrupt cache entry", map[string]interface{}{"key": key})
		c.del(ctx, key)
	}

	out, err := c.inner.Get24hTicker(ctx, symbol)
	if err != nil {
		return nil, err
	}
	if b, err := json.Marshal(out); err == nil {
		c.set(ctx, key, b)
	}
	return out, nil
}

// Ping is never cached.
func (c *CachingClient) Ping(ctx context.Context) error {
	return c.inner.Ping(ctx)
}

func (c *CachingClient) get(ctx context.Context, key string) ([]byte, bool) {
	if c.rdb == nil {
		return c.local.Get(key)
	}
	b, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn(ctx, "Redis get failed", map[string]interface{}{"key": key, "error": err.Error()})
		}
		return nil, false
	}
	return b, len(b) > 0
}

func (c *CachingClient) set(ctx context.Context, key string, b []byte) {
	if c.rdb == nil {
		c.local.Set(key, b)
		return
	}
	if err := c.rdb.Set(ctx, key, b, c.ttl).Err(); err != nil {
		c.logger.Warn(ctx, "Redis set failed", map[string]interface{}{"key": key, "error": err.Error()})
	}
}

func (c *CachingClient) del(ctx context.Context, key string) {
	if c.rdb == nil {
		c.local.Delete(key)
		return
	}
	_ = c.rdb.Del(ctx, key).Err()
}

func (c *CachingClient) key(parts ...string) string {
	escaped := make([]string, 0, len(parts)+1)
	escaped = append(escaped, c.namespace)
	for _, p := range parts {
		escaped = append(escaped, safe(p))
	}
	return strings.Join(escaped, ":")
}

// safe escapes characters that would break the key layout.
func safe(s string) string {
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, ":", "_")
	return s
}
