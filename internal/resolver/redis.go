package resolver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"pdxgraph/pkg/domain"
)

// DefaultRedisTTL is used when RedisCache is built without a TTL.
const DefaultRedisTTL = 24 * time.Hour

const redisKeyPrefix = "pdxgraph:marker:"

// redisClient is the subset of go-redis used by the cache.
type redisClient interface {
	Get(ctx context.Context, key string) *goredis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *goredis.StatusCmd
}

// RedisCache shares resolutions across processes. Cache read and write
// failures fall through to the wrapped resolver.
type RedisCache struct {
	next domain.MarkerResolver
	rdb  redisClient
	ttl  time.Duration
}

// NewRedisCache wraps next with a redis-backed cache.
func NewRedisCache(next domain.MarkerResolver, rdb redisClient, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultRedisTTL
	}
	return &RedisCache{next: next, rdb: rdb, ttl: ttl}
}

// DialRedis parses url, connects and pings the server.
func DialRedis(ctx context.Context, url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis url: %w", err)
	}
	opts.DialTimeout = 5 * time.Second
	rdb := goredis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

// Resolve consults redis before the wrapped resolver.
func (c *RedisCache) Resolve(ctx context.Context, q domain.MarkerQuery) (domain.MarkerResolution, error) {
	key := redisKeyPrefix + cacheKey(q)
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err == nil {
		var res domain.MarkerResolution
		if json.Unmarshal(raw, &res) == nil {
			return res, nil
		}
	} else if !errors.Is(err, goredis.Nil) && ctx.Err() != nil {
		return domain.MarkerResolution{}, ctx.Err()
	}
	res, err := c.next.Resolve(ctx, q)
	if err != nil {
		return domain.MarkerResolution{}, err
	}
	if b, err := json.Marshal(res); err == nil {
		_ = c.rdb.Set(ctx, key, b, c.ttl).Err()
	}
	return res, nil
}
