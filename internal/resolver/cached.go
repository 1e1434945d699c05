package resolver

import (
	"context"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"pdxgraph/pkg/domain"
)

// DefaultCacheSize bounds the in-process memo when no size is configured.
const DefaultCacheSize = 4096

// Cached memoizes resolutions of another resolver in a bounded LRU. Errors
// are not cached.
type Cached struct {
	next  domain.MarkerResolver
	cache *lru.Cache[string, domain.MarkerResolution]
}

// NewCached wraps next with an LRU of size entries.
func NewCached(next domain.MarkerResolver, size int) (*Cached, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[string, domain.MarkerResolution](size)
	if err != nil {
		return nil, err
	}
	return &Cached{next: next, cache: cache}, nil
}

// Resolve returns the memoized result for the query's symbol and type.
func (c *Cached) Resolve(ctx context.Context, q domain.MarkerQuery) (domain.MarkerResolution, error) {
	key := cacheKey(q)
	if res, ok := c.cache.Get(key); ok {
		return res, nil
	}
	res, err := c.next.Resolve(ctx, q)
	if err != nil {
		return domain.MarkerResolution{}, err
	}
	c.cache.Add(key, res)
	return res, nil
}

// Len returns the number of memoized entries.
func (c *Cached) Len() int { return c.cache.Len() }

// cacheKey scopes entries by what the catalog actually looks at.
func cacheKey(q domain.MarkerQuery) string {
	return string(q.CharacterizationType) + ":" + strings.ToUpper(strings.TrimSpace(q.Symbol))
}
