package notice

import (
	"context"
	"encoding/json"
	"time"

	"github.com/matzehuels/stacknotice/pkg/cache"
	"github.com/matzehuels/stacknotice/pkg/observability"
)

const cacheKeyType = "notice"

// Cached wraps a Requester with a response cache. Results are keyed by
// format and the exact coordinate list, so any change in dependencies or
// order is a miss. Cache failures never fail the request.
type Cached struct {
	next  Requester
	cache cache.Cache
	ttl   time.Duration
}

// NewCached returns a caching Requester. A nil cache disables caching.
func NewCached(next Requester, c cache.Cache, ttl time.Duration) *Cached {
	if c == nil {
		c = cache.NewNullCache()
	}
	return &Cached{next: next, cache: c, ttl: ttl}
}

// Notice returns a cached result when one exists, otherwise renders and
// stores it.
func (c *Cached) Notice(ctx context.Context, coordinates []string, format Format) (*Result, error) {
	key := cache.Key(cacheKeyType, string(format), coordinates)
	hooks := observability.Cache()

	if data, ok, err := c.cache.Get(ctx, key); err == nil && ok {
		var r Result
		if json.Unmarshal(data, &r) == nil {
			hooks.OnCacheHit(ctx, cacheKeyType)
			return &r, nil
		}
	}
	hooks.OnCacheMiss(ctx, cacheKeyType)

	r, err := c.next.Notice(ctx, coordinates, format)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(r); err == nil {
		if c.cache.Set(ctx, key, data, c.ttl) == nil {
			hooks.OnCacheSet(ctx, cacheKeyType, len(data))
		}
	}
	return r, nil
}

var _ Requester = (*Cached)(nil)
