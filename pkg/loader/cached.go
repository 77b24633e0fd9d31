package loader

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/Aman-CERP/cuse/pkg/cuse"
)

// DefaultCacheSize is the default number of entities to cache.
const DefaultCacheSize = 1000

type cacheKey struct {
	typ cuse.Type
	id  string
}

// Cached wraps a finder with an LRU cache keyed by type and id.
// Only ids missing from the cache reach the inner finder.
type Cached struct {
	inner cuse.MatchedIdObjectFinder
	cache *lru.Cache[cacheKey, any]
}

// Ensure Cached implements both hydration interfaces.
var (
	_ cuse.EntityLoader          = (*Cached)(nil)
	_ cuse.MatchedIdObjectFinder = (*Cached)(nil)
)

// NewCached creates a cached loader wrapping inner.
// A non-positive size uses DefaultCacheSize.
func NewCached(inner cuse.MatchedIdObjectFinder, size int) (*Cached, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[cacheKey, any](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create entity cache: %w", err)
	}
	return &Cached{
		inner: inner,
		cache: cache,
	}, nil
}

// FindMatched returns cached values and fetches the rest in one call.
func (c *Cached) FindMatched(ctx context.Context, typ cuse.Type, ids []string) (map[string]any, error) {
	found := make(map[string]any, len(ids))
	misses := make([]string, 0, len(ids))

	for _, id := range ids {
		if v, ok := c.cache.Get(cacheKey{typ: typ, id: id}); ok {
			found[id] = v
		} else {
			misses = append(misses, id)
		}
	}

	if len(misses) == 0 {
		return found, nil
	}

	loaded, err := c.inner.FindMatched(ctx, typ, misses)
	if err != nil {
		return nil, err
	}
	for id, v := range loaded {
		found[id] = v
		c.cache.Add(cacheKey{typ: typ, id: id}, v)
	}

	return found, nil
}

// LoadAll returns values in id order, skipping misses.
func (c *Cached) LoadAll(ctx context.Context, typ cuse.Type, ids []string) ([]any, error) {
	return Ordered(c).LoadAll(ctx, typ, ids)
}

// Invalidate drops the cached values for ids, e.g. after they were
// re-registered or deleted.
func (c *Cached) Invalidate(typ cuse.Type, ids ...string) {
	for _, id := range ids {
		c.cache.Remove(cacheKey{typ: typ, id: id})
	}
}

// Len returns the number of cached values.
func (c *Cached) Len() int {
	return c.cache.Len()
}
