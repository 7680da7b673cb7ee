package insight

import (
	"context"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"

	"partscope/internal/inventory"
)

// Cached memoizes a Generator. Entries are keyed by item id plus a fingerprint
// of every field a generator reads, so any edit to the item misses the cache.
type Cached struct {
	next  Generator
	cache *cache.Cache
}

// NewCached wraps next with a TTL cache.
func NewCached(next Generator, ttl time.Duration) *Cached {
	return &Cached{next: next, cache: cache.New(ttl, 2*ttl)}
}

// Generate returns the cached insight for an unchanged item or delegates.
// Failures are not cached.
func (c *Cached) Generate(ctx context.Context, item inventory.Item) (Insight, error) {
	key := fingerprint(item)
	if v, ok := c.cache.Get(key); ok {
		return v.(Insight), nil
	}
	out, err := c.next.Generate(ctx, item)
	if err != nil {
		return Insight{}, err
	}
	c.cache.SetDefault(key, out)
	return out, nil
}

// Len reports the number of live cache entries.
func (c *Cached) Len() int {
	return c.cache.ItemCount()
}

func fingerprint(item inventory.Item) string {
	score := "none"
	if item.Classification != nil {
		score = fmt.Sprintf("%.6f/%d", item.Classification.Score, item.Classification.Label)
	}
	return fmt.Sprintf("%d|%s|%s|%s|%q|%q", item.ID, item.Name, item.Status, score, item.Owner, item.Notes)
}
