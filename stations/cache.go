package stations

import (
	"context"
	"sync"
	"time"

	"github.com/pamojavote/pamoja-go/models"
)

// DefaultStaleTime is how long a loaded document is served before refetching.
const DefaultStaleTime = 5 * time.Minute

// Cache loads centers from a Source and serves them until they go stale.
type Cache struct {
	source    Source
	staleTime time.Duration
	now       func() time.Time

	mu        sync.Mutex
	centers   []models.Center
	fetchedAt time.Time
}

func NewCache(source Source, staleTime time.Duration) *Cache {
	if staleTime <= 0 {
		staleTime = DefaultStaleTime
	}
	return &Cache{source: source, staleTime: staleTime, now: time.Now}
}

// Centers returns the cached centers, reloading them when stale. A failed
// reload keeps nothing; the next call tries again.
func (c *Cache) Centers(ctx context.Context) ([]models.Center, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.centers != nil && c.now().Sub(c.fetchedAt) < c.staleTime {
		return c.centers, nil
	}

	raw, err := c.source.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	centers, err := Parse(raw)
	if err != nil {
		return nil, err
	}

	c.centers = centers
	c.fetchedAt = c.now()
	return centers, nil
}

func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.centers = nil
	c.mu.Unlock()
}
