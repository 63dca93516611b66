package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
	"trivia-quiz/internal/app"
	"trivia-quiz/internal/domain"
)

// CategoryCache caches the category list with TTL to avoid repeated upstream calls.
// Failed loads are not cached.
type CategoryCache struct {
	source app.CategorySource
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group

	mu        sync.Mutex
	rnd       *rand.Rand
	cached    []domain.Category
	expiresAt time.Time
}

func NewCategoryCache(source app.CategorySource, ttl time.Duration) *CategoryCache {
	return &CategoryCache{
		source: source,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *CategoryCache) Categories(ctx context.Context) ([]domain.Category, error) {
	if categories, ok := c.fresh(); ok {
		return categories, nil
	}

	result, err, _ := c.sf.Do("categories", func() (interface{}, error) {
		// Re-check in case another caller filled it.
		if categories, ok := c.fresh(); ok {
			return categories, nil
		}

		categories, err := c.source.Categories(ctx)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.cached = categories
		c.expiresAt = c.clock().Add(c.ttlWithJitterLocked())
		c.mu.Unlock()
		return categories, nil
	})
	if err != nil {
		return nil, err
	}
	return copyCategories(result.([]domain.Category)), nil
}

func (c *CategoryCache) fresh() ([]domain.Category, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cached != nil && c.expiresAt.After(c.clock()) {
		return copyCategories(c.cached), true
	}
	return nil, false
}

func (c *CategoryCache) ttlWithJitterLocked() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}

func copyCategories(in []domain.Category) []domain.Category {
	return append([]domain.Category(nil), in...)
}
