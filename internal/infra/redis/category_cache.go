package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
	"trivia-quiz/internal/app"
	"trivia-quiz/internal/domain"
)

const categoriesKey = "trivia:categories"

// CategoryCache shares the category list across instances through Redis and
// falls back to the source on cache miss. Stored as JSON under trivia:categories.
type CategoryCache struct {
	client *redis.Client
	source app.CategorySource
	ttl    time.Duration
	sf     singleflight.Group

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewCategoryCache(client *redis.Client, source app.CategorySource, ttl time.Duration) *CategoryCache {
	return &CategoryCache{
		client: client,
		source: source,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *CategoryCache) Categories(ctx context.Context) ([]domain.Category, error) {
	if categories, ok := c.cached(ctx); ok {
		return categories, nil
	}

	result, err, _ := c.sf.Do(categoriesKey, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if categories, ok := c.cached(ctx); ok {
			return categories, nil
		}

		categories, err := c.source.Categories(ctx)
		if err != nil {
			return nil, err
		}

		// Cache writes are best-effort; the loaded list is still served.
		if raw, err := json.Marshal(categories); err == nil {
			_ = c.client.Set(ctx, categoriesKey, raw, c.ttlWithJitter()).Err()
		}
		return categories, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Category), nil
}

func (c *CategoryCache) cached(ctx context.Context) ([]domain.Category, bool) {
	raw, err := c.client.Get(ctx, categoriesKey).Bytes()
	if err != nil {
		return nil, false
	}
	var categories []domain.Category
	if err := json.Unmarshal(raw, &categories); err != nil || len(categories) == 0 {
		return nil, false
	}
	return categories, true
}

func (c *CategoryCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
