package blogfront

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/eringen/blogfront/domain"
	"github.com/eringen/blogfront/gateway"
)

// feedSize is how many of the newest posts the feed and sitemap list.
const feedSize = 20

// FeedCache is an in-memory cache of the newest posts with TTL. It backs the
// RSS feed and the sitemap so crawlers do not hit the posts service on every
// request.
type FeedCache struct {
	mu      sync.RWMutex
	posts   []domain.BlogPost
	fetched time.Time
	ttl     time.Duration
	src     gateway.PostSource
	clock   clockwork.Clock
}

// NewFeedCache creates a FeedCache reading from src.
func NewFeedCache(src gateway.PostSource, ttl time.Duration, clock clockwork.Clock) *FeedCache {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &FeedCache{src: src, ttl: ttl, clock: clock}
}

func (c *FeedCache) valid() bool {
	return c.posts != nil && c.clock.Since(c.fetched) < c.ttl
}

// Invalidate clears the cache so the next read triggers a fresh load.
func (c *FeedCache) Invalidate() {
	c.mu.Lock()
	c.posts = nil
	c.mu.Unlock()
}

// Recent returns the newest posts. It tries a read lock first and only takes
// the write lock when a reload is needed. Pages served from the stand-in
// dataset are returned but not cached.
func (c *FeedCache) Recent(ctx context.Context) ([]domain.BlogPost, error) {
	c.mu.RLock()
	if c.valid() {
		posts := c.posts
		c.mu.RUnlock()
		return posts, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.valid() {
		return c.posts, nil
	}
	page, err := c.src.ListPosts(ctx, domain.ListQuery{Page: 1, Limit: feedSize})
	if err != nil {
		return nil, err
	}
	posts := page.Items
	if posts == nil {
		posts = []domain.BlogPost{}
	}
	if !page.Offline {
		c.posts = posts
		c.fetched = c.clock.Now()
	}
	return posts, nil
}
