package videos

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/shortreel/backend/internal/models"
)

// ErrCacheMiss indicates the feed is not cached or has expired.
var ErrCacheMiss = errors.New("feed cache miss")

// FeedCache stores the unfiltered video feed between writes. Every
// Invalidate advances the version; Set only lands when its version is still
// current, so a feed read before a write can never outlive that write.
type FeedCache interface {
	Get(ctx context.Context) ([]models.Video, error)
	Version(ctx context.Context) (int64, error)
	Set(ctx context.Context, version int64, feed []models.Video) error
	Invalidate(ctx context.Context) error
}

// MemoryFeedCache is a process-local FeedCache with a TTL.
type MemoryFeedCache struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.RWMutex
	version int64
	feed    []models.Video
	expires time.Time
}

// NewMemoryFeedCache returns a cache that keeps the feed for ttl.
func NewMemoryFeedCache(ttl time.Duration) *MemoryFeedCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &MemoryFeedCache{ttl: ttl, now: time.Now}
}

// Get returns a copy of the cached feed.
func (c *MemoryFeedCache) Get(context.Context) ([]models.Video, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.feed == nil || !c.now().Before(c.expires) {
		return nil, ErrCacheMiss
	}
	return append([]models.Video(nil), c.feed...), nil
}

func (c *MemoryFeedCache) Version(context.Context) (int64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.version, nil
}

// Set replaces the cached feed unless it was invalidated after version was read.
func (c *MemoryFeedCache) Set(_ context.Context, version int64, feed []models.Video) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if version != c.version {
		return nil
	}
	c.feed = append(make([]models.Video, 0, len(feed)), feed...)
	c.expires = c.now().Add(c.ttl)
	return nil
}

// Invalidate drops the cached feed.
func (c *MemoryFeedCache) Invalidate(context.Context) error {
	c.mu.Lock()
	c.version++
	c.feed = nil
	c.mu.Unlock()
	return nil
}

// RedisFeedCache shares the feed between server replicas. The feed lives
// under a key derived from a counter; invalidation increments the counter,
// so a late Set writes to a key no reader looks at and simply expires.
type RedisFeedCache struct {
	client     *redis.Client
	key        string
	versionKey string
	ttl        time.Duration
}

// NewRedisFeedCache stores the feed as JSON under key with the provided TTL.
func NewRedisFeedCache(client *redis.Client, key string, ttl time.Duration) *RedisFeedCache {
	if key == "" {
		key = "shortreel:feed"
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &RedisFeedCache{client: client, key: key, versionKey: key + ":version", ttl: ttl}
}

func (c *RedisFeedCache) feedKey(version int64) string {
	return fmt.Sprintf("%s:v%d", c.key, version)
}

// NewRedisClient parses redisURL and verifies the server is reachable.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// Get loads and decodes the feed cached for the current version.
func (c *RedisFeedCache) Get(ctx context.Context) ([]models.Video, error) {
	version, err := c.Version(ctx)
	if err != nil {
		return nil, err
	}

	raw, err := c.client.Get(ctx, c.feedKey(version)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("redis get feed: %w", err)
	}

	var feed []models.Video
	if err := json.Unmarshal(raw, &feed); err != nil {
		return nil, fmt.Errorf("decode cached feed: %w", err)
	}
	return feed, nil
}

// Version reads the invalidation counter; a missing counter is version 0.
func (c *RedisFeedCache) Version(ctx context.Context) (int64, error) {
	version, err := c.client.Get(ctx, c.versionKey).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("redis get feed version: %w", err)
	}
	return version, nil
}

// Set encodes and stores the feed for version.
func (c *RedisFeedCache) Set(ctx context.Context, version int64, feed []models.Video) error {
	raw, err := json.Marshal(feed)
	if err != nil {
		return fmt.Errorf("encode feed: %w", err)
	}
	if err := c.client.Set(ctx, c.feedKey(version), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set feed: %w", err)
	}
	return nil
}

// Invalidate advances the version, orphaning the feed cached for the old one.
func (c *RedisFeedCache) Invalidate(ctx context.Context) error {
	version, err := c.client.Incr(ctx, c.versionKey).Result()
	if err != nil {
		return fmt.Errorf("redis bump feed version: %w", err)
	}
	if err := c.client.Del(ctx, c.feedKey(version-1)).Err(); err != nil {
		return fmt.Errorf("redis delete feed: %w", err)
	}
	return nil
}
