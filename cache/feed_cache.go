// Package cache provides the engine's two cache levels: ranked feeds live
// in redis keyed by profile, derived user-context snapshots live in a small
// in-process LRU. Either level being unavailable only disables caching.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/bluele/gcache"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"tubefeed/config"
	"tubefeed/models"
)

const contextKey = "user_context"

// FeedCache caches ranked feed results and context snapshots for a single
// profile.
type FeedCache struct {
	client    *redis.Client
	local     gcache.Cache
	profileID string
	feedTTL   time.Duration
	ctxTTL    time.Duration
}

// New builds the cache around an existing redis client. The client may be
// nil (or unreachable); feed caching is then skipped while the local context
// LRU keeps working.
func New(client *redis.Client, cfg config.CacheConfig) *FeedCache {
	size := cfg.LocalSize
	if size <= 0 {
		size = 64
	}
	return &FeedCache{
		client:    client,
		local:     gcache.New(size).LRU().Build(),
		profileID: cfg.ProfileID,
		feedTTL:   cfg.FeedTTL,
		ctxTTL:    cfg.ContextTTL,
	}
}

func (c *FeedCache) feedKey() string {
	return fmt.Sprintf("feed:cache:%s", c.profileID)
}

// Feed returns the cached ranked feed for the profile.
func (c *FeedCache) Feed(ctx context.Context) ([]models.RankedVideo, error) {
	if c.client == nil {
		return nil, redis.Nil
	}

	data, err := c.client.Get(ctx, c.feedKey()).Result()
	if err == redis.Nil {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("get cached feed: %w", err)
	}

	var items []models.RankedVideo
	if err := json.Unmarshal([]byte(data), &items); err != nil {
		return nil, fmt.Errorf("unmarshal cached feed: %w", err)
	}
	return items, nil
}

// StoreFeed caches a ranked feed with the configured TTL. Failures are
// logged and swallowed; caching is best effort.
func (c *FeedCache) StoreFeed(ctx context.Context, items []models.RankedVideo) {
	if c.client == nil || len(items) == 0 {
		return
	}

	data, err := json.Marshal(items)
	if err != nil {
		log.WithError(err).Warn("failed to marshal feed for cache")
		return
	}
	if err := c.client.Set(ctx, c.feedKey(), data, c.feedTTL).Err(); err != nil {
		log.WithError(err).Warn("failed to cache feed")
		return
	}
	log.WithField("items", len(items)).Debug("cached ranked feed")
}

// InvalidateFeed drops the cached feed, e.g. after a watch event.
func (c *FeedCache) InvalidateFeed(ctx context.Context) {
	if c.client == nil {
		return
	}
	if err := c.client.Del(ctx, c.feedKey()).Err(); err != nil {
		log.WithError(err).Warn("failed to invalidate cached feed")
	}
}

// Context returns the cached user-context snapshot, if fresh.
func (c *FeedCache) Context() (*models.UserContext, bool) {
	v, err := c.local.Get(contextKey)
	if err != nil {
		return nil, false
	}
	uctx, ok := v.(*models.UserContext)
	return uctx, ok
}

// StoreContext caches a derived context snapshot with a short TTL.
func (c *FeedCache) StoreContext(uctx *models.UserContext) {
	if uctx == nil {
		return
	}
	if err := c.local.SetWithExpire(contextKey, uctx, c.ctxTTL); err != nil {
		log.WithError(err).Warn("failed to cache user context")
	}
}

// InvalidateContext drops the cached context snapshot.
func (c *FeedCache) InvalidateContext() {
	c.local.Remove(contextKey)
}

// Ping reports whether the redis level is reachable.
func (c *FeedCache) Ping(ctx context.Context) error {
	if c.client == nil {
		return fmt.Errorf("redis not configured")
	}
	return c.client.Ping(ctx).Err()
}
