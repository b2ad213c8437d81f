package flagengine

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/golang/snappy"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// SnapshotCache stores serialized environment snapshots. It is an
// explicit collaborator passed into the resolution path; admin write
// handlers call Invalidate after mutating flag configuration.
type SnapshotCache interface {
	Get(ctx context.Context, apiKey string) (*Snapshot, bool)
	Set(ctx context.Context, apiKey string, snap *Snapshot)
	Invalidate(ctx context.Context, apiKey string)
}

// redisCache keeps snappy-compressed JSON snapshots in redis under
// flagengine:snapshot:{api_key}.
type redisCache struct {
	client *redis.Client
	ttl    time.Duration
	log    *zap.Logger
}

func NewRedisCache(client *redis.Client, ttl time.Duration, log *zap.Logger) SnapshotCache {
	return &redisCache{
		client: client,
		ttl:    ttl,
		log:    log.Named("flagengine.cache"),
	}
}

func cacheKey(apiKey string) string {
	return "flagengine:snapshot:" + apiKey
}

func (c *redisCache) Get(ctx context.Context, apiKey string) (*Snapshot, bool) {
	raw, err := c.client.Get(ctx, cacheKey(apiKey)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn("snapshot cache read failed", zap.Error(err))
		}
		return nil, false
	}

	decoded, err := snappy.Decode(nil, raw)
	if err != nil {
		c.log.Warn("snapshot cache entry corrupt, dropping", zap.Error(err))
		c.Invalidate(ctx, apiKey)
		return nil, false
	}

	var snap Snapshot
	if err := json.Unmarshal(decoded, &snap); err != nil {
		c.log.Warn("snapshot cache entry unreadable, dropping", zap.Error(err))
		c.Invalidate(ctx, apiKey)
		return nil, false
	}
	return &snap, true
}

func (c *redisCache) Set(ctx context.Context, apiKey string, snap *Snapshot) {
	raw, err := json.Marshal(snap)
	if err != nil {
		c.log.Warn("snapshot marshal failed", zap.Error(err))
		return
	}
	// Cache misses fall back to the database, so write failures are
	// logged and swallowed.
	if err := c.client.Set(ctx, cacheKey(apiKey), snappy.Encode(nil, raw), c.ttl).Err(); err != nil {
		c.log.Warn("snapshot cache write failed", zap.Error(err))
	}
}

func (c *redisCache) Invalidate(ctx context.Context, apiKey string) {
	if err := c.client.Del(ctx, cacheKey(apiKey)).Err(); err != nil {
		c.log.Warn("snapshot cache invalidation failed", zap.Error(err))
	}
}

// noopCache is used when the cache is disabled by configuration; every
// resolution loads directly from the repositories.
type noopCache struct{}

func NewNoopCache() SnapshotCache { return noopCache{} }

func (noopCache) Get(context.Context, string) (*Snapshot, bool) { return nil, false }
func (noopCache) Set(context.Context, string, *Snapshot)        {}
func (noopCache) Invalidate(context.Context, string)            {}
