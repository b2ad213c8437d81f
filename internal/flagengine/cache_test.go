package flagengine

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	envdomain "github.com/flagforgelabs/flagforge/internal/environment/domain"
	featuredomain "github.com/flagforgelabs/flagforge/internal/feature/domain"
	"github.com/flagforgelabs/flagforge/internal/flagvalue"
	"github.com/bwmarrin/snowflake"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestCache(t *testing.T) (SnapshotCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisCache(client, time.Minute, zap.NewNop()), mr
}

func TestRedisCacheRoundTrip(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	snap := &Snapshot{
		Environment:       envdomain.Environment{ID: 10, ProjectID: 1, APIKey: "env.abc"},
		HideDisabledFlags: true,
		Features: []featuredomain.Feature{
			{ID: 100, ProjectID: 1, Name: "checkout", Kind: featuredomain.KindConfig},
		},
		Defaults: map[snowflake.ID]featuredomain.FeatureState{
			100: {ID: 1000, FeatureID: 100, EnvironmentID: 10, Value: flagvalue.Integer(42)},
		},
	}
	cache.Set(ctx, "env.abc", snap)

	got, ok := cache.Get(ctx, "env.abc")
	require.True(t, ok)
	assert.Equal(t, snap.Environment.APIKey, got.Environment.APIKey)
	assert.True(t, got.HideDisabledFlags)
	require.Len(t, got.Features, 1)
	assert.Equal(t, flagvalue.Integer(42), got.Defaults[100].Value)
}

func TestRedisCacheMiss(t *testing.T) {
	cache, _ := newTestCache(t)

	_, ok := cache.Get(context.Background(), "env.unknown")
	assert.False(t, ok)
}

func TestRedisCacheInvalidate(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()

	cache.Set(ctx, "env.abc", &Snapshot{Environment: envdomain.Environment{APIKey: "env.abc"}})
	require.True(t, mr.Exists("flagengine:snapshot:env.abc"))

	cache.Invalidate(ctx, "env.abc")
	assert.False(t, mr.Exists("flagengine:snapshot:env.abc"))

	_, ok := cache.Get(ctx, "env.abc")
	assert.False(t, ok)
}

func TestRedisCacheDropsCorruptEntries(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, mr.Set("flagengine:snapshot:env.abc", "not snappy data"))

	_, ok := cache.Get(ctx, "env.abc")
	assert.False(t, ok)
	assert.False(t, mr.Exists("flagengine:snapshot:env.abc"))
}

func TestNoopCache(t *testing.T) {
	cache := NewNoopCache()
	ctx := context.Background()

	cache.Set(ctx, "env.abc", &Snapshot{})
	_, ok := cache.Get(ctx, "env.abc")
	assert.False(t, ok)
	cache.Invalidate(ctx, "env.abc")
}
