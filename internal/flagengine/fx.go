package flagengine

import (
	"github.com/flagforgelabs/flagforge/internal/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("flagengine",
	fx.Provide(NewMetrics),
	fx.Provide(ProvideCache),
	fx.Provide(NewService),
)

func ProvideCache(cfg config.Config, client *redis.Client, log *zap.Logger) SnapshotCache {
	if !cfg.Cache.Enabled || client == nil {
		return NewNoopCache()
	}
	return NewRedisCache(client, cfg.Cache.TTL, log)
}
