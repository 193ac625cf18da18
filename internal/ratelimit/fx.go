package ratelimit

import (
	"strings"

	redis "github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"github.com/cwu2020/reflist-sub001/internal/config"
)

// NewRedisClient returns nil when no address is configured; the guards built
// on top of it degrade to no-ops.
func NewRedisClient(cfg config.Config) *redis.Client {
	addr := strings.TrimSpace(cfg.RedisAddr)
	if addr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.RedisPassword,
	})
}

var Module = fx.Module("rate.limit",
	fx.Provide(NewRedisClient),
	fx.Provide(NewLocker),
	fx.Provide(NewWithdrawGuard),
)
