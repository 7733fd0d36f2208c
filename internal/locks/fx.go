package locks

import (
	"strings"

	"github.com/inkpress/inkpress/internal/config"
	redis "github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("locks",
	fx.Provide(NewRedisClient, New),
)

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

// New prefers the redis locker and falls back to the in-process one.
func New(client *redis.Client, log *zap.Logger) Locker {
	if client != nil {
		return NewRedisLocker(client)
	}
	log.Warn("redis not configured, using in-process locks")
	return NewLocalLocker()
}
