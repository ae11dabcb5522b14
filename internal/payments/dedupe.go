package payments

import (
	"context"
	"time"

	"framing-command-center/pkg/utils"

	"github.com/redis/go-redis/v9"
)

// RedisDeduper records seen keys with SETNX.
type RedisDeduper struct {
	rdb redis.Cmdable
}

func NewRedisDeduper(rdb redis.Cmdable) *RedisDeduper { return &RedisDeduper{rdb: rdb} }

func (d *RedisDeduper) MarkOnce(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return utils.MarkOnce(ctx, d.rdb, key, ttl)
}

func (d *RedisDeduper) Forget(ctx context.Context, key string) error {
	return d.rdb.Del(ctx, key).Err()
}
