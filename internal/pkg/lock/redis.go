package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisProvider implements Provider on top of Redis SET NX, giving
// cross-process exclusion when the engine runs as multiple instances. The
// storage layer's conditional update remains the oversell guard; this only
// narrows the window in which concurrent instances race.
type RedisProvider struct {
	client     *redis.Client
	ttl        time.Duration
	retryDelay time.Duration
}

const (
	defaultLockTTL    = 30 * time.Second
	defaultRetryDelay = 25 * time.Millisecond
)

func NewRedisProvider(client *redis.Client) *RedisProvider {
	return &RedisProvider{
		client:     client,
		ttl:        defaultLockTTL,
		retryDelay: defaultRetryDelay,
	}
}

// releaseScript deletes the lock only if this holder still owns it, so an
// expired lock reclaimed by someone else is never released by the old holder.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

func (p *RedisProvider) Acquire(ctx context.Context, key string) (func(), error) {
	token := uuid.NewString()
	redisKey := "lock:" + key

	for {
		ok, err := p.client.SetNX(ctx, redisKey, token, p.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("redis lock acquire %s: %w", key, err)
		}
		if ok {
			return func() {
				relCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				defer cancel()
				_ = releaseScript.Run(relCtx, p.client, []string{redisKey}, token).Err()
			}, nil
		}

		select {
		case <-time.After(p.retryDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}
