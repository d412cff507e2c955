package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the key only while it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLock is a single-holder lease shared by every replica.
type RedisLock struct {
	client redis.UniversalClient
}

func NewRedisLock(client redis.UniversalClient) *RedisLock {
	return &RedisLock{client: client}
}

// TryAcquire takes key for ttl. It returns acquired=false when another holder
// has it. The release func is a no-op unless the lock was acquired.
func (l *RedisLock) TryAcquire(ctx context.Context, key string, ttl time.Duration) (func(context.Context), bool, error) {
	token := ulid.Make().String()

	acquired, err := l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return func(context.Context) {}, false, fmt.Errorf("failed to acquire lock %s: %w", key, err)
	}
	if !acquired {
		return func(context.Context) {}, false, nil
	}

	return func(ctx context.Context) {
		_ = releaseScript.Run(ctx, l.client, []string{key}, token).Err()
	}, true, nil
}
