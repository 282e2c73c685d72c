package registry

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/jakechorley/watchtower/pkg/core/model"
)

// DefaultLockTTL bounds how long a crashed generator can hold a key
const DefaultLockTTL = 10 * time.Minute

// releaseScript deletes the key only if it still holds our token
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker is a Locker shared between processes through Redis
type RedisLocker struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisLocker creates a locker storing keys under prefix with the given TTL
func NewRedisLocker(client *redis.Client, prefix string, ttl time.Duration, logger *zap.Logger) *RedisLocker {
	if ttl <= 0 {
		ttl = DefaultLockTTL
	}
	return &RedisLocker{client: client, prefix: prefix, ttl: ttl, logger: logger}
}

func (l *RedisLocker) TryAcquire(ctx context.Context, key string) (func(), error) {
	redisKey := l.prefix + key
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, redisKey, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire generation lock: %w", err)
	}
	if !ok {
		return nil, model.ErrConcurrentGeneration
	}

	l.logger.Debug("Acquired generation lock", zap.String("key", redisKey))

	var once sync.Once
	return func() {
		once.Do(func() {
			// Release must outlive a cancelled generation context
			releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := releaseScript.Run(releaseCtx, l.client, []string{redisKey}, token).Err(); err != nil {
				l.logger.Warn("Failed to release generation lock", zap.String("key", redisKey), zap.Error(err))
			}
		})
	}, nil
}
