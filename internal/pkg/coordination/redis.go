package coordination

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// setNXArgs builds SET key value NX PX ms. The TTL is always sent in
// milliseconds, never rounded to EX seconds.
func setNXArgs(key string, value interface{}, ttl time.Duration) []interface{} {
	ms := ttl.Milliseconds()
	if ms < 1 {
		ms = 1
	}
	return []interface{}{"set", key, value, "nx", "px", ms}
}

func setNX(ctx context.Context, client *redis.Client, key string, value interface{}, ttl time.Duration) (bool, error) {
	err := client.Do(ctx, setNXArgs(key, value, ttl)...).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	return err == nil, err
}

// RedisLocker implements Locker with SET NX PX and a token-checked release
type RedisLocker struct {
	client *redis.Client
	prefix string
}

// NewRedisLocker creates a Redis-backed locker
func NewRedisLocker(client *redis.Client, prefix string) *RedisLocker {
	return &RedisLocker{client: client, prefix: prefix}
}

func (l *RedisLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (func(), bool, error) {
	fullKey := l.prefix + key
	token := uuid.New().String()

	ok, err := setNX(ctx, l.client, fullKey, token, ttl)
	if err != nil || !ok {
		return nil, false, err
	}

	release := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := releaseScript.Run(ctx, l.client, []string{fullKey}, token).Err(); err != nil {
			log.Warn().Err(err).Str("key", fullKey).Msg("Failed to release lock")
		}
	}
	return release, true, nil
}

// RedisSuppressor implements Suppressor with SET NX PX
type RedisSuppressor struct {
	client *redis.Client
	prefix string
}

// NewRedisSuppressor creates a Redis-backed suppressor
func NewRedisSuppressor(client *redis.Client, prefix string) *RedisSuppressor {
	return &RedisSuppressor{client: client, prefix: prefix}
}

func (s *RedisSuppressor) Allow(ctx context.Context, key string, window time.Duration) (bool, error) {
	return setNX(ctx, s.client, s.prefix+key, time.Now().Unix(), window)
}
