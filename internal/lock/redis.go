package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/newthinker/quantsafe/internal/core"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// releaseScript deletes the key only while it still holds our token, so an
// expired holder cannot release a newer one.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisConfig holds connection and key settings for Redis.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Key      string
	TTL      time.Duration
}

// Redis is a Guard shared by every instance pointing at the same key. The
// TTL bounds how long a crashed holder can block others.
type Redis struct {
	client *redis.Client
	key    string
	ttl    time.Duration
	logger *zap.Logger
}

// Dial connects to Redis and verifies the connection.
func Dial(cfg RedisConfig, logger *zap.Logger) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedis(client, cfg.Key, cfg.TTL, logger), nil
}

// NewRedis wraps an existing client.
func NewRedis(client *redis.Client, key string, ttl time.Duration, logger *zap.Logger) *Redis {
	if key == "" {
		key = "quantsafe:signal:inflight"
	}
	if ttl <= 0 {
		ttl = 3 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Redis{client: client, key: key, ttl: ttl, logger: logger}
}

// TryAcquire sets the key to a fresh token if it is absent.
func (r *Redis) TryAcquire(ctx context.Context) (func(), error) {
	token := uuid.NewString()

	ok, err := r.client.SetNX(ctx, r.key, token, r.ttl).Result()
	if err != nil {
		return nil, core.WrapError(core.ErrLockFailed, err)
	}
	if !ok {
		return nil, core.ErrBusy
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := releaseScript.Run(ctx, r.client, []string{r.key}, token).Err(); err != nil {
				r.logger.Warn("failed to release in-flight token",
					zap.String("key", r.key),
					zap.Error(err),
				)
			}
		})
	}, nil
}

// Close closes the Redis connection
func (r *Redis) Close() error {
	return r.client.Close()
}
