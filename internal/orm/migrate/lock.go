package migrate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrLocked is returned when another process holds the migration lock
var ErrLocked = errors.New("migration lock is held by another process")

// Locker serializes migration runs across processes
type Locker interface {
	// Lock acquires the lock and returns the function releasing it
	Lock(ctx context.Context) (unlock func(ctx context.Context) error, err error)
}

// WithLock runs fn while holding locker. A nil locker runs fn unlocked.
func WithLock(ctx context.Context, locker Locker, fn func(ctx context.Context) error) (err error) {
	if locker == nil {
		return fn(ctx)
	}

	unlock, err := locker.Lock(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if unlockErr := unlock(context.WithoutCancel(ctx)); unlockErr != nil && err == nil {
			err = unlockErr
		}
	}()

	return fn(ctx)
}

// RedisLockerConfig holds configuration for the Redis migration lock
type RedisLockerConfig struct {
	// Client is the Redis client to use
	Client *redis.Client
	// Key is the Redis key guarding migrations
	Key string
	// TTL bounds how long a crashed holder keeps the lock
	TTL time.Duration
}

// DefaultRedisLockerConfig returns a lock on "apolon:migrate:lock" held for at most one minute
func DefaultRedisLockerConfig(client *redis.Client) RedisLockerConfig {
	return RedisLockerConfig{
		Client: client,
		Key:    "apolon:migrate:lock",
		TTL:    time.Minute,
	}
}

// RedisLocker is a Locker backed by a Redis key set with NX and a TTL.
// Release deletes the key only while it still holds this holder's token.
type RedisLocker struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

var releaseScript = redis.NewScript(`
	if redis.call('GET', KEYS[1]) == ARGV[1] then
		return redis.call('DEL', KEYS[1])
	end
	return 0
`)

// NewRedisLocker creates a Redis migration lock
func NewRedisLocker(config RedisLockerConfig) (*RedisLocker, error) {
	if config.Client == nil {
		return nil, errors.New("redis client is required")
	}
	if config.Key == "" {
		return nil, errors.New("lock key is required")
	}
	if config.TTL <= 0 {
		return nil, errors.New("ttl must be greater than 0")
	}

	return &RedisLocker{
		client: config.Client,
		key:    config.Key,
		ttl:    config.TTL,
	}, nil
}

// Lock implements Locker
func (l *RedisLocker) Lock(ctx context.Context) (func(ctx context.Context) error, error) {
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, l.key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire migration lock: %w", err)
	}
	if !ok {
		return nil, ErrLocked
	}

	return func(ctx context.Context) error {
		if err := releaseScript.Run(ctx, l.client, []string{l.key}, token).Err(); err != nil {
			return fmt.Errorf("failed to release migration lock: %w", err)
		}
		return nil
	}, nil
}
