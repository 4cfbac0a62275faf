package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

// ErrLockHeld is returned when another run already holds the lock
var ErrLockHeld = errors.New("lock is held by another run")

// ReleaseFunc releases a lock acquired through a Locker
type ReleaseFunc func(ctx context.Context) error

// Locker serializes generation runs per key
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (ReleaseFunc, error)
}

type memoryLock struct {
	token     string
	expiresAt time.Time
}

// memoryLocker is a process-local Locker. Expired entries are taken over.
type memoryLocker struct {
	mu    sync.Mutex
	locks map[string]memoryLock
	now   func() time.Time
}

// NewMemoryLocker creates a Locker for single-instance deployments
func NewMemoryLocker() Locker {
	return &memoryLocker{
		locks: make(map[string]memoryLock),
		now:   time.Now,
	}
}

func (l *memoryLocker) Acquire(_ context.Context, key string, ttl time.Duration) (ReleaseFunc, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if held, ok := l.locks[key]; ok && now.Before(held.expiresAt) {
		return nil, ErrLockHeld
	}

	token := uuid.NewString()
	l.locks[key] = memoryLock{token: token, expiresAt: now.Add(ttl)}

	return func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		if held, ok := l.locks[key]; ok && held.token == token {
			delete(l.locks, key)
		}
		return nil
	}, nil
}

// releaseScript deletes the key only if it still carries our token
var releaseScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// redisLocker is a Locker shared by every instance using the same Redis
type redisLocker struct {
	rdb    goredis.UniversalClient
	prefix string
}

// NewRedisLocker creates a Locker backed by SET NX PX
func NewRedisLocker(rdb goredis.UniversalClient) Locker {
	return &redisLocker{rdb: rdb, prefix: "matchmaker:lock:"}
}

// NewRedisClient connects to the Redis at redisURL and verifies it answers
func NewRedisClient(ctx context.Context, redisURL string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	if opts.DialTimeout == 0 {
		opts.DialTimeout = 5 * time.Second
	}

	rdb := goredis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

func (l *redisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (ReleaseFunc, error) {
	redisKey := l.prefix + key
	token := uuid.NewString()

	ok, err := l.rdb.SetNX(ctx, redisKey, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("redis lock %s: %w", redisKey, err)
	}
	if !ok {
		return nil, ErrLockHeld
	}

	return func(ctx context.Context) error {
		if err := releaseScript.Run(ctx, l.rdb, []string{redisKey}, token).Err(); err != nil {
			return fmt.Errorf("redis unlock %s: %w", redisKey, err)
		}
		return nil
	}, nil
}
