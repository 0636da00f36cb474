// Package lock provides per-entry write exclusivity for the storage collaborator.
package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
)

// ErrNotObtained is returned when another writer currently holds the key.
var ErrNotObtained = errors.New("could not obtain lock, record is being modified")

// DefaultTTL bounds how long a crashed holder can block a key.
const DefaultTTL = 30 * time.Second

// Release gives a held key back.
type Release func(ctx context.Context) error

// Locker hands out exclusive, non-blocking holds on string keys.
type Locker interface {
	Obtain(ctx context.Context, key string) (Release, error)
}

// EntryKey is the lock key guarding writes to one entry.
func EntryKey(id int64) string {
	return fmt.Sprintf("lock:entry:%d", id)
}

// RedisLocker shares holds across processes through Redis.
type RedisLocker struct {
	client *redislock.Client
	ttl    time.Duration
}

// Connect opens a Redis client and verifies the connection.
func Connect(ctx context.Context, addr, password string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to ping redis at %s: %w", addr, err)
	}
	return rdb, nil
}

// NewRedisLocker wraps a Redis client. A non-positive ttl falls back to DefaultTTL.
func NewRedisLocker(rdb redis.UniversalClient, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisLocker{client: redislock.New(rdb), ttl: ttl}
}

func (l *RedisLocker) Obtain(ctx context.Context, key string) (Release, error) {
	held, err := l.client.Obtain(ctx, key, l.ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, fmt.Errorf("%s: %w", key, ErrNotObtained)
	}
	if err != nil {
		return nil, fmt.Errorf("obtain %s: %w", key, err)
	}
	return held.Release, nil
}

// LocalLocker serializes writers inside a single process.
type LocalLocker struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{held: make(map[string]struct{})}
}

func (l *LocalLocker) Obtain(_ context.Context, key string) (Release, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, busy := l.held[key]; busy {
		return nil, fmt.Errorf("%s: %w", key, ErrNotObtained)
	}
	l.held[key] = struct{}{}

	var once sync.Once
	return func(context.Context) error {
		once.Do(func() {
			l.mu.Lock()
			delete(l.held, key)
			l.mu.Unlock()
		})
		return nil
	}, nil
}
