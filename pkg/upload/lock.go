package upload

import (
	"context"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/filez-project/filez/pkg/errtypes"
	"github.com/filez-project/filez/pkg/model"
)

// Locker acquires the per-version advisory lock required for the
// duration of a single PATCH (spec §4.6 "Idempotency & concurrency").
// Release is a no-op once the lock has already expired or been released.
type Locker interface {
	Acquire(ctx context.Context, versionID string) (release func(), err error)
}

// redisLocker implements the advisory lock with a `SET key val NX EX`,
// matching the teacher's "shared resource behind a swappable backend"
// idiom (pkg/storage/favorite has both a memory and a backed
// implementation) applied here to locking instead of favorites.
type redisLocker struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisLocker builds a Locker backed by a Redis server.
func NewRedisLocker(client *redis.Client, ttl time.Duration) Locker {
	return &redisLocker{client: client, ttl: ttl}
}

func (l *redisLocker) Acquire(ctx context.Context, versionID string) (func(), error) {
	key := "filez:upload-lock:" + versionID
	token := model.NewID().String()
	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errtypes.Locked(versionID)
	}
	return func() {
		// Delete the key only while it still holds this acquisition's
		// token, so a late release never drops another caller's lock.
		redis.NewScript(`if redis.call("GET", KEYS[1]) == ARGV[1] then return redis.call("DEL", KEYS[1]) end return 0`).
			Run(context.Background(), l.client, []string{key}, token)
	}, nil
}

// memoryLocker is the in-process fallback used when REDIS_URL is unset
// (dev/test, single-instance deployments).
type memoryLocker struct {
	locks sync.Map // versionID string -> *byte token of the current holder
}

// NewMemoryLocker builds a Locker with no external dependency, correct
// only within a single process.
func NewMemoryLocker() Locker { return &memoryLocker{} }

func (l *memoryLocker) Acquire(ctx context.Context, versionID string) (func(), error) {
	token := new(byte)
	if _, loaded := l.locks.LoadOrStore(versionID, token); loaded {
		return nil, errtypes.Locked(versionID)
	}
	return func() { l.locks.CompareAndDelete(versionID, token) }, nil
}
