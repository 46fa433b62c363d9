package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/meinhoongagan/clinic-queue/utils"
)

// Locker serializes the single-writer critical sections of the queue:
// number assignment and the scheduled→called guard, keyed per
// (doctor, service date). Operations on different doctors or days must not
// contend with each other.
type Locker interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

func lockKey(doctorID uint, serviceDate time.Time) string {
	return fmt.Sprintf("queuelock:%d:%s", doctorID, serviceDate.Format("2006-01-02"))
}

// MutexLocker keys a mutex per lock key. Enough for a single-process
// deployment and for tests.
type MutexLocker struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewMutexLocker() *MutexLocker {
	return &MutexLocker{locks: make(map[string]*sync.Mutex)}
}

func (l *MutexLocker) Acquire(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	m, ok := l.locks[key]
	if !ok {
		m = &sync.Mutex{}
		l.locks[key] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock, nil
}

// releaseScript deletes the lock key only if this process still owns it.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker takes a SET NX PX lock so multiple service instances sharing
// one database still serialize per doctor/day.
type RedisLocker struct {
	Client *redis.Client
	// TTL bounds how long a crashed holder can block a doctor's queue.
	TTL time.Duration
	// RetryDelay between acquisition attempts.
	RetryDelay time.Duration
}

func NewRedisLocker(client *redis.Client) *RedisLocker {
	return &RedisLocker{
		Client:     client,
		TTL:        5 * time.Second,
		RetryDelay: 25 * time.Millisecond,
	}
}

func (l *RedisLocker) Acquire(ctx context.Context, key string) (func(), error) {
	token := utils.GenerateUUID()

	for {
		ok, err := l.Client.SetNX(ctx, key, token, l.TTL).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to acquire lock %s: %w", key, err)
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.RetryDelay):
		}
	}

	release := func() {
		_, _ = releaseScript.Run(context.Background(), l.Client, []string{key}, token).Result()
	}
	return release, nil
}
