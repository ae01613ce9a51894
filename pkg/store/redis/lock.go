package redis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"hybridmcp/pkg/logger"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

const (
	lockTTL            = 30 * time.Second
	lockAcquireTimeout = 5 * time.Second
	lockRenewInterval  = 10 * time.Second
)

var (
	releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0`)

	renewScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("pexpire", KEYS[1], ARGV[2])
end
return 0`)
)

// Locker mutual exclusion across service replicas
type Locker interface {
	TryLock(ctx context.Context) (bool, error)
	Unlock(ctx context.Context) error
}

// DistributedLock Redis SET NX lock renewed while held.
// A nil client runs in single-instance mode and always acquires.
type DistributedLock struct {
	client *redis.Client
	key    string
	token  string
	ttl    time.Duration

	mu   sync.Mutex
	held bool
	stop chan struct{}
}

// NewDistributedLock creates a lock on key
func NewDistributedLock(client *redis.Client, key string) *DistributedLock {
	return &DistributedLock{
		client: client,
		key:    "lock:" + key,
		token:  uuid.NewString(),
		ttl:    lockTTL,
	}
}

// TryLock attempts to acquire the lock without waiting
func (l *DistributedLock) TryLock(ctx context.Context) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.held {
		return true, nil
	}
	if l.client == nil {
		l.held = true
		return true, nil
	}

	acquireCtx, cancel := context.WithTimeout(ctx, lockAcquireTimeout)
	defer cancel()

	ok, err := l.client.SetNX(acquireCtx, l.key, l.token, l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire lock %s: %w", l.key, err)
	}
	if !ok {
		logger.DebugCtx(ctx, "lock %s held by another instance", l.key)
		return false, nil
	}

	l.held = true
	l.stop = make(chan struct{})
	go l.renew(l.stop)
	return true, nil
}

// Unlock releases the lock if this instance still owns it
func (l *DistributedLock) Unlock(ctx context.Context) error {
	l.mu.Lock()
	if !l.held {
		l.mu.Unlock()
		return nil
	}
	l.held = false
	if l.stop != nil {
		close(l.stop)
		l.stop = nil
	}
	l.mu.Unlock()

	if l.client == nil {
		return nil
	}

	n, err := releaseScript.Run(ctx, l.client, []string{l.key}, l.token).Int64()
	if err != nil {
		return fmt.Errorf("failed to release lock %s: %w", l.key, err)
	}
	if n == 0 {
		logger.WarnCtx(ctx, "lock %s expired before release", l.key)
	}
	return nil
}

// IsHeld reports whether this instance believes it holds the lock
func (l *DistributedLock) IsHeld() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.held
}

func (l *DistributedLock) renew(stop <-chan struct{}) {
	ticker := time.NewTicker(lockRenewInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), lockAcquireTimeout)
			n, err := renewScript.Run(ctx, l.client, []string{l.key}, l.token, l.ttl.Milliseconds()).Int64()
			cancel()
			if err != nil || n == 0 {
				logger.Warnf("lock %s lost during renewal: %v", l.key, err)
				l.mu.Lock()
				l.held = false
				l.mu.Unlock()
				return
			}
		}
	}
}
