package application

import (
	"context"
	"time"

	pkgError "github.com/AzielCF/az-wabot/pkg/error"
)

const (
	storeLockKey   = "scheduler:status-store"
	lockRetryDelay = 200 * time.Millisecond
	lockWait       = 10 * time.Second
)

// SharedLock is a lease held by every process that mutates a schedule file
// shared with other processes, e.g. a Valkey lock. The zero value disables it.
type SharedLock struct {
	Acquire func(key string, ttl time.Duration) bool
	Release func(key string)
	TTL     time.Duration
}

func (l SharedLock) enabled() bool {
	return l.Acquire != nil
}

func (l SharedLock) ttl() time.Duration {
	if l.TTL <= 0 {
		return time.Minute
	}
	return l.TTL
}

func (l SharedLock) tryLock() bool {
	return l.Acquire(storeLockKey, l.ttl())
}

// lock retries until the lease is taken, ctx ends or lockWait passes.
func (l SharedLock) lock(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, lockWait)
	defer cancel()

	for {
		if l.tryLock() {
			return nil
		}
		select {
		case <-ctx.Done():
			return pkgError.PersistenceError("schedule store is busy, try again in a moment")
		case <-time.After(lockRetryDelay):
		}
	}
}

func (l SharedLock) unlock() {
	if l.Release != nil {
		l.Release(storeLockKey)
	}
}
