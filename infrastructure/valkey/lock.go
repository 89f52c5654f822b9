package valkey

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

const releaseLockScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`

// Locker hands out short lease locks shared by every process using the same
// Valkey instance. The lock value is the owner id so only the holder releases it.
type Locker struct {
	client *Client
	owner  string
}

func NewLocker(client *Client, owner string) *Locker {
	return &Locker{client: client, owner: owner}
}

// Acquire tries SET key owner NX EX ttl once. Any Valkey error counts as not
// acquired, so a broken connection skips work instead of duplicating it.
func (l *Locker) Acquire(key string, ttl time.Duration) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	inner := l.client.inner
	cmd := inner.B().Set().
		Key(l.client.Key("lock", key)).
		Value(l.owner).
		Nx().
		Ex(ttl).
		Build()

	err := inner.Do(ctx, cmd).Error()
	if err == nil {
		return true
	}
	if !IsNil(err) {
		logrus.WithError(err).Warnf("[VALKEY] Failed to acquire lock %s", key)
	}
	return false
}

// Release drops the lock if this owner still holds it.
func (l *Locker) Release(key string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	inner := l.client.inner
	cmd := inner.B().Eval().
		Script(releaseLockScript).
		Numkeys(1).
		Key(l.client.Key("lock", key)).
		Arg(l.owner).
		Build()

	if err := inner.Do(ctx, cmd).Error(); err != nil && !IsNil(err) {
		logrus.WithError(err).Warnf("[VALKEY] Failed to release lock %s", key)
	}
}
