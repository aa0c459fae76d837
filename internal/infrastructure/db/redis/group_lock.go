package redis

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	defaultLockTTL   = 10 * time.Second
	lockRetryBackoff = 25 * time.Millisecond
)

// ErrLockTimeout is returned when the lock could not be acquired before the deadline.
var ErrLockTimeout = errors.New("group lock: timed out")

// releaseScript deletes the key only if this holder still owns it.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// GroupLock serializes per-group mutations across instances.
// Key format: lock:group:<group_id>
type GroupLock struct {
	client *redis.Client
	ttl    time.Duration
	wait   time.Duration
}

// NewGroupLock creates a GroupLock. ttl bounds how long a crashed holder can
// block others; it is also the default wait when ctx has no deadline.
func NewGroupLock(client *redis.Client, ttl time.Duration) *GroupLock {
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &GroupLock{client: client, ttl: ttl, wait: ttl}
}

// Lock spins on SET NX until it owns the key, ctx is done, or the wait elapses.
func (l *GroupLock) Lock(ctx context.Context, groupID string) (func(), error) {
	key := l.key(groupID)
	owner := uuid.NewString()

	deadline := time.Now().Add(l.wait)
	for {
		ok, err := l.client.SetNX(ctx, key, owner, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("group lock %s: %w", groupID, err)
		}
		if ok {
			break
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("%w (%s)", ErrLockTimeout, groupID)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(lockRetryBackoff):
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			// Release on a fresh context so a cancelled request still frees the key.
			rctx, cancel := context.WithTimeout(context.Background(), defaultPingTimeout)
			defer cancel()
			_ = releaseScript.Run(rctx, l.client, []string{key}, owner).Err()
		})
	}, nil
}

func (l *GroupLock) key(groupID string) string {
	return "lock:group:" + groupID
}
