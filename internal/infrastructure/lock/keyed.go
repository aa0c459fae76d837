// Package lock provides an in-process GroupLocker for single-instance
// deployments and tests.
package lock

import (
	"context"
	"hash/fnv"
	"sync"
)

const defaultShards = 64

// Keyed maps each group id deterministically onto one of a fixed set of
// single-slot semaphores. Two groups may share a shard; one group never spans two.
type Keyed struct {
	shards []chan struct{}
}

// NewKeyed creates a Keyed locker with n shards. If n <= 0, defaultShards is used.
func NewKeyed(n int) *Keyed {
	if n <= 0 {
		n = defaultShards
	}
	k := &Keyed{shards: make([]chan struct{}, n)}
	for i := range k.shards {
		k.shards[i] = make(chan struct{}, 1)
	}
	return k
}

// Lock acquires the shard for groupID, giving up when ctx is done.
func (k *Keyed) Lock(ctx context.Context, groupID string) (func(), error) {
	ch := k.shards[k.shardIndex(groupID)]
	select {
	case ch <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	var once sync.Once
	return func() { once.Do(func() { <-ch }) }, nil
}

func (k *Keyed) shardIndex(groupID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(groupID))
	return int(h.Sum32() % uint32(len(k.shards)))
}
