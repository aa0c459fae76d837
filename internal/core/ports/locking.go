package ports

import "context"

// GroupLocker serializes roster and ledger mutations for a single group.
// Lock blocks until the lock is held or ctx is done; the returned func
// releases it and is safe to call once.
type GroupLocker interface {
	Lock(ctx context.Context, groupID string) (func(), error)
}

// TokenGenerator produces opaque, unguessable strings (invite tokens, join codes).
type TokenGenerator func() (string, error)
