package ports

import (
	"context"
	"time"
)

// UnlockFunc is a function that releases a lock.
type UnlockFunc func(ctx context.Context) error

// Locker defines the interface for concurrency control on a key.
// The compile service uses it so identical requests compile only once.
type Locker interface {
	// Lock acquires the lock for key. It blocks until the lock is acquired or
	// the context is canceled. ttl bounds how long a distributed lock survives
	// a crashed holder.
	// Returns an UnlockFunc that MUST be called to release the lock.
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}
