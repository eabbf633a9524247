package service

import (
	"context"
	"time"
)

// Locker is a shared mutual-exclusion primitive keyed by string with a lease
// timeout, backed by a store visible to every service replica. Acquire does
// not block: when the key is held elsewhere, acquired is false and the
// caller fails fast. The lease expires on its own, so a crashed holder never
// deadlocks a key.
//
// The lock is a throttle against redundant concurrent webhook work, not the
// correctness mechanism; the idempotency record and the store transaction
// are what guarantee exactly-once application.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(context.Context) error, acquired bool, err error)
}
