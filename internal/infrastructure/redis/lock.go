package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseLockScript deletes the key only when it still holds our token, so
// a lock that expired and was re-acquired by someone else is never released
// from under them.
var releaseLockScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`)

// ErrNotReleased is returned when a release finds the lock expired or held
// by a different token.
var ErrNotReleased = errors.New("lock not held or already released")

// LockManager hands out distributed leases backed by Redis SET NX with an
// expiry. At most one holder per key across all service replicas; the lease
// auto-expires if the holder crashes.
type LockManager struct {
	client *redis.Client
}

// NewLockManager creates a LockManager on the given client.
func NewLockManager(client *redis.Client) *LockManager {
	return &LockManager{client: client}
}

// Acquire attempts to take the lease for key. It does not block or retry:
// if the key is already held, acquired is false and the caller decides how
// to back off. On success the returned release function gives the lease
// back; the lease also expires on its own after ttl.
func (m *LockManager) Acquire(ctx context.Context, key string, ttl time.Duration) (release func(context.Context) error, acquired bool, err error) {
	lockKey := fmt.Sprintf("lock:%s", key)
	token := uuid.New().String()

	ok, err := m.client.SetNX(ctx, lockKey, token, ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("acquire lock %s: %w", key, err)
	}
	if !ok {
		return nil, false, nil
	}

	release = func(ctx context.Context) error {
		result, err := releaseLockScript.Run(ctx, m.client, []string{lockKey}, token).Result()
		if err != nil {
			return fmt.Errorf("release lock %s: %w", key, err)
		}
		if val, ok := result.(int64); !ok || val == 0 {
			return ErrNotReleased
		}
		return nil
	}
	return release, true, nil
}
