// Package coordination provides cross-process guards for scheduled jobs:
// exclusive per-key locks and once-per-window suppression.
package coordination

import (
	"context"
	"time"
)

// Locker grants exclusive, expiring ownership of a key
type Locker interface {
	// TryLock returns ok=false without error when the key is held elsewhere.
	TryLock(ctx context.Context, key string, ttl time.Duration) (release func(), ok bool, err error)
}

// Suppressor reports whether an event keyed by key may fire now, at most once per window
type Suppressor interface {
	Allow(ctx context.Context, key string, window time.Duration) (bool, error)
}
