package lock

import (
	"context"
	"time"
)

// Locker hands out short-lived exclusive leases so that only one replica runs a job.
type Locker interface {
	// TryLock returns ok=false without error when someone else holds key.
	TryLock(ctx context.Context, key string, ttl time.Duration) (release func(), ok bool, err error)
}
