package lock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLocker_Exclusive(t *testing.T) {
	l := NewMemoryLocker()
	ctx := context.Background()

	release, ok, err := l.TryLock(ctx, "job:shift", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = l.TryLock(ctx, "job:shift", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "second holder must be refused")

	_, ok, err = l.TryLock(ctx, "job:archive", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok, "keys are independent")

	release()
	_, ok, err = l.TryLock(ctx, "job:shift", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMemoryLocker_Expiry(t *testing.T) {
	l := NewMemoryLocker()
	now := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	ctx := context.Background()

	staleRelease, ok, _ := l.TryLock(ctx, "k", time.Second)
	require.True(t, ok)

	now = now.Add(2 * time.Second)
	_, ok, _ = l.TryLock(ctx, "k", time.Second)
	require.True(t, ok, "expired lease can be taken over")

	// The stale holder must not release the new lease.
	staleRelease()
	_, ok, _ = l.TryLock(ctx, "k", time.Second)
	assert.False(t, ok)
}

func TestRedisLocker_SatisfiesLocker(t *testing.T) {
	var _ Locker = (*RedisLocker)(nil)
	var _ Locker = (*MemoryLocker)(nil)
	assert.NoError(t, (*RedisLocker)(nil).Close())
}
