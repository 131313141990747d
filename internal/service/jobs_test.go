package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lottoledger/internal/lock"
)

func TestSystemSettings_Switches(t *testing.T) {
	f := newFixture(t)
	flags := &SystemSettingsService{Repo: f.store}
	ctx := context.Background()

	require.NoError(t, flags.EnsureDefaultSwitches(ctx))
	assert.True(t, flags.IsEnabled(ctx, JobShift, false))

	require.NoError(t, flags.SetEnabled(ctx, JobShift, false))
	assert.False(t, flags.IsEnabled(ctx, JobShift, true))

	// Re-seeding keeps the operator's choice.
	require.NoError(t, flags.EnsureDefaultSwitches(ctx))
	assert.False(t, flags.IsEnabled(ctx, JobShift, true))

	items, err := flags.List(ctx, "job.")
	require.NoError(t, err)
	assert.Len(t, items, 3)
	assert.True(t, flags.IsEnabled(ctx, "job.unknown", true))
}

func TestJobRunner(t *testing.T) {
	f := newFixture(t)
	flags := &SystemSettingsService{Repo: f.store}
	locker := lock.NewMemoryLocker()
	runner := &JobRunner{Flags: flags, Locker: locker, LockTTL: time.Minute}
	ctx := context.Background()

	calls := 0
	job := func(context.Context) error { calls++; return nil }

	ran, err := runner.Run(ctx, "shift", JobShift, job)
	require.NoError(t, err)
	assert.True(t, ran)

	release, ok, err := locker.TryLock(ctx, "ledger:job:shift", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
	ran, err = runner.Run(ctx, "shift", JobShift, job)
	require.NoError(t, err)
	assert.False(t, ran, "held by another replica")
	release()

	require.NoError(t, flags.SetEnabled(ctx, JobShift, false))
	ran, _ = runner.Run(ctx, "shift", JobShift, job)
	assert.False(t, ran)
	assert.Equal(t, 1, calls)

	boom := errors.New("boom")
	ran, err = runner.Run(ctx, "archive", JobArchive, func(context.Context) error { return boom })
	assert.True(t, ran)
	assert.ErrorIs(t, err, boom)
}
