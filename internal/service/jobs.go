package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"lottoledger/internal/lock"
)

// JobRunner runs housekeeping jobs behind a switch and a cluster-wide lock.
type JobRunner struct {
	Flags   *SystemSettingsService
	Locker  lock.Locker
	LockTTL time.Duration
	Logger  *zap.Logger
}

// Run reports whether fn ran. A disabled switch or a lock held elsewhere skips it.
func (r *JobRunner) Run(ctx context.Context, name, switchKey string, fn func(ctx context.Context) error) (bool, error) {
	if r.Flags != nil && !r.Flags.IsEnabled(ctx, switchKey, true) {
		return false, nil
	}
	if r.Locker != nil {
		ttl := r.LockTTL
		if ttl <= 0 {
			ttl = 10 * time.Minute
		}
		release, ok, err := r.Locker.TryLock(ctx, "ledger:job:"+name, ttl)
		if err != nil {
			logWarn(r.Logger, "job lock failed", err, zap.String("job", name))
			return false, err
		}
		if !ok {
			if r.Logger != nil {
				r.Logger.Debug("job held elsewhere", zap.String("job", name))
			}
			return false, nil
		}
		defer release()
	}
	if err := fn(ctx); err != nil {
		logWarn(r.Logger, "job failed", err, zap.String("job", name))
		return true, err
	}
	return true, nil
}
