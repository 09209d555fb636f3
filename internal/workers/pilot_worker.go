package workers

import (
	"context"
	"time"

	"atlas/internal/adapters/redis"
	"atlas/internal/agents"
	"atlas/internal/metrics"
	"atlas/pkg/errors"
)

const pilotLockKey = "pilot_run"

// PilotWorker triggers autonomous trading cycles on a fixed interval.
// A Redis lock keeps runs exclusive across replicas; the pilot's own
// guard handles concurrency within a single process.
type PilotWorker struct {
	*BaseWorker
	pilot   *agents.Pilot
	redis   *redis.Client
	lockTTL time.Duration
}

// NewPilotWorker creates a pilot worker
func NewPilotWorker(pilot *agents.Pilot, redis *redis.Client, interval, lockTTL time.Duration, enabled bool) *PilotWorker {
	return &PilotWorker{
		BaseWorker: NewBaseWorker("pilot", interval, enabled),
		pilot:      pilot,
		redis:      redis,
		lockTTL:    lockTTL,
	}
}

// Run executes one autonomous trading cycle
func (w *PilotWorker) Run(ctx context.Context) error {
	start := time.Now()

	if w.redis != nil {
		acquired, err := w.redis.AcquireLock(ctx, pilotLockKey, w.lockTTL)
		if err != nil {
			w.RecordError(err, time.Since(start))
			return errors.Wrap(err, "acquire pilot lock")
		}
		if !acquired {
			w.Log().Infow("Pilot run skipped, lock held elsewhere")
			metrics.RecordPilotRun("skipped")
			w.RecordRun(time.Since(start))
			return nil
		}
		defer func() {
			releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := w.redis.ReleaseLock(releaseCtx, pilotLockKey); err != nil {
				w.Log().Warnw("Failed to release pilot lock", "error", err)
			}
		}()
	}

	run, err := w.pilot.Run(ctx)
	if err != nil {
		if errors.Is(err, errors.ErrPilotRunning) {
			w.Log().Infow("Pilot run skipped, previous run still in progress")
			metrics.RecordPilotRun("skipped")
			w.RecordRun(time.Since(start))
			return nil
		}
		w.RecordError(err, time.Since(start))
		return errors.Wrap(err, "pilot run")
	}

	w.Log().Infow("Pilot cycle finished",
		"run_id", run.RunID,
		"status", run.Status,
		"duration", time.Since(start),
	)
	w.RecordRun(time.Since(start))
	return nil
}
