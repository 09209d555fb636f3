package workers

import (
	"context"
	"time"

	"atlas/internal/adapters/redis"
	"atlas/internal/agents"
	"atlas/pkg/errors"
)

const competitionLockKey = "competition_run"

// CompetitionWorker runs the model trading competition on a fixed
// interval, one cycle for every competitor. Exclusive across replicas
// via the same Redis lock scheme the pilot uses.
type CompetitionWorker struct {
	*BaseWorker
	competition *agents.Competition
	redis       *redis.Client
	lockTTL     time.Duration
}

// NewCompetitionWorker creates a competition worker
func NewCompetitionWorker(competition *agents.Competition, redis *redis.Client, interval, lockTTL time.Duration, enabled bool) *CompetitionWorker {
	return &CompetitionWorker{
		BaseWorker:  NewBaseWorker("competition", interval, enabled),
		competition: competition,
		redis:       redis,
		lockTTL:     lockTTL,
	}
}

// Run executes one competition cycle across the whole field
func (w *CompetitionWorker) Run(ctx context.Context) error {
	start := time.Now()

	if w.redis != nil {
		acquired, err := w.redis.AcquireLock(ctx, competitionLockKey, w.lockTTL)
		if err != nil {
			w.RecordError(err, time.Since(start))
			return errors.Wrap(err, "acquire competition lock")
		}
		if !acquired {
			w.Log().Infow("Competition cycle skipped, lock held elsewhere")
			w.RecordRun(time.Since(start))
			return nil
		}
		defer func() {
			releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := w.redis.ReleaseLock(releaseCtx, competitionLockKey); err != nil {
				w.Log().Warnw("Failed to release competition lock", "error", err)
			}
		}()
	}

	results, err := w.competition.Run(ctx)
	if err != nil {
		if errors.Is(err, errors.ErrCompetitionRunning) {
			w.Log().Infow("Competition cycle skipped, previous cycle still in progress")
			w.RecordRun(time.Since(start))
			return nil
		}
		w.RecordError(err, time.Since(start))
		return errors.Wrap(err, "competition run")
	}

	failed := 0
	for _, r := range results {
		if r.Error != "" {
			failed++
		}
	}
	w.Log().Infow("Competition cycle finished",
		"competitors", len(results),
		"failed", failed,
		"duration", time.Since(start),
	)
	w.RecordRun(time.Since(start))
	return nil
}
