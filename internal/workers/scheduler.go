package workers

import (
	"context"
	"sync"
	"time"

	"atlas/internal/metrics"
	"atlas/pkg/errors"
	"atlas/pkg/logger"
)

// Shutdown must outlast a pilot cycle still in flight, which can take
// a few minutes of model calls.
const stopTimeout = 2 * time.Minute

// Scheduler runs registered workers on their own tickers and owns
// their lifecycle.
type Scheduler struct {
	mu      sync.RWMutex
	workers []Worker
	started bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	log    *logger.Logger
}

func NewScheduler() *Scheduler {
	return &Scheduler{
		log: logger.Get().With("component", "scheduler"),
	}
}

// Register adds a worker. Registration closes once Start is called.
func (s *Scheduler) Register(w Worker) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		s.log.Warnw("Cannot register worker after scheduler has started", "worker", w.Name())
		return
	}

	s.workers = append(s.workers, w)
	s.log.Infow("Worker registered", "worker", w.Name(), "interval", w.Interval())
}

// Start launches a goroutine per enabled worker.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return errors.Wrap(errors.ErrInternal, "scheduler already started")
	}
	s.started = true
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.mu.Unlock()

	for _, w := range s.workers {
		if !w.Enabled() {
			s.log.Infow("Skipping disabled worker", "worker", w.Name())
			continue
		}
		s.wg.Add(1)
		go func(w Worker) {
			defer s.wg.Done()
			s.loop(w)
		}(w)
	}

	s.log.Infow("Worker scheduler started", "workers", len(s.workers))
	return nil
}

// Stop cancels all workers and waits for them to drain, up to
// stopTimeout.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return errors.Wrap(errors.ErrInternal, "scheduler not started")
	}
	s.cancel()
	s.mu.Unlock()

	s.log.Info("Stopping worker scheduler...")

	drained := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(drained)
	}()

	var err error
	select {
	case <-drained:
		s.log.Info("All workers stopped")
	case <-time.After(stopTimeout):
		s.log.Warnw("Worker shutdown timed out", "timeout", stopTimeout)
		err = errors.Wrap(errors.ErrTimeout, "worker shutdown")
	}

	s.mu.Lock()
	s.started = false
	s.mu.Unlock()
	return err
}

// Workers returns a snapshot of the registered workers.
func (s *Scheduler) Workers() []Worker {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Worker, len(s.workers))
	copy(out, s.workers)
	return out
}

func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}

// loop runs the worker once at startup and then on every tick until
// the scheduler context is cancelled.
func (s *Scheduler) loop(w Worker) {
	ticker := time.NewTicker(w.Interval())
	defer ticker.Stop()

	for {
		s.runOnce(w)

		select {
		case <-s.ctx.Done():
			s.log.Infow("Worker stopping", "worker", w.Name())
			return
		case <-ticker.C:
		}
	}
}

// runOnce executes a single iteration, converting panics into logged
// failures so one bad cycle never kills the loop.
func (s *Scheduler) runOnce(w Worker) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			s.log.Errorw("Worker panicked", "worker", w.Name(), "panic", r)
		}
	}()

	err := w.Run(s.ctx)
	took := time.Since(start)
	metrics.RecordWorkerRun(w.Name(), took, err)

	if err != nil {
		s.log.Errorw("Worker execution failed", "worker", w.Name(), "error", err, "duration", took)
		return
	}
	s.log.Debugw("Worker execution completed", "worker", w.Name(), "duration", took)
}
