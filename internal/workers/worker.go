package workers

import (
	"context"
	"sync"
	"time"

	"atlas/pkg/logger"
)

// Worker is a periodic background job. Run executes one iteration and
// returns; the scheduler drives the cadence via Interval.
type Worker interface {
	Name() string
	Run(ctx context.Context) error
	Interval() time.Duration
	Enabled() bool
}

// Health is a point-in-time snapshot of a worker's run history
type Health struct {
	LastRun     time.Time
	LastError   error
	RunCount    int64
	ErrorCount  int64
	AvgDuration time.Duration
	Enabled     bool
}

// BaseWorker carries the identity, cadence, and health bookkeeping
// shared by all workers. Concrete workers embed it and implement Run.
type BaseWorker struct {
	name     string
	interval time.Duration
	log      *logger.Logger

	mu      sync.RWMutex
	enabled bool
	stats   runStats
}

type runStats struct {
	lastRun   time.Time
	lastError error
	runs      int64
	failures  int64
	totalTime time.Duration
}

// NewBaseWorker creates a new base worker
func NewBaseWorker(name string, interval time.Duration, enabled bool) *BaseWorker {
	return &BaseWorker{
		name:     name,
		interval: interval,
		enabled:  enabled,
		log:      logger.Get().With("worker", name),
	}
}

func (w *BaseWorker) Name() string            { return w.name }
func (w *BaseWorker) Interval() time.Duration { return w.interval }
func (w *BaseWorker) Log() *logger.Logger     { return w.log }

// Enabled reports whether the scheduler should run this worker
func (w *BaseWorker) Enabled() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.enabled
}

// SetEnabled toggles the worker without unregistering it
func (w *BaseWorker) SetEnabled(enabled bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.enabled = enabled
}

// RecordRun notes a successful iteration
func (w *BaseWorker) RecordRun(took time.Duration) {
	w.record(nil, took)
}

// RecordError notes a failed iteration
func (w *BaseWorker) RecordError(err error, took time.Duration) {
	w.record(err, took)
}

func (w *BaseWorker) record(err error, took time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.stats.lastRun = time.Now()
	w.stats.lastError = err
	w.stats.runs++
	w.stats.totalTime += took
	if err != nil {
		w.stats.failures++
	}
}

// Health returns the current run statistics
func (w *BaseWorker) Health() Health {
	w.mu.RLock()
	defer w.mu.RUnlock()

	var avg time.Duration
	if w.stats.runs > 0 {
		avg = w.stats.totalTime / time.Duration(w.stats.runs)
	}

	return Health{
		LastRun:     w.stats.lastRun,
		LastError:   w.stats.lastError,
		RunCount:    w.stats.runs,
		ErrorCount:  w.stats.failures,
		AvgDuration: avg,
		Enabled:     w.enabled,
	}
}
