package workers

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockWorker struct {
	*BaseWorker
	runCount int32
	runFunc  func(ctx context.Context) error
}

func newMockWorker(name string, interval time.Duration, enabled bool) *mockWorker {
	return &mockWorker{
		BaseWorker: NewBaseWorker(name, interval, enabled),
		runFunc:    func(ctx context.Context) error { return nil },
	}
}

func (m *mockWorker) Run(ctx context.Context) error {
	atomic.AddInt32(&m.runCount, 1)
	if m.runFunc != nil {
		return m.runFunc(ctx)
	}
	return nil
}

func (m *mockWorker) runs() int {
	return int(atomic.LoadInt32(&m.runCount))
}

func TestSchedulerStartStop(t *testing.T) {
	scheduler := NewScheduler()

	worker := newMockWorker("test-worker", 100*time.Millisecond, true)
	scheduler.Register(worker)

	err := scheduler.Start(context.Background())
	require.NoError(t, err)
	assert.True(t, scheduler.IsRunning())

	time.Sleep(250 * time.Millisecond)

	err = scheduler.Stop()
	require.NoError(t, err)
	assert.False(t, scheduler.IsRunning())

	// Immediate run plus at least one tick
	assert.GreaterOrEqual(t, worker.runs(), 2)
}

func TestSchedulerDisabledWorker(t *testing.T) {
	scheduler := NewScheduler()

	enabled := newMockWorker("enabled-worker", 100*time.Millisecond, true)
	disabled := newMockWorker("disabled-worker", 100*time.Millisecond, false)

	scheduler.Register(enabled)
	scheduler.Register(disabled)

	require.NoError(t, scheduler.Start(context.Background()))
	time.Sleep(250 * time.Millisecond)
	require.NoError(t, scheduler.Stop())

	assert.Greater(t, enabled.runs(), 0)
	assert.Equal(t, 0, disabled.runs())
}

func TestSchedulerSurvivesWorkerPanic(t *testing.T) {
	scheduler := NewScheduler()

	worker := newMockWorker("panicky-worker", 50*time.Millisecond, true)
	worker.runFunc = func(ctx context.Context) error {
		panic("boom")
	}
	scheduler.Register(worker)

	require.NoError(t, scheduler.Start(context.Background()))
	time.Sleep(200 * time.Millisecond)
	require.NoError(t, scheduler.Stop())

	// Panics are recovered per iteration, so the loop keeps going
	assert.GreaterOrEqual(t, worker.runs(), 2)
}

func TestSchedulerCannotStartTwice(t *testing.T) {
	scheduler := NewScheduler()
	scheduler.Register(newMockWorker("test-worker", 100*time.Millisecond, true))

	require.NoError(t, scheduler.Start(context.Background()))
	assert.Error(t, scheduler.Start(context.Background()))

	scheduler.Stop()
}

func TestSchedulerRejectsLateRegistration(t *testing.T) {
	scheduler := NewScheduler()
	scheduler.Register(newMockWorker("early-worker", 100*time.Millisecond, true))

	require.NoError(t, scheduler.Start(context.Background()))
	defer scheduler.Stop()

	scheduler.Register(newMockWorker("late-worker", 100*time.Millisecond, true))
	assert.Len(t, scheduler.Workers(), 1)
}

func TestSchedulerWorkers(t *testing.T) {
	scheduler := NewScheduler()

	scheduler.Register(newMockWorker("worker-1", 100*time.Millisecond, true))
	scheduler.Register(newMockWorker("worker-2", 200*time.Millisecond, false))

	workers := scheduler.Workers()
	require.Len(t, workers, 2)
	assert.Equal(t, "worker-1", workers[0].Name())
	assert.Equal(t, "worker-2", workers[1].Name())
}

func TestBaseWorkerHealth(t *testing.T) {
	w := NewBaseWorker("health-worker", time.Minute, true)

	w.RecordRun(100 * time.Millisecond)
	w.RecordError(assert.AnError, 300*time.Millisecond)

	h := w.Health()
	assert.Equal(t, int64(2), h.RunCount)
	assert.Equal(t, int64(1), h.ErrorCount)
	assert.Equal(t, assert.AnError, h.LastError)
	assert.Equal(t, 200*time.Millisecond, h.AvgDuration)
	assert.True(t, h.Enabled)
}
