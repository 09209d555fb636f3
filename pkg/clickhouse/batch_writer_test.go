package clickhouse

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type flushRecorder struct {
	mu      sync.Mutex
	batches [][]interface{}
}

func (r *flushRecorder) flush(_ context.Context, batch []interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches = append(r.batches, batch)
	return nil
}

func (r *flushRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.batches)
}

func (r *flushRecorder) batch(i int) []interface{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.batches[i]
}

func TestBatchWriterFlushesWhenFull(t *testing.T) {
	rec := &flushRecorder{}
	w := NewBatchWriter(BatchWriterConfig{
		FlushFunc:    rec.flush,
		TableName:    "tool_calls",
		MaxBatchSize: 3,
		MaxAge:       time.Minute,
	})

	ctx := context.Background()
	require.NoError(t, w.Add(ctx, "a"))
	require.NoError(t, w.Add(ctx, "b"))
	assert.Equal(t, 0, rec.count())

	require.NoError(t, w.Add(ctx, "c"))

	require.Equal(t, 1, rec.count())
	assert.Len(t, rec.batch(0), 3)
	assert.Equal(t, 0, w.Pending())
}

func TestBatchWriterFlushesOnTicker(t *testing.T) {
	rec := &flushRecorder{}
	w := NewBatchWriter(BatchWriterConfig{
		FlushFunc:    rec.flush,
		TableName:    "tool_calls",
		MaxBatchSize: 100,
		MaxAge:       50 * time.Millisecond,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)

	require.NoError(t, w.Add(ctx, "a"))
	require.NoError(t, w.Add(ctx, "b"))

	assert.Eventually(t, func() bool { return rec.count() >= 1 }, time.Second, 10*time.Millisecond)
	assert.Len(t, rec.batch(0), 2)

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer stopCancel()
	require.NoError(t, w.Stop(stopCtx))
}

func TestBatchWriterStopDrainsBuffer(t *testing.T) {
	rec := &flushRecorder{}
	w := NewBatchWriter(BatchWriterConfig{
		FlushFunc:    rec.flush,
		TableName:    "agent_runs",
		MaxBatchSize: 100,
		MaxAge:       time.Minute,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)

	require.NoError(t, w.Add(ctx, "a"))
	require.NoError(t, w.Add(ctx, "b"))

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer stopCancel()
	require.NoError(t, w.Stop(stopCtx))

	require.Equal(t, 1, rec.count())
	assert.Len(t, rec.batch(0), 2)
	assert.Equal(t, 0, w.Pending())
}

func TestBatchWriterEmptyFlushSkipsInsert(t *testing.T) {
	rec := &flushRecorder{}
	w := NewBatchWriter(BatchWriterConfig{
		FlushFunc: rec.flush,
		TableName: "agent_runs",
	})

	require.NoError(t, w.Flush(context.Background()))
	assert.Equal(t, 0, rec.count())
}
