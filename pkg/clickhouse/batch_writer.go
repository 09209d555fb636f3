package clickhouse

import (
	"context"
	"sync"
	"time"

	"atlas/pkg/logger"
)

const (
	defaultBatchSize = 200
	defaultMaxAge    = 5 * time.Second
)

// FlushFunc performs the INSERT for one accumulated batch
type FlushFunc func(ctx context.Context, batch []interface{}) error

// BatchWriter buffers rows in memory and writes them to ClickHouse in
// batches. ClickHouse penalizes single-row inserts heavily, so the
// tool-call audit trail goes through this writer instead of inserting
// per call.
type BatchWriter struct {
	table string
	flush FlushFunc
	log   *logger.Logger

	batchSize int
	maxAge    time.Duration

	mu     sync.Mutex
	rows   []interface{}
	active bool

	done chan struct{}
	wg   sync.WaitGroup
}

// BatchWriterConfig contains configuration for BatchWriter
type BatchWriterConfig struct {
	FlushFunc    FlushFunc
	TableName    string
	MaxBatchSize int
	MaxAge       time.Duration
}

// NewBatchWriter creates a writer for one destination table
func NewBatchWriter(cfg BatchWriterConfig) *BatchWriter {
	size := cfg.MaxBatchSize
	if size <= 0 {
		size = defaultBatchSize
	}
	age := cfg.MaxAge
	if age <= 0 {
		age = defaultMaxAge
	}

	return &BatchWriter{
		table:     cfg.TableName,
		flush:     cfg.FlushFunc,
		batchSize: size,
		maxAge:    age,
		rows:      make([]interface{}, 0, size),
		done:      make(chan struct{}),
		log:       logger.Get().With("component", "batch_writer", "table", cfg.TableName),
	}
}

// Start launches the periodic flush loop
func (w *BatchWriter) Start(ctx context.Context) {
	w.mu.Lock()
	if w.active {
		w.mu.Unlock()
		return
	}
	w.active = true
	w.mu.Unlock()

	w.wg.Add(1)
	go w.loop(ctx)

	w.log.Infow("Batch writer started", "batch_size", w.batchSize, "max_age", w.maxAge)
}

// Add buffers one row. The write happens inline when the buffer hits
// the batch size, otherwise on the next tick.
func (w *BatchWriter) Add(ctx context.Context, row interface{}) error {
	w.mu.Lock()
	w.rows = append(w.rows, row)
	full := len(w.rows) >= w.batchSize
	w.mu.Unlock()

	if full {
		return w.Flush(ctx)
	}
	return nil
}

// Flush writes everything currently buffered
func (w *BatchWriter) Flush(ctx context.Context) error {
	w.mu.Lock()
	if len(w.rows) == 0 {
		w.mu.Unlock()
		return nil
	}
	// Swap the buffer out so Add never waits on the INSERT
	batch := w.rows
	w.rows = make([]interface{}, 0, w.batchSize)
	w.mu.Unlock()

	started := time.Now()
	if err := w.flush(ctx, batch); err != nil {
		w.log.Errorw("Batch flush failed", "rows", len(batch), "error", err, "took", time.Since(started))
		return err
	}

	w.log.Debugw("Batch flushed", "rows", len(batch), "took", time.Since(started))
	return nil
}

// Stop flushes the remaining rows and waits for the loop to exit. The
// ctx bounds how long the shutdown may take.
func (w *BatchWriter) Stop(ctx context.Context) error {
	w.mu.Lock()
	if !w.active {
		w.mu.Unlock()
		return nil
	}
	w.active = false
	w.mu.Unlock()

	close(w.done)

	finished := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(finished)
	}()

	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		w.log.Warn("Batch writer stop timed out")
		return ctx.Err()
	}
}

// Pending returns the current buffer depth
func (w *BatchWriter) Pending() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.rows)
}

func (w *BatchWriter) loop(ctx context.Context) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.maxAge)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := w.Flush(ctx); err != nil {
				w.log.Errorw("Periodic flush failed", "error", err)
			}
		case <-w.done:
			w.finalFlush()
			return
		case <-ctx.Done():
			w.finalFlush()
			return
		}
	}
}

// finalFlush drains the buffer on a fresh context since the run
// context is usually already canceled at shutdown
func (w *BatchWriter) finalFlush() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := w.Flush(ctx); err != nil {
		w.log.Errorw("Final flush failed", "error", err)
	}
}
