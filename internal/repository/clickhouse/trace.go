package clickhouse

import (
	"context"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"atlas/internal/domain/trace"
	"atlas/pkg/clickhouse"
	"atlas/pkg/errors"
	"atlas/pkg/logger"
)

// Compile-time check
var _ trace.Repository = (*TraceRepository)(nil)

// TraceRepository implements trace.Repository for ClickHouse.
// Pilot runs are written directly, tool call audit records go through
// a batch writer since a single run can produce dozens of them.
type TraceRepository struct {
	conn        driver.Conn
	batchWriter *clickhouse.BatchWriter
	log         *logger.Logger
}

// NewTraceRepository creates a new trace repository
func NewTraceRepository(conn driver.Conn) *TraceRepository {
	repo := &TraceRepository{
		conn: conn,
		log:  logger.Get().With("component", "trace_repository"),
	}

	repo.batchWriter = clickhouse.NewBatchWriter(clickhouse.BatchWriterConfig{
		FlushFunc:    repo.flushToolCalls,
		TableName:    "tool_calls",
		MaxBatchSize: 200,
		MaxAge:       5 * time.Second,
	})

	return repo
}

// Start begins the background flush loop
func (r *TraceRepository) Start(ctx context.Context) {
	r.batchWriter.Start(ctx)
}

// Stop gracefully shuts down the batch writer
func (r *TraceRepository) Stop(ctx context.Context) error {
	return r.batchWriter.Stop(ctx)
}

// SaveRun persists a completed pilot run trace
func (r *TraceRepository) SaveRun(ctx context.Context, run *trace.Run) error {
	query := `
		INSERT INTO agent_runs (
			run_id, user_id, mode, status,
			input, tools_called, reasoning, decisions, reflection, error,
			duration_ms, started_at, ended_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	err := r.conn.Exec(ctx, query,
		run.RunID, run.UserID, run.Mode, run.Status.String(),
		run.Input, run.ToolsCalled, run.Reasoning, run.Decisions, run.Reflection, run.Error,
		run.DurationMs, run.StartedAt, run.EndedAt,
	)
	if err != nil {
		return errors.Wrap(err, "failed to save run trace")
	}

	return nil
}

// RecordToolCall buffers a tool call audit record
func (r *TraceRepository) RecordToolCall(ctx context.Context, call *trace.ToolCall) error {
	return r.batchWriter.Add(ctx, call)
}

// GetRuns retrieves the most recent pilot runs
func (r *TraceRepository) GetRuns(ctx context.Context, limit int) ([]*trace.Run, error) {
	query := `
		SELECT run_id, user_id, mode, status,
		       input, tools_called, reasoning, decisions, reflection, error,
		       duration_ms, started_at, ended_at
		FROM agent_runs
		ORDER BY started_at DESC
		LIMIT ?`

	rows, err := r.conn.Query(ctx, query, limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query runs")
	}
	defer rows.Close()

	var runs []*trace.Run
	for rows.Next() {
		var run trace.Run
		var status string
		if err := rows.Scan(
			&run.RunID, &run.UserID, &run.Mode, &status,
			&run.Input, &run.ToolsCalled, &run.Reasoning, &run.Decisions, &run.Reflection, &run.Error,
			&run.DurationMs, &run.StartedAt, &run.EndedAt,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan run")
		}
		run.Status = trace.RunStatus(status)
		runs = append(runs, &run)
	}

	return runs, nil
}

// GetToolCalls retrieves the tool call audit trail for a run
func (r *TraceRepository) GetToolCalls(ctx context.Context, runID string) ([]*trace.ToolCall, error) {
	query := `
		SELECT run_id, agent, tool, arguments, result, error, duration_ms, called_at
		FROM tool_calls
		WHERE run_id = ?
		ORDER BY called_at`

	rows, err := r.conn.Query(ctx, query, runID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query tool calls")
	}
	defer rows.Close()

	var calls []*trace.ToolCall
	for rows.Next() {
		var call trace.ToolCall
		if err := rows.Scan(
			&call.RunID, &call.Agent, &call.Tool, &call.Arguments,
			&call.Result, &call.Error, &call.DurationMs, &call.CalledAt,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan tool call")
		}
		calls = append(calls, &call)
	}

	return calls, nil
}

// flushToolCalls performs the batch INSERT for buffered tool call records
func (r *TraceRepository) flushToolCalls(ctx context.Context, batch []interface{}) error {
	if len(batch) == 0 {
		return nil
	}

	query := `
		INSERT INTO tool_calls (
			run_id, agent, tool, arguments, result, error, duration_ms, called_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	stmt, err := r.conn.PrepareBatch(ctx, query)
	if err != nil {
		return errors.Wrap(err, "failed to prepare batch")
	}
	defer stmt.Close()

	validItems := 0
	for _, item := range batch {
		call, ok := item.(*trace.ToolCall)
		if !ok {
			r.log.Warnf("Skipping invalid item type: %T", item)
			continue
		}

		if err := stmt.Append(
			call.RunID, call.Agent, call.Tool, call.Arguments,
			call.Result, call.Error, call.DurationMs, call.CalledAt,
		); err != nil {
			return errors.Wrap(err, "failed to append to batch")
		}
		validItems++
	}

	if err := stmt.Send(); err != nil {
		return errors.Wrap(err, "failed to send batch")
	}

	r.log.Debugf("Batch inserted %d tool call records", validItems)
	return nil
}
