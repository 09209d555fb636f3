package agents

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"atlas/internal/domain/trace"
	"atlas/pkg/logger"
)

// Tracer accumulates tool call records for one run and forwards them to
// the trace store. A nil repository keeps the in-memory record only, which
// is what the streaming orchestrator uses for ad hoc runs.
type Tracer struct {
	runID string
	repo  trace.Repository
	log   *logger.Logger

	mu    sync.Mutex
	calls []*trace.ToolCall
}

// NewTracer creates a tracer for one run. repo may be nil.
func NewTracer(runID string, repo trace.Repository) *Tracer {
	return &Tracer{
		runID: runID,
		repo:  repo,
		log:   logger.Get().With("component", "tracer", "run_id", runID),
	}
}

// RunID returns the run this tracer belongs to
func (t *Tracer) RunID() string {
	return t.runID
}

// RecordToolCall appends one tool invocation to the audit trail
func (t *Tracer) RecordToolCall(ctx context.Context, agent, tool string, args, result map[string]interface{}, took time.Duration) {
	call := &trace.ToolCall{
		RunID:      t.runID,
		Agent:      agent,
		Tool:       tool,
		Arguments:  mustJSON(args),
		Result:     mustJSON(result),
		DurationMs: took.Milliseconds(),
		CalledAt:   time.Now().UTC(),
	}
	if errMsg, ok := result["error"].(string); ok {
		call.Error = errMsg
	}

	t.mu.Lock()
	t.calls = append(t.calls, call)
	t.mu.Unlock()

	if t.repo != nil {
		if err := t.repo.RecordToolCall(ctx, call); err != nil {
			t.log.Warnf("Failed to record tool call: %v", err)
		}
	}
}

// ToolCalls returns the in-memory audit trail in call order
func (t *Tracer) ToolCalls() []*trace.ToolCall {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]*trace.ToolCall, len(t.calls))
	copy(out, t.calls)
	return out
}

func mustJSON(v interface{}) string {
	if v == nil {
		return "{}"
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(data)
}
