package trace

import "context"

// Repository defines the interface for run trace persistence
type Repository interface {
	SaveRun(ctx context.Context, run *Run) error
	RecordToolCall(ctx context.Context, call *ToolCall) error
	GetRuns(ctx context.Context, limit int) ([]*Run, error)
	GetToolCalls(ctx context.Context, runID string) ([]*ToolCall, error)
}
