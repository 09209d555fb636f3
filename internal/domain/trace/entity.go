package trace

import (
	"time"
)

// Run captures one full autonomous pilot cycle for later inspection.
// Pipeline stages are stored as JSON strings so the analytical store
// does not constrain their shape.
type Run struct {
	RunID       string    `ch:"run_id"`
	UserID      string    `ch:"user_id"`
	Mode        string    `ch:"mode"`
	Status      RunStatus `ch:"status"`
	Input       string    `ch:"input"`
	ToolsCalled string    `ch:"tools_called"`
	Reasoning   string    `ch:"reasoning"`
	Decisions   string    `ch:"decisions"`
	Reflection  string    `ch:"reflection"`
	Error       string    `ch:"error"`
	DurationMs  int64     `ch:"duration_ms"`
	StartedAt   time.Time `ch:"started_at"`
	EndedAt     time.Time `ch:"ended_at"`
}

// RunStatus defines the outcome of a pilot run
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// String returns string representation
func (s RunStatus) String() string {
	return string(s)
}

// ToolCall is an audit record of a single tool invocation by an agent
type ToolCall struct {
	RunID      string    `ch:"run_id"`
	Agent      string    `ch:"agent"`
	Tool       string    `ch:"tool"`
	Arguments  string    `ch:"arguments"`
	Result     string    `ch:"result"`
	Error      string    `ch:"error"`
	DurationMs int64     `ch:"duration_ms"`
	CalledAt   time.Time `ch:"called_at"`
}
