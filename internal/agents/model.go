package agents

import (
	"context"
	"time"

	"atlas/internal/adapters/ai"
	"atlas/internal/metrics"
	"atlas/pkg/errors"
)

// callModel wraps a chat completion with per-agent metrics
func callModel(ctx context.Context, chat ai.ChatProvider, agent string, req ai.ChatRequest) (*ai.ChatResponse, error) {
	started := time.Now()
	resp, err := chat.Chat(ctx, req)
	took := time.Since(started)

	switch {
	case err == nil:
		metrics.RecordAgentCall(agent, req.Model, "success", took, resp.Usage.PromptTokens, resp.Usage.CompletionTokens)
	case errors.Is(err, errors.ErrRateLimitExceeded):
		metrics.RecordAgentCall(agent, req.Model, "rate_limited", took, 0, 0)
	default:
		metrics.RecordAgentCall(agent, req.Model, "error", took, 0, 0)
	}

	return resp, err
}
