package agents

import (
	"context"

	"atlas/internal/adapters/ai"
	"atlas/internal/services/portfolio"
	"atlas/pkg/errors"
	"atlas/pkg/logger"
)

// ExecutionAgent synthesizes the other agents' outputs into the final
// per-symbol verdict
type ExecutionAgent struct {
	hub   *Hub
	chat  ai.ChatProvider
	model string
	log   *logger.Logger
}

// NewExecutionAgent creates the execution agent and registers it with the hub
func NewExecutionAgent(hub *Hub, chat ai.ChatProvider, model string) *ExecutionAgent {
	hub.Register(AgentExecution)
	return &ExecutionAgent{
		hub:   hub,
		chat:  chat,
		model: model,
		log:   logger.Get().With("agent", AgentExecution),
	}
}

// MakeDecision asks the model for a final verdict over the combined
// digest. Quantity is never re-derived from the model text: BUY takes the
// risk manager's recommendation, SELL always exits the full position.
func (e *ExecutionAgent) MakeDecision(
	ctx context.Context,
	symbol string,
	analysis *MarketAnalysis,
	risk *RiskEvaluation,
	constraints *ConstraintResult,
	position *portfolio.PositionState,
) (*Decision, error) {
	e.log.Infow("Making decision", "symbol", symbol)

	resp, err := callModel(ctx, e.chat, AgentExecution, ai.ChatRequest{
		Model: e.model,
		Messages: []ai.Message{
			{Role: ai.RoleSystem, Content: executionSystemPrompt},
			{Role: ai.RoleUser, Content: buildDecisionPrompt(symbol, analysis, risk, constraints, position)},
		},
	})
	if err != nil {
		return nil, errors.Wrapf(err, "decision model call for %s", symbol)
	}
	text := resp.FirstText()

	decision := &Decision{
		Symbol:     symbol,
		Action:     ParseAction(text, position != nil),
		Confidence: ParseConfidence(text),
		Reasoning:  text,
		KeyFactors: ParseKeyFactors(text),
	}

	switch decision.Action {
	case ActionBuy:
		quantity := risk.RecommendedQuantity
		decision.Quantity = &quantity
	case ActionSell:
		quantity := position.Quantity
		decision.Quantity = &quantity
	}

	e.hub.Broadcast(AgentExecution, map[string]interface{}{
		"symbol":   symbol,
		"decision": decision,
	})

	e.log.Infow("Decision made",
		"symbol", symbol,
		"action", decision.Action,
		"confidence", decision.Confidence,
	)
	return decision, nil
}
