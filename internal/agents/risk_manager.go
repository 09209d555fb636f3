package agents

import (
	"context"
	"math"
	"time"

	"atlas/internal/adapters/ai"
	"atlas/internal/services/portfolio"
	"atlas/pkg/errors"
	"atlas/pkg/logger"
)

// RiskManager sizes trades and issues the approval verdict
type RiskManager struct {
	hub   *Hub
	chat  ai.ChatProvider
	model string
	log   *logger.Logger
}

// NewRiskManager creates the risk manager and registers it with the hub
func NewRiskManager(hub *Hub, chat ai.ChatProvider, model string) *RiskManager {
	hub.Register(AgentRiskManager)
	return &RiskManager{
		hub:   hub,
		chat:  chat,
		model: model,
		log:   logger.Get().With("agent", AgentRiskManager),
	}
}

// EvaluateTrade asks the model for sizing and verdict, then parses the
// free text. Missing values fall back to documented defaults, malformed
// output never fails the evaluation.
func (r *RiskManager) EvaluateTrade(
	ctx context.Context,
	symbol string,
	action Action,
	analysis *MarketAnalysis,
	state *portfolio.State,
) (*RiskEvaluation, error) {
	r.log.Infow("Evaluating trade", "symbol", symbol, "action", action)

	resp, err := callModel(ctx, r.chat, AgentRiskManager, ai.ChatRequest{
		Model: r.model,
		Messages: []ai.Message{
			{Role: ai.RoleSystem, Content: riskManagerSystemPrompt},
			{Role: ai.RoleUser, Content: buildRiskPrompt(symbol, action, analysis, state)},
		},
	})
	if err != nil {
		return nil, errors.Wrapf(err, "risk model call for %s", symbol)
	}
	text := resp.FirstText()

	evaluation := r.parseEvaluation(text, analysis.Price(), state)

	r.hub.Broadcast(AgentRiskManager, map[string]interface{}{
		"symbol":     symbol,
		"action":     string(action),
		"evaluation": evaluation,
	})

	r.log.Infow("Trade evaluated",
		"symbol", symbol,
		"approval", evaluation.ApprovalStatus,
		"quantity", evaluation.RecommendedQuantity,
	)
	return evaluation, nil
}

func (r *RiskManager) parseEvaluation(text string, price float64, state *portfolio.State) *RiskEvaluation {
	positionSize, ok := ParseDollarAfter(text, "position size")
	if !ok {
		positionSize = math.Min(state.TotalEquity*0.05, state.MaxPositionSize)
	}

	var quantity int64
	if price > 0 {
		quantity = int64(math.Floor(positionSize / price))
	}

	stopLoss, ok := ParseDollarAfter(text, "stop loss")
	if !ok {
		stopLoss = price * 0.95
	}
	takeProfit, ok := ParseDollarAfter(text, "take profit")
	if !ok {
		takeProfit = price * 1.10
	}

	status := "REJECTED"
	if ParseApproval(text) {
		status = "APPROVED"
	}

	return &RiskEvaluation{
		ApprovalStatus:      status,
		RiskLevel:           ParseRiskLevel(text),
		PositionSizeDollars: positionSize,
		RecommendedQuantity: quantity,
		StopLoss:            stopLoss,
		TakeProfit:          takeProfit,
		RiskRewardRatio:     RiskRewardRatio(price, stopLoss, takeProfit),
		Reasoning:           text,
		Timestamp:           time.Now().UTC(),
	}
}
