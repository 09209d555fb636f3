package agents

import (
	"context"
	"time"

	"atlas/internal/adapters/ai"
	"atlas/internal/tools"
	"atlas/pkg/errors"
	"atlas/pkg/logger"
)

// ToolExecutor runs a named tool and returns its result mapping. An
// "error" key in the result signals failure.
type ToolExecutor interface {
	Execute(ctx context.Context, kind tools.Kind, args map[string]interface{}) map[string]interface{}
}

// MarketAnalyst gathers market data through tools and asks the model for
// a technical read on each symbol.
type MarketAnalyst struct {
	hub    *Hub
	chat   ai.ChatProvider
	model  string
	tools  ToolExecutor
	tracer *Tracer
	log    *logger.Logger
}

// NewMarketAnalyst creates the analyst and registers it with the hub
func NewMarketAnalyst(hub *Hub, chat ai.ChatProvider, model string, executor ToolExecutor, tracer *Tracer) *MarketAnalyst {
	hub.Register(AgentMarketAnalyst)
	return &MarketAnalyst{
		hub:    hub,
		chat:   chat,
		model:  model,
		tools:  executor,
		tracer: tracer,
		log:    logger.Get().With("agent", AgentMarketAnalyst),
	}
}

// AnalyzeSymbol runs the data tools and synthesizes a technical view.
// A market data or indicator failure makes the symbol non-actionable and
// is reported in the returned analysis, not as an error. Sentiment is
// best effort. On success the analysis is broadcast to the hub.
func (a *MarketAnalyst) AnalyzeSymbol(ctx context.Context, symbol string) (*MarketAnalysis, error) {
	a.log.Infow("Analyzing symbol", "symbol", symbol)

	marketData := a.runTool(ctx, tools.KindMarketData, map[string]interface{}{"symbol": symbol})
	if tools.IsErr(marketData) {
		return &MarketAnalysis{
			Symbol:    symbol,
			Status:    "error",
			Error:     tools.ErrMessage(marketData),
			Timestamp: time.Now().UTC(),
		}, nil
	}

	technicals := a.runTool(ctx, tools.KindAnalyzeTechnicals, map[string]interface{}{"symbol": symbol})
	if tools.IsErr(technicals) {
		return &MarketAnalysis{
			Symbol:    symbol,
			Status:    "error",
			Error:     tools.ErrMessage(technicals),
			Timestamp: time.Now().UTC(),
		}, nil
	}

	sentiment := a.runTool(ctx, tools.KindCheckSentiment, map[string]interface{}{"symbol": symbol})
	if tools.IsErr(sentiment) {
		a.log.Warnw("Sentiment check failed, continuing without it",
			"symbol", symbol, "error", tools.ErrMessage(sentiment))
		sentiment = map[string]interface{}{"sentiment": "neutral"}
	}

	resp, err := callModel(ctx, a.chat, AgentMarketAnalyst, ai.ChatRequest{
		Model: a.model,
		Messages: []ai.Message{
			{Role: ai.RoleSystem, Content: marketAnalystSystemPrompt},
			{Role: ai.RoleUser, Content: buildAnalysisPrompt(symbol, marketData, technicals, sentiment)},
		},
	})
	if err != nil {
		return nil, errors.Wrapf(err, "analysis model call for %s", symbol)
	}
	text := resp.FirstText()

	analysis := &MarketAnalysis{
		Symbol:     symbol,
		Status:     "ok",
		MarketData: marketData,
		Technicals: technicals,
		Sentiment:  sentiment,
		Analysis:   text,
		Confidence: ParseConfidence(text),
		Timestamp:  time.Now().UTC(),
	}

	a.hub.Broadcast(AgentMarketAnalyst, map[string]interface{}{
		"symbol":   symbol,
		"analysis": analysis,
	})

	a.log.Infow("Analysis complete", "symbol", symbol, "confidence", analysis.Confidence)
	return analysis, nil
}

func (a *MarketAnalyst) runTool(ctx context.Context, kind tools.Kind, args map[string]interface{}) map[string]interface{} {
	started := time.Now()
	result := a.tools.Execute(ctx, kind, args)
	if a.tracer != nil {
		a.tracer.RecordToolCall(ctx, AgentMarketAnalyst, kind.Name(), args, result, time.Since(started))
	}
	return result
}
