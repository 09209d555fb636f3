package agents

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"atlas/internal/adapters/ai"
	"atlas/internal/services/portfolio"
	"atlas/internal/tools"
	"atlas/pkg/logger"
)

// scriptedChat returns canned text keyed by a substring of the system
// prompt, so each agent in the pipeline can be given its own reply
type scriptedChat struct {
	replies map[string]string
	calls   []ai.ChatRequest
}

func (c *scriptedChat) Name() string            { return "scripted" }
func (c *scriptedChat) SupportsStreaming() bool { return false }
func (c *scriptedChat) SupportsTools() bool     { return true }
func (c *scriptedChat) GetModel(ctx context.Context, model string) (ai.ModelInfo, error) {
	return ai.ModelInfo{Name: model}, nil
}
func (c *scriptedChat) ListModels(ctx context.Context) ([]ai.ModelInfo, error) {
	return nil, nil
}

func (c *scriptedChat) Chat(ctx context.Context, req ai.ChatRequest) (*ai.ChatResponse, error) {
	c.calls = append(c.calls, req)

	system := ""
	if len(req.Messages) > 0 && req.Messages[0].Role == ai.RoleSystem {
		system = req.Messages[0].Content
	}
	for key, reply := range c.replies {
		if strings.Contains(system, key) {
			return textResponse(reply), nil
		}
	}
	return textResponse("HOLD"), nil
}

func textResponse(text string) *ai.ChatResponse {
	return &ai.ChatResponse{
		Choices: []ai.Choice{{
			Message:      ai.Message{Role: ai.RoleAssistant, Content: text},
			FinishReason: ai.FinishReasonStop,
		}},
	}
}

// fakeTools serves per-kind canned results
type fakeTools struct {
	results map[tools.Kind]map[string]interface{}
}

func (f *fakeTools) Execute(ctx context.Context, kind tools.Kind, args map[string]interface{}) map[string]interface{} {
	if result, ok := f.results[kind]; ok {
		return result
	}
	return map[string]interface{}{"error": "no data"}
}

type fakeLoader struct {
	state *portfolio.State
	err   error
}

func (f *fakeLoader) LoadState(ctx context.Context) (*portfolio.State, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.state, nil
}

func flatState(cash float64) *portfolio.State {
	return &portfolio.State{
		AccountID:       "pilot",
		Cash:            cash,
		StartingCash:    cash,
		TotalEquity:     cash,
		Positions:       []portfolio.PositionState{},
		MaxPositions:    10,
		MaxPositionSize: 10000,
	}
}

func healthyMarketTools(price float64) *fakeTools {
	return &fakeTools{results: map[tools.Kind]map[string]interface{}{
		tools.KindMarketData: {
			"symbol":     "NVDA",
			"price":      price,
			"volume":     1000000.0,
			"change_pct": 1.2,
		},
		tools.KindAnalyzeTechnicals: {
			"rsi_14": 55.0,
			"trend":  "BULLISH",
		},
		tools.KindCheckSentiment: {
			"sentiment": "neutral",
		},
	}}
}

func buildPipeline(chat ai.ChatProvider, executor ToolExecutor, loader StateLoader, watchlist []string) (*Coordinator, *Hub) {
	hub := NewHub()
	analyst := NewMarketAnalyst(hub, chat, "test-model", executor, nil)
	risk := NewRiskManager(hub, chat, "test-model")
	pm := NewPortfolioManager(hub, loader)
	exec := NewExecutionAgent(hub, chat, "test-model")
	return NewCoordinator(hub, analyst, risk, pm, exec, watchlist), hub
}

func TestMain(m *testing.M) {
	logger.Init("error", "test")
	m.Run()
}

func TestCoordinatorBullishBuyScenario(t *testing.T) {
	chat := &scriptedChat{replies: map[string]string{
		"Market Analyst Agent": "Strong bullish setup with momentum building. Confidence: 0.8",
		"Risk Manager Agent":   "Risk Assessment: LOW. Recommended position size: $2000. Stop loss: $95. Take profit: $110. Status: APPROVED",
		"Execution Agent":      "All agents agree. Final decision: BUY. Confidence: 0.8",
	}}

	coordinator, _ := buildPipeline(chat, healthyMarketTools(100), &fakeLoader{state: flatState(100000)}, []string{"NVDA"})

	decisions, state, err := coordinator.RunCycle(context.Background())
	require.NoError(t, err)
	require.Len(t, decisions, 1)
	assert.Equal(t, 100000.0, state.TotalEquity)

	d := decisions[0]
	assert.Equal(t, "NVDA", d.Symbol)
	assert.Equal(t, ActionBuy, d.Action)
	require.NotNil(t, d.Quantity)
	// $2000 position at $100/share
	assert.Equal(t, int64(20), *d.Quantity)
	assert.InDelta(t, 0.8, d.Confidence, 1e-9)
}

func TestCoordinatorSellIsAlwaysFullExit(t *testing.T) {
	chat := &scriptedChat{replies: map[string]string{
		"Market Analyst Agent": "Momentum broken, trend reversing. Confidence: 0.7",
		"Risk Manager Agent":   "Risk Assessment: HIGH. Position size: $500. Status: APPROVED",
		"Execution Agent":      "Time to SELL and EXIT the position entirely. Quantity: 7. Confidence: 0.9",
	}}

	state := flatState(100000)
	state.Positions = []portfolio.PositionState{{
		Symbol:        "TSLA",
		Quantity:      15,
		AvgEntryPrice: 200,
		CurrentPrice:  180,
	}}

	toolSet := healthyMarketTools(180)
	coordinator, _ := buildPipeline(chat, toolSet, &fakeLoader{state: state}, []string{"TSLA"})

	decisions, _, err := coordinator.RunCycle(context.Background())
	require.NoError(t, err)
	require.Len(t, decisions, 1)

	d := decisions[0]
	assert.Equal(t, ActionSell, d.Action)
	require.NotNil(t, d.Quantity)
	// Full position, not the 7 mentioned in the model text
	assert.Equal(t, int64(15), *d.Quantity)
}

func TestCoordinatorMarketDataErrorForcesHold(t *testing.T) {
	chat := &scriptedChat{replies: map[string]string{}}
	failing := &fakeTools{results: map[tools.Kind]map[string]interface{}{
		tools.KindMarketData: {"error": "quote service unavailable"},
	}}

	coordinator, _ := buildPipeline(chat, failing, &fakeLoader{state: flatState(100000)}, []string{"NVDA"})

	decisions, _, err := coordinator.RunCycle(context.Background())
	require.NoError(t, err)
	require.Len(t, decisions, 1)

	d := decisions[0]
	assert.Equal(t, ActionHold, d.Action)
	assert.Zero(t, d.Confidence)
	assert.Contains(t, d.Reasoning, "quote service unavailable")
	// No model calls were made for the dead symbol
	assert.Empty(t, chat.calls)
}

func TestCoordinatorStateLoadFailureIsFatal(t *testing.T) {
	chat := &scriptedChat{replies: map[string]string{}}
	coordinator, _ := buildPipeline(chat, healthyMarketTools(100), &fakeLoader{err: assert.AnError}, []string{"NVDA"})

	_, _, err := coordinator.RunCycle(context.Background())
	assert.Error(t, err)
}

func TestCoordinatorClearsHubBetweenCycles(t *testing.T) {
	chat := &scriptedChat{replies: map[string]string{}}
	coordinator, hub := buildPipeline(chat, healthyMarketTools(100), &fakeLoader{state: flatState(100000)}, []string{"NVDA"})

	_, _, err := coordinator.RunCycle(context.Background())
	require.NoError(t, err)
	firstCycle := len(hub.History("", 0))
	require.NotZero(t, firstCycle)

	_, _, err = coordinator.RunCycle(context.Background())
	require.NoError(t, err)
	// Second cycle starts from an empty hub, so history does not grow
	assert.Equal(t, firstCycle, len(hub.History("", 0)))
}

func TestPortfolioManagerConstraints(t *testing.T) {
	hub := NewHub()
	state := flatState(1500)
	state.Positions = []portfolio.PositionState{{Symbol: "AAPL", Quantity: 5, AvgEntryPrice: 150}}

	pm := NewPortfolioManager(hub, &fakeLoader{state: state})
	_, err := pm.LoadPortfolioState(context.Background())
	require.NoError(t, err)

	cases := []struct {
		name     string
		symbol   string
		action   Action
		quantity int64
		allowed  bool
	}{
		{"buy new symbol within cash", "NVDA", ActionBuy, 10, true},
		{"buy already held", "AAPL", ActionBuy, 5, false},
		{"buy exceeding cash", "NVDA", ActionBuy, 100, false},
		{"sell held position", "AAPL", ActionSell, 5, true},
		{"sell more than held", "AAPL", ActionSell, 10, false},
		{"sell without position", "NVDA", ActionSell, 1, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result := pm.CheckTradeConstraints(tc.symbol, tc.action, tc.quantity)
			assert.Equal(t, tc.allowed, result.Allowed)
			assert.Equal(t, result.Allowed, len(result.Violations) == 0)
		})
	}
}

func TestPortfolioManagerPositionLimit(t *testing.T) {
	hub := NewHub()
	state := flatState(100000)
	state.MaxPositions = 1
	state.Positions = []portfolio.PositionState{{Symbol: "AAPL", Quantity: 5}}

	pm := NewPortfolioManager(hub, &fakeLoader{state: state})
	_, err := pm.LoadPortfolioState(context.Background())
	require.NoError(t, err)

	result := pm.CheckTradeConstraints("NVDA", ActionBuy, 1)
	assert.False(t, result.Allowed)
}

func TestGetPositionInfo(t *testing.T) {
	hub := NewHub()
	state := flatState(100000)
	state.Positions = []portfolio.PositionState{{Symbol: "AAPL", Quantity: 5, AvgEntryPrice: 150}}

	pm := NewPortfolioManager(hub, &fakeLoader{state: state})
	_, err := pm.LoadPortfolioState(context.Background())
	require.NoError(t, err)

	held := pm.GetPositionInfo("AAPL")
	assert.Equal(t, true, held["exists"])
	assert.Equal(t, int64(5), held["quantity"])

	missing := pm.GetPositionInfo("NVDA")
	assert.Equal(t, false, missing["exists"])
	assert.Equal(t, int64(0), missing["quantity"])
}

func TestRiskManagerDefaultsFillGaps(t *testing.T) {
	chat := &scriptedChat{replies: map[string]string{
		"Risk Manager Agent": "This setup looks reasonable and APPROVED overall.",
	}}

	hub := NewHub()
	rm := NewRiskManager(hub, chat, "test-model")

	analysis := &MarketAnalysis{
		Symbol:     "NVDA",
		Status:     "ok",
		MarketData: map[string]interface{}{"price": 100.0},
		Confidence: 0.6,
	}
	state := flatState(100000)

	eval, err := rm.EvaluateTrade(context.Background(), "NVDA", ActionBuy, analysis, state)
	require.NoError(t, err)

	assert.Equal(t, "APPROVED", eval.ApprovalStatus)
	assert.Equal(t, RiskMedium, eval.RiskLevel)
	// min(5% of equity, max position size) = $5000 at $100/share
	assert.Equal(t, 5000.0, eval.PositionSizeDollars)
	assert.Equal(t, int64(50), eval.RecommendedQuantity)
	assert.InDelta(t, 95.0, eval.StopLoss, 1e-9)
	assert.InDelta(t, 110.0, eval.TakeProfit, 1e-9)
	assert.InDelta(t, 2.0, eval.RiskRewardRatio, 1e-9)
}

func TestRiskManagerZeroPriceYieldsZeroQuantity(t *testing.T) {
	chat := &scriptedChat{replies: map[string]string{
		"Risk Manager Agent": "APPROVED, position size: $2000",
	}}

	hub := NewHub()
	rm := NewRiskManager(hub, chat, "test-model")

	analysis := &MarketAnalysis{Symbol: "NVDA", Status: "ok"}
	eval, err := rm.EvaluateTrade(context.Background(), "NVDA", ActionBuy, analysis, flatState(100000))
	require.NoError(t, err)

	assert.Zero(t, eval.RecommendedQuantity)
	assert.Zero(t, eval.RiskRewardRatio)
}

func TestReflect(t *testing.T) {
	before := flatState(100000)
	before.Positions = []portfolio.PositionState{{Symbol: "TSLA", Quantity: 15}}

	after := flatState(100000)
	after.TotalEquity = 101500
	after.Positions = []portfolio.PositionState{{Symbol: "NVDA", Quantity: 20}}

	quantity := int64(20)
	decisions := []Decision{
		{Symbol: "NVDA", Action: ActionBuy, Quantity: &quantity, TradeResult: map[string]interface{}{"status": "FILLED"}},
		{Symbol: "TSLA", Action: ActionSell, Quantity: &quantity, TradeError: "insufficient shares"},
		{Symbol: "AAPL", Action: ActionHold},
	}

	r := Reflect(before, after, decisions)

	assert.Equal(t, 100000.0, r.EquityBefore)
	assert.Equal(t, 101500.0, r.EquityAfter)
	assert.InDelta(t, 1500.0, r.EquityDelta, 1e-9)
	assert.InDelta(t, 1.5, r.EquityDeltaPct, 1e-9)
	assert.Equal(t, 1, r.TradesExecuted)
	assert.Equal(t, []string{"NVDA"}, r.SymbolsEntered)
	assert.Equal(t, []string{"TSLA"}, r.SymbolsExited)
	assert.NotEmpty(t, r.Summary)
}

func TestReflectNilStates(t *testing.T) {
	r := Reflect(nil, nil, nil)
	assert.Zero(t, r.EquityDelta)
	assert.Zero(t, r.EquityDeltaPct)
	assert.Empty(t, r.SymbolsEntered)
}
