package agents

import "time"

// Agent names as they appear in hub traffic and tool call audit records
const (
	AgentMarketAnalyst    = "market_analyst"
	AgentRiskManager      = "risk_manager"
	AgentPortfolioManager = "portfolio_manager"
	AgentExecution        = "execution"
	AgentCoordinator      = "coordinator"
)

// MarketAnalysis is the market analyst's per-symbol output
type MarketAnalysis struct {
	Symbol     string                 `json:"symbol"`
	Status     string                 `json:"status"`
	Error      string                 `json:"error,omitempty"`
	MarketData map[string]interface{} `json:"market_data,omitempty"`
	Technicals map[string]interface{} `json:"technical_indicators,omitempty"`
	Sentiment  map[string]interface{} `json:"sentiment,omitempty"`
	Analysis   string                 `json:"analysis,omitempty"`
	Confidence float64                `json:"confidence"`
	Timestamp  time.Time              `json:"timestamp"`
}

// Failed reports whether the mandatory data fetch failed, making the
// symbol non-actionable for this cycle
func (a *MarketAnalysis) Failed() bool {
	return a.Status == "error"
}

// Price returns the current price embedded in the market data, 0 if absent
func (a *MarketAnalysis) Price() float64 {
	if a.MarketData == nil {
		return 0
	}
	if price, ok := a.MarketData["price"].(float64); ok {
		return price
	}
	return 0
}

// RiskEvaluation is the risk manager's sizing and verdict for one trade
type RiskEvaluation struct {
	ApprovalStatus      string    `json:"approval_status"`
	RiskLevel           RiskLevel `json:"risk_level"`
	PositionSizeDollars float64   `json:"position_size_dollars"`
	RecommendedQuantity int64     `json:"recommended_quantity"`
	StopLoss            float64   `json:"stop_loss"`
	TakeProfit          float64   `json:"take_profit"`
	RiskRewardRatio     float64   `json:"risk_reward_ratio"`
	Reasoning           string    `json:"reasoning"`
	Timestamp           time.Time `json:"timestamp"`
}

// Approved reports whether the risk manager signed off
func (r *RiskEvaluation) Approved() bool {
	return r.ApprovalStatus == "APPROVED"
}

// ConstraintResult is the portfolio manager's deterministic verdict.
// Allowed is true exactly when Violations is empty.
type ConstraintResult struct {
	Allowed          bool      `json:"allowed"`
	Violations       []string  `json:"violations"`
	CurrentPositions int       `json:"current_positions"`
	CashAvailable    float64   `json:"cash_available"`
	Timestamp        time.Time `json:"timestamp"`
}

// Decision is the final per-symbol verdict, persisted into the run trace
type Decision struct {
	Symbol      string                 `json:"symbol"`
	Action      Action                 `json:"action"`
	Quantity    *int64                 `json:"quantity"`
	Confidence  float64                `json:"confidence"`
	Reasoning   string                 `json:"reasoning"`
	KeyFactors  []string               `json:"key_factors,omitempty"`
	TradeResult map[string]interface{} `json:"trade_result,omitempty"`
	TradeError  string                 `json:"trade_error,omitempty"`
}

// Tradeable reports whether the decision should reach the execution engine
func (d *Decision) Tradeable() bool {
	return (d.Action == ActionBuy || d.Action == ActionSell) && d.Quantity != nil && *d.Quantity > 0
}

// Reflection compares portfolio state before and after one cycle. Purely
// derived, no model call.
type Reflection struct {
	EquityBefore   float64  `json:"equity_before"`
	EquityAfter    float64  `json:"equity_after"`
	EquityDelta    float64  `json:"equity_delta"`
	EquityDeltaPct float64  `json:"equity_delta_pct"`
	TradesExecuted int      `json:"trades_executed"`
	SymbolsEntered []string `json:"symbols_entered"`
	SymbolsExited  []string `json:"symbols_exited"`
	Summary        string   `json:"summary"`
}

func holdDecision(symbol, reasoning string) Decision {
	return Decision{
		Symbol:     symbol,
		Action:     ActionHold,
		Confidence: 0.0,
		Reasoning:  reasoning,
	}
}
