package agents

import (
	"fmt"
	"strings"

	"atlas/internal/services/portfolio"
)

const marketAnalystSystemPrompt = `You are a Market Analyst Agent specializing in technical analysis.

Your role:
- Analyze market data and price movements
- Compute and interpret technical indicators
- Identify trends, support/resistance levels
- Assess market momentum and volatility
- Provide objective, data-driven insights

Focus on:
- Price action and volume analysis
- RSI overbought/oversold conditions
- MACD crossovers and divergences
- Moving average relationships
- Trend strength and direction

Be precise, objective, and base all conclusions on the data provided.`

const riskManagerSystemPrompt = `You are a Risk Manager Agent specializing in portfolio risk management.

Your role:
- Evaluate risk/reward for every trade
- Calculate appropriate position sizes
- Set stop losses and profit targets
- Ensure portfolio diversification
- Reject trades that exceed risk tolerance

Risk Management Principles:
- Maximum 2% risk per trade
- Minimum 2:1 reward/risk ratio
- Position size based on volatility
- Never exceed position limits
- Maintain portfolio-level risk < 10%

Be conservative. Preservation of capital is your primary concern.`

const executionSystemPrompt = `You are an Execution Agent - the final decision-maker for trades.

Your role:
- Review inputs from Market Analyst, Risk Manager, and Portfolio Manager
- Synthesize all information into a clear decision
- Make the final call: BUY, SELL, or HOLD
- Provide transparent reasoning

Decision Framework:
1. Market conditions must be favorable (from Market Analyst)
2. Risk must be acceptable (from Risk Manager)
3. Portfolio constraints must be satisfied (from Portfolio Manager)
4. Overall confidence must be sufficient

Be decisive but conservative. When in doubt, choose HOLD.
Every decision must be explainable and justified.`

const orchestratorSystemPrompt = `You are Atlas - an expert swing trading analyst and advisor.

Your role is to analyze market data, technical indicators, and provide actionable trade recommendations for swing trading (3-10 day holding periods).

You have access to these tools:
- get_market_data: Fetch current price, volume, and basic data for any stock
- analyze_technicals: Compute RSI, MACD, moving averages, and identify trends
- check_sentiment: Check news sentiment (currently limited)

When analyzing a trade opportunity, consider trend direction, support and resistance, RSI (overbought >70, oversold <30), MACD crossovers, moving average relationships, stop loss placement (typically 5-8% below entry for longs), target price based on risk/reward (minimum 2:1 ratio), and position sizing relative to the portfolio.

After your analysis, provide a clear recommendation with:

**Action**: BUY, SELL, or HOLD
**Symbol**: Stock ticker
**Quantity**: Number of shares (considering position size limits)
**Stop Loss**: Risk management level
**Target Price**: Profit target
**Confidence**: 0.0 to 1.0 (be honest about uncertainty)
**Rationale**: Brief explanation of your reasoning

Be conservative with confidence scores - only use >0.8 for very clear setups. If conditions are unclear or risky, recommend HOLD. Base decisions on data, not speculation.`

func buildAnalysisPrompt(symbol string, marketData, technicals, sentiment map[string]interface{}) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Analyze %s based on the following data:\n\n", symbol)
	fmt.Fprintf(&b, "Market Data:\n")
	fmt.Fprintf(&b, "- Current Price: $%v\n", valueOr(marketData, "price", "N/A"))
	fmt.Fprintf(&b, "- Change: %v%%\n", valueOr(marketData, "change_pct", "N/A"))
	fmt.Fprintf(&b, "- Volume: %v\n\n", valueOr(marketData, "volume", "N/A"))
	fmt.Fprintf(&b, "Technical Indicators:\n")
	fmt.Fprintf(&b, "- RSI: %v\n", valueOr(technicals, "rsi_14", "N/A"))
	fmt.Fprintf(&b, "- MACD: %v\n", valueOr(technicals, "macd", "N/A"))
	fmt.Fprintf(&b, "- Moving Averages: SMA20=%v SMA50=%v\n", valueOr(technicals, "sma_20", "N/A"), valueOr(technicals, "sma_50", "N/A"))
	fmt.Fprintf(&b, "- Trend: %v\n", valueOr(technicals, "trend", "N/A"))
	fmt.Fprintf(&b, "- Signals: %v\n\n", valueOr(technicals, "signals", "[]"))
	fmt.Fprintf(&b, "Sentiment: %v\n\n", valueOr(sentiment, "sentiment", "neutral"))

	b.WriteString(`Provide a concise technical analysis covering:
1. Trend direction and strength
2. Key support/resistance levels
3. Momentum indicators interpretation
4. Overall technical outlook (bullish/bearish/neutral)
5. Confidence level (0.0 to 1.0)

Be objective and data-driven.`)

	return b.String()
}

func buildRiskPrompt(symbol string, action Action, analysis *MarketAnalysis, state *portfolio.State) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Evaluate risk for this trade:\n\n")
	fmt.Fprintf(&b, "Symbol: %s\n", symbol)
	fmt.Fprintf(&b, "Action: %s\n", action)
	fmt.Fprintf(&b, "Current Price: $%.2f\n\n", analysis.Price())
	fmt.Fprintf(&b, "Technical Analysis:\n")
	fmt.Fprintf(&b, "- RSI: %v\n", valueOr(analysis.Technicals, "rsi_14", "N/A"))
	fmt.Fprintf(&b, "- Trend: %v\n", valueOr(analysis.Technicals, "trend", "N/A"))
	fmt.Fprintf(&b, "- Volatility Signals: %v\n\n", valueOr(analysis.Technicals, "signals", "[]"))
	fmt.Fprintf(&b, "Portfolio State:\n")
	fmt.Fprintf(&b, "- Cash Available: $%.2f\n", state.Cash)
	fmt.Fprintf(&b, "- Total Equity: $%.2f\n", state.TotalEquity)
	fmt.Fprintf(&b, "- Current Positions: %d/%d\n", len(state.Positions), state.MaxPositions)
	fmt.Fprintf(&b, "- Max Position Size: $%.0f\n\n", state.MaxPositionSize)
	fmt.Fprintf(&b, "Market Analysis Confidence: %.2f\n\n", analysis.Confidence)

	b.WriteString(`Provide:
1. Risk Assessment (LOW/MEDIUM/HIGH)
2. Recommended Position Size (in dollars)
3. Stop Loss Price
4. Take Profit Target
5. Risk/Reward Ratio
6. Approval Status (APPROVED/REJECTED)
7. Reasoning

Use conservative position sizing. Reject if risk is too high or setup is unclear.`)

	return b.String()
}

func buildDecisionPrompt(
	symbol string,
	analysis *MarketAnalysis,
	risk *RiskEvaluation,
	constraints *ConstraintResult,
	position *portfolio.PositionState,
) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Make final trading decision for %s.\n\n", symbol)

	fmt.Fprintf(&b, "MARKET ANALYST INPUT:\n")
	fmt.Fprintf(&b, "- Analysis Confidence: %.2f\n", analysis.Confidence)
	fmt.Fprintf(&b, "- Current Price: $%.2f\n", analysis.Price())
	fmt.Fprintf(&b, "- Trend: %v\n", valueOr(analysis.Technicals, "trend", "N/A"))
	fmt.Fprintf(&b, "- Technical Signals: %v\n", valueOr(analysis.Technicals, "signals", "[]"))
	fmt.Fprintf(&b, "- Analysis Summary: %s\n\n", truncate(analysis.Analysis, 200))

	fmt.Fprintf(&b, "RISK MANAGER INPUT:\n")
	fmt.Fprintf(&b, "- Approval Status: %s\n", risk.ApprovalStatus)
	fmt.Fprintf(&b, "- Risk Level: %s\n", risk.RiskLevel)
	fmt.Fprintf(&b, "- Recommended Quantity: %d shares\n", risk.RecommendedQuantity)
	fmt.Fprintf(&b, "- Stop Loss: $%.2f\n", risk.StopLoss)
	fmt.Fprintf(&b, "- Take Profit: $%.2f\n", risk.TakeProfit)
	fmt.Fprintf(&b, "- Risk/Reward Ratio: %.2f:1\n", risk.RiskRewardRatio)
	fmt.Fprintf(&b, "- Risk Reasoning: %s\n\n", truncate(risk.Reasoning, 200))

	fmt.Fprintf(&b, "PORTFOLIO MANAGER INPUT:\n")
	fmt.Fprintf(&b, "- Constraints Satisfied: %s\n", yesNo(constraints.Allowed))
	fmt.Fprintf(&b, "- Violations: %v\n", constraints.Violations)
	fmt.Fprintf(&b, "- Cash Available: $%.2f\n", constraints.CashAvailable)
	fmt.Fprintf(&b, "- Current Positions: %d\n\n", constraints.CurrentPositions)

	fmt.Fprintf(&b, "EXISTING POSITION:\n")
	if position != nil {
		fmt.Fprintf(&b, "YES - %d shares @ $%.2f\n\n", position.Quantity, position.AvgEntryPrice)
	} else {
		fmt.Fprintf(&b, "NO\n\n")
	}

	b.WriteString(`DECISION REQUIRED:
Based on ALL the above information, make your final decision.

Provide:
1. **Action**: BUY, SELL, or HOLD
2. **Quantity**: Number of shares (if BUY/SELL)
3. **Confidence**: 0.0 to 1.0
4. **Reasoning**: Clear explanation of your decision
5. **Key Factors**: Top 3 factors that influenced your decision

Remember:
- All three agents must agree for BUY
- Be conservative - HOLD is often the right choice
- Consider the full picture, not just one factor`)

	return b.String()
}

func valueOr(m map[string]interface{}, key string, fallback interface{}) interface{} {
	if m == nil {
		return fallback
	}
	if v, ok := m[key]; ok && v != nil {
		return v
	}
	return fallback
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

func yesNo(b bool) string {
	if b {
		return "YES"
	}
	return "NO"
}
