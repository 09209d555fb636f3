package agents

import (
	"context"

	"atlas/internal/services/portfolio"
	"atlas/pkg/logger"
)

// Coordinator drives the per-symbol pipeline across the watchlist. Each
// symbol steps through analyze, risk evaluate, check constraints, decide.
// Symbols run strictly in watchlist order: every stage broadcasts into
// the shared hub, so concurrent symbols would trample each other's
// context.
type Coordinator struct {
	hub       *Hub
	analyst   *MarketAnalyst
	risk      *RiskManager
	pm        *PortfolioManager
	execution *ExecutionAgent
	watchlist []string
	log       *logger.Logger
}

// NewCoordinator wires the four agents to one hub
func NewCoordinator(
	hub *Hub,
	analyst *MarketAnalyst,
	risk *RiskManager,
	pm *PortfolioManager,
	execution *ExecutionAgent,
	watchlist []string,
) *Coordinator {
	hub.Register(AgentCoordinator)
	return &Coordinator{
		hub:       hub,
		analyst:   analyst,
		risk:      risk,
		pm:        pm,
		execution: execution,
		watchlist: watchlist,
		log:       logger.Get().With("agent", AgentCoordinator),
	}
}

// Watchlist returns the symbols this coordinator evaluates
func (c *Coordinator) Watchlist() []string {
	return c.watchlist
}

// RunCycle evaluates the whole watchlist and returns one decision per
// symbol. The hub is cleared first, nothing survives from the previous
// cycle. A failed step forces HOLD for that symbol only; the one fatal
// error is the initial portfolio load, which aborts the cycle.
func (c *Coordinator) RunCycle(ctx context.Context) ([]Decision, *portfolio.State, error) {
	c.hub.Clear()

	state, err := c.pm.LoadPortfolioState(ctx)
	if err != nil {
		return nil, nil, err
	}

	decisions := make([]Decision, 0, len(c.watchlist))
	for _, symbol := range c.watchlist {
		decisions = append(decisions, c.evaluateSymbol(ctx, symbol))
	}

	c.log.Infow("Cycle complete", "symbols", len(c.watchlist), "decisions", len(decisions))
	return decisions, state, nil
}

func (c *Coordinator) evaluateSymbol(ctx context.Context, symbol string) Decision {
	analysis, err := c.analyst.AnalyzeSymbol(ctx, symbol)
	if err != nil {
		c.log.Warnw("Analysis failed", "symbol", symbol, "error", err)
		return holdDecision(symbol, err.Error())
	}
	if analysis.Failed() {
		c.log.Warnw("Symbol not actionable", "symbol", symbol, "error", analysis.Error)
		return holdDecision(symbol, analysis.Error)
	}

	position := c.pm.State().Position(symbol)

	// The pipeline only ever proposes a full exit or a fresh entry,
	// never BUY-more or a partial trim
	potential := ActionBuy
	if position != nil {
		potential = ActionSell
	}

	risk, err := c.risk.EvaluateTrade(ctx, symbol, potential, analysis, c.pm.State())
	if err != nil {
		c.log.Warnw("Risk evaluation failed", "symbol", symbol, "error", err)
		return holdDecision(symbol, err.Error())
	}

	quantity := risk.RecommendedQuantity
	if potential == ActionSell && position != nil {
		quantity = position.Quantity
	}
	constraints := c.pm.CheckTradeConstraints(symbol, potential, quantity)

	decision, err := c.execution.MakeDecision(ctx, symbol, analysis, risk, constraints, position)
	if err != nil {
		c.log.Warnw("Decision failed", "symbol", symbol, "error", err)
		return holdDecision(symbol, err.Error())
	}

	return *decision
}
