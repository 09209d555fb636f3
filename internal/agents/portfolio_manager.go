package agents

import (
	"context"
	"fmt"
	"time"

	"atlas/internal/services/portfolio"
	"atlas/pkg/errors"
	"atlas/pkg/logger"
)

// Estimated unit price used for the deterministic cash check before a
// live quote is known. This is the one placeholder in the pipeline, the
// risk manager sizes against the real price.
const constraintUnitPrice = 100.0

// StateLoader fetches the live portfolio snapshot
type StateLoader interface {
	LoadState(ctx context.Context) (*portfolio.State, error)
}

// PortfolioManager enforces hard account constraints. It never calls the
// model, every check is deterministic over the cached state.
type PortfolioManager struct {
	hub    *Hub
	loader StateLoader
	state  *portfolio.State
	log    *logger.Logger
}

// NewPortfolioManager creates the portfolio manager and registers it with the hub
func NewPortfolioManager(hub *Hub, loader StateLoader) *PortfolioManager {
	hub.Register(AgentPortfolioManager)
	return &PortfolioManager{
		hub:    hub,
		loader: loader,
		log:    logger.Get().With("agent", AgentPortfolioManager),
	}
}

// LoadPortfolioState refreshes the cached snapshot and broadcasts it.
// A load failure is fatal for the whole cycle and propagates.
func (p *PortfolioManager) LoadPortfolioState(ctx context.Context) (*portfolio.State, error) {
	state, err := p.loader.LoadState(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "load portfolio state")
	}
	p.state = state

	p.hub.Broadcast(AgentPortfolioManager, map[string]interface{}{
		"cash":         state.Cash,
		"total_equity": state.TotalEquity,
		"positions":    len(state.Positions),
		"return_pct":   state.ReturnPct,
	})

	p.log.Infow("Portfolio state loaded",
		"cash", state.Cash,
		"equity", state.TotalEquity,
		"positions", len(state.Positions),
	)
	return state, nil
}

// State returns the cached snapshot from the last load, nil before one
func (p *PortfolioManager) State() *portfolio.State {
	return p.state
}

// CheckTradeConstraints evaluates hard account limits for a proposed
// trade against the cached state
func (p *PortfolioManager) CheckTradeConstraints(symbol string, action Action, quantity int64) *ConstraintResult {
	result := &ConstraintResult{
		Violations: []string{},
		Timestamp:  time.Now().UTC(),
	}
	if p.state == nil {
		result.Violations = append(result.Violations, "portfolio state not loaded")
		result.Allowed = false
		return result
	}

	result.CurrentPositions = len(p.state.Positions)
	result.CashAvailable = p.state.Cash

	position := p.state.Position(symbol)

	switch action {
	case ActionBuy:
		if position != nil {
			result.Violations = append(result.Violations,
				fmt.Sprintf("already holding %d shares of %s", position.Quantity, symbol))
		}
		if len(p.state.Positions) >= p.state.MaxPositions {
			result.Violations = append(result.Violations,
				fmt.Sprintf("position limit reached (%d/%d)", len(p.state.Positions), p.state.MaxPositions))
		}
		estimatedCost := float64(quantity) * constraintUnitPrice
		if estimatedCost > p.state.Cash {
			result.Violations = append(result.Violations,
				fmt.Sprintf("estimated cost $%.2f exceeds cash $%.2f", estimatedCost, p.state.Cash))
		}
	case ActionSell:
		if position == nil {
			result.Violations = append(result.Violations,
				fmt.Sprintf("no position in %s to sell", symbol))
		} else if position.Quantity < quantity {
			result.Violations = append(result.Violations,
				fmt.Sprintf("holding %d shares, cannot sell %d", position.Quantity, quantity))
		}
	}

	result.Allowed = len(result.Violations) == 0
	return result
}

// GetPositionInfo returns position details for a symbol, or an explicit
// empty marker when no position exists
func (p *PortfolioManager) GetPositionInfo(symbol string) map[string]interface{} {
	if p.state != nil {
		if pos := p.state.Position(symbol); pos != nil {
			return map[string]interface{}{
				"symbol":          pos.Symbol,
				"quantity":        pos.Quantity,
				"avg_entry_price": pos.AvgEntryPrice,
				"current_price":   pos.CurrentPrice,
				"unrealized_pnl":  pos.UnrealizedPnL,
				"exists":          true,
			}
		}
	}
	return map[string]interface{}{
		"symbol":   symbol,
		"quantity": int64(0),
		"exists":   false,
	}
}
