package agents

import (
	"fmt"
	"strings"

	"atlas/internal/services/portfolio"
)

// Reflect compares portfolio snapshots taken before and after one cycle
// and summarizes what the cycle did. No model call, purely derived.
func Reflect(before, after *portfolio.State, decisions []Decision) Reflection {
	r := Reflection{
		SymbolsEntered: []string{},
		SymbolsExited:  []string{},
	}
	if before != nil {
		r.EquityBefore = before.TotalEquity
	}
	if after != nil {
		r.EquityAfter = after.TotalEquity
	}
	r.EquityDelta = r.EquityAfter - r.EquityBefore
	if r.EquityBefore != 0 {
		r.EquityDeltaPct = r.EquityDelta / r.EquityBefore * 100
	}

	for _, d := range decisions {
		if d.TradeResult != nil {
			r.TradesExecuted++
		}
	}

	heldBefore := heldSymbols(before)
	heldAfter := heldSymbols(after)
	for symbol := range heldAfter {
		if !heldBefore[symbol] {
			r.SymbolsEntered = append(r.SymbolsEntered, symbol)
		}
	}
	for symbol := range heldBefore {
		if !heldAfter[symbol] {
			r.SymbolsExited = append(r.SymbolsExited, symbol)
		}
	}

	r.Summary = buildSummary(r, len(decisions))
	return r
}

func heldSymbols(state *portfolio.State) map[string]bool {
	held := make(map[string]bool)
	if state == nil {
		return held
	}
	for _, pos := range state.Positions {
		held[pos.Symbol] = true
	}
	return held
}

func buildSummary(r Reflection, evaluated int) string {
	var parts []string

	parts = append(parts, fmt.Sprintf("Evaluated %d symbols, executed %d trades.", evaluated, r.TradesExecuted))

	switch {
	case r.EquityDelta > 0:
		parts = append(parts, fmt.Sprintf("Equity up $%.2f (%.2f%%).", r.EquityDelta, r.EquityDeltaPct))
	case r.EquityDelta < 0:
		parts = append(parts, fmt.Sprintf("Equity down $%.2f (%.2f%%).", -r.EquityDelta, -r.EquityDeltaPct))
	default:
		parts = append(parts, "Equity unchanged.")
	}

	if len(r.SymbolsEntered) > 0 {
		parts = append(parts, fmt.Sprintf("Entered: %s.", strings.Join(r.SymbolsEntered, ", ")))
	}
	if len(r.SymbolsExited) > 0 {
		parts = append(parts, fmt.Sprintf("Exited: %s.", strings.Join(r.SymbolsExited, ", ")))
	}

	return strings.Join(parts, " ")
}
