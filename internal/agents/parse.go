package agents

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Action is the final verdict for a symbol
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
	ActionHold Action = "HOLD"
)

// RiskLevel buckets the risk manager's assessment
type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

// Model output is free text, so every parser here is tolerant: ambiguous
// or missing values substitute a documented default instead of failing.
// The pipeline must never crash because prose didn't match a pattern.

var (
	confidencePattern = regexp.MustCompile(`(?i)confidence[^0-9]{0,20}([0-9]+(?:\.[0-9]+)?)`)
	bareNumberPattern = regexp.MustCompile(`([0-9]+(?:\.[0-9]+)?)`)
	negatedBuyPattern = regexp.MustCompile(`(?i)(?:don'?t|do\s+not)\s+buy`)
	bulletPattern     = regexp.MustCompile(`^\s*(?:[-*•]|\d+[.)])\s*(.+)$`)
	tickerPattern     = regexp.MustCompile(`\b([A-Z]{1,5})\b`)
)

// ParseConfidence extracts a confidence score from model text. Accepts a
// bare 0..1 value or a 0..100 percentage (normalized by dividing by 100).
// Defaults to 0.5 when nothing parses. Result is always within [0, 1].
func ParseConfidence(text string) float64 {
	match := confidencePattern.FindStringSubmatch(text)
	if match == nil {
		return 0.5
	}

	value, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		return 0.5
	}

	if value > 1 {
		value /= 100
	}
	return clamp(value, 0, 1)
}

// ParseApproval reports whether the risk manager approved. REJECTED wins
// ties: text must contain APPROVED and must not contain REJECTED.
func ParseApproval(text string) bool {
	upper := strings.ToUpper(text)
	return strings.Contains(upper, "APPROVED") && !strings.Contains(upper, "REJECTED")
}

// ParseRiskLevel extracts the risk bucket. HIGH takes priority over LOW,
// MEDIUM is the default.
func ParseRiskLevel(text string) RiskLevel {
	upper := strings.ToUpper(text)
	switch {
	case strings.Contains(upper, "HIGH"):
		return RiskHigh
	case strings.Contains(upper, "LOW"):
		return RiskLow
	default:
		return RiskMedium
	}
}

// ParseDollarAfter finds the first dollar amount following a keyword such
// as "position size" or "stop loss". Commas in the amount are tolerated.
func ParseDollarAfter(text, keyword string) (float64, bool) {
	idx := strings.Index(strings.ToLower(text), strings.ToLower(keyword))
	if idx < 0 {
		return 0, false
	}

	// Look only at a short window after the keyword so an amount from an
	// unrelated sentence further down is not picked up
	window := text[idx+len(keyword):]
	if len(window) > 80 {
		window = window[:80]
	}
	window = strings.ReplaceAll(window, ",", "")

	match := bareNumberPattern.FindStringSubmatch(window)
	if match == nil {
		return 0, false
	}

	value, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		return 0, false
	}
	return value, true
}

// ParseIntAfter finds the first whole number following a keyword, for
// fields like share quantity
func ParseIntAfter(text, keyword string) (int64, bool) {
	value, ok := ParseDollarAfter(text, keyword)
	if !ok {
		return 0, false
	}
	return int64(math.Floor(value)), true
}

// ParseSymbolAfter extracts an uppercase ticker following a keyword such
// as "symbol"
func ParseSymbolAfter(text, keyword string) (string, bool) {
	idx := strings.Index(strings.ToLower(text), strings.ToLower(keyword))
	if idx < 0 {
		return "", false
	}
	window := text[idx+len(keyword):]
	if len(window) > 40 {
		window = window[:40]
	}
	match := tickerPattern.FindStringSubmatch(window)
	if match == nil {
		return "", false
	}
	return match[1], true
}

// ParseAction resolves the final action from model text. HOLD anywhere in
// the text wins. With an existing position only SELL or EXIT language can
// produce a SELL; without one, BUY language produces a BUY unless negated
// ("don't buy"). Everything else is HOLD.
func ParseAction(text string, hasPosition bool) Action {
	upper := strings.ToUpper(text)

	if strings.Contains(upper, "HOLD") {
		return ActionHold
	}

	if hasPosition {
		if strings.Contains(upper, "SELL") || strings.Contains(upper, "EXIT") {
			return ActionSell
		}
		return ActionHold
	}

	stripped := negatedBuyPattern.ReplaceAllString(text, "")
	if strings.Contains(strings.ToUpper(stripped), "BUY") {
		return ActionBuy
	}
	return ActionHold
}

// ParseKeyFactors collects up to three bullet or numbered lines following
// the literal substring FACTOR. Best effort, an empty list is fine.
func ParseKeyFactors(text string) []string {
	idx := strings.Index(strings.ToUpper(text), "FACTOR")
	if idx < 0 {
		return nil
	}

	var factors []string
	for _, line := range strings.Split(text[idx:], "\n") {
		match := bulletPattern.FindStringSubmatch(line)
		if match == nil {
			continue
		}
		factor := strings.TrimSpace(match[1])
		if factor == "" {
			continue
		}
		factors = append(factors, factor)
		if len(factors) == 3 {
			break
		}
	}
	return factors
}

// RiskRewardRatio computes (take profit - price) / (price - stop loss),
// returning 0 whenever the denominator is not a positive risk
func RiskRewardRatio(price, stopLoss, takeProfit float64) float64 {
	risk := price - stopLoss
	if risk <= 0 {
		return 0
	}
	ratio := (takeProfit - price) / risk
	if math.IsNaN(ratio) || math.IsInf(ratio, 0) {
		return 0
	}
	return ratio
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
