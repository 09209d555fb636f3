package tools

import (
	"context"

	"atlas/internal/marketdata"
	"atlas/pkg/errors"
)

// DataSource is the slice of the market data service the tools need
type DataSource interface {
	GetQuote(ctx context.Context, symbol string) (*marketdata.Quote, error)
	GetHistory(ctx context.Context, symbol string, days int) ([]marketdata.Bar, error)
	GetSentiment(symbol string) *marketdata.Sentiment
}

type marketHandlers struct {
	source DataSource
}

func (m *marketHandlers) getMarketData(ctx context.Context, args map[string]interface{}) map[string]interface{} {
	symbol, ok := stringArg(args, "symbol")
	if !ok {
		return ErrResult(errors.Wrap(errors.ErrInvalidInput, "symbol is required"))
	}

	q, err := m.source.GetQuote(ctx, symbol)
	if err != nil {
		return ErrResult(err)
	}

	return map[string]interface{}{
		"symbol":     q.Symbol,
		"price":      q.Price,
		"open":       q.Open,
		"high":       q.High,
		"low":        q.Low,
		"prev_close": q.PrevClose,
		"volume":     q.Volume,
		"change_pct": q.ChangePct,
	}
}

func (m *marketHandlers) analyzeTechnicals(ctx context.Context, args map[string]interface{}) map[string]interface{} {
	symbol, ok := stringArg(args, "symbol")
	if !ok {
		return ErrResult(errors.Wrap(errors.ErrInvalidInput, "symbol is required"))
	}

	days := 120
	if p, ok := args["period"].(float64); ok && p > 0 {
		days = int(p)
	}

	bars, err := m.source.GetHistory(ctx, symbol, days)
	if err != nil {
		return ErrResult(err)
	}

	a, err := marketdata.Analyze(symbol, bars)
	if err != nil {
		return ErrResult(err)
	}

	return map[string]interface{}{
		"symbol":      a.Symbol,
		"price":       a.Price,
		"rsi_14":      a.RSI14,
		"macd":        a.MACD,
		"macd_signal": a.MACDSignal,
		"macd_hist":   a.MACDHist,
		"sma_20":      a.SMA20,
		"sma_50":      a.SMA50,
		"trend":       a.Trend,
		"signals":     a.Signals,
	}
}

func (m *marketHandlers) checkSentiment(_ context.Context, args map[string]interface{}) map[string]interface{} {
	symbol, ok := stringArg(args, "symbol")
	if !ok {
		return ErrResult(errors.Wrap(errors.ErrInvalidInput, "symbol is required"))
	}

	s := m.source.GetSentiment(symbol)
	return map[string]interface{}{
		"symbol":    s.Symbol,
		"sentiment": s.Label,
		"summary":   s.Summary,
	}
}

func stringArg(args map[string]interface{}, key string) (string, bool) {
	v, ok := args[key].(string)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}
