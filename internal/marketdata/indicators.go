package marketdata

import (
	"github.com/markcheno/go-talib"

	"atlas/pkg/errors"
)

// Trend labels for technical analysis
const (
	TrendBullish = "BULLISH"
	TrendBearish = "BEARISH"
	TrendNeutral = "NEUTRAL"
)

// Analysis aggregates the indicators the market analyst feeds to the model
type Analysis struct {
	Symbol     string   `json:"symbol"`
	Price      float64  `json:"price"`
	RSI14      float64  `json:"rsi_14"`
	MACD       float64  `json:"macd"`
	MACDSignal float64  `json:"macd_signal"`
	MACDHist   float64  `json:"macd_hist"`
	SMA20      float64  `json:"sma_20"`
	SMA50      float64  `json:"sma_50"`
	Trend      string   `json:"trend"`
	Signals    []string `json:"signals"`
}

// Analyze computes RSI, MACD and moving averages over daily closes.
// Candles must be in chronological order.
func Analyze(symbol string, bars []Bar) (*Analysis, error) {
	if len(bars) < 50 {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "need at least 50 bars, got %d", len(bars))
	}

	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}

	rsi := talib.Rsi(closes, 14)
	macdLine, signalLine, histogram := talib.Macd(closes, 12, 26, 9)
	sma20 := talib.Sma(closes, 20)
	sma50 := talib.Sma(closes, 50)

	last := len(closes) - 1
	a := &Analysis{
		Symbol:     symbol,
		Price:      closes[last],
		RSI14:      rsi[last],
		MACD:       macdLine[last],
		MACDSignal: signalLine[last],
		MACDHist:   histogram[last],
		SMA20:      sma20[last],
		SMA50:      sma50[last],
	}

	a.Trend = classifyTrend(a)
	a.Signals = collectSignals(a)

	return a, nil
}

// classifyTrend derives an overall direction from moving averages and MACD
func classifyTrend(a *Analysis) string {
	bullish := 0
	bearish := 0

	if a.Price > a.SMA20 {
		bullish++
	} else {
		bearish++
	}
	if a.SMA20 > a.SMA50 {
		bullish++
	} else {
		bearish++
	}
	if a.MACDHist > 0 {
		bullish++
	} else {
		bearish++
	}

	switch {
	case bullish >= 2 && bullish > bearish:
		return TrendBullish
	case bearish >= 2 && bearish > bullish:
		return TrendBearish
	default:
		return TrendNeutral
	}
}

func collectSignals(a *Analysis) []string {
	var signals []string

	if a.RSI14 >= 70 {
		signals = append(signals, "RSI overbought")
	} else if a.RSI14 <= 30 {
		signals = append(signals, "RSI oversold")
	}

	if a.MACDHist > 0 && a.MACD > a.MACDSignal {
		signals = append(signals, "MACD bullish crossover")
	} else if a.MACDHist < 0 && a.MACD < a.MACDSignal {
		signals = append(signals, "MACD bearish crossover")
	}

	if a.Price > a.SMA20 && a.SMA20 > a.SMA50 {
		signals = append(signals, "price above rising moving averages")
	} else if a.Price < a.SMA20 && a.SMA20 < a.SMA50 {
		signals = append(signals, "price below falling moving averages")
	}

	return signals
}
