package marketdata

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeBars(closes []float64) []Bar {
	bars := make([]Bar, len(closes))
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, c := range closes {
		bars[i] = Bar{
			Date:   base.AddDate(0, 0, i),
			Open:   c * 0.99,
			High:   c * 1.01,
			Low:    c * 0.98,
			Close:  c,
			Volume: 1_000_000,
		}
	}
	return bars
}

func TestAnalyze_RequiresEnoughBars(t *testing.T) {
	_, err := Analyze("NVDA", makeBars([]float64{100, 101, 102}))
	assert.Error(t, err)
}

func TestAnalyze_UptrendIsBullish(t *testing.T) {
	closes := make([]float64, 120)
	for i := range closes {
		closes[i] = 100 + float64(i)*0.8
	}

	a, err := Analyze("NVDA", makeBars(closes))
	require.NoError(t, err)

	assert.Equal(t, "NVDA", a.Symbol)
	assert.Equal(t, TrendBullish, a.Trend)
	assert.Greater(t, a.SMA20, a.SMA50)
	assert.Greater(t, a.RSI14, 50.0)
}

func TestAnalyze_DowntrendIsBearish(t *testing.T) {
	closes := make([]float64, 120)
	for i := range closes {
		closes[i] = 200 - float64(i)*0.8
	}

	a, err := Analyze("TSLA", makeBars(closes))
	require.NoError(t, err)

	assert.Equal(t, TrendBearish, a.Trend)
	assert.Less(t, a.SMA20, a.SMA50)
	assert.Less(t, a.RSI14, 50.0)
}

func TestGetSentiment_NeutralBaseline(t *testing.T) {
	svc := &Service{}

	s := svc.GetSentiment(" aapl ")
	assert.Equal(t, "AAPL", s.Symbol)
	assert.Equal(t, TrendNeutral, s.Label)
	assert.Contains(t, s.Summary, "AAPL")
}
