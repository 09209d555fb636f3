package agents

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"atlas/internal/marketdata"
	"atlas/internal/services/portfolio"
	"atlas/internal/tools"
)

type promptDataSource struct {
	quote *marketdata.Quote
	bars  []marketdata.Bar
}

func (s *promptDataSource) GetQuote(_ context.Context, _ string) (*marketdata.Quote, error) {
	return s.quote, nil
}

func (s *promptDataSource) GetHistory(_ context.Context, _ string, _ int) ([]marketdata.Bar, error) {
	return s.bars, nil
}

func (s *promptDataSource) GetSentiment(symbol string) *marketdata.Sentiment {
	return &marketdata.Sentiment{Symbol: symbol, Label: marketdata.TrendNeutral, Summary: "quiet"}
}

func dailyBars(n int, start float64) []marketdata.Bar {
	bars := make([]marketdata.Bar, n)
	day := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	for i := range bars {
		c := start + float64(i)*0.5
		bars[i] = marketdata.Bar{
			Date:   day.AddDate(0, 0, i),
			Open:   c - 0.5,
			High:   c + 1,
			Low:    c - 1,
			Close:  c,
			Volume: 1_000_000,
		}
	}
	return bars
}

// The prompt builders must pick up the same keys the tool handlers
// emit, otherwise the model sees N/A where the data exists.
func TestPromptsRenderRegistryToolResults(t *testing.T) {
	reg := tools.NewRegistry(&promptDataSource{
		quote: &marketdata.Quote{Symbol: "NVDA", Price: 495.5, Volume: 1_000_000, ChangePct: 1.2},
		bars:  dailyBars(120, 400),
	})
	ctx := context.Background()

	market := reg.Execute(ctx, tools.KindMarketData, map[string]interface{}{"symbol": "NVDA"})
	require.False(t, tools.IsErr(market))
	technicals := reg.Execute(ctx, tools.KindAnalyzeTechnicals, map[string]interface{}{"symbol": "NVDA"})
	require.False(t, tools.IsErr(technicals))
	sentiment := reg.Execute(ctx, tools.KindCheckSentiment, map[string]interface{}{"symbol": "NVDA"})
	require.False(t, tools.IsErr(sentiment))

	prompt := buildAnalysisPrompt("NVDA", market, technicals, sentiment)

	assert.NotContains(t, prompt, "RSI: N/A")
	assert.NotContains(t, prompt, "Change: N/A%")
	assert.NotContains(t, prompt, "MACD: N/A")
	assert.NotContains(t, prompt, "SMA20=N/A")
	assert.Contains(t, prompt, "Change: 1.2%")

	analysis := &MarketAnalysis{
		Symbol:     "NVDA",
		MarketData: market,
		Technicals: technicals,
		Confidence: 0.7,
	}
	riskPrompt := buildRiskPrompt("NVDA", ActionBuy, analysis, &portfolio.State{
		Cash:            50000,
		TotalEquity:     100000,
		MaxPositions:    10,
		MaxPositionSize: 10000,
	})

	assert.NotContains(t, riskPrompt, "RSI: N/A")
	assert.NotContains(t, riskPrompt, "Trend: N/A")
}
