package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"atlas/internal/marketdata"
	"atlas/pkg/errors"
)

type fakeSource struct {
	quote    *marketdata.Quote
	quoteErr error
	bars     []marketdata.Bar
	barsErr  error
}

func (f *fakeSource) GetQuote(_ context.Context, symbol string) (*marketdata.Quote, error) {
	if f.quoteErr != nil {
		return nil, f.quoteErr
	}
	return f.quote, nil
}

func (f *fakeSource) GetHistory(_ context.Context, symbol string, days int) ([]marketdata.Bar, error) {
	if f.barsErr != nil {
		return nil, f.barsErr
	}
	return f.bars, nil
}

func (f *fakeSource) GetSentiment(symbol string) *marketdata.Sentiment {
	return &marketdata.Sentiment{Symbol: symbol, Label: marketdata.TrendNeutral, Summary: "quiet"}
}

func TestParseKind(t *testing.T) {
	for _, kind := range AllKinds() {
		got, err := ParseKind(kind.Name())
		require.NoError(t, err)
		assert.Equal(t, kind, got)
	}

	_, err := ParseKind("place_order")
	assert.ErrorIs(t, err, errors.ErrUnknownTool)
}

func TestRegistry_GetMarketData(t *testing.T) {
	reg := NewRegistry(&fakeSource{quote: &marketdata.Quote{
		Symbol: "NVDA",
		Price:  495.5,
		Volume: 1000,
	}})

	result := reg.Execute(context.Background(), KindMarketData, map[string]interface{}{"symbol": "NVDA"})
	require.False(t, IsErr(result))
	assert.Equal(t, 495.5, result["price"])
	assert.Equal(t, "NVDA", result["symbol"])
}

func TestRegistry_MarketDataFailure(t *testing.T) {
	reg := NewRegistry(&fakeSource{quoteErr: errors.ErrExternal})

	result := reg.Execute(context.Background(), KindMarketData, map[string]interface{}{"symbol": "NVDA"})
	assert.True(t, IsErr(result))
	assert.NotEmpty(t, ErrMessage(result))
}

func TestRegistry_MissingSymbol(t *testing.T) {
	reg := NewRegistry(&fakeSource{})

	result := reg.Execute(context.Background(), KindMarketData, map[string]interface{}{})
	assert.True(t, IsErr(result))
}

func TestRegistry_ExecuteByName_Unknown(t *testing.T) {
	reg := NewRegistry(&fakeSource{})

	result := reg.ExecuteByName(context.Background(), "fly_to_moon", nil)
	assert.True(t, IsErr(result))
}

func TestRegistry_CheckSentiment(t *testing.T) {
	reg := NewRegistry(&fakeSource{})

	result := reg.Execute(context.Background(), KindCheckSentiment, map[string]interface{}{"symbol": "aapl"})
	require.False(t, IsErr(result))
	assert.Equal(t, marketdata.TrendNeutral, result["sentiment"])
}

func TestDefinitions_MatchCatalog(t *testing.T) {
	defs := Definitions()
	require.Len(t, defs, len(AllKinds()))

	names := make(map[string]bool, len(defs))
	for _, d := range defs {
		names[d.Function.Name] = true
	}
	for _, kind := range AllKinds() {
		assert.True(t, names[kind.Name()], "missing definition for %s", kind.Name())
	}
}
