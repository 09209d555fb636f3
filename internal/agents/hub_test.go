package agents

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubBroadcastRoundTrip(t *testing.T) {
	hub := NewHub()

	content := map[string]interface{}{"symbol": "NVDA", "confidence": 0.8}
	hub.Broadcast("market_analyst", content)

	got := hub.SharedContext("market_analyst")
	assert.Equal(t, content, got)
}

func TestHubBroadcastOverwrites(t *testing.T) {
	hub := NewHub()

	hub.Broadcast("risk_manager", map[string]interface{}{"verdict": "APPROVED"})
	hub.Broadcast("risk_manager", map[string]interface{}{"verdict": "REJECTED"})

	got := hub.SharedContext("risk_manager")
	assert.Equal(t, "REJECTED", got["verdict"])

	// Both broadcasts remain in history
	assert.Len(t, hub.History("risk_manager", 0), 2)
}

func TestHubSharedContextEmptyWhenNeverBroadcast(t *testing.T) {
	hub := NewHub()

	got := hub.SharedContext("ghost")
	require.NotNil(t, got)
	assert.Empty(t, got)
}

func TestHubQueryReturnsLastBroadcast(t *testing.T) {
	hub := NewHub()

	hub.Broadcast("portfolio_manager", map[string]interface{}{"cash": 100000.0})

	got := hub.Query("execution", "portfolio_manager", "current cash?")
	assert.Equal(t, 100000.0, got["cash"])

	// Query before any broadcast returns nil
	assert.Nil(t, hub.Query("execution", "market_analyst", "anything?"))

	// Both queries were recorded
	history := hub.History("execution", 0)
	assert.Len(t, history, 2)
	assert.Equal(t, MessageQuery, history[0].Type)
}

func TestHubHistoryLimitAndOrder(t *testing.T) {
	hub := NewHub()

	hub.Broadcast("a", map[string]interface{}{"seq": 1})
	hub.Broadcast("a", map[string]interface{}{"seq": 2})
	hub.Broadcast("a", map[string]interface{}{"seq": 3})

	got := hub.History("a", 2)
	require.Len(t, got, 2)
	assert.Equal(t, 2, got[0].Content["seq"])
	assert.Equal(t, 3, got[1].Content["seq"])
}

func TestHubClear(t *testing.T) {
	hub := NewHub()
	hub.Register("market_analyst")

	hub.Broadcast("market_analyst", map[string]interface{}{"symbol": "TSLA"})
	require.NotEmpty(t, hub.History("", 0))

	hub.Clear()

	assert.Empty(t, hub.History("", 0))
	assert.Empty(t, hub.SharedContext("market_analyst"))
	// Registration survives a clear
	assert.Contains(t, hub.Agents(), "market_analyst")
}

func TestHubRegisterIdempotent(t *testing.T) {
	hub := NewHub()

	hub.Register("market_analyst")
	hub.Register("market_analyst")

	assert.Len(t, hub.Agents(), 1)
}

func TestHubSharedContextIsSnapshot(t *testing.T) {
	hub := NewHub()

	published := map[string]interface{}{"symbol": "NVDA", "confidence": 0.8}
	hub.Broadcast("market_analyst", published)

	// Mutating the published map after broadcast does not reach the hub
	published["confidence"] = 0.0
	assert.Equal(t, 0.8, hub.SharedContext("market_analyst")["confidence"])

	// Mutating a read result does not rewrite hub state
	snapshot := hub.SharedContext("market_analyst")
	snapshot["symbol"] = "TSLA"
	assert.Equal(t, "NVDA", hub.SharedContext("market_analyst")["symbol"])

	queried := hub.Query("risk_manager", "market_analyst", "latest view")
	queried["confidence"] = 0.1
	assert.Equal(t, 0.8, hub.SharedContext("market_analyst")["confidence"])
}
