package ai

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"atlas/internal/adapters/config"
)

func TestProviderRegistry_Register(t *testing.T) {
	registry := NewProviderRegistry()

	provider := NewGeminiProvider("test-key", time.Minute, NewProviderLimiter(60, 10))
	require.NoError(t, registry.Register(provider))

	got, err := registry.Get("gemini")
	require.NoError(t, err)
	assert.Equal(t, "gemini", got.Name())

	// Duplicate registration is rejected
	assert.Error(t, registry.Register(provider))
}

func TestProviderRegistry_GetChat(t *testing.T) {
	registry := NewProviderRegistry()
	require.NoError(t, registry.Register(NewOpenAIProvider("test-key", time.Minute, NewProviderLimiter(60, 10))))

	chat, err := registry.GetChat("openai")
	require.NoError(t, err)
	assert.True(t, chat.SupportsTools())

	_, err = registry.GetChat("missing")
	assert.Error(t, err)
}

func TestBuildRegistry(t *testing.T) {
	cfg := config.AIConfig{
		GeminiKey:      "gk",
		OpenAIKey:      "ok",
		RequestTimeout: time.Minute,
		RateLimitRPM:   60,
	}

	registry, err := BuildRegistry(cfg)
	require.NoError(t, err)
	assert.Len(t, registry.List(), 2)

	// No keys means no providers
	_, err = BuildRegistry(config.AIConfig{})
	assert.Error(t, err)
}

func TestDefaultModel(t *testing.T) {
	cfg := config.AIConfig{GeminiModel: "gemini-2.0-flash", OpenAIModel: "gpt-4o-mini"}

	assert.Equal(t, "gpt-4o-mini", DefaultModel(cfg, "OpenAI"))
	assert.Equal(t, "gemini-2.0-flash", DefaultModel(cfg, "gemini"))
	assert.Equal(t, "gemini-2.0-flash", DefaultModel(cfg, "unknown"))
}
