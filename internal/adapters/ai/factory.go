package ai

import (
	"strings"

	"atlas/internal/adapters/config"
	"atlas/pkg/errors"
)

// BuildRegistry initializes a ProviderRegistry with all providers that have
// an API key configured.
func BuildRegistry(cfg config.AIConfig) (*ProviderRegistry, error) {
	registry := NewProviderRegistry()

	if cfg.GeminiKey != "" {
		limiter := NewProviderLimiter(float64(cfg.RateLimitRPM), 10)
		if err := registry.Register(NewGeminiProvider(cfg.GeminiKey, cfg.RequestTimeout, limiter)); err != nil {
			return nil, err
		}
	}

	if cfg.OpenAIKey != "" {
		limiter := NewProviderLimiter(float64(cfg.RateLimitRPM), 10)
		if err := registry.Register(NewOpenAIProvider(cfg.OpenAIKey, cfg.RequestTimeout, limiter)); err != nil {
			return nil, err
		}
	}

	if len(registry.List()) == 0 {
		return nil, errors.Wrap(errors.ErrUnavailable, "no AI provider configured")
	}

	return registry, nil
}

// DefaultModel resolves the configured model for a provider name.
func DefaultModel(cfg config.AIConfig, provider string) string {
	switch ProviderName(NormalizeProviderName(provider)) {
	case ProviderNameOpenAI:
		return cfg.OpenAIModel
	default:
		return cfg.GeminiModel
	}
}

// NormalizeProviderName makes provider lookup more forgiving.
func NormalizeProviderName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
