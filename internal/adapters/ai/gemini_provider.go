package ai

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"atlas/pkg/errors"
)

// GeminiProvider implements ChatProvider against the Google Gemini API.
type GeminiProvider struct {
	apiKey  string
	timeout time.Duration
	limiter *rate.Limiter
	models  []ModelInfo
}

// NewGeminiProvider creates a new Gemini provider.
func NewGeminiProvider(apiKey string, timeout time.Duration, limiter *rate.Limiter) *GeminiProvider {
	return &GeminiProvider{
		apiKey:  apiKey,
		timeout: timeout,
		limiter: limiter,
		models:  geminiModels(),
	}
}

// Name returns provider name.
func (p *GeminiProvider) Name() string { return ProviderNameGoogle.String() }

// GetModel returns model info by name.
func (p *GeminiProvider) GetModel(_ context.Context, model string) (ModelInfo, error) {
	if m, ok := findModel(p.models, model); ok {
		return m, nil
	}
	return ModelInfo{}, errors.Wrapf(errors.ErrNotFound, "gemini model %s not found", model)
}

// ListModels lists available models.
func (p *GeminiProvider) ListModels(_ context.Context) ([]ModelInfo, error) {
	return p.models, nil
}

// SupportsStreaming indicates streaming support.
func (p *GeminiProvider) SupportsStreaming() bool { return false }

// SupportsTools indicates tool calling support.
func (p *GeminiProvider) SupportsTools() bool { return true }

func geminiModels() []ModelInfo {
	return []ModelInfo{
		{
			Provider:          ProviderNameGoogle,
			Name:              "gemini-2.0-flash",
			Family:            "gemini-2.0",
			MaxTokens:         1000000,
			InputCostPer1K:    0.0001,
			OutputCostPer1K:   0.0004,
			SupportsTools:     true,
			SupportsStreaming: true,
		},
		{
			Provider:          ProviderNameGoogle,
			Name:              "gemini-1.5-pro",
			Family:            "gemini-1.5",
			MaxTokens:         2000000,
			InputCostPer1K:    0.0035,
			OutputCostPer1K:   0.0105,
			SupportsTools:     true,
			SupportsStreaming: true,
		},
	}
}
