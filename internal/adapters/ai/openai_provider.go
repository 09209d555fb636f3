package ai

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"atlas/pkg/errors"
)

// OpenAIProvider implements ChatProvider against the OpenAI API.
type OpenAIProvider struct {
	apiKey  string
	timeout time.Duration
	limiter *rate.Limiter
	models  []ModelInfo
}

// NewOpenAIProvider creates a new OpenAI provider instance.
func NewOpenAIProvider(apiKey string, timeout time.Duration, limiter *rate.Limiter) *OpenAIProvider {
	return &OpenAIProvider{
		apiKey:  apiKey,
		timeout: timeout,
		limiter: limiter,
		models:  openAIModels(),
	}
}

// Name returns provider name.
func (p *OpenAIProvider) Name() string { return ProviderNameOpenAI.String() }

// GetModel returns model info by name.
func (p *OpenAIProvider) GetModel(_ context.Context, model string) (ModelInfo, error) {
	if m, ok := findModel(p.models, model); ok {
		return m, nil
	}
	return ModelInfo{}, errors.Wrapf(errors.ErrNotFound, "openai model %s not found", model)
}

// ListModels lists available models.
func (p *OpenAIProvider) ListModels(_ context.Context) ([]ModelInfo, error) {
	return p.models, nil
}

// SupportsStreaming indicates streaming support.
func (p *OpenAIProvider) SupportsStreaming() bool { return false }

// SupportsTools indicates tool calling support.
func (p *OpenAIProvider) SupportsTools() bool { return true }

func openAIModels() []ModelInfo {
	return []ModelInfo{
		{
			Provider:          ProviderNameOpenAI,
			Name:              "gpt-4o-mini",
			Family:            "gpt-4o",
			MaxTokens:         128000,
			InputCostPer1K:    0.00015,
			OutputCostPer1K:   0.0006,
			SupportsTools:     true,
			SupportsStreaming: true,
		},
		{
			Provider:          ProviderNameOpenAI,
			Name:              "gpt-4o",
			Family:            "gpt-4o",
			MaxTokens:         128000,
			InputCostPer1K:    0.0025,
			OutputCostPer1K:   0.01,
			SupportsTools:     true,
			SupportsStreaming: true,
		},
	}
}
