package ai

import (
	"context"
	"strings"
)

// ProviderName identifies an AI provider
type ProviderName string

const (
	ProviderNameOpenAI ProviderName = "openai"
	ProviderNameGoogle ProviderName = "gemini"
)

func (p ProviderName) String() string { return string(p) }

// Provider is the capability surface common to all AI backends. Chat
// completion lives on ChatProvider since not every provider has it.
type Provider interface {
	Name() string
	GetModel(ctx context.Context, model string) (ModelInfo, error)
	ListModels(ctx context.Context) ([]ModelInfo, error)
	SupportsStreaming() bool
	SupportsTools() bool
}

// ModelInfo describes one model's capabilities and pricing. Costs are
// USD per 1K tokens.
type ModelInfo struct {
	Provider          ProviderName
	Name              string
	Family            string
	MaxTokens         int
	InputCostPer1K    float64
	OutputCostPer1K   float64
	SupportsTools     bool
	SupportsStreaming bool
}

// findModel does a case-insensitive lookup in a provider's catalog.
func findModel(catalog []ModelInfo, name string) (ModelInfo, bool) {
	for _, m := range catalog {
		if strings.EqualFold(m.Name, name) {
			return m, true
		}
	}
	return ModelInfo{}, false
}
