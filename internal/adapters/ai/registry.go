package ai

import (
	"context"
	"sync"

	"atlas/pkg/errors"
)

// ProviderRegistry holds the configured providers keyed by their
// normalized name
type ProviderRegistry struct {
	mu        sync.RWMutex
	providers map[string]Provider
}

// NewProviderRegistry creates an empty registry
func NewProviderRegistry() *ProviderRegistry {
	return &ProviderRegistry{providers: make(map[string]Provider)}
}

// Register adds a provider. Duplicate names are rejected.
func (r *ProviderRegistry) Register(provider Provider) error {
	if provider == nil {
		return errors.Wrap(errors.ErrInvalidInput, "nil provider")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	name := NormalizeProviderName(provider.Name())
	if _, taken := r.providers[name]; taken {
		return errors.Wrapf(errors.ErrAlreadyExists, "provider %s", name)
	}
	r.providers[name] = provider
	return nil
}

// Get looks up a provider by name
func (r *ProviderRegistry) Get(name string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	provider, ok := r.providers[NormalizeProviderName(name)]
	if !ok {
		return nil, errors.Wrapf(errors.ErrNotFound, "provider %s", name)
	}
	return provider, nil
}

// GetChat looks up a provider and requires chat completion support
func (r *ProviderRegistry) GetChat(name string) (ChatProvider, error) {
	provider, err := r.Get(name)
	if err != nil {
		return nil, err
	}

	chat, ok := provider.(ChatProvider)
	if !ok {
		return nil, errors.Wrapf(errors.ErrNotImplemented, "provider %s has no chat support", name)
	}
	return chat, nil
}

// GetChatByModel finds the chat provider whose catalog serves a model
func (r *ProviderRegistry) GetChatByModel(ctx context.Context, model string) (ChatProvider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, provider := range r.providers {
		if _, err := provider.GetModel(ctx, model); err != nil {
			continue
		}
		if chat, ok := provider.(ChatProvider); ok {
			return chat, nil
		}
	}
	return nil, errors.Wrapf(errors.ErrNotFound, "no chat provider serves model %s", model)
}

// List returns every registered provider
func (r *ProviderRegistry) List() []Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Provider, 0, len(r.providers))
	for _, p := range r.providers {
		out = append(out, p)
	}
	return out
}

// ListModels aggregates the model catalogs of every provider
func (r *ProviderRegistry) ListModels(ctx context.Context) (map[string][]ModelInfo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string][]ModelInfo, len(r.providers))
	for name, provider := range r.providers {
		models, err := provider.ListModels(ctx)
		if err != nil {
			return nil, errors.Wrapf(err, "list models for %s", name)
		}
		out[name] = models
	}
	return out, nil
}
