package tools

import (
	"context"
	"time"

	"atlas/internal/adapters/ai"
	"atlas/internal/metrics"
	"atlas/pkg/errors"
	"atlas/pkg/logger"
)

// Registry dispatches tool calls to handlers by Kind
type Registry struct {
	handlers map[Kind]Handler
	log      *logger.Logger
}

// NewRegistry builds the catalog against a market data source
func NewRegistry(source DataSource) *Registry {
	r := &Registry{
		handlers: make(map[Kind]Handler, 3),
		log:      logger.Get().With("component", "tools"),
	}

	m := &marketHandlers{source: source}
	r.handlers[KindMarketData] = m.getMarketData
	r.handlers[KindAnalyzeTechnicals] = m.analyzeTechnicals
	r.handlers[KindCheckSentiment] = m.checkSentiment

	return r
}

// Execute runs a tool by Kind. The result map carries an "error" key on
// failure instead of a Go error, matching the contract the agents consume.
func (r *Registry) Execute(ctx context.Context, kind Kind, args map[string]interface{}) map[string]interface{} {
	handler, ok := r.handlers[kind]
	if !ok {
		return ErrResult(errors.Wrapf(errors.ErrUnknownTool, "kind %d", kind))
	}

	started := time.Now()
	result := handler(ctx, args)
	metrics.RecordToolExecution(kind.Name(), time.Since(started), IsErr(result))

	if IsErr(result) {
		r.log.Warnf("Tool %s failed: %s", kind.Name(), ErrMessage(result))
	}
	return result
}

// Definitions returns the function-calling catalog for this registry
func (r *Registry) Definitions() []ai.ToolDefinition {
	return Definitions()
}

// ExecuteByName runs a tool by its model-facing name
func (r *Registry) ExecuteByName(ctx context.Context, name string, args map[string]interface{}) map[string]interface{} {
	kind, err := ParseKind(name)
	if err != nil {
		return ErrResult(err)
	}
	return r.Execute(ctx, kind, args)
}
