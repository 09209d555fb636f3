package tools

import (
	"context"

	"atlas/pkg/errors"
)

// Kind identifies a tool in the closed catalog. Dispatch goes through a
// lookup table keyed on Kind so an unhandled kind fails at construction,
// not at call time.
type Kind int

const (
	KindMarketData Kind = iota
	KindAnalyzeTechnicals
	KindCheckSentiment
)

// Tool names as exposed to the model
const (
	NameMarketData        = "get_market_data"
	NameAnalyzeTechnicals = "analyze_technicals"
	NameCheckSentiment    = "check_sentiment"
)

// AllKinds returns every tool in the catalog
func AllKinds() []Kind {
	return []Kind{KindMarketData, KindAnalyzeTechnicals, KindCheckSentiment}
}

// Name returns the model-facing tool name
func (k Kind) Name() string {
	switch k {
	case KindMarketData:
		return NameMarketData
	case KindAnalyzeTechnicals:
		return NameAnalyzeTechnicals
	case KindCheckSentiment:
		return NameCheckSentiment
	}
	return "unknown"
}

// ParseKind maps a model-facing tool name back to its Kind
func ParseKind(name string) (Kind, error) {
	switch name {
	case NameMarketData:
		return KindMarketData, nil
	case NameAnalyzeTechnicals:
		return KindAnalyzeTechnicals, nil
	case NameCheckSentiment:
		return KindCheckSentiment, nil
	}
	return 0, errors.Wrapf(errors.ErrUnknownTool, "%q", name)
}

// Handler executes one tool. Failures are reported in the result map
// under the "error" key, matching what the agents inspect.
type Handler func(ctx context.Context, args map[string]interface{}) map[string]interface{}

// Result helpers

// ErrResult builds the conventional error result
func ErrResult(err error) map[string]interface{} {
	return map[string]interface{}{"error": err.Error()}
}

// IsErr reports whether a tool result carries an error
func IsErr(result map[string]interface{}) bool {
	_, ok := result["error"]
	return ok
}

// ErrMessage extracts the error message from a failed result
func ErrMessage(result map[string]interface{}) string {
	if msg, ok := result["error"].(string); ok {
		return msg
	}
	return ""
}
