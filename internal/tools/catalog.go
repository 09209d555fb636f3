package tools

import (
	"atlas/internal/adapters/ai"
)

// Definitions returns the function-calling catalog exposed to the model
func Definitions() []ai.ToolDefinition {
	symbolParam := map[string]interface{}{
		"type":        "string",
		"description": "Stock ticker symbol, e.g. NVDA",
	}

	return []ai.ToolDefinition{
		{
			Type: "function",
			Function: ai.FunctionDefinition{
				Name:        NameMarketData,
				Description: "Get the current market quote for a stock: price, open, high, low, volume, daily change.",
				Parameters: map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"symbol": symbolParam,
					},
					"required": []string{"symbol"},
				},
			},
		},
		{
			Type: "function",
			Function: ai.FunctionDefinition{
				Name:        NameAnalyzeTechnicals,
				Description: "Compute technical indicators (RSI, MACD, moving averages) and an overall trend for a stock.",
				Parameters: map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"symbol": symbolParam,
						"period": map[string]interface{}{
							"type":        "number",
							"description": "Lookback window in days (default 120)",
						},
					},
					"required": []string{"symbol"},
				},
			},
		},
		{
			Type: "function",
			Function: ai.FunctionDefinition{
				Name:        NameCheckSentiment,
				Description: "Check recent news sentiment for a stock.",
				Parameters: map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"symbol": symbolParam,
					},
					"required": []string{"symbol"},
				},
			},
		},
	}
}
