package metrics

import (
	"time"
)

// RecordWorkerRun tracks one worker iteration
func RecordWorkerRun(worker string, took time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	WorkerExecutions.WithLabelValues(worker, status).Inc()
	WorkerDuration.WithLabelValues(worker).Observe(took.Seconds())
}

// RecordAgentCall tracks one model call made by an agent
func RecordAgentCall(agent, model, status string, took time.Duration, inputTokens, outputTokens int) {
	AgentCalls.WithLabelValues(agent, model, status).Inc()
	AgentLatency.WithLabelValues(agent, model).Observe(took.Seconds())
	if inputTokens > 0 {
		AgentTokens.WithLabelValues(model, "input").Add(float64(inputTokens))
	}
	if outputTokens > 0 {
		AgentTokens.WithLabelValues(model, "output").Add(float64(outputTokens))
	}
}

// RecordToolExecution tracks one tool invocation
func RecordToolExecution(tool string, took time.Duration, failed bool) {
	status := "success"
	if failed {
		status = "error"
	}
	ToolExecutions.WithLabelValues(tool, status).Inc()
	ToolLatency.WithLabelValues(tool).Observe(took.Seconds())
}

// RecordOrder tracks an order reaching a terminal or proposed status
func RecordOrder(side, status string) {
	OrdersCreated.WithLabelValues(side, status).Inc()
}

// RecordPilotRun tracks the outcome of an autonomous cycle
func RecordPilotRun(status string) {
	PilotRuns.WithLabelValues(status).Inc()
}

// SetPortfolioGauges publishes the latest account snapshot
func SetPortfolioGauges(account string, equity float64, openPositions int) {
	PortfolioEquity.WithLabelValues(account).Set(equity)
	PositionsOpen.WithLabelValues(account).Set(float64(openPositions))
}
