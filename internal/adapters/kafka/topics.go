package kafka

// Topic definitions for Kafka event streaming
const (
	// Order lifecycle events
	TopicOrderProposed = "orders.proposed"
	TopicOrderApproved = "orders.approved"
	TopicOrderRejected = "orders.rejected"
	TopicOrderFilled   = "orders.filled"

	// Agent pipeline events
	TopicAgentDecision = "agents.decisions"
	TopicPilotRun      = "agents.pilot_runs"

	// Portfolio events
	TopicEquitySnapshot = "portfolio.equity_snapshots"
)
