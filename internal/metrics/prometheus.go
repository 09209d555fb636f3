package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Worker metrics
	WorkerExecutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "atlas_worker_executions_total",
			Help: "Total number of worker executions",
		},
		[]string{"worker", "status"}, // status: success|error
	)

	WorkerDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "atlas_worker_duration_seconds",
			Help:    "Worker execution duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"worker"},
	)

	// Agent metrics
	AgentCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "atlas_agent_calls_total",
			Help: "Total number of agent model calls",
		},
		[]string{"agent", "model", "status"}, // status: success|error|rate_limited
	)

	AgentLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "atlas_agent_latency_seconds",
			Help:    "Agent model call latency in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
		},
		[]string{"agent", "model"},
	)

	AgentTokens = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "atlas_agent_tokens_total",
			Help: "Total tokens used by agents",
		},
		[]string{"model", "type"}, // type: input|output
	)

	// Tool metrics
	ToolExecutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "atlas_tool_executions_total",
			Help: "Total number of tool executions",
		},
		[]string{"tool", "status"}, // status: success|error
	)

	ToolLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "atlas_tool_latency_seconds",
			Help:    "Tool execution latency in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10},
		},
		[]string{"tool"},
	)

	// Trading metrics
	OrdersCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "atlas_orders_total",
			Help: "Total orders by side and final status",
		},
		[]string{"side", "status"},
	)

	PilotRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "atlas_pilot_runs_total",
			Help: "Total autonomous pilot runs",
		},
		[]string{"status"}, // status: completed|failed|skipped
	)

	PortfolioEquity = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "atlas_portfolio_equity_usd",
			Help: "Current total portfolio equity",
		},
		[]string{"account"},
	)

	PositionsOpen = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "atlas_positions_open_count",
			Help: "Current number of open positions",
		},
		[]string{"account"},
	)

	// Market data metrics
	QuoteCacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "atlas_quote_cache_total",
			Help: "Quote lookups by cache outcome",
		},
		[]string{"outcome"}, // outcome: hit|miss
	)

	// System metrics
	KafkaMessages = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "atlas_kafka_messages_total",
			Help: "Total Kafka messages produced",
		},
		[]string{"topic", "status"},
	)
)

// Init registers all metrics with Prometheus
func Init() {
	prometheus.MustRegister(WorkerExecutions)
	prometheus.MustRegister(WorkerDuration)

	prometheus.MustRegister(AgentCalls)
	prometheus.MustRegister(AgentLatency)
	prometheus.MustRegister(AgentTokens)

	prometheus.MustRegister(ToolExecutions)
	prometheus.MustRegister(ToolLatency)

	prometheus.MustRegister(OrdersCreated)
	prometheus.MustRegister(PilotRuns)
	prometheus.MustRegister(PortfolioEquity)
	prometheus.MustRegister(PositionsOpen)

	prometheus.MustRegister(QuoteCacheHits)
	prometheus.MustRegister(KafkaMessages)
}

// Handler returns the HTTP handler for the /metrics endpoint
func Handler() http.Handler {
	return promhttp.Handler()
}
