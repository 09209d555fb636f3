package events

import (
	"context"
	"time"

	"atlas/internal/adapters/kafka"
	"atlas/internal/domain/order"
	"atlas/pkg/logger"
)

// OrderEvent is published on order lifecycle transitions
type OrderEvent struct {
	OrderID    string    `json:"order_id"`
	AccountID  string    `json:"account_id"`
	Symbol     string    `json:"symbol"`
	Side       string    `json:"side"`
	Status     string    `json:"status"`
	Quantity   int64     `json:"quantity"`
	Price      float64   `json:"price"`
	Confidence float64   `json:"confidence"`
	RunID      string    `json:"run_id,omitempty"`
	Autonomous bool      `json:"autonomous"`
	Timestamp  time.Time `json:"timestamp"`
}

// PilotRunEvent is published when an autonomous pilot cycle completes
type PilotRunEvent struct {
	RunID     string    `json:"run_id"`
	Status    string    `json:"status"`
	Decisions int       `json:"decisions"`
	Trades    int       `json:"trades"`
	Equity    float64   `json:"equity"`
	Timestamp time.Time `json:"timestamp"`
}

// EquitySnapshotEvent is published on each equity snapshot
type EquitySnapshotEvent struct {
	AccountID string    `json:"account_id"`
	Equity    float64   `json:"equity"`
	Cash      float64   `json:"cash"`
	Positions int       `json:"positions"`
	Timestamp time.Time `json:"timestamp"`
}

// Publisher sends domain events to Kafka. A nil Publisher is safe to call,
// so event streaming can be disabled by configuration.
type Publisher struct {
	producer *kafka.Producer
	log      *logger.Logger
}

// NewPublisher creates a new event publisher
func NewPublisher(producer *kafka.Producer) *Publisher {
	return &Publisher{
		producer: producer,
		log:      logger.Get().With("component", "events"),
	}
}

// PublishOrder emits the event matching the order's current status
func (p *Publisher) PublishOrder(ctx context.Context, o *order.Order) {
	if p == nil || p.producer == nil {
		return
	}

	topic := topicForStatus(o.Status)
	if topic == "" {
		return
	}

	event := OrderEvent{
		OrderID:    o.ID.String(),
		AccountID:  o.AccountID,
		Symbol:     o.Symbol,
		Side:       o.Side.String(),
		Status:     o.Status.String(),
		Quantity:   o.Quantity,
		Price:      o.FillPrice.InexactFloat64(),
		Confidence: o.Confidence,
		RunID:      o.RunID,
		Autonomous: o.Autonomous,
		Timestamp:  time.Now().UTC(),
	}
	if event.Price == 0 {
		event.Price = o.Price.InexactFloat64()
	}

	if err := p.producer.Publish(ctx, topic, o.Symbol, event); err != nil {
		p.log.Warnf("Failed to publish order event: %v", err)
	}
}

// PublishPilotRun emits a pilot run summary
func (p *Publisher) PublishPilotRun(ctx context.Context, event PilotRunEvent) {
	if p == nil || p.producer == nil {
		return
	}
	event.Timestamp = time.Now().UTC()
	if err := p.producer.Publish(ctx, kafka.TopicPilotRun, event.RunID, event); err != nil {
		p.log.Warnf("Failed to publish pilot run event: %v", err)
	}
}

// PublishEquitySnapshot emits an equity snapshot
func (p *Publisher) PublishEquitySnapshot(ctx context.Context, event EquitySnapshotEvent) {
	if p == nil || p.producer == nil {
		return
	}
	event.Timestamp = time.Now().UTC()
	if err := p.producer.Publish(ctx, kafka.TopicEquitySnapshot, event.AccountID, event); err != nil {
		p.log.Warnf("Failed to publish equity snapshot event: %v", err)
	}
}

func topicForStatus(status order.Status) string {
	switch status {
	case order.StatusProposed:
		return kafka.TopicOrderProposed
	case order.StatusApproved:
		return kafka.TopicOrderApproved
	case order.StatusRejected:
		return kafka.TopicOrderRejected
	case order.StatusFilled:
		return kafka.TopicOrderFilled
	}
	return ""
}
