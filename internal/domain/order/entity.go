package order

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Order represents a trade proposal moving through the approval lifecycle
type Order struct {
	ID        uuid.UUID `db:"id"`
	AccountID string    `db:"account_id"`
	Symbol    string    `db:"symbol"`

	Side   Side   `db:"side"`
	Status Status `db:"status"`

	Quantity int64 `db:"quantity"`

	// Price is the quote at proposal time, FillPrice the execution price
	Price     decimal.Decimal `db:"price"`
	FillPrice decimal.Decimal `db:"fill_price"`

	StopLoss   decimal.Decimal `db:"stop_loss"`
	TakeProfit decimal.Decimal `db:"take_profit"`

	// Pipeline metadata
	Confidence float64 `db:"confidence"`
	Reasoning  string  `db:"reasoning"`
	RunID      string  `db:"run_id"`
	Autonomous bool    `db:"autonomous"`

	CreatedAt  time.Time  `db:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at"`
	DecidedAt  *time.Time `db:"decided_at"`
	FilledAt   *time.Time `db:"filled_at"`
	FailReason string     `db:"fail_reason"`
}

// Side defines buy or sell
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Valid checks if order side is valid
func (s Side) Valid() bool {
	return s == SideBuy || s == SideSell
}

// String returns string representation
func (s Side) String() string {
	return string(s)
}

// Status defines the order approval lifecycle
type Status string

const (
	StatusProposed Status = "PROPOSED"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
	StatusFilled   Status = "FILLED"
	StatusFailed   Status = "FAILED"
)

// Valid checks if order status is valid
func (s Status) Valid() bool {
	switch s {
	case StatusProposed, StatusApproved, StatusRejected, StatusFilled, StatusFailed:
		return true
	}
	return false
}

// String returns string representation
func (s Status) String() string {
	return string(s)
}

// Actionable reports whether the order can still be approved or rejected
func (s Status) Actionable() bool {
	return s == StatusProposed
}
