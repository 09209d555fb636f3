package account

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Account represents a paper trading account
type Account struct {
	ID              string          `db:"id"`
	Cash            decimal.Decimal `db:"cash"`
	StartingCash    decimal.Decimal `db:"starting_cash"`
	MaxPositions    int             `db:"max_positions"`
	MaxPositionSize decimal.Decimal `db:"max_position_size"`
	CreatedAt       time.Time       `db:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at"`
}

// Position represents an open holding in the paper account
type Position struct {
	ID        uuid.UUID       `db:"id"`
	AccountID string          `db:"account_id"`
	Symbol    string          `db:"symbol"`
	Quantity  int64           `db:"quantity"`
	AvgPrice  decimal.Decimal `db:"avg_price"`
	OpenedAt  time.Time       `db:"opened_at"`
	UpdatedAt time.Time       `db:"updated_at"`
}

// MarketValue returns the position value at the given price
func (p *Position) MarketValue(price decimal.Decimal) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(p.Quantity))
}

// UnrealizedPnL returns profit or loss relative to cost basis
func (p *Position) UnrealizedPnL(price decimal.Decimal) decimal.Decimal {
	return price.Sub(p.AvgPrice).Mul(decimal.NewFromInt(p.Quantity))
}

// EquitySnapshot is a point-in-time record of total account value
type EquitySnapshot struct {
	ID        uuid.UUID       `db:"id"`
	AccountID string          `db:"account_id"`
	Equity    decimal.Decimal `db:"equity"`
	Cash      decimal.Decimal `db:"cash"`
	Positions int             `db:"positions"`
	TakenAt   time.Time       `db:"taken_at"`
}
