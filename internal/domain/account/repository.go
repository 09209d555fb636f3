package account

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for account data access
type Repository interface {
	Create(ctx context.Context, acc *Account) error
	GetByID(ctx context.Context, id string) (*Account, error)
	Update(ctx context.Context, acc *Account) error
}

// PositionRepository defines the interface for position data access
type PositionRepository interface {
	Create(ctx context.Context, pos *Position) error
	GetByID(ctx context.Context, id uuid.UUID) (*Position, error)
	GetBySymbol(ctx context.Context, accountID string, symbol string) (*Position, error)
	GetOpen(ctx context.Context, accountID string) ([]*Position, error)
	Update(ctx context.Context, pos *Position) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// SnapshotRepository defines the interface for equity snapshot access
type SnapshotRepository interface {
	Create(ctx context.Context, snap *EquitySnapshot) error
	GetRange(ctx context.Context, accountID string, from, to time.Time) ([]*EquitySnapshot, error)
	GetLatest(ctx context.Context, accountID string) (*EquitySnapshot, error)
}
