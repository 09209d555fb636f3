package order

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the interface for order data access
type Repository interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*Order, error)
	GetByStatus(ctx context.Context, accountID string, status Status, limit int) ([]*Order, error)
	GetRecent(ctx context.Context, accountID string, limit int) ([]*Order, error)
	GetByRunID(ctx context.Context, runID string) ([]*Order, error)
	Update(ctx context.Context, o *Order) error
}
