package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"atlas/internal/domain/order"
	"atlas/pkg/errors"
)

// Compile-time check
var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository using sqlx
type OrderRepository struct {
	db DBTX
}

// NewOrderRepository creates a new order repository
func NewOrderRepository(db DBTX) *OrderRepository {
	return &OrderRepository{db: db}
}

// Create inserts a new order
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	query := `
		INSERT INTO orders (
			id, account_id, symbol, side, status,
			quantity, price, fill_price, stop_loss, take_profit,
			confidence, reasoning, run_id, autonomous,
			created_at, updated_at, decided_at, filled_at, fail_reason
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
			$11, $12, $13, $14, $15, $16, $17, $18, $19
		)`

	_, err := r.db.ExecContext(ctx, query,
		o.ID, o.AccountID, o.Symbol, o.Side, o.Status,
		o.Quantity, o.Price, o.FillPrice, o.StopLoss, o.TakeProfit,
		o.Confidence, o.Reasoning, o.RunID, o.Autonomous,
		o.CreatedAt, o.UpdatedAt, o.DecidedAt, o.FilledAt, o.FailReason,
	)

	return err
}

// GetByID retrieves an order by ID
func (r *OrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	var o order.Order

	query := `SELECT * FROM orders WHERE id = $1`

	err := r.db.GetContext(ctx, &o, query, id)
	if err == sql.ErrNoRows {
		return nil, errors.ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}

	return &o, nil
}

// GetByStatus retrieves orders in a given lifecycle state
func (r *OrderRepository) GetByStatus(ctx context.Context, accountID string, status order.Status, limit int) ([]*order.Order, error) {
	var orders []*order.Order

	query := `
		SELECT * FROM orders
		WHERE account_id = $1 AND status = $2
		ORDER BY created_at DESC
		LIMIT $3`

	err := r.db.SelectContext(ctx, &orders, query, accountID, status, limit)
	if err != nil {
		return nil, err
	}

	return orders, nil
}

// GetRecent retrieves the most recent orders for an account
func (r *OrderRepository) GetRecent(ctx context.Context, accountID string, limit int) ([]*order.Order, error) {
	var orders []*order.Order

	query := `
		SELECT * FROM orders
		WHERE account_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	err := r.db.SelectContext(ctx, &orders, query, accountID, limit)
	if err != nil {
		return nil, err
	}

	return orders, nil
}

// GetByRunID retrieves all orders proposed during a pilot run
func (r *OrderRepository) GetByRunID(ctx context.Context, runID string) ([]*order.Order, error) {
	var orders []*order.Order

	query := `SELECT * FROM orders WHERE run_id = $1 ORDER BY created_at`

	err := r.db.SelectContext(ctx, &orders, query, runID)
	if err != nil {
		return nil, err
	}

	return orders, nil
}

// Update persists status transitions and fill details
func (r *OrderRepository) Update(ctx context.Context, o *order.Order) error {
	query := `
		UPDATE orders
		SET status = $2, fill_price = $3, updated_at = $4,
		    decided_at = $5, filled_at = $6, fail_reason = $7
		WHERE id = $1`

	o.UpdatedAt = time.Now().UTC()

	result, err := r.db.ExecContext(ctx, query,
		o.ID, o.Status, o.FillPrice, o.UpdatedAt,
		o.DecidedAt, o.FilledAt, o.FailReason,
	)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return errors.ErrOrderNotFound
	}

	return nil
}
