package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"atlas/internal/domain/account"
	"atlas/pkg/errors"
)

// Compile-time check
var _ account.PositionRepository = (*PositionRepository)(nil)

// PositionRepository implements account.PositionRepository using sqlx
type PositionRepository struct {
	db DBTX
}

// NewPositionRepository creates a new position repository
func NewPositionRepository(db DBTX) *PositionRepository {
	return &PositionRepository{db: db}
}

// Create inserts a new position
func (r *PositionRepository) Create(ctx context.Context, pos *account.Position) error {
	query := `
		INSERT INTO positions (
			id, account_id, symbol, quantity, avg_price, opened_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.ExecContext(ctx, query,
		pos.ID, pos.AccountID, pos.Symbol, pos.Quantity, pos.AvgPrice,
		pos.OpenedAt, pos.UpdatedAt,
	)

	return err
}

// GetByID retrieves a position by ID
func (r *PositionRepository) GetByID(ctx context.Context, id uuid.UUID) (*account.Position, error) {
	var pos account.Position

	query := `SELECT * FROM positions WHERE id = $1`

	err := r.db.GetContext(ctx, &pos, query, id)
	if err == sql.ErrNoRows {
		return nil, errors.ErrNoPosition
	}
	if err != nil {
		return nil, err
	}

	return &pos, nil
}

// GetBySymbol retrieves the open position for a symbol, if any
func (r *PositionRepository) GetBySymbol(ctx context.Context, accountID string, symbol string) (*account.Position, error) {
	var pos account.Position

	query := `SELECT * FROM positions WHERE account_id = $1 AND symbol = $2`

	err := r.db.GetContext(ctx, &pos, query, accountID, symbol)
	if err == sql.ErrNoRows {
		return nil, errors.ErrNoPosition
	}
	if err != nil {
		return nil, err
	}

	return &pos, nil
}

// GetOpen retrieves all open positions for an account
func (r *PositionRepository) GetOpen(ctx context.Context, accountID string) ([]*account.Position, error) {
	var positions []*account.Position

	query := `SELECT * FROM positions WHERE account_id = $1 ORDER BY opened_at`

	err := r.db.SelectContext(ctx, &positions, query, accountID)
	if err != nil {
		return nil, err
	}

	return positions, nil
}

// Update updates position quantity and cost basis
func (r *PositionRepository) Update(ctx context.Context, pos *account.Position) error {
	query := `
		UPDATE positions
		SET quantity = $2, avg_price = $3, updated_at = $4
		WHERE id = $1`

	pos.UpdatedAt = time.Now().UTC()

	_, err := r.db.ExecContext(ctx, query, pos.ID, pos.Quantity, pos.AvgPrice, pos.UpdatedAt)
	return err
}

// Delete removes a fully closed position
func (r *PositionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM positions WHERE id = $1`

	_, err := r.db.ExecContext(ctx, query, id)
	return err
}
