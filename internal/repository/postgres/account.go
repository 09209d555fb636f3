package postgres

import (
	"context"
	"database/sql"
	"time"

	"atlas/internal/domain/account"
	"atlas/pkg/errors"
)

// Compile-time check
var _ account.Repository = (*AccountRepository)(nil)

// AccountRepository implements account.Repository using sqlx
type AccountRepository struct {
	db DBTX
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db DBTX) *AccountRepository {
	return &AccountRepository{db: db}
}

// Create inserts a new account
func (r *AccountRepository) Create(ctx context.Context, acc *account.Account) error {
	query := `
		INSERT INTO accounts (
			id, cash, starting_cash, max_positions, max_position_size,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO NOTHING`

	_, err := r.db.ExecContext(ctx, query,
		acc.ID, acc.Cash, acc.StartingCash, acc.MaxPositions, acc.MaxPositionSize,
		acc.CreatedAt, acc.UpdatedAt,
	)

	return err
}

// GetByID retrieves an account by ID
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*account.Account, error) {
	var acc account.Account

	query := `SELECT * FROM accounts WHERE id = $1`

	err := r.db.GetContext(ctx, &acc, query, id)
	if err == sql.ErrNoRows {
		return nil, errors.ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}

	return &acc, nil
}

// Update updates account cash and limits
func (r *AccountRepository) Update(ctx context.Context, acc *account.Account) error {
	query := `
		UPDATE accounts
		SET cash = $2, max_positions = $3, max_position_size = $4, updated_at = $5
		WHERE id = $1`

	acc.UpdatedAt = time.Now().UTC()

	result, err := r.db.ExecContext(ctx, query,
		acc.ID, acc.Cash, acc.MaxPositions, acc.MaxPositionSize, acc.UpdatedAt,
	)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return errors.ErrAccountNotFound
	}

	return nil
}
