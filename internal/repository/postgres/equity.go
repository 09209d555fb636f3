package postgres

import (
	"context"
	"database/sql"
	"time"

	"atlas/internal/domain/account"
	"atlas/pkg/errors"
)

// Compile-time check
var _ account.SnapshotRepository = (*SnapshotRepository)(nil)

// SnapshotRepository implements account.SnapshotRepository using sqlx
type SnapshotRepository struct {
	db DBTX
}

// NewSnapshotRepository creates a new equity snapshot repository
func NewSnapshotRepository(db DBTX) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// Create inserts a new equity snapshot
func (r *SnapshotRepository) Create(ctx context.Context, snap *account.EquitySnapshot) error {
	query := `
		INSERT INTO equity_snapshots (
			id, account_id, equity, cash, positions, taken_at
		) VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.db.ExecContext(ctx, query,
		snap.ID, snap.AccountID, snap.Equity, snap.Cash, snap.Positions, snap.TakenAt,
	)

	return err
}

// GetRange retrieves snapshots in a time window
func (r *SnapshotRepository) GetRange(ctx context.Context, accountID string, from, to time.Time) ([]*account.EquitySnapshot, error) {
	var snaps []*account.EquitySnapshot

	query := `
		SELECT * FROM equity_snapshots
		WHERE account_id = $1 AND taken_at >= $2 AND taken_at <= $3
		ORDER BY taken_at`

	err := r.db.SelectContext(ctx, &snaps, query, accountID, from, to)
	if err != nil {
		return nil, err
	}

	return snaps, nil
}

// GetLatest retrieves the most recent snapshot
func (r *SnapshotRepository) GetLatest(ctx context.Context, accountID string) (*account.EquitySnapshot, error) {
	var snap account.EquitySnapshot

	query := `
		SELECT * FROM equity_snapshots
		WHERE account_id = $1
		ORDER BY taken_at DESC
		LIMIT 1`

	err := r.db.GetContext(ctx, &snap, query, accountID)
	if err == sql.ErrNoRows {
		return nil, errors.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &snap, nil
}
