package postgres

import (
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // registers the postgres driver

	"atlas/internal/adapters/config"
	"atlas/pkg/errors"
)

// Client owns the PostgreSQL connection pool
type Client struct {
	db *sqlx.DB
}

// NewClient opens a pooled connection. sqlx.Connect pings, so a
// returned client is known reachable.
func NewClient(cfg config.PostgresConfig) (*Client, error) {
	db, err := sqlx.Connect("postgres", cfg.DSN())
	if err != nil {
		return nil, errors.Wrap(err, "connect to postgres")
	}

	db.SetMaxOpenConns(cfg.MaxConns)
	db.SetMaxIdleConns(cfg.MaxConns / 2)
	db.SetConnMaxLifetime(time.Hour)
	db.SetConnMaxIdleTime(30 * time.Minute)

	return &Client{db: db}, nil
}

// DB exposes the pool for repositories and transactions
func (c *Client) DB() *sqlx.DB {
	return c.db
}

// Close drains the pool
func (c *Client) Close() error {
	return c.db.Close()
}
