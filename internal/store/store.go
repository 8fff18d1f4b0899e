package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNoData is returned when no stored explosion exists for a product.
var ErrNoData = errors.New("no bom data")

// Options select which 1C specification rows count as active.
type Options struct {
	ActiveStatus string
	AutoSelect   string
	MaxConns     int32
}

// Store reads the 1C catalog tables and owns the BOM result tables.
type Store struct {
	pool *pgxpool.Pool
	opts Options
}

// Open connects to Postgres and verifies the connection.
func Open(ctx context.Context, dbURL string, opts Options) (*Store, error) {
	if dbURL == "" {
		return nil, fmt.Errorf("db url missing")
	}
	cfg, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		return nil, fmt.Errorf("parse db url: %w", err)
	}
	if opts.MaxConns > 0 {
		cfg.MaxConns = opts.MaxConns
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return &Store{pool: pool, opts: opts}, nil
}

func (s *Store) Close() { s.pool.Close() }
