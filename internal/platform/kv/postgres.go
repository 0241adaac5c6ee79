package kv

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const createSlotsTable = `CREATE TABLE IF NOT EXISTS kv_slots (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

const upsertSlot = `INSERT INTO kv_slots (key, value, updated_at) VALUES ($1, $2, NOW())
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`

// OpenPostgres creates a PostgreSQL connection pool.
func OpenPostgres(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("kv: parse postgres config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("kv: new pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("kv: postgres ping: %w", err)
	}

	return pool, nil
}

// PostgresStore keeps slots as rows of the kv_slots table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore wraps an existing pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Migrate creates the kv_slots table when missing.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, createSlotsTable); err != nil {
		return fmt.Errorf("kv: migrate: %w", err)
	}
	return nil
}

// Get reads a slot.
func (s *PostgresStore) Get(ctx context.Context, key string) ([]byte, error) {
	var value string
	err := s.pool.QueryRow(ctx, `SELECT value FROM kv_slots WHERE key = $1`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMissing
		}
		return nil, fmt.Errorf("kv: postgres get %s: %w", key, err)
	}
	return []byte(value), nil
}

// SetMulti upserts all entries in a single transaction.
func (s *PostgresStore) SetMulti(ctx context.Context, entries ...Entry) error {
	if len(entries) == 0 {
		return nil
	}
	return withTx(ctx, s.pool, func(tx pgx.Tx) error {
		for _, e := range entries {
			if _, err := tx.Exec(ctx, upsertSlot, e.Key, string(e.Value)); err != nil {
				return fmt.Errorf("kv: postgres set %s: %w", e.Key, err)
			}
		}
		return nil
	})
}

func withTx(ctx context.Context, pool *pgxpool.Pool, fn func(pgx.Tx) error) error {
	tx, err := pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("kv: begin tx: %w", err)
	}

	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("kv: commit tx: %w", err)
	}

	return nil
}
