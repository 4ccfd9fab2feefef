package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lumilend/backend/internal/ledger"
)

const schema = `
CREATE TABLE IF NOT EXISTS ledger_kv (
  key        TEXT PRIMARY KEY,
  value      BYTEA NOT NULL,
  updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ledger postgres: migrate: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	q := `SELECT value FROM ledger_kv WHERE key = $1`
	var out []byte
	err := s.pool.QueryRow(ctx, q, key).Scan(&out)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ledger.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) Commit(ctx context.Context, batch *ledger.Batch) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	upsert := `
INSERT INTO ledger_kv (key, value, updated_at) VALUES ($1, $2, NOW())
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()
`
	for _, op := range batch.Ops() {
		if op.Delete {
			if _, err := tx.Exec(ctx, `DELETE FROM ledger_kv WHERE key = $1`, op.Key); err != nil {
				return err
			}
			continue
		}
		if _, err := tx.Exec(ctx, upsert, op.Key, op.Value); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close is a no-op: the pool belongs to the caller that created it.
func (s *Store) Close() error {
	return nil
}

var _ ledger.Store = (*Store)(nil)
