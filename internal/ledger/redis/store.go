// Package redis stores ledger records as plain Redis strings and commits
// batches inside MULTI/EXEC.
package redis

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"

	"github.com/lumilend/backend/internal/ledger"
	"github.com/redis/go-redis/v9"
)

const defaultPrefix = "lumilend:"

type ClientConfig struct {
	Addr       string
	Password   string
	DB         int
	PoolSize   int
	TLSEnabled bool
}

type Store struct {
	rdb    *redis.Client
	prefix string
}

// New dials Redis and verifies connectivity before returning.
func New(ctx context.Context, cfg ClientConfig) (*Store, error) {
	opts := &redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	}
	if cfg.TLSEnabled {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis: ping: %w", err)
	}
	return &Store{rdb: rdb, prefix: defaultPrefix}, nil
}

// NewFromClient wraps an existing client; prefix namespaces every key.
func NewFromClient(rdb *redis.Client, prefix string) *Store {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &Store{rdb: rdb, prefix: prefix}
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	v, err := s.rdb.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ledger.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis: get %s: %w", key, err)
	}
	return v, nil
}

func (s *Store) Commit(ctx context.Context, batch *ledger.Batch) error {
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, op := range batch.Ops() {
			if op.Delete {
				pipe.Del(ctx, s.prefix+op.Key)
				continue
			}
			pipe.Set(ctx, s.prefix+op.Key, op.Value, 0)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis: commit: %w", err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	if err := s.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis: ping: %w", err)
	}
	return nil
}

// Underlying exposes the client so the oracle cache can share the pool.
func (s *Store) Underlying() *redis.Client {
	return s.rdb
}

func (s *Store) Close() error {
	return s.rdb.Close()
}

var _ ledger.Store = (*Store)(nil)
