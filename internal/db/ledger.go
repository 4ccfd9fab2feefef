package db

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/lumilend/backend/internal/config"
	"github.com/lumilend/backend/internal/ledger"
	"github.com/lumilend/backend/internal/ledger/leveldb"
	"github.com/lumilend/backend/internal/ledger/memory"
	"github.com/lumilend/backend/internal/ledger/postgres"
	redisstore "github.com/lumilend/backend/internal/ledger/redis"
	"github.com/lumilend/backend/internal/ledger/sqlite"
)

// OpenLedger opens the configured store backend. The returned func releases
// everything the backend holds, including connection pools.
func OpenLedger(ctx context.Context, cfg config.Config) (ledger.Store, func(), error) {
	switch cfg.StoreBackend {
	case "", "memory":
		s := memory.New()
		return s, func() { _ = s.Close() }, nil

	case "leveldb":
		s, err := leveldb.Open(cfg.LevelDBPath)
		if err != nil {
			return nil, nil, fmt.Errorf("open leveldb %s: %w", cfg.LevelDBPath, err)
		}
		return s, func() { _ = s.Close() }, nil

	case "sqlite":
		s, err := sqlite.Open(ctx, sqlite.Config{Path: cfg.SQLitePath})
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite %s: %w", cfg.SQLitePath, err)
		}
		return s, func() { _ = s.Close() }, nil

	case "postgres":
		pool, err := NewPostgresPool(ctx, cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		s := postgres.NewStore(pool)
		if err := s.Migrate(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return s, pool.Close, nil

	case "redis":
		s, err := redisstore.New(ctx, redisstore.ClientConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       int(cfg.RedisDB),
		})
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil
	}
	return nil, nil, fmt.Errorf("invalid STORE_BACKEND: %s", cfg.StoreBackend)
}

// NewRedisClient returns the client backing the oracle price cache. It reuses
// the ledger's client when the ledger lives in Redis.
func NewRedisClient(ctx context.Context, cfg config.Config, store ledger.Store) (*redis.Client, error) {
	if rs, ok := store.(*redisstore.Store); ok {
		return rs.Underlying(), nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       int(cfg.RedisDB),
	})
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis: ping: %w", err)
	}
	return rdb, nil
}
