package blockchain

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Prices carry 7 decimals: 1_000_000 is 0.10 USD.
var DefaultPrices = map[string]int64{
	"XLM":  1_000_000,
	"USDC": 10_000_000,
}

type StaticOracle struct {
	mu     sync.RWMutex
	prices map[string]int64
}

func NewStaticOracle(prices map[string]int64) *StaticOracle {
	cp := make(map[string]int64, len(prices))
	for k, v := range prices {
		cp[strings.ToUpper(k)] = v
	}
	return &StaticOracle{prices: cp}
}

func (o *StaticOracle) SetPrice(_ context.Context, symbol string, price int64) error {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" || price <= 0 {
		return fmt.Errorf("%w: %q = %d", ErrInvalidPrice, symbol, price)
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.prices[symbol] = price
	return nil
}

func (o *StaticOracle) GetPrice(_ context.Context, symbol string) (int64, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	p, ok := o.prices[strings.ToUpper(strings.TrimSpace(symbol))]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrPriceUnavailable, symbol)
	}
	return p, nil
}

// CachedOracle is a read-through Redis cache in front of another oracle.
// Entries expire after ttl; a miss or a cache error always falls through to
// the upstream oracle, whose failure is returned as is.
type CachedOracle struct {
	upstream PriceOracle
	rdb      *redis.Client
	ttl      time.Duration
}

func NewCachedOracle(upstream PriceOracle, rdb *redis.Client, ttl time.Duration) *CachedOracle {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &CachedOracle{upstream: upstream, rdb: rdb, ttl: ttl}
}

func priceKey(symbol string) string {
	return "lumilend:price:" + strings.ToUpper(strings.TrimSpace(symbol))
}

func (o *CachedOracle) GetPrice(ctx context.Context, symbol string) (int64, error) {
	if raw, err := o.rdb.Get(ctx, priceKey(symbol)).Result(); err == nil {
		if p, perr := strconv.ParseInt(raw, 10, 64); perr == nil {
			return p, nil
		}
	}

	p, err := o.upstream.GetPrice(ctx, symbol)
	if err != nil {
		return 0, err
	}
	_ = o.rdb.Set(ctx, priceKey(symbol), strconv.FormatInt(p, 10), o.ttl).Err()
	return p, nil
}

// SetPrice writes through to the upstream oracle and drops the cached copy.
func (o *CachedOracle) SetPrice(ctx context.Context, symbol string, price int64) error {
	setter, ok := o.upstream.(PriceSetter)
	if !ok {
		return ErrReadOnlyOracle
	}
	if err := setter.SetPrice(ctx, symbol, price); err != nil {
		return err
	}
	if err := o.rdb.Del(ctx, priceKey(symbol)).Err(); err != nil {
		return fmt.Errorf("evict cached price: %w", err)
	}
	return nil
}

var (
	_ PriceOracle = (*StaticOracle)(nil)
	_ PriceOracle = (*CachedOracle)(nil)
	_ PriceSetter = (*StaticOracle)(nil)
	_ PriceSetter = (*CachedOracle)(nil)
)
