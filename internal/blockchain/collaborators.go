package blockchain

import (
	"context"
	"errors"
)

var (
	ErrInsufficientFunds = errors.New("asset: insufficient balance")
	ErrInvalidTransfer   = errors.New("asset: invalid transfer")
	ErrPriceUnavailable  = errors.New("oracle: price unavailable")
	ErrInvalidPrice      = errors.New("oracle: invalid price")
	ErrReadOnlyOracle    = errors.New("oracle: prices cannot be set")
)

// AssetLedger moves balance of the pooled fungible asset between accounts.
type AssetLedger interface {
	Transfer(ctx context.Context, from, to string, amount int64) error
	Balance(ctx context.Context, account string) (int64, error)
}

// PriceOracle returns the scalar price of a symbol in the oracle's fixed
// point unit.
type PriceOracle interface {
	GetPrice(ctx context.Context, symbol string) (int64, error)
}

// PriceSetter overwrites a symbol's price. Only the local stub oracle
// implements it.
type PriceSetter interface {
	SetPrice(ctx context.Context, symbol string, price int64) error
}

// RewardIssuer mints reward-asset units.
type RewardIssuer interface {
	Mint(ctx context.Context, to string, amount int64) error
}

// Collaborators bundles the three external services the pool engine calls.
type Collaborators struct {
	Assets  AssetLedger
	Oracle  PriceOracle
	Rewards RewardIssuer
	closers []func()
}

func (c Collaborators) Close() {
	for _, fn := range c.closers {
		fn()
	}
}
