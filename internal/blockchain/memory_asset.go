package blockchain

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// MemoryAssetLedger is an in-process token ledger with the mint/burn/transfer/
// balance surface of a fungible-asset contract. Transfers are all-or-nothing.
type MemoryAssetLedger struct {
	mu       sync.Mutex
	symbol   string
	balances map[string]int64
}

func NewMemoryAssetLedger(symbol string) *MemoryAssetLedger {
	return &MemoryAssetLedger{symbol: symbol, balances: map[string]int64{}}
}

func (l *MemoryAssetLedger) Symbol() string {
	return l.symbol
}

func (l *MemoryAssetLedger) Mint(_ context.Context, to string, amount int64) error {
	to = strings.TrimSpace(to)
	if to == "" || amount <= 0 {
		return fmt.Errorf("%w: mint %d to %q", ErrInvalidTransfer, amount, to)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[to] += amount
	return nil
}

func (l *MemoryAssetLedger) Burn(_ context.Context, from string, amount int64) error {
	from = strings.TrimSpace(from)
	if from == "" || amount <= 0 {
		return fmt.Errorf("%w: burn %d from %q", ErrInvalidTransfer, amount, from)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.balances[from] < amount {
		return fmt.Errorf("%w: %s has %d, needs %d", ErrInsufficientFunds, from, l.balances[from], amount)
	}
	l.balances[from] -= amount
	return nil
}

func (l *MemoryAssetLedger) Transfer(_ context.Context, from, to string, amount int64) error {
	from = strings.TrimSpace(from)
	to = strings.TrimSpace(to)
	if from == "" || to == "" || amount <= 0 {
		return fmt.Errorf("%w: %d from %q to %q", ErrInvalidTransfer, amount, from, to)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.balances[from] < amount {
		return fmt.Errorf("%w: %s has %d, needs %d", ErrInsufficientFunds, from, l.balances[from], amount)
	}
	l.balances[from] -= amount
	l.balances[to] += amount
	return nil
}

func (l *MemoryAssetLedger) Balance(_ context.Context, account string) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[strings.TrimSpace(account)], nil
}

// LedgerRewardIssuer mints rewards into a MemoryAssetLedger holding the
// reward asset.
type LedgerRewardIssuer struct {
	ledger *MemoryAssetLedger
}

func NewLedgerRewardIssuer(ledger *MemoryAssetLedger) *LedgerRewardIssuer {
	return &LedgerRewardIssuer{ledger: ledger}
}

func (r *LedgerRewardIssuer) Mint(ctx context.Context, to string, amount int64) error {
	return r.ledger.Mint(ctx, to, amount)
}

var (
	_ AssetLedger  = (*MemoryAssetLedger)(nil)
	_ RewardIssuer = (*LedgerRewardIssuer)(nil)
)
