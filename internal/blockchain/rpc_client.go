package blockchain

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/rpc"
)

// The remote services speak JSON-RPC 2.0. Method names are namespaced per
// service: asset_transfer, asset_balance, oracle_getPrice, reward_mint.

type RPCAssetLedger struct {
	client  *rpc.Client
	assetID string
	timeout time.Duration
}

func NewRPCAssetLedger(ctx context.Context, url, assetID string, timeout time.Duration) (*RPCAssetLedger, error) {
	client, err := dial(ctx, url, "ASSET_RPC_URL")
	if err != nil {
		return nil, err
	}
	return &RPCAssetLedger{client: client, assetID: assetID, timeout: timeout}, nil
}

type transferArgs struct {
	Asset  string `json:"asset"`
	From   string `json:"from"`
	To     string `json:"to"`
	Amount int64  `json:"amount"`
}

func (l *RPCAssetLedger) Transfer(ctx context.Context, from, to string, amount int64) error {
	if strings.TrimSpace(from) == "" || strings.TrimSpace(to) == "" || amount <= 0 {
		return fmt.Errorf("%w: %d from %q to %q", ErrInvalidTransfer, amount, from, to)
	}
	ctx, cancel := withTimeout(ctx, l.timeout)
	defer cancel()

	var ok bool
	if err := l.client.CallContext(ctx, &ok, "asset_transfer", transferArgs{Asset: l.assetID, From: from, To: to, Amount: amount}); err != nil {
		return fmt.Errorf("asset_transfer: %w", err)
	}
	if !ok {
		return fmt.Errorf("asset_transfer: rejected")
	}
	return nil
}

func (l *RPCAssetLedger) Balance(ctx context.Context, account string) (int64, error) {
	ctx, cancel := withTimeout(ctx, l.timeout)
	defer cancel()

	var out int64
	if err := l.client.CallContext(ctx, &out, "asset_balance", l.assetID, account); err != nil {
		return 0, fmt.Errorf("asset_balance: %w", err)
	}
	return out, nil
}

func (l *RPCAssetLedger) Close() {
	l.client.Close()
}

type RPCPriceOracle struct {
	client   *rpc.Client
	oracleID string
	timeout  time.Duration
}

func NewRPCPriceOracle(ctx context.Context, url, oracleID string, timeout time.Duration) (*RPCPriceOracle, error) {
	client, err := dial(ctx, url, "ORACLE_RPC_URL")
	if err != nil {
		return nil, err
	}
	return &RPCPriceOracle{client: client, oracleID: oracleID, timeout: timeout}, nil
}

func (o *RPCPriceOracle) GetPrice(ctx context.Context, symbol string) (int64, error) {
	ctx, cancel := withTimeout(ctx, o.timeout)
	defer cancel()

	var out *int64
	if err := o.client.CallContext(ctx, &out, "oracle_getPrice", o.oracleID, strings.ToUpper(symbol)); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrPriceUnavailable, err)
	}
	if out == nil {
		return 0, fmt.Errorf("%w: %s", ErrPriceUnavailable, symbol)
	}
	return *out, nil
}

func (o *RPCPriceOracle) Close() {
	o.client.Close()
}

type RPCRewardIssuer struct {
	client  *rpc.Client
	assetID string
	timeout time.Duration
}

func NewRPCRewardIssuer(ctx context.Context, url, rewardAssetID string, timeout time.Duration) (*RPCRewardIssuer, error) {
	client, err := dial(ctx, url, "REWARD_RPC_URL")
	if err != nil {
		return nil, err
	}
	return &RPCRewardIssuer{client: client, assetID: rewardAssetID, timeout: timeout}, nil
}

func (r *RPCRewardIssuer) Mint(ctx context.Context, to string, amount int64) error {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	var ok bool
	if err := r.client.CallContext(ctx, &ok, "reward_mint", r.assetID, to, amount); err != nil {
		return fmt.Errorf("reward_mint: %w", err)
	}
	if !ok {
		return fmt.Errorf("reward_mint: rejected")
	}
	return nil
}

func (r *RPCRewardIssuer) Close() {
	r.client.Close()
}

func dial(ctx context.Context, url, name string) (*rpc.Client, error) {
	if strings.TrimSpace(url) == "" {
		return nil, fmt.Errorf("missing %s", name)
	}
	client, err := rpc.DialContext(ctx, strings.TrimSpace(url))
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", name, err)
	}
	return client, nil
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = 20 * time.Second
	}
	return context.WithTimeout(ctx, d)
}

var (
	_ AssetLedger  = (*RPCAssetLedger)(nil)
	_ PriceOracle  = (*RPCPriceOracle)(nil)
	_ RewardIssuer = (*RPCRewardIssuer)(nil)
)
