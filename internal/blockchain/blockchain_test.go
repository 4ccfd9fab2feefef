package blockchain

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/lumilend/backend/internal/config"
)

func TestMemoryAssetLedgerTransfer(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryAssetLedger("native")

	if err := l.Mint(ctx, "a", 100); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if err := l.Transfer(ctx, "a", "b", 40); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if err := l.Transfer(ctx, "b", "a", 41); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	if err := l.Transfer(ctx, "a", "b", 0); !errors.Is(err, ErrInvalidTransfer) {
		t.Fatalf("expected ErrInvalidTransfer, got %v", err)
	}
	if err := l.Burn(ctx, "a", 10); err != nil {
		t.Fatalf("burn: %v", err)
	}

	a, _ := l.Balance(ctx, "a")
	b, _ := l.Balance(ctx, "b")
	if a != 50 || b != 40 {
		t.Fatalf("unexpected balances a=%d b=%d", a, b)
	}
}

func TestStaticOracle(t *testing.T) {
	o := NewStaticOracle(DefaultPrices)
	p, err := o.GetPrice(context.Background(), "xlm")
	if err != nil || p != 1_000_000 {
		t.Fatalf("XLM price = %d, %v", p, err)
	}
	if _, err := o.GetPrice(context.Background(), "BTC"); !errors.Is(err, ErrPriceUnavailable) {
		t.Fatalf("expected ErrPriceUnavailable, got %v", err)
	}
	if err := o.SetPrice(context.Background(), "btc", 42); err != nil {
		t.Fatalf("set price: %v", err)
	}
	if p, _ := o.GetPrice(context.Background(), "BTC"); p != 42 {
		t.Fatalf("BTC price = %d", p)
	}
	if err := o.SetPrice(context.Background(), "btc", 0); !errors.Is(err, ErrInvalidPrice) {
		t.Fatalf("expected ErrInvalidPrice, got %v", err)
	}
	if err := o.SetPrice(context.Background(), " ", 5); !errors.Is(err, ErrInvalidPrice) {
		t.Fatalf("expected ErrInvalidPrice for blank symbol, got %v", err)
	}
}

func TestMemoryAssetBurnChecksBalance(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryAssetLedger("lumi")
	if err := l.Mint(ctx, "a", 5); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if err := l.Burn(ctx, "a", 6); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	if err := l.Burn(ctx, "", 1); !errors.Is(err, ErrInvalidTransfer) {
		t.Fatalf("expected ErrInvalidTransfer, got %v", err)
	}
	if err := l.Burn(ctx, "a", 5); err != nil {
		t.Fatalf("burn: %v", err)
	}
	if got, _ := l.Balance(ctx, "a"); got != 0 {
		t.Fatalf("balance after burn = %d", got)
	}
}

func TestCollaboratorFactoryReturnsStubsByDefault(t *testing.T) {
	c, stubs, err := NewCollaboratorsFromConfig(context.Background(), config.Config{PoolAssetID: "native", RewardAssetID: "lumi"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer c.Close()
	if stubs == nil {
		t.Fatalf("expected stub set in stub mode")
	}
	if c.Assets != AssetLedger(stubs.Assets) {
		t.Fatalf("expected stub asset ledger")
	}
	if err := stubs.Assets.Mint(context.Background(), "a", 5); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if err := c.Rewards.Mint(context.Background(), "a", 1); err != nil {
		t.Fatalf("reward mint: %v", err)
	}
	if got, _ := stubs.Rewards.Balance(context.Background(), "a"); got != 1 {
		t.Fatalf("reward balance = %d", got)
	}
}

func TestCollaboratorFactoryRPCModeRequiresURLs(t *testing.T) {
	_, _, err := NewCollaboratorsFromConfig(context.Background(), config.Config{CollaboratorMode: "rpc"}, nil)
	if err == nil {
		t.Fatalf("expected error for missing rpc urls")
	}
	_, _, err = NewCollaboratorsFromConfig(context.Background(), config.Config{CollaboratorMode: "chain"}, nil)
	if err == nil {
		t.Fatalf("expected error for unknown mode")
	}
}

type rpcRequest struct {
	ID     json.RawMessage   `json:"id"`
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
}

func newRPCServer(t *testing.T, handle func(method string, params []json.RawMessage) (any, *rpcError)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
			return
		}
		result, rerr := handle(req.Method, req.Params)
		resp := map[string]any{"jsonrpc": "2.0", "id": req.ID}
		if rerr != nil {
			resp["error"] = rerr
		} else {
			resp["result"] = result
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func TestRPCAssetLedgerTransfer(t *testing.T) {
	var got transferArgs
	srv := newRPCServer(t, func(method string, params []json.RawMessage) (any, *rpcError) {
		switch method {
		case "asset_transfer":
			if err := json.Unmarshal(params[0], &got); err != nil {
				t.Errorf("decode params: %v", err)
			}
			return true, nil
		case "asset_balance":
			return 77, nil
		}
		return nil, &rpcError{Code: -32601, Message: "method not found"}
	})

	l, err := NewRPCAssetLedger(context.Background(), srv.URL, "native", time.Second)
	if err != nil {
		t.Fatalf("new rpc asset ledger: %v", err)
	}
	defer l.Close()

	if err := l.Transfer(context.Background(), "a", "pool", 12); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if got.Asset != "native" || got.From != "a" || got.To != "pool" || got.Amount != 12 {
		t.Fatalf("unexpected transfer args: %+v", got)
	}
	bal, err := l.Balance(context.Background(), "a")
	if err != nil || bal != 77 {
		t.Fatalf("balance = %d, %v", bal, err)
	}
}

func TestRPCOracleAndRewards(t *testing.T) {
	srv := newRPCServer(t, func(method string, params []json.RawMessage) (any, *rpcError) {
		switch method {
		case "oracle_getPrice":
			var symbol string
			_ = json.Unmarshal(params[1], &symbol)
			if symbol == "XLM" {
				return 1_000_000, nil
			}
			return nil, nil
		case "reward_mint":
			return nil, &rpcError{Code: -32000, Message: "paused"}
		}
		return nil, &rpcError{Code: -32601, Message: "method not found"}
	})

	o, err := NewRPCPriceOracle(context.Background(), srv.URL, "oracle", time.Second)
	if err != nil {
		t.Fatalf("new oracle: %v", err)
	}
	defer o.Close()

	p, err := o.GetPrice(context.Background(), "xlm")
	if err != nil || p != 1_000_000 {
		t.Fatalf("price = %d, %v", p, err)
	}
	if _, err := o.GetPrice(context.Background(), "BTC"); !errors.Is(err, ErrPriceUnavailable) {
		t.Fatalf("expected ErrPriceUnavailable, got %v", err)
	}

	r, err := NewRPCRewardIssuer(context.Background(), srv.URL, "lumi", time.Second)
	if err != nil {
		t.Fatalf("new reward issuer: %v", err)
	}
	defer r.Close()
	if err := r.Mint(context.Background(), "a", 3); err == nil {
		t.Fatalf("expected mint error")
	}
}
