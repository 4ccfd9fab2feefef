package blockchain

import (
	"context"
	"fmt"
	"strings"

	"github.com/lumilend/backend/internal/config"
	"github.com/redis/go-redis/v9"
)

// StubSet is what stub mode hands back so local tooling can fund accounts.
type StubSet struct {
	Assets  *MemoryAssetLedger
	Rewards *MemoryAssetLedger
	Oracle  *StaticOracle
}

func NewStubSet(assetSymbol, rewardSymbol string) StubSet {
	return StubSet{
		Assets:  NewMemoryAssetLedger(assetSymbol),
		Rewards: NewMemoryAssetLedger(rewardSymbol),
		Oracle:  NewStaticOracle(DefaultPrices),
	}
}

func (s StubSet) Collaborators() Collaborators {
	return Collaborators{
		Assets:  s.Assets,
		Oracle:  s.Oracle,
		Rewards: NewLedgerRewardIssuer(s.Rewards),
	}
}

// NewCollaboratorsFromConfig wires the external services for the configured
// mode. rdb is optional; when set, oracle reads go through a Redis cache.
func NewCollaboratorsFromConfig(ctx context.Context, cfg config.Config, rdb *redis.Client) (Collaborators, *StubSet, error) {
	mode := strings.ToLower(strings.TrimSpace(cfg.CollaboratorMode))
	if mode == "" || mode == "stub" {
		stubs := NewStubSet(cfg.PoolAssetID, cfg.RewardAssetID)
		c := stubs.Collaborators()
		if rdb != nil {
			c.Oracle = NewCachedOracle(c.Oracle, rdb, cfg.OracleCacheTTL)
		}
		return c, &stubs, nil
	}
	if mode != "rpc" {
		return Collaborators{}, nil, fmt.Errorf("invalid COLLABORATOR_MODE: %s", cfg.CollaboratorMode)
	}

	assets, err := NewRPCAssetLedger(ctx, cfg.AssetRPCURL, cfg.PoolAssetID, cfg.CollaboratorTimeout)
	if err != nil {
		return Collaborators{}, nil, err
	}
	oracle, err := NewRPCPriceOracle(ctx, cfg.OracleRPCURL, cfg.OracleID, cfg.CollaboratorTimeout)
	if err != nil {
		assets.Close()
		return Collaborators{}, nil, err
	}
	rewards, err := NewRPCRewardIssuer(ctx, cfg.RewardRPCURL, cfg.RewardAssetID, cfg.CollaboratorTimeout)
	if err != nil {
		assets.Close()
		oracle.Close()
		return Collaborators{}, nil, err
	}

	c := Collaborators{
		Assets:  assets,
		Oracle:  oracle,
		Rewards: rewards,
		closers: []func(){assets.Close, oracle.Close, rewards.Close},
	}
	if rdb != nil {
		c.Oracle = NewCachedOracle(oracle, rdb, cfg.OracleCacheTTL)
	}
	return c, nil, nil
}
