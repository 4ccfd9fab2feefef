package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lumilend/backend/internal/auth"
	"github.com/lumilend/backend/internal/config"
	"github.com/lumilend/backend/internal/jobs"
	"github.com/lumilend/backend/internal/observability"
	"github.com/lumilend/backend/pkg/lendclient"
)

// keeper drives liquidations through the API so the server stays the only
// writer of the ledger.
func main() {
	cfg, err := config.Load()
	if err != nil {
		observability.NewLogger("local").Error("invalid configuration", "err", err)
		os.Exit(1)
	}
	logger := observability.NewFileLogger(cfg.Env, cfg.LogFile)

	token := os.Getenv("KEEPER_TOKEN")
	if token == "" {
		jwtManager := auth.NewJWTManager(cfg.JWTIssuer, cfg.JWTAudience, cfg.JWTSigningKey)
		token, err = jwtManager.Mint("liquidation-keeper", auth.RoleAccount, 24*time.Hour)
		if err != nil {
			logger.Error("failed to mint keeper token", "err", err)
			os.Exit(1)
		}
	}
	client := lendclient.New(cfg.KeeperAPIURL, &http.Client{Timeout: 15 * time.Second}).WithToken(token)

	keeper := jobs.NewKeeper(client, logger, observability.NewMetrics(nil))

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("keeper targeting api", "url", cfg.KeeperAPIURL)
	if err := keeper.Run(sigCtx, cfg.KeeperPollInterval, cfg.KeeperBatchSize); err != nil {
		logger.Error("keeper failed", "err", err)
		os.Exit(1)
	}
}
