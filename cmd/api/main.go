package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/lumilend/backend/internal/auth"
	"github.com/lumilend/backend/internal/blockchain"
	"github.com/lumilend/backend/internal/config"
	"github.com/lumilend/backend/internal/db"
	"github.com/lumilend/backend/internal/domain/pool"
	"github.com/lumilend/backend/internal/http/handlers"
	"github.com/lumilend/backend/internal/indexer"
	"github.com/lumilend/backend/internal/jobs"
	"github.com/lumilend/backend/internal/ledger"
	"github.com/lumilend/backend/internal/observability"
	"github.com/lumilend/backend/internal/server"
	"github.com/lumilend/backend/internal/ws"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "err", err)
		os.Exit(1)
	}
	logger := observability.NewFileLogger(cfg.Env, cfg.LogFile)

	if err := run(cfg, logger); err != nil {
		logger.Error("api server failed", "err", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	startCtx, cancel := context.WithTimeout(sigCtx, 10*time.Second)
	defer cancel()

	store, closeStore, err := db.OpenLedger(startCtx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	var rdb *redis.Client
	if cfg.OracleCacheRedis || cfg.StoreBackend == "redis" {
		rdb, err = db.NewRedisClient(startCtx, cfg, store)
		if err != nil {
			return err
		}
		if cfg.StoreBackend != "redis" {
			defer rdb.Close()
		}
	}

	collab, stubs, err := blockchain.NewCollaboratorsFromConfig(startCtx, cfg, rdb)
	if err != nil {
		return err
	}
	defer collab.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(reg)

	hub := ws.NewHub()
	journal := indexer.NewJournal(store, logger, metrics, indexer.DefaultQueueSize)
	svc, err := pool.NewService(startCtx, store, pool.Deps{
		Assets:  collab.Assets,
		Oracle:  collab.Oracle,
		Rewards: collab.Rewards,
		Auth:    auth.ContextAuthorizer{},
		Events:  pool.MultiSink{ws.NewNotifier(hub, logger), journal},
		Logger:  logger,
		Metrics: metrics,
	})
	if err != nil {
		return err
	}
	if cfg.PoolAutoInit && !svc.Initialized() {
		poolCfg, err := svc.Initialize(startCtx, pool.InitParams{
			AssetID:         cfg.PoolAssetID,
			InterestRateBPS: uint32(cfg.InterestRateBPS),
			OracleID:        cfg.OracleID,
			RewardAssetID:   cfg.RewardAssetID,
			OracleSymbol:    cfg.OracleSymbol,
			PoolAccount:     cfg.PoolAccount,
		})
		if err != nil {
			return err
		}
		logger.Info("pool initialized", "asset", poolCfg.AssetID, "pool_account", poolCfg.PoolAccount, "rate_bps", cfg.InterestRateBPS)
	}

	balances := map[string]handlers.AssetBalancer{"pool": collab.Assets}
	supplies := map[string]handlers.AssetSupply{}
	var prices handlers.PriceSetter
	if stubs != nil {
		balances["reward"] = stubs.Rewards
		supplies["pool"] = stubs.Assets
		supplies["reward"] = stubs.Rewards
		// the cached wrapper, when present, evicts on write
		if setter, ok := collab.Oracle.(handlers.PriceSetter); ok {
			prices = setter
		}
	}

	jwtManager := auth.NewJWTManager(cfg.JWTIssuer, cfg.JWTAudience, cfg.JWTSigningKey)
	r := server.NewRouter(cfg, logger, server.Dependencies{
		Pinger:      ledger.StorePinger{Store: store},
		Pool:        svc,
		Initializer: svc,
		JWTManager:  jwtManager,
		WSHandler:   ws.NewHandler(hub),
		Assets:      handlers.NewAssetHandler(balances, supplies),
		Prices:      prices,
		Activity:    journal,
		Gatherer:    reg,
	})
	httpServer := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, ctx := errgroup.WithContext(sigCtx)
	g.Go(func() error {
		logger.Info("api server starting", "addr", cfg.Addr(), "store", cfg.StoreBackend, "collaborators", cfg.CollaboratorMode)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		return httpServer.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		return journal.Run(ctx, time.Second)
	})
	if cfg.KeeperEnabled {
		keeper := jobs.NewKeeper(svc, logger, metrics)
		g.Go(func() error {
			return keeper.Run(ctx, cfg.KeeperPollInterval, cfg.KeeperBatchSize)
		})
	}

	err = g.Wait()
	logger.Info("api server stopped")
	return err
}
